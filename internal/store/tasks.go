package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/ironvault/internal/model"
)

// DefaultTaskTitle is the title of tasks created without one
const DefaultTaskTitle = "Untitled Task"

// TaskFilter narrows ListTasks; zero fields match everything
type TaskFilter struct {
	ProjectID string
	Status    model.TaskStatus
}

// ListTasks returns tasks in creation order
func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	var out []model.Task
	err := s.view(ctx, func(doc *model.Document) {
		out = make([]model.Task, 0)
		for _, t := range doc.Tasks {
			if f.ProjectID != "" && t.ProjectID != f.ProjectID {
				continue
			}
			if f.Status != "" && t.Status != f.Status {
				continue
			}
			out = append(out, t)
		}
	})
	return out, err
}

// GetTask returns the task with id
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	var (
		out   model.Task
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		if i := taskIndex(doc, id); i >= 0 {
			out, found = doc.Tasks[i], true
		}
	})
	if err != nil {
		return model.Task{}, err
	}
	if !found {
		return model.Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// CreateTask adds a task to an existing project. It defaults to the
// Backlog column.
func (s *Store) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.Status == "" {
		t.Status = model.TaskBacklog
	} else if !t.Status.Valid() {
		return model.Task{}, invalid(fmt.Errorf("unknown task status %q", t.Status))
	}
	if strings.TrimSpace(t.Title) == "" {
		t.Title = DefaultTaskTitle
	}
	t.ID = NewID(PrefixTask)
	t.CreatedAt = s.timestamp()

	err := s.mutate(ctx, func(doc *model.Document) error {
		if err := requireProject(doc, t.ProjectID); err != nil {
			return err
		}
		doc.Tasks = append(doc.Tasks, t)
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// UpdateTask merges patch into the task with id
func (s *Store) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if err := patch.Validate(); err != nil {
		return model.Task{}, invalid(err)
	}
	var out model.Task
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := taskIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("task %q: %w", id, ErrNotFound)
		}
		patch.Apply(&doc.Tasks[i])
		out = doc.Tasks[i]
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// MoveTask changes the board column of a task
func (s *Store) MoveTask(ctx context.Context, id string, status model.TaskStatus) (model.Task, error) {
	return s.UpdateTask(ctx, id, model.TaskPatch{Status: &status})
}

// DeleteTask removes the task and its task notes. Calendar items linked
// to it stay and lose the link.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.Document) error {
		i := taskIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("task %q: %w", id, ErrNotFound)
		}
		doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
		doc.Notes = dropWhere(doc.Notes, func(n *model.Note) bool { return n.TaskID == id })
		for j := range doc.CalendarItems {
			if doc.CalendarItems[j].TaskID == id {
				doc.CalendarItems[j].TaskID = ""
			}
		}
		return nil
	})
}
