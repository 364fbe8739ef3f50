package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/ironvault/internal/mindmap"
	"github.com/existflow/ironvault/internal/model"
)

// Project defaults
const (
	DefaultProjectTitle = "Untitled Project"
	copySuffix          = " (Copy)"
)

// ProjectFilter narrows ListProjects
type ProjectFilter struct {
	IncludeArchived bool
	Status          model.ProjectStatus
	Tag             string
}

func (f ProjectFilter) match(p *model.Project) bool {
	if p.Archived && !f.IncludeArchived {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Tag != "" && !p.HasTag(f.Tag) {
		return false
	}
	return true
}

// ListProjects returns projects in creation order, archived ones only
// when asked
func (s *Store) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	var out []model.Project
	err := s.view(ctx, func(doc *model.Document) {
		out = make([]model.Project, 0, len(doc.Projects))
		for i := range doc.Projects {
			if f.match(&doc.Projects[i]) {
				out = append(out, doc.Projects[i])
			}
		}
	})
	return out, err
}

// GetProject returns the project with id, archived or not
func (s *Store) GetProject(ctx context.Context, id string) (model.Project, error) {
	var (
		out   model.Project
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		if i := projectIndex(doc, id); i >= 0 {
			out, found = doc.Projects[i], true
		}
	})
	if err != nil {
		return model.Project{}, err
	}
	if !found {
		return model.Project{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// FindProjectByTitle returns the first non-archived project titled title
func (s *Store) FindProjectByTitle(ctx context.Context, title string) (model.Project, bool, error) {
	var (
		out   model.Project
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		out, found = findActiveByTitle(doc, title)
	})
	return out, found, err
}

func findActiveByTitle(doc *model.Document, title string) (model.Project, bool) {
	for _, p := range doc.Projects {
		if !p.Archived && p.Title == title {
			return p, true
		}
	}
	return model.Project{}, false
}

// prepareProject fills the defaults of a new project
func (s *Store) prepareProject(p model.Project) (model.Project, error) {
	if p.Status == "" {
		p.Status = model.ProjectPlanning
	} else if !p.Status.Valid() {
		return p, invalid(fmt.Errorf("unknown project status %q", p.Status))
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	} else if !p.Priority.Valid() {
		return p, invalid(fmt.Errorf("unknown priority %q", p.Priority))
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = DefaultProjectTitle
	}
	p.ID = NewID(PrefixProject)
	p.Tags = model.NormalizeTags(p.Tags)
	p.CreatedAt = s.timestamp()
	return p, nil
}

// CreateProject adds a project. Zero fields get defaults: title "Untitled
// Project", status Planning, priority Medium, no tags.
func (s *Store) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	p, err := s.prepareProject(p)
	if err != nil {
		return model.Project{}, err
	}
	err = s.mutate(ctx, func(doc *model.Document) error {
		doc.Projects = append(doc.Projects, p)
		return nil
	})
	if err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// EnsureProject returns the non-archived project titled template.Title,
// creating it from template when there is none. Lookup and creation
// happen in one write.
func (s *Store) EnsureProject(ctx context.Context, template model.Project) (model.Project, bool, error) {
	fresh, err := s.prepareProject(template)
	if err != nil {
		return model.Project{}, false, err
	}
	var (
		out     model.Project
		created bool
	)
	err = s.mutate(ctx, func(doc *model.Document) error {
		if p, ok := findActiveByTitle(doc, fresh.Title); ok {
			out, created = p, false
			return errUnchanged
		}
		doc.Projects = append(doc.Projects, fresh)
		out, created = fresh, true
		return nil
	})
	if err != nil {
		return model.Project{}, false, err
	}
	return out, created, nil
}

// UpdateProject merges patch into the project with id
func (s *Store) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (model.Project, error) {
	if err := patch.Validate(); err != nil {
		return model.Project{}, invalid(err)
	}
	var out model.Project
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := projectIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("project %q: %w", id, ErrNotFound)
		}
		patch.Apply(&doc.Projects[i])
		out = doc.Projects[i]
		return nil
	})
	if err != nil {
		return model.Project{}, err
	}
	return out, nil
}

// ArchiveProject hides the project from the default listing. Its children
// are untouched.
func (s *Store) ArchiveProject(ctx context.Context, id string) (model.Project, error) {
	archived := true
	return s.UpdateProject(ctx, id, model.ProjectPatch{Archived: &archived})
}

// UnarchiveProject restores an archived project
func (s *Store) UnarchiveProject(ctx context.Context, id string) (model.Project, error) {
	archived := false
	return s.UpdateProject(ctx, id, model.ProjectPatch{Archived: &archived})
}

// DeleteProject removes the project and every record that belongs to it
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.Document) error {
		i := projectIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("project %q: %w", id, ErrNotFound)
		}
		doc.Projects = append(doc.Projects[:i], doc.Projects[i+1:]...)
		doc.Tasks = dropWhere(doc.Tasks, func(t *model.Task) bool { return t.ProjectID == id })
		doc.Notes = dropWhere(doc.Notes, func(n *model.Note) bool { return n.ProjectID == id })
		doc.Artifacts = dropWhere(doc.Artifacts, func(a *model.Artifact) bool { return a.ProjectID == id })
		doc.CalendarItems = dropWhere(doc.CalendarItems, func(c *model.CalendarItem) bool { return c.ProjectID == id })
		doc.Mindmaps = dropWhere(doc.Mindmaps, func(m *model.Mindmap) bool { return m.ProjectID == id })
		doc.Decks = dropWhere(doc.Decks, func(d *model.Deck) bool { return d.ProjectID == id })
		doc.ActivityLogs = dropWhere(doc.ActivityLogs, func(l *model.ActivityLog) bool { return l.ProjectID == id })
		return nil
	})
}

// DuplicateProject copies a project with its tasks, notes, artifacts,
// calendar items and mindmaps under new ids. The copy is titled
// "<title> (Copy)". Links from copied notes and calendar items to tasks
// point at the copied tasks. Decks stay with the source project.
func (s *Store) DuplicateProject(ctx context.Context, id string) (model.Project, error) {
	var out model.Project
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := projectIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("project %q: %w", id, ErrNotFound)
		}
		now := s.timestamp()

		cp := doc.Projects[i]
		cp.ID = NewID(PrefixProject)
		cp.Title += copySuffix
		cp.CreatedAt = now
		cp.Tags = append([]string{}, cp.Tags...)
		doc.Projects = append(doc.Projects, cp)

		taskIDs := make(map[string]string)
		for _, t := range doc.Tasks {
			if t.ProjectID != id {
				continue
			}
			c := t
			c.ID = NewID(PrefixTask)
			c.ProjectID = cp.ID
			c.CreatedAt = now
			taskIDs[t.ID] = c.ID
			doc.Tasks = append(doc.Tasks, c)
		}
		relink := func(taskID string) string {
			if mapped, ok := taskIDs[taskID]; ok {
				return mapped
			}
			return taskID
		}

		for _, n := range doc.Notes {
			if n.ProjectID != id {
				continue
			}
			c := n
			c.ID = NewID(PrefixNote)
			c.ProjectID = cp.ID
			c.TaskID = relink(n.TaskID)
			c.CreatedAt = now
			doc.Notes = append(doc.Notes, c)
		}
		for _, a := range doc.Artifacts {
			if a.ProjectID != id {
				continue
			}
			c := a
			c.ID = NewID(PrefixArtifact)
			c.ProjectID = cp.ID
			c.CreatedAt = now
			doc.Artifacts = append(doc.Artifacts, c)
		}
		for _, ci := range doc.CalendarItems {
			if ci.ProjectID != id {
				continue
			}
			c := ci
			c.ID = NewID(PrefixCalendar)
			c.ProjectID = cp.ID
			c.TaskID = relink(ci.TaskID)
			doc.CalendarItems = append(doc.CalendarItems, c)
		}
		for _, m := range doc.Mindmaps {
			if m.ProjectID != id {
				continue
			}
			c := m
			c.ID = NewID(PrefixMindmap)
			c.ProjectID = cp.ID
			c.Root = mindmap.Clone(m.Root)
			c.CreatedAt = now
			doc.Mindmaps = append(doc.Mindmaps, c)
		}

		out = cp
		return nil
	})
	if err != nil {
		return model.Project{}, err
	}
	return out, nil
}

// ProjectStats counts the project's tasks per status
func (s *Store) ProjectStats(ctx context.Context, id string) (model.TaskCounts, error) {
	var (
		out   model.TaskCounts
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		if !hasProject(doc, id) {
			return
		}
		found = true
		tasks := make([]model.Task, 0)
		for _, t := range doc.Tasks {
			if t.ProjectID == id {
				tasks = append(tasks, t)
			}
		}
		out = model.CountTasks(tasks)
	})
	if err != nil {
		return model.TaskCounts{}, err
	}
	if !found {
		return model.TaskCounts{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// dropWhere removes the items matching drop, keeping order
func dropWhere[T any](items []T, drop func(*T) bool) []T {
	out := items[:0]
	for i := range items {
		if !drop(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}
