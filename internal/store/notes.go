package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/ironvault/internal/model"
)

// DefaultNoteTitle is the title of notes created without one
const DefaultNoteTitle = "Untitled Note"

// NoteFilter narrows ListNotes. With TaskID set only that task's notes
// are returned; otherwise task notes are left out unless
// IncludeTaskNotes is set.
type NoteFilter struct {
	ProjectID        string
	TaskID           string
	IncludeTaskNotes bool
	PinnedOnly       bool
}

func (f NoteFilter) match(n *model.Note) bool {
	if f.ProjectID != "" && n.ProjectID != f.ProjectID {
		return false
	}
	if f.TaskID != "" {
		if n.TaskID != f.TaskID {
			return false
		}
	} else if n.IsTaskNote() && !f.IncludeTaskNotes {
		return false
	}
	return !f.PinnedOnly || n.Pinned
}

// ListNotes returns notes in creation order
func (s *Store) ListNotes(ctx context.Context, f NoteFilter) ([]model.Note, error) {
	var out []model.Note
	err := s.view(ctx, func(doc *model.Document) {
		out = make([]model.Note, 0)
		for i := range doc.Notes {
			if f.match(&doc.Notes[i]) {
				out = append(out, doc.Notes[i])
			}
		}
	})
	return out, err
}

// GetNote returns the note with id
func (s *Store) GetNote(ctx context.Context, id string) (model.Note, error) {
	var (
		out   model.Note
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		if i := noteIndex(doc, id); i >= 0 {
			out, found = doc.Notes[i], true
		}
	})
	if err != nil {
		return model.Note{}, err
	}
	if !found {
		return model.Note{}, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// CreateNote adds a note. Project and task are both optional but must
// exist when given; a task note without a project takes its task's.
func (s *Store) CreateNote(ctx context.Context, n model.Note) (model.Note, error) {
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultNoteTitle
	}
	n.ID = NewID(PrefixNote)
	n.CreatedAt = s.timestamp()

	var out model.Note
	err := s.mutate(ctx, func(doc *model.Document) error {
		out = n
		if err := addNote(doc, &out); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return model.Note{}, err
	}
	return out, nil
}

// addNote checks the links of n and appends it
func addNote(doc *model.Document, n *model.Note) error {
	if n.ProjectID != "" {
		if err := requireProject(doc, n.ProjectID); err != nil {
			return err
		}
	}
	if err := requireTask(doc, n.TaskID); err != nil {
		return err
	}
	if n.TaskID != "" && n.ProjectID == "" {
		n.ProjectID = doc.Tasks[taskIndex(doc, n.TaskID)].ProjectID
	}
	doc.Notes = append(doc.Notes, *n)
	return nil
}

// UpdateNote merges patch into the note with id
func (s *Store) UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	var out model.Note
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := noteIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("note %q: %w", id, ErrNotFound)
		}
		patch.Apply(&doc.Notes[i])
		out = doc.Notes[i]
		return nil
	})
	if err != nil {
		return model.Note{}, err
	}
	return out, nil
}

// DeleteNote removes the note with id
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.Document) error {
		i := noteIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("note %q: %w", id, ErrNotFound)
		}
		doc.Notes = append(doc.Notes[:i], doc.Notes[i+1:]...)
		return nil
	})
}

func noteIndex(doc *model.Document, id string) int {
	for i := range doc.Notes {
		if doc.Notes[i].ID == id {
			return i
		}
	}
	return -1
}
