package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/ironvault/internal/model"
)

// DefaultEventTitle is the title of calendar items created without one
const DefaultEventTitle = "Untitled Event"

// CalendarFilter narrows ListCalendarItems. From and To, when set,
// select items overlapping [From, To).
type CalendarFilter struct {
	ProjectID string
	TaskID    string
	From      time.Time
	To        time.Time
}

func (f CalendarFilter) match(c *model.CalendarItem) bool {
	if f.ProjectID != "" && c.ProjectID != f.ProjectID {
		return false
	}
	if f.TaskID != "" && c.TaskID != f.TaskID {
		return false
	}
	return c.Overlaps(f.From, f.To)
}

// ListCalendarItems returns calendar items in creation order
func (s *Store) ListCalendarItems(ctx context.Context, f CalendarFilter) ([]model.CalendarItem, error) {
	var out []model.CalendarItem
	err := s.view(ctx, func(doc *model.Document) {
		out = make([]model.CalendarItem, 0)
		for i := range doc.CalendarItems {
			if f.match(&doc.CalendarItems[i]) {
				out = append(out, doc.CalendarItems[i])
			}
		}
	})
	return out, err
}

// GetCalendarItem returns the calendar item with id
func (s *Store) GetCalendarItem(ctx context.Context, id string) (model.CalendarItem, error) {
	var (
		out   model.CalendarItem
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		if i := calendarIndex(doc, id); i >= 0 {
			out, found = doc.CalendarItems[i], true
		}
	})
	if err != nil {
		return model.CalendarItem{}, err
	}
	if !found {
		return model.CalendarItem{}, fmt.Errorf("calendar item %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// CreateCalendarItem schedules an item. Without times it starts and ends
// now; without a kind it is an event. End before start is accepted.
func (s *Store) CreateCalendarItem(ctx context.Context, c model.CalendarItem) (model.CalendarItem, error) {
	if c.Kind == "" {
		c.Kind = model.KindEvent
	} else if !c.Kind.Valid() {
		return model.CalendarItem{}, invalid(fmt.Errorf("unknown calendar item type %q", c.Kind))
	}
	if strings.TrimSpace(c.Title) == "" {
		c.Title = DefaultEventTitle
	}
	now := s.timestamp().Time
	if c.Start.IsZero() {
		c.Start = now
	}
	if c.End.IsZero() {
		c.End = now
	}
	c.ID = NewID(PrefixCalendar)

	err := s.mutate(ctx, func(doc *model.Document) error {
		if err := requireProject(doc, c.ProjectID); err != nil {
			return err
		}
		if err := requireTask(doc, c.TaskID); err != nil {
			return err
		}
		doc.CalendarItems = append(doc.CalendarItems, c)
		return nil
	})
	if err != nil {
		return model.CalendarItem{}, err
	}
	return c, nil
}

// UpdateCalendarItem merges patch into the calendar item with id
func (s *Store) UpdateCalendarItem(ctx context.Context, id string, patch model.CalendarPatch) (model.CalendarItem, error) {
	if err := patch.Validate(); err != nil {
		return model.CalendarItem{}, invalid(err)
	}
	var out model.CalendarItem
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := calendarIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("calendar item %q: %w", id, ErrNotFound)
		}
		if patch.TaskID != nil {
			if err := requireTask(doc, *patch.TaskID); err != nil {
				return err
			}
		}
		patch.Apply(&doc.CalendarItems[i])
		out = doc.CalendarItems[i]
		return nil
	})
	if err != nil {
		return model.CalendarItem{}, err
	}
	return out, nil
}

// DeleteCalendarItem removes the calendar item with id
func (s *Store) DeleteCalendarItem(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.Document) error {
		i := calendarIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("calendar item %q: %w", id, ErrNotFound)
		}
		doc.CalendarItems = append(doc.CalendarItems[:i], doc.CalendarItems[i+1:]...)
		return nil
	})
}

func calendarIndex(doc *model.Document, id string) int {
	for i := range doc.CalendarItems {
		if doc.CalendarItems[i].ID == id {
			return i
		}
	}
	return -1
}
