package model

import (
	"fmt"
	"time"
)

// CalendarKind tags what a calendar entry represents
type CalendarKind string

const (
	KindMilestone CalendarKind = "milestone"
	KindTaskDue   CalendarKind = "task_due"
	KindEvent     CalendarKind = "event"
)

// Valid reports whether k is a known kind
func (k CalendarKind) Valid() bool {
	switch k {
	case KindMilestone, KindTaskDue, KindEvent:
		return true
	}
	return false
}

// CalendarItem is a scheduled event or milestone of a project.
// End is expected, not enforced, to be at or after Start.
type CalendarItem struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"projectId"`
	TaskID      string       `json:"taskId,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Start       time.Time    `json:"startDatetime"`
	End         time.Time    `json:"endDatetime"`
	AllDay      bool         `json:"isAllDay"`
	Kind        CalendarKind `json:"type,omitempty"`
}

// Overlaps reports whether the item intersects [from, to). A zero bound
// is open.
func (c *CalendarItem) Overlaps(from, to time.Time) bool {
	end := c.End
	if end.Before(c.Start) {
		end = c.Start
	}
	if !from.IsZero() && end.Before(from) {
		return false
	}
	return to.IsZero() || c.Start.Before(to)
}

// CalendarPatch is a partial update; nil fields are left unchanged
type CalendarPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Start       *time.Time    `json:"startDatetime,omitempty"`
	End         *time.Time    `json:"endDatetime,omitempty"`
	AllDay      *bool         `json:"isAllDay,omitempty"`
	Kind        *CalendarKind `json:"type,omitempty"`
	TaskID      *string       `json:"taskId,omitempty"`
}

// Validate rejects unknown kinds
func (p CalendarPatch) Validate() error {
	if p.Kind != nil && !p.Kind.Valid() {
		return fmt.Errorf("unknown calendar item type %q", *p.Kind)
	}
	return nil
}

// Apply merges the patch into dst
func (p CalendarPatch) Apply(dst *CalendarItem) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Start != nil {
		dst.Start = *p.Start
	}
	if p.End != nil {
		dst.End = *p.End
	}
	if p.AllDay != nil {
		dst.AllDay = *p.AllDay
	}
	if p.Kind != nil {
		dst.Kind = *p.Kind
	}
	if p.TaskID != nil {
		dst.TaskID = *p.TaskID
	}
}
