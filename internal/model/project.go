package model

import (
	"fmt"
	"strings"
)

// ProjectStatus is the lifecycle stage of a project
type ProjectStatus string

const (
	ProjectIdea       ProjectStatus = "Idea"
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectPaused     ProjectStatus = "Paused"
	ProjectComplete   ProjectStatus = "Complete"
)

// ProjectStatuses lists every project status in display order
var ProjectStatuses = []ProjectStatus{ProjectIdea, ProjectPlanning, ProjectInProgress, ProjectPaused, ProjectComplete}

// Valid reports whether s is a known status
func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseProjectStatus accepts the display form or a slug ("in-progress")
func ParseProjectStatus(s string) (ProjectStatus, error) {
	for _, v := range ProjectStatuses {
		if normalizeEnum(s) == normalizeEnum(string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

// Priority of a project
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// ParsePriority is case-insensitive
func ParsePriority(s string) (Priority, error) {
	for _, v := range Priorities {
		if normalizeEnum(s) == normalizeEnum(string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Project is the top-level container ("vault") for a body of work
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`
	Tags        []string      `json:"tags"`
	Color       string        `json:"color,omitempty"`
	StartDate   *Date         `json:"startDate,omitempty"`
	TargetDate  *Date         `json:"targetDate,omitempty"`
	CreatedAt   Timestamp     `json:"createdAt"`
	Archived    bool          `json:"archived,omitempty"`
}

// HasTag reports whether the project carries tag, ignoring case
func (p *Project) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ProjectPatch is a partial update; nil fields are left unchanged
type ProjectPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Priority    *Priority      `json:"priority,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
	Color       *string        `json:"color,omitempty"`
	StartDate   *Date          `json:"startDate,omitempty"`
	TargetDate  *Date          `json:"targetDate,omitempty"`
	Archived    *bool          `json:"archived,omitempty"`
}

// Validate rejects unknown enum values
func (p ProjectPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("unknown project status %q", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", *p.Priority)
	}
	return nil
}

// Apply merges the patch into dst
func (p ProjectPatch) Apply(dst *Project) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.Priority != nil {
		dst.Priority = *p.Priority
	}
	if p.Tags != nil {
		dst.Tags = NormalizeTags(*p.Tags)
	}
	if p.Color != nil {
		dst.Color = *p.Color
	}
	if p.StartDate != nil {
		d := *p.StartDate
		dst.StartDate = optionalDate(&d)
	}
	if p.TargetDate != nil {
		d := *p.TargetDate
		dst.TargetDate = optionalDate(&d)
	}
	if p.Archived != nil {
		dst.Archived = *p.Archived
	}
}

// NormalizeTags drops blank and repeated tags, keeping first occurrences
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func normalizeEnum(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
