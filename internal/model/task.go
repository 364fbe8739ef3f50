package model

import "fmt"

// TaskStatus is the kanban column of a task
type TaskStatus string

const (
	TaskBacklog    TaskStatus = "Backlog"
	TaskInProgress TaskStatus = "In Progress"
	TaskBlocked    TaskStatus = "Blocked"
	TaskDone       TaskStatus = "Done"
)

// TaskStatuses lists the board columns left to right
var TaskStatuses = []TaskStatus{TaskBacklog, TaskInProgress, TaskBlocked, TaskDone}

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseTaskStatus accepts the display form or a slug ("in-progress", "done")
func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, v := range TaskStatuses {
		if normalizeEnum(s) == normalizeEnum(string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Task represents a single unit of work on a project board
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     *Date      `json:"dueDate,omitempty"`
	CreatedAt   Timestamp  `json:"createdAt"`
}

// IsDone returns true if the task sits in the Done column
func (t *Task) IsDone() bool {
	return t.Status == TaskDone
}

// IsOverdue returns true if the task is open and past its due date
func (t *Task) IsOverdue(today Date) bool {
	if t.DueDate == nil || t.IsDone() {
		return false
	}
	return t.DueDate.Before(today)
}

// TaskPatch is a partial update; nil fields are left unchanged
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	DueDate     *Date       `json:"dueDate,omitempty"`
	ClearDue    bool        `json:"clearDue,omitempty"`
}

// Validate rejects unknown enum values
func (p TaskPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("unknown task status %q", *p.Status)
	}
	return nil
}

// Apply merges the patch into dst
func (p TaskPatch) Apply(dst *Task) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.ClearDue {
		dst.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		dst.DueDate = optionalDate(&d)
	}
}

// TaskCounts summarises a project board
type TaskCounts struct {
	Total    int                `json:"total"`
	ByStatus map[TaskStatus]int `json:"byStatus"`
}

// Done returns the number of completed tasks
func (c TaskCounts) Done() int {
	return c.ByStatus[TaskDone]
}

// CountTasks tallies tasks per status
func CountTasks(tasks []Task) TaskCounts {
	c := TaskCounts{ByStatus: make(map[TaskStatus]int, len(TaskStatuses))}
	for _, t := range tasks {
		c.Total++
		c.ByStatus[t.Status]++
	}
	return c
}
