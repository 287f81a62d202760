package models

import "time"

// Task represents a unit of work tracked in a store
type Task struct {
	Meta
	Title    string    `json:"title" validate:"required"`
	Project  string    `json:"project,omitempty"`
	Priority int64     `json:"priority,omitempty"`
	Done     bool      `json:"done"`
	DueAt    time.Time `json:"due_at,omitempty"`
}

func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Done && !t.DueAt.IsZero() && t.DueAt.Before(now)
}

func (t *Task) MarkDone() {
	t.Done = true
}

// TaskStatus represents the derived state of a task
type TaskStatus string

const (
	TaskStatusOpen    TaskStatus = "open"
	TaskStatusOverdue TaskStatus = "overdue"
	TaskStatusDone    TaskStatus = "done"
)

func (t *Task) Status(now time.Time) TaskStatus {
	switch {
	case t.Done:
		return TaskStatusDone
	case t.IsOverdue(now):
		return TaskStatusOverdue
	default:
		return TaskStatusOpen
	}
}
