package models

import (
	"testing"
	"time"
)

func TestNewObject(t *testing.T) {
	task, err := NewObject[*Task]()
	if err != nil {
		t.Fatalf("NewObject() error = %v", err)
	}
	if task == nil {
		t.Fatal("NewObject() returned nil pointer")
	}
	if task.ID != "" {
		t.Errorf("fresh object has ID %q, want empty", task.ID)
	}
}

func TestMeta_Stamp(t *testing.T) {
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	var m Meta
	m.Stamp(first)
	if !m.CreatedAt.Equal(first) || !m.UpdatedAt.Equal(first) {
		t.Errorf("first Stamp() = created %v updated %v, want both %v", m.CreatedAt, m.UpdatedAt, first)
	}

	m.Stamp(second)
	if !m.CreatedAt.Equal(first) {
		t.Errorf("second Stamp() moved CreatedAt to %v, want %v", m.CreatedAt, first)
	}
	if !m.UpdatedAt.Equal(second) {
		t.Errorf("second Stamp() UpdatedAt = %v, want %v", m.UpdatedAt, second)
	}
}

func TestTask_Status(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
		want TaskStatus
	}{
		{name: "done", task: Task{Done: true, DueAt: now.Add(-time.Hour)}, want: TaskStatusDone},
		{name: "overdue", task: Task{DueAt: now.Add(-time.Hour)}, want: TaskStatusOverdue},
		{name: "open with future due date", task: Task{DueAt: now.Add(time.Hour)}, want: TaskStatusOpen},
		{name: "open without due date", task: Task{}, want: TaskStatusOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Status(now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTask_MarkDone(t *testing.T) {
	task := Task{}
	task.MarkDone()
	if !task.Done {
		t.Error("MarkDone() left Done false")
	}
}

func TestNote_HasTag(t *testing.T) {
	note := Note{Tags: []string{"go", "unix"}}
	if !note.HasTag("unix") {
		t.Error("HasTag(unix) = false, want true")
	}
	if note.HasTag("plan9") {
		t.Error("HasTag(plan9) = true, want false")
	}
}

func TestNote_IsValid(t *testing.T) {
	if (&Note{}).IsValid() {
		t.Error("IsValid() on untitled note = true, want false")
	}
	if !(&Note{Title: "x"}).IsValid() {
		t.Error("IsValid() on titled note = false, want true")
	}
}
