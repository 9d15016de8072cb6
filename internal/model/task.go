package model

import (
	"fmt"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Statuses lists every status in display order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusCompleted}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Label is the human readable status.
func (s TaskStatus) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// Priority ranks tasks from 1 (low) to 4 (urgent).
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
	PriorityUrgent Priority = 4
)

// Priorities lists every priority in ascending order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	}
	return fmt.Sprintf("P%d", int(p))
}

// Task represents a unit of work within a project.
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:200;not null"`
	Description string
	ProjectID   uint             `gorm:"index;not null"`
	Project     Project          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Status      TaskStatus       `gorm:"size:20;not null;default:todo;index"`
	Priority    Priority         `gorm:"not null;default:2;index"`
	CreatedByID *uint            `gorm:"index"`
	CreatedBy   *User            `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	DueDate     *time.Time       `gorm:"index"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID"`
	Comments    []Comment        `gorm:"foreignKey:TaskID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOverdue is true when a due date is set, the task is not completed and the
// due date is strictly before now.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// CreatedByUser reports whether userID created the task.
func (t Task) CreatedByUser(userID uint) bool {
	return t.CreatedByID != nil && *t.CreatedByID == userID
}
