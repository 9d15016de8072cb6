package model

import "time"

// TaskAssignment binds a user to a task; (TaskID, AssignedToID) is unique.
type TaskAssignment struct {
	ID           uint      `gorm:"primaryKey"`
	TaskID       uint      `gorm:"not null;uniqueIndex:idx_task_assignee"`
	Task         Task      `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	AssignedToID uint      `gorm:"not null;uniqueIndex:idx_task_assignee;index"`
	AssignedTo   User      `gorm:"foreignKey:AssignedToID;constraint:OnDelete:CASCADE"`
	AssignedByID *uint     `gorm:"index"`
	AssignedBy   *User     `gorm:"foreignKey:AssignedByID;constraint:OnDelete:SET NULL"`
	AssignedAt   time.Time `gorm:"autoCreateTime"`
	IsCompleted  bool      `gorm:"not null;default:false"`
	CompletedAt  *time.Time
}
