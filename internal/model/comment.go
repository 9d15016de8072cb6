package model

import "time"

// Comment is a note left on a task.
type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	TaskID    uint   `gorm:"index;not null"`
	Task      Task   `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	AuthorID  uint   `gorm:"index;not null"`
	Author    User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
