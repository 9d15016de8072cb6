package model

import "time"

// Project is a container of tasks owned by a team.
type Project struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:200;not null"`
	Description string
	TeamID      uint   `gorm:"index;not null"`
	Team        Team   `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	OwnerID     uint   `gorm:"index;not null"`
	Owner       User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Tasks       []Task `gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProgressPercent returns floor(completed/total*100), or 0 for an empty project.
func ProgressPercent(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return int(completed * 100 / total)
}
