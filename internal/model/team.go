package model

import "time"

// Team groups users who share projects.
type Team struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:200;not null"`
	Description string
	OwnerID     uint      `gorm:"index;not null"`
	Owner       User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Members     []User    `gorm:"many2many:team_members;constraint:OnDelete:CASCADE"`
	Projects    []Project `gorm:"foreignKey:TeamID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether userID is among the loaded members.
func (t Team) HasMember(userID uint) bool {
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
