package model

import "time"

// Session binds an opaque cookie token to a logged-in user.
type Session struct {
	ID         uint      `gorm:"primaryKey"`
	Token      string    `gorm:"size:64;uniqueIndex;not null"`
	UserID     uint      `gorm:"index;not null"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt  time.Time `gorm:"index"`
	LastSeenAt time.Time
	CreatedAt  time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
