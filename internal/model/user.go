package model

import "time"

// User stores Telegram user metadata and delivery preferences.
type User struct {
	ID            uint  `gorm:"primaryKey"`
	TelegramID    int64 `gorm:"uniqueIndex"`
	FirstName     string
	LastName      string
	Username      string
	DigestEnabled bool `gorm:"default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
