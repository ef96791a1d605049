package model

import "time"

// StateBlob is a versioned JSON document persisted per user and key
// (for example "dock" or "figaro").
type StateBlob struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"index:idx_user_state_key,unique"`
	Key       string `gorm:"column:state_key;index:idx_user_state_key,unique"`
	Version   int
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}
