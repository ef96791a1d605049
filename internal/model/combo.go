package model

import "time"

// Combo is a user-saved group of sounds with individually remembered volumes.
type Combo struct {
	ID        string `gorm:"primaryKey"`
	UserID    int64  `gorm:"index"`
	Name      string
	Sounds    []ComboSound `gorm:"foreignKey:ComboID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComboSound is one sound entry of a combo.
type ComboSound struct {
	ID      uint   `gorm:"primaryKey"`
	ComboID string `gorm:"index:idx_combo_sound,unique"`
	SoundID int    `gorm:"index:idx_combo_sound,unique"`
	Volume  float64
}

// Clone returns a deep copy so callers never share the Sounds backing array.
func (c Combo) Clone() Combo {
	out := c
	out.Sounds = append([]ComboSound(nil), c.Sounds...)
	return out
}
