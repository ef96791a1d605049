package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"figaro-tab/internal/model"
)

// ComboRepository stores user-saved sound combos.
type ComboRepository struct {
	db *gorm.DB
}

func NewComboRepository(db *gorm.DB) *ComboRepository {
	return &ComboRepository{db: db}
}

func (r *ComboRepository) ListByUser(ctx context.Context, userID int64) ([]model.Combo, error) {
	var combos []model.Combo
	err := r.db.WithContext(ctx).
		Preload("Sounds", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&combos).Error
	if err != nil {
		return nil, fmt.Errorf("list combos: %w", err)
	}
	return combos, nil
}

func (r *ComboRepository) Create(ctx context.Context, combo *model.Combo) error {
	if err := r.db.WithContext(ctx).Create(combo).Error; err != nil {
		return fmt.Errorf("create combo: %w", err)
	}
	return nil
}

// UpdateSoundVolume changes the remembered volume of one sound in a combo.
func (r *ComboRepository) UpdateSoundVolume(ctx context.Context, comboID string, soundID int, volume float64) error {
	err := r.db.WithContext(ctx).Model(&model.ComboSound{}).
		Where("combo_id = ? AND sound_id = ?", comboID, soundID).
		Update("volume", volume).Error
	if err != nil {
		return fmt.Errorf("update combo volume: %w", err)
	}
	return nil
}

// Delete removes a combo and its sounds. Deleting a missing combo is not an error.
func (r *ComboRepository) Delete(ctx context.Context, userID int64, comboID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, comboID).Delete(&model.Combo{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Where("combo_id = ?", comboID).Delete(&model.ComboSound{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete combo: %w", err)
	}
	return nil
}
