package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"figaro-tab/internal/model"
)

// StateRepository stores versioned per-user JSON blobs.
type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Load returns the blob stored under key, or nil when there is none.
func (r *StateRepository) Load(ctx context.Context, userID int64, key string) (*model.StateBlob, error) {
	var blob model.StateBlob
	err := r.db.WithContext(ctx).Where("user_id = ? AND state_key = ?", userID, key).First(&blob).Error
	switch {
	case err == nil:
		return &blob, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("load %s state: %w", key, err)
	}
}

// Save inserts or replaces the blob for (UserID, Key).
func (r *StateRepository) Save(ctx context.Context, blob *model.StateBlob) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "data", "updated_at"}),
	}).Create(blob).Error
	if err != nil {
		return fmt.Errorf("save %s state: %w", blob.Key, err)
	}
	return nil
}

// ListUserIDs returns every user that has a blob stored under key.
func (r *StateRepository) ListUserIDs(ctx context.Context, key string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.StateBlob{}).
		Where("state_key = ?", key).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list %s users: %w", key, err)
	}
	return ids, nil
}

func (r *StateRepository) Delete(ctx context.Context, userID int64, key string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND state_key = ?", userID, key).Delete(&model.StateBlob{}).Error; err != nil {
		return fmt.Errorf("delete %s state: %w", key, err)
	}
	return nil
}
