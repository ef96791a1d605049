package service

import (
	"context"
	"encoding/json"
	"fmt"

	"figaro-tab/internal/model"
	"figaro-tab/internal/persist"
	"figaro-tab/internal/repository"
)

// blobStore loads and saves one versioned document kind, upgrading old
// documents through its chain on the way in.
type blobStore[T any] struct {
	repo  *repository.StateRepository
	key   string
	chain *persist.Chain
}

func (b blobStore[T]) load(ctx context.Context, userID int64) (T, bool, error) {
	var zero T
	blob, err := b.repo.Load(ctx, userID, b.key)
	if err != nil || blob == nil {
		return zero, false, err
	}

	var doc map[string]any
	if err := json.Unmarshal(blob.Data, &doc); err != nil {
		return zero, false, fmt.Errorf("decode %s state: %w", b.key, err)
	}
	doc, err = b.chain.Upgrade(blob.Version, doc)
	if err != nil {
		return zero, false, fmt.Errorf("upgrade %s state: %w", b.key, err)
	}
	v, err := persist.Decode[T](doc)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (b blobStore[T]) save(ctx context.Context, userID int64, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s state: %w", b.key, err)
	}
	return b.repo.Save(ctx, &model.StateBlob{
		UserID:  userID,
		Key:     b.key,
		Version: b.chain.Current(),
		Data:    data,
	})
}
