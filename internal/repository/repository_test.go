package repository

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"figaro-tab/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "test.db"), log.New(io.Discard))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestUserUpsertAndDigestPreference(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	created, err := repo.UpsertFromTelegram(ctx, 100, "Ada", "L", "ada")
	require.NoError(t, err)
	assert.True(t, created.DigestEnabled)

	updated, err := repo.UpsertFromTelegram(ctx, 100, "Ada", "Lovelace", "ada")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	_, err = repo.UpsertFromTelegram(ctx, 200, "Bob", "", "")
	require.NoError(t, err)

	require.NoError(t, repo.SetDigestEnabled(ctx, 200, false))
	assert.ErrorIs(t, repo.SetDigestEnabled(ctx, 999, true), gorm.ErrRecordNotFound)

	recipients, err := repo.ListDigestRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, int64(100), recipients[0].TelegramID)

	found, err := repo.FindByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", found.LastName)
}

func TestComboLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewComboRepository(newTestDB(t))

	combo := &model.Combo{
		ID:     "c1",
		UserID: 7,
		Name:   "Rainy cafe",
		Sounds: []model.ComboSound{{SoundID: 1, Volume: 1}, {SoundID: 11, Volume: 1}},
	}
	require.NoError(t, repo.Create(ctx, combo))
	require.NoError(t, repo.Create(ctx, &model.Combo{ID: "other", UserID: 8}))

	require.NoError(t, repo.UpdateSoundVolume(ctx, "c1", 11, 0.4))

	combos, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, "Rainy cafe", combos[0].Name)
	require.Len(t, combos[0].Sounds, 2)
	assert.Equal(t, 1.0, combos[0].Sounds[0].Volume)
	assert.Equal(t, 0.4, combos[0].Sounds[1].Volume)

	// Deleting someone else's combo is a no-op.
	require.NoError(t, repo.Delete(ctx, 8, "c1"))
	combos, err = repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, combos, 1)

	require.NoError(t, repo.Delete(ctx, 7, "c1"))
	require.NoError(t, repo.Delete(ctx, 7, "missing"))
	combos, err = repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, combos)
}

func TestStateBlobUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(newTestDB(t))

	blob, err := repo.Load(ctx, 1, "dock")
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, repo.Save(ctx, &model.StateBlob{UserID: 1, Key: "dock", Version: 8, Data: []byte(`{"a":1}`)}))
	require.NoError(t, repo.Save(ctx, &model.StateBlob{UserID: 1, Key: "dock", Version: 9, Data: []byte(`{"a":2}`)}))
	require.NoError(t, repo.Save(ctx, &model.StateBlob{UserID: 2, Key: "figaro", Version: 1, Data: []byte(`{}`)}))

	blob, err = repo.Load(ctx, 1, "dock")
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, 9, blob.Version)
	assert.JSONEq(t, `{"a":2}`, string(blob.Data))

	ids, err := repo.ListUserIDs(ctx, "figaro")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	require.NoError(t, repo.Delete(ctx, 1, "dock"))
	blob, err = repo.Load(ctx, 1, "dock")
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestEnsureDirForSQLiteSkipsMemory(t *testing.T) {
	assert.NoError(t, ensureDirForSQLite(":memory:"))
	assert.NoError(t, ensureDirForSQLite("file:x?mode=memory&cache=shared"))
}
