package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figaro-tab/internal/model"
	"figaro-tab/internal/soundscape"
)

func TestSaveCurrentAsCombo(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewSoundscapeService(repos.combos, quiet)

	_, err := svc.SaveCurrentAsCombo(ctx, 1, "Empty")
	assert.ErrorIs(t, err, ErrNothingPlaying)

	st, err := svc.Store(ctx, 1)
	require.NoError(t, err)
	st.PlaySound(soundscape.SoundRain)
	st.PlaySound(soundscape.SoundCoffeeShop)
	st.SetVolumeForSound(soundscape.SoundRain, 0.2, "")

	_, err = svc.SaveCurrentAsCombo(ctx, 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyComboName)

	combo, err := svc.SaveCurrentAsCombo(ctx, 1, " Rainy cafe ")
	require.NoError(t, err)
	assert.NotEmpty(t, combo.ID)
	assert.Equal(t, "Rainy cafe", combo.Name)
	require.Len(t, combo.Sounds, 2)
	for _, cs := range combo.Sounds {
		assert.Equal(t, 1.0, cs.Volume)
	}

	restarted := NewSoundscapeService(repos.combos, quiet)
	st2, err := restarted.Store(ctx, 1)
	require.NoError(t, err)
	combos := st2.Snapshot().Combos
	require.Len(t, combos, 1)
	assert.Equal(t, combo.ID, combos[0].ID)
	assert.Len(t, combos[0].Sounds, 2)
}

func TestComboVolumeAndDelete(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewSoundscapeService(repos.combos, quiet)

	combo, err := svc.AddCombo(ctx, 1, model.Combo{
		Name:   "Storm",
		Sounds: []model.ComboSound{{SoundID: soundscape.SoundRain, Volume: 0.3}, {SoundID: soundscape.SoundThunder}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetComboVolume(ctx, 1, combo.ID, soundscape.SoundThunder, 1.7))
	assert.ErrorIs(t, svc.SetComboVolume(ctx, 1, "nope", 1, 0.5), ErrComboNotFound)
	assert.ErrorIs(t, svc.SetComboVolume(ctx, 1, combo.ID, soundscape.SoundForest, 0.5), ErrSoundNotInCombo)

	stored, err := repos.combos.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1.0, stored[0].Sounds[0].Volume)
	assert.Equal(t, 1.0, stored[0].Sounds[1].Volume)

	require.NoError(t, svc.SetComboVolume(ctx, 1, combo.ID, soundscape.SoundRain, 0.25))
	stored, _ = repos.combos.ListByUser(ctx, 1)
	assert.Equal(t, 0.25, stored[0].Sounds[0].Volume)

	st, _ := svc.Store(ctx, 1)
	st.PlayCombo(combo.ID)
	snap := st.Snapshot()
	assert.ElementsMatch(t, []int{soundscape.SoundRain, soundscape.SoundThunder}, snap.PlayingIDs())

	require.NoError(t, svc.DeleteCombo(ctx, 1, combo.ID))
	assert.Empty(t, st.Snapshot().Combos)
	stored, _ = repos.combos.ListByUser(ctx, 1)
	assert.Empty(t, stored)
}

func TestStoresAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	svc := NewSoundscapeService(newTestRepos(t).combos, quiet)

	a, err := svc.Store(ctx, 1)
	require.NoError(t, err)
	b, err := svc.Store(ctx, 2)
	require.NoError(t, err)
	again, _ := svc.Store(ctx, 1)
	assert.Same(t, a, again)

	a.PlayCategory(soundscape.Relax)
	assert.True(t, a.Snapshot().IsAnyPlaying())
	assert.False(t, b.Snapshot().IsAnyPlaying())
}

func TestFindCombo(t *testing.T) {
	combos := []model.Combo{
		{ID: "3f2a9c1e-0000-4000-8000-000000000001", Name: "Deep Focus"},
		{ID: "7b7b7b7b-0000-4000-8000-000000000002", Name: "Night"},
	}

	c, ok := FindCombo(combos, "deep focus")
	assert.True(t, ok)
	assert.Equal(t, combos[0].ID, c.ID)

	c, ok = FindCombo(combos, "7b7b")
	assert.True(t, ok)
	assert.Equal(t, "Night", c.Name)

	_, ok = FindCombo(combos, "7b")
	assert.False(t, ok)
	_, ok = FindCombo(combos, "")
	assert.False(t, ok)
}
