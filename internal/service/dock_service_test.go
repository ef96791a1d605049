package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figaro-tab/internal/model"
)

func TestDockDefaults(t *testing.T) {
	d := DefaultDockState()
	assert.True(t, d.IsGreetingsVisible)
	assert.False(t, d.IsTimerVisible)
	assert.Equal(t, -1, d.CurrentOnboardingStep)
	assert.False(t, d.DockIconsVisible[IconClock])
	assert.True(t, d.DockIconsVisible["figaroReminders"])
	_, hasGreetings := d.DockIconsVisible["greetings"]
	assert.False(t, hasGreetings)
}

func TestDockTimerAndBreathing(t *testing.T) {
	d := DefaultDockState()

	require.NoError(t, d.Toggle(WidgetTimer))
	assert.True(t, d.IsTimerVisible)
	assert.True(t, d.IsGreetingsVisible)

	require.NoError(t, d.Toggle(WidgetBreathing))
	assert.True(t, d.IsBreathingVisible)
	assert.False(t, d.IsTimerVisible)
	assert.False(t, d.IsGreetingsVisible)

	require.NoError(t, d.Toggle(WidgetBreathing))
	assert.False(t, d.IsBreathingVisible)
	assert.True(t, d.IsGreetingsVisible)

	require.NoError(t, d.Toggle(WidgetTimer))
	require.NoError(t, d.Toggle(WidgetTimer))
	assert.False(t, d.IsTimerVisible)
	assert.False(t, d.IsGreetingsVisible)
}

func TestDockPlainToggleAndErrors(t *testing.T) {
	d := DefaultDockState()
	require.NoError(t, d.Toggle(WidgetNotes))
	assert.True(t, d.Visible(WidgetNotes))
	assert.True(t, d.IsGreetingsVisible)

	assert.ErrorIs(t, d.Toggle("weather"), ErrUnknownWidget)
	assert.ErrorIs(t, d.SetVisible("weather", true), ErrUnknownWidget)
	assert.ErrorIs(t, d.SetDockIconVisible("greetings", false), ErrUnknownWidget)
	require.NoError(t, d.SetDockIconVisible(IconClock, true))
	assert.True(t, d.DockIconsVisible[IconClock])
}

func TestDockResetKeepsIconsAndLabels(t *testing.T) {
	d := DefaultDockState()
	require.NoError(t, d.SetVisible(WidgetCalendar, true))
	require.NoError(t, d.SetDockIconVisible("tasks", false))
	d.ShowIconLabels = true
	d.CurrentOnboardingStep = 3

	d.Reset()
	assert.False(t, d.IsCalendarVisible)
	assert.True(t, d.IsGreetingsVisible)
	assert.Equal(t, -1, d.CurrentOnboardingStep)
	assert.False(t, d.DockIconsVisible["tasks"])
	assert.True(t, d.ShowIconLabels)
}

func TestDockServicePersistsPartialState(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := NewDockService(repos.states, quiet)

	_, err := svc.Toggle(ctx, 1, WidgetTimer)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, 1, WidgetSoundscapes)
	require.NoError(t, err)
	_, err = svc.SetDockIconVisible(ctx, 1, "bookmarks", false)
	require.NoError(t, err)
	_, err = svc.SetShowIconLabels(ctx, 1, true)
	require.NoError(t, err)
	_, err = svc.SetOnboardingStep(ctx, 1, 2)
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, 1, "weather")
	assert.ErrorIs(t, err, ErrUnknownWidget)

	restarted := NewDockService(repos.states, quiet)
	d, err := restarted.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, d.IsTimerVisible)
	assert.False(t, d.IsSoundscapesVisible)
	assert.False(t, d.DockIconsVisible["bookmarks"])
	assert.True(t, d.DockIconsVisible["notes"])
	assert.True(t, d.ShowIconLabels)
	assert.Equal(t, 2, d.CurrentOnboardingStep)

	d, err = restarted.Reset(ctx, 1)
	require.NoError(t, err)
	assert.False(t, d.IsTimerVisible)
	assert.Equal(t, -1, d.CurrentOnboardingStep)
}

func TestDockUpgradeFromV4(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	require.NoError(t, repos.states.Save(ctx, &model.StateBlob{
		UserID:  1,
		Key:     dockStateKey,
		Version: 4,
		Data: []byte(`{"isTimerVisible":true,"isWeatherVisible":true,
			"dockIconsVisible":{"timer":false,"weather":true},"currentOnboardingStep":1}`),
	}))

	d, err := NewDockService(repos.states, quiet).Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, d.IsTimerVisible)
	assert.False(t, d.DockIconsVisible["timer"])
	assert.True(t, d.DockIconsVisible["notes"])
	assert.True(t, d.DockIconsVisible["figaroBriefing"])
	_, hasWeather := d.DockIconsVisible["weather"]
	assert.False(t, hasWeather)
	assert.Equal(t, 1, d.CurrentOnboardingStep)
}

func TestDockChainBackfillsFlags(t *testing.T) {
	doc, err := dockChain.Upgrade(6, map[string]any{"dockIconsVisible": map[string]any{"calendar": false}})
	require.NoError(t, err)
	icons := doc["dockIconsVisible"].(map[string]any)
	assert.Equal(t, false, icons["calendar"])
	assert.Equal(t, true, icons["figaroLists"])
	assert.Equal(t, false, doc["isFigaroListsVisible"])
	assert.NotContains(t, icons, "notes")
}

func TestParseWidget(t *testing.T) {
	w, ok := ParseWidget("SiteBlocker")
	assert.True(t, ok)
	assert.Equal(t, WidgetSiteBlocker, w)
	_, ok = ParseWidget("weather")
	assert.False(t, ok)
}
