package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figaro-tab/internal/figaro"
	"figaro-tab/internal/model"
)

func TestLoginSyncsSummary(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, _ := newTestFigaroService(t, newTestRepos(t), api)

	require.NoError(t, svc.Login(ctx, 1, "  tok  "))

	st, err := svc.State(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	assert.True(t, st.IsPremium)
	assert.Equal(t, figaro.TierPro, st.SubscriptionTier)
	assert.Equal(t, "tok", st.Session.Token)
	assert.Equal(t, testNow.Add(24*time.Hour), st.Session.ExpiresAt)
	assert.Len(t, st.Lists, 1)
	assert.Equal(t, 1234, st.MemoriesCount)
	require.NotNil(t, st.LastSyncAt)
	assert.Empty(t, st.SyncError)
	assert.False(t, st.IsSyncing)
	assert.True(t, st.CanAccessWidgets(testNow))
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	svc, _ := newTestFigaroService(t, newTestRepos(t), newFakeFigaro())
	assert.ErrorIs(t, svc.Login(context.Background(), 1, "   "), ErrEmptyToken)
}

func TestLoginUnauthorizedClearsSession(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	api.set(nil, &figaro.APIError{Status: 401, Message: "bad token"})
	svc, _ := newTestFigaroService(t, newTestRepos(t), api)

	err := svc.Login(ctx, 1, "tok")
	require.ErrorIs(t, err, ErrLoginRejected)

	st, err := svc.State(ctx, 1)
	require.NoError(t, err)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.Session)
	assert.Equal(t, "Session expired", st.SyncError)
}

func TestFreeTierIsNotPremium(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	api.summary.Subscription.Tier = figaro.TierFree
	svc, _ := newTestFigaroService(t, newTestRepos(t), api)

	require.NoError(t, svc.Login(ctx, 1, "tok"))
	st, _ := svc.State(ctx, 1)
	assert.False(t, st.IsPremium)
}

func TestMissingTierCountsAsPremium(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	api.summary.Subscription.Tier = ""
	svc, _ := newTestFigaroService(t, newTestRepos(t), api)

	require.NoError(t, svc.Login(ctx, 1, "tok"))
	st, _ := svc.State(ctx, 1)
	assert.True(t, st.IsPremium)
}

func TestSyncIsStalenessGated(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, newTestRepos(t), api)

	require.NoError(t, svc.Login(ctx, 1, "tok"))
	require.NoError(t, svc.Sync(ctx, 1))
	assert.Equal(t, 1, api.callsFor("tok"))

	clock.Advance(4 * time.Minute)
	require.NoError(t, svc.Sync(ctx, 1))
	assert.Equal(t, 1, api.callsFor("tok"))

	clock.Advance(2 * time.Minute)
	require.NoError(t, svc.Sync(ctx, 1))
	assert.Equal(t, 2, api.callsFor("tok"))
}

func TestSyncWithExpiredSession(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, newTestRepos(t), api)

	require.NoError(t, svc.Login(ctx, 1, "tok"))
	// Inside the five minute grace window the session already counts as gone.
	clock.Advance(24*time.Hour - 4*time.Minute)

	require.NoError(t, svc.Sync(ctx, 1))
	st, _ := svc.State(ctx, 1)
	assert.False(t, st.IsAuthenticated)
	assert.Equal(t, "No valid session", st.SyncError)
	assert.Equal(t, 1, api.callsFor("tok"))
}

func TestSyncFailureKeepsAuthAndData(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, newTestRepos(t), api)

	require.NoError(t, svc.Login(ctx, 1, "tok"))
	api.set(nil, figaro.ErrNetwork)
	clock.Advance(10 * time.Minute)

	require.NoError(t, svc.Sync(ctx, 1))
	st, _ := svc.State(ctx, 1)
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, figaro.ErrNetwork.Error(), st.SyncError)
	assert.Len(t, st.Lists, 1)
	assert.Equal(t, testNow, *st.LastSyncAt)
}

func TestConcurrentSyncIsDropped(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, newTestRepos(t), api)
	require.NoError(t, svc.Login(ctx, 1, "tok"))
	clock.Advance(10 * time.Minute)

	started, release := make(chan struct{}), make(chan struct{})
	api.mu.Lock()
	api.started, api.release = started, release
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- svc.Sync(ctx, 1) }()
	<-started

	st, _ := svc.State(ctx, 1)
	assert.True(t, st.IsSyncing)

	api.mu.Lock()
	api.started = nil
	api.mu.Unlock()
	require.NoError(t, svc.Sync(ctx, 1))
	assert.Equal(t, 2, api.callsFor("tok"))

	close(release)
	require.NoError(t, <-done)
	st, _ = svc.State(ctx, 1)
	assert.False(t, st.IsSyncing)
}

func TestSyncRecordsRequestStartTime(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, newTestRepos(t), api)
	require.NoError(t, svc.Login(ctx, 1, "tok"))
	clock.Advance(figaro.StaleThreshold)
	startedAt := clock.Now()

	started, release := make(chan struct{}), make(chan struct{})
	api.mu.Lock()
	api.started, api.release = started, release
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- svc.Sync(ctx, 1) }()
	<-started
	clock.Advance(3 * time.Second)
	close(release)
	require.NoError(t, <-done)

	st, _ := svc.State(ctx, 1)
	require.NotNil(t, st.LastSyncAt)
	assert.Equal(t, startedAt, *st.LastSyncAt)

	// A tick exactly one threshold after the previous one syncs again.
	api.mu.Lock()
	api.started = nil
	api.mu.Unlock()
	clock.Advance(figaro.StaleThreshold - 3*time.Second)
	require.NoError(t, svc.Sync(ctx, 1))
	assert.Equal(t, 3, api.callsFor("tok"))
}

func TestLogoutDuringSyncDiscardsResult(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, newTestRepos(t), api)
	require.NoError(t, svc.Login(ctx, 1, "tok"))
	clock.Advance(10 * time.Minute)

	started, release := make(chan struct{}), make(chan struct{})
	api.mu.Lock()
	api.started, api.release = started, release
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- svc.Sync(ctx, 1) }()
	<-started
	require.NoError(t, svc.Logout(ctx, 1))
	close(release)
	require.NoError(t, <-done)

	st, _ := svc.State(ctx, 1)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.Session)
	assert.Empty(t, st.Lists)
}

func TestStateSurvivesRestartWithoutRuntimeFields(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, repos, api)

	require.NoError(t, svc.Login(ctx, 1, "tok"))
	api.set(nil, errors.New("boom"))
	clock.Advance(10 * time.Minute)
	require.NoError(t, svc.Sync(ctx, 1))

	restarted, _ := newTestFigaroService(t, repos, api)
	st, err := restarted.State(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "tok", st.Session.Token)
	assert.Len(t, st.Reminders, 1)
	assert.Empty(t, st.SyncError)
	assert.False(t, st.IsSyncing)
}

func TestFigaroStateUpgradedFromV0(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	require.NoError(t, repos.states.Save(ctx, &model.StateBlob{
		UserID:  5,
		Key:     figaroStateKey,
		Version: 0,
		Data:    []byte(`{"isAuthenticated":true,"session":{"token":"old","expiresAt":"2026-10-20T00:00:00Z"}}`),
	}))

	svc, _ := newTestFigaroService(t, repos, newFakeFigaro())
	st, err := svc.State(ctx, 5)
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	assert.NotNil(t, st.Lists)
	assert.Empty(t, st.Lists)
	assert.NotNil(t, st.Reminders)
	assert.Zero(t, st.MemoriesCount)
}

func TestLogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestFigaroService(t, newTestRepos(t), newFakeFigaro())
	require.NoError(t, svc.Login(ctx, 1, "tok"))
	require.NoError(t, svc.FetchMoney(ctx, 1))

	require.NoError(t, svc.Logout(ctx, 1))
	st, _ := svc.State(ctx, 1)
	assert.Equal(t, FigaroState{}, st)
}

func TestFetchDetails(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, _ := newTestFigaroService(t, newTestRepos(t), api)

	// No session: nothing fetched, nothing stored.
	require.NoError(t, svc.FetchNutrition(ctx, 1))
	st, _ := svc.State(ctx, 1)
	assert.Nil(t, st.Nutrition)

	require.NoError(t, svc.Login(ctx, 1, "tok"))
	require.NoError(t, svc.FetchNutrition(ctx, 1))
	require.NoError(t, svc.FetchFitness(ctx, 1))
	require.NoError(t, svc.FetchPeople(ctx, 1))
	require.NoError(t, svc.FetchMoney(ctx, 1))
	st, _ = svc.State(ctx, 1)
	assert.NotNil(t, st.Nutrition)
	assert.NotNil(t, st.Fitness)
	assert.NotNil(t, st.People)
	assert.NotNil(t, st.Money)

	api.detailErr = figaro.ErrTimeout
	assert.ErrorIs(t, svc.FetchPeople(ctx, 1), figaro.ErrTimeout)
	st, _ = svc.State(ctx, 1)
	assert.NotNil(t, st.People)
	assert.True(t, st.IsAuthenticated)
}

func TestSyncAllOnlySyncsAuthenticatedUsers(t *testing.T) {
	ctx := context.Background()
	api := newFakeFigaro()
	svc, clock := newTestFigaroService(t, newTestRepos(t), api)

	require.NoError(t, svc.Login(ctx, 1, "one"))
	require.NoError(t, svc.Login(ctx, 2, "two"))
	require.NoError(t, svc.Logout(ctx, 2))
	clock.Advance(10 * time.Minute)

	require.NoError(t, svc.SyncAll(ctx))
	assert.Equal(t, 2, api.callsFor("one"))
	assert.Equal(t, 1, api.callsFor("two"))
}
