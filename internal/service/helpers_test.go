package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"figaro-tab/internal/figaro"
	"figaro-tab/internal/repository"
)

var quiet = log.New(io.Discard)

type testRepos struct {
	users  *repository.UserRepository
	combos *repository.ComboRepository
	states *repository.StateRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"), quiet)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return testRepos{
		users:  repository.NewUserRepository(db),
		combos: repository.NewComboRepository(db),
		states: repository.NewStateRepository(db),
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeFigaro answers summary requests from canned values and counts calls
// per token.
type fakeFigaro struct {
	mu         sync.Mutex
	summary    *figaro.Summary
	summaryErr error
	detailErr  error
	calls      map[string]int

	started chan struct{}
	release chan struct{}
}

func newFakeFigaro() *fakeFigaro {
	return &fakeFigaro{
		summary: &figaro.Summary{
			Subscription:  figaro.Subscription{Tier: figaro.TierPro},
			Lists:         []figaro.ListSummary{{Name: "Groceries", Items: []string{"milk"}, Count: 1}},
			Reminders:     []figaro.Reminder{{ID: "r1", Content: "Call mom", Time: "2026-10-19T18:00:00Z"}},
			Briefing:      &figaro.Briefing{Shortcode: "abc", GeneratedAt: "2026-10-19T06:00:00Z"},
			MemoriesCount: 1234,
		},
		calls: map[string]int{},
	}
}

func (f *fakeFigaro) set(summary *figaro.Summary, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary, f.summaryErr = summary, err
}

func (f *fakeFigaro) callsFor(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[token]
}

func (f *fakeFigaro) FetchSummary(ctx context.Context, token string) (*figaro.Summary, error) {
	f.mu.Lock()
	f.calls[token]++
	summary, err := f.summary, f.summaryErr
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	if err != nil {
		return nil, err
	}
	cp := *summary
	return &cp, nil
}

func (f *fakeFigaro) FetchNutrition(context.Context, string) (*figaro.Nutrition, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &figaro.Nutrition{}, nil
}

func (f *fakeFigaro) FetchFitness(context.Context, string) (*figaro.Fitness, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &figaro.Fitness{}, nil
}

func (f *fakeFigaro) FetchPeople(context.Context, string) (*figaro.People, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &figaro.People{}, nil
}

func (f *fakeFigaro) FetchMoney(context.Context, string) (*figaro.Money, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &figaro.Money{}, nil
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestFigaroService(t *testing.T, repos testRepos, api FigaroAPI) (*FigaroService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: testNow}
	svc := NewFigaroService(api, repos.states, quiet)
	svc.now = clock.Now
	return svc, clock
}
