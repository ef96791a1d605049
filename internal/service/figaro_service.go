package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"figaro-tab/internal/figaro"
	"figaro-tab/internal/persist"
	"figaro-tab/internal/repository"
)

const (
	figaroStateKey     = "figaro"
	figaroStateVersion = 1

	sessionTTL   = 24 * time.Hour
	sessionGrace = 5 * time.Minute

	syncAllLimit = 4
)

var (
	// ErrEmptyToken is returned by Login for a blank token.
	ErrEmptyToken = errors.New("token is required")
	// ErrLoginRejected is returned when the first sync after login fails auth.
	ErrLoginRejected = errors.New("login rejected")
)

// FigaroAPI is the part of the Figaro client the service needs.
type FigaroAPI interface {
	FetchSummary(ctx context.Context, token string) (*figaro.Summary, error)
	FetchNutrition(ctx context.Context, token string) (*figaro.Nutrition, error)
	FetchFitness(ctx context.Context, token string) (*figaro.Fitness, error)
	FetchPeople(ctx context.Context, token string) (*figaro.People, error)
	FetchMoney(ctx context.Context, token string) (*figaro.Money, error)
}

type FigaroSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FigaroState is the cached Figaro data and auth state of one user.
// SyncError and IsSyncing are runtime-only and never persisted.
type FigaroState struct {
	IsAuthenticated  bool                 `json:"isAuthenticated"`
	Session          *FigaroSession       `json:"session"`
	IsPremium        bool                 `json:"isPremium"`
	SubscriptionTier figaro.Tier          `json:"subscriptionTier"`
	Lists            []figaro.ListSummary `json:"lists"`
	Reminders        []figaro.Reminder    `json:"reminders"`
	Briefing         *figaro.Briefing     `json:"briefing"`
	MemoriesCount    int                  `json:"memoriesCount"`
	Nutrition        *figaro.Nutrition    `json:"nutrition"`
	Fitness          *figaro.Fitness      `json:"fitness"`
	People           *figaro.People       `json:"people"`
	Money            *figaro.Money        `json:"money"`
	LastSyncAt       *time.Time           `json:"lastSyncAt"`

	SyncError string `json:"-"`
	IsSyncing bool   `json:"-"`
}

// SessionValid reports whether the session has more than five minutes left.
func (s FigaroState) SessionValid(now time.Time) bool {
	return s.Session != nil && s.Session.ExpiresAt.After(now.Add(sessionGrace))
}

// CanAccessWidgets reports whether Figaro widgets may be shown.
func (s FigaroState) CanAccessWidgets(now time.Time) bool {
	return s.IsAuthenticated && s.SessionValid(now)
}

func (s FigaroState) token() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.Token
}

var figaroChain = persist.NewChain(figaroStateKey, figaroStateVersion,
	persist.Step{From: 0, Upgrade: func(doc map[string]any) map[string]any {
		persist.Backfill(doc, "isAuthenticated", false)
		persist.Backfill(doc, "lists", []any{})
		persist.Backfill(doc, "reminders", []any{})
		persist.Backfill(doc, "memoriesCount", 0)
		return doc
	}},
)

type figaroEntry struct {
	state   FigaroState
	syncing *semaphore.Weighted
	saveMu  sync.Mutex
}

// FigaroService keeps per-user Figaro sessions and cached data in sync with
// the remote API.
type FigaroService struct {
	client FigaroAPI
	states *repository.StateRepository
	blobs  blobStore[FigaroState]
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[int64]*figaroEntry
}

func NewFigaroService(client FigaroAPI, states *repository.StateRepository, logger *log.Logger) *FigaroService {
	if logger == nil {
		logger = log.Default()
	}
	return &FigaroService{
		client:  client,
		states:  states,
		blobs:   blobStore[FigaroState]{repo: states, key: figaroStateKey, chain: figaroChain},
		logger:  logger.With("component", "figaro"),
		now:     time.Now,
		entries: make(map[int64]*figaroEntry),
	}
}

func (s *FigaroService) entry(ctx context.Context, userID int64) (*figaroEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		return e, nil
	}
	st, _, err := s.blobs.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	e := &figaroEntry{state: st, syncing: semaphore.NewWeighted(1)}
	s.entries[userID] = e
	return e, nil
}

// commit mutates the user's state and persists the result. Commits for one
// user are serialized so saves land in mutation order.
func (s *FigaroService) commit(ctx context.Context, userID int64, e *figaroEntry, mutate func(st *FigaroState)) (FigaroState, error) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	s.mu.Lock()
	mutate(&e.state)
	snap := e.state
	s.mu.Unlock()

	return snap, s.blobs.save(ctx, userID, snap)
}

// State returns a copy of the user's Figaro state.
func (s *FigaroService) State(ctx context.Context, userID int64) (FigaroState, error) {
	e, err := s.entry(ctx, userID)
	if err != nil {
		return FigaroState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.state, nil
}

// Login stores a 24h session for token and syncs right away.
func (s *FigaroService) Login(ctx context.Context, userID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	e, err := s.entry(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	_, err = s.commit(ctx, userID, e, func(st *FigaroState) {
		st.IsAuthenticated = true
		st.Session = &FigaroSession{Token: token, ExpiresAt: now.Add(sessionTTL)}
		st.SyncError = ""
		st.LastSyncAt = nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("figaro login", "user", userID)

	if err := s.Sync(ctx, userID); err != nil {
		return err
	}
	st, err := s.State(ctx, userID)
	if err != nil {
		return err
	}
	if !st.IsAuthenticated {
		return fmt.Errorf("%w: %s", ErrLoginRejected, st.SyncError)
	}
	return nil
}

// Logout forgets the session and every cached item.
func (s *FigaroService) Logout(ctx context.Context, userID int64) error {
	e, err := s.entry(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.commit(ctx, userID, e, func(st *FigaroState) { *st = FigaroState{} })
	if err == nil {
		s.logger.Info("figaro logout", "user", userID)
	}
	return err
}

// Sync refreshes the summary when the cached copy is stale. A sync requested
// while another one for the same user is in flight is dropped. Fetch failures
// are recorded in SyncError; the returned error only reports storage problems.
func (s *FigaroService) Sync(ctx context.Context, userID int64) error {
	e, err := s.entry(ctx, userID)
	if err != nil {
		return err
	}
	if !e.syncing.TryAcquire(1) {
		s.logger.Debug("sync already in flight, dropped", "user", userID)
		return nil
	}
	defer e.syncing.Release(1)

	now := s.now()
	s.mu.Lock()
	valid := e.state.SessionValid(now)
	stale := figaro.ShouldSync(e.state.LastSyncAt, now)
	token := e.state.token()
	s.mu.Unlock()

	if !valid {
		_, err := s.commit(ctx, userID, e, func(st *FigaroState) {
			st.SyncError = "No valid session"
			st.IsAuthenticated = false
		})
		return err
	}
	if !stale {
		return nil
	}

	s.mu.Lock()
	e.state.IsSyncing = true
	e.state.SyncError = ""
	s.mu.Unlock()

	summary, fetchErr := s.client.FetchSummary(ctx, token)
	if fetchErr != nil {
		s.logger.Warn("sync failed", "user", userID, "err", fetchErr)
	}

	_, err = s.commit(ctx, userID, e, func(st *FigaroState) {
		st.IsSyncing = false
		if st.token() != token {
			// Logged out or re-logged in while the request was in flight.
			return
		}
		switch {
		case fetchErr == nil:
			st.IsPremium = summary.Subscription.Tier != figaro.TierFree
			st.SubscriptionTier = summary.Subscription.Tier
			st.Lists = summary.Lists
			st.Reminders = summary.Reminders
			st.Briefing = summary.Briefing
			st.MemoriesCount = summary.MemoriesCount
			synced := now
			st.LastSyncAt = &synced
			st.SyncError = ""
		case errors.Is(fetchErr, figaro.ErrUnauthorized):
			st.IsAuthenticated = false
			st.Session = nil
			st.SyncError = "Session expired"
		default:
			st.SyncError = fetchErr.Error()
		}
	})
	return err
}

// SyncAll syncs every authenticated user, a few at a time.
func (s *FigaroService) SyncAll(ctx context.Context) error {
	ids, err := s.states.ListUserIDs(ctx, figaroStateKey)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncAllLimit)
	for _, id := range ids {
		g.Go(func() error {
			st, err := s.State(gctx, id)
			if err != nil {
				s.logger.Error("load state", "user", id, "err", err)
				return nil
			}
			if !st.IsAuthenticated {
				return nil
			}
			if err := s.Sync(gctx, id); err != nil {
				s.logger.Error("persist sync", "user", id, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *FigaroService) FetchNutrition(ctx context.Context, userID int64) error {
	return s.fetchDetail(ctx, userID, "nutrition", func(ctx context.Context, token string) (func(*FigaroState), error) {
		n, err := s.client.FetchNutrition(ctx, token)
		return func(st *FigaroState) { st.Nutrition = n }, err
	})
}

func (s *FigaroService) FetchFitness(ctx context.Context, userID int64) error {
	return s.fetchDetail(ctx, userID, "fitness", func(ctx context.Context, token string) (func(*FigaroState), error) {
		f, err := s.client.FetchFitness(ctx, token)
		return func(st *FigaroState) { st.Fitness = f }, err
	})
}

func (s *FigaroService) FetchPeople(ctx context.Context, userID int64) error {
	return s.fetchDetail(ctx, userID, "people", func(ctx context.Context, token string) (func(*FigaroState), error) {
		p, err := s.client.FetchPeople(ctx, token)
		return func(st *FigaroState) { st.People = p }, err
	})
}

func (s *FigaroService) FetchMoney(ctx context.Context, userID int64) error {
	return s.fetchDetail(ctx, userID, "money", func(ctx context.Context, token string) (func(*FigaroState), error) {
		m, err := s.client.FetchMoney(ctx, token)
		return func(st *FigaroState) { st.Money = m }, err
	})
}

// fetchDetail loads one detail section. Without a valid session it does
// nothing; a failed fetch is logged and leaves the cached section alone.
func (s *FigaroService) fetchDetail(ctx context.Context, userID int64, name string, fetch func(context.Context, string) (func(*FigaroState), error)) error {
	e, err := s.entry(ctx, userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	valid := e.state.SessionValid(s.now())
	token := e.state.token()
	s.mu.Unlock()
	if !valid {
		return nil
	}

	apply, err := fetch(ctx, token)
	if err != nil {
		s.logger.Warn("fetch failed", "section", name, "user", userID, "err", err)
		return err
	}
	_, err = s.commit(ctx, userID, e, func(st *FigaroState) {
		if st.token() == token {
			apply(st)
		}
	})
	return err
}
