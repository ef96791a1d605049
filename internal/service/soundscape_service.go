package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"figaro-tab/internal/model"
	"figaro-tab/internal/repository"
	"figaro-tab/internal/soundscape"
)

var (
	ErrNothingPlaying  = errors.New("nothing is playing")
	ErrEmptyComboName  = errors.New("combo name is required")
	ErrComboNotFound   = errors.New("combo not found")
	ErrSoundNotInCombo = errors.New("sound is not part of the combo")
)

// SoundscapeService owns one soundscape store per user and keeps their
// combos persisted.
type SoundscapeService struct {
	combos *repository.ComboRepository
	logger *log.Logger
	opts   []soundscape.Option

	mu     sync.Mutex
	stores map[int64]*soundscape.Store
}

func NewSoundscapeService(combos *repository.ComboRepository, logger *log.Logger, opts ...soundscape.Option) *SoundscapeService {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("component", "soundscape")
	return &SoundscapeService{
		combos: combos,
		logger: logger,
		opts:   append([]soundscape.Option{soundscape.WithLogger(logger)}, opts...),
		stores: make(map[int64]*soundscape.Store),
	}
}

// Store returns the user's store, creating it with their saved combos on
// first use.
func (s *SoundscapeService) Store(ctx context.Context, userID int64) (*soundscape.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[userID]; ok {
		return st, nil
	}

	combos, err := s.combos.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := soundscape.NewStore(s.opts...)
	st.RestoreCombos(combos)
	s.stores[userID] = st
	return st, nil
}

// SaveCurrentAsCombo stores the sounds playing now as a new combo.
func (s *SoundscapeService) SaveCurrentAsCombo(ctx context.Context, userID int64, name string) (model.Combo, error) {
	st, err := s.Store(ctx, userID)
	if err != nil {
		return model.Combo{}, err
	}
	playing := st.Snapshot().PlayingIDs()
	if len(playing) == 0 {
		return model.Combo{}, ErrNothingPlaying
	}

	combo := model.Combo{Name: name}
	for _, id := range playing {
		combo.Sounds = append(combo.Sounds, model.ComboSound{SoundID: id})
	}
	return s.AddCombo(ctx, userID, combo)
}

// AddCombo adds combo to the user's store and persists the stored form.
func (s *SoundscapeService) AddCombo(ctx context.Context, userID int64, combo model.Combo) (model.Combo, error) {
	combo.Name = strings.TrimSpace(combo.Name)
	if combo.Name == "" {
		return model.Combo{}, ErrEmptyComboName
	}
	st, err := s.Store(ctx, userID)
	if err != nil {
		return model.Combo{}, err
	}
	if combo.ID == "" {
		combo.ID = uuid.NewString()
	}
	combo.UserID = userID

	st.AddCombo(combo)
	stored, _ := st.Combo(combo.ID)
	if err := s.combos.Create(ctx, &stored); err != nil {
		st.DeleteCombo(combo.ID)
		return model.Combo{}, fmt.Errorf("save combo: %w", err)
	}
	s.logger.Info("combo saved", "user", userID, "combo", stored.ID, "sounds", len(stored.Sounds))
	return stored, nil
}

// SetComboVolume changes one sound's volume inside a combo.
func (s *SoundscapeService) SetComboVolume(ctx context.Context, userID int64, comboID string, soundID int, volume float64) error {
	st, err := s.Store(ctx, userID)
	if err != nil {
		return err
	}
	combo, ok := st.Combo(comboID)
	if !ok {
		return ErrComboNotFound
	}
	if !slices.ContainsFunc(combo.Sounds, func(cs model.ComboSound) bool { return cs.SoundID == soundID }) {
		return ErrSoundNotInCombo
	}
	st.SetVolumeForSound(soundID, volume, comboID)

	combo, _ = st.Combo(comboID)
	for _, cs := range combo.Sounds {
		if cs.SoundID == soundID {
			return s.combos.UpdateSoundVolume(ctx, comboID, soundID, cs.Volume)
		}
	}
	return nil
}

func (s *SoundscapeService) DeleteCombo(ctx context.Context, userID int64, comboID string) error {
	st, err := s.Store(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.combos.Delete(ctx, userID, comboID); err != nil {
		return err
	}
	st.DeleteCombo(comboID)
	return nil
}

// FindCombo looks a combo up by id, id prefix or case-insensitive name.
func FindCombo(combos []model.Combo, query string) (model.Combo, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Combo{}, false
	}
	for _, c := range combos {
		if c.ID == query || strings.EqualFold(c.Name, query) {
			return c.Clone(), true
		}
	}
	for _, c := range combos {
		if len(query) >= 4 && strings.HasPrefix(c.ID, query) {
			return c.Clone(), true
		}
	}
	return model.Combo{}, false
}
