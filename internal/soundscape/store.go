package soundscape

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"figaro-tab/internal/model"
)

// SoundState is one entry of a remotely shared listening state.
type SoundState struct {
	ID     int
	Volume float64
}

// State is a point-in-time copy of everything the store tracks.
type State struct {
	Sounds                   []Sound
	Combos                   []model.Combo
	GlobalVolume             float64
	PausedSounds             []int
	IsOscillating            bool
	ActiveCategory           Category // empty when nothing is active
	IsShuffling              bool
	SharedSoundState         []SoundState
	EditorTypingSoundEnabled bool
}

func (s State) clone() State {
	out := s
	out.Sounds = make([]Sound, len(s.Sounds))
	for i, snd := range s.Sounds {
		snd.Tags = slices.Clone(snd.Tags)
		out.Sounds[i] = snd
	}
	out.Combos = make([]model.Combo, len(s.Combos))
	for i, c := range s.Combos {
		out.Combos[i] = c.Clone()
	}
	out.PausedSounds = slices.Clone(s.PausedSounds)
	out.SharedSoundState = slices.Clone(s.SharedSoundState)
	return out
}

// PlayingIDs returns the ids of every playing sound in catalog order.
func (s State) PlayingIDs() []int {
	var ids []int
	for _, snd := range s.Sounds {
		if snd.Playing {
			ids = append(ids, snd.ID)
		}
	}
	return ids
}

// IsAnyPlaying reports whether at least one sound is playing.
func (s State) IsAnyPlaying() bool {
	for _, snd := range s.Sounds {
		if snd.Playing {
			return true
		}
	}
	return false
}

// Store owns the playback, volume and selection state of one listener.
// Every operation is total: unknown sound ids, categories and combos leave
// the state unchanged.
type Store struct {
	mu         sync.Mutex
	state      State
	catalog    []Sound
	categories map[Category][]int
	rnd        *rand.Rand
	logger     *log.Logger

	listeners map[int]func(State)
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithCatalog replaces the built-in sound catalog.
func WithCatalog(sounds []Sound) Option {
	return func(s *Store) { s.catalog = slices.Clone(sounds) }
}

// WithCategorySounds replaces the built-in category table.
func WithCategorySounds(table map[Category][]int) Option {
	return func(s *Store) { s.categories = table }
}

// WithRand sets the randomness source used by PlayRandom.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rnd = r }
}

// WithLogger sets the logger used to report ignored operations.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store over the built-in catalog with every sound paused.
func NewStore(opts ...Option) *Store {
	s := &Store{
		catalog:    Catalog(),
		categories: CategorySounds,
		logger:     log.Default(),
		listeners:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.state = State{
		Sounds:                   s.freshSounds(),
		GlobalVolume:             DefaultVolume,
		EditorTypingSoundEnabled: true,
	}
	return s
}

func (s *Store) freshSounds() []Sound {
	sounds := make([]Sound, len(s.catalog))
	for i, snd := range s.catalog {
		snd.Tags = slices.Clone(snd.Tags)
		snd.Volume = DefaultVolume
		snd.Playing = false
		snd.Loading = false
		sounds[i] = snd
	}
	return sounds
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to be called with a snapshot after every mutation.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn under the lock and notifies subscribers outside of it.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) withSound(id int, fn func(snd *Sound)) {
	s.update(func(st *State) {
		for i := range st.Sounds {
			if st.Sounds[i].ID == id {
				fn(&st.Sounds[i])
				return
			}
		}
		s.logger.Debug("soundscape: unknown sound ignored", "sound", id)
	})
}

// SetSoundLoading marks a sound as buffering or ready.
func (s *Store) SetSoundLoading(id int, loading bool) {
	s.withSound(id, func(snd *Sound) { snd.Loading = loading })
}

// SetVolumeForSound sets the volume of a sound. With a non-empty comboID only
// that combo's entry for the sound changes; the live sound is left alone.
func (s *Store) SetVolumeForSound(id int, volume float64, comboID string) {
	volume = clampVolume(volume)
	if comboID == "" {
		s.withSound(id, func(snd *Sound) { snd.Volume = volume })
		return
	}
	s.update(func(st *State) {
		for i := range st.Combos {
			if st.Combos[i].ID != comboID {
				continue
			}
			for j := range st.Combos[i].Sounds {
				if st.Combos[i].Sounds[j].SoundID == id {
					st.Combos[i].Sounds[j].Volume = volume
				}
			}
			return
		}
		s.logger.Debug("soundscape: unknown combo ignored", "combo", comboID)
	})
}

// SetGlobalVolume sets the master volume.
func (s *Store) SetGlobalVolume(volume float64) {
	volume = clampVolume(volume)
	s.update(func(st *State) { st.GlobalVolume = volume })
}

func (s *Store) PlaySound(id int) {
	s.withSound(id, func(snd *Sound) { snd.Playing = true })
}

func (s *Store) PauseSound(id int) {
	s.withSound(id, func(snd *Sound) { snd.Playing = false })
}

// ToggleSoundState flips one sound. The active category is kept even though
// the playing set no longer matches it.
func (s *Store) ToggleSoundState(id int) {
	s.withSound(id, func(snd *Sound) { snd.Playing = !snd.Playing })
}

// PausePlayingSounds stores the playing ids as the resume point and stops
// everything. A second call overwrites the previous resume point.
func (s *Store) PausePlayingSounds() {
	s.update(func(st *State) {
		paused := []int{}
		for i := range st.Sounds {
			if st.Sounds[i].Playing {
				paused = append(paused, st.Sounds[i].ID)
				st.Sounds[i].Playing = false
			}
		}
		st.PausedSounds = paused
		st.IsShuffling = false
	})
}

// ResumePausedSounds restarts the sounds captured by PausePlayingSounds and
// consumes the resume point.
func (s *Store) ResumePausedSounds() {
	s.update(func(st *State) {
		for i := range st.Sounds {
			if slices.Contains(st.PausedSounds, st.Sounds[i].ID) {
				st.Sounds[i].Playing = true
			}
		}
		st.PausedSounds = []int{}
	})
}

// PlayCategory plays exactly the sounds of c. Asking for the category that is
// already active while something plays stops everything instead.
func (s *Store) PlayCategory(c Category) {
	ids, ok := s.categories[c]
	if !ok {
		s.logger.Debug("soundscape: unknown category ignored", "category", c)
		return
	}
	s.update(func(st *State) {
		if st.IsAnyPlaying() && st.ActiveCategory == c {
			stopAll(st)
			return
		}
		playExactly(st, func(id int) bool { return slices.Contains(ids, id) })
		st.ActiveCategory = c
	})
}

// PlayRandom plays a random blend of two to four draws from the catalog.
// Draws are with replacement, so duplicates collapse into fewer sounds.
func (s *Store) PlayRandom() {
	s.update(func(st *State) {
		if st.IsAnyPlaying() && st.ActiveCategory == Random {
			stopAll(st)
			return
		}
		if len(st.Sounds) == 0 {
			return
		}
		count := s.rnd.IntN(3) + 2
		picked := make(map[int]bool, count)
		for range count {
			picked[st.Sounds[s.rnd.IntN(len(st.Sounds))].ID] = true
		}
		playExactly(st, func(id int) bool { return picked[id] })
		st.ActiveCategory = Random
	})
}

func (s *Store) ToggleOscillation() {
	s.update(func(st *State) { st.IsOscillating = !st.IsOscillating })
}

func (s *Store) ToggleShuffle() {
	s.update(func(st *State) { st.IsShuffling = !st.IsShuffling })
}

// AddCombo appends combo with every sound volume forced to 1. The caller's
// volumes are discarded; product has not confirmed whether that is intended.
func (s *Store) AddCombo(combo model.Combo) {
	combo = combo.Clone()
	for i := range combo.Sounds {
		combo.Sounds[i].Volume = 1
	}
	s.update(func(st *State) { st.Combos = append(st.Combos, combo) })
}

// RestoreCombos replaces the combo list verbatim, keeping stored volumes.
func (s *Store) RestoreCombos(combos []model.Combo) {
	restored := make([]model.Combo, len(combos))
	for i, c := range combos {
		restored[i] = c.Clone()
	}
	s.update(func(st *State) { st.Combos = restored })
}

func (s *Store) DeleteCombo(id string) {
	s.update(func(st *State) {
		st.Combos = slices.DeleteFunc(st.Combos, func(c model.Combo) bool { return c.ID == id })
	})
}

// Combo returns a copy of the combo with the given id.
func (s *Store) Combo(id string) (model.Combo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.state.Combos {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return model.Combo{}, false
}

// PlayCombo plays exactly the sounds of the combo at its stored volumes.
func (s *Store) PlayCombo(id string) {
	s.update(func(st *State) {
		idx := slices.IndexFunc(st.Combos, func(c model.Combo) bool { return c.ID == id })
		if idx < 0 {
			s.logger.Debug("soundscape: unknown combo ignored", "combo", id)
			return
		}
		volumes := make(map[int]float64, len(st.Combos[idx].Sounds))
		for _, cs := range st.Combos[idx].Sounds {
			volumes[cs.SoundID] = cs.Volume
		}
		for i := range st.Sounds {
			v, ok := volumes[st.Sounds[i].ID]
			st.Sounds[i].Playing = ok
			if ok {
				st.Sounds[i].Volume = v
			}
		}
	})
}

// PlaySharedSound mirrors a shared listening state: exactly the given ids play.
func (s *Store) PlaySharedSound(states []SoundState) {
	s.update(func(st *State) {
		playExactly(st, func(id int) bool {
			return slices.ContainsFunc(states, func(ss SoundState) bool { return ss.ID == id })
		})
	})
}

func (s *Store) SetSharedSoundState(states []SoundState) {
	shared := slices.Clone(states)
	s.update(func(st *State) { st.SharedSoundState = shared })
}

func (s *Store) SetEditorTypingSoundEnabled(enabled bool) {
	s.update(func(st *State) { st.EditorTypingSoundEnabled = enabled })
}

// Reset returns every sound to its default volume, stops playback and clears
// the selection flags. Combos and the shared state are kept.
func (s *Store) Reset() {
	s.update(func(st *State) {
		st.Sounds = s.freshSounds()
		st.PausedSounds = []int{}
		st.IsOscillating = false
		st.ActiveCategory = ""
		st.IsShuffling = false
	})
}

func stopAll(st *State) {
	for i := range st.Sounds {
		st.Sounds[i].Playing = false
	}
	st.ActiveCategory = ""
}

func playExactly(st *State, selected func(id int) bool) {
	for i := range st.Sounds {
		st.Sounds[i].Playing = selected(st.Sounds[i].ID)
	}
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
