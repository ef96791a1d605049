package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"figaro-tab/internal/persist"
	"figaro-tab/internal/repository"
)

const (
	dockStateKey     = "dock"
	dockStateVersion = 9
)

var ErrUnknownWidget = errors.New("unknown widget")

// Widget names a dock widget. The same names key the dock icon map.
type Widget string

const (
	WidgetTimer           Widget = "timer"
	WidgetBreathing       Widget = "breathing"
	WidgetGreetings       Widget = "greetings"
	WidgetSoundscapes     Widget = "soundscapes"
	WidgetTasks           Widget = "tasks"
	WidgetBackgrounds     Widget = "backgrounds"
	WidgetSiteBlocker     Widget = "siteBlocker"
	WidgetTabStash        Widget = "tabStash"
	WidgetNotes           Widget = "notes"
	WidgetBookmarks       Widget = "bookmarks"
	WidgetCalendar        Widget = "calendar"
	WidgetFigaroBriefing  Widget = "figaroBriefing"
	WidgetFigaroLists     Widget = "figaroLists"
	WidgetFigaroReminders Widget = "figaroReminders"

	// IconClock only exists as a dock icon.
	IconClock = "clock"
)

// Widgets lists every toggleable widget in dock order.
var Widgets = []Widget{
	WidgetTimer, WidgetBreathing, WidgetGreetings, WidgetSoundscapes,
	WidgetTasks, WidgetBackgrounds, WidgetSiteBlocker, WidgetTabStash,
	WidgetNotes, WidgetBookmarks, WidgetCalendar,
	WidgetFigaroBriefing, WidgetFigaroLists, WidgetFigaroReminders,
}

// DockState is the widget layout of one user.
type DockState struct {
	IsTimerVisible           bool `json:"isTimerVisible"`
	IsBreathingVisible       bool `json:"isBreathingVisible"`
	IsGreetingsVisible       bool `json:"isGreetingsVisible"`
	IsSoundscapesVisible     bool `json:"isSoundscapesVisible"`
	IsTasksVisible           bool `json:"isTasksVisible"`
	IsBackgroundsVisible     bool `json:"isBackgroundsVisible"`
	IsSiteBlockerVisible     bool `json:"isSiteBlockerVisible"`
	IsTabStashVisible        bool `json:"isTabStashVisible"`
	IsNotesVisible           bool `json:"isNotesVisible"`
	IsBookmarksVisible       bool `json:"isBookmarksVisible"`
	IsCalendarVisible        bool `json:"isCalendarVisible"`
	IsFigaroBriefingVisible  bool `json:"isFigaroBriefingVisible"`
	IsFigaroListsVisible     bool `json:"isFigaroListsVisible"`
	IsFigaroRemindersVisible bool `json:"isFigaroRemindersVisible"`

	DockIconsVisible      map[string]bool `json:"dockIconsVisible"`
	CurrentOnboardingStep int             `json:"currentOnboardingStep"`
	ShowIconLabels        bool            `json:"showIconLabels"`
}

// DefaultDockState is the layout of a user who never touched the dock.
func DefaultDockState() DockState {
	icons := make(map[string]bool, len(Widgets))
	for _, w := range Widgets {
		if w != WidgetGreetings {
			icons[string(w)] = true
		}
	}
	icons[IconClock] = false
	return DockState{
		IsGreetingsVisible:    true,
		DockIconsVisible:      icons,
		CurrentOnboardingStep: -1,
	}
}

func (d DockState) clone() DockState {
	d.DockIconsVisible = maps.Clone(d.DockIconsVisible)
	return d
}

func (d *DockState) flag(w Widget) *bool {
	switch w {
	case WidgetTimer:
		return &d.IsTimerVisible
	case WidgetBreathing:
		return &d.IsBreathingVisible
	case WidgetGreetings:
		return &d.IsGreetingsVisible
	case WidgetSoundscapes:
		return &d.IsSoundscapesVisible
	case WidgetTasks:
		return &d.IsTasksVisible
	case WidgetBackgrounds:
		return &d.IsBackgroundsVisible
	case WidgetSiteBlocker:
		return &d.IsSiteBlockerVisible
	case WidgetTabStash:
		return &d.IsTabStashVisible
	case WidgetNotes:
		return &d.IsNotesVisible
	case WidgetBookmarks:
		return &d.IsBookmarksVisible
	case WidgetCalendar:
		return &d.IsCalendarVisible
	case WidgetFigaroBriefing:
		return &d.IsFigaroBriefingVisible
	case WidgetFigaroLists:
		return &d.IsFigaroListsVisible
	case WidgetFigaroReminders:
		return &d.IsFigaroRemindersVisible
	}
	return nil
}

// Visible reports whether w is shown.
func (d DockState) Visible(w Widget) bool {
	if f := d.flag(w); f != nil {
		return *f
	}
	return false
}

// Toggle flips w. Timer and breathing hide each other and move greetings:
// opening the timer shows greetings, opening breathing hides them.
func (d *DockState) Toggle(w Widget) error {
	switch w {
	case WidgetTimer:
		wasVisible := d.IsTimerVisible
		d.IsTimerVisible = !wasVisible
		d.IsBreathingVisible = false
		d.IsGreetingsVisible = !wasVisible
	case WidgetBreathing:
		wasVisible := d.IsBreathingVisible
		d.IsBreathingVisible = !wasVisible
		d.IsTimerVisible = false
		d.IsGreetingsVisible = wasVisible
	default:
		f := d.flag(w)
		if f == nil {
			return ErrUnknownWidget
		}
		*f = !*f
	}
	return nil
}

// SetVisible sets w without touching any other widget.
func (d *DockState) SetVisible(w Widget, visible bool) error {
	f := d.flag(w)
	if f == nil {
		return ErrUnknownWidget
	}
	*f = visible
	return nil
}

// SetDockIconVisible shows or hides one dock icon.
func (d *DockState) SetDockIconVisible(icon string, visible bool) error {
	if icon != IconClock && (d.flag(Widget(icon)) == nil || icon == string(WidgetGreetings)) {
		return ErrUnknownWidget
	}
	if d.DockIconsVisible == nil {
		d.DockIconsVisible = map[string]bool{}
	}
	d.DockIconsVisible[icon] = visible
	return nil
}

// Reset hides every widget but greetings and restarts onboarding. Icon
// preferences and labels are kept.
func (d *DockState) Reset() {
	def := DefaultDockState()
	def.DockIconsVisible = d.DockIconsVisible
	def.ShowIconLabels = d.ShowIconLabels
	*d = def
}

// dockBlob is the persisted part of DockState.
type dockBlob struct {
	IsTimerVisible        bool            `json:"isTimerVisible"`
	IsBreathingVisible    bool            `json:"isBreathingVisible"`
	IsGreetingsVisible    bool            `json:"isGreetingsVisible"`
	DockIconsVisible      map[string]bool `json:"dockIconsVisible"`
	CurrentOnboardingStep int             `json:"currentOnboardingStep"`
	ShowIconLabels        bool            `json:"showIconLabels"`
}

func backfillWidget(from int, icons ...Widget) persist.Step {
	return persist.Step{From: from, Upgrade: func(doc map[string]any) map[string]any {
		for _, w := range icons {
			persist.Backfill(persist.Object(doc, "dockIconsVisible"), string(w), true)
			persist.Backfill(doc, "is"+upperFirst(string(w))+"Visible", false)
		}
		return doc
	}}
}

var dockChain = persist.NewChain(dockStateKey, dockStateVersion,
	backfillWidget(4, WidgetNotes),
	backfillWidget(5, WidgetBookmarks),
	backfillWidget(6, WidgetCalendar),
	backfillWidget(7, WidgetFigaroBriefing, WidgetFigaroLists, WidgetFigaroReminders),
	persist.Step{From: 8, Upgrade: func(doc map[string]any) map[string]any {
		delete(persist.Object(doc, "dockIconsVisible"), "weather")
		delete(doc, "isWeatherVisible")
		return doc
	}},
)

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DockService keeps each user's dock layout. Only the timer, breathing and
// greetings flags, icons, onboarding step and labels survive a restart.
type DockService struct {
	blobs  blobStore[dockBlob]
	logger *log.Logger

	mu     sync.Mutex
	states map[int64]*DockState
}

func NewDockService(states *repository.StateRepository, logger *log.Logger) *DockService {
	if logger == nil {
		logger = log.Default()
	}
	return &DockService{
		blobs:  blobStore[dockBlob]{repo: states, key: dockStateKey, chain: dockChain},
		logger: logger.With("component", "dock"),
		states: make(map[int64]*DockState),
	}
}

func (s *DockService) load(ctx context.Context, userID int64) (*DockState, error) {
	if st, ok := s.states[userID]; ok {
		return st, nil
	}
	st := DefaultDockState()
	blob, found, err := s.blobs.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if found {
		st.IsTimerVisible = blob.IsTimerVisible
		st.IsBreathingVisible = blob.IsBreathingVisible
		st.IsGreetingsVisible = blob.IsGreetingsVisible
		st.CurrentOnboardingStep = blob.CurrentOnboardingStep
		st.ShowIconLabels = blob.ShowIconLabels
		maps.Copy(st.DockIconsVisible, blob.DockIconsVisible)
	}
	s.states[userID] = &st
	return &st, nil
}

// Get returns a copy of the user's dock layout.
func (s *DockService) Get(ctx context.Context, userID int64) (DockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, userID)
	if err != nil {
		return DockState{}, err
	}
	return st.clone(), nil
}

// update applies fn and persists the result. A failing fn leaves the state
// untouched.
func (s *DockService) update(ctx context.Context, userID int64, fn func(d *DockState) error) (DockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load(ctx, userID)
	if err != nil {
		return DockState{}, err
	}
	next := st.clone()
	if err := fn(&next); err != nil {
		return st.clone(), err
	}
	blob := dockBlob{
		IsTimerVisible:        next.IsTimerVisible,
		IsBreathingVisible:    next.IsBreathingVisible,
		IsGreetingsVisible:    next.IsGreetingsVisible,
		DockIconsVisible:      next.DockIconsVisible,
		CurrentOnboardingStep: next.CurrentOnboardingStep,
		ShowIconLabels:        next.ShowIconLabels,
	}
	if err := s.blobs.save(ctx, userID, blob); err != nil {
		return st.clone(), err
	}
	*st = next
	s.logger.Debug("dock updated", "user", userID)
	return next.clone(), nil
}

func (s *DockService) Toggle(ctx context.Context, userID int64, w Widget) (DockState, error) {
	return s.update(ctx, userID, func(d *DockState) error { return d.Toggle(w) })
}

func (s *DockService) SetVisible(ctx context.Context, userID int64, w Widget, visible bool) (DockState, error) {
	return s.update(ctx, userID, func(d *DockState) error { return d.SetVisible(w, visible) })
}

func (s *DockService) SetDockIconVisible(ctx context.Context, userID int64, icon string, visible bool) (DockState, error) {
	return s.update(ctx, userID, func(d *DockState) error { return d.SetDockIconVisible(icon, visible) })
}

func (s *DockService) SetOnboardingStep(ctx context.Context, userID int64, step int) (DockState, error) {
	return s.update(ctx, userID, func(d *DockState) error {
		d.CurrentOnboardingStep = step
		return nil
	})
}

func (s *DockService) SetShowIconLabels(ctx context.Context, userID int64, show bool) (DockState, error) {
	return s.update(ctx, userID, func(d *DockState) error {
		d.ShowIconLabels = show
		return nil
	})
}

func (s *DockService) Reset(ctx context.Context, userID int64) (DockState, error) {
	return s.update(ctx, userID, func(d *DockState) error {
		d.Reset()
		return nil
	})
}

// ParseWidget matches a widget by name, ignoring case.
func ParseWidget(name string) (Widget, bool) {
	idx := slices.IndexFunc(Widgets, func(w Widget) bool { return strings.EqualFold(string(w), name) })
	if idx < 0 {
		return "", false
	}
	return Widgets[idx], true
}
