// Package autosave implements the debounced inline-save engine: one editing
// session per open element, field-level change detection against a baseline
// snapshot, a single-shot debounce window, and at most one commit in flight.
package autosave

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the debounce window between the last edit and the commit.
const DefaultDelay = 2 * time.Second

// State is the session's position in the save cycle.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// CommitFunc persists one batch of dirty fields. It receives the current
// value of every field dirtied during the window.
type CommitFunc func(ctx context.Context, fields map[string]any) error

// Status is a snapshot reported to the notify callback after every
// transition.
type Status struct {
	State State
	Dirty []string
	Err   error
}

type Option func(*Session)

// WithClock substitutes the timer source.
func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

// WithDelay overrides the debounce window.
func WithDelay(d time.Duration) Option { return func(s *Session) { s.delay = d } }

// WithNotify installs a status callback. It is invoked outside the session
// lock and may call back into the session.
func WithNotify(fn func(Status)) Option { return func(s *Session) { s.notify = fn } }

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option { return func(s *Session) { s.log = log } }

// Session tracks the dirty fields of one element under edit. All methods are
// safe for concurrent use, though in practice a single UI loop drives it.
type Session struct {
	clock  Clock
	delay  time.Duration
	commit CommitFunc
	notify func(Status)
	log    *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	baseline map[string]any // last persisted value per field
	dirty    map[string]any // current unpersisted value per field
	original map[string]any // baseline value captured when the field went dirty
	timer    Timer
	state    State
	lastErr  error
	paused   bool
	saving   bool
	closed   bool
}

// NewSession starts a session over a baseline snapshot of the element's
// fields. The baseline map is copied.
func NewSession(baseline map[string]any, commit CommitFunc, opts ...Option) *Session {
	s := &Session{
		clock:    SystemClock(),
		delay:    DefaultDelay,
		commit:   commit,
		log:      zap.NewNop(),
		baseline: make(map[string]any, len(baseline)),
		dirty:    make(map[string]any),
		original: make(map[string]any),
		state:    StateIdle,
	}
	for k, v := range baseline {
		s.baseline[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// SetField records an edit. A value equal to the baseline un-dirties the
// field; anything else (re)starts the debounce window.
func (s *Session) SetField(name string, value any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if reflect.DeepEqual(s.baseline[name], value) {
		delete(s.dirty, name)
		delete(s.original, name)
		if len(s.dirty) == 0 && !s.saving {
			s.stopTimerLocked()
			s.state = StateIdle
		}
		s.finishLocked()
		return
	}

	if _, already := s.dirty[name]; !already {
		s.original[name] = s.baseline[name]
	}
	s.dirty[name] = value
	if !s.saving {
		s.state = StateEditing
	}
	if !s.paused {
		s.armTimerLocked()
	}
	s.finishLocked()
}

// Revert drops the pending edit of one field and returns the baseline value
// it held before the edit.
func (s *Session) Revert(name string) (any, bool) {
	s.mu.Lock()
	orig, ok := s.original[name]
	if ok {
		delete(s.dirty, name)
		delete(s.original, name)
		if len(s.dirty) == 0 && !s.saving {
			s.stopTimerLocked()
			s.state = StateIdle
		}
	}
	s.finishLocked()
	return orig, ok
}

// Pause suspends the debounce timer without discarding dirty state.
func (s *Session) Pause() {
	s.mu.Lock()
	s.paused = true
	s.stopTimerLocked()
	s.mu.Unlock()
}

// Resume lifts a pause and immediately flushes any pending commit.
func (s *Session) Resume() {
	s.mu.Lock()
	s.paused = false
	pending := len(s.dirty) > 0 && !s.saving
	s.mu.Unlock()
	if pending {
		s.fireTimer()
	}
}

// Flush commits pending dirty fields synchronously, waiting out any commit
// already in flight. Used when the detail view closes.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	for s.saving {
		s.cond.Wait()
	}
	if len(s.dirty) == 0 || s.closed {
		err := s.lastErr
		s.mu.Unlock()
		return err
	}
	snapshot := s.beginSaveLocked()
	s.finishLocked()

	err := s.commit(ctx, snapshot)
	s.endSave(snapshot, err)
	return err
}

// Close stops the timer and makes all further edits no-ops. Pending dirty
// state is abandoned; call Flush first to persist it.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
}

// Dirty returns the names of fields edited but not yet confirmed persisted.
func (s *Session) Dirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyNamesLocked()
}

// State returns the session's current position in the save cycle.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the most recent failed commit, if the session is
// in the error state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) armTimerLocked() {
	s.stopTimerLocked()
	s.timer = s.clock.AfterFunc(s.delay, s.fireTimer)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) fireTimer() {
	s.mu.Lock()
	s.timer = nil
	if s.closed || s.paused || s.saving || len(s.dirty) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := s.beginSaveLocked()
	s.finishLocked()

	go func() {
		err := s.commit(context.Background(), snapshot)
		s.endSave(snapshot, err)
	}()
}

// beginSaveLocked snapshots the dirty values and moves to the saving state.
func (s *Session) beginSaveLocked() map[string]any {
	snapshot := make(map[string]any, len(s.dirty))
	for k, v := range s.dirty {
		snapshot[k] = v
	}
	s.saving = true
	s.state = StateSaving
	s.lastErr = nil
	return snapshot
}

func (s *Session) endSave(snapshot map[string]any, err error) {
	s.mu.Lock()
	s.saving = false

	if err != nil {
		// Dirty marks stay; the user retries by editing again.
		s.lastErr = err
		s.state = StateError
		s.log.Warn("autosave commit failed", zap.Error(err))
		s.cond.Broadcast()
		s.finishLocked()
		return
	}

	for name, saved := range snapshot {
		s.baseline[name] = saved
		// Edits that arrived mid-save stay dirty for the next cycle.
		if reflect.DeepEqual(s.dirty[name], saved) {
			delete(s.dirty, name)
			delete(s.original, name)
		}
	}
	if len(s.dirty) == 0 {
		s.state = StateIdle
	} else {
		s.state = StateEditing
		if !s.paused {
			s.armTimerLocked()
		}
	}
	s.cond.Broadcast()
	s.finishLocked()
}

func (s *Session) dirtyNamesLocked() []string {
	names := make([]string, 0, len(s.dirty))
	for name := range s.dirty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// finishLocked releases the lock and delivers a status snapshot.
func (s *Session) finishLocked() {
	var st Status
	notify := s.notify
	if notify != nil {
		st = Status{State: s.state, Dirty: s.dirtyNamesLocked(), Err: s.lastErr}
	}
	s.mu.Unlock()
	if notify != nil {
		notify(st)
	}
}
