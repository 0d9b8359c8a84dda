package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fire runs the most recently armed timer that was not stopped, simulating
// the debounce window elapsing.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	var live *fakeTimer
	for i := len(c.timers) - 1; i >= 0; i-- {
		if !c.timers[i].stopped {
			live = c.timers[i]
			break
		}
	}
	c.mu.Unlock()
	if live == nil {
		t.Fatalf("no live timer to fire")
	}
	live.Stop()
	live.fn()
}

func (c *fakeClock) liveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			n++
		}
	}
	return n
}

type commitRecorder struct {
	calls chan map[string]any
	errs  chan error
}

func newCommitRecorder() *commitRecorder {
	return &commitRecorder{
		calls: make(chan map[string]any, 16),
		errs:  make(chan error, 16),
	}
}

func (r *commitRecorder) commit(ctx context.Context, fields map[string]any) error {
	r.calls <- fields
	select {
	case err := <-r.errs:
		return err
	default:
		return nil
	}
}

func (r *commitRecorder) wait(t *testing.T) map[string]any {
	t.Helper()
	select {
	case fields := <-r.calls:
		return fields
	case <-time.After(2 * time.Second):
		t.Fatalf("no commit arrived")
		return nil
	}
}

func (r *commitRecorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case fields := <-r.calls:
		t.Fatalf("unexpected commit: %v", fields)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state never reached %v, got %v", want, s.State())
}

func TestSingleCommitCarriesAllDirtyFields(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	s := NewSession(map[string]any{"name": "Aria", "description": "bard"}, rec.commit, WithClock(clock))
	defer s.Close()

	s.SetField("name", "Arianna")
	s.SetField("description", "a famous bard")
	if got := s.State(); got != StateEditing {
		t.Fatalf("expected editing, got %v", got)
	}

	clock.fire(t)
	fields := rec.wait(t)
	if len(fields) != 2 || fields["name"] != "Arianna" || fields["description"] != "a famous bard" {
		t.Fatalf("unexpected commit payload: %v", fields)
	}
	rec.expectNone(t)

	waitState(t, s, StateIdle)
	if dirty := s.Dirty(); len(dirty) != 0 {
		t.Fatalf("dirty marks not cleared: %v", dirty)
	}
}

func TestEditsCoalesceToLatestValue(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	s := NewSession(map[string]any{"name": "Aria"}, rec.commit, WithClock(clock))
	defer s.Close()

	s.SetField("name", "Ari")
	s.SetField("name", "Arianna")

	clock.fire(t)
	fields := rec.wait(t)
	if fields["name"] != "Arianna" {
		t.Fatalf("expected latest value, got %v", fields["name"])
	}
	rec.expectNone(t)
}

func TestEditBackToBaselineGoesClean(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	s := NewSession(map[string]any{"name": "Aria"}, rec.commit, WithClock(clock))
	defer s.Close()

	s.SetField("name", "Arianna")
	s.SetField("name", "Aria")

	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle after reverting edit, got %v", got)
	}
	if clock.liveTimers() != 0 {
		t.Fatalf("timer still armed after field went clean")
	}
}

func TestFailedCommitRetainsDirty(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	s := NewSession(map[string]any{"name": "Aria"}, rec.commit, WithClock(clock))
	defer s.Close()

	rec.errs <- errors.New("server unavailable")
	s.SetField("name", "Arianna")
	clock.fire(t)
	rec.wait(t)

	waitState(t, s, StateError)
	if s.Err() == nil {
		t.Fatalf("expected error to be surfaced")
	}
	if dirty := s.Dirty(); len(dirty) != 1 || dirty[0] != "name" {
		t.Fatalf("dirty marks lost on failure: %v", dirty)
	}
	// No automatic retry.
	rec.expectNone(t)

	// Another edit re-arms the cycle; this time the commit succeeds.
	s.SetField("name", "Arianna II")
	clock.fire(t)
	fields := rec.wait(t)
	if fields["name"] != "Arianna II" {
		t.Fatalf("unexpected retry payload: %v", fields)
	}
	waitState(t, s, StateIdle)
}

func TestAtMostOneCommitInFlight(t *testing.T) {
	clock := &fakeClock{}
	started := make(chan struct{})
	release := make(chan struct{})
	var payloads []map[string]any
	var mu sync.Mutex

	commit := func(ctx context.Context, fields map[string]any) error {
		mu.Lock()
		payloads = append(payloads, fields)
		n := len(payloads)
		mu.Unlock()
		if n == 1 {
			started <- struct{}{}
			<-release
		}
		return nil
	}

	s := NewSession(map[string]any{"name": "Aria", "description": "bard"}, commit, WithClock(clock))
	defer s.Close()

	s.SetField("name", "Arianna")
	clock.fire(t)
	<-started

	// Edits accumulating during the in-flight save go to the next cycle.
	s.SetField("description", "a famous bard")
	clock.fire(t)

	mu.Lock()
	if len(payloads) != 1 {
		mu.Unlock()
		t.Fatalf("second commit launched while one was in flight")
	}
	mu.Unlock()

	close(release)
	waitState(t, s, StateEditing)

	clock.fire(t)
	waitState(t, s, StateIdle)

	mu.Lock()
	defer mu.Unlock()
	if len(payloads) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(payloads))
	}
	if _, ok := payloads[0]["description"]; ok {
		t.Fatalf("first commit must not carry the mid-save edit")
	}
	if payloads[1]["description"] != "a famous bard" {
		t.Fatalf("second commit missing accumulated edit: %v", payloads[1])
	}
}

func TestPauseResume(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	s := NewSession(map[string]any{"name": "Aria"}, rec.commit, WithClock(clock))
	defer s.Close()

	s.Pause()
	s.SetField("name", "Arianna")
	if clock.liveTimers() != 0 {
		t.Fatalf("timer armed while paused")
	}
	rec.expectNone(t)

	if dirty := s.Dirty(); len(dirty) != 1 {
		t.Fatalf("pause discarded dirty state: %v", dirty)
	}

	// Resume flushes immediately, no debounce window.
	s.Resume()
	fields := rec.wait(t)
	if fields["name"] != "Arianna" {
		t.Fatalf("unexpected resume payload: %v", fields)
	}
	waitState(t, s, StateIdle)
}

func TestFlush(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	s := NewSession(map[string]any{"name": "Aria"}, rec.commit, WithClock(clock))
	defer s.Close()

	s.SetField("name", "Arianna")
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	fields := rec.wait(t)
	if fields["name"] != "Arianna" {
		t.Fatalf("unexpected flush payload: %v", fields)
	}
	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle after flush, got %v", got)
	}

	// Nothing dirty: flush is a no-op.
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("idle flush: %v", err)
	}
	rec.expectNone(t)
}

func TestRevert(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	s := NewSession(map[string]any{"name": "Aria"}, rec.commit, WithClock(clock))
	defer s.Close()

	s.SetField("name", "Arianna")
	orig, ok := s.Revert("name")
	if !ok || orig != "Aria" {
		t.Fatalf("unexpected revert value: %v %v", orig, ok)
	}
	if got := s.State(); got != StateIdle {
		t.Fatalf("expected idle after revert, got %v", got)
	}
	if clock.liveTimers() != 0 {
		t.Fatalf("timer still armed after revert")
	}
}

func TestNotifyReportsTransitions(t *testing.T) {
	clock := &fakeClock{}
	rec := newCommitRecorder()
	var mu sync.Mutex
	var states []State
	notify := func(st Status) {
		mu.Lock()
		states = append(states, st.State)
		mu.Unlock()
	}

	s := NewSession(map[string]any{"name": "Aria"}, rec.commit, WithClock(clock), WithNotify(notify))
	defer s.Close()

	s.SetField("name", "Arianna")
	clock.fire(t)
	rec.wait(t)
	waitState(t, s, StateIdle)

	mu.Lock()
	defer mu.Unlock()
	sawEditing, sawSaving, sawIdle := false, false, false
	for _, st := range states {
		switch st {
		case StateEditing:
			sawEditing = true
		case StateSaving:
			sawSaving = true
		case StateIdle:
			sawIdle = true
		}
	}
	if !sawEditing || !sawSaving || !sawIdle {
		t.Fatalf("missing transitions in %v", states)
	}
}
