package autosave

import "time"

// Clock abstracts timer creation so the debounce window can be driven
// manually in tests.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the stoppable handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns the wall clock used outside of tests.
func SystemClock() Clock { return realClock{} }
