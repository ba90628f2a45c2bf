package session

import "time"

type (
	// Clock abstracts the subset of package time the scheduler relies on, so
	// tests can control apparent time.
	Clock interface {
		Now() time.Time
		AfterFunc(d time.Duration, f func()) Timer
	}

	// Timer abstracts the functionality of time.Timer.
	Timer interface {
		Stop() bool
	}

	systemClock struct{}
)

// Now indirects time.Now.
func (systemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc indirects time.AfterFunc.
func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the Clock backed by package time.
var SystemClock Clock = systemClock{}
