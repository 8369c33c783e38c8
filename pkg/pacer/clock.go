package pacer

import "time"

// clock is the scheduler's only view of time. Production code uses the wall
// clock; tests substitute a manual one to drive refill timers
// deterministically.
type clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) stopTimer
}

type stopTimer interface {
	Stop() bool
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) AfterFunc(d time.Duration, fn func()) stopTimer {
	return time.AfterFunc(d, fn)
}
