package reminder

import "time"

// Timer is an armed one-shot timer handle. Stop disarms it; the return
// value reports whether the timer was still pending.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the reminder system so tests can drive fire
// times deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// systemClock is the real Clock backed by the time package.
type systemClock struct{}

// SystemClock returns the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
