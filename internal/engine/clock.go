package engine

import "time"

// Clock abstracts time for the retry loop so tests can assert attempt counts
// and delays without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock returns the wall clock.
func RealClock() Clock {
	return realClock{}
}
