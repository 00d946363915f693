package editor

import "time"

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The session uses it for the input debounce.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func RealScheduler() Scheduler { return realScheduler{} }
