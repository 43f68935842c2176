package opmode

import (
	"sync"
	"time"
)

// Clock reports seconds elapsed since its last reset.
type Clock interface {
	Reset()
	Seconds() float64
}

// ElapsedTime is a wall clock measuring from its last reset.
type ElapsedTime struct {
	mu    sync.Mutex
	now   func() time.Time
	start time.Time
}

// NewElapsedTime creates a clock started now. A nil now uses time.Now.
func NewElapsedTime(now func() time.Time) *ElapsedTime {
	if now == nil {
		now = time.Now
	}
	return &ElapsedTime{now: now, start: now()}
}

// Reset restarts the clock at zero.
func (e *ElapsedTime) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.start = e.now()
}

// Seconds returns the elapsed seconds.
func (e *ElapsedTime) Seconds() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now().Sub(e.start).Seconds()
}
