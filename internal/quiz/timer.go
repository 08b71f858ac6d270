package quiz

import (
	"sync"
	"time"
)

// Timer drives a session countdown, invoking tick once per interval until
// stopped. Stop is idempotent: both termination paths (question quota and
// expiry) may call it without leaking the ticker goroutine or stopping twice.
type Timer struct {
	stop chan struct{}
	once sync.Once
}

// NewTimer starts the countdown goroutine immediately.
func NewTimer(interval time.Duration, tick func()) *Timer {
	t := &Timer{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

// Stop cancels the countdown. Safe to call more than once.
func (t *Timer) Stop() {
	t.once.Do(func() { close(t.stop) })
}
