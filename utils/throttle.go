package utils

import (
	"sync"
	"time"
)

// Throttle enforces a minimum interval between consecutive operations.
// The first call to Wait never blocks.
type Throttle struct {
	interval time.Duration
	sleep    func(time.Duration)

	mu          sync.Mutex
	lastRequest time.Time
}

// NewThrottle creates a Throttle spacing operations rateLimitMs apart.
func NewThrottle(rateLimitMs int) *Throttle {
	return &Throttle{
		interval: time.Duration(rateLimitMs) * time.Millisecond,
		sleep:    time.Sleep,
	}
}

// WithSleep swaps the sleeping function, used by tests.
func (t *Throttle) WithSleep(fn func(time.Duration)) *Throttle {
	t.sleep = fn
	return t
}

// Wait blocks until at least the configured interval has passed since the
// previous Wait returned.
func (t *Throttle) Wait() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastRequest.IsZero() && t.interval > 0 {
		elapsed := time.Since(t.lastRequest)
		if elapsed < t.interval {
			t.sleep(t.interval - elapsed)
		}
	}
	t.lastRequest = time.Now()
}
