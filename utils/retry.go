package utils

import (
	"fmt"
	"time"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger

	// Backoff computes the next delay from the current one.
	// Nil doubles the delay after every failed attempt.
	Backoff func(time.Duration) time.Duration

	// Sleep replaces time.Sleep; tests inject a recorder.
	Sleep func(time.Duration)
}

// ConstantBackoff keeps the delay unchanged between attempts.
func ConstantBackoff(d time.Duration) time.Duration { return d }

// Do executes fn until it succeeds or MaxAttempts is reached.
// A MaxAttempts below 1 still runs fn once.
func (r *RetryConfig) Do(operationName string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			if r.Logger != nil {
				r.Logger.Debug("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
					operationName, attempt, attempts, lastErr, delay)
			}
			r.sleep(delay)
			delay = r.next(delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}

func (r *RetryConfig) next(d time.Duration) time.Duration {
	if r.Backoff != nil {
		return r.Backoff(d)
	}
	return d * 2
}

func (r *RetryConfig) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}
