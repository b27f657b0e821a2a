package domain

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines how failed analysis tasks are re-scheduled. Beyond
// MaxRetries the task is permanently abandoned with its status recorded for
// manual follow-up.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryPolicy returns the retry policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Exhausted reports whether a task with the given retry count is past the
// ceiling and must not be re-queued.
func (p RetryPolicy) Exhausted(retryCount int) bool {
	return retryCount > p.MaxRetries
}

// NextDelay computes the exponential backoff delay before the attempt after
// retryCount failures, capped at MaxDelay, with up to 10% jitter.
func (p RetryPolicy) NextDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(retryCount)))
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	if p.Jitter {
		delay += time.Duration(rand.Float64() * 0.1 * float64(delay)) //nolint:gosec // scheduling jitter only
	}
	return delay
}
