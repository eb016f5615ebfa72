package worker

import (
	"math"
	"time"
)

// Export attempts fail on transient causes: a held sqlite write lock or
// a slow disk while the workbook renders. Backoff starts above the
// worker's poll interval and caps at a minute so a queued agenda never
// waits longer than that between attempts.
const (
	defaultMaxRetries    = 5
	defaultInitialDelay  = 2 * time.Second
	defaultMaxDelay      = time.Minute
	defaultBackoffFactor = 2.0
)

// RetryPolicy drives the backoff between attempts on one export task.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// withDefaults fills unset fields with the export tuning, so a zero
// policy is directly usable.
func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = defaultMaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = defaultInitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = defaultMaxDelay
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = defaultBackoffFactor
	}
	return r
}

// Exhausted reports whether a task with that many attempts is out of
// retries.
func (r RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= r.MaxRetries
}

// NextDelay returns the clamped exponential delay before the given
// attempt (1-based; values below 1 behave like the first).
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	r = r.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if d > r.MaxDelay || d <= 0 {
		d = r.MaxDelay
	}
	return d
}
