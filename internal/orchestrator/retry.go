package orchestrator

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy describes exponential backoff for calls within a single tier
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Base         float64
}

// DefaultRetryPolicy returns the policy used for the LLM tiers
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Base:         2.0,
	}
}

// Delay returns the backoff before the given attempt (1-based). The
// exponential delay is capped at MaxDelay, then up to 10% jitter is added
// so synchronized clients spread out.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.InitialDelay) * math.Pow(p.Base, float64(attempt-1))
	if capped := float64(p.MaxDelay); d > capped {
		d = capped
	}
	jitter := d * 0.1 * rand.Float64()
	return time.Duration(d + jitter)
}
