// Package orchestrator routes generation requests through a prioritized
// chain of provider tiers with per-tier circuit breaking, bounded retry
// and an aggregate failure trip that degrades the whole chain to the
// heuristic tier.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/models"
	"github.com/appforge/ai-engine/internal/provider"
)

// CircuitOpenError reports a tier skipped because its breaker was open
type CircuitOpenError struct {
	Tier models.TierID
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("tier %s: circuit open", e.Tier)
}

// AllTiersExhaustedError reports that no tier produced a result. With the
// heuristic tier configured last this should never surface.
type AllTiersExhaustedError struct {
	Attempts []models.ProviderAttempt
}

func (e *AllTiersExhaustedError) Error() string {
	return fmt.Sprintf("all provider tiers exhausted after %d attempts", len(e.Attempts))
}

// Tier pairs a provider with its breaker and retry policy
type Tier struct {
	Provider provider.Provider
	Breaker  *CircuitBreaker
	Policy   RetryPolicy
}

// Result is a successful generation plus the attempt trail that produced it
type Result struct {
	Response *provider.Response
	TierUsed models.TierID
	Attempts []models.ProviderAttempt
}

// TierStats is a point-in-time snapshot of one tier's health
type TierStats struct {
	Tier         models.TierID `json:"tier"`
	CircuitState string        `json:"circuit_state"`
	Successes    int64         `json:"successes"`
	Failures     int64         `json:"failures"`
	Healthy      bool          `json:"healthy"`
}

// TierOrchestrator walks the tier chain in priority order. Besides the
// per-tier breakers it tracks failures across all tiers in a rolling
// window; when too many tiers fail in quick succession it stops burning
// retries and routes straight to the final tier.
type TierOrchestrator struct {
	tiers  []Tier
	logger *zap.Logger

	aggregateLimit  int
	aggregateWindow time.Duration

	mu               sync.Mutex
	recentFailures   []time.Time
	successesPerTier map[models.TierID]int64
	failuresPerTier  map[models.TierID]int64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator over the given tiers, highest priority first.
// The last tier is expected to be infallible.
func New(tiers []Tier, aggregateLimit int, aggregateWindow time.Duration, logger *zap.Logger) *TierOrchestrator {
	return &TierOrchestrator{
		tiers:            tiers,
		logger:           logger,
		aggregateLimit:   aggregateLimit,
		aggregateWindow:  aggregateWindow,
		successesPerTier: make(map[models.TierID]int64),
		failuresPerTier:  make(map[models.TierID]int64),
		now:              time.Now,
		sleep:            sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes the request against the tier chain and returns the first
// successful response
func (o *TierOrchestrator) Run(ctx context.Context, req *provider.Request) (*Result, error) {
	attempts := []models.ProviderAttempt{}

	tiers := o.tiers
	if o.aggregateTripped() {
		// Too many cross-tier failures recently: skip the expensive
		// tiers and answer from the final one immediately.
		tiers = o.tiers[len(o.tiers)-1:]
		o.logger.Warn("aggregate failure limit reached, degrading to final tier",
			zap.String("tier", string(tiers[0].Provider.Name())))
	}

	for _, tier := range tiers {
		name := tier.Provider.Name()

		if tier.Breaker != nil && !tier.Breaker.Allow() {
			attempts = append(attempts, models.ProviderAttempt{
				Tier:    name,
				Attempt: 0,
				Error:   (&CircuitOpenError{Tier: name}).Error(),
			})
			o.logger.Debug("skipping tier, circuit open", zap.String("tier", string(name)))
			continue
		}

		resp, tierAttempts, err := o.runTier(ctx, tier, req)
		attempts = append(attempts, tierAttempts...)
		if err == nil {
			o.recordSuccess(name)
			return &Result{Response: resp, TierUsed: name, Attempts: attempts}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		o.recordFailure(name)
		o.logger.Warn("tier exhausted, falling back",
			zap.String("tier", string(name)),
			zap.Error(err),
		)
	}

	return nil, &AllTiersExhaustedError{Attempts: attempts}
}

// runTier retries a single tier up to its policy limit
func (o *TierOrchestrator) runTier(ctx context.Context, tier Tier, req *provider.Request) (*provider.Response, []models.ProviderAttempt, error) {
	name := tier.Provider.Name()
	maxAttempts := tier.Policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var attempts []models.ProviderAttempt
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := o.now()
		resp, err := tier.Provider.Generate(ctx, req)
		latency := o.now().Sub(start).Milliseconds()

		record := models.ProviderAttempt{
			Tier:      name,
			Attempt:   attempt,
			Success:   err == nil,
			LatencyMS: latency,
		}
		if err != nil {
			record.Error = err.Error()
		} else if resp != nil {
			record.CostUSD = resp.CostUSD
		}
		attempts = append(attempts, record)

		if err == nil {
			if tier.Breaker != nil {
				tier.Breaker.RecordSuccess()
			}
			return resp, attempts, nil
		}

		lastErr = err
		if tier.Breaker != nil {
			tier.Breaker.RecordFailure()
		}
		if tier.Breaker != nil && tier.Breaker.State() == CircuitOpen {
			// No point retrying a tier whose breaker just tripped
			break
		}

		if attempt < maxAttempts {
			if serr := o.sleep(ctx, tier.Policy.Delay(attempt)); serr != nil {
				return nil, attempts, serr
			}
		}
	}

	return nil, attempts, lastErr
}

func (o *TierOrchestrator) recordSuccess(tier models.TierID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.successesPerTier[tier]++
}

func (o *TierOrchestrator) recordFailure(tier models.TierID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failuresPerTier[tier]++
	o.recentFailures = append(o.recentFailures, o.now())
	o.pruneLocked()
}

// aggregateTripped reports whether cross-tier failures in the rolling
// window have reached the degradation limit
func (o *TierOrchestrator) aggregateTripped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pruneLocked()
	return o.aggregateLimit > 0 && len(o.recentFailures) >= o.aggregateLimit
}

func (o *TierOrchestrator) pruneLocked() {
	cutoff := o.now().Add(-o.aggregateWindow)
	kept := o.recentFailures[:0]
	for _, ts := range o.recentFailures {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	o.recentFailures = kept
}

// Stats returns a snapshot for the stats endpoint
func (o *TierOrchestrator) Stats(ctx context.Context) []TierStats {
	o.mu.Lock()
	successes := make(map[models.TierID]int64, len(o.successesPerTier))
	failures := make(map[models.TierID]int64, len(o.failuresPerTier))
	for k, v := range o.successesPerTier {
		successes[k] = v
	}
	for k, v := range o.failuresPerTier {
		failures[k] = v
	}
	o.mu.Unlock()

	stats := make([]TierStats, 0, len(o.tiers))
	for _, tier := range o.tiers {
		name := tier.Provider.Name()
		state := CircuitClosed
		if tier.Breaker != nil {
			state = tier.Breaker.State()
		}
		stats = append(stats, TierStats{
			Tier:         name,
			CircuitState: state.String(),
			Successes:    successes[name],
			Failures:     failures[name],
			Healthy:      tier.Provider.HealthCheck(ctx),
		})
	}
	return stats
}
