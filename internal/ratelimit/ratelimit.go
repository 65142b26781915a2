// Package ratelimit bounds how many tasks a user may start per window.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-user token bucket. Checked at the queue boundary
// before a task enters the pipeline.
type Limiter struct {
	mu         sync.Mutex
	tokens     map[string]int
	lastRefill map[string]time.Time

	maxTokens    int
	refillRate   int
	refillPeriod time.Duration

	now func() time.Time
}

// New creates a limiter that grants maxTokens per user, refilling
// refillRate tokens every refillPeriod
func New(maxTokens, refillRate int, refillPeriod time.Duration) *Limiter {
	return &Limiter{
		tokens:       make(map[string]int),
		lastRefill:   make(map[string]time.Time),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
		now:          time.Now,
	}
}

// Check consumes one token for the user when available. It returns whether
// the request is allowed, how many tokens remain, and, when denied, how
// long until the next refill.
func (l *Limiter) Check(userID string) (allowed bool, remaining int, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if _, exists := l.tokens[userID]; !exists {
		l.tokens[userID] = l.maxTokens
		l.lastRefill[userID] = now
	}

	elapsed := now.Sub(l.lastRefill[userID])
	if refills := int(elapsed / l.refillPeriod); refills > 0 {
		l.tokens[userID] += refills * l.refillRate
		if l.tokens[userID] > l.maxTokens {
			l.tokens[userID] = l.maxTokens
		}
		l.lastRefill[userID] = now
	}

	if l.tokens[userID] > 0 {
		l.tokens[userID]--
		return true, l.tokens[userID], 0
	}

	retryAfter = l.refillPeriod - now.Sub(l.lastRefill[userID])
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, 0, retryAfter
}

// Remaining returns the user's current token count without consuming one
func (l *Limiter) Remaining(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.tokens[userID]; !exists {
		return l.maxTokens
	}
	return l.tokens[userID]
}
