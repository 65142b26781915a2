package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(maxTokens int, clock *fakeClock) *Limiter {
	l := New(maxTokens, maxTokens, time.Hour)
	l.now = clock.Now
	return l
}

func TestCheckConsumesTokens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := newTestLimiter(3, clock)

	for i := 2; i >= 0; i-- {
		allowed, remaining, _ := l.Check("u1")
		if !allowed {
			t.Fatalf("request denied with %d tokens expected", i+1)
		}
		if remaining != i {
			t.Errorf("remaining = %d, want %d", remaining, i)
		}
	}

	allowed, remaining, retryAfter := l.Check("u1")
	if allowed {
		t.Error("request allowed with empty bucket")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if retryAfter <= 0 || retryAfter > time.Hour {
		t.Errorf("retryAfter = %v, want within (0, 1h]", retryAfter)
	}
}

func TestCheckIsolatesUsers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := newTestLimiter(1, clock)

	l.Check("u1")
	if allowed, _, _ := l.Check("u1"); allowed {
		t.Error("u1 allowed past their limit")
	}
	if allowed, _, _ := l.Check("u2"); !allowed {
		t.Error("u2 denied by u1's consumption")
	}
}

func TestRefillRestoresTokens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := newTestLimiter(2, clock)

	l.Check("u1")
	l.Check("u1")
	if allowed, _, _ := l.Check("u1"); allowed {
		t.Fatal("bucket not empty after draining")
	}

	clock.t = clock.t.Add(61 * time.Minute)
	allowed, remaining, _ := l.Check("u1")
	if !allowed {
		t.Fatal("request denied after refill period elapsed")
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}
}

func TestRefillCapsAtMax(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := newTestLimiter(2, clock)

	l.Check("u1")
	clock.t = clock.t.Add(10 * time.Hour)
	l.Check("u1")
	if got := l.Remaining("u1"); got != 1 {
		t.Errorf("Remaining = %d, want 1 (capped refill minus one)", got)
	}
}

func TestRemainingForUnknownUser(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := newTestLimiter(5, clock)
	if got := l.Remaining("nobody"); got != 5 {
		t.Errorf("Remaining = %d, want full bucket", got)
	}
}
