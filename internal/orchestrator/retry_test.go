package orchestrator

import (
	"testing"
	"time"
)

func TestRetryDelayBounds(t *testing.T) {
	p := DefaultRetryPolicy()

	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{10, 10 * time.Second},
	}

	for _, tc := range cases {
		for i := 0; i < 50; i++ {
			d := p.Delay(tc.attempt)
			if d < tc.base {
				t.Fatalf("Delay(%d) = %v, below base %v", tc.attempt, d, tc.base)
			}
			max := time.Duration(float64(tc.base) * 1.1)
			if d > max {
				t.Fatalf("Delay(%d) = %v, above base+10%% jitter %v", tc.attempt, d, max)
			}
		}
	}
}

func TestRetryDelayBaseNonDecreasing(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, InitialDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second, Base: 2.0}

	prevFloor := time.Duration(0)
	for attempt := 1; attempt <= 8; attempt++ {
		// Sample the floor by taking the minimum over many draws;
		// jitter is additive so the floor is the deterministic part.
		floor := p.Delay(attempt)
		for i := 0; i < 100; i++ {
			if d := p.Delay(attempt); d < floor {
				floor = d
			}
		}
		if floor < prevFloor {
			t.Fatalf("backoff floor decreased at attempt %d: %v < %v", attempt, floor, prevFloor)
		}
		prevFloor = floor
	}
}

func TestRetryDelayClampsAttempt(t *testing.T) {
	p := DefaultRetryPolicy()
	if d := p.Delay(0); d < p.InitialDelay {
		t.Errorf("Delay(0) = %v, want at least %v", d, p.InitialDelay)
	}
	if d := p.Delay(-3); d < p.InitialDelay {
		t.Errorf("Delay(-3) = %v, want at least %v", d, p.InitialDelay)
	}
}
