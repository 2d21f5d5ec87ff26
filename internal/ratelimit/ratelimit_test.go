package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow("192.0.2.1") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)

	if !rl.Allow("192.0.2.1") {
		t.Error("first key should be allowed")
	}
	if rl.Allow("192.0.2.1") {
		t.Error("first key should be exhausted")
	}
	if !rl.Allow("192.0.2.2") {
		t.Error("second key should have its own bucket")
	}
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(100, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Burst token plus one refill should both succeed within the deadline.
	if err := rl.Wait(ctx, "192.0.2.1"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if err := rl.Wait(ctx, "192.0.2.1"); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestKeyedRateLimiter_WaitCanceled(t *testing.T) {
	rl := New(0.001, 1)
	rl.Allow("192.0.2.1") // Exhaust the bucket.

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx, "192.0.2.1"); err == nil {
		t.Error("Wait() should fail when context expires before a token is available")
	}
}
