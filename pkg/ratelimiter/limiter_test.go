package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Basic(t *testing.T) {
	// 10 RPS, bucket of 5
	rl := New(10, 5)
	ctx := context.Background()

	// Use all 5 tokens immediately
	for i := 0; i < 5; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Failed to get token %d: %v", i+1, err)
		}
	}

	// Bucket is drained, so the next call must wait roughly one refill period
	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Failed to get token after waiting: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Expected to wait at least 80ms, but waited %v", elapsed)
	}
}

func TestRateLimiter_TryAcquire(t *testing.T) {
	rl := New(1, 2)

	if !rl.TryAcquire() {
		t.Error("Failed to acquire first token")
	}
	if !rl.TryAcquire() {
		t.Error("Failed to acquire second token")
	}
	if rl.TryAcquire() {
		t.Error("Should not have acquired 3rd token")
	}
}

func TestPooled_SeparateKeys(t *testing.T) {
	p := NewPooled(1, 1)
	ctx := context.Background()

	// Each key gets its own bucket, so the first token per key is instant.
	for _, key := range []string{"a", "b", "c"} {
		start := time.Now()
		if err := p.Wait(ctx, key); err != nil {
			t.Fatalf("Wait(%s): %v", key, err)
		}
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			t.Errorf("first token for %s should be immediate, waited %v", key, elapsed)
		}
	}

	stats := p.Stats()
	if len(stats) != 3 {
		t.Errorf("expected 3 tracked keys, got %d", len(stats))
	}
}
