package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "embedding"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	// A different key has its own bucket
	if err := limiter.Wait(ctx, "extraction"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "extraction"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Second call on an exhausted bucket must respect a cancelled context
	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(cancelCtx, "extraction"); err == nil {
		t.Error("expected context deadline error on exhausted bucket")
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("embedding") {
		t.Error("first call should be allowed")
	}
	if limiter.Allow("embedding") {
		t.Error("second immediate call should be limited")
	}
	if !limiter.Allow("extraction") {
		t.Error("separate key should not share the bucket")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetRate("embedding", 1000, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow("embedding") {
			t.Fatalf("call %d denied despite burst 10", i)
		}
	}
}
