package ratelimit

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
)

func TestLimiter_LocalAllowsBurst(t *testing.T) {
	limiter := NewLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 3}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "explorer"); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}
}

func TestLimiter_LocalBlocksBeyondBurst(t *testing.T) {
	limiter := NewLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "starknet"); err != nil {
		t.Fatalf("first request: unexpected error: %v", err)
	}
	if err := limiter.Wait(ctx, "starknet"); err == nil {
		t.Error("expected second request to exceed the deadline")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "explorer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := limiter.Wait(ctx, "starknet"); err != nil {
		t.Errorf("expected separate budget per key, got %v", err)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	limiter := NewLimiter(config.RateLimitConfig{RequestsPerSecond: 10, Burst: 10}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "explorer"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	limiter := NewLimiter(config.RateLimitConfig{}, nil, zap.NewNop())
	if limiter.cfg.RequestsPerSecond != 5 || limiter.cfg.Burst != 5 {
		t.Errorf("expected defaults 5/5, got %d/%d", limiter.cfg.RequestsPerSecond, limiter.cfg.Burst)
	}
	if limiter.String() != "local limiter 5 rps burst 5" {
		t.Errorf("unexpected description: %s", limiter.String())
	}
}
