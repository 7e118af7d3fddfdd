package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bimakw/recipient-scanner/internal/config"
)

const (
	keyPrefix        = "recipient-scanner:ratelimit:"
	redisRetryPeriod = 30 * time.Second
)

// Limiter throttles outbound upstream requests per key (one key per upstream provider).
// With Redis configured the budget is shared across processes; otherwise, or while Redis
// is unreachable, an in-process token bucket is used.
type Limiter struct {
	cfg    config.RateLimitConfig
	logger *zap.Logger

	distributed    *redis_rate.Limiter
	redisAvailable atomic.Bool
	redisFailedAt  atomic.Int64

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewLimiter creates a limiter. client may be nil.
func NewLimiter(cfg config.RateLimitConfig, client *redis.Client, logger *zap.Logger) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerSecond
	}

	l := &Limiter{
		cfg:    cfg,
		logger: logger,
		local:  make(map[string]*rate.Limiter),
	}
	if client != nil {
		l.distributed = redis_rate.NewLimiter(client)
		l.redisAvailable.Store(true)
	}

	logger.Info("Upstream rate limiter initialized",
		zap.Int("requests_per_second", cfg.RequestsPerSecond),
		zap.Int("burst", cfg.Burst),
		zap.Bool("distributed", client != nil),
	)

	return l
}

// Wait blocks until a request for key may proceed
func (l *Limiter) Wait(ctx context.Context, key string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !l.useDistributed() {
			return l.localLimiter(key).Wait(ctx)
		}

		res, err := l.distributed.Allow(ctx, keyPrefix+key, redis_rate.PerSecond(l.cfg.RequestsPerSecond))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.redisAvailable.Store(false)
			l.redisFailedAt.Store(time.Now().UnixNano())
			l.logger.Warn("Redis rate limiter error, falling back to local",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}

		if res.Allowed > 0 {
			return nil
		}

		l.logger.Debug("Rate limit token unavailable, waiting",
			zap.String("key", key),
			zap.Duration("retry_after", res.RetryAfter),
		)

		timer := time.NewTimer(res.RetryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) useDistributed() bool {
	if l.distributed == nil {
		return false
	}
	if l.redisAvailable.Load() {
		return true
	}
	failedAt := time.Unix(0, l.redisFailedAt.Load())
	if time.Since(failedAt) < redisRetryPeriod {
		return false
	}
	l.redisAvailable.Store(true)
	l.logger.Info("Retrying Redis rate limiter")
	return true
}

func (l *Limiter) localLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.local[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
		l.local[key] = limiter
	}
	return limiter
}

// String describes the limiter for logs
func (l *Limiter) String() string {
	mode := "local"
	if l.distributed != nil {
		mode = "distributed"
	}
	return fmt.Sprintf("%s limiter %d rps burst %d", mode, l.cfg.RequestsPerSecond, l.cfg.Burst)
}
