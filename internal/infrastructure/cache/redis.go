package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
)

// ErrCacheMiss indicates the key was not found in cache
var ErrCacheMiss = errors.New("cache miss")

// RedisCache caches immutable token metadata in Redis
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// Connect opens and pings a Redis client
func Connect(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return client, nil
}

// NewRedisCache creates a cache over an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return nil
}

// Set stores a value in cache
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// GetSymbol returns a cached token symbol
func (c *RedisCache) GetSymbol(ctx context.Context, chainID, contract string) (string, bool) {
	var symbol string
	if err := c.Get(ctx, SymbolKey(chainID, contract), &symbol); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Failed to read token symbol from cache",
				zap.String("chain", chainID),
				zap.String("contract", contract),
				zap.Error(err),
			)
		}
		return "", false
	}
	return symbol, symbol != ""
}

// SetSymbol caches a token symbol; failures are logged and ignored
func (c *RedisCache) SetSymbol(ctx context.Context, chainID, contract, symbol string) {
	if err := c.Set(ctx, SymbolKey(chainID, contract), symbol); err != nil {
		c.logger.Warn("Failed to cache token symbol",
			zap.String("chain", chainID),
			zap.String("contract", contract),
			zap.Error(err),
		)
	}
}

// HealthCheck checks if Redis is reachable
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SymbolKey builds the cache key for a token symbol
func SymbolKey(chainID, contract string) string {
	return fmt.Sprintf("symbol:%s:%s", chainID, strings.ToLower(contract))
}
