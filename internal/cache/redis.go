package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

const scanBatch = 100

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// OpTimeout bounds each cache call independently of the caller's
	// deadline so a slow Redis never stalls a request for long.
	OpTimeout time.Duration
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		OpTimeout:    500 * time.Millisecond,
	}
}

// RedisCache stores JSON values in Redis behind a circuit breaker. While the
// breaker is open every call fails fast with ErrCacheDown.
type RedisCache struct {
	client    *redis.Client
	breaker   *CircuitBreaker
	metrics   *CacheMetrics
	opTimeout time.Duration
}

func NewRedisCache(config *CacheConfig, breaker *CircuitBreaker) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(nil)
	}
	opTimeout := config.OpTimeout
	if opTimeout <= 0 {
		opTimeout = DefaultCacheConfig().OpTimeout
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisCache{
		client:    rdb,
		breaker:   breaker,
		metrics:   &CacheMetrics{},
		opTimeout: opTimeout,
	}
}

func (r *RedisCache) do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	err := r.breaker.Execute(func() error {
		err := fn(ctx)
		if errors.Is(err, redis.Nil) {
			// A miss is a healthy answer.
			return nil
		}
		return err
	})
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return err
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = r.do(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, data, expiration).Err()
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to set cache: %w", err)
	}
	r.metrics.RecordSet()
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	var (
		data []byte
		miss bool
	)
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		data, err = r.client.Get(ctx, key).Bytes()
		miss = errors.Is(err, redis.Nil)
		return err
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to get from cache: %w", err)
	}
	if miss {
		r.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	r.metrics.RecordHit()
	return nil
}

// DeletePattern removes every key matching pattern using SCAN so Redis is
// never blocked by a full KEYS walk.
func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	err := r.do(ctx, func(ctx context.Context) error {
		iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		batch := make([]string, 0, scanBatch)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := r.client.Del(ctx, batch...).Err(); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			return r.client.Del(ctx, batch...).Err()
		}
		return nil
	})
	if err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("failed to delete keys for pattern %s: %w", pattern, err)
	}
	r.metrics.RecordInvalidation()
	return nil
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	poolStats := r.client.PoolStats()

	return map[string]interface{}{
		"operations":      r.metrics.Snapshot(),
		"circuit_breaker": r.breaker.Stats(),
		"pool_hits":       poolStats.Hits,
		"pool_misses":     poolStats.Misses,
		"pool_timeouts":   poolStats.Timeouts,
		"pool_total":      poolStats.TotalConns,
		"pool_idle":       poolStats.IdleConns,
		"pool_stale":      poolStats.StaleConns,
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
