package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
)

// NewClient connects to redisURL (e.g. "redis://localhost:6379/0") and installs
// the metrics and circuit breaker hooks. Either metrics argument may be nil.
func NewClient(ctx context.Context, redisURL string, rm *metrics.RedisMetrics, bm *metrics.BreakerMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if rm != nil {
		rdb.AddHook(NewMetricsHook(rm))
	}
	rdb.AddHook(NewCircuitBreakerHook(bm))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
