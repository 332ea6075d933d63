package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	"github.com/pscheid92/textpulse/internal/domain"
)

const (
	layerMemory = "memory"
	layerRedis  = "redis"
)

// AggregateCache is a two-layer cache of per-user summaries: an in-process
// L1 with a short TTL in front of Redis. Cached summaries are shared and must
// not be modified by callers.
type AggregateCache struct {
	rdb      goredis.Cmdable
	ttl      time.Duration
	clock    clockwork.Clock
	mem      *memoryCache
	metrics  *metrics.CacheMetrics
	notifier *InvalidationNotifier

	// bypass holds users whose Redis entry could not be deleted. Their L2
	// entry is ignored until a fresh Set succeeds or the Redis TTL has passed.
	bypassMu sync.Mutex
	bypass   map[string]time.Time
}

var _ domain.SummaryCache = (*AggregateCache)(nil)

// NewAggregateCache builds the cache. rdb may be nil, leaving only the
// in-memory layer. m and notifier may be nil.
func NewAggregateCache(rdb goredis.Cmdable, ttl, memTTL time.Duration, clock clockwork.Clock, m *metrics.CacheMetrics, notifier *InvalidationNotifier) *AggregateCache {
	return &AggregateCache{
		rdb:      rdb,
		ttl:      ttl,
		clock:    clock,
		mem:      newMemoryCache(memTTL, clock),
		metrics:  m,
		notifier: notifier,
		bypass:   make(map[string]time.Time),
	}
}

// StartEvictionTimer periodically drops expired in-memory entries. The
// returned function stops the timer.
func (c *AggregateCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := c.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired aggregate cache entries", "count", evicted, "remaining", c.mem.size())
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

func (c *AggregateCache) Get(ctx context.Context, userID string) (*domain.Summary, bool) {
	if summary, ok := c.mem.get(userID); ok {
		c.metrics.Hit(layerMemory)
		return summary, true
	}
	c.metrics.Miss(layerMemory)

	if c.rdb == nil || c.bypassed(userID) {
		return nil, false
	}

	summary, ok := c.getCached(ctx, userID)
	if !ok {
		c.metrics.Miss(layerRedis)
		return nil, false
	}
	c.metrics.Hit(layerRedis)
	c.mem.set(userID, summary)
	return summary, true
}

func (c *AggregateCache) Set(ctx context.Context, userID string, summary *domain.Summary) {
	c.mem.set(userID, summary)
	if c.rdb == nil {
		return
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal summary for Redis cache", "user_id", userID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, aggregateCacheKey(userID), encoded, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate Redis aggregate cache", "user_id", userID, "error", err)
		return
	}
	c.clearBypass(userID)
}

// Invalidate drops the user's summary from both layers and tells other
// replicas to drop their in-memory copy.
func (c *AggregateCache) Invalidate(ctx context.Context, userID string) error {
	c.mem.invalidate(userID)
	c.metrics.Invalidated()

	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, aggregateCacheKey(userID)).Err(); err != nil {
		c.setBypass(userID)
		return fmt.Errorf("failed to invalidate aggregate cache: %w", err)
	}
	if c.notifier != nil {
		if err := c.notifier.Publish(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// forget drops the in-memory entry only. Used for invalidations received from
// other replicas.
func (c *AggregateCache) forget(userID string) {
	c.mem.invalidate(userID)
}

func (c *AggregateCache) setBypass(userID string) {
	c.bypassMu.Lock()
	defer c.bypassMu.Unlock()
	c.bypass[userID] = c.clock.Now().Add(c.ttl)
}

func (c *AggregateCache) clearBypass(userID string) {
	c.bypassMu.Lock()
	defer c.bypassMu.Unlock()
	delete(c.bypass, userID)
}

func (c *AggregateCache) bypassed(userID string) bool {
	c.bypassMu.Lock()
	defer c.bypassMu.Unlock()

	until, ok := c.bypass[userID]
	if !ok {
		return false
	}
	if c.clock.Now().After(until) {
		delete(c.bypass, userID)
		return false
	}
	return true
}

func (c *AggregateCache) getCached(ctx context.Context, userID string) (*domain.Summary, bool) {
	data, err := c.rdb.Get(ctx, aggregateCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis aggregate cache GET failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var summary domain.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached summary", "user_id", userID, "error", err)
		return nil, false
	}
	return &summary, true
}

func aggregateCacheKey(userID string) string {
	return "aggregate:" + userID
}

// memoryCache is the L1 layer: a TTL map guarded by a RWMutex.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type memoryCacheEntry struct {
	summary   *domain.Summary
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration, clock clockwork.Clock) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *memoryCache) get(key string) (*domain.Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.summary, true
}

func (c *memoryCache) set(key string, summary *domain.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryCacheEntry{summary: summary, expiresAt: c.clock.Now().Add(c.ttl)}
}

func (c *memoryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
