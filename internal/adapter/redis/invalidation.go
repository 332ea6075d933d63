package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

const aggregateInvalidationChannel = "aggregate:invalidate"

// InvalidationNotifier broadcasts aggregate invalidations to every replica.
type InvalidationNotifier struct {
	rdb *goredis.Client
}

func NewInvalidationNotifier(rdb *goredis.Client) *InvalidationNotifier {
	return &InvalidationNotifier{rdb: rdb}
}

func (n *InvalidationNotifier) Publish(ctx context.Context, userID string) error {
	if err := n.rdb.Publish(ctx, aggregateInvalidationChannel, userID).Err(); err != nil {
		return fmt.Errorf("failed to publish aggregate invalidation: %w", err)
	}
	return nil
}

// InvalidationSubscriber drops in-memory summaries invalidated by other replicas.
type InvalidationSubscriber struct {
	rdb   *goredis.Client
	cache *AggregateCache
}

func NewInvalidationSubscriber(rdb *goredis.Client, cache *AggregateCache) *InvalidationSubscriber {
	return &InvalidationSubscriber{rdb: rdb, cache: cache}
}

// Start blocks until ctx is cancelled or the subscription closes.
func (s *InvalidationSubscriber) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, aggregateInvalidationChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleInvalidation(ctx, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *InvalidationSubscriber) handleInvalidation(ctx context.Context, userID string) {
	if userID == "" {
		slog.WarnContext(ctx, "Empty aggregate invalidation message")
		return
	}
	s.cache.forget(userID)
	slog.DebugContext(ctx, "Aggregate cache invalidated via pub/sub", "user_id", userID)
}
