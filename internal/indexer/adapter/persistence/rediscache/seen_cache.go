package rediscache

import (
	"context"

	"catsvg-indexer/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// seenSetKey is the Redis SET holding tokenIds already persisted to MongoDB.
const seenSetKey = "catsvg:seen_tokens"

// SeenTokenCache fronts the MongoDB existence check with a Redis set.
// Every operation is best effort: a Redis failure degrades to a miss and the
// caller falls through to the store.
type SeenTokenCache struct {
	client *redis.Client
	logger logger.Logger
}

// NewSeenTokenCache creates a Redis-backed seen-token cache.
func NewSeenTokenCache(client *redis.Client, log logger.Logger) *SeenTokenCache {
	return &SeenTokenCache{
		client: client,
		logger: log.WithComponent("seen_token_cache"),
	}
}

// Seen reports whether tokenID is known to be persisted. Errors are logged
// and reported as a miss.
func (c *SeenTokenCache) Seen(ctx context.Context, tokenID string) bool {
	member, err := c.client.SIsMember(ctx, seenSetKey, tokenID).Result()
	if err != nil {
		c.logger.Debug("Seen-token cache lookup failed, treating as miss",
			zap.String("tokenId", tokenID),
			zap.Error(err))
		return false
	}
	return member
}

// MarkSeen records tokenID as persisted. Errors are logged and dropped; the
// next lookup simply misses.
func (c *SeenTokenCache) MarkSeen(ctx context.Context, tokenID string) {
	if err := c.client.SAdd(ctx, seenSetKey, tokenID).Err(); err != nil {
		c.logger.Debug("Seen-token cache write failed",
			zap.String("tokenId", tokenID),
			zap.Error(err))
	}
}

// NoopSeenCache satisfies repository.SeenCache when Redis is disabled.
type NoopSeenCache struct{}

func (NoopSeenCache) Seen(ctx context.Context, tokenID string) bool { return false }
func (NoopSeenCache) MarkSeen(ctx context.Context, tokenID string)  {}
