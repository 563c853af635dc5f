package di

import (
	"context"
	"fmt"
	"sync"

	"catsvg-indexer/internal/indexer"
	"catsvg-indexer/internal/indexer/config"
	"catsvg-indexer/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container owns the process-wide dependencies and their lifecycle: init at
// startup, explicit Close at shutdown, nothing implicit in between.
type Container struct {
	mu sync.Mutex

	IndexerModule *indexer.Module
	MongoClient   *mongo.Client
	MongoDB       *mongo.Database
	RedisClient   *redis.Client
	Config        *config.Config
	Logger        logger.Logger
}

// NewContainer creates an empty container.
func NewContainer(log logger.Logger) *Container {
	return &Container{Logger: log}
}

// InitializeIndexer wires the indexer module against the given database,
// optionally backed by a Redis seen-token cache.
func (c *Container) InitializeIndexer(ctx context.Context, mongoClient *mongo.Client, cfg *config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Logger == nil {
		c.Logger = logger.NewLogger()
	}

	c.MongoClient = mongoClient
	c.MongoDB = mongoClient.Database(cfg.DatabaseName)
	c.Config = cfg

	if cfg.Redis.Enabled {
		c.RedisClient = config.NewRedisClient(&cfg.Redis)
		if err := c.RedisClient.Ping(ctx).Err(); err != nil {
			// The cache is an optimization; run without it rather than fail startup.
			c.Logger.Warnf("Redis unavailable, continuing without seen-token cache: %v", err)
			c.RedisClient = nil
		}
	}

	module, err := indexer.NewModule(ctx, cfg, c.Logger, c.MongoDB, c.RedisClient)
	if err != nil {
		return fmt.Errorf("failed to create indexer module: %w", err)
	}

	c.IndexerModule = module
	return nil
}

// HealthCheck verifies the container's backing services are reachable.
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.MongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	if err := c.MongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	return nil
}

// Close stops background services and releases connections.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.IndexerModule != nil {
		c.IndexerModule.Stop()
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	return nil
}
