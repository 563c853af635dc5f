// Package indexer wires the chain reader, reconciler, event listener, and
// HTTP surface into one module with explicit lifecycle.
package indexer

import (
	"context"
	"fmt"
	"time"

	"catsvg-indexer/internal/indexer/adapter/chain"
	"catsvg-indexer/internal/indexer/adapter/genai"
	httpadapter "catsvg-indexer/internal/indexer/adapter/http"
	"catsvg-indexer/internal/indexer/adapter/persistence/mongodb"
	"catsvg-indexer/internal/indexer/adapter/persistence/rediscache"
	"catsvg-indexer/internal/indexer/config"
	"catsvg-indexer/internal/indexer/domain/repository"
	"catsvg-indexer/internal/indexer/usecase"
	"catsvg-indexer/internal/shared/eventbus"
	"catsvg-indexer/internal/shared/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Module owns the indexer's components. Dependencies are constructed at
// startup and passed in explicitly; there is no implicit teardown beyond
// Stop and the owning container's Close.
type Module struct {
	Config      *config.Config
	Logger      logger.Logger
	Bus         *eventbus.EventBus
	TokenRepo   *mongodb.TokenRepository
	CatTextRepo *mongodb.CatTextRepository
	SeenCache   repository.SeenCache
	Reconciler  *usecase.Reconciler
	Listener    *chain.CatTextListener
	Handler     *httpadapter.Handler
	WSHandler   *httpadapter.WebSocketHandler

	cancel context.CancelFunc
}

// NewModule builds and wires the indexer module. redisClient may be nil;
// the seen-token cache then degrades to a no-op and every existence check
// hits MongoDB.
func NewModule(ctx context.Context, cfg *config.Config, log logger.Logger, db *mongo.Database, redisClient *redis.Client) (*Module, error) {
	bus := eventbus.NewEventBus(log)

	tokenRepo := mongodb.NewTokenRepository(db, log)
	catTextRepo := mongodb.NewCatTextRepository(db, log)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, 15*time.Second)
	defer cancelIndexes()
	if err := tokenRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, fmt.Errorf("failed to ensure svgs indexes: %w", err)
	}
	if err := catTextRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, fmt.Errorf("failed to ensure catTexts indexes: %w", err)
	}

	var seen repository.SeenCache = rediscache.NoopSeenCache{}
	if redisClient != nil {
		seen = rediscache.NewSeenTokenCache(redisClient, log)
	}

	dial := func(ctx context.Context) (usecase.ChainReader, error) {
		return chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.ContractAddress, log)
	}

	reconciler := usecase.NewReconciler(
		dial, tokenRepo, seen, bus, chain.DecodeTokenURI, cfg.PollInterval, log)

	listener := chain.NewCatTextListener(
		chain.WSDialer(cfg.Chain.WSURL),
		common.HexToAddress(cfg.Chain.ContractAddress),
		catTextRepo,
		bus,
		log,
		cfg.Chain.ReconnectAttempts,
		cfg.Chain.ReconnectDelay,
	)

	generator := usecase.NewSVGGenerator(
		genai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), log)

	handler := httpadapter.NewHandler(tokenRepo, catTextRepo, generator, reconciler, bus, log)
	wsHandler := httpadapter.NewWebSocketHandler(bus, log)

	return &Module{
		Config:      cfg,
		Logger:      log,
		Bus:         bus,
		TokenRepo:   tokenRepo,
		CatTextRepo: catTextRepo,
		SeenCache:   seen,
		Reconciler:  reconciler,
		Listener:    listener,
		Handler:     handler,
		WSHandler:   wsHandler,
	}, nil
}

// RegisterRoutes mounts the HTTP API and websocket feed.
func (m *Module) RegisterRoutes(app fiber.Router) {
	m.Handler.RegisterRoutes(app)
	m.WSHandler.RegisterRoutes(app)
}

// StartBackgroundServices launches the reconciler loop and the event
// listener. Both stop when Stop is called.
func (m *Module) StartBackgroundServices() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	go m.Reconciler.Run(ctx)
	go m.Listener.Run(ctx)

	m.Logger.Info("Indexer background services started")
}

// Stop cancels the background services.
func (m *Module) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}
