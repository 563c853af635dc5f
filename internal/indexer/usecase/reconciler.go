package usecase

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"catsvg-indexer/internal/indexer/domain/model"
	"catsvg-indexer/internal/indexer/domain/repository"
	"catsvg-indexer/internal/shared/errors"
	"catsvg-indexer/internal/shared/eventbus"
	"catsvg-indexer/internal/shared/logger"
)

// ChainReader is the read-only contract surface the reconciler walks.
type ChainReader interface {
	TotalSupply(ctx context.Context) (*big.Int, error)
	TokenByIndex(ctx context.Context, i *big.Int) (*big.Int, error)
	TokenURI(ctx context.Context, id *big.Int) (string, error)
}

// ChainDialFunc acquires a fresh connection for one tick. Returning an error
// aborts the tick without side effects; it never crashes the scheduler.
type ChainDialFunc func(ctx context.Context) (ChainReader, error)

// URIDecoder extracts SVG markup from a token data URI.
type URIDecoder func(uri string) (string, error)

// Reconciler brings the svgs collection into agreement with on-chain state,
// idempotently, once per tick.
type Reconciler struct {
	dial     ChainDialFunc
	tokens   repository.TokenRepository
	cache    repository.SeenCache
	bus      *eventbus.EventBus
	decode   URIDecoder
	interval time.Duration
	log      logger.Logger
}

// NewReconciler wires a reconciler. cache may be a no-op implementation; bus
// may be nil when no consumer is interested in reconciliation events.
func NewReconciler(
	dial ChainDialFunc,
	tokens repository.TokenRepository,
	cache repository.SeenCache,
	bus *eventbus.EventBus,
	decode URIDecoder,
	interval time.Duration,
	log logger.Logger,
) *Reconciler {
	return &Reconciler{
		dial:     dial,
		tokens:   tokens,
		cache:    cache,
		bus:      bus,
		decode:   decode,
		interval: interval,
		log:      log.WithComponent("svg_reconciler"),
	}
}

// Run performs one immediate pass, then ticks on the fixed interval for the
// life of ctx. Ticks run in their own goroutines and may overlap a slow
// predecessor; the store's unique tokenId index keeps overlap harmless.
func (r *Reconciler) Run(ctx context.Context) {
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go r.tick(ctx)
		}
	}
}

// tick runs one pass, logging rather than propagating failures. Connectivity
// loss degrades this cycle only; the next tick retries from scratch.
func (r *Reconciler) tick(ctx context.Context) {
	if err := r.ReconcileOnce(ctx); err != nil {
		r.log.Warnf("Reconcile tick skipped: %v", err)
	}
}

// ReconcileOnce enumerates all tokens and inserts the ones not yet stored.
// The supply is read once at the start; a concurrent mint lands on the next
// tick. Per-token failures are logged and skipped so one bad token never
// blocks the rest of the batch. The returned error covers only failures of
// the pass as a whole.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	reader, err := r.dial(ctx)
	if err != nil {
		return errors.WrapError(err, "failed to acquire chain connection")
	}
	if closer, ok := reader.(interface{ Close() }); ok {
		defer closer.Close()
	}

	supply, err := reader.TotalSupply(ctx)
	if err != nil {
		return errors.NewConnectivityError("failed to read total supply").WithCause(err)
	}
	if !supply.IsInt64() {
		return fmt.Errorf("total supply %s exceeds enumerable range", supply)
	}

	total := supply.Int64()
	r.log.Debugf("Reconciling %d tokens", total)

	var stored int64
	for i := int64(0); i < total; i++ {
		inserted, err := r.reconcileIndex(ctx, reader, i)
		if err != nil {
			r.log.Errorf("Skipping token at index %d: %v", i, err)
			continue
		}
		if inserted {
			stored++
		}
	}

	if stored > 0 {
		r.log.Infof("Reconcile pass stored %d new tokens of %d total", stored, total)
	}
	return nil
}

// reconcileIndex processes one enumeration index: resolve the id, skip if
// already stored, otherwise fetch, decode, and insert.
func (r *Reconciler) reconcileIndex(ctx context.Context, reader ChainReader, i int64) (bool, error) {
	id, err := reader.TokenByIndex(ctx, big.NewInt(i))
	if err != nil {
		return false, fmt.Errorf("tokenByIndex: %w", err)
	}
	tokenID := id.String()

	if r.cache != nil && r.cache.Seen(ctx, tokenID) {
		return false, nil
	}

	exists, err := r.tokens.Exists(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		r.markSeen(ctx, tokenID)
		return false, nil
	}

	uri, err := reader.TokenURI(ctx, id)
	if err != nil {
		return false, fmt.Errorf("tokenURI: %w", err)
	}

	svg, err := r.decode(uri)
	if err != nil {
		return false, fmt.Errorf("decode: %w", err)
	}

	rec := model.NewReconciledToken(tokenID, svg)
	inserted, err := r.tokens.Insert(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("insert: %w", err)
	}
	r.markSeen(ctx, tokenID)

	if inserted && r.bus != nil {
		r.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
			eventbus.EventTypeTokenReconciled, rec, "svg_reconciler"))
	}
	return inserted, nil
}

func (r *Reconciler) markSeen(ctx context.Context, tokenID string) {
	if r.cache != nil {
		r.cache.MarkSeen(ctx, tokenID)
	}
}
