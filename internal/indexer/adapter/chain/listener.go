package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"catsvg-indexer/internal/indexer/domain/model"
	"catsvg-indexer/internal/indexer/domain/repository"
	"catsvg-indexer/internal/shared/eventbus"
	"catsvg-indexer/internal/shared/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// SubscriptionState is the listener's position in its lifecycle.
type SubscriptionState string

const (
	StateDisconnected SubscriptionState = "disconnected"
	StateConnecting   SubscriptionState = "connecting"
	StateSubscribed   SubscriptionState = "subscribed"
)

// LogSubscriber is the subset of ethclient.Client the listener needs.
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// SubscriberDialFunc establishes a fresh websocket-backed subscriber. Each
// reconnect attempt dials anew; a dropped connection is never reused.
type SubscriberDialFunc func(ctx context.Context) (LogSubscriber, error)

// WSDialer returns a SubscriberDialFunc for the given websocket RPC URL.
func WSDialer(wsURL string) SubscriberDialFunc {
	return func(ctx context.Context) (LogSubscriber, error) {
		return ethclient.DialContext(ctx, wsURL)
	}
}

// CatTextListener maintains a live subscription to the contract's CatTextSet
// event and upserts every delivered (tokenId, text) pair. Delivery is
// at-most-once: there is no persisted cursor, and events missed while
// disconnected are lost.
type CatTextListener struct {
	dial        SubscriberDialFunc
	contract    common.Address
	texts       repository.CatTextRepository
	bus         *eventbus.EventBus
	log         logger.Logger
	maxAttempts int
	retryDelay  time.Duration

	mu    sync.RWMutex
	state SubscriptionState
}

// NewCatTextListener creates a listener. maxAttempts bounds reconnection per
// drop; after it is exhausted the listener stays disconnected for the rest of
// the process lifetime.
func NewCatTextListener(
	dial SubscriberDialFunc,
	contract common.Address,
	texts repository.CatTextRepository,
	bus *eventbus.EventBus,
	log logger.Logger,
	maxAttempts int,
	retryDelay time.Duration,
) *CatTextListener {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &CatTextListener{
		dial:        dial,
		contract:    contract,
		texts:       texts,
		bus:         bus,
		log:         log.WithComponent("cattext_listener"),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		state:       StateDisconnected,
	}
}

// State returns the current subscription state.
func (l *CatTextListener) State() SubscriptionState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *CatTextListener) setState(s SubscriptionState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
	l.log.Debug("Listener state changed", zap.String("state", string(s)))
}

// Run drives the subscription state machine until ctx is cancelled or
// reconnection is exhausted. Blocking; callers start it in a goroutine.
func (l *CatTextListener) Run(ctx context.Context) {
	for {
		client, sub, logs, err := l.connect(ctx)
		if err != nil {
			l.setState(StateDisconnected)
			if ctx.Err() == nil {
				l.log.Error("Event subscription abandoned after exhausting reconnect attempts",
					zap.Int("attempts", l.maxAttempts),
					zap.Error(err))
			}
			return
		}

		l.setState(StateSubscribed)
		l.log.Info("Subscribed to CatTextSet events",
			zap.String("contract", l.contract.Hex()))

		err = l.consume(ctx, sub, logs)
		sub.Unsubscribe()
		if closer, ok := client.(interface{ Close() }); ok {
			closer.Close()
		}

		l.setState(StateDisconnected)
		if ctx.Err() != nil {
			return
		}
		l.log.Warn("Event subscription dropped, reconnecting", zap.Error(err))
	}
}

// connect dials and subscribes with bounded retry. Attempts are counted per
// drop, not per process.
func (l *CatTextListener) connect(ctx context.Context) (LogSubscriber, ethereum.Subscription, chan types.Log, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{l.contract},
		Topics:    [][]common.Hash{{contractABI.Events[catTextEventName].ID}},
	}

	var lastErr error
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, nil, nil, ctx.Err()
		}
		l.setState(StateConnecting)

		client, err := l.dial(ctx)
		if err != nil {
			lastErr = err
			l.log.Warn("Listener dial failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", l.maxAttempts),
				zap.Error(err))
			l.wait(ctx)
			continue
		}

		logs := make(chan types.Log, 16)
		sub, err := client.SubscribeFilterLogs(ctx, query, logs)
		if err != nil {
			lastErr = err
			if closer, ok := client.(interface{ Close() }); ok {
				closer.Close()
			}
			l.log.Warn("Log subscription failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", l.maxAttempts),
				zap.Error(err))
			l.wait(ctx)
			continue
		}

		return client, sub, logs, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no subscription attempts made")
	}
	return nil, nil, nil, lastErr
}

func (l *CatTextListener) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(l.retryDelay):
	}
}

// consume processes deliveries until the subscription errors or ctx ends.
func (l *CatTextListener) consume(ctx context.Context, sub ethereum.Subscription, logs <-chan types.Log) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case lg := <-logs:
			l.handleLog(ctx, lg)
		}
	}
}

// handleLog upserts one event. Failures are logged and the event dropped;
// there is no redelivery.
func (l *CatTextListener) handleLog(ctx context.Context, lg types.Log) {
	if lg.Removed {
		// Reorged-out log; the replacement block redelivers if still present.
		return
	}
	if len(lg.Topics) < 2 {
		l.log.Warn("CatTextSet log missing indexed tokenId topic",
			zap.String("tx", lg.TxHash.Hex()))
		return
	}

	tokenID := new(big.Int).SetBytes(lg.Topics[1].Bytes()).String()

	values, err := contractABI.Unpack(catTextEventName, lg.Data)
	if err != nil || len(values) == 0 {
		l.log.Error("Failed to decode CatTextSet event data",
			zap.String("tokenId", tokenID),
			zap.Error(err))
		return
	}
	text, ok := values[0].(string)
	if !ok {
		l.log.Error("CatTextSet event text has unexpected type",
			zap.String("tokenId", tokenID))
		return
	}

	if err := l.texts.Upsert(ctx, tokenID, text); err != nil {
		l.log.Error("Failed to upsert cat text",
			zap.String("tokenId", tokenID),
			zap.Error(err))
		return
	}

	l.log.Info("Stored cat text",
		zap.String("tokenId", tokenID))

	if l.bus != nil {
		l.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(
			eventbus.EventTypeCatTextUpdated,
			model.CatTextRecord{TokenID: tokenID, Text: text},
			"cattext_listener",
		))
	}
}
