package http

import (
	"context"
	"sync"

	"catsvg-indexer/internal/shared/eventbus"
	"catsvg-indexer/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WebSocketMessage is one frame of the live feed.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHandler streams reconciliation and cat-text events to connected
// clients. Delivery is best effort; a slow client loses frames rather than
// blocking the publishers.
type WebSocketHandler struct {
	log logger.Logger

	mu      sync.RWMutex
	clients map[string]chan WebSocketMessage
}

// NewWebSocketHandler creates the handler and attaches it to the bus.
func NewWebSocketHandler(bus *eventbus.EventBus, log logger.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		log:     log.WithComponent("ws_handler"),
		clients: make(map[string]chan WebSocketMessage),
	}

	for _, eventType := range []string{
		eventbus.EventTypeTokenReconciled,
		eventbus.EventTypeCatTextUpdated,
		eventbus.EventTypeSVGPublished,
	} {
		bus.Subscribe(eventType, h.broadcast)
	}
	return h
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(router fiber.Router) {
	ws := router.Group("/ws")

	ws.Use("/listen", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	ws.Get("/listen", websocket.New(h.handleConnection))
}

// broadcast fans one bus event out to every connected client.
func (h *WebSocketHandler) broadcast(ctx context.Context, event eventbus.Event) error {
	msg := WebSocketMessage{Type: event.Type(), Data: event.Data()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.log.Debugf("Dropping frame for slow websocket client %s", id)
		}
	}
	return nil
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	clientID := uuid.NewString()
	send := make(chan WebSocketMessage, 16)

	h.mu.Lock()
	h.clients[clientID] = send
	h.mu.Unlock()

	h.log.Infof("Websocket client %s connected", clientID)

	defer func() {
		h.mu.Lock()
		delete(h.clients, clientID)
		h.mu.Unlock()
		conn.Close()
		h.log.Infof("Websocket client %s disconnected", clientID)
	}()

	// Reader goroutine: the feed is write-only, but reads detect closure.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-send:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
