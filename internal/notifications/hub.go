package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"arche/internal/middleware"
	"arche/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per signed-in user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Connection limit errors.
var (
	ErrUserLimit   = errors.New("user connection limit reached")
	ErrServerLimit = errors.New("server connection limit reached")
	ErrShutdown    = errors.New("hub is shutting down")
)

// Hub tracks live feed clients and routes activities to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	perUser map[string]int
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		perUser: make(map[string]int),
	}
}

// Register adds a connection. authors lists the profiles whose activities the
// client receives; nil subscribes it to the global feed.
func (h *Hub) Register(userID string, conn *websocket.Conn, authors []string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrShutdown
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrServerLimit
	}
	if userID != "" && h.perUser[userID] >= maxConnsPerUser {
		return nil, ErrUserLimit
	}

	client := newClient(h, conn, userID, authors)
	h.clients[client] = struct{}{}
	if userID != "" {
		h.perUser[userID]++
	}
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes a client and closes its send channel.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if client.UserID != "" {
		if h.perUser[client.UserID]--; h.perUser[client.UserID] <= 0 {
			delete(h.perUser, client.UserID)
		}
	}
	close(client.Send)
	observability.WebSocketConnections.Dec()
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver sends an activity by authorID to every client following that author.
func (h *Hub) Deliver(authorID, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.clients {
		if c.Wants(authorID) {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every client on the global feed.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.clients {
		if c.WantsAll() {
			c.TrySend(data)
		}
	}
}

// StartWiring connects the Notifier to this hub: it subscribes to the
// activity channels and forwards messages to matching clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartActivitySubscriber(ctx, func(channel, payload string) {
		if channel == BroadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		authorID, ok := ParseUserChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid activity channel", slog.String("channel", channel))
			return
		}
		h.Deliver(authorID, payload)
	})
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for client := range h.clients {
		if client.Conn != nil && client.Conn.Conn != nil {
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				middleware.Logger.Debug("close frame failed", slog.String("error", err.Error()))
			}
		}
		close(client.Send)
		observability.WebSocketConnections.Dec()
	}
	h.clients = make(map[*Client]struct{})
	h.perUser = make(map[string]int)
	return nil
}
