package notifications

import (
	"bytes"
	"log/slog"
	"sync/atomic"
	"time"

	"arche/internal/middleware"
	"arche/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// pingPeriod must stay below pongWait.
	pingPeriod = pongWait * 9 / 10

	// The feed is push only, so inbound frames are small.
	maxMessageSize = 4096
	sendBuffer     = 64
)

var dropNotice = []byte(`{"type":"activities_dropped","payload":{"reason":"buffer_full"}}`)

// Client is a live feed subscriber.
type Client struct {
	hub  *Hub
	Conn *websocket.Conn
	// Send carries serialized activities to WritePump. The hub closes it.
	Send chan []byte
	// UserID is empty for anonymous viewers.
	UserID string

	// authors whose activities this client receives; nil means everyone.
	authors map[string]struct{}
	// lagging is set once a drop notice is queued and cleared when the
	// writer has sent it. Activities arriving meanwhile are discarded.
	lagging atomic.Bool
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, authors []string) *Client {
	c := &Client{hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, sendBuffer)}
	if authors != nil {
		c.authors = make(map[string]struct{}, len(authors))
		for _, id := range authors {
			c.authors[id] = struct{}{}
		}
	}
	return c
}

// WantsAll reports whether the client follows the global feed.
func (c *Client) WantsAll() bool {
	return c.authors == nil
}

// Wants reports whether activities by authorID are delivered to the client.
func (c *Client) Wants(authorID string) bool {
	_, ok := c.authors[authorID]
	return ok
}

// TrySend queues a message without blocking. On overflow the oldest queued
// activity makes room for a single drop notice, after which the client is
// expected to re-fetch GET /api/activities.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if recover() != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues("closed").Inc()
		}
	}()

	if c.lagging.Load() {
		observability.WebSocketBackpressureDrops.WithLabelValues("lagging").Inc()
		return
	}
	select {
	case c.Send <- message:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
	if !c.lagging.CompareAndSwap(false, true) {
		return
	}
	select {
	case <-c.Send:
	default:
	}
	select {
	case c.Send <- dropNotice:
	default:
	}
}

// sent is called by the writer for every message it hands to the socket.
func (c *Client) sent(message []byte) {
	if bytes.Equal(message, dropNotice) {
		c.lagging.Store(false)
	}
}

// ReadPump keeps the read deadline moving with pongs and unregisters the
// client once the peer goes away. Data frames are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	extend := func() error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend()
	c.Conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, _, err := c.Conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			middleware.Logger.Warn("live feed read failed",
				slog.String("user_id", c.UserID), slog.String("error", err.Error()))
		}
		return
	}
}

// WritePump writes queued activities and keepalive pings until Send is
// closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	write := func(kind int, data []byte) error {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.Conn.WriteMessage(kind, data)
	}

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				_ = write(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(websocket.TextMessage, message); err != nil {
				return
			}
			c.sent(message)
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
