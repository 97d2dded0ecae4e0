package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"arche/internal/models"

	"github.com/gorilla/websocket"
)

// Event is one live feed frame.
type Event struct {
	Type    string           `json:"type"`
	Payload *models.Activity `json:"payload"`
}

// feedURL derives the websocket address of the live feed.
func (c *Client) feedURL() (string, error) {
	u, err := url.Parse(c.baseURL + apiPrefix + "/ws/activities")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if token := c.session.Token(); token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// WatchActivities streams the live feed into fn until ctx is done, the
// server closes the connection or fn returns an error.
func (c *Client) WatchActivities(ctx context.Context, fn func(Event) error) error {
	const fallback = "Fil en direct indisponible"

	target, err := c.feedURL()
	if err != nil {
		return &Error{Kind: KindUnknown, Message: fallback, Err: err}
	}
	header := http.Header{}
	header.Set(HeaderAPIKey, c.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: fallback, Err: err}
		}
		return &Error{Kind: KindNetwork, Message: fallback, Err: err}
	}
	defer func() { _ = conn.Close() }()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return &Error{Kind: KindNetwork, Message: fallback, Err: err}
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
