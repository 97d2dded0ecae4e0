package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arche/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchActivities(t *testing.T) {
	tokens := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ws/activities" {
			http.NotFound(w, r)
			return
		}
		tokens <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, kind := range []string{"savoir_published", "vote_cast"} {
			_ = conn.WriteJSON(Event{Type: "activity", Payload: &models.Activity{UserID: "u1", ActivityType: kind}})
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	t.Cleanup(srv.Close)

	c := NewBrowserClient(srv.URL, testAnonKey, WithSession(NewSessionWithToken("tok")))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var kinds []string
	err := c.WatchActivities(ctx, func(ev Event) error {
		kinds = append(kinds, ev.Payload.ActivityType)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"savoir_published", "vote_cast"}, kinds)
	assert.Equal(t, "tok", <-tokens)
}

func TestWatchActivities_StopsOnCallbackError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			_ = conn.WriteJSON(Event{Type: "activity", Payload: &models.Activity{}})
		}
		time.Sleep(100 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	stop := errors.New("enough")
	seen := 0
	err := NewBrowserClient(srv.URL, testAnonKey).WatchActivities(context.Background(), func(Event) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestWatchActivities_Disabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	err := NewBrowserClient(srv.URL, testAnonKey).WatchActivities(context.Background(), func(Event) error { return nil })
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusNotFound, ce.Status)
}
