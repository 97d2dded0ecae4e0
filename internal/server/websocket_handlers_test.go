package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.Shutdown() })
	return ln.Addr().String()
}

func TestActivityFeed_RejectsPlainHTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, call{method: http.MethodGet, path: "/api/ws/activities", key: "-"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestActivityFeed_StreamsFollowedActivities(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "alice@example.fr", "Alice Martin")
	bob := ts.signUp(t, "bob@example.fr", "Bob Durand")
	carol := ts.signUp(t, "carol@example.fr", "Carol Petit")

	resp := ts.do(t, call{method: http.MethodPost, path: "/api/follows", token: bob.Token,
		body: map[string]string{"user_id": alice.User.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, ts.srv.hub.StartWiring(ctx, ts.srv.notifier))

	addr := ts.listen(t)
	conn, _, err := gorillaws.DefaultDialer.Dial("ws://"+addr+"/api/ws/activities?token="+bob.Token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ts.srv.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	// Carol is not followed; only Alice's savoir reaches Bob.
	ts.createSavoir(t, carol.Token, "La teinture au pastel")
	ts.createSavoir(t, alice.Token, "Le pain au levain")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string `json:"type"`
		Payload struct {
			UserID       string `json:"user_id"`
			ActivityType string `json:"activity_type"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "activity", event.Type)
	assert.Equal(t, alice.User.ID, event.Payload.UserID)
}
