package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"arche/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(testEventuallyTimeout):
		t.Fatal("expected a message")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(5 * testPollInterval):
	}
}

func TestHub_Routing(t *testing.T) {
	hub := NewHub()
	global, err := hub.Register("", nil, nil)
	require.NoError(t, err)
	follower, err := hub.Register("u1", nil, []string{"u1", "author"})
	require.NoError(t, err)
	stranger, err := hub.Register("u2", nil, []string{"u2"})
	require.NoError(t, err)

	hub.Deliver("author", "a")
	assert.Equal(t, "a", string(receive(t, follower)))
	assertSilent(t, stranger)
	assertSilent(t, global)

	hub.BroadcastAll("b")
	assert.Equal(t, "b", string(receive(t, global)))
	assertSilent(t, follower)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())
}

func TestHub_Limits(t *testing.T) {
	hub := NewHub()
	var clients []*Client
	for i := 0; i < maxConnsPerUser; i++ {
		c, err := hub.Register("busy", nil, []string{"busy"})
		require.NoError(t, err)
		clients = append(clients, c)
	}
	_, err := hub.Register("busy", nil, nil)
	assert.ErrorIs(t, err, ErrUserLimit)

	hub.UnregisterClient(clients[0])
	hub.UnregisterClient(clients[0])
	_, err = hub.Register("busy", nil, nil)
	assert.NoError(t, err)

	// Anonymous viewers are only bound by the global limit.
	for i := 0; i < maxConnsPerUser+1; i++ {
		_, err := hub.Register("", nil, nil)
		require.NoError(t, err)
	}

	require.NoError(t, hub.Shutdown(context.Background()))
	_, err = hub.Register("late", nil, nil)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestClient_TrySendBackpressure(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("u", nil, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
	assert.True(t, c.lagging.Load())

	var last []byte
	notices := 0
	for len(c.Send) > 0 {
		last = <-c.Send
		if string(last) == string(dropNotice) {
			notices++
		}
	}
	assert.Equal(t, 1, notices)
	assert.Equal(t, dropNotice, last)

	// Discarded until the notice has gone out.
	c.TrySend([]byte("y"))
	assert.Empty(t, c.Send)
	c.sent(last)
	c.TrySend([]byte("z"))
	assert.Equal(t, "z", string(receive(t, c)))

	hub.UnregisterClient(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("after close")) })
}

func TestHub_StartWiring(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	global, err := hub.Register("", nil, nil)
	require.NoError(t, err)
	follower, err := hub.Register("f", nil, []string{"f", "author-1"})
	require.NoError(t, err)

	activity := &models.Activity{
		Base:         models.Base{ID: "act-1"},
		UserID:       "author-1",
		ActivityType: models.ActivityVoteCast,
		TargetID:     "savoir-1",
	}
	require.NoError(t, n.PublishActivity(context.Background(), activity))

	for _, c := range []*Client{global, follower} {
		var ev Event
		require.NoError(t, json.Unmarshal(receive(t, c), &ev))
		assert.Equal(t, "activity", ev.Type)
		assert.Equal(t, "act-1", ev.Payload.ID)
	}
	assertSilent(t, follower)

	_ = hub.Shutdown(context.Background())
}

func TestNotifier_NilRedis(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishActivity(context.Background(), &models.Activity{UserID: "x"}))
	assert.NoError(t, n.StartActivitySubscriber(context.Background(), func(string, string) {}))
}

func TestChannels(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "activities:user:abc", UserChannel("abc"))

	id, ok := ParseUserChannel("activities:user:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = ParseUserChannel("activities:user:")
	assert.False(t, ok)
	_, ok = ParseUserChannel("other:abc")
	assert.False(t, ok)
}
