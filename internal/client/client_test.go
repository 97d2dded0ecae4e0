package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"arche/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageAndFallback(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/savoirs/abc", jsonHandler(http.StatusNotFound,
		map[string]string{"error": "Savoir introuvable", "code": "NOT_FOUND"}))
	api.handle("GET /api/savoirs/def", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := api.client()

	_, err := c.Savoir(context.Background(), "abc")
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Savoir introuvable", ce.Message)
	assert.Equal(t, "NOT_FOUND", ce.Code)
	assert.Equal(t, http.StatusNotFound, ce.Status)

	_, err = c.Savoir(context.Background(), "def")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Impossible de charger le savoir", ce.Message)
	assert.Equal(t, KindNetwork, ce.Kind)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusConflict, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNetwork},
		{http.StatusServiceUnavailable, KindNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.kind, kindForStatus(tt.status))
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		c := NewBrowserClient("http://127.0.0.1:1", testAnonKey)
		_, err := c.Savoirs(context.Background(), SavoirFilter{})
		assert.True(t, IsKind(err, KindNetwork))
	})

	t.Run("undecodable body", func(t *testing.T) {
		api := newFakeAPI(t)
		api.handle("GET /api/savoirs", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		})
		_, err := api.client().Savoirs(context.Background(), SavoirFilter{})
		assert.True(t, IsKind(err, KindUnknown))
	})
}

func TestIdleQueriesSendNothing(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client()
	ctx := context.Background()

	savoir, err := c.Savoir(ctx, "")
	require.NoError(t, err)
	assert.True(t, savoir.Idle())

	search, err := c.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.True(t, search.Idle())

	vote, err := c.UserVote(ctx, "")
	require.NoError(t, err)
	assert.True(t, vote.Idle())

	fav, err := c.IsFavorite(ctx, "")
	require.NoError(t, err)
	assert.True(t, fav.Idle())

	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.True(t, me.Idle())

	assert.Zero(t, api.total())
}

func TestQueryStringOmitsEmptyValues(t *testing.T) {
	api := newFakeAPI(t)
	var raw string
	api.handle("GET /api/savoirs", func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		writeJSON(w, http.StatusOK, SavoirPage{Data: []models.Savoir{}})
	})

	_, err := api.client().Savoirs(context.Background(), SavoirFilter{Category: "Art", Sort: "votes"})
	require.NoError(t, err)
	assert.Equal(t, "category=Art&sort=votes", raw)
}

func TestStalenessWindows(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/savoirs", jsonHandler(http.StatusOK, SavoirPage{Data: []models.Savoir{}}))
	api.handle("GET /api/search", jsonHandler(http.StatusOK, SavoirPage{Data: []models.Savoir{}}))

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	advance := func(d time.Duration) { mu.Lock(); defer mu.Unlock(); now = now.Add(d) }

	c := api.client(WithClock(clock))
	ctx := context.Background()

	_, err := c.Savoirs(ctx, SavoirFilter{})
	require.NoError(t, err)
	_, err = c.Search(ctx, "pain", 0)
	require.NoError(t, err)

	advance(ListingStaleTime - time.Second)
	_, _ = c.Savoirs(ctx, SavoirFilter{})
	_, _ = c.Search(ctx, "pain", 0)
	assert.Equal(t, 1, api.count("GET /api/savoirs"))
	assert.Equal(t, 2, api.count("GET /api/search"), "search goes stale after two minutes")

	advance(2 * time.Second)
	_, _ = c.Savoirs(ctx, SavoirFilter{})
	assert.Equal(t, 2, api.count("GET /api/savoirs"))

	// Other parameters are another cache entry.
	_, _ = c.Savoirs(ctx, SavoirFilter{Era: "Renaissance"})
	assert.Equal(t, 3, api.count("GET /api/savoirs"))
}

func TestConcurrentQueriesShareOneRequest(t *testing.T) {
	api := newFakeAPI(t)
	release := make(chan struct{})
	api.handle("GET /api/savoirs", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, SavoirPage{Data: []models.Savoir{}, Total: 3})
	})
	c := api.client()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Savoirs(context.Background(), SavoirFilter{})
			assert.NoError(t, err)
			assert.EqualValues(t, 3, res.Data.Total)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, api.count("GET /api/savoirs"))
}

func TestFactoriesSetCredentialTier(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/auth/me", jsonHandler(http.StatusOK, models.ProfileWithStats{}))
	api.handle("GET /api/savoirs", jsonHandler(http.StatusOK, SavoirPage{}))
	ctx := context.Background()

	_, err := NewServiceClient(api.srv.URL, "service-key").Savoirs(ctx, SavoirFilter{})
	require.NoError(t, err)

	incoming := httptest.NewRequest(http.MethodGet, "/", nil)
	incoming.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-123"})
	server := NewServerClient(api.srv.URL, testAnonKey, incoming)
	res, err := server.CurrentUser(ctx)
	require.NoError(t, err)
	assert.False(t, res.Idle())

	assert.Equal(t, []string{"service-key", testAnonKey}, api.apiKeys())
	assert.Equal(t, "Bearer tok-123", api.authHeaders()[1])
}
