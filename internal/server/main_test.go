package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arche/internal/config"
	"arche/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAnonKey    = "anon-key"
	testServiceKey = "service-key"
)

type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                   "test",
		Port:                  "0",
		PublicURL:             "http://localhost:8375",
		SessionSecret:         "test-secret-at-least-32-characters!!",
		SessionMaxAgeDays:     30,
		SessionUpdateAgeHours: 24,
		AnonKey:               testAnonKey,
		ServiceKey:            testServiceKey,
		UploadDir:             t.TempDir(),
		ImageMaxUploadSizeMB:  2,
		AllowedOrigins:        "http://localhost:3000",
		FeatureFlags:          "live_feed=on,image_uploads=on",
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: database.NewGormLogger(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig(t)
	for _, m := range mutate {
		m(cfg)
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testServer{srv: srv, app: srv.App(), db: db, mr: mr}
}

// call describes one API request. Key defaults to the anon key; use "-" to
// send none.
type call struct {
	method string
	path   string
	body   interface{}
	token  string
	key    string
}

func (ts *testServer) do(t *testing.T, c call) *http.Response {
	t.Helper()
	var reader io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(c.method, c.path, reader)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch c.key {
	case "":
		req.Header.Set("apikey", testAnonKey)
	case "-":
	default:
		req.Header.Set("apikey", c.key)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

type sessionBody struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"user"`
}

// signUp registers an account, signs in and returns the session.
func (ts *testServer) signUp(t *testing.T, email, fullName string) sessionBody {
	t.Helper()
	resp := ts.do(t, call{method: http.MethodPost, path: "/api/auth/signup", body: map[string]string{
		"email": email, "password": "secret123", "fullName": fullName,
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, call{method: http.MethodPost, path: "/api/auth/signin", body: map[string]string{
		"email": email, "password": "secret123",
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session sessionBody
	decode(t, resp, &session)
	require.NotEmpty(t, session.Token)
	return session
}

func savoirBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":    title,
		"excerpt":  "Une méthode ancestrale transmise de génération en génération",
		"content":  strings.Repeat("Le levain se nourrit de farine et d'eau tiède chaque jour. ", 4),
		"category": "Alimentation",
		"era":      "Moyen Âge",
		"region":   "Bretagne",
		"tags":     []string{"pain", "levain"},
	}
}

type savoirResp struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	ContributorID string `json:"contributor_id"`
	VotesCount    int    `json:"votes_count"`
	ApprovalRate  int    `json:"approval_rate"`
	ViewsCount    int    `json:"views_count"`
	Published     bool   `json:"published"`
}

func (ts *testServer) createSavoir(t *testing.T, token, title string) savoirResp {
	t.Helper()
	resp := ts.do(t, call{method: http.MethodPost, path: "/api/savoirs", body: savoirBody(title), token: token})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var s savoirResp
	decode(t, resp, &s)
	return s
}
