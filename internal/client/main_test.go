package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const testAnonKey = "anon-key"

// fakeAPI records every request and answers from per-route handlers.
type fakeAPI struct {
	srv    *httptest.Server
	mu     sync.Mutex
	calls  map[string]int
	bodies map[string][]map[string]any
	keys   []string
	auth   []string
	routes map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		calls:  make(map[string]int),
		bodies: make(map[string][]map[string]any),
		routes: make(map[string]http.HandlerFunc),
	}
	api.srv = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) handle(route string, h http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[route] = h
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	var body map[string]any
	if r.Header.Get("Content-Type") == "application/json" {
		payload, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(payload, &body)
		r.Body = io.NopCloser(bytes.NewReader(payload))
	}

	a.mu.Lock()
	a.calls[route]++
	if body != nil {
		a.bodies[route] = append(a.bodies[route], body)
	}
	a.keys = append(a.keys, r.Header.Get(HeaderAPIKey))
	a.auth = append(a.auth, r.Header.Get("Authorization"))
	h, ok := a.routes[route]
	a.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Route introuvable", "code": "NOT_FOUND"})
		return
	}
	h(w, r)
}

func (a *fakeAPI) count(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[route]
}

func (a *fakeAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		n += c
	}
	return n
}

func (a *fakeAPI) sent(route string) []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]any(nil), a.bodies[route]...)
}

func (a *fakeAPI) client(opts ...Option) *Client {
	return NewBrowserClient(a.srv.URL, testAnonKey, opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonHandler(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, v)
	}
}

func (a *fakeAPI) apiKeys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.keys...)
}

func (a *fakeAPI) authHeaders() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.auth...)
}
