// Package client is the typed HTTP client of the API. Queries are cached per
// resource with staleness windows, concurrent identical queries share one
// request, and every mutation marks its dependent queries stale.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Header and cookie names shared with the API.
const (
	HeaderAPIKey       = "apikey"
	HeaderSessionToken = "X-Session-Token"
	SessionCookie      = "arche_session"
)

const apiPrefix = "/api"

// Status is the state of a query result.
type Status string

const (
	// StatusIdle means a required parameter was missing and no request was made.
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
)

// Result wraps the data of a query.
type Result[T any] struct {
	Status Status
	Data   T
}

// Idle reports whether the query was skipped.
func (r *Result[T]) Idle() bool {
	return r.Status == StatusIdle
}

func idle[T any]() *Result[T] {
	return &Result[T]{Status: StatusIdle}
}

// Client calls the API with one credential tier and one session.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	session    *Session
	cache      *queryCache
	cookies    []*http.Cookie
	staleTime  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSession injects the session the client authenticates with.
func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

// WithClock sets the clock used for staleness windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.cache.now = now }
}

// WithStaleTime sets the window of queries that declare none of their own.
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) { c.staleTime = d }
}

func newClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		cache:      newQueryCache(nil),
		staleTime:  DefaultStaleTime,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = NewSession()
	}
	return c
}

// NewBrowserClient returns a client on the public tier.
func NewBrowserClient(baseURL, anonKey string, opts ...Option) *Client {
	return newClient(baseURL, anonKey, opts...)
}

// NewServiceClient returns a client on the privileged tier. It bypasses
// ownership checks and opens the admin routes, so it never leaves trusted code.
func NewServiceClient(baseURL, serviceKey string, opts ...Option) *Client {
	return newClient(baseURL, serviceKey, opts...)
}

// NewServerClient returns a public-tier client acting for the caller of an
// incoming request: its session cookie is forwarded on every call.
func NewServerClient(baseURL, anonKey string, r *http.Request, opts ...Option) *Client {
	c := newClient(baseURL, anonKey, opts...)
	if r == nil {
		return c
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		c.cookies = append(c.cookies, &http.Cookie{Name: SessionCookie, Value: cookie.Value})
		c.session.adopt(cookie.Value)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Invalidate marks the matching queries stale.
func (c *Client) Invalidate(keys ...Key) {
	c.cache.invalidate(keys...)
}

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

// request is one API call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	accept      string
	fallback    string
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	target := c.baseURL + apiPrefix + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	return req, nil
}

// send performs the call and decodes a 2xx body into out when out is non-nil.
func (c *Client) send(ctx context.Context, r request, out any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return &Error{Kind: KindUnknown, Message: r.fallback, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: r.fallback, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if token := resp.Header.Get(HeaderSessionToken); token != "" {
		c.session.adopt(token)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body errorBody
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = json.Unmarshal(payload, &body)
		message := strings.TrimSpace(body.Error)
		if message == "" {
			message = r.fallback
		}
		return &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Code:    body.Code,
			Message: message,
			Fields:  body.Fields,
			Err:     fmt.Errorf("%s %s: %s", r.method, r.path, resp.Status),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: r.fallback, Err: err}
	}
	return nil
}

// sendJSON encodes in as the request body.
func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any, fallback string) error {
	r := request{method: method, path: path, fallback: fallback}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindUnknown, Message: fallback, Err: err}
		}
		r.body = bytes.NewReader(payload)
		r.contentType = "application/json"
	}
	return c.send(ctx, r, out)
}

// query serves key from the cache while it is fresh, otherwise fetches it
// once for all concurrent callers.
func query[T any](ctx context.Context, c *Client, key Key, ttl time.Duration, r request) (*Result[T], error) {
	return queryAliased[T](ctx, c, key, ttl, r, nil)
}

// queryAliased is query for objects reachable under several keys. aliases
// lists the other keys of a fetched value; invalidating any of them also
// invalidates key.
func queryAliased[T any](ctx context.Context, c *Client, key Key, ttl time.Duration, r request, aliases func(T) []Key) (*Result[T], error) {
	if v, ok := c.cache.fresh(key, ttl); ok {
		return &Result[T]{Status: StatusSuccess, Data: v.(T)}, nil
	}

	v, err, _ := c.cache.group.Do(key.String(), func() (any, error) {
		start := c.cache.begin(key)
		var out T
		r.method = http.MethodGet
		if err := c.send(ctx, r, &out); err != nil {
			c.cache.abandon(key)
			return nil, err
		}
		var extra []Key
		if aliases != nil {
			extra = aliases(out)
		}
		c.cache.commit(key, out, start, extra...)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result[T]{Status: StatusSuccess, Data: v.(T)}, nil
}

// values builds query-string pairs, omitting empty strings and zero numbers.
func values(pairs ...any) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case string:
			if v != "" {
				q.Set(name, v)
			}
		case int:
			if v != 0 {
				q.Set(name, fmt.Sprint(v))
			}
		}
	}
	return q
}
