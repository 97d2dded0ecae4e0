package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"arche/internal/validation"
)

// State is the authentication state of a Session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	// StateError means the session could not be determined, e.g. the API was unreachable.
	StateError State = "error"
)

// SessionUser is the profile snapshot carried by a session.
type SessionUser struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	AvatarURL       string `json:"avatar_url"`
	ReputationScore int    `json:"reputation_score"`
}

type sessionPayload struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires"`
	User      *SessionUser `json:"user"`
}

// Session holds the authentication state of one user. It is safe for
// concurrent use.
type Session struct {
	mu          sync.RWMutex
	state       State
	token       string
	expiresAt   time.Time
	user        *SessionUser
	lastError   string
	callbackURL string
}

// NewSession returns an unauthenticated session.
func NewSession() *Session {
	return &Session{state: StateUnauthenticated, callbackURL: "/"}
}

// NewSessionWithToken resumes a session from a stored token. The state stays
// unauthenticated until Refresh confirms it.
func NewSessionWithToken(token string) *Session {
	s := NewSession()
	s.token = token
	return s
}

// SetCallbackURL sets where a successful sign-in redirects.
func (s *Session) SetCallbackURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u != "" {
		s.callbackURL = u
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *SessionUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Err returns the message of the last failed transition.
func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticating
	s.lastError = ""
}

func (s *Session) authenticate(p sessionPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	if p.Token != "" {
		s.token = p.Token
	}
	if !p.ExpiresAt.IsZero() {
		s.expiresAt = p.ExpiresAt
	}
	s.user = p.User
	s.lastError = ""
}

func (s *Session) clear(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.token = ""
	s.expiresAt = time.Time{}
	s.user = nil
	s.lastError = message
}

func (s *Session) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateError
	s.lastError = message
}

// adopt replaces the token with one re-minted by the API.
func (s *Session) adopt(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *Session) redirect() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callbackURL
}

// SignUpInput is the account creation form.
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// SignUpResult describes the created account.
type SignUpResult struct {
	Message string `json:"message"`
	User    struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	} `json:"user"`
}

// SignUp creates an account. The form is checked before any request is made.
func (c *Client) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	if errs := validation.SignupForm.Validate(validation.Values{
		"email": in.Email, "password": in.Password, "fullName": in.FullName,
	}); len(errs) > 0 {
		return nil, &Error{Kind: KindValidation, Message: errs.Error(), Fields: errs.Map()}
	}
	var out SignUpResult
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/signup", in, &out, "Erreur lors de l'inscription"); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn authenticates with credentials and returns the redirect target. On
// failure the session stays unauthenticated and keeps the API's message.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	c.session.begin()
	if errs := validation.SignInForm.Validate(validation.Values{"email": email, "password": password}); len(errs) > 0 {
		c.session.clear(errs.Error())
		return "", &Error{Kind: KindValidation, Message: errs.Error(), Fields: errs.Map()}
	}

	var out sessionPayload
	err := c.sendJSON(ctx, http.MethodPost, "/auth/signin",
		map[string]string{"email": email, "password": password}, &out, "Erreur d'authentification")
	if err != nil {
		c.session.clear(err.Error())
		return "", err
	}
	c.session.authenticate(out)
	c.cache.reset()
	return c.session.redirect(), nil
}

// OAuthURL returns the address that starts an OAuth sign-in with provider.
func (c *Client) OAuthURL(provider string) string {
	return c.baseURL + apiPrefix + "/auth/oauth/" + url.PathEscape(provider)
}

// CompleteOAuth exchanges the code and state returned to the callback.
func (c *Client) CompleteOAuth(ctx context.Context, provider, code, state string) (string, error) {
	c.session.begin()
	var out sessionPayload
	err := c.send(ctx, request{
		method:   http.MethodGet,
		path:     "/auth/callback/" + url.PathEscape(provider),
		query:    values("code", code, "state", state),
		accept:   "application/json",
		fallback: "Erreur d'authentification",
	}, &out)
	if err != nil {
		c.session.clear(err.Error())
		return "", err
	}
	c.session.authenticate(out)
	c.cache.reset()
	return c.session.redirect(), nil
}

// Refresh re-reads the session from the API.
func (c *Client) Refresh(ctx context.Context) error {
	if c.session.Token() == "" && len(c.cookies) == 0 {
		c.session.clear("")
		return nil
	}
	var out sessionPayload
	err := c.send(ctx, request{method: http.MethodGet, path: "/auth/session", fallback: "Session indisponible"}, &out)
	switch {
	case IsKind(err, KindAuth):
		c.session.clear("")
		return nil
	case err != nil:
		c.session.fail(err.Error())
		return err
	case out.User == nil:
		c.session.clear("")
		return nil
	}
	c.session.authenticate(out)
	return nil
}

// SignOut revokes the session. Local state is cleared even when the call fails.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.session.Token() != "" || len(c.cookies) > 0 {
		err = c.send(ctx, request{method: http.MethodPost, path: "/auth/signout", fallback: "Erreur lors de la déconnexion"}, nil)
	}
	c.session.clear("")
	c.cookies = nil
	c.cache.reset()
	return err
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
