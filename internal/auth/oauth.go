package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"arche/internal/cache"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// ErrInvalidState is returned when an OAuth callback carries an unknown or
// already-consumed state.
var ErrInvalidState = errors.New("invalid oauth state")

// OAuthUser is the identity returned by a provider.
type OAuthUser struct {
	Email     string
	Name      string
	AvatarURL string
}

// OAuthProvider is a third-party sign-in provider.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*OAuthUser, error)
}

// GoogleProvider signs users in with Google.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider builds the provider; redirectURL is the public callback URL.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleProvider) Name() string { return "google" }

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and reads the userinfo endpoint.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*OAuthUser, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, errors.New("google account has no verified email")
	}
	return &OAuthUser{Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, nil
}

// StateStore keeps OAuth state values in Redis for a single use.
type StateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStateStore(rdb *redis.Client) *StateStore {
	return &StateStore{rdb: rdb, ttl: cache.OAuthStateTTL}
}

// Issue creates and stores a random state.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(buf)
	if s.rdb == nil {
		return "", errors.New("oauth state store requires redis")
	}
	if err := s.rdb.Set(ctx, cache.OAuthStateKey(state), "1", s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// Consume deletes state and fails if it was not outstanding.
func (s *StateStore) Consume(ctx context.Context, state string) error {
	if s.rdb == nil || state == "" {
		return ErrInvalidState
	}
	n, err := s.rdb.Del(ctx, cache.OAuthStateKey(state)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}
