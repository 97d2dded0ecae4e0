// Package auth implements password and Google identities, session tokens
// and their revocation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"arche/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "arche-api"

// ErrInvalidToken is returned for malformed, expired or revoked tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the session payload. Profile fields are cached in the token and
// refreshed when the token is re-minted.
type Claims struct {
	Email           string `json:"email,omitempty"`
	Username        string `json:"username"`
	FullName        string `json:"full_name,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	ReputationScore int    `json:"reputation_score"`
	jwt.RegisteredClaims
}

// TokenManager mints and parses HS256 session tokens.
type TokenManager struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, maxAge time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), maxAge: maxAge, now: time.Now}
}

// Mint issues a token for profile with a fresh jti.
func (m *TokenManager) Mint(profile *models.Profile, email string) (string, *Claims, error) {
	if len(m.secret) == 0 {
		return "", nil, fmt.Errorf("session secret not configured")
	}
	now := m.now()
	claims := &Claims{
		Email:           email,
		Username:        profile.Username,
		FullName:        profile.FullName,
		AvatarURL:       profile.AvatarURL,
		ReputationScore: profile.ReputationScore,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates signature, issuer and expiry.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or id", ErrInvalidToken)
	}
	return claims, nil
}
