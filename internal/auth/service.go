package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/observability"
	"arche/internal/repository"
	"arche/internal/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// User-facing messages.
const (
	MsgDuplicateEmail     = "Un compte avec cet email existe déjà"
	MsgProfileCreation    = "Erreur lors de la création du profil"
	MsgAccountCreation    = "Erreur lors de la création du compte"
	MsgBadCredentials     = "Email ou mot de passe incorrect"
	MsgUserNotFound       = "Utilisateur non trouvé"
	MsgOAuthUnavailable   = "Connexion via ce fournisseur indisponible"
	MsgOAuthInvalidState  = "Session de connexion expirée, veuillez réessayer"
	MsgOAuthFailed        = "Erreur d'authentification"
	MsgSignupSuccess      = "Compte créé avec succès"
	usernameCreateRetries = 3
)

// SessionUser is the user snapshot carried in a session.
type SessionUser struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	AvatarURL       string `json:"avatar_url"`
	ReputationScore int    `json:"reputation_score"`
}

// Session is returned on sign-in and by the session endpoint.
type Session struct {
	Token     string      `json:"token,omitempty"`
	ExpiresAt time.Time   `json:"expires"`
	User      SessionUser `json:"user"`
}

// SignUpInput is the signup form payload.
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// SignUpResult describes the created account.
type SignUpResult struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// ServiceConfig wires the auth service.
type ServiceConfig struct {
	Identities repository.IdentityRepository
	Profiles   repository.ProfileRepository
	Tokens     *TokenManager
	Redis      *redis.Client
	// UpdateAge is how old a token gets before it is re-minted.
	UpdateAge time.Duration
	Providers []OAuthProvider
}

// Service implements sign-up, sign-in, OAuth and session resolution.
type Service struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	tokens     *TokenManager
	blacklist  *Blacklist
	states     *StateStore
	providers  map[string]OAuthProvider
	updateAge  time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	providers := make(map[string]OAuthProvider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers[p.Name()] = p
	}
	return &Service{
		identities: cfg.Identities,
		profiles:   cfg.Profiles,
		tokens:     cfg.Tokens,
		blacklist:  NewBlacklist(cfg.Redis),
		states:     NewStateStore(cfg.Redis),
		providers:  providers,
		updateAge:  cfg.UpdateAge,
	}
}

// SignUp creates a password identity and its profile. When the profile
// cannot be created the identity is removed again.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	errs := validation.SignupForm.Validate(validation.Values{
		"email":    in.Email,
		"password": in.Password,
		"fullName": in.FullName,
	})
	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs.Error(), errs.Map())
	}

	if existing, err := s.identities.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, models.NewValidationError(MsgDuplicateEmail)
	} else if err != nil && !repository.IsNotFound(err) {
		return nil, models.NewInternalError(err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	identity := &models.Identity{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		Provider:     models.ProviderCredentials,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewValidationError(MsgDuplicateEmail)
		}
		middleware.Logger.ErrorContext(ctx, "identity creation failed", slog.String("error", err.Error()))
		return nil, models.NewValidationError(MsgAccountCreation)
	}

	profile, err := s.createProfile(ctx, identity.ID, identity.Email, SignupSuffixLen, strings.TrimSpace(in.FullName), "")
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "profile creation failed, removing identity",
			slog.String("identity_id", identity.ID), slog.String("error", err.Error()))
		if delErr := s.identities.Delete(ctx, identity.ID); delErr != nil {
			middleware.Logger.ErrorContext(ctx, "identity rollback failed", slog.String("error", delErr.Error()))
		}
		return nil, models.NewValidationError(MsgProfileCreation)
	}

	return &SignUpResult{ID: identity.ID, Email: identity.Email, Username: profile.Username}, nil
}

// SignIn checks password credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (_ *Session, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "auth", "signin")
	defer func() { observability.EndSpan(span, err) }()

	errs := validation.SignInForm.Validate(validation.Values{"email": email, "password": password})
	if len(errs) > 0 {
		return nil, models.NewValidationError(errs.Error())
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			observability.AuthAttempts.WithLabelValues(models.ProviderCredentials, "rejected").Inc()
			return nil, models.NewUnauthorizedError(MsgBadCredentials)
		}
		return nil, models.NewInternalError(err)
	}
	if !CheckPassword(identity.PasswordHash, password) {
		observability.AuthAttempts.WithLabelValues(models.ProviderCredentials, "rejected").Inc()
		return nil, models.NewUnauthorizedError(MsgBadCredentials)
	}

	profile, err := s.ensureProfile(ctx, identity, "", "")
	if err != nil {
		observability.AuthAttempts.WithLabelValues(models.ProviderCredentials, "error").Inc()
		return nil, models.NewUnauthorizedError(MsgUserNotFound)
	}
	observability.AuthAttempts.WithLabelValues(models.ProviderCredentials, "success").Inc()
	return s.open(profile, identity.Email)
}

// OAuthURL returns the provider's consent URL with a freshly stored state.
func (s *Service) OAuthURL(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", models.NewValidationError(MsgOAuthUnavailable)
	}
	state, err := s.states.Issue(ctx)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return p.AuthCodeURL(state), nil
}

// CompleteOAuth validates state, exchanges the code and signs the user in,
// creating the identity and profile on first use.
func (s *Service) CompleteOAuth(ctx context.Context, provider, code, state string) (*Session, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, models.NewValidationError(MsgOAuthUnavailable)
	}
	if err := s.states.Consume(ctx, state); err != nil {
		observability.AuthAttempts.WithLabelValues(provider, "rejected").Inc()
		return nil, models.NewUnauthorizedError(MsgOAuthInvalidState)
	}

	user, err := p.Exchange(ctx, code)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "oauth exchange failed", slog.String("provider", provider), slog.String("error", err.Error()))
		observability.AuthAttempts.WithLabelValues(provider, "error").Inc()
		return nil, models.NewUnauthorizedError(MsgOAuthFailed)
	}

	identity, err := s.identities.GetByEmail(ctx, user.Email)
	if repository.IsNotFound(err) {
		identity = &models.Identity{ID: uuid.NewString(), Email: user.Email, Provider: provider}
		err = s.identities.Create(ctx, identity)
		if errors.Is(err, repository.ErrDuplicate) {
			identity, err = s.identities.GetByEmail(ctx, user.Email)
		}
	}
	if err != nil {
		observability.AuthAttempts.WithLabelValues(provider, "error").Inc()
		return nil, models.NewInternalError(err)
	}

	profile, err := s.ensureProfile(ctx, identity, user.Name, user.AvatarURL)
	if err != nil {
		observability.AuthAttempts.WithLabelValues(provider, "error").Inc()
		return nil, models.NewUnauthorizedError(MsgUserNotFound)
	}
	observability.AuthAttempts.WithLabelValues(provider, "success").Inc()
	return s.open(profile, identity.Email)
}

// Resolve validates a token, rejects revoked ones and re-mints tokens older
// than the update age with fresh profile fields.
func (s *Service) Resolve(ctx context.Context, token string) (*middleware.ResolvedSession, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "blacklist lookup failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	resolved := &middleware.ResolvedSession{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if s.updateAge <= 0 || s.tokens.now().Sub(claims.IssuedAt.Time) < s.updateAge {
		return resolved, nil
	}

	profile, err := s.profiles.GetByID(ctx, claims.Subject)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		// Keep the current token when the profile cannot be read.
		return resolved, nil
	}
	fresh, freshClaims, err := s.tokens.Mint(profile, claims.Email)
	if err != nil {
		return resolved, nil
	}
	// The superseded token must not outlive a later sign-out.
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		middleware.Logger.WarnContext(ctx, "revoking superseded token failed", slog.String("error", err.Error()))
	}
	resolved.Token = fresh
	resolved.ExpiresAt = freshClaims.ExpiresAt.Time
	return resolved, nil
}

// Snapshot re-reads the profile of userID and returns the merged session user.
func (s *Service) Snapshot(ctx context.Context, userID string) (*SessionUser, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewUnauthorizedError(MsgUserNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	var email string
	if identity, err := s.identities.GetByID(ctx, userID); err == nil {
		email = identity.Email
	}
	u := sessionUser(profile, email)
	return &u, nil
}

// SignOut revokes token until its natural expiry. Invalid tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *Service) open(profile *models.Profile, email string) (*Session, error) {
	token, claims, err := s.tokens.Mint(profile, email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: sessionUser(profile, email)}, nil
}

func (s *Service) ensureProfile(ctx context.Context, identity *models.Identity, fullName, avatarURL string) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, identity.ID)
	if err == nil {
		return profile, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}
	suffix := SignupSuffixLen
	if identity.Provider != models.ProviderCredentials {
		suffix = OAuthSuffixLen
	}
	return s.createProfile(ctx, identity.ID, identity.Email, suffix, fullName, avatarURL)
}

func (s *Service) createProfile(ctx context.Context, id, email string, suffixLen int, fullName, avatarURL string) (*models.Profile, error) {
	var err error
	for attempt := 0; attempt < usernameCreateRetries; attempt++ {
		profile := &models.Profile{
			Base:      models.Base{ID: id},
			Username:  GenerateUsername(email, suffixLen),
			FullName:  fullName,
			AvatarURL: avatarURL,
		}
		if err = s.profiles.Create(ctx, profile); err == nil {
			return profile, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, err
}

func sessionUser(p *models.Profile, email string) SessionUser {
	return SessionUser{
		ID:              p.ID,
		Email:           email,
		Username:        p.Username,
		FullName:        p.FullName,
		AvatarURL:       p.AvatarURL,
		ReputationScore: p.ReputationScore,
	}
}
