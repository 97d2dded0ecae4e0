package service

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"arche/internal/cache"
	"arche/internal/gamification"
	"arche/internal/models"
	"arche/internal/repository"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
	catalog     *gamification.Catalog
}

type UpdateProfileInput struct {
	UserID string
	Patch  models.ProfileUpdate
}

func NewProfileService(profileRepo repository.ProfileRepository, catalog *gamification.Catalog) *ProfileService {
	if catalog == nil {
		catalog = gamification.Default
	}
	return &ProfileService{profileRepo: profileRepo, catalog: catalog}
}

func (s *ProfileService) withStats(ctx context.Context, profile *models.Profile) (*models.ProfileWithStats, error) {
	stats, err := s.profileRepo.Stats(ctx, profile.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.ProfileWithStats{
		Profile: *profile,
		Stats:   stats,
		Tier:    s.catalog.TierFor(profile.ReputationScore).Name,
	}, nil
}

// GetProfile returns a public profile with its counters and tier.
func (s *ProfileService) GetProfile(ctx context.Context, username string) (*models.ProfileWithStats, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.NewValidationError("Nom d'utilisateur requis")
	}
	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "Profil", username)
	}
	return s.withStats(ctx, profile)
}

// Me returns the caller's own profile.
func (s *ProfileService) Me(ctx context.Context, userID string) (*models.ProfileWithStats, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "Profil", userID)
	}
	return s.withStats(ctx, profile)
}

func validateProfileUpdate(p models.ProfileUpdate) error {
	fields := map[string]string{}
	if p.FullName != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*p.FullName)); n < 2 || n > 120 {
			fields["full_name"] = "Le nom complet doit contenir entre 2 et 120 caractères"
		}
	}
	if p.Bio != nil && utf8.RuneCountInString(*p.Bio) > 500 {
		fields["bio"] = "La bio ne peut pas dépasser 500 caractères"
	}
	if p.Region != nil && utf8.RuneCountInString(*p.Region) > 120 {
		fields["region"] = "Maximum 120 caractères"
	}
	if p.Website != nil && strings.TrimSpace(*p.Website) != "" && !isWebURL(*p.Website) {
		fields["website"] = "URL de site web invalide"
	}
	if p.AvatarURL != nil && strings.TrimSpace(*p.AvatarURL) != "" &&
		!isWebURL(*p.AvatarURL) && !strings.HasPrefix(*p.AvatarURL, MediaURLPrefix) {
		fields["avatar_url"] = "URL d'avatar invalide"
	}
	if len(fields) == 0 {
		return nil
	}
	for _, name := range []string{"full_name", "bio", "region", "website", "avatar_url"} {
		if msg, ok := fields[name]; ok {
			return models.NewFieldValidationError(msg, fields)
		}
	}
	return nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	if err := validateProfileUpdate(in.Patch); err != nil {
		return nil, err
	}
	patch := models.ProfileUpdate{
		FullName:  trimPtr(in.Patch.FullName),
		Bio:       trimPtr(in.Patch.Bio),
		AvatarURL: trimPtr(in.Patch.AvatarURL),
		Region:    trimPtr(in.Patch.Region),
		Website:   trimPtr(in.Patch.Website),
	}
	profile, err := s.profileRepo.Update(ctx, in.UserID, patch)
	if err != nil {
		return nil, notFoundOr(err, "Profil", in.UserID)
	}
	cache.InvalidateProfile(ctx, profile.Username)
	return profile, nil
}

// Leaderboard ranks profiles by reputation.
func (s *ProfileService) Leaderboard(ctx context.Context, page, limit int) (*models.Page[models.Profile], error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.profileRepo.Leaderboard(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Page[models.Profile]{Data: nonNil(items), Total: total, Page: page, Limit: limit}, nil
}

// Badges returns the catalog served by the gamification endpoint.
func (s *ProfileService) Badges() *gamification.Catalog {
	return s.catalog
}
