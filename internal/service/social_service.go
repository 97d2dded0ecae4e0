package service

import (
	"context"
	"strconv"

	"arche/internal/cache"
	"arche/internal/models"
	"arche/internal/observability"
	"arche/internal/repository"
)

type SocialService struct {
	favoriteRepo repository.FavoriteRepository
	followRepo   repository.FollowRepository
	savoirRepo   repository.SavoirRepository
	profileRepo  repository.ProfileRepository
	activities   *ActivityService
}

type ListFollowsInput struct {
	UserID    string
	Direction string
	Page      int
	Limit     int
}

func NewSocialService(
	favoriteRepo repository.FavoriteRepository,
	followRepo repository.FollowRepository,
	savoirRepo repository.SavoirRepository,
	profileRepo repository.ProfileRepository,
	activities *ActivityService,
) *SocialService {
	return &SocialService{
		favoriteRepo: favoriteRepo,
		followRepo:   followRepo,
		savoirRepo:   savoirRepo,
		profileRepo:  profileRepo,
		activities:   activities,
	}
}

func toggleState(on bool) string {
	return strconv.FormatBool(on)
}

// ToggleFavorite flips the bookmark and returns the resulting state.
func (s *SocialService) ToggleFavorite(ctx context.Context, userID, savoirID string) (bool, error) {
	if userID == "" {
		return false, models.NewUnauthorizedError("Authentification requise")
	}
	savoir, err := s.savoirRepo.GetByIDOrSlug(ctx, savoirID)
	if err != nil {
		return false, notFoundOr(err, "Savoir", savoirID)
	}
	on, err := s.favoriteRepo.Toggle(ctx, savoir.ID, userID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	observability.Toggles.WithLabelValues("favorite", toggleState(on)).Inc()
	if on {
		s.activities.Record(ctx, userID, models.ActivityFavoriteAdded, savoir.ID, models.JSONMap{
			"title": savoir.Title,
			"slug":  savoir.Slug,
		})
	}
	return on, nil
}

func (s *SocialService) IsFavorite(ctx context.Context, userID, savoirID string) (bool, error) {
	if savoirID == "" {
		return false, models.NewValidationError("savoir_id requis")
	}
	if userID == "" {
		return false, nil
	}
	ok, err := s.favoriteRepo.Exists(ctx, savoirID, userID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return ok, nil
}

func (s *SocialService) ListFavorites(ctx context.Context, userID string, page, limit int) (*models.Page[models.Savoir], error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	page, limit = normalizePage(page, limit)
	items, total, err := s.favoriteRepo.ListSavoirs(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Page[models.Savoir]{Data: nonNil(items), Total: total, Page: page, Limit: limit}, nil
}

// ToggleFollow flips followerID's follow on followingID and returns the resulting state.
func (s *SocialService) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == "" {
		return false, models.NewUnauthorizedError("Authentification requise")
	}
	if followingID == "" {
		return false, models.NewValidationError("user_id requis")
	}
	if followerID == followingID {
		return false, models.NewValidationError("Vous ne pouvez pas vous suivre vous-même")
	}
	target, err := s.profileRepo.GetByID(ctx, followingID)
	if err != nil {
		return false, notFoundOr(err, "Profil", followingID)
	}

	on, err := s.followRepo.Toggle(ctx, followerID, followingID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	observability.Toggles.WithLabelValues("follow", toggleState(on)).Inc()
	cache.InvalidateProfile(ctx, target.Username)

	if on {
		s.activities.Record(ctx, followerID, models.ActivityFollowStarted, target.ID, models.JSONMap{
			"username": target.Username,
		})
	}
	return on, nil
}

func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	if followingID == "" {
		return false, models.NewValidationError("user_id requis")
	}
	if followerID == "" {
		return false, nil
	}
	ok, err := s.followRepo.Exists(ctx, followerID, followingID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return ok, nil
}

func (s *SocialService) ListFollows(ctx context.Context, in ListFollowsInput) (*models.Page[models.Profile], error) {
	if in.UserID == "" {
		return nil, models.NewValidationError("user_id requis")
	}
	direction := in.Direction
	if direction == "" {
		direction = models.DirectionFollowers
	}
	if direction != models.DirectionFollowers && direction != models.DirectionFollowing {
		return nil, models.NewValidationError("direction doit valoir followers ou following")
	}
	page, limit := normalizePage(in.Page, in.Limit)
	items, total, err := s.followRepo.List(ctx, in.UserID, direction, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Page[models.Profile]{Data: nonNil(items), Total: total, Page: page, Limit: limit}, nil
}
