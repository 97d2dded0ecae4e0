package service

import (
	"context"

	"arche/internal/models"
	"arche/internal/repository"
)

type ReactionService struct {
	reactionRepo repository.ReactionRepository
	savoirRepo   repository.SavoirRepository
	activities   *ActivityService
}

type AddReactionInput struct {
	UserID   string
	SavoirID string
	Emoji    string
}

func NewReactionService(
	reactionRepo repository.ReactionRepository,
	savoirRepo repository.SavoirRepository,
	activities *ActivityService,
) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		savoirRepo:   savoirRepo,
		activities:   activities,
	}
}

// AddReaction stores one emoji reaction and returns the refreshed summary.
func (s *ReactionService) AddReaction(ctx context.Context, in AddReactionInput) (*models.ReactionSummary, error) {
	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	if !models.IsReactionEmoji(in.Emoji) {
		return nil, models.NewValidationError("Réaction invalide")
	}
	savoir, err := s.savoirRepo.GetByIDOrSlug(ctx, in.SavoirID)
	if err != nil {
		return nil, notFoundOr(err, "Savoir", in.SavoirID)
	}

	if err := s.reactionRepo.Create(ctx, &models.Reaction{
		SavoirID: savoir.ID,
		UserID:   in.UserID,
		Emoji:    in.Emoji,
	}); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.activities.Record(ctx, in.UserID, models.ActivityReactionAdded, savoir.ID, models.JSONMap{
		"title": savoir.Title,
		"slug":  savoir.Slug,
		"emoji": in.Emoji,
	})
	return s.Summary(ctx, savoir.ID, in.UserID)
}

// Summary counts reactions per palette emoji; Mine lists the viewer's own.
func (s *ReactionService) Summary(ctx context.Context, savoirID, viewerID string) (*models.ReactionSummary, error) {
	if savoirID == "" {
		return nil, models.NewValidationError("savoir_id requis")
	}
	summary, err := s.reactionRepo.Summary(ctx, savoirID, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return summary, nil
}
