package service

import (
	"context"
	"strconv"

	"arche/internal/models"
	"arche/internal/observability"
	"arche/internal/repository"
)

type VoteService struct {
	voteRepo   repository.VoteRepository
	savoirRepo repository.SavoirRepository
	activities *ActivityService
	reputation *ReputationService
}

type CastVoteInput struct {
	UserID   string
	SavoirID string
	VoteType int
}

func NewVoteService(
	voteRepo repository.VoteRepository,
	savoirRepo repository.SavoirRepository,
	activities *ActivityService,
	reputation *ReputationService,
) *VoteService {
	return &VoteService{
		voteRepo:   voteRepo,
		savoirRepo: savoirRepo,
		activities: activities,
		reputation: reputation,
	}
}

// CastVote records an explicit +1 or -1. Casting the same value again
// leaves the aggregates unchanged.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (result *models.VoteResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "votes", "cast")
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	if in.SavoirID == "" {
		return nil, models.NewValidationError("savoir_id requis")
	}
	if in.VoteType != models.VoteUp && in.VoteType != models.VoteDown {
		return nil, models.NewValidationError("Type de vote invalide")
	}

	savoir, err := s.savoirRepo.GetByIDOrSlug(ctx, in.SavoirID)
	if err != nil {
		return nil, notFoundOr(err, "Savoir", in.SavoirID)
	}

	result, err = s.voteRepo.Cast(ctx, savoir.ID, in.UserID, in.VoteType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	invalidateSavoir(ctx, savoir)

	direction := "up"
	if in.VoteType == models.VoteDown {
		direction = "down"
	}
	observability.VotesCast.WithLabelValues(direction).Inc()

	s.reputation.refresh(ctx, savoir.ContributorID, in.UserID)
	s.activities.Record(ctx, in.UserID, models.ActivityVoteCast, savoir.ID, models.JSONMap{
		"title":     savoir.Title,
		"slug":      savoir.Slug,
		"vote_type": strconv.Itoa(in.VoteType),
	})
	return result, nil
}

// GetUserVote returns the caller's vote direction, or nil when they have not voted.
func (s *VoteService) GetUserVote(ctx context.Context, savoirID, userID string) (*int, error) {
	if savoirID == "" {
		return nil, models.NewValidationError("savoir_id requis")
	}
	if userID == "" {
		return nil, nil
	}
	vote, err := s.voteRepo.Get(ctx, savoirID, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if vote == nil {
		return nil, nil
	}
	v := vote.VoteType
	return &v, nil
}
