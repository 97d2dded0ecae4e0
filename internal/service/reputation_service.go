package service

import (
	"context"
	"log/slog"

	"arche/internal/gamification"
	"arche/internal/middleware"
	"arche/internal/repository"
)

// ReputationService recomputes a profile's reputation score and badges from
// its persisted contribution statistics.
type ReputationService struct {
	profiles repository.ProfileRepository
	catalog  *gamification.Catalog
}

func NewReputationService(profiles repository.ProfileRepository, catalog *gamification.Catalog) *ReputationService {
	if catalog == nil {
		catalog = gamification.Default
	}
	return &ReputationService{profiles: profiles, catalog: catalog}
}

// Catalog returns the badge catalog in use.
func (s *ReputationService) Catalog() *gamification.Catalog {
	return s.catalog
}

// Recompute refreshes profileID's score and badges.
func (s *ReputationService) Recompute(ctx context.Context, profileID string) error {
	stats, err := s.profiles.ContributionStats(ctx, profileID, s.catalog.Reputation.WellRatedApproval)
	if err != nil {
		return err
	}
	score := s.catalog.Score(stats)
	return s.profiles.UpdateReputation(ctx, profileID, score, s.catalog.Evaluate(stats, score))
}

// refresh recomputes each profile and logs failures.
func (s *ReputationService) refresh(ctx context.Context, profileIDs ...string) {
	if s == nil {
		return
	}
	seen := make(map[string]bool, len(profileIDs))
	for _, id := range profileIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if err := s.Recompute(ctx, id); err != nil {
			middleware.Logger.ErrorContext(ctx, "failed to recompute reputation",
				slog.String("profile_id", id), slog.String("error", err.Error()))
		}
	}
}
