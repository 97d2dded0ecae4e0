// Package service holds the domain rules between HTTP handlers and repositories.
package service

import (
	"context"
	"log/slog"

	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/repository"
)

// ActivityPublisher fans activities out to live subscribers.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, activity *models.Activity) error
}

type ActivityService struct {
	repo      repository.ActivityRepository
	follows   repository.FollowRepository
	publisher ActivityPublisher
}

// FeedInput selects whose activities to list.
type FeedInput struct {
	ViewerID string
	UserID   string
	Page     int
	Limit    int
}

func NewActivityService(repo repository.ActivityRepository, follows repository.FollowRepository, publisher ActivityPublisher) *ActivityService {
	return &ActivityService{repo: repo, follows: follows, publisher: publisher}
}

// Record stores and publishes an activity. Failures are logged and never
// fail the mutation that triggered them.
func (s *ActivityService) Record(ctx context.Context, userID, activityType, targetID string, metadata models.JSONMap) {
	if s == nil {
		return
	}
	activity := &models.Activity{
		UserID:       userID,
		ActivityType: activityType,
		TargetID:     targetID,
		Metadata:     metadata,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to record activity",
			slog.String("activity_type", activityType), slog.String("error", err.Error()))
		return
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(ctx, activity); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish activity",
			slog.String("activity_id", activity.ID), slog.String("error", err.Error()))
	}
}

// Authors returns the profiles whose activities viewerID follows, including
// their own. An anonymous viewer gets nil, meaning everyone.
func (s *ActivityService) Authors(ctx context.Context, viewerID string) ([]string, error) {
	if viewerID == "" {
		return nil, nil
	}
	ids, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return append([]string{viewerID}, ids...), nil
}

// Feed lists one profile's activities when UserID is set, the viewer's
// network when signed in, and everything otherwise.
func (s *ActivityService) Feed(ctx context.Context, in FeedInput) (*models.Page[models.Activity], error) {
	page, limit := normalizePage(in.Page, in.Limit)

	filter := repository.ActivityFilter{Limit: limit, Offset: (page - 1) * limit}
	switch {
	case in.UserID != "":
		filter.UserIDs = []string{in.UserID}
	default:
		authors, err := s.Authors(ctx, in.ViewerID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		filter.UserIDs = authors
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Page[models.Activity]{Data: nonNil(items), Total: total, Page: page, Limit: limit}, nil
}
