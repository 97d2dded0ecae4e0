package repository

import (
	"context"

	"arche/internal/models"

	"gorm.io/gorm"
)

// ActivityFilter narrows the feed to a set of authors; empty means everyone.
type ActivityFilter struct {
	UserIDs []string
	Limit   int
	Offset  int
}

// ActivityRepository defines the interface for activity data operations
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(activity).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("User").First(activity, "id = ?", activity.ID).Error
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)
	q := r.db.WithContext(ctx).Model(&models.Activity{})
	if len(filter.UserIDs) > 0 {
		q = q.Where("user_id IN ?", filter.UserIDs)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []models.Activity
	err := q.Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&activities).Error
	return activities, total, err
}
