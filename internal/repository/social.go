package repository

import (
	"context"

	"arche/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository defines the interface for favorite data operations
type FavoriteRepository interface {
	// Toggle flips the favorite and reports the resulting state.
	Toggle(ctx context.Context, savoirID, userID string) (bool, error)
	Exists(ctx context.Context, savoirID, userID string) (bool, error)
	ListSavoirs(ctx context.Context, userID string, limit, offset int) ([]models.Savoir, int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Toggle(ctx context.Context, savoirID, userID string) (bool, error) {
	var now bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("savoir_id = ? AND user_id = ?", savoirID, userID).Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			now = false
			return nil
		}
		now = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Favorite{SavoirID: savoirID, UserID: userID}).Error
	})
	return now, err
}

func (r *favoriteRepository) Exists(ctx context.Context, savoirID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("savoir_id = ? AND user_id = ?", savoirID, userID).
		Count(&n).Error
	return n > 0, err
}

// ListSavoirs returns the user's favorited savoirs, most recently favorited first.
func (r *favoriteRepository) ListSavoirs(ctx context.Context, userID string, limit, offset int) ([]models.Savoir, int64, error) {
	limit, offset = clampPage(limit, offset)
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var favorites []models.Favorite
	err := r.db.WithContext(ctx).
		Preload("Savoir").
		Preload("Savoir.Contributor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&favorites).Error
	if err != nil {
		return nil, 0, err
	}

	savoirs := make([]models.Savoir, 0, len(favorites))
	for _, f := range favorites {
		if f.Savoir != nil {
			savoirs = append(savoirs, *f.Savoir)
		}
	}
	return savoirs, total, nil
}

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followingID string) (bool, error)
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	List(ctx context.Context, userID, direction string, limit, offset int) ([]models.Profile, int64, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followingID string) (bool, error) {
	var now bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			now = false
			return nil
		}
		now = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error
	})
	return now, err
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error
	return n > 0, err
}

// List returns the followers of userID, or the profiles userID follows.
func (r *followRepository) List(ctx context.Context, userID, direction string, limit, offset int) ([]models.Profile, int64, error) {
	limit, offset = clampPage(limit, offset)
	match, other := "following_id", "follower_id"
	if direction == models.DirectionFollowing {
		match, other = "follower_id", "following_id"
	}

	edges := r.db.WithContext(ctx).Model(&models.Follow{}).Where(match+" = ?", userID)
	var total int64
	if err := edges.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows."+other+" = profiles.id").
		Where("follows."+match+" = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	return profiles, total, err
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}
