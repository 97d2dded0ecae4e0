package repository

import (
	"context"

	"arche/internal/cache"
	"arche/internal/gamification"
	"arche/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, id string, patch models.ProfileUpdate) (*models.Profile, error)
	UpdateReputation(ctx context.Context, id string, score int, badges []string) error
	Stats(ctx context.Context, id string) (models.ProfileStats, error)
	ContributionStats(ctx context.Context, id string, wellRatedApproval int) (gamification.Stats, error)
	Leaderboard(ctx context.Context, limit, offset int) ([]models.Profile, int64, error)
	Delete(ctx context.Context, id string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(username), &p, cache.ProfileTTL, func() error {
		return r.db.WithContext(ctx).First(&p, "username = ?", username).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

func (r *profileRepository) Update(ctx context.Context, id string, patch models.ProfileUpdate) (*models.Profile, error) {
	updates := map[string]interface{}{}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.Bio != nil {
		updates["bio"] = *patch.Bio
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = *patch.AvatarURL
	}
	if patch.Region != nil {
		updates["region"] = *patch.Region
	}
	if patch.Website != nil {
		updates["website"] = *patch.Website
	}

	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
			return nil, err
		}
		cache.InvalidateProfile(ctx, p.Username)
	}
	return r.GetByID(ctx, id)
}

func (r *profileRepository) UpdateReputation(ctx context.Context, id string, score int, badges []string) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Model(p).Updates(map[string]interface{}{
		"reputation_score": score,
		"badges":           models.StringList(badges),
	}).Error
	if err != nil {
		return err
	}
	cache.InvalidateProfile(ctx, p.Username)
	return nil
}

// Stats uses the schema's counting functions on PostgreSQL and equivalent queries elsewhere.
func (r *profileRepository) Stats(ctx context.Context, id string) (models.ProfileStats, error) {
	var stats models.ProfileStats
	db := r.db.WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		err := db.Raw(`SELECT get_followers_count(?) AS followers_count,
			get_following_count(?) AS following_count,
			get_user_savoirs_count(?) AS savoirs_count,
			get_user_total_votes(?) AS total_votes`, id, id, id, id).Scan(&stats).Error
		return stats, err
	}

	if err := db.Model(&models.Follow{}).Where("following_id = ?", id).Count(&stats.FollowersCount).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", id).Count(&stats.FollowingCount).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Savoir{}).Where("contributor_id = ? AND published = ?", id, true).Count(&stats.SavoirsCount).Error; err != nil {
		return stats, err
	}
	err := db.Raw(`SELECT COALESCE(SUM(v.vote_type), 0) FROM votes v
		JOIN savoirs s ON s.id = v.savoir_id WHERE s.contributor_id = ?`, id).Scan(&stats.TotalVotes).Error
	return stats, err
}

func (r *profileRepository) ContributionStats(ctx context.Context, id string, wellRatedApproval int) (gamification.Stats, error) {
	var s gamification.Stats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Savoir{}).Where("contributor_id = ? AND published = ?", id, true).Count(&s.PublishedSavoirs).Error; err != nil {
		return s, err
	}
	if err := db.Model(&models.Savoir{}).
		Where("contributor_id = ? AND published = ? AND approval_rate >= ?", id, true, wellRatedApproval).
		Count(&s.WellRatedSavoirs).Error; err != nil {
		return s, err
	}

	var received struct {
		Up   int64
		Down int64
	}
	err := db.Raw(`SELECT
			COALESCE(SUM(CASE WHEN v.vote_type > 0 THEN 1 ELSE 0 END), 0) AS up,
			COALESCE(SUM(CASE WHEN v.vote_type < 0 THEN 1 ELSE 0 END), 0) AS down
		FROM votes v JOIN savoirs s ON s.id = v.savoir_id
		WHERE s.contributor_id = ?`, id).Scan(&received).Error
	if err != nil {
		return s, err
	}
	s.UpvotesReceived = received.Up
	s.DownvotesReceived = received.Down
	s.VotesReceived = received.Up + received.Down

	err = db.Model(&models.Vote{}).Where("user_id = ?", id).Count(&s.VotesCast).Error
	return s, err
}

func (r *profileRepository) Leaderboard(ctx context.Context, limit, offset int) ([]models.Profile, int64, error) {
	limit, offset = clampPage(limit, offset)
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Order("reputation_score DESC").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	return profiles, total, err
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Profile{}, "id = ?", id).Error
}
