package repository

import (
	"context"

	"arche/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	Create(ctx context.Context, reaction *models.Reaction) error
	Summary(ctx context.Context, savoirID, userID string) (*models.ReactionSummary, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Create(ctx context.Context, reaction *models.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

// Summary counts reactions per palette emoji, in palette order, and lists the
// distinct emojis userID has left. An empty userID yields an empty Mine.
func (r *reactionRepository) Summary(ctx context.Context, savoirID, userID string) (*models.ReactionSummary, error) {
	var rows []struct {
		Emoji string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("emoji, COUNT(*) AS count").
		Where("savoir_id = ?", savoirID).
		Group("emoji").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	byEmoji := make(map[string]int64, len(rows))
	for _, row := range rows {
		byEmoji[row.Emoji] = row.Count
	}

	summary := &models.ReactionSummary{
		SavoirID: savoirID,
		Counts:   make([]models.ReactionCount, 0, len(models.ReactionOptions)),
		Mine:     []string{},
	}
	for _, o := range models.ReactionOptions {
		summary.Counts = append(summary.Counts, models.ReactionCount{Emoji: o.Emoji, Label: o.Label, Count: byEmoji[o.Emoji]})
	}

	if userID != "" {
		err := r.db.WithContext(ctx).Model(&models.Reaction{}).
			Distinct("emoji").
			Where("savoir_id = ? AND user_id = ?", savoirID, userID).
			Pluck("emoji", &summary.Mine).Error
		if err != nil {
			return nil, err
		}
	}
	return summary, nil
}
