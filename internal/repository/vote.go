package repository

import (
	"context"
	"time"

	"arche/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository defines the interface for vote data operations
type VoteRepository interface {
	// Cast upserts the caller's vote and refreshes the savoir's aggregates atomically.
	Cast(ctx context.Context, savoirID, userID string, voteType int) (*models.VoteResult, error)
	Get(ctx context.Context, savoirID, userID string) (*models.Vote, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Cast(ctx context.Context, savoirID, userID string, voteType int) (*models.VoteResult, error) {
	result := &models.VoteResult{SavoirID: savoirID, Vote: voteType}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vote := models.Vote{SavoirID: savoirID, UserID: userID, VoteType: voteType}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "savoir_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"vote_type":  voteType,
				"updated_at": time.Now(),
			}),
		}).Create(&vote).Error
		if err != nil {
			return err
		}

		tally, err := tallyVotes(tx, savoirID)
		if err != nil {
			return err
		}
		result.VotesCount = tally.Net()
		result.ApprovalRate = tally.ApprovalRate()

		return tx.Model(&models.Savoir{}).Where("id = ?", savoirID).UpdateColumns(map[string]interface{}{
			"votes_count":   result.VotesCount,
			"approval_rate": result.ApprovalRate,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the caller's vote, or nil when they have not voted.
func (r *voteRepository) Get(ctx context.Context, savoirID, userID string) (*models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("savoir_id = ? AND user_id = ?", savoirID, userID).
		Limit(1).
		Find(&votes).Error
	if err != nil || len(votes) == 0 {
		return nil, err
	}
	return &votes[0], nil
}

func tallyVotes(tx *gorm.DB, savoirID string) (models.VoteTally, error) {
	var t models.VoteTally
	err := tx.Raw(`SELECT
			COALESCE(SUM(CASE WHEN vote_type > 0 THEN 1 ELSE 0 END), 0) AS up,
			COALESCE(SUM(CASE WHEN vote_type < 0 THEN 1 ELSE 0 END), 0) AS down
		FROM votes WHERE savoir_id = ?`, savoirID).Scan(&t).Error
	return t, err
}
