package repository

import (
	"context"

	"arche/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	// Create stores the comment and bumps the savoir's comments_count in one transaction.
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListBySavoir(ctx context.Context, savoirID string) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Savoir{}).
			Where("id = ?", comment.SavoirID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error
	})
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListBySavoir returns every comment of a savoir, oldest first, authors preloaded.
func (r *commentRepository) ListBySavoir(ctx context.Context, savoirID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("savoir_id = ?", savoirID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
