package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"arche/internal/models"
	"arche/internal/repository"
)

const maxCommentLength = 2000

type CommentService struct {
	commentRepo repository.CommentRepository
	savoirRepo  repository.SavoirRepository
	activities  *ActivityService
}

type CreateCommentInput struct {
	UserID   string
	SavoirID string
	ParentID *string
	Content  string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	savoirRepo repository.SavoirRepository,
	activities *ActivityService,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		savoirRepo:  savoirRepo,
		activities:  activities,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Le commentaire ne peut pas être vide")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, models.NewValidationError("Le commentaire ne peut pas dépasser 2000 caractères")
	}

	savoir, err := s.savoirRepo.GetByIDOrSlug(ctx, in.SavoirID)
	if err != nil {
		return nil, notFoundOr(err, "Savoir", in.SavoirID)
	}

	parentID := in.ParentID
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, notFoundOr(err, "Commentaire", *parentID)
		}
		if parent.SavoirID != savoir.ID {
			return nil, models.NewValidationError("Le commentaire parent appartient à un autre savoir")
		}
	}

	comment := &models.Comment{
		SavoirID: savoir.ID,
		UserID:   in.UserID,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	invalidateSavoir(ctx, savoir)

	s.activities.Record(ctx, in.UserID, models.ActivityCommentPosted, savoir.ID, models.JSONMap{
		"title":      savoir.Title,
		"slug":       savoir.Slug,
		"comment_id": comment.ID,
	})
	return comment, nil
}

// ListComments returns the top-level comments of a savoir with their replies
// attached. Replies to replies are folded under their top-level ancestor.
func (s *CommentService) ListComments(ctx context.Context, savoirID string) ([]*models.Comment, error) {
	if savoirID == "" {
		return nil, models.NewValidationError("savoir_id requis")
	}
	comments, err := s.commentRepo.ListBySavoir(ctx, savoirID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return BuildCommentTree(comments), nil
}

// BuildCommentTree arranges comments, oldest first, into a two-level tree.
func BuildCommentTree(comments []models.Comment) []*models.Comment {
	byID := make(map[string]*models.Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}

	root := func(c *models.Comment) *models.Comment {
		seen := map[string]bool{}
		for c.ParentID != nil && !seen[c.ID] {
			seen[c.ID] = true
			parent, ok := byID[*c.ParentID]
			if !ok {
				return nil
			}
			c = parent
		}
		return c
	}

	tree := []*models.Comment{}
	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			c.Replies = []*models.Comment{}
			tree = append(tree, c)
		}
	}
	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			continue
		}
		top := root(c)
		if top == nil || top.ParentID != nil {
			// Orphaned reply; surface it at the top level.
			tree = append(tree, c)
			continue
		}
		c.Replies = nil
		top.Replies = append(top.Replies, c)
	}
	return tree
}
