package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"arche/internal/cache"
	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/observability"
	"arche/internal/repository"
	"arche/internal/validation"

	"github.com/google/uuid"
)

const (
	maxImagesPerSavoir = 10
	slugAttempts       = 5
)

type SavoirService struct {
	savoirRepo repository.SavoirRepository
	activities *ActivityService
	reputation *ReputationService
}

// SavoirInput is the add-savoir form payload.
type SavoirInput struct {
	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Era       string   `json:"era"`
	Region    string   `json:"region"`
	Tags      []string `json:"tags"`
	Images    []string `json:"images"`
	Published *bool    `json:"published"`
}

type CreateSavoirInput struct {
	UserID string
	SavoirInput
}

type GetSavoirInput struct {
	Key        string
	ViewerID   string
	Privileged bool
}

type ListSavoirsInput struct {
	Category    string
	Era         string
	Region      string
	Search      string
	Sort        string
	Page        int
	Limit       int
	ViewerID    string
	Contributor string
	Privileged  bool
}

type UpdateSavoirInput struct {
	Key        string
	UserID     string
	Privileged bool
	Patch      models.SavoirPatch
}

type DeleteSavoirInput struct {
	Key        string
	UserID     string
	Privileged bool
}

func NewSavoirService(savoirRepo repository.SavoirRepository, activities *ActivityService, reputation *ReputationService) *SavoirService {
	return &SavoirService{savoirRepo: savoirRepo, activities: activities, reputation: reputation}
}

// Values renders the input the way the form submits it.
func (in SavoirInput) Values() validation.Values {
	published := "true"
	if in.Published != nil {
		published = strconv.FormatBool(*in.Published)
	}
	return validation.Values{
		"title":     in.Title,
		"excerpt":   in.Excerpt,
		"content":   in.Content,
		"category":  in.Category,
		"era":       in.Era,
		"region":    in.Region,
		"tags":      strings.Join(in.Tags, ","),
		"images":    strings.Join(in.Images, ","),
		"published": published,
	}
}

func validateSavoir(in SavoirInput) error {
	if errs := validation.SavoirForm.Validate(in.Values()); len(errs) > 0 {
		return models.NewFieldValidationError(errs.Error(), errs.Map())
	}
	if len(in.Images) > maxImagesPerSavoir {
		return models.NewFieldValidationError("Maximum 10 images", map[string]string{"images": "Maximum 10 images"})
	}
	return nil
}

func cleanTags(tags []string) models.StringList {
	return models.StringList(validation.ParseTags(strings.Join(tags, ",")))
}

func (s *SavoirService) CreateSavoir(ctx context.Context, in CreateSavoirInput) (*models.Savoir, error) {
	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentification requise")
	}
	if err := validateSavoir(in.SavoirInput); err != nil {
		return nil, err
	}

	savoir := &models.Savoir{
		Title:         strings.TrimSpace(in.Title),
		Excerpt:       strings.TrimSpace(in.Excerpt),
		Content:       strings.TrimSpace(in.Content),
		Category:      in.Category,
		Era:           in.Era,
		Region:        strings.TrimSpace(in.Region),
		Tags:          cleanTags(in.Tags),
		Images:        models.StringList(in.Images),
		ContributorID: in.UserID,
		Published:     in.Published == nil || *in.Published,
	}

	base := validation.Slugify(savoir.Title)
	if base == "" {
		base = "savoir"
	}
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		savoir.ID = ""
		savoir.Slug = base
		if attempt > 0 {
			savoir.Slug = base + "-" + uuid.NewString()[:6]
		} else if exists, existsErr := s.savoirRepo.SlugExists(ctx, base); existsErr == nil && exists {
			continue
		}
		err = s.savoirRepo.Create(ctx, savoir)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Un savoir avec ce titre existe déjà", err)
		}
		return nil, models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "savoir created",
		slog.String("savoir_id", savoir.ID), slog.String("slug", savoir.Slug))

	if savoir.Published {
		s.activities.Record(ctx, in.UserID, models.ActivitySavoirPublished, savoir.ID, models.JSONMap{
			"title": savoir.Title,
			"slug":  savoir.Slug,
		})
	}
	s.reputation.refresh(ctx, in.UserID)
	return savoir, nil
}

// GetSavoir resolves by id or slug and counts the view. Drafts are only
// visible to their owner and to the service tier.
func (s *SavoirService) GetSavoir(ctx context.Context, in GetSavoirInput) (*models.Savoir, error) {
	savoir, err := s.savoirRepo.GetByIDOrSlug(ctx, in.Key)
	if err != nil {
		return nil, notFoundOr(err, "Savoir", in.Key)
	}
	if !savoir.Published && savoir.ContributorID != in.ViewerID && !in.Privileged {
		return nil, models.NewNotFoundError("Savoir", in.Key)
	}

	if err := s.savoirRepo.IncrementViews(ctx, savoir.ID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to increment views",
			slog.String("savoir_id", savoir.ID), slog.String("error", err.Error()))
	} else {
		savoir.ViewsCount++
	}
	return savoir, nil
}

func (s *SavoirService) ListSavoirs(ctx context.Context, in ListSavoirsInput) (*models.Page[models.Savoir], error) {
	page, limit := normalizePage(in.Page, in.Limit)

	sort := in.Sort
	switch sort {
	case models.SortRecent, models.SortVotes, models.SortTrending:
	default:
		sort = models.SortRecent
	}

	filter := models.SavoirFilter{
		Category:      in.Category,
		Era:           in.Era,
		Region:        in.Region,
		Search:        strings.TrimSpace(in.Search),
		Sort:          sort,
		ContributorID: in.Contributor,
		Limit:         limit,
		Offset:        (page - 1) * limit,
	}
	// Owners see their own drafts in their listing.
	if in.Contributor != "" && (in.Contributor == in.ViewerID || in.Privileged) {
		filter.IncludeDrafts = true
	}

	items, total, err := s.savoirRepo.List(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Page[models.Savoir]{Data: nonNil(items), Total: total, Page: page, Limit: limit}, nil
}

// Search is a listing by free text. A blank query matches nothing.
func (s *SavoirService) Search(ctx context.Context, query string, limit int) (_ *models.Page[models.Savoir], err error) {
	ctx, span := observability.StartServiceSpan(ctx, "savoirs", "search")
	defer func() { observability.EndSpan(span, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return &models.Page[models.Savoir]{Data: []models.Savoir{}}, nil
	}
	res, err := s.ListSavoirs(ctx, ListSavoirsInput{Search: query, Limit: limit, Sort: models.SortVotes})
	if err != nil {
		return nil, err
	}
	res.Page, res.Limit = 0, 0
	return res, nil
}

func (s *SavoirService) ownedSavoir(ctx context.Context, key, userID string, privileged bool) (*models.Savoir, error) {
	savoir, err := s.savoirRepo.GetByIDOrSlug(ctx, key)
	if err != nil {
		return nil, notFoundOr(err, "Savoir", key)
	}
	if savoir.ContributorID != userID && !privileged {
		return nil, models.NewForbiddenError("Vous ne pouvez modifier que vos propres savoirs")
	}
	return savoir, nil
}

func (s *SavoirService) UpdateSavoir(ctx context.Context, in UpdateSavoirInput) (*models.Savoir, error) {
	savoir, err := s.ownedSavoir(ctx, in.Key, in.UserID, in.Privileged)
	if err != nil {
		return nil, err
	}
	wasPublished := savoir.Published

	p := in.Patch
	next := SavoirInput{
		Title:    savoir.Title,
		Excerpt:  savoir.Excerpt,
		Content:  savoir.Content,
		Category: savoir.Category,
		Era:      savoir.Era,
		Region:   savoir.Region,
		Tags:     savoir.Tags,
		Images:   savoir.Images,
	}
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Excerpt != nil {
		next.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		next.Content = *p.Content
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.Era != nil {
		next.Era = *p.Era
	}
	if p.Region != nil {
		next.Region = *p.Region
	}
	if p.Tags != nil {
		next.Tags = *p.Tags
	}
	if p.Images != nil {
		next.Images = *p.Images
	}
	if err := validateSavoir(next); err != nil {
		return nil, err
	}

	savoir.Title = strings.TrimSpace(next.Title)
	savoir.Excerpt = strings.TrimSpace(next.Excerpt)
	savoir.Content = strings.TrimSpace(next.Content)
	savoir.Category = next.Category
	savoir.Era = next.Era
	savoir.Region = strings.TrimSpace(next.Region)
	savoir.Tags = cleanTags(next.Tags)
	savoir.Images = models.StringList(next.Images)
	if p.Published != nil {
		savoir.Published = *p.Published
	}

	if err := s.savoirRepo.Update(ctx, savoir); err != nil {
		return nil, models.NewInternalError(err)
	}

	if savoir.Published != wasPublished {
		if savoir.Published {
			s.activities.Record(ctx, savoir.ContributorID, models.ActivitySavoirPublished, savoir.ID, models.JSONMap{
				"title": savoir.Title,
				"slug":  savoir.Slug,
			})
		}
		s.reputation.refresh(ctx, savoir.ContributorID)
	}
	return savoir, nil
}

func (s *SavoirService) DeleteSavoir(ctx context.Context, in DeleteSavoirInput) error {
	savoir, err := s.ownedSavoir(ctx, in.Key, in.UserID, in.Privileged)
	if err != nil {
		return err
	}
	if err := s.savoirRepo.Delete(ctx, savoir); err != nil {
		return models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "savoir deleted", slog.String("savoir_id", savoir.ID))
	s.reputation.refresh(ctx, savoir.ContributorID)
	return nil
}

// invalidateSavoir drops the cached copies of a savoir after a side table changed.
func invalidateSavoir(ctx context.Context, savoir *models.Savoir) {
	cache.InvalidateSavoir(ctx, savoir.ID, savoir.Slug)
}
