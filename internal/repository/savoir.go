package repository

import (
	"context"
	"fmt"

	"arche/internal/cache"
	"arche/internal/models"

	"gorm.io/gorm"
)

// SavoirRepository defines the interface for savoir data operations
type SavoirRepository interface {
	Create(ctx context.Context, savoir *models.Savoir) error
	GetByIDOrSlug(ctx context.Context, key string) (*models.Savoir, error)
	List(ctx context.Context, filter models.SavoirFilter) ([]models.Savoir, int64, error)
	Update(ctx context.Context, savoir *models.Savoir) error
	Delete(ctx context.Context, savoir *models.Savoir) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	IncrementViews(ctx context.Context, id string) error
}

type savoirRepository struct {
	db *gorm.DB
}

// NewSavoirRepository creates a new savoir repository
func NewSavoirRepository(db *gorm.DB) SavoirRepository {
	return &savoirRepository{db: db}
}

type savoirListEntry struct {
	Data  []models.Savoir `json:"data"`
	Total int64           `json:"total"`
}

func (r *savoirRepository) Create(ctx context.Context, savoir *models.Savoir) error {
	if err := translate(r.db.WithContext(ctx).Create(savoir).Error); err != nil {
		return err
	}
	cache.InvalidateSavoirLists(ctx)
	return nil
}

// GetByIDOrSlug resolves a savoir by uuid or by slug, contributor preloaded.
func (r *savoirRepository) GetByIDOrSlug(ctx context.Context, key string) (*models.Savoir, error) {
	var s models.Savoir
	err := cache.Aside(ctx, cache.SavoirKey(key), &s, cache.SavoirTTL, func() error {
		q := r.db.WithContext(ctx).Preload("Contributor")
		if models.IsUUID(key) {
			return q.First(&s, "id = ?", key).Error
		}
		return q.First(&s, "slug = ?", key).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *savoirRepository) List(ctx context.Context, filter models.SavoirFilter) ([]models.Savoir, int64, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	// Per-contributor and draft listings bypass the shared cache.
	if filter.ContributorID != "" || filter.IncludeDrafts {
		return r.list(ctx, filter)
	}

	var entry savoirListEntry
	key := cache.SavoirListKey(ctx, fmt.Sprintf("%+v", filter))
	err := cache.Aside(ctx, key, &entry, cache.SavoirListTTL, func() error {
		data, total, err := r.list(ctx, filter)
		if err != nil {
			return err
		}
		entry = savoirListEntry{Data: data, Total: total}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entry.Data, entry.Total, nil
}

func (r *savoirRepository) list(ctx context.Context, filter models.SavoirFilter) ([]models.Savoir, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Savoir{})
	if !filter.IncludeDrafts {
		q = q.Where("published = ?", true)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Era != "" {
		q = q.Where("era = ?", filter.Era)
	}
	if filter.Region != "" {
		q = q.Where("region = ?", filter.Region)
	}
	if filter.ContributorID != "" {
		q = q.Where("contributor_id = ?", filter.ContributorID)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(excerpt) LIKE ? ESCAPE '\'
			OR LOWER(content) LIKE ? ESCAPE '\' OR LOWER(CAST(tags AS TEXT)) LIKE ? ESCAPE '\'`, p, p, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case models.SortVotes:
		q = q.Order("votes_count DESC")
	case models.SortTrending:
		q = q.Order("(votes_count * 3 + comments_count * 2 + views_count / 10) DESC")
	}
	q = q.Order("created_at DESC")

	var savoirs []models.Savoir
	err := q.Preload("Contributor").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&savoirs).Error
	return savoirs, total, err
}

func (r *savoirRepository) Update(ctx context.Context, savoir *models.Savoir) error {
	err := r.db.WithContext(ctx).Model(savoir).Select(
		"title", "excerpt", "content", "category", "era", "region", "tags", "images", "published", "updated_at",
	).Updates(savoir).Error
	if err != nil {
		return err
	}
	cache.InvalidateSavoir(ctx, savoir.ID, savoir.Slug)
	return nil
}

// Delete removes the savoir with its votes, comments, reactions and favorites.
func (r *savoirRepository) Delete(ctx context.Context, savoir *models.Savoir) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.Vote{}, &models.Comment{}, &models.Reaction{}, &models.Favorite{}} {
			if err := tx.Where("savoir_id = ?", savoir.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Savoir{}, "id = ?", savoir.ID).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateSavoir(ctx, savoir.ID, savoir.Slug)
	return nil
}

func (r *savoirRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Savoir{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

// IncrementViews bumps the counter without touching updated_at or the cache.
func (r *savoirRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Savoir{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
}
