package repository

import (
	"context"
	"strings"

	"arche/internal/models"

	"gorm.io/gorm"
)

// IdentityRepository stores sign-in identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	Delete(ctx context.Context, id string) error
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, identity *models.Identity) error {
	identity.Email = normalizeEmail(identity.Email)
	return translate(r.db.WithContext(ctx).Create(identity).Error)
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var id models.Identity
	if err := r.db.WithContext(ctx).First(&id, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *identityRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Identity{}, "id = ?", id).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
