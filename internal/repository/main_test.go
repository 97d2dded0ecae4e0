package repository

import (
	"testing"

	"arche/internal/database"
	"arche/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: database.NewGormLogger(logger.Silent)})
	require.NoError(t, err)

	// Every connection to :memory: is its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, username string) *models.Profile {
	t.Helper()
	p := &models.Profile{Username: username, FullName: username}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedSavoir(t *testing.T, db *gorm.DB, contributor *models.Profile, slug string) *models.Savoir {
	t.Helper()
	s := &models.Savoir{
		Slug:          slug,
		Title:         "Le pain au levain " + slug,
		Excerpt:       "Une méthode ancestrale de fermentation",
		Content:       "Contenu détaillé",
		Category:      "Alimentation",
		Era:           "Moyen Âge",
		Region:        "Bretagne",
		Tags:          models.StringList{"pain", "levain"},
		ContributorID: contributor.ID,
		Published:     true,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}
