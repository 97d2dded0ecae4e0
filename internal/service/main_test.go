package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"arche/internal/database"
	"arche/internal/gamification"
	"arche/internal/models"
	"arche/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// publisherStub records every published activity.
type publisherStub struct {
	mu        sync.Mutex
	published []*models.Activity
}

func (p *publisherStub) PublishActivity(_ context.Context, a *models.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, a)
	return nil
}

func (p *publisherStub) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.published))
	for _, a := range p.published {
		out = append(out, a.ActivityType)
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	publisher  *publisherStub
	savoirs    *SavoirService
	votes      *VoteService
	comments   *CommentService
	reactions  *ReactionService
	social     *SocialService
	profiles   *ProfileService
	activities *ActivityService
	reputation *ReputationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: database.NewGormLogger(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	profileRepo := repository.NewProfileRepository(db)
	savoirRepo := repository.NewSavoirRepository(db)
	followRepo := repository.NewFollowRepository(db)

	pub := &publisherStub{}
	activities := NewActivityService(repository.NewActivityRepository(db), followRepo, pub)
	reputation := NewReputationService(profileRepo, gamification.Default)

	return &fixture{
		db:         db,
		publisher:  pub,
		activities: activities,
		reputation: reputation,
		savoirs:    NewSavoirService(savoirRepo, activities, reputation),
		votes:      NewVoteService(repository.NewVoteRepository(db), savoirRepo, activities, reputation),
		comments:   NewCommentService(repository.NewCommentRepository(db), savoirRepo, activities),
		reactions:  NewReactionService(repository.NewReactionRepository(db), savoirRepo, activities),
		social:     NewSocialService(repository.NewFavoriteRepository(db), followRepo, savoirRepo, profileRepo, activities),
		profiles:   NewProfileService(profileRepo, gamification.Default),
	}
}

func (f *fixture) profile(t *testing.T, username string) *models.Profile {
	t.Helper()
	p := &models.Profile{Username: username, FullName: strings.ToUpper(username[:1]) + username[1:]}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func validSavoir(title string) SavoirInput {
	return SavoirInput{
		Title:    title,
		Excerpt:  "Une méthode ancestrale transmise de génération en génération",
		Content:  strings.Repeat("Le levain se nourrit de farine et d'eau tiède chaque jour. ", 4),
		Category: "Alimentation",
		Era:      "Moyen Âge",
		Region:   "Bretagne",
		Tags:     []string{" pain", "levain ", ""},
	}
}

func (f *fixture) savoir(t *testing.T, owner *models.Profile, title string) *models.Savoir {
	t.Helper()
	s, err := f.savoirs.CreateSavoir(context.Background(), CreateSavoirInput{UserID: owner.ID, SavoirInput: validSavoir(title)})
	require.NoError(t, err)
	return s
}

func reload(t *testing.T, db *gorm.DB, dest interface{}, id string) {
	t.Helper()
	require.NoError(t, db.First(dest, "id = ?", id).Error)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code, appErr.Message)
}
