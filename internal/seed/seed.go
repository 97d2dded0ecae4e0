// Package seed fills the database with generated profiles, savoirs and
// interactions for development and demos.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"arche/internal/auth"
	"arche/internal/gamification"
	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/repository"
	"arche/internal/service"
	"arche/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options sizes a seeding run.
type Options struct {
	Profiles    int
	Savoirs     int
	MaxVotes    int
	MaxComments int
	MaxDays     int
	Clean       bool
	// RandSeed makes a run reproducible; zero picks a random seed.
	RandSeed int64
	// PasswordCost is the bcrypt cost of the shared password hash.
	PasswordCost int
}

// DefaultOptions is a small but lively dataset.
func DefaultOptions() Options {
	return Options{
		Profiles:     20,
		Savoirs:      60,
		MaxVotes:     15,
		MaxComments:  4,
		MaxDays:      90,
		Clean:        true,
		PasswordCost: bcrypt.DefaultCost,
	}
}

// Summary counts what a run created.
type Summary struct {
	Profiles  int
	Savoirs   int
	Votes     int
	Comments  int
	Reactions int
	Follows   int
	Favorites int
}

// Seeder writes generated data through the repositories, so aggregates and
// reputation end up exactly as if users had produced them.
type Seeder struct {
	db         *gorm.DB
	opts       Options
	faker      *gofakeit.Faker
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	savoirs    repository.SavoirRepository
	votes      repository.VoteRepository
	comments   repository.CommentRepository
	reactions  repository.ReactionRepository
	favorites  repository.FavoriteRepository
	follows    repository.FollowRepository
	activities *service.ActivityService
	reputation *service.ReputationService
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	profiles := repository.NewProfileRepository(db)
	follows := repository.NewFollowRepository(db)
	return &Seeder{
		db:         db,
		opts:       opts,
		faker:      gofakeit.New(opts.RandSeed),
		identities: repository.NewIdentityRepository(db),
		profiles:   profiles,
		savoirs:    repository.NewSavoirRepository(db),
		votes:      repository.NewVoteRepository(db),
		comments:   repository.NewCommentRepository(db),
		reactions:  repository.NewReactionRepository(db),
		favorites:  repository.NewFavoriteRepository(db),
		follows:    follows,
		activities: service.NewActivityService(repository.NewActivityRepository(db), follows, nil),
		reputation: service.NewReputationService(profiles, gamification.Default),
	}
}

// Run seeds the database.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	sum := &Summary{}
	profiles, err := s.seedProfiles(ctx, s.opts.Profiles)
	if err != nil {
		return nil, fmt.Errorf("seed profiles: %w", err)
	}
	sum.Profiles = len(profiles)
	if len(profiles) == 0 {
		return sum, nil
	}

	savoirs, err := s.seedSavoirs(ctx, profiles, s.opts.Savoirs)
	if err != nil {
		return nil, fmt.Errorf("seed savoirs: %w", err)
	}
	sum.Savoirs = len(savoirs)

	if err := s.seedEngagement(ctx, profiles, savoirs, sum); err != nil {
		return nil, fmt.Errorf("seed engagement: %w", err)
	}
	if err := s.seedSocial(ctx, profiles, savoirs, sum); err != nil {
		return nil, fmt.Errorf("seed social graph: %w", err)
	}

	for _, p := range profiles {
		if err := s.reputation.Recompute(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("recompute reputation: %w", err)
		}
	}

	middleware.Logger.InfoContext(ctx, "seeding complete",
		slog.Int("profiles", sum.Profiles),
		slog.Int("savoirs", sum.Savoirs),
		slog.Int("votes", sum.Votes),
		slog.Int("comments", sum.Comments),
		slog.Int("reactions", sum.Reactions),
		slog.Int("follows", sum.Follows),
		slog.Int("favorites", sum.Favorites),
	)
	return sum, nil
}

// ClearAll deletes every seeded table, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []interface{}{
		&models.Activity{},
		&models.Reaction{},
		&models.Comment{},
		&models.Vote{},
		&models.Favorite{},
		&models.Follow{},
		&models.Savoir{},
		&models.Profile{},
		&models.Identity{},
	}
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, t := range tables {
		if err := db.Delete(t).Error; err != nil {
			return err
		}
	}
	middleware.Logger.InfoContext(ctx, "existing data cleared")
	return nil
}

func (s *Seeder) seedProfiles(ctx context.Context, n int) ([]*models.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.opts.PasswordCost)
	if err != nil {
		return nil, err
	}

	profiles := make([]*models.Profile, 0, n)
	for i := 0; i < n; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		email := strings.ToLower(fmt.Sprintf("%s.%s.%d@example.fr", first, last, i))
		id := uuid.NewString()

		identity := &models.Identity{
			ID:           id,
			Email:        email,
			PasswordHash: string(hash),
			Provider:     models.ProviderCredentials,
		}
		if err := s.identities.Create(ctx, identity); err != nil {
			return nil, err
		}
		profile := &models.Profile{
			Base:     models.Base{ID: id, CreatedAt: s.pastTime()},
			Username: auth.GenerateUsername(email, 5),
			FullName: first + " " + last,
			Bio:      s.faker.Sentence(12),
			Region:   s.faker.RandomString(regions),
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (s *Seeder) seedSavoirs(ctx context.Context, profiles []*models.Profile, n int) ([]*models.Savoir, error) {
	savoirs := make([]*models.Savoir, 0, n)
	for i := 0; i < n; i++ {
		contributor := profiles[s.faker.Number(0, len(profiles)-1)]
		savoir := s.buildSavoir(contributor)

		exists, err := s.savoirs.SlugExists(ctx, savoir.Slug)
		if err != nil {
			return nil, err
		}
		if exists {
			savoir.Slug += "-" + uuid.NewString()[:6]
		}
		if err := s.savoirs.Create(ctx, savoir); err != nil {
			return nil, err
		}
		if savoir.Published {
			s.activities.Record(ctx, contributor.ID, models.ActivitySavoirPublished, savoir.ID,
				models.JSONMap{"title": savoir.Title, "slug": savoir.Slug})
		}
		savoirs = append(savoirs, savoir)
	}
	return savoirs, nil
}

// buildSavoir generates a savoir that passes the add-savoir form rules.
func (s *Seeder) buildSavoir(contributor *models.Profile) *models.Savoir {
	subject := s.faker.RandomString(subjects)
	title := fmt.Sprintf("%s %s", s.faker.RandomString(titleOpenings), subject)
	excerpt := fmt.Sprintf("%s %s.", s.faker.RandomString(excerptOpenings), subject)

	var content strings.Builder
	for content.Len() < 400 {
		content.WriteString(s.faker.RandomString(contentSentences))
		content.WriteString(" ")
	}

	want := s.faker.Number(1, 3)
	tags := make([]string, 0, want)
	seen := map[string]bool{}
	for len(tags) < want {
		tag := s.faker.RandomString(tagPool)
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	return &models.Savoir{
		Base:          models.Base{CreatedAt: s.pastTime()},
		Slug:          validation.Slugify(title),
		Title:         title,
		Excerpt:       excerpt,
		Content:       strings.TrimSpace(content.String()),
		Category:      s.faker.RandomString(validation.Categories),
		Era:           s.faker.RandomString(validation.Eras),
		Region:        s.faker.RandomString(regions),
		Tags:          tags,
		ContributorID: contributor.ID,
		Published:     s.faker.Number(1, 10) > 1,
	}
}

func (s *Seeder) seedEngagement(ctx context.Context, profiles []*models.Profile, savoirs []*models.Savoir, sum *Summary) error {
	for _, savoir := range savoirs {
		if !savoir.Published {
			continue
		}
		others := s.others(profiles, savoir.ContributorID)

		for _, voter := range s.pick(others, s.faker.Number(0, s.opts.MaxVotes)) {
			voteType := 1
			if s.faker.Number(1, 4) == 1 {
				voteType = -1
			}
			if _, err := s.votes.Cast(ctx, savoir.ID, voter.ID, voteType); err != nil {
				return err
			}
			s.activities.Record(ctx, voter.ID, models.ActivityVoteCast, savoir.ID, models.JSONMap{"vote_type": voteType})
			sum.Votes++
		}

		var roots []*models.Comment
		for i := 0; i < s.faker.Number(0, s.opts.MaxComments); i++ {
			author := profiles[s.faker.Number(0, len(profiles)-1)]
			comment := &models.Comment{
				SavoirID: savoir.ID,
				UserID:   author.ID,
				Content:  s.faker.RandomString(commentLines),
			}
			if len(roots) > 0 && s.faker.Number(1, 3) == 1 {
				parent := roots[s.faker.Number(0, len(roots)-1)].ID
				comment.ParentID = &parent
			}
			if err := s.comments.Create(ctx, comment); err != nil {
				return err
			}
			if comment.ParentID == nil {
				roots = append(roots, comment)
			}
			s.activities.Record(ctx, author.ID, models.ActivityCommentPosted, savoir.ID, nil)
			sum.Comments++
		}

		for _, reactor := range s.pick(others, s.faker.Number(0, 3)) {
			option := models.ReactionOptions[s.faker.Number(0, len(models.ReactionOptions)-1)]
			if err := s.reactions.Create(ctx, &models.Reaction{SavoirID: savoir.ID, UserID: reactor.ID, Emoji: option.Emoji}); err != nil {
				return err
			}
			sum.Reactions++
		}
	}
	return nil
}

func (s *Seeder) seedSocial(ctx context.Context, profiles []*models.Profile, savoirs []*models.Savoir, sum *Summary) error {
	var published []*models.Savoir
	for _, sv := range savoirs {
		if sv.Published {
			published = append(published, sv)
		}
	}

	for _, p := range profiles {
		for _, target := range s.pick(s.others(profiles, p.ID), s.faker.Number(0, 3)) {
			if _, err := s.follows.Toggle(ctx, p.ID, target.ID); err != nil {
				return err
			}
			s.activities.Record(ctx, p.ID, models.ActivityFollowStarted, target.ID, nil)
			sum.Follows++
		}

		favorites := s.faker.Number(0, 3)
		for i, idx := range s.faker.Rand.Perm(len(published)) {
			if i >= favorites {
				break
			}
			if _, err := s.favorites.Toggle(ctx, published[idx].ID, p.ID); err != nil {
				return err
			}
			sum.Favorites++
		}
	}
	return nil
}

// others returns profiles except the one with id.
func (s *Seeder) others(profiles []*models.Profile, id string) []*models.Profile {
	out := make([]*models.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// pick returns up to n distinct profiles.
func (s *Seeder) pick(profiles []*models.Profile, n int) []*models.Profile {
	if n > len(profiles) {
		n = len(profiles)
	}
	out := make([]*models.Profile, 0, n)
	for _, idx := range s.faker.Rand.Perm(len(profiles))[:n] {
		out = append(out, profiles[idx])
	}
	return out
}

func (s *Seeder) pastTime() time.Time {
	back := time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}
