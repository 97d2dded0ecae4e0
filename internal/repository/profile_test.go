package repository

import (
	"context"
	"errors"
	"testing"

	"arche/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestProfileRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	p := &models.Profile{Username: "jeanne", FullName: "Jeanne"}
	require.NoError(t, repo.Create(ctx, p))

	t.Run("GetByUsername", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "jeanne")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, models.StringList{}, got.Badges)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &models.Profile{Username: "jeanne"})
		assert.True(t, errors.Is(err, ErrDuplicate))
	})

	t.Run("UsernameExists", func(t *testing.T) {
		ok, err := repo.UsernameExists(ctx, "jeanne")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.UsernameExists(ctx, "personne")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Update applies only set fields", func(t *testing.T) {
		bio := "Herboriste du Vercors"
		got, err := repo.Update(ctx, p.ID, models.ProfileUpdate{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, bio, got.Bio)
		assert.Equal(t, "Jeanne", got.FullName)
	})

	t.Run("UpdateReputation", func(t *testing.T) {
		require.NoError(t, repo.UpdateReputation(ctx, p.ID, 125, []string{"graine"}))
		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 125, got.ReputationScore)
		assert.Equal(t, models.StringList{"graine"}, got.Badges)
	})

	t.Run("Leaderboard orders by reputation", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &models.Profile{Username: "novice"}))
		list, total, err := repo.Leaderboard(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, list, 2)
		assert.Equal(t, "jeanne", list[0].Username)
	})
}

func TestProfileRepository_StatsPortable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	author := seedProfile(t, db, "author")
	fan := seedProfile(t, db, "fan")
	other := seedProfile(t, db, "other")
	s1 := seedSavoir(t, db, author, "s1")
	s2 := seedSavoir(t, db, author, "s2")

	require.NoError(t, db.Create(&models.Follow{FollowerID: fan.ID, FollowingID: author.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: other.ID, FollowingID: author.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: author.ID, FollowingID: fan.ID}).Error)

	votes := NewVoteRepository(db)
	_, err := votes.Cast(ctx, s1.ID, fan.ID, models.VoteUp)
	require.NoError(t, err)
	_, err = votes.Cast(ctx, s1.ID, other.ID, models.VoteUp)
	require.NoError(t, err)
	_, err = votes.Cast(ctx, s2.ID, fan.ID, models.VoteDown)
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStats{FollowersCount: 2, FollowingCount: 1, SavoirsCount: 2, TotalVotes: 1}, stats)

	contrib, err := repo.ContributionStats(ctx, author.ID, 80)
	require.NoError(t, err)
	assert.Equal(t, int64(2), contrib.PublishedSavoirs)
	assert.Equal(t, int64(2), contrib.UpvotesReceived)
	assert.Equal(t, int64(1), contrib.DownvotesReceived)
	assert.Equal(t, int64(3), contrib.VotesReceived)
	assert.Equal(t, int64(1), contrib.WellRatedSavoirs)

	fanStats, err := repo.ContributionStats(ctx, fan.ID, 80)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fanStats.VotesCast)
	assert.Zero(t, fanStats.PublishedSavoirs)
}

func TestProfileRepository_StatsPostgresFunctions(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	id := "8f14e45f-ceea-467a-9575-2f6c1c3b1a11"
	mock.ExpectQuery(`SELECT get_followers_count\(\$1\) AS followers_count`).
		WithArgs(id, id, id, id).
		WillReturnRows(sqlmock.NewRows([]string{"followers_count", "following_count", "savoirs_count", "total_votes"}).
			AddRow(4, 7, 3, 58))

	stats, err := NewProfileRepository(db).Stats(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.ProfileStats{FollowersCount: 4, FollowingCount: 7, SavoirsCount: 3, TotalVotes: 58}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
