package repository

import (
	"context"
	"testing"

	"arche/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRepository_Cast(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	author := seedProfile(t, db, "author")
	alice := seedProfile(t, db, "alice")
	bob := seedProfile(t, db, "bob")
	s := seedSavoir(t, db, author, "levain")

	res, err := repo.Cast(ctx, s.ID, alice.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, res.VotesCount)
	assert.Equal(t, 100, res.ApprovalRate)

	// Same value twice is idempotent.
	res, err = repo.Cast(ctx, s.ID, alice.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, res.VotesCount)

	res, err = repo.Cast(ctx, s.ID, bob.ID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 0, res.VotesCount)
	assert.Equal(t, 50, res.ApprovalRate)

	// Changing a vote replaces the row.
	res, err = repo.Cast(ctx, s.ID, alice.ID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, -2, res.VotesCount)
	assert.Equal(t, 0, res.ApprovalRate)

	var rows int64
	db.Model(&models.Vote{}).Where("savoir_id = ?", s.ID).Count(&rows)
	assert.Equal(t, int64(2), rows)

	var stored models.Savoir
	require.NoError(t, db.First(&stored, "id = ?", s.ID).Error)
	assert.Equal(t, -2, stored.VotesCount)
	assert.Equal(t, 0, stored.ApprovalRate)

	v, err := repo.Get(ctx, s.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, models.VoteDown, v.VoteType)

	none, err := repo.Get(ctx, s.ID, author.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}
