package repository

import (
	"context"
	"errors"
	"testing"

	"arche/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavoirRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSavoirRepository(db)
	ctx := context.Background()
	louise := seedProfile(t, db, "louise")

	t.Run("Create and resolve by id or slug", func(t *testing.T) {
		s := &models.Savoir{
			Slug: "tisser-le-lin", Title: "Tisser le lin", Excerpt: "Du champ au métier à tisser",
			Content: "…", Category: "Artisanat", Era: "Moyen Âge", ContributorID: louise.ID, Published: true,
		}
		require.NoError(t, repo.Create(ctx, s))
		assert.NotEmpty(t, s.ID)

		byID, err := repo.GetByIDOrSlug(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tisser le lin", byID.Title)
		require.NotNil(t, byID.Contributor)
		assert.Equal(t, "louise", byID.Contributor.Username)

		bySlug, err := repo.GetByIDOrSlug(ctx, "tisser-le-lin")
		require.NoError(t, err)
		assert.Equal(t, s.ID, bySlug.ID)

		exists, err := repo.SlugExists(ctx, "tisser-le-lin")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Duplicate slug is a conflict", func(t *testing.T) {
		s := &models.Savoir{Slug: "tisser-le-lin", Title: "x", Excerpt: "x", Content: "x", Category: "Art", Era: "Antiquité", ContributorID: louise.ID}
		err := repo.Create(ctx, s)
		assert.True(t, errors.Is(err, ErrDuplicate))
	})

	t.Run("Draft is stored unpublished", func(t *testing.T) {
		s := &models.Savoir{
			Slug: "brouillon-lin", Title: "Brouillon", Excerpt: "Pas encore prêt", Content: "…",
			Category: "Artisanat", Era: "Moyen Âge", ContributorID: louise.ID, Published: false,
		}
		require.NoError(t, repo.Create(ctx, s))
		assert.False(t, s.Published)

		got, err := repo.GetByIDOrSlug(ctx, s.ID)
		require.NoError(t, err)
		assert.False(t, got.Published)

		public, _, err := repo.List(ctx, models.SavoirFilter{Limit: 50})
		require.NoError(t, err)
		for _, listed := range public {
			assert.NotEqual(t, s.ID, listed.ID)
		}
	})

	t.Run("Unknown key", func(t *testing.T) {
		_, err := repo.GetByIDOrSlug(ctx, "nope")
		assert.True(t, IsNotFound(err))
	})

	t.Run("IncrementViews", func(t *testing.T) {
		s := seedSavoir(t, db, louise, "views")
		require.NoError(t, repo.IncrementViews(ctx, s.ID))
		require.NoError(t, repo.IncrementViews(ctx, s.ID))

		var got models.Savoir
		require.NoError(t, db.First(&got, "id = ?", s.ID).Error)
		assert.Equal(t, 2, got.ViewsCount)
	})

	t.Run("Update keeps slug and contributor", func(t *testing.T) {
		s := seedSavoir(t, db, louise, "update-me")
		s.Title = "Nouveau titre"
		s.Tags = models.StringList{"neuf"}
		s.Published = false
		require.NoError(t, repo.Update(ctx, s))

		var got models.Savoir
		require.NoError(t, db.First(&got, "id = ?", s.ID).Error)
		assert.Equal(t, "Nouveau titre", got.Title)
		assert.Equal(t, models.StringList{"neuf"}, got.Tags)
		assert.False(t, got.Published)
		assert.Equal(t, "update-me", got.Slug)
	})

	t.Run("Delete cascades", func(t *testing.T) {
		s := seedSavoir(t, db, louise, "delete-me")
		require.NoError(t, db.Create(&models.Vote{SavoirID: s.ID, UserID: louise.ID, VoteType: 1}).Error)
		require.NoError(t, db.Create(&models.Comment{SavoirID: s.ID, UserID: louise.ID, Content: "bravo"}).Error)

		require.NoError(t, repo.Delete(ctx, s))

		var n int64
		db.Model(&models.Vote{}).Where("savoir_id = ?", s.ID).Count(&n)
		assert.Zero(t, n)
		db.Model(&models.Comment{}).Where("savoir_id = ?", s.ID).Count(&n)
		assert.Zero(t, n)
		_, err := repo.GetByIDOrSlug(ctx, s.ID)
		assert.True(t, IsNotFound(err))
	})
}

func TestSavoirRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSavoirRepository(db)
	ctx := context.Background()
	louise := seedProfile(t, db, "louise")
	marc := seedProfile(t, db, "marc")

	a := seedSavoir(t, db, louise, "a")
	b := seedSavoir(t, db, marc, "b")
	c := seedSavoir(t, db, marc, "c")
	require.NoError(t, db.Model(b).Updates(map[string]interface{}{"votes_count": 12, "category": "Santé"}).Error)
	require.NoError(t, db.Model(c).Updates(map[string]interface{}{"published": false, "title": "Les remèdes 100% naturels"}).Error)
	require.NoError(t, db.Model(a).Update("title", "Les plantes_médicinales").Error)

	tests := []struct {
		name   string
		filter models.SavoirFilter
		want   []string
	}{
		{"published only, newest first", models.SavoirFilter{}, []string{b.ID, a.ID}},
		{"by category", models.SavoirFilter{Category: "Santé"}, []string{b.ID}},
		{"by votes", models.SavoirFilter{Sort: models.SortVotes}, []string{b.ID, a.ID}},
		{"by contributor with drafts", models.SavoirFilter{ContributorID: marc.ID, IncludeDrafts: true}, []string{c.ID, b.ID}},
		{"search is case-insensitive", models.SavoirFilter{Search: "PLANTES"}, []string{a.ID}},
		{"search escapes wildcards", models.SavoirFilter{Search: "s_m", IncludeDrafts: true}, []string{a.ID}},
		{"search by tag", models.SavoirFilter{Search: "levain"}, []string{b.ID, a.ID}},
		{"no match", models.SavoirFilter{Search: "introuvable"}, nil},
		{"paged", models.SavoirFilter{Limit: 1, Offset: 1}, []string{a.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
			if tt.filter.Limit == 0 {
				assert.Equal(t, int64(len(tt.want)), total)
			}
		})
	}
}
