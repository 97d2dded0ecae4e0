package service

import (
	"context"
	"testing"

	"arche/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSavoir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.profile(t, "alice")

	s := f.savoir(t, alice, "Le Pain au Levain d'Antan")
	assert.Equal(t, "le-pain-au-levain-d-antan", s.Slug)
	assert.Equal(t, models.StringList{"pain", "levain"}, s.Tags)
	assert.True(t, s.Published)
	assert.Equal(t, alice.ID, s.ContributorID)

	// Same title gets a distinct slug.
	again := f.savoir(t, alice, "Le Pain au Levain d'Antan")
	assert.NotEqual(t, s.Slug, again.Slug)
	assert.Contains(t, again.Slug, "le-pain-au-levain-d-antan-")

	var p models.Profile
	reload(t, f.db, &p, alice.ID)
	assert.Equal(t, 50, p.ReputationScore)
	assert.Contains(t, p.Badges, "graine")

	assert.Equal(t, []string{models.ActivitySavoirPublished, models.ActivitySavoirPublished}, f.publisher.types())

	_, err := f.savoirs.CreateSavoir(ctx, CreateSavoirInput{SavoirInput: validSavoir("Sans auteur")})
	requireCode(t, err, models.CodeUnauthorized)
}

func TestCreateSavoir_Validation(t *testing.T) {
	f := newFixture(t)
	alice := f.profile(t, "alice")

	in := validSavoir("Court")
	in.Content = "trop court"
	in.Category = "Cuisine"
	_, err := f.savoirs.CreateSavoir(context.Background(), CreateSavoirInput{UserID: alice.ID, SavoirInput: in})
	requireCode(t, err, models.CodeValidation)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Le contenu doit contenir au moins 100 caractères", appErr.Fields["content"])
	assert.Equal(t, "Veuillez sélectionner une catégorie", appErr.Fields["category"])

	var n int64
	f.db.Model(&models.Savoir{}).Count(&n)
	assert.Zero(t, n)
}

func TestGetSavoir_DraftVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.profile(t, "alice")
	bob := f.profile(t, "bob")

	in := validSavoir("Brouillon sur la tonte")
	unpublished := false
	in.Published = &unpublished
	draft, err := f.savoirs.CreateSavoir(ctx, CreateSavoirInput{UserID: alice.ID, SavoirInput: in})
	require.NoError(t, err)
	assert.Empty(t, f.publisher.types())

	_, err = f.savoirs.GetSavoir(ctx, GetSavoirInput{Key: draft.Slug, ViewerID: bob.ID})
	requireCode(t, err, models.CodeNotFound)

	got, err := f.savoirs.GetSavoir(ctx, GetSavoirInput{Key: draft.Slug, ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewsCount)

	_, err = f.savoirs.GetSavoir(ctx, GetSavoirInput{Key: draft.ID, Privileged: true})
	require.NoError(t, err)

	_, err = f.savoirs.GetSavoir(ctx, GetSavoirInput{Key: "inconnu"})
	requireCode(t, err, models.CodeNotFound)
}

func TestUpdateAndDeleteSavoir_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.profile(t, "alice")
	bob := f.profile(t, "bob")
	s := f.savoir(t, alice, "Tisser la laine")

	title := "Tisser la laine de mouton"
	_, err := f.savoirs.UpdateSavoir(ctx, UpdateSavoirInput{Key: s.ID, UserID: bob.ID, Patch: models.SavoirPatch{Title: &title}})
	requireCode(t, err, models.CodeForbidden)

	updated, err := f.savoirs.UpdateSavoir(ctx, UpdateSavoirInput{Key: s.ID, UserID: alice.ID, Patch: models.SavoirPatch{Title: &title}})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, s.Slug, updated.Slug)

	short := "Non"
	_, err = f.savoirs.UpdateSavoir(ctx, UpdateSavoirInput{Key: s.ID, UserID: alice.ID, Patch: models.SavoirPatch{Title: &short}})
	requireCode(t, err, models.CodeValidation)

	err = f.savoirs.DeleteSavoir(ctx, DeleteSavoirInput{Key: s.ID, UserID: bob.ID})
	requireCode(t, err, models.CodeForbidden)

	require.NoError(t, f.savoirs.DeleteSavoir(ctx, DeleteSavoirInput{Key: s.Slug, UserID: bob.ID, Privileged: true}))
	_, err = f.savoirs.GetSavoir(ctx, GetSavoirInput{Key: s.ID})
	requireCode(t, err, models.CodeNotFound)
}

func TestListSavoirs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.profile(t, "alice")
	f.savoir(t, alice, "Le pain au levain")
	f.savoir(t, alice, "La taille des rosiers")

	page, err := f.savoirs.ListSavoirs(ctx, ListSavoirsInput{Sort: "bogus", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Limit)

	page, err = f.savoirs.ListSavoirs(ctx, ListSavoirsInput{Search: "ROSIERS"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "La taille des rosiers", page.Data[0].Title)

	res, err := f.savoirs.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.NotNil(t, res.Data)

	res, err = f.savoirs.Search(ctx, "levain", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
}
