package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSavoir() Values {
	return Values{
		"title":    "Techniques de Semis Ancestrales",
		"excerpt":  strings.Repeat("e", 50),
		"content":  strings.Repeat("c", 150),
		"category": "Agriculture",
		"era":      "XVIIIe siècle",
		"tags":     "semis, lune, ,jardin",
	}
}

func TestSavoirForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(v Values)
		field   string
		message string
	}{
		{"valid", func(Values) {}, "", ""},
		{"short title", func(v Values) { v["title"] = "Semi" }, "title", "Le titre doit contenir au moins 5 caractères"},
		{"short excerpt", func(v Values) { v["excerpt"] = "trop court" }, "excerpt", "La description doit contenir au moins 20 caractères"},
		{"long excerpt", func(v Values) { v["excerpt"] = strings.Repeat("x", 201) }, "excerpt", "Maximum 200 caractères"},
		{"excerpt at max", func(v Values) { v["excerpt"] = strings.Repeat("é", 200) }, "", ""},
		{"short content", func(v Values) { v["content"] = strings.Repeat("c", 10) }, "content", "Le contenu doit contenir au moins 100 caractères"},
		{"missing content", func(v Values) { delete(v, "content") }, "content", "Le contenu doit contenir au moins 100 caractères"},
		{"missing category", func(v Values) { v["category"] = "" }, "category", "Veuillez sélectionner une catégorie"},
		{"unknown category", func(v Values) { v["category"] = "Cuisine spatiale" }, "category", "Veuillez sélectionner une catégorie"},
		{"missing era", func(v Values) { delete(v, "era") }, "era", "Veuillez sélectionner une époque"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validSavoir()
			tt.mutate(v)
			errs := SavoirForm.Validate(v)
			if tt.field == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs[0].Message)
			assert.Equal(t, tt.message, errs.Error())
		})
	}
}

func TestSavoirForm_MultipleErrors(t *testing.T) {
	t.Parallel()

	errs := SavoirForm.Validate(Values{"title": "abc"})
	m := errs.Map()
	assert.Len(t, m, 5)
	assert.Equal(t, "Le titre doit contenir au moins 5 caractères", errs.Field("title"))
	assert.Equal(t, "", errs.Field("region"))
}

func TestSignupForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		values  Values
		message string
	}{
		{"valid", Values{"email": "louise@example.fr", "password": "secret", "fullName": "Louise"}, ""},
		{"bad email", Values{"email": "louise", "password": "secret", "fullName": "Louise"}, "Email invalide"},
		{"empty email", Values{"password": "secret", "fullName": "Louise"}, "Email invalide"},
		{"short password", Values{"email": "a@b.fr", "password": "12345", "fullName": "Louise"}, "Le mot de passe doit contenir au moins 6 caractères"},
		{"short name", Values{"email": "a@b.fr", "password": "secret", "fullName": "L"}, "Le nom complet doit contenir au moins 2 caractères"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := SignupForm.Validate(tt.values)
			assert.Equal(t, tt.message, errs.Error())
		})
	}
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"semis", "lune", "jardin"}, ParseTags(" semis, lune, ,jardin,"))
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{}, ParseTags(" , ,"))
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "techniques-de-semis-ancestrales", Slugify("Techniques de Semis Ancestrales"))
	assert.Equal(t, "l-eau-de-vie-a-l-ancienne", Slugify("L'eau-de-vie à l'ancienne !"))
	assert.Equal(t, "moyen-age", Slugify("  Moyen Âge  "))
	assert.LessOrEqual(t, len(Slugify(strings.Repeat("abc ", 100))), 120)
}

func TestFormLookup(t *testing.T) {
	t.Parallel()

	f, ok := SavoirForm.Lookup("published")
	require.True(t, ok)
	assert.Equal(t, "true", f.Default)
	_, ok = SavoirForm.Lookup("nope")
	assert.False(t, ok)
}
