package validation

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Categories a savoir can be filed under.
var Categories = []string{
	"Agriculture",
	"Alimentation",
	"Santé",
	"Construction",
	"Artisanat",
	"Art",
	"Musique",
	"Autre",
}

// Eras a savoir can be attached to.
var Eras = []string{
	"Antiquité",
	"Moyen Âge",
	"Renaissance",
	"XVIIe siècle",
	"XVIIIe siècle",
	"XIXe siècle",
	"XXe siècle",
	"Temps anciens",
}

// SavoirForm is the add-savoir form.
var SavoirForm = Form{
	Name: "savoir",
	Fields: []Field{
		{
			Name: "title", Label: "Titre", Type: TypeText, Required: true, Min: 5,
			Messages: Messages{Min: "Le titre doit contenir au moins 5 caractères"},
		},
		{
			Name: "excerpt", Label: "Description courte", Type: TypeTextArea, Required: true, Min: 20, Max: 200,
			Messages: Messages{
				Min: "La description doit contenir au moins 20 caractères",
				Max: "Maximum 200 caractères",
			},
		},
		{
			Name: "content", Label: "Contenu", Type: TypeTextArea, Required: true, Min: 100,
			Messages: Messages{Min: "Le contenu doit contenir au moins 100 caractères"},
		},
		{
			Name: "category", Label: "Catégorie", Type: TypeSelect, Required: true, Options: Categories,
			Messages: Messages{Required: "Veuillez sélectionner une catégorie"},
		},
		{
			Name: "era", Label: "Époque", Type: TypeSelect, Required: true, Options: Eras,
			Messages: Messages{Required: "Veuillez sélectionner une époque"},
		},
		{Name: "region", Label: "Région", Type: TypeText, Max: 120, Messages: Messages{Max: "Maximum 120 caractères"}},
		{Name: "tags", Label: "Tags", Type: TypeTags},
		{Name: "images", Label: "Images", Type: TypeList},
		{Name: "published", Label: "Publier", Type: TypeBool, Default: "true"},
	},
}

// ParseTags splits a comma-separated tag string, trimming each tag and dropping empty ones.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases, strips accents and joins words with hyphens.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(title)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	slug := strings.Trim(nonSlugChars.ReplaceAllString(b.String(), "-"), "-")
	if len(slug) > 120 {
		slug = strings.TrimRight(slug[:120], "-")
	}
	return slug
}
