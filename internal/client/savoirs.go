package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"arche/internal/models"
	"arche/internal/validation"
)

// SavoirFilter holds the listing parameters. Zero values are omitted.
type SavoirFilter struct {
	Category string
	Era      string
	Region   string
	Search   string
	Sort     string
	UserID   string
	Page     int
	Limit    int
}

func (f SavoirFilter) values() url.Values {
	return values(
		"category", f.Category,
		"era", f.Era,
		"region", f.Region,
		"search", f.Search,
		"sort", f.Sort,
		"user_id", f.UserID,
		"page", f.Page,
		"limit", f.Limit,
	)
}

// SavoirInput is the body of a new savoir.
type SavoirInput struct {
	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Era       string   `json:"era"`
	Region    string   `json:"region,omitempty"`
	Tags      []string `json:"tags"`
	Images    []string `json:"images"`
	Published *bool    `json:"published,omitempty"`
}

// SavoirPage is a page of savoirs.
type SavoirPage = models.Page[models.Savoir]

// Savoirs lists published savoirs.
func (c *Client) Savoirs(ctx context.Context, f SavoirFilter) (*Result[SavoirPage], error) {
	q := f.values()
	return query[SavoirPage](ctx, c, Key{"savoirs", q.Encode()}, ListingStaleTime, request{
		path: "/savoirs", query: q, fallback: "Impossible de charger les savoirs",
	})
}

// Savoir fetches one savoir by id or slug.
func (c *Client) Savoir(ctx context.Context, idOrSlug string) (*Result[models.Savoir], error) {
	if idOrSlug == "" {
		return idle[models.Savoir](), nil
	}
	return queryAliased[models.Savoir](ctx, c, Key{"savoir", idOrSlug}, c.staleTime, request{
		path: "/savoirs/" + url.PathEscape(idOrSlug), fallback: "Impossible de charger le savoir",
	}, savoirKeys)
}

// savoirKeys lists both keys a savoir is cached under.
func savoirKeys(s models.Savoir) []Key {
	var keys []Key
	for _, p := range []string{s.ID, s.Slug} {
		if p != "" {
			keys = append(keys, Key{"savoir", p})
		}
	}
	return keys
}

// Search runs a full-text search. A blank query is idle.
func (c *Client) Search(ctx context.Context, q string, limit int) (*Result[SavoirPage], error) {
	q = trimmed(q)
	if q == "" {
		return idle[SavoirPage](), nil
	}
	params := values("q", q, "limit", limit)
	return query[SavoirPage](ctx, c, Key{"search", params.Encode()}, SearchStaleTime, request{
		path: "/search", query: params, fallback: "La recherche a échoué",
	})
}

// CreateSavoir publishes a savoir.
func (c *Client) CreateSavoir(ctx context.Context, in SavoirInput) (*models.Savoir, error) {
	var out models.Savoir
	if err := c.sendJSON(ctx, http.MethodPost, "/savoirs", in, &out, "Impossible de créer le savoir"); err != nil {
		return nil, err
	}
	c.Invalidate(All("savoirs"))
	return &out, nil
}

// UpdateSavoir edits the owner's savoir.
func (c *Client) UpdateSavoir(ctx context.Context, id string, patch models.SavoirPatch) (*models.Savoir, error) {
	var out models.Savoir
	if err := c.sendJSON(ctx, http.MethodPatch, "/savoirs/"+url.PathEscape(id), patch, &out, "Impossible de modifier le savoir"); err != nil {
		return nil, err
	}
	c.Invalidate(Key{"savoir", id}, Key{"savoir", out.Slug}, All("savoirs"))
	return &out, nil
}

// DeleteSavoir removes the owner's savoir.
func (c *Client) DeleteSavoir(ctx context.Context, id string) error {
	if err := c.sendJSON(ctx, http.MethodDelete, "/savoirs/"+url.PathEscape(id), nil, nil, "Impossible de supprimer le savoir"); err != nil {
		return err
	}
	c.Invalidate(Key{"savoir", id}, All("savoirs"))
	return nil
}

// SubmitSavoirForm validates raw add-savoir form values and creates the
// savoir. Invalid forms fail with per-field messages and send nothing.
func (c *Client) SubmitSavoirForm(ctx context.Context, form validation.Values) (*models.Savoir, error) {
	if errs := validation.SavoirForm.Validate(form); len(errs) > 0 {
		return nil, &Error{Kind: KindValidation, Message: errs.Error(), Fields: errs.Map()}
	}

	published := true
	if raw := trimmed(form["published"]); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: "Valeur de publication invalide",
				Fields: map[string]string{"published": "Valeur de publication invalide"}}
		}
		published = v
	}

	return c.CreateSavoir(ctx, SavoirInput{
		Title:     trimmed(form["title"]),
		Excerpt:   trimmed(form["excerpt"]),
		Content:   trimmed(form["content"]),
		Category:  form["category"],
		Era:       form["era"],
		Region:    trimmed(form["region"]),
		Tags:      validation.ParseTags(form["tags"]),
		Images:    validation.ParseTags(form["images"]),
		Published: &published,
	})
}
