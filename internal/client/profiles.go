package client

import (
	"context"
	"net/http"
	"net/url"

	"arche/internal/gamification"
	"arche/internal/models"
)

// Profile fetches a public profile with its stats.
func (c *Client) Profile(ctx context.Context, username string) (*Result[models.ProfileWithStats], error) {
	if username == "" {
		return idle[models.ProfileWithStats](), nil
	}
	return query[models.ProfileWithStats](ctx, c, Key{"profile", username}, c.staleTime, request{
		path: "/profiles/" + url.PathEscape(username), fallback: "Impossible de charger le profil",
	})
}

// Leaderboard lists profiles by reputation.
func (c *Client) Leaderboard(ctx context.Context, page, limit int) (*Result[ProfilePage], error) {
	q := values("sort", "reputation", "page", page, "limit", limit)
	return query[ProfilePage](ctx, c, Key{"leaderboard", q.Encode()}, ListingStaleTime, request{
		path: "/profiles", query: q, fallback: "Impossible de charger le classement",
	})
}

// CurrentUser returns the signed-in user's profile. It stays cached until a
// profile edit or a sign-in change invalidates it, and is idle when signed out.
func (c *Client) CurrentUser(ctx context.Context) (*Result[models.ProfileWithStats], error) {
	if c.session.Token() == "" && len(c.cookies) == 0 {
		return idle[models.ProfileWithStats](), nil
	}
	return query[models.ProfileWithStats](ctx, c, All("current-user"), NeverStale, request{
		path: "/auth/me", fallback: "Impossible de charger l'utilisateur",
	})
}

// UpdateProfile edits the caller's profile.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error) {
	var out models.Profile
	if err := c.sendJSON(ctx, http.MethodPatch, "/profiles", update, &out, "Impossible de mettre à jour le profil"); err != nil {
		return nil, err
	}
	c.Invalidate(All("current-user"), All("profile"))
	return &out, nil
}

// BadgeCatalog lists every badge and tier.
type BadgeCatalog struct {
	Badges []gamification.Badge `json:"badges"`
	Tiers  []gamification.Tier  `json:"tiers"`
}

// Badges returns the badge catalog.
func (c *Client) Badges(ctx context.Context) (*Result[BadgeCatalog], error) {
	return query[BadgeCatalog](ctx, c, All("badges"), NeverStale, request{
		path: "/gamification/badges", fallback: "Impossible de charger les badges",
	})
}

// FeatureFlags returns the raw and evaluated flags. Service tier only.
func (c *Client) FeatureFlags(ctx context.Context) (raw map[string]string, evaluated map[string]bool, err error) {
	var out struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	if err := c.send(ctx, request{method: http.MethodGet, path: "/admin/feature-flags", fallback: "Impossible de charger les drapeaux"}, &out); err != nil {
		return nil, nil, err
	}
	return out.Raw, out.Evaluated, nil
}
