package client

import (
	"context"
	"net/http"

	"arche/internal/models"
)

// Follow list directions.
const (
	Followers = "followers"
	Following = "following"
)

// Favorites lists the caller's favorite savoirs.
func (c *Client) Favorites(ctx context.Context) (*Result[SavoirPage], error) {
	return query[SavoirPage](ctx, c, All("favorites"), c.staleTime, request{
		path: "/favorites", fallback: "Impossible de charger les favoris",
	})
}

// IsFavorite reports whether the caller has favorited a savoir.
func (c *Client) IsFavorite(ctx context.Context, savoirID string) (*Result[bool], error) {
	if savoirID == "" {
		return idle[bool](), nil
	}
	type check struct {
		IsFavorite bool `json:"isFavorite"`
	}
	res, err := query[check](ctx, c, Key{"is-favorite", savoirID}, c.staleTime, request{
		path: "/favorites/check", query: values("savoir_id", savoirID), fallback: "Impossible de vérifier le favori",
	})
	if err != nil {
		return nil, err
	}
	return &Result[bool]{Status: StatusSuccess, Data: res.Data.IsFavorite}, nil
}

// ToggleFavorite flips the favorite. Read the new state with IsFavorite.
func (c *Client) ToggleFavorite(ctx context.Context, savoirID string) error {
	err := c.sendJSON(ctx, http.MethodPost, "/favorites",
		map[string]string{"savoir_id": savoirID}, nil, "Impossible de modifier le favori")
	if err != nil {
		return err
	}
	c.Invalidate(All("favorites"), Key{"is-favorite", savoirID})
	return nil
}

// ProfilePage is a page of profiles.
type ProfilePage = models.Page[models.Profile]

// Follows lists a profile's followers or followings.
func (c *Client) Follows(ctx context.Context, userID, direction string) (*Result[ProfilePage], error) {
	if userID == "" {
		return idle[ProfilePage](), nil
	}
	q := values("user_id", userID, "direction", direction)
	return query[ProfilePage](ctx, c, Key{"follows", q.Encode()}, c.staleTime, request{
		path: "/follows", query: q, fallback: "Impossible de charger les abonnements",
	})
}

// IsFollowing reports whether the caller follows a profile.
func (c *Client) IsFollowing(ctx context.Context, userID string) (*Result[bool], error) {
	if userID == "" {
		return idle[bool](), nil
	}
	type check struct {
		IsFollowing bool `json:"isFollowing"`
	}
	res, err := query[check](ctx, c, Key{"is-following", userID}, c.staleTime, request{
		path: "/follows/check", query: values("user_id", userID), fallback: "Impossible de vérifier l'abonnement",
	})
	if err != nil {
		return nil, err
	}
	return &Result[bool]{Status: StatusSuccess, Data: res.Data.IsFollowing}, nil
}

// ToggleFollow follows or unfollows a profile. Read the new state with IsFollowing.
func (c *Client) ToggleFollow(ctx context.Context, userID string) error {
	err := c.sendJSON(ctx, http.MethodPost, "/follows",
		map[string]string{"user_id": userID}, nil, "Impossible de modifier l'abonnement")
	if err != nil {
		return err
	}
	c.Invalidate(Key{"is-following", userID}, All("profile"), All("follows"))
	return nil
}

// ActivityFilter selects a feed page. UserID narrows it to one profile.
type ActivityFilter struct {
	UserID string
	Page   int
	Limit  int
}

// ActivityPage is a page of the activity feed.
type ActivityPage = models.Page[models.Activity]

// Activities returns the caller's feed.
func (c *Client) Activities(ctx context.Context, f ActivityFilter) (*Result[ActivityPage], error) {
	q := values("user_id", f.UserID, "page", f.Page, "limit", f.Limit)
	return query[ActivityPage](ctx, c, Key{"activities", q.Encode()}, c.staleTime, request{
		path: "/activities", query: q, fallback: "Impossible de charger les activités",
	})
}
