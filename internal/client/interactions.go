package client

import (
	"context"
	"net/http"

	"arche/internal/models"
)

// VoteState is the caller's current vote on a savoir, nil when none.
type VoteState struct {
	Vote *int `json:"vote"`
}

// UserVote returns the caller's vote on a savoir.
func (c *Client) UserVote(ctx context.Context, savoirID string) (*Result[VoteState], error) {
	if savoirID == "" {
		return idle[VoteState](), nil
	}
	return query[VoteState](ctx, c, Key{"user-vote", savoirID}, c.staleTime, request{
		path: "/votes", query: values("savoir_id", savoirID), fallback: "Impossible de charger le vote",
	})
}

// Vote casts an explicit +1 or -1. Sending the same value again is a no-op
// on the server; the returned aggregates are authoritative.
func (c *Client) Vote(ctx context.Context, savoirID string, voteType int) (*models.VoteResult, error) {
	if voteType != 1 && voteType != -1 {
		return nil, &Error{Kind: KindValidation, Message: "Le vote doit valoir 1 ou -1",
			Fields: map[string]string{"vote_type": "Le vote doit valoir 1 ou -1"}}
	}
	var out models.VoteResult
	err := c.sendJSON(ctx, http.MethodPost, "/votes",
		map[string]any{"savoir_id": savoirID, "vote_type": voteType}, &out, "Impossible d'enregistrer le vote")
	if err != nil {
		return nil, err
	}
	c.Invalidate(Key{"savoir", savoirID}, All("savoirs"), Key{"user-vote", savoirID})
	return &out, nil
}

// Comments returns the comment tree of a savoir: roots with their replies.
func (c *Client) Comments(ctx context.Context, savoirID string) (*Result[[]models.Comment], error) {
	if savoirID == "" {
		return idle[[]models.Comment](), nil
	}
	return query[[]models.Comment](ctx, c, Key{"comments", savoirID}, c.staleTime, request{
		path: "/comments", query: values("savoir_id", savoirID), fallback: "Impossible de charger les commentaires",
	})
}

// CreateComment posts a comment, or a reply when parentID is set.
func (c *Client) CreateComment(ctx context.Context, savoirID, content, parentID string) (*models.Comment, error) {
	body := map[string]any{"savoir_id": savoirID, "content": content}
	if parentID != "" {
		body["parent_id"] = parentID
	}
	var out models.Comment
	if err := c.sendJSON(ctx, http.MethodPost, "/comments", body, &out, "Impossible de publier le commentaire"); err != nil {
		return nil, err
	}
	c.Invalidate(Key{"comments", savoirID}, Key{"savoir", savoirID})
	return &out, nil
}

// Reactions returns the reaction counts of a savoir and the caller's own.
func (c *Client) Reactions(ctx context.Context, savoirID string) (*Result[models.ReactionSummary], error) {
	if savoirID == "" {
		return idle[models.ReactionSummary](), nil
	}
	return query[models.ReactionSummary](ctx, c, Key{"reactions", savoirID}, c.staleTime, request{
		path: "/reactions", query: values("savoir_id", savoirID), fallback: "Impossible de charger les réactions",
	})
}

// React adds an emoji reaction.
func (c *Client) React(ctx context.Context, savoirID, emoji string) (*models.ReactionSummary, error) {
	var out models.ReactionSummary
	err := c.sendJSON(ctx, http.MethodPost, "/reactions",
		map[string]string{"savoir_id": savoirID, "emoji": emoji}, &out, "Impossible d'ajouter la réaction")
	if err != nil {
		return nil, err
	}
	c.Invalidate(Key{"reactions", savoirID})
	return &out, nil
}
