package server

import (
	"arche/internal/middleware"
	"arche/internal/models"
	"arche/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetVote handles GET /api/votes?savoir_id=...
// @Summary Current viewer's vote
// @Tags votes
// @Produce json
// @Param savoir_id query string true "Savoir id"
// @Success 200 {object} object{vote=int}
// @Router /votes [get]
func (s *Server) GetVote(c *fiber.Ctx) error {
	savoirID, err := requireQuery(c, "savoir_id")
	if err != nil {
		return nil
	}
	userID := middleware.UserID(c)
	if userID == "" {
		return c.JSON(fiber.Map{"vote": nil})
	}

	vote, err := s.voteService.GetUserVote(c.UserContext(), savoirID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"vote": vote})
}

// CastVote handles POST /api/votes
// @Summary Vote for a savoir
// @Tags votes
// @Accept json
// @Produce json
// @Param request body object{savoir_id=string,vote_type=int} true "Vote"
// @Success 200 {object} models.VoteResult
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /votes [post]
func (s *Server) CastVote(c *fiber.Ctx) error {
	var req struct {
		SavoirID string `json:"savoir_id"`
		VoteType int    `json:"vote_type"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.voteService.CastVote(c.UserContext(), service.CastVoteInput{
		UserID:   middleware.UserID(c),
		SavoirID: req.SavoirID,
		VoteType: req.VoteType,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// GetComments handles GET /api/comments?savoir_id=...
// @Summary Comment tree of a savoir
// @Tags comments
// @Produce json
// @Param savoir_id query string true "Savoir id"
// @Success 200 {array} models.Comment
// @Router /comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	savoirID, err := requireQuery(c, "savoir_id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), savoirID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/comments
// @Summary Comment on a savoir
// @Tags comments
// @Accept json
// @Produce json
// @Param request body object{savoir_id=string,content=string,parent_id=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		SavoirID string  `json:"savoir_id"`
		Content  string  `json:"content"`
		ParentID *string `json:"parent_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   middleware.UserID(c),
		SavoirID: req.SavoirID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetReactions handles GET /api/reactions?savoir_id=...
// @Summary Reaction counts of a savoir
// @Tags reactions
// @Produce json
// @Param savoir_id query string true "Savoir id"
// @Success 200 {object} models.ReactionSummary
// @Router /reactions [get]
func (s *Server) GetReactions(c *fiber.Ctx) error {
	savoirID, err := requireQuery(c, "savoir_id")
	if err != nil {
		return nil
	}
	summary, err := s.reactionService.Summary(c.UserContext(), savoirID, middleware.UserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(summary)
}

// AddReaction handles POST /api/reactions
// @Summary React to a savoir
// @Tags reactions
// @Accept json
// @Produce json
// @Param request body object{savoir_id=string,emoji=string} true "Reaction"
// @Success 200 {object} models.ReactionSummary
// @Security BearerAuth
// @Router /reactions [post]
func (s *Server) AddReaction(c *fiber.Ctx) error {
	var req struct {
		SavoirID string `json:"savoir_id"`
		Emoji    string `json:"emoji"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	summary, err := s.reactionService.AddReaction(c.UserContext(), service.AddReactionInput{
		UserID:   middleware.UserID(c),
		SavoirID: req.SavoirID,
		Emoji:    req.Emoji,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(summary)
}
