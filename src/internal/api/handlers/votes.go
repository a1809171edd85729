package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/services"
)

// VoteHandler serves the vote toggle and count endpoints.
type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

func (h *VoteHandler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/vote/counts", h.Counts)
	authed.POST("/vote", h.Toggle)
	authed.GET("/vote", h.Own)
}

type voteRequest struct {
	ContentID uuid.UUID `json:"content_id" validate:"required"`
	Type      string    `json:"type" validate:"required"`
}

// Toggle handles POST /api/vote. Casting the same vote twice removes it,
// casting the opposite vote replaces it.
func (h *VoteHandler) Toggle(c echo.Context) error {
	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	voteType := models.VoteType(req.Type)
	if !models.ValidVoteType(voteType) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid vote type")
	}

	vote, err := h.votes.Toggle(currentUserID(c), req.ContentID, voteType)
	if err != nil {
		return httpError(err)
	}

	counts, err := h.votes.Counts(req.ContentID)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data":   vote,
		"counts": counts,
	})
}

// Counts handles GET /api/vote/counts?content_id=...
func (h *VoteHandler) Counts(c echo.Context) error {
	contentID, err := queryContentID(c)
	if err != nil {
		return err
	}

	counts, err := h.votes.Counts(contentID)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": counts,
	})
}

// Own handles GET /api/vote?content_id=... and returns the caller's vote,
// null when none exists.
func (h *VoteHandler) Own(c echo.Context) error {
	contentID, err := queryContentID(c)
	if err != nil {
		return err
	}

	vote, err := h.votes.UserVote(currentUserID(c), contentID)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": vote,
	})
}

func queryContentID(c echo.Context) (uuid.UUID, error) {
	raw := c.QueryParam("content_id")
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "content_id is required")
	}
	contentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}
	return contentID, nil
}
