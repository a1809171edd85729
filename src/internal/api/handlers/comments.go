package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/services"
)

// CommentHandler serves the threaded comment endpoints.
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/comments", h.Tree)
	authed.POST("/comments", h.Create)
	authed.DELETE("/comments/:id", h.Delete)
}

type createCommentRequest struct {
	ContentID uuid.UUID  `json:"content_id" validate:"required"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Body      string     `json:"body" validate:"required,min=1,max=5000"`
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(c echo.Context) error {
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.comments.AddComment(currentUserID(c), req.ContentID, req.ParentID, req.Body)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusCreated, map[string]interface{}{
		"data": comment,
	})
}

// Tree handles GET /api/comments?content_id=... and returns the comments
// of one content item assembled as a reply tree.
func (h *CommentHandler) Tree(c echo.Context) error {
	raw := c.QueryParam("content_id")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content_id is required")
	}
	contentID, err := uuid.Parse(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}

	tree, err := h.comments.GetTree(contentID)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": tree,
	})
}

// Delete handles DELETE /api/comments/:id
func (h *CommentHandler) Delete(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment id")
	}

	if err := h.comments.DeleteComment(id, currentUserID(c), currentRole(c)); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "Comment deleted",
	})
}
