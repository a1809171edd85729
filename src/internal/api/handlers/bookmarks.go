package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/services"
)

// BookmarkHandler serves the bookmark and read-later list endpoints.
type BookmarkHandler struct {
	bookmarks *services.BookmarkService
}

func NewBookmarkHandler(bookmarks *services.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

func (h *BookmarkHandler) RegisterRoutes(authed *echo.Group) {
	authed.GET("/bookmarks", h.ListBookmarks)
	authed.POST("/bookmarks", h.AddBookmark)
	authed.DELETE("/bookmarks/:content_id", h.RemoveBookmark)

	authed.GET("/read-later", h.ListReadLater)
	authed.POST("/read-later", h.AddReadLater)
	authed.PUT("/read-later/:content_id/done", h.MarkReadLaterDone)
	authed.DELETE("/read-later/:content_id", h.RemoveReadLater)
}

type contentIDRequest struct {
	ContentID uuid.UUID `json:"content_id" validate:"required"`
}

// AddBookmark handles POST /api/bookmarks
func (h *BookmarkHandler) AddBookmark(c echo.Context) error {
	var req contentIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	bookmark, err := h.bookmarks.AddBookmark(currentUserID(c), req.ContentID)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusCreated, map[string]interface{}{
		"data": bookmark,
	})
}

// RemoveBookmark handles DELETE /api/bookmarks/:content_id
func (h *BookmarkHandler) RemoveBookmark(c echo.Context) error {
	contentID, err := parseUUIDParam(c, "content_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}

	if err := h.bookmarks.RemoveBookmark(currentUserID(c), contentID); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "Bookmark removed",
	})
}

// ListBookmarks handles GET /api/bookmarks
func (h *BookmarkHandler) ListBookmarks(c echo.Context) error {
	bookmarks, err := h.bookmarks.ListBookmarks(currentUserID(c))
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": bookmarks,
	})
}

// AddReadLater handles POST /api/read-later
func (h *BookmarkHandler) AddReadLater(c echo.Context) error {
	var req contentIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.bookmarks.AddReadLater(currentUserID(c), req.ContentID)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusCreated, map[string]interface{}{
		"data": entry,
	})
}

// MarkReadLaterDone handles PUT /api/read-later/:content_id/done
func (h *BookmarkHandler) MarkReadLaterDone(c echo.Context) error {
	contentID, err := parseUUIDParam(c, "content_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}

	if err := h.bookmarks.MarkReadLaterDone(currentUserID(c), contentID); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "Marked as read",
	})
}

// RemoveReadLater handles DELETE /api/read-later/:content_id
func (h *BookmarkHandler) RemoveReadLater(c echo.Context) error {
	contentID, err := parseUUIDParam(c, "content_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}

	if err := h.bookmarks.RemoveReadLater(currentUserID(c), contentID); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "Removed from read later",
	})
}

// ListReadLater handles GET /api/read-later
func (h *BookmarkHandler) ListReadLater(c echo.Context) error {
	entries, err := h.bookmarks.ListReadLater(currentUserID(c))
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": entries,
	})
}
