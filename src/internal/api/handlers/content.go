package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/services"
)

// ContentHandler serves the post, mindmap and research document endpoints.
// The content kind is fixed per route group so the same handler backs all
// three surfaces.
type ContentHandler struct {
	content *services.ContentService
	config  *viper.Viper
}

func NewContentHandler(content *services.ContentService, config *viper.Viper) *ContentHandler {
	return &ContentHandler{
		content: content,
		config:  config,
	}
}

// RegisterRoutes mounts one route set per content kind. Listing and reads
// are public, writes require an authenticated creator or admin.
func (h *ContentHandler) RegisterRoutes(public, authed *echo.Group) {
	segments := map[models.ContentKind]string{
		models.KindPost:     "posts",
		models.KindMindmap:  "mindmaps",
		models.KindResearch: "research",
	}
	for kind, segment := range segments {
		prefix := "/content/" + segment
		k := kind

		public.GET(prefix, func(c echo.Context) error { return h.List(c, k) })
		public.GET(prefix+"/:id", func(c echo.Context) error { return h.Get(c, k) })

		authed.POST(prefix, func(c echo.Context) error { return h.Create(c, k) })
		authed.PUT(prefix+"/:id", func(c echo.Context) error { return h.Update(c, k) })
		authed.DELETE(prefix+"/:id", func(c echo.Context) error { return h.Delete(c, k) })
	}
}

type createContentRequest struct {
	Title       string                 `json:"title" validate:"required,min=1,max=200"`
	Description string                 `json:"description" validate:"max=1000"`
	Body        string                 `json:"body" validate:"required"`
	Status      string                 `json:"status"`
	CategoryID  *uuid.UUID             `json:"category_id"`
	Tags        []string               `json:"tags"`
	References  []createReferenceInput `json:"references"`
}

type createReferenceInput struct {
	Title string `json:"title" validate:"required,max=300"`
	URL   string `json:"url" validate:"omitempty,url"`
	Note  string `json:"note" validate:"max=1000"`
}

// Create handles POST /api/{posts,mindmaps,research}s
func (h *ContentHandler) Create(c echo.Context, kind models.ContentKind) error {
	role := currentRole(c)
	if role != models.RoleCreator && role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Creator role required")
	}

	var req createContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status := models.ContentStatus(req.Status)
	if req.Status == "" {
		status = models.ContentDraft
	}
	if !models.ValidContentStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content status")
	}

	input := services.CreateContentInput{
		Kind:        kind,
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Status:      status,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
	}
	for _, ref := range req.References {
		input.References = append(input.References, services.CreateReferenceInput{
			Title: ref.Title,
			URL:   ref.URL,
			Note:  ref.Note,
		})
	}

	content, err := h.content.CreateContent(currentUserID(c), input)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusCreated, map[string]interface{}{
		"data": content,
	})
}

// List handles GET /api/{posts,mindmaps,research}s with optional
// search, status, category, tag and pagination query parameters.
func (h *ContentHandler) List(c echo.Context, kind models.ContentKind) error {
	filter := services.ContentFilter{
		Kind:   kind,
		Search: strings.TrimSpace(c.QueryParam("search")),
		Tag:    strings.TrimSpace(c.QueryParam("tag")),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}

	for _, raw := range strings.Split(c.QueryParam("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := models.ContentStatus(raw)
		if !models.ValidContentStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid content status filter")
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid category id")
		}
		filter.Category = &id
	}

	// Anonymous and non-owner listings only see published items; the
	// service applies no status restriction on its own.
	if len(filter.Statuses) == 0 {
		filter.Statuses = []models.ContentStatus{models.ContentPublished}
	} else if currentRole(c) != models.RoleAdmin {
		for _, status := range filter.Statuses {
			if status != models.ContentPublished {
				return echo.NewHTTPError(http.StatusForbidden, "Admin role required for unpublished listings")
			}
		}
	}

	items, total, err := h.content.ListContent(filter)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// Get handles GET /api/{posts,mindmaps,research}s/:id
func (h *ContentHandler) Get(c echo.Context, kind models.ContentKind) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}

	content, err := h.content.GetContent(id)
	if err != nil {
		return httpError(err)
	}
	if content.Kind != kind {
		return echo.NewHTTPError(http.StatusNotFound, "Content not found")
	}

	// Drafts and archived items are visible to their author and admins only
	if content.Status != models.ContentPublished {
		if currentUserID(c) != content.AuthorID && currentRole(c) != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusNotFound, "Content not found")
		}
	}

	h.content.IncrementViewCount(content.ID)

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": content,
	})
}

type updateContentRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Body        *string    `json:"body"`
	Status      *string    `json:"status"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Tags        []string   `json:"tags"`
}

// Update handles PUT /api/{posts,mindmaps,research}s/:id
func (h *ContentHandler) Update(c echo.Context, kind models.ContentKind) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}

	var req updateContentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := services.UpdateContentInput{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
	}
	if req.Status != nil {
		status := models.ContentStatus(*req.Status)
		if !models.ValidContentStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid content status")
		}
		input.Status = &status
	}

	content, err := h.content.UpdateContent(id, kind, currentUserID(c), currentRole(c), input)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": content,
	})
}

// Delete handles DELETE /api/{posts,mindmaps,research}s/:id
func (h *ContentHandler) Delete(c echo.Context, kind models.ContentKind) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content id")
	}

	if err := h.content.DeleteContent(id, kind, currentUserID(c), currentRole(c)); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "Content deleted",
	})
}

// queryInt parses a positive integer query parameter with a fallback
func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
