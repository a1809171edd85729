package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/services"
)

// RequestHandler serves tag and category request submission, listing and
// the admin approve/reject decisions.
type RequestHandler struct {
	requests *services.RequestService
}

func NewRequestHandler(requests *services.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// RegisterRoutes mounts user-facing routes on authed and the decision
// routes on admin.
func (h *RequestHandler) RegisterRoutes(authed, admin *echo.Group) {
	authed.POST("/requests/tags", h.SubmitTag)
	authed.GET("/requests/tags", h.ListOwnTags)
	authed.POST("/requests/categories", h.SubmitCategory)
	authed.GET("/requests/categories", h.ListOwnCategories)

	admin.GET("/requests/tags", h.AdminListTags)
	admin.GET("/requests/categories", h.AdminListCategories)
	admin.PUT("/tags/:id/approve", h.ApproveTag)
	admin.PUT("/tags/:id/reject", h.RejectTag)
	admin.PUT("/categories/:id/approve", h.ApproveCategory)
	admin.PUT("/categories/:id/reject", h.RejectCategory)
}

type tagRequestInput struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type categoryRequestInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// SubmitTag handles POST /api/requests/tags
func (h *RequestHandler) SubmitTag(c echo.Context) error {
	var req tagRequestInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := h.requests.SubmitTagRequest(currentUserID(c), req.Name)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusCreated, map[string]interface{}{
		"data": request,
	})
}

// SubmitCategory handles POST /api/requests/categories
func (h *RequestHandler) SubmitCategory(c echo.Context) error {
	var req categoryRequestInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := h.requests.SubmitCategoryRequest(currentUserID(c), req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusCreated, map[string]interface{}{
		"data": request,
	})
}

// ListOwnTags handles GET /api/requests/tags for the calling user
func (h *RequestHandler) ListOwnTags(c echo.Context) error {
	status, err := statusFilter(c)
	if err != nil {
		return err
	}

	requests, err := h.requests.ListTagRequests(currentUserID(c), status)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": requests,
	})
}

// ListOwnCategories handles GET /api/requests/categories for the calling user
func (h *RequestHandler) ListOwnCategories(c echo.Context) error {
	status, err := statusFilter(c)
	if err != nil {
		return err
	}

	requests, err := h.requests.ListCategoryRequests(currentUserID(c), status)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": requests,
	})
}

// AdminListTags handles GET /api/admin/requests/tags across all users.
// Without an explicit status filter only pending requests are returned.
func (h *RequestHandler) AdminListTags(c echo.Context) error {
	status, err := statusFilter(c)
	if err != nil {
		return err
	}
	if status == "" {
		status = models.RequestPending
	}

	requests, err := h.requests.ListTagRequests(uuid.Nil, status)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": requests,
	})
}

// AdminListCategories handles GET /api/admin/requests/categories
func (h *RequestHandler) AdminListCategories(c echo.Context) error {
	status, err := statusFilter(c)
	if err != nil {
		return err
	}
	if status == "" {
		status = models.RequestPending
	}

	requests, err := h.requests.ListCategoryRequests(uuid.Nil, status)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": requests,
	})
}

// ApproveTag handles PUT /api/admin/tags/:id/approve
func (h *RequestHandler) ApproveTag(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request id")
	}

	request, tag, err := h.requests.ApproveTagRequest(id)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": request,
		"tag":  tag,
	})
}

// RejectTag handles PUT /api/admin/tags/:id/reject
func (h *RequestHandler) RejectTag(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request id")
	}

	request, err := h.requests.RejectTagRequest(id)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": request,
	})
}

// ApproveCategory handles PUT /api/admin/categories/:id/approve
func (h *RequestHandler) ApproveCategory(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request id")
	}

	request, category, err := h.requests.ApproveCategoryRequest(id)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data":     request,
		"category": category,
	})
}

// RejectCategory handles PUT /api/admin/categories/:id/reject
func (h *RequestHandler) RejectCategory(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request id")
	}

	request, err := h.requests.RejectCategoryRequest(id)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": request,
	})
}

// statusFilter parses the optional ?status= query parameter
func statusFilter(c echo.Context) (models.RequestStatus, error) {
	raw := c.QueryParam("status")
	if raw == "" {
		return "", nil
	}
	status := models.RequestStatus(raw)
	switch status {
	case models.RequestPending, models.RequestApproved, models.RequestRejected:
		return status, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid request status filter")
}
