package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/services"
)

// AdminHandler serves the admin user moderation endpoints and the
// dashboard summary.
type AdminHandler struct {
	db    *gorm.DB
	users *services.UserService
}

func NewAdminHandler(db *gorm.DB, users *services.UserService) *AdminHandler {
	return &AdminHandler{
		db:    db,
		users: users,
	}
}

func (h *AdminHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/users", h.ListUsers)
	admin.PUT("/users/:id/status", h.UpdateStatus)
	admin.PUT("/users/:id/role", h.UpdateRole)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.GET("/dashboard", h.Dashboard)
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c echo.Context) error {
	filter := services.UserFilter{
		Search: c.QueryParam("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	}

	if raw := c.QueryParam("role"); raw != "" {
		role := models.Role(raw)
		if !models.ValidRole(role) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid role filter")
		}
		filter.Role = role
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.UserStatus(raw)
		if !models.ValidUserStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status filter")
		}
		filter.Status = status
	}

	users, total, err := h.users.ListUsers(filter)
	if err != nil {
		return httpError(err)
	}

	payload := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		payload = append(payload, userPayload(&users[i]))
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data":  payload,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PUT /api/admin/users/:id/status. Banning a user
// also invalidates all of their sessions.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status := models.UserStatus(req.Status)
	if !models.ValidUserStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user status")
	}
	if id == currentUserID(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot change own status")
	}

	user, err := h.users.UpdateStatus(id, status)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": userPayload(user),
	})
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateRole handles PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	role := models.Role(req.Role)
	if !models.ValidRole(role) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid role")
	}
	if id == currentUserID(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot change own role")
	}

	user, err := h.users.UpdateRole(id, role)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": userPayload(user),
	})
}

// DeleteUser handles DELETE /api/admin/users/:id. The user and all of
// their content, comments, votes, bookmarks, read-later entries, sessions
// and notifications are removed in one transaction.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user id")
	}
	if id == currentUserID(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot delete own account")
	}

	if err := h.users.DeleteUser(id); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "User deleted",
	})
}

// Dashboard handles GET /api/admin/dashboard with aggregate counts
func (h *AdminHandler) Dashboard(c echo.Context) error {
	counts := map[string]int64{}
	tables := map[string]interface{}{
		"users":              &models.User{},
		"contents":           &models.Content{},
		"comments":           &models.Comment{},
		"pending_tags":       &models.TagRequest{},
		"pending_categories": &models.CategoryRequest{},
	}

	for name, model := range tables {
		query := h.db.Model(model)
		switch name {
		case "pending_tags", "pending_categories":
			query = query.Where("status = ?", models.RequestPending)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dashboard counts")
		}
		counts[name] = count
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": counts,
	})
}
