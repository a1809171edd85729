package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/services"
)

// NotificationHandler serves the per-user notification endpoints.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) RegisterRoutes(authed *echo.Group) {
	authed.GET("/notifications", h.List)
	authed.GET("/notifications/unread-count", h.UnreadCount)
	authed.PUT("/notifications/:id/read", h.MarkRead)
	authed.PUT("/notifications/read-all", h.MarkAllRead)
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)

	notifications, err := h.notifications.ListForUser(currentUserID(c), limit)
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": notifications,
	})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(currentUserID(c))
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"count": count,
	})
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification id")
	}

	if err := h.notifications.MarkRead(currentUserID(c), id); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "Notification marked read",
	})
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(currentUserID(c)); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"message": "All notifications marked read",
	})
}
