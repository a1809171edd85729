package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/database/models"
)

// LabelHandler serves the public approved tag and category listings.
type LabelHandler struct {
	db *gorm.DB
}

func NewLabelHandler(db *gorm.DB) *LabelHandler {
	return &LabelHandler{db: db}
}

func (h *LabelHandler) RegisterRoutes(public *echo.Group) {
	public.GET("/tags", h.ListTags)
	public.GET("/categories", h.ListCategories)
}

// ListTags handles GET /api/tags
func (h *LabelHandler) ListTags(c echo.Context) error {
	var tags []models.Tag
	if err := h.db.Where("status = ?", models.LabelApproved).
		Order("name ASC").Find(&tags).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tags")
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": tags,
	})
}

// ListCategories handles GET /api/categories
func (h *LabelHandler) ListCategories(c echo.Context) error {
	var categories []models.Category
	if err := h.db.Where("status = ?", models.LabelApproved).
		Order("name ASC").Find(&categories).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list categories")
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"data": categories,
	})
}
