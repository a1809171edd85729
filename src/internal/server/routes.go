package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/api/handlers"
	"github.com/casapps/casnotes/src/internal/auth"
)

// setupRoutes mounts the whole HTTP surface. Three route groups exist:
// public (optional token), authed (valid token required) and admin
// (admin role required).
func (s *Server) setupRoutes() {
	s.echo.HTTPErrorHandler = handlers.ErrorHandler

	s.echo.GET("/health", s.health)
	s.echo.GET("/healthz", s.health)

	mw := auth.NewMiddleware(s.authService)

	public := s.echo.Group("/api", mw.OptionalAuth())
	authed := s.echo.Group("/api", mw.Auth())
	admin := s.echo.Group("/api/admin", mw.Auth(), mw.RequireAdmin())

	authHandler := handlers.NewAuthHandler(s.users, s.authService, s.totpService, s.config)
	authHandler.RegisterRoutes(public, authed)

	contentHandler := handlers.NewContentHandler(s.content, s.config)
	contentHandler.RegisterRoutes(public, authed)

	commentHandler := handlers.NewCommentHandler(s.comments)
	commentHandler.RegisterRoutes(public, authed)

	voteHandler := handlers.NewVoteHandler(s.votes)
	voteHandler.RegisterRoutes(public, authed)

	bookmarkHandler := handlers.NewBookmarkHandler(s.bookmarks)
	bookmarkHandler.RegisterRoutes(authed)

	notificationHandler := handlers.NewNotificationHandler(s.notifications)
	notificationHandler.RegisterRoutes(authed)

	requestHandler := handlers.NewRequestHandler(s.requests)
	requestHandler.RegisterRoutes(authed, admin)

	labelHandler := handlers.NewLabelHandler(s.db)
	labelHandler.RegisterRoutes(public)

	adminHandler := handlers.NewAdminHandler(s.db, s.users)
	adminHandler.RegisterRoutes(admin)
}

// health reports liveness and database connectivity
func (s *Server) health(c echo.Context) error {
	status := "healthy"
	code := http.StatusOK

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.Ping() != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}
