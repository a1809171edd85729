package server

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	echoMiddleware "github.com/casapps/casnotes/src/internal/api/middleware"
	"github.com/casapps/casnotes/src/internal/auth"
	"github.com/casapps/casnotes/src/internal/cache"
	"github.com/casapps/casnotes/src/internal/email"
	"github.com/casapps/casnotes/src/internal/services"
)

// Server wires the HTTP layer to the service layer
type Server struct {
	echo   *echo.Echo
	config *viper.Viper
	db     *gorm.DB
	cache  *cache.CacheManager

	authService *auth.AuthService
	totpService *auth.TOTPService

	users         *services.UserService
	content       *services.ContentService
	comments      *services.CommentService
	votes         *services.VoteService
	bookmarks     *services.BookmarkService
	requests      *services.RequestService
	notifications *services.NotificationService

	startTime time.Time
}

// New creates a server with all services constructed from the given
// database handle and configuration
func New(e *echo.Echo, cfg *viper.Viper, db *gorm.DB) *Server {
	cacheManager := cache.NewCacheManager(cfg)
	emailService := email.NewService(cfg)

	authService := auth.NewAuthService(
		cfg.GetString("security.secret_key"),
		cfg.GetString("security.jwt.issuer"),
		cfg.GetDuration("security.jwt.access_token_ttl"),
	)
	totpService := auth.NewTOTPService(cfg.GetString("security.jwt.issuer"))

	notifications := services.NewNotificationService(db, cacheManager)

	s := &Server{
		echo:          e,
		config:        cfg,
		db:            db,
		cache:         cacheManager,
		authService:   authService,
		totpService:   totpService,
		users:         services.NewUserService(db, cfg, emailService),
		content:       services.NewContentService(db, cfg),
		comments:      services.NewCommentService(db, notifications),
		votes:         services.NewVoteService(db, cacheManager),
		bookmarks:     services.NewBookmarkService(db),
		requests:      services.NewRequestService(db, notifications),
		notifications: notifications,
		startTime:     time.Now(),
	}

	e.Validator = NewEchoValidator()

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start starts the HTTP listener
func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server and releases the cache
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.cache.Close(); err != nil {
		s.echo.Logger.Warnf("Failed to close cache: %v", err)
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	// Pretty console logging plus Apache format access log file
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "  ${time_rfc3339} | ${status} | ${latency_human} | ${method} ${uri}\n",
		Output: os.Stdout,
	}))
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format:           `${remote_ip} - - [${time_custom}] "${method} ${uri} ${protocol}" ${status} ${bytes_out}` + "\n",
		CustomTimeFormat: "02/Jan/2006:15:04:05 -0700",
		Output:           s.accessLogWriter(),
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(echoMiddleware.CORS(s.config))
	s.echo.Use(echoMiddleware.Security(s.config))
	s.echo.Use(echoMiddleware.RateLimit(s.config))
}

// accessLogWriter returns a file writer for Apache format access logs,
// falling back to discard when the log directory is unusable
func (s *Server) accessLogWriter() io.Writer {
	logDir := s.config.GetString("paths.logs")
	if logDir == "" {
		return io.Discard
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("Warning: failed to create log directory %s: %v", logDir, err)
		return io.Discard
	}

	accessLogPath := filepath.Join(logDir, "access.log")
	logFile, err := os.OpenFile(accessLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Warning: failed to open access log %s: %v", accessLogPath, err)
		return io.Discard
	}

	return logFile
}
