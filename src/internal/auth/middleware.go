package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/database/models"
)

// Middleware provides authentication middleware
type Middleware struct {
	authService *AuthService
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(authService *AuthService) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Auth returns the authentication middleware handler
func (m *Middleware) Auth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := m.claimsFromRequest(c)
			if err != nil {
				return err
			}

			if claims.Status == models.UserBanned {
				return echo.NewHTTPError(http.StatusForbidden, "account is banned")
			}
			if claims.Status == models.UserPending {
				return echo.NewHTTPError(http.StatusForbidden, "account is awaiting activation")
			}

			setClaims(c, claims)
			return next(c)
		}
	}
}

// RequireAdmin returns middleware that requires the admin role
func (m *Middleware) RequireAdmin() echo.MiddlewareFunc {
	return m.RequireRoles(models.RoleAdmin)
}

// RequireRoles returns middleware that requires one of the given roles
func (m *Middleware) RequireRoles(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(models.Role)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient privileges")
		}
	}
}

// OptionalAuth sets user context if a valid token is present but does not require one
func (m *Middleware) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := m.claimsFromRequest(c)
			if err == nil && claims.Status == models.UserActive {
				setClaims(c, claims)
			}
			return next(c)
		}
	}
}

func (m *Middleware) claimsFromRequest(c echo.Context) (*Claims, error) {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		// Check for token in cookie
		cookie, err := c.Cookie("access_token")
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
		}
		auth = "Bearer " + cookie.Value
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authentication format")
	}

	claims, err := m.authService.ValidateToken(parts[1])
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func setClaims(c echo.Context, claims *Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
	c.Set("status", claims.Status)
	c.Set("session_id", claims.SessionID)
}
