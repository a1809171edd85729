package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/casnotes/src/internal/database/models"
)

func newTestToken(t *testing.T, service *AuthService, role models.Role, status models.UserStatus) string {
	user := &models.User{
		ID:       uuid.New(),
		Username: "tester",
		Role:     role,
		Status:   status,
	}
	pair, err := service.GenerateTokenPair(user, uuid.New())
	require.NoError(t, err)
	return pair.AccessToken
}

func invoke(mw *Middleware, token string, middlewares ...echo.MiddlewareFunc) (int, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	err := handler(c)
	return rec.Code, err
}

func TestAuthMiddleware(t *testing.T) {
	service := NewAuthService("test-secret", "casnotes", time.Hour)
	mw := NewMiddleware(service)

	t.Run("ValidToken", func(t *testing.T) {
		token := newTestToken(t, service, models.RoleConsumer, models.UserActive)
		code, err := invoke(mw, token, mw.Auth())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("MissingToken", func(t *testing.T) {
		_, err := invoke(mw, "", mw.Auth())
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		_, err := invoke(mw, "not-a-jwt", mw.Auth())
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("BannedUser", func(t *testing.T) {
		token := newTestToken(t, service, models.RoleConsumer, models.UserBanned)
		_, err := invoke(mw, token, mw.Auth())
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})

	t.Run("AdminRequired", func(t *testing.T) {
		token := newTestToken(t, service, models.RoleCreator, models.UserActive)
		_, err := invoke(mw, token, mw.Auth(), mw.RequireAdmin())
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)

		adminToken := newTestToken(t, service, models.RoleAdmin, models.UserActive)
		code, err := invoke(mw, adminToken, mw.Auth(), mw.RequireAdmin())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("OptionalAuthPassesAnonymous", func(t *testing.T) {
		code, err := invoke(mw, "", mw.OptionalAuth())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, code)
	})
}
