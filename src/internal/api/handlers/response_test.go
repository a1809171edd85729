package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/casnotes/src/internal/services"
)

func TestHTTPErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrRequestDecided, http.StatusConflict},
		{services.ErrDuplicateRequest, http.StatusConflict},
		{services.ErrLabelExists, http.StatusConflict},
		{services.ErrDuplicateEntry, http.StatusConflict},
		{services.ErrUsernameTaken, http.StatusConflict},
		{services.ErrEmailTaken, http.StatusConflict},
		{services.ErrInvalidInput, http.StatusBadRequest},
		{services.ErrWeakPassword, http.StatusBadRequest},
		{services.ErrBadCredentials, http.StatusUnauthorized},
		{services.ErrSessionNotFound, http.StatusUnauthorized},
		{services.ErrAccountInactive, http.StatusForbidden},
		{errors.New("something broke"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		httpErr := httpError(tc.err)
		assert.Equal(t, tc.code, httpErr.Code, "error %v", tc.err)
	}
}

func TestErrorHandlerEnvelope(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler

	t.Run("NonTwoHundredWithEnvelope", func(t *testing.T) {
		e.GET("/conflict", func(c echo.Context) error {
			return httpError(services.ErrLabelExists)
		})

		req := httptest.NewRequest(http.MethodGet, "/conflict", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("UnknownErrorIsFiveHundred", func(t *testing.T) {
		e.GET("/boom", func(c echo.Context) error {
			return errors.New("unexpected")
		})

		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
	})

	t.Run("SuccessEnvelope", func(t *testing.T) {
		e.GET("/ok", func(c echo.Context) error {
			return respond(c, http.StatusOK, map[string]interface{}{"data": "payload"})
		})

		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "payload", body["data"])
	})
}
