package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/casapps/casnotes/src/internal/auth"
	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/services"
)

// AuthHandler handles registration, login, and password flows
type AuthHandler struct {
	users  *services.UserService
	auth   *auth.AuthService
	totp   *auth.TOTPService
	config *viper.Viper
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, authService *auth.AuthService, totpService *auth.TOTPService, config *viper.Viper) *AuthHandler {
	return &AuthHandler{
		users:  users,
		auth:   authService,
		totp:   totpService,
		config: config,
	}
}

// Register creates a new account
func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username    string `json:"username" validate:"required"`
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Only consumer and creator are self-assignable
	role := models.Role(req.Role)
	if role == models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "cannot self-register as admin")
	}

	user, err := h.users.Register(services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        role,
	})
	if err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusCreated, map[string]interface{}{
		"user": userPayload(user),
	})
}

// Login verifies credentials and issues a token pair
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
		TOTPCode string `json:"totp_code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.Authenticate(req.Login, req.Password, req.TOTPCode, h.totp)
	if err != nil {
		return httpError(err)
	}

	return h.issueTokens(c, user)
}

// Refresh rotates a refresh token and issues a new token pair
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, user, err := h.users.SessionByRefreshToken(req.RefreshToken)
	if err != nil {
		return httpError(err)
	}

	tokens, err := h.auth.GenerateTokenPair(user, session.ID)
	if err != nil {
		return httpError(err)
	}
	if err := h.users.RotateSession(session, tokens.RefreshToken); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"user":   userPayload(user),
	})
}

// Logout removes the caller's session
func (h *AuthHandler) Logout(c echo.Context) error {
	sessionID, _ := c.Get("session_id").(uuid.UUID)
	if err := h.users.DeleteSession(sessionID); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, nil)
}

// ChangePassword verifies the old password hash and stores a new one
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.users.ChangePassword(currentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, nil)
}

// ForgotPassword emails a one-time reset code
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.users.ForgotPassword(req.Email); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, nil)
}

// ResetPassword consumes a reset code and stores the new password
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Email       string `json:"email" validate:"required,email"`
		Code        string `json:"code" validate:"required"`
		NewPassword string `json:"new_password" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.users.ResetPassword(req.Email, req.Code, req.NewPassword); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, nil)
}

// TwoFactorSetup generates TOTP enrollment material for the caller
func (h *AuthHandler) TwoFactorSetup(c echo.Context) error {
	username, _ := c.Get("username").(string)

	setup, err := h.totp.GenerateTOTP(username)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, map[string]interface{}{
		"setup": setup,
	})
}

// TwoFactorVerify confirms a TOTP code and enables 2FA on the account
func (h *AuthHandler) TwoFactorVerify(c echo.Context) error {
	var req struct {
		Secret string `json:"secret" validate:"required"`
		Code   string `json:"code" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if !h.totp.ValidateTOTP(req.Secret, req.Code) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	if err := h.users.EnableTwoFactor(currentUserID(c), req.Secret); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *AuthHandler) issueTokens(c echo.Context, user *models.User) error {
	// Session first so the token can carry its id; the placeholder refresh
	// token is rotated to the real one below
	placeholder, err := auth.GenerateSecureToken(32)
	if err != nil {
		return httpError(err)
	}
	session, err := h.users.CreateSession(user.ID, placeholder, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return httpError(err)
	}

	tokens, err := h.auth.GenerateTokenPair(user, session.ID)
	if err != nil {
		return httpError(err)
	}
	if err := h.users.RotateSession(session, tokens.RefreshToken); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"user":   userPayload(user),
	})
}

// userPayload strips credential fields from user responses
func userPayload(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"role":         user.Role,
		"status":       user.Status,
		"created_at":   user.CreatedAt,
	}
}

// RegisterRoutes registers auth routes. The authed group must carry the
// authentication middleware.
func (h *AuthHandler) RegisterRoutes(public, authed *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/refresh", h.Refresh)
	public.POST("/auth/forgot-password", h.ForgotPassword)
	public.POST("/auth/reset-password", h.ResetPassword)

	authed.POST("/auth/logout", h.Logout)
	authed.POST("/auth/change-password", h.ChangePassword)
	authed.GET("/auth/2fa/setup", h.TwoFactorSetup)
	authed.POST("/auth/2fa/verify", h.TwoFactorVerify)
}
