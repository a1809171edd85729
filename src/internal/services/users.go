package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/auth"
	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/email"
	"github.com/casapps/casnotes/src/internal/utils"
)

var (
	ErrUsernameTaken    = errors.New("username already exists")
	ErrEmailTaken       = errors.New("email already exists")
	ErrBadCredentials   = errors.New("invalid credentials")
	ErrAccountInactive  = errors.New("account is not active")
	ErrWeakPassword     = errors.New("password does not meet requirements")
	ErrBadResetCode     = errors.New("invalid or expired reset code")
	ErrSessionNotFound  = errors.New("session not found")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{2,38}$`)
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserService handles accounts, sessions, and password flows
type UserService struct {
	db           *gorm.DB
	cfg          *viper.Viper
	emailService *email.Service
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, cfg *viper.Viper, emailService *email.Service) *UserService {
	return &UserService{
		db:           db,
		cfg:          cfg,
		emailService: emailService,
	}
}

// RegisterInput carries the signup fields
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        models.Role
}

// Register creates a new account. Unless signup moderation is enabled, the
// account starts active; the role defaults to consumer.
func (s *UserService) Register(input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	address := strings.ToLower(strings.TrimSpace(input.Email))

	if err := s.ValidateUsername(username); err != nil {
		return nil, err
	}
	if !emailPattern.MatchString(address) {
		return nil, ErrInvalidInput
	}
	if err := s.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.RoleConsumer
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidInput
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	if err := s.db.Model(&models.User{}).Where("email = ?", address).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	status := models.UserActive
	if s.cfg.GetBool("auth.signup_moderation") {
		status = models.UserPending
	}

	user := &models.User{
		Username:     username,
		Email:        address,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         role,
		Status:       status,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// ValidateUsername checks username shape and the reserved list
func (s *UserService) ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidInput
	}
	reserved := []string{"admin", "root", "system", "api", "casnotes"}
	lower := strings.ToLower(username)
	for _, r := range reserved {
		if lower == r {
			return ErrInvalidInput
		}
	}
	return nil
}

// ValidatePassword enforces the configured minimum length
func (s *UserService) ValidatePassword(password string) error {
	minLength := s.cfg.GetInt("security.password.min_length")
	if minLength <= 0 {
		minLength = 8
	}
	if len(password) < minLength {
		return ErrWeakPassword
	}
	return nil
}

// Authenticate verifies credentials and account state. The login may be a
// username or an email address. When the account has two-factor enabled a
// valid TOTP code must accompany the credentials.
func (s *UserService) Authenticate(login, password, totpCode string, totpService *auth.TOTPService) (*models.User, error) {
	login = strings.TrimSpace(login)

	var user models.User
	err := s.db.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Burn a hash comparison so missing accounts take as long as bad passwords
		auth.CheckPasswordHash(password, "$2a$10$000000000000000000000uGyxkDVf8iJmKXlTVtRr0d31SPXkMfVO")
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}

	if user.Status != models.UserActive {
		return nil, ErrAccountInactive
	}

	if user.TwoFactorEnabled {
		if totpCode == "" || totpService == nil || !totpService.ValidateTOTP(user.TwoFactorSecret, totpCode) {
			return nil, ErrBadCredentials
		}
	}

	now := time.Now().UTC()
	s.db.Model(&user).UpdateColumn("last_login_at", now)
	user.LastLoginAt = &now

	return &user, nil
}

// CreateSession stores a refresh-token session for a login
func (s *UserService) CreateSession(userID uuid.UUID, refreshToken, ip, userAgent string) (*models.Session, error) {
	ttl := s.cfg.GetDuration("security.jwt.refresh_token_ttl")
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	session := &models.Session{
		UserID:       userID,
		RefreshToken: refreshToken,
		IPAddress:    ip,
		UserAgent:    userAgent,
		ExpiresAt:    time.Now().UTC().Add(ttl),
		LastUsedAt:   time.Now().UTC(),
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// SessionByRefreshToken resolves a live session from its refresh token
func (s *UserService) SessionByRefreshToken(token string) (*models.Session, *models.User, error) {
	var session models.Session
	err := s.db.Where("refresh_token = ? AND expires_at > ?", token, time.Now().UTC()).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if user.Status != models.UserActive {
		return nil, nil, ErrAccountInactive
	}

	return &session, &user, nil
}

// RotateSession swaps a session's refresh token after use
func (s *UserService) RotateSession(session *models.Session, newToken string) error {
	return s.db.Model(session).Updates(map[string]interface{}{
		"refresh_token": newToken,
		"last_used_at":  time.Now().UTC(),
	}).Error
}

// DeleteSession removes a session (logout)
func (s *UserService) DeleteSession(sessionID uuid.UUID) error {
	return s.db.Where("id = ?", sessionID).Delete(&models.Session{}).Error
}

// ChangePassword verifies the old password hash and stores the new one
func (s *UserService) ChangePassword(userID uuid.UUID, oldPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return ErrBadCredentials
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.db.Model(&user).Update("password_hash", hash).Error
}

// ForgotPassword emails a one-time reset code. A missing account is
// reported as success so the endpoint cannot be used to probe addresses.
func (s *UserService) ForgotPassword(address string) error {
	address = strings.ToLower(strings.TrimSpace(address))

	var user models.User
	err := s.db.Where("email = ?", address).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	code := utils.GenerateNumericCode(6)
	reset := &models.PasswordResetCode{
		UserID:    user.ID,
		CodeHash:  hashResetCode(code),
		ExpiresAt: time.Now().UTC().Add(30 * time.Minute),
	}
	if err := s.db.Create(reset).Error; err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if s.emailService != nil {
		if err := s.emailService.SendPasswordResetCode(user.Email, user.Username, code); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

// ResetPassword consumes a valid reset code and stores the new password
func (s *UserService) ResetPassword(address, code, newPassword string) error {
	address = strings.ToLower(strings.TrimSpace(address))

	var user models.User
	err := s.db.Where("email = ?", address).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBadResetCode
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	var reset models.PasswordResetCode
	err = s.db.Where("user_id = ? AND code_hash = ? AND used_at IS NULL AND expires_at > ?",
		user.ID, hashResetCode(code), time.Now().UTC()).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBadResetCode
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset code: %w", err)
	}

	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Model(&reset).Update("used_at", now).Error; err != nil {
			return fmt.Errorf("failed to consume reset code: %w", err)
		}
		if err := tx.Model(&user).Update("password_hash", hash).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		// Invalidate every live session
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		return nil
	})
}

// GetUser loads a single user by id
func (s *UserService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UserFilter holds the admin listing filters
type UserFilter struct {
	Search string
	Role   models.Role
	Status models.UserStatus
	Page   int
	Limit  int
}

// ListUsers returns users matching the conjunction of the given filters
func (s *UserService) ListUsers(filter UserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR display_name LIKE ?", like, like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var users []models.User
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// UpdateStatus sets a user's moderation status. Banning clears sessions.
func (s *UserService) UpdateStatus(userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	if !models.ValidUserStatus(status) {
		return nil, ErrInvalidInput
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if status == models.UserBanned {
			if err := tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
				return fmt.Errorf("failed to clear sessions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.Status = status
	return user, nil
}

// UpdateRole sets a user's role
func (s *UserService) UpdateRole(userID uuid.UUID, role models.Role) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidInput
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role
	return user, nil
}

// DeleteUser removes an account and all dependent rows in one transaction.
// Labels the user created survive with their creator reference nulled out;
// everything personal goes with the account.
func (s *UserService) DeleteUser(userID uuid.UUID) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Content and its dependents
		var contentIDs []uuid.UUID
		if err := tx.Model(&models.Content{}).Where("author_id = ?", userID).Pluck("id", &contentIDs).Error; err != nil {
			return fmt.Errorf("failed to collect content ids: %w", err)
		}
		if len(contentIDs) > 0 {
			for _, m := range []interface{}{
				&models.ContentTag{}, &models.Reference{}, &models.Comment{},
				&models.Vote{}, &models.Bookmark{}, &models.ReadLater{},
			} {
				if err := tx.Where("content_id IN ?", contentIDs).Delete(m).Error; err != nil {
					return fmt.Errorf("failed to delete content dependents: %w", err)
				}
			}
			if err := tx.Where("author_id = ?", userID).Delete(&models.Content{}).Error; err != nil {
				return fmt.Errorf("failed to delete contents: %w", err)
			}
		}

		// Rows the user owns directly
		if err := tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PasswordResetCode{}).Error; err != nil {
			return fmt.Errorf("failed to delete reset codes: %w", err)
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Bookmark{}).Error; err != nil {
			return fmt.Errorf("failed to delete bookmarks: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ReadLater{}).Error; err != nil {
			return fmt.Errorf("failed to delete read-later entries: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}

		// Labels survive; drop the creator attribution
		if err := tx.Model(&models.Tag{}).Where("creator_id = ?", userID).Update("creator_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach tags: %w", err)
		}
		if err := tx.Model(&models.Category{}).Where("creator_id = ?", userID).Update("creator_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach categories: %w", err)
		}

		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// EnableTwoFactor stores a verified TOTP secret on the account
func (s *UserService) EnableTwoFactor(userID uuid.UUID, secret string) error {
	return s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"two_factor_enabled": true,
		"two_factor_secret":  secret,
	}).Error
}

func hashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
