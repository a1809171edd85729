package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role defines what a user is allowed to do
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleCreator  Role = "creator"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	switch r {
	case RoleConsumer, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

// UserStatus is the moderation state of an account
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBanned  UserStatus = "banned"
	UserPending UserStatus = "pending"
)

// ValidUserStatus reports whether s is a known user status
func ValidUserStatus(s UserStatus) bool {
	switch s {
	case UserActive, UserBanned, UserPending:
		return true
	}
	return false
}

// User represents a user account
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	Username         string     `gorm:"uniqueIndex;size:39;not null"`
	Email            string     `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash     string     `gorm:"size:255;not null"`
	DisplayName      string     `gorm:"size:100"`
	Bio              string     `gorm:"size:500"`
	Role             Role       `gorm:"size:20;default:'consumer';not null"`
	Status           UserStatus `gorm:"size:20;default:'active';not null"`
	TwoFactorEnabled bool       `gorm:"default:false"`
	TwoFactorSecret  string     `gorm:"size:64"`
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`

	// Relations
	Contents      []Content      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Sessions      []Session      `gorm:"constraint:OnDelete:CASCADE"`
	Comments      []Comment      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Votes         []Vote         `gorm:"constraint:OnDelete:CASCADE"`
	Bookmarks     []Bookmark     `gorm:"constraint:OnDelete:CASCADE"`
	Notifications []Notification `gorm:"constraint:OnDelete:CASCADE"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanCreateContent reports whether the user may author content
func (u *User) CanCreateContent() bool {
	return u.Role == RoleCreator || u.Role == RoleAdmin
}

// Session represents a refresh-token session
type Session struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	RefreshToken string    `gorm:"uniqueIndex;size:128;not null"`
	IPAddress    string    `gorm:"size:45"`
	UserAgent    string    `gorm:"size:500"`
	ExpiresAt    time.Time `gorm:"not null"`
	LastUsedAt   time.Time
	CreatedAt    time.Time

	// Relations
	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// PasswordResetCode is a one-time emailed code for resetting a password
type PasswordResetCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CodeHash  string    `gorm:"size:64;not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time

	// Relations
	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate hooks for UUID generation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (p *PasswordResetCode) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
