package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment represents a comment on a content item, optionally replying to
// another comment
type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	ContentID uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"`
	Body      string     `gorm:"size:2000;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Content Content `gorm:"constraint:OnDelete:CASCADE"`
	Author  User    `gorm:"foreignKey:AuthorID"`
}

// VoteType is the direction of a vote
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// ValidVoteType reports whether t is a known vote type
func ValidVoteType(t VoteType) bool {
	return t == VoteUp || t == VoteDown
}

// Vote represents a single user's vote on a content item.
// At most one row exists per (user, content) pair.
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_content"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_content"`
	Type      VoteType  `gorm:"size:10;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	User    User    `gorm:"constraint:OnDelete:CASCADE"`
	Content Content `gorm:"constraint:OnDelete:CASCADE"`
}

// Bookmark marks a content item saved by a user
type Bookmark struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_content"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_content"`
	CreatedAt time.Time

	// Relations
	User    User    `gorm:"constraint:OnDelete:CASCADE"`
	Content Content `gorm:"constraint:OnDelete:CASCADE"`
}

// ReadLater queues a content item for later reading
type ReadLater struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_read_later_user_content"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_read_later_user_content"`
	Done      bool      `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	User    User    `gorm:"constraint:OnDelete:CASCADE"`
	Content Content `gorm:"constraint:OnDelete:CASCADE"`
}

// NotificationType tags the event that produced a notification
type NotificationType string

const (
	NotifyTagApproved      NotificationType = "tag_approved"
	NotifyTagRejected      NotificationType = "tag_rejected"
	NotifyCategoryApproved NotificationType = "category_approved"
	NotifyCategoryRejected NotificationType = "category_rejected"
	NotifyComment          NotificationType = "comment"
)

// Notification is a message addressed to a single user
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type      NotificationType `gorm:"size:30;not null"`
	Message   string           `gorm:"size:500;not null"`
	Read      bool             `gorm:"default:false;index"`
	CreatedAt time.Time

	// Relations
	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate hooks for UUID generation
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (b *Bookmark) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (r *ReadLater) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
