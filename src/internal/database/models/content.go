package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentKind distinguishes the three authorable content types
type ContentKind string

const (
	KindPost     ContentKind = "post"
	KindMindmap  ContentKind = "mindmap"
	KindResearch ContentKind = "research"
)

// ValidContentKind reports whether k is a known content kind
func ValidContentKind(k ContentKind) bool {
	switch k {
	case KindPost, KindMindmap, KindResearch:
		return true
	}
	return false
}

// ContentStatus is the publication state of a content item
type ContentStatus string

const (
	ContentDraft     ContentStatus = "draft"
	ContentPublished ContentStatus = "published"
	ContentArchived  ContentStatus = "archived"
)

// ValidContentStatus reports whether s is a known content status
func ValidContentStatus(s ContentStatus) bool {
	switch s {
	case ContentDraft, ContentPublished, ContentArchived:
		return true
	}
	return false
}

// Content represents a post, mindmap, or research document
type Content struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key"`
	Kind        ContentKind   `gorm:"size:20;not null;index"`
	Title       string        `gorm:"size:255;not null"`
	Description string        `gorm:"size:1000"`
	Body        string        `gorm:"type:text"` // mindmaps store their node graph as JSON here
	Status      ContentStatus `gorm:"size:20;default:'draft';not null;index"`
	AuthorID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	CategoryID  *uuid.UUID    `gorm:"type:uuid;index"`
	ViewCount   int64         `gorm:"default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	// Relations
	Author     User        `gorm:"foreignKey:AuthorID"`
	Category   *Category   `gorm:"foreignKey:CategoryID"`
	Tags       []Tag       `gorm:"many2many:content_tags;"`
	References []Reference `gorm:"constraint:OnDelete:CASCADE"`
	Comments   []Comment   `gorm:"constraint:OnDelete:CASCADE"`
}

// Reference is a citation attached to a research document
type Reference struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"size:255;not null"`
	URL       string    `gorm:"size:500"`
	Note      string    `gorm:"size:1000"`
	CreatedAt time.Time

	// Relations
	Content Content `gorm:"constraint:OnDelete:CASCADE"`
}

// ContentTag represents the many-to-many relationship between contents and tags
type ContentTag struct {
	ContentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time

	// Relations
	Content Content `gorm:"constraint:OnDelete:CASCADE"`
	Tag     Tag     `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate hooks
func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (r *Reference) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
