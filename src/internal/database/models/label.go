package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LabelStatus is the moderation state of a tag or category
type LabelStatus string

const (
	LabelApproved LabelStatus = "approved"
	LabelPending  LabelStatus = "pending"
)

// Tag represents an approved, reusable label for content
type Tag struct {
	ID        uuid.UUID   `gorm:"type:uuid;primary_key"`
	Name      string      `gorm:"size:50;uniqueIndex;not null"`
	Status    LabelStatus `gorm:"size:20;default:'approved';not null"`
	CreatorID *uuid.UUID  `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Creator  *User     `gorm:"foreignKey:CreatorID"`
	Contents []Content `gorm:"many2many:content_tags;"`
}

// Category represents an approved grouping label for content
type Category struct {
	ID          uuid.UUID   `gorm:"type:uuid;primary_key"`
	Name        string      `gorm:"size:100;uniqueIndex;not null"`
	Description string      `gorm:"size:500"`
	Status      LabelStatus `gorm:"size:20;default:'approved';not null"`
	CreatorID   *uuid.UUID  `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations
	Creator  *User     `gorm:"foreignKey:CreatorID"`
	Contents []Content `gorm:"foreignKey:CategoryID"`
}

// BeforeCreate hooks
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
