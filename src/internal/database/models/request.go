package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of a label request.
// A request moves pending -> approved or pending -> rejected, exactly once;
// rows are never deleted.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// TagRequest is a user-submitted proposal for a new tag
type TagRequest struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key"`
	Name        string        `gorm:"size:50;not null"`
	RequesterID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status      RequestStatus `gorm:"size:20;default:'pending';not null;index"`
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations
	Requester User `gorm:"foreignKey:RequesterID"`
}

// CategoryRequest is a user-submitted proposal for a new category
type CategoryRequest struct {
	ID          uuid.UUID     `gorm:"type:uuid;primary_key"`
	Name        string        `gorm:"size:100;not null"`
	Description string        `gorm:"size:500"`
	RequesterID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status      RequestStatus `gorm:"size:20;default:'pending';not null;index"`
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations
	Requester User `gorm:"foreignKey:RequesterID"`
}

// BeforeCreate hooks
func (r *TagRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *CategoryRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
