package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/database/models"
)

// RequestService manages the tag and category request lifecycle:
// submission, admin approval, and admin rejection with rollback of the
// entity an earlier approval created. Every decision runs in a single
// transaction so the status change, the label mutation, and the requester
// notification either all apply or none do.
type RequestService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewRequestService creates a new request service
func NewRequestService(db *gorm.DB, notifications *NotificationService) *RequestService {
	return &RequestService{
		db:            db,
		notifications: notifications,
	}
}

// NormalizeTagName canonicalizes a proposed tag name
func NormalizeTagName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// NormalizeCategoryName canonicalizes a proposed category name
func NormalizeCategoryName(name string) string {
	return strings.TrimSpace(name)
}

// SubmitTagRequest files a new tag proposal for admin review
func (s *RequestService) SubmitTagRequest(requesterID uuid.UUID, name string) (*models.TagRequest, error) {
	name = NormalizeTagName(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	var count int64
	if err := s.db.Model(&models.Tag{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check tag name: %w", err)
	}
	if count > 0 {
		return nil, ErrLabelExists
	}

	err := s.db.Model(&models.TagRequest{}).
		Where("name = ? AND status = ?", name, models.RequestPending).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateRequest
	}

	request := &models.TagRequest{
		Name:        name,
		RequesterID: requesterID,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag request: %w", err)
	}
	return request, nil
}

// SubmitCategoryRequest files a new category proposal for admin review
func (s *RequestService) SubmitCategoryRequest(requesterID uuid.UUID, name, description string) (*models.CategoryRequest, error) {
	name = NormalizeCategoryName(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	var count int64
	if err := s.db.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if count > 0 {
		return nil, ErrLabelExists
	}

	err := s.db.Model(&models.CategoryRequest{}).
		Where("name = ? AND status = ?", name, models.RequestPending).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateRequest
	}

	request := &models.CategoryRequest{
		Name:        name,
		Description: strings.TrimSpace(description),
		RequesterID: requesterID,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create category request: %w", err)
	}
	return request, nil
}

// ListTagRequests returns tag requests, optionally filtered by status.
// Admins pass uuid.Nil as requesterID to see everyone's.
func (s *RequestService) ListTagRequests(requesterID uuid.UUID, status models.RequestStatus) ([]models.TagRequest, error) {
	query := s.db.Model(&models.TagRequest{}).Preload("Requester")
	if requesterID != uuid.Nil {
		query = query.Where("requester_id = ?", requesterID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.TagRequest
	if err := query.Order("created_at ASC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list tag requests: %w", err)
	}
	return requests, nil
}

// ListCategoryRequests returns category requests, optionally filtered by status
func (s *RequestService) ListCategoryRequests(requesterID uuid.UUID, status models.RequestStatus) ([]models.CategoryRequest, error) {
	query := s.db.Model(&models.CategoryRequest{}).Preload("Requester")
	if requesterID != uuid.Nil {
		query = query.Where("requester_id = ?", requesterID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.CategoryRequest
	if err := query.Order("created_at ASC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list category requests: %w", err)
	}
	return requests, nil
}

// ApproveTagRequest approves a pending tag request. If a tag with the
// requested name already exists the existing tag is returned and no
// duplicate row is created.
func (s *RequestService) ApproveTagRequest(requestID uuid.UUID) (*models.TagRequest, *models.Tag, error) {
	var request models.TagRequest
	var tag models.Tag

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadPendingTagRequest(tx, requestID, &request); err != nil {
			return err
		}

		if err := decideTagRequest(tx, &request, models.RequestApproved); err != nil {
			return err
		}

		err := tx.Where("name = ?", request.Name).First(&tag).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			tag = models.Tag{
				Name:      request.Name,
				Status:    models.LabelApproved,
				CreatorID: &request.RequesterID,
			}
			if err := tx.Create(&tag).Error; err != nil {
				return fmt.Errorf("failed to create tag: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up tag: %w", err)
		}

		return s.notifications.Notify(tx, request.RequesterID, models.NotifyTagApproved,
			fmt.Sprintf("Your tag %q has been approved", request.Name))
	})
	if err != nil {
		return nil, nil, err
	}
	return &request, &tag, nil
}

// RejectTagRequest rejects a pending tag request. If a matching tag exists
// (for example from an earlier approval now being reversed) and no content
// references it, the tag and its associations are removed. A referenced tag
// is left in place so content that already uses it is not corrupted.
func (s *RequestService) RejectTagRequest(requestID uuid.UUID) (*models.TagRequest, error) {
	var request models.TagRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadPendingTagRequest(tx, requestID, &request); err != nil {
			return err
		}

		if err := decideTagRequest(tx, &request, models.RequestRejected); err != nil {
			return err
		}

		var tag models.Tag
		err := tx.Where("name = ?", request.Name).First(&tag).Error
		if err == nil {
			var refs int64
			if err := tx.Model(&models.ContentTag{}).Where("tag_id = ?", tag.ID).Count(&refs).Error; err != nil {
				return fmt.Errorf("failed to count tag references: %w", err)
			}
			if refs == 0 {
				if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.ContentTag{}).Error; err != nil {
					return fmt.Errorf("failed to delete tag associations: %w", err)
				}
				if err := tx.Delete(&tag).Error; err != nil {
					return fmt.Errorf("failed to delete tag: %w", err)
				}
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up tag: %w", err)
		}

		return s.notifications.Notify(tx, request.RequesterID, models.NotifyTagRejected,
			fmt.Sprintf("Your tag %q has been rejected", request.Name))
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ApproveCategoryRequest approves a pending category request, reusing an
// existing category of the same name when present.
func (s *RequestService) ApproveCategoryRequest(requestID uuid.UUID) (*models.CategoryRequest, *models.Category, error) {
	var request models.CategoryRequest
	var category models.Category

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadPendingCategoryRequest(tx, requestID, &request); err != nil {
			return err
		}

		if err := decideCategoryRequest(tx, &request, models.RequestApproved); err != nil {
			return err
		}

		err := tx.Where("name = ?", request.Name).First(&category).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			category = models.Category{
				Name:        request.Name,
				Description: request.Description,
				Status:      models.LabelApproved,
				CreatorID:   &request.RequesterID,
			}
			if err := tx.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up category: %w", err)
		}

		return s.notifications.Notify(tx, request.RequesterID, models.NotifyCategoryApproved,
			fmt.Sprintf("Your category %q has been approved", request.Name))
	})
	if err != nil {
		return nil, nil, err
	}
	return &request, &category, nil
}

// RejectCategoryRequest rejects a pending category request. A category
// created by an earlier approval is deleted only while no content row
// references it.
func (s *RequestService) RejectCategoryRequest(requestID uuid.UUID) (*models.CategoryRequest, error) {
	var request models.CategoryRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadPendingCategoryRequest(tx, requestID, &request); err != nil {
			return err
		}

		if err := decideCategoryRequest(tx, &request, models.RequestRejected); err != nil {
			return err
		}

		var category models.Category
		err := tx.Where("name = ?", request.Name).First(&category).Error
		if err == nil {
			var refs int64
			if err := tx.Model(&models.Content{}).Where("category_id = ?", category.ID).Count(&refs).Error; err != nil {
				return fmt.Errorf("failed to count category references: %w", err)
			}
			if refs == 0 {
				if err := tx.Delete(&category).Error; err != nil {
					return fmt.Errorf("failed to delete category: %w", err)
				}
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up category: %w", err)
		}

		return s.notifications.Notify(tx, request.RequesterID, models.NotifyCategoryRejected,
			fmt.Sprintf("Your category %q has been rejected", request.Name))
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func loadPendingTagRequest(tx *gorm.DB, id uuid.UUID, request *models.TagRequest) error {
	if err := tx.First(request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load tag request: %w", err)
	}
	if request.Status != models.RequestPending {
		return ErrRequestDecided
	}
	return nil
}

func loadPendingCategoryRequest(tx *gorm.DB, id uuid.UUID, request *models.CategoryRequest) error {
	if err := tx.First(request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load category request: %w", err)
	}
	if request.Status != models.RequestPending {
		return ErrRequestDecided
	}
	return nil
}

func decideTagRequest(tx *gorm.DB, request *models.TagRequest, status models.RequestStatus) error {
	now := time.Now().UTC()
	if err := tx.Model(request).Updates(map[string]interface{}{
		"status":     status,
		"decided_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update tag request: %w", err)
	}
	request.Status = status
	request.DecidedAt = &now
	return nil
}

func decideCategoryRequest(tx *gorm.DB, request *models.CategoryRequest, status models.RequestStatus) error {
	now := time.Now().UTC()
	if err := tx.Model(request).Updates(map[string]interface{}{
		"status":     status,
		"decided_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to update category request: %w", err)
	}
	request.Status = status
	request.DecidedAt = &now
	return nil
}
