package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/database/models"
)

// BookmarkService handles bookmarks and the read-later queue
type BookmarkService struct {
	db *gorm.DB
}

// NewBookmarkService creates a new bookmark service
func NewBookmarkService(db *gorm.DB) *BookmarkService {
	return &BookmarkService{db: db}
}

func (s *BookmarkService) contentExists(contentID uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.Content{}).Where("id = ?", contentID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check content: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBookmark saves a content item for a user
func (s *BookmarkService) AddBookmark(userID, contentID uuid.UUID) (*models.Bookmark, error) {
	if err := s.contentExists(contentID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Bookmark{}).Where("user_id = ? AND content_id = ?", userID, contentID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check bookmark: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateEntry
	}

	bookmark := &models.Bookmark{UserID: userID, ContentID: contentID}
	if err := s.db.Create(bookmark).Error; err != nil {
		return nil, fmt.Errorf("failed to create bookmark: %w", err)
	}
	return bookmark, nil
}

// RemoveBookmark deletes a user's bookmark on a content item
func (s *BookmarkService) RemoveBookmark(userID, contentID uuid.UUID) error {
	result := s.db.Where("user_id = ? AND content_id = ?", userID, contentID).Delete(&models.Bookmark{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete bookmark: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookmarks returns a user's bookmarks with content preloaded
func (s *BookmarkService) ListBookmarks(userID uuid.UUID) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := s.db.Where("user_id = ?", userID).
		Preload("Content").
		Preload("Content.Author").
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return bookmarks, nil
}

// AddReadLater queues a content item
func (s *BookmarkService) AddReadLater(userID, contentID uuid.UUID) (*models.ReadLater, error) {
	if err := s.contentExists(contentID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.ReadLater{}).Where("user_id = ? AND content_id = ?", userID, contentID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check read-later entry: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateEntry
	}

	entry := &models.ReadLater{UserID: userID, ContentID: contentID}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create read-later entry: %w", err)
	}
	return entry, nil
}

// MarkReadLaterDone flags a queued item as read
func (s *BookmarkService) MarkReadLaterDone(userID, contentID uuid.UUID) error {
	var entry models.ReadLater
	err := s.db.Where("user_id = ? AND content_id = ?", userID, contentID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up read-later entry: %w", err)
	}
	return s.db.Model(&entry).Update("done", true).Error
}

// RemoveReadLater drops a content item from the queue
func (s *BookmarkService) RemoveReadLater(userID, contentID uuid.UUID) error {
	result := s.db.Where("user_id = ? AND content_id = ?", userID, contentID).Delete(&models.ReadLater{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete read-later entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListReadLater returns a user's queue, unread first
func (s *BookmarkService) ListReadLater(userID uuid.UUID) ([]models.ReadLater, error) {
	var entries []models.ReadLater
	err := s.db.Where("user_id = ?", userID).
		Preload("Content").
		Preload("Content.Author").
		Order("done ASC, created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list read-later entries: %w", err)
	}
	return entries, nil
}
