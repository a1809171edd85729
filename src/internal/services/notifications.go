package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/cache"
	"github.com/casapps/casnotes/src/internal/database/models"
)

// NotificationService handles notification creation and delivery state
type NotificationService struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB, cacheManager *cache.CacheManager) *NotificationService {
	return &NotificationService{
		db:    db,
		cache: cacheManager,
	}
}

// Notify writes a notification for a user. The tx parameter lets callers
// include the write in a surrounding transaction; pass nil to use the
// service's own connection.
func (s *NotificationService) Notify(tx *gorm.DB, userID uuid.UUID, kind models.NotificationType, message string) error {
	if tx == nil {
		tx = s.db
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Message: message,
	}

	if err := tx.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.invalidateUnreadCount(userID)
	return nil
}

// ListForUser returns a user's notifications, unread first, newest first
func (s *NotificationService) ListForUser(userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("read ASC, created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks a single notification read. Only the addressee may do so.
func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.invalidateUnreadCount(userID)
	return nil
}

// MarkAllRead marks every unread notification for a user as read
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.invalidateUnreadCount(userID)
	return nil
}

// UnreadCount returns the number of unread notifications, served from cache
// when possible
func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	ctx := context.Background()
	key := "notifications:unread:" + userID.String()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return n, nil
			}
		}
	}

	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, count, time.Minute)
	}
	return count, nil
}

func (s *NotificationService) invalidateUnreadCount(userID uuid.UUID) {
	if s.cache != nil {
		s.cache.Delete(context.Background(), "notifications:unread:"+userID.String())
	}
}
