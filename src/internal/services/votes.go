package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/cache"
	"github.com/casapps/casnotes/src/internal/database/models"
)

// VoteService handles vote toggling and aggregation. The unique index on
// (user_id, content_id) keeps concurrent toggles from producing a second row.
type VoteService struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

// NewVoteService creates a new vote service
func NewVoteService(db *gorm.DB, cacheManager *cache.CacheManager) *VoteService {
	return &VoteService{
		db:    db,
		cache: cacheManager,
	}
}

// VoteCounts aggregates votes for a content item
type VoteCounts struct {
	ContentID uuid.UUID `json:"content_id"`
	Up        int64     `json:"up"`
	Down      int64     `json:"down"`
}

// Toggle applies a vote. Casting the same type again removes the vote;
// casting the other type switches it. Returns the resulting vote, or nil
// when the toggle removed it.
func (s *VoteService) Toggle(userID, contentID uuid.UUID, voteType models.VoteType) (*models.Vote, error) {
	if !models.ValidVoteType(voteType) {
		return nil, ErrInvalidInput
	}

	var count int64
	if err := s.db.Model(&models.Content{}).Where("id = ?", contentID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check content: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	var result *models.Vote
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Where("user_id = ? AND content_id = ?", userID, contentID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				UserID:    userID,
				ContentID: contentID,
				Type:      voteType,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			result = &vote
		case err != nil:
			return fmt.Errorf("failed to look up vote: %w", err)
		case existing.Type == voteType:
			// Same type twice removes the vote
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
			result = nil
		default:
			// Different type switches it
			if err := tx.Model(&existing).Update("type", voteType).Error; err != nil {
				return fmt.Errorf("failed to switch vote: %w", err)
			}
			existing.Type = voteType
			result = &existing
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCounts(contentID)
	return result, nil
}

// Counts returns up/down totals for a content item, served from cache when
// fresh
func (s *VoteService) Counts(contentID uuid.UUID) (*VoteCounts, error) {
	ctx := context.Background()
	key := "votes:counts:" + contentID.String()

	if s.cache != nil {
		var cached VoteCounts
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	counts := &VoteCounts{ContentID: contentID}
	err := s.db.Model(&models.Vote{}).
		Where("content_id = ? AND type = ?", contentID, models.VoteUp).
		Count(&counts.Up).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	err = s.db.Model(&models.Vote{}).
		Where("content_id = ? AND type = ?", contentID, models.VoteDown).
		Count(&counts.Down).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	if s.cache != nil {
		s.cache.SetJSON(ctx, key, counts, 30*time.Second)
	}
	return counts, nil
}

// UserVote returns the caller's current vote on a content item, if any
func (s *VoteService) UserVote(userID, contentID uuid.UUID) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.Where("user_id = ? AND content_id = ?", userID, contentID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up vote: %w", err)
	}
	return &vote, nil
}

func (s *VoteService) invalidateCounts(contentID uuid.UUID) {
	if s.cache != nil {
		s.cache.Delete(context.Background(), "votes:counts:"+contentID.String())
	}
}
