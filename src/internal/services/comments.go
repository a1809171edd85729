package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/database/models"
)

// CommentService handles comments and their tree assembly
type CommentService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewCommentService creates a new comment service
func NewCommentService(db *gorm.DB, notifications *NotificationService) *CommentService {
	return &CommentService{
		db:            db,
		notifications: notifications,
	}
}

// CommentNode is a comment with its nested replies
type CommentNode struct {
	models.Comment
	Replies []*CommentNode `json:"replies"`
}

// AddComment creates a comment on a content item. A parent comment, when
// given, must belong to the same content. The content author is notified
// unless they are commenting on their own item.
func (s *CommentService) AddComment(authorID, contentID uuid.UUID, parentID *uuid.UUID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrInvalidInput
	}

	var content models.Content
	if err := s.db.First(&content, "id = ?", contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load content: %w", err)
	}

	if parentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, "id = ?", *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
		if parent.ContentID != contentID {
			return nil, ErrInvalidInput
		}
	}

	comment := &models.Comment{
		ContentID: contentID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Body:      body,
	}
	if err := s.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if content.AuthorID != authorID {
		s.notifications.Notify(nil, content.AuthorID, models.NotifyComment,
			fmt.Sprintf("New comment on %q", content.Title))
	}

	return comment, nil
}

// GetTree fetches all comments for a content item and assembles them into
// a tree. Comments whose parent no longer exists are dropped.
func (s *CommentService) GetTree(contentID uuid.UUID) ([]*CommentNode, error) {
	var comments []models.Comment
	err := s.db.Where("content_id = ?", contentID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	return BuildCommentTree(comments), nil
}

// BuildCommentTree groups a flat, creation-ordered comment list into a
// tree. First pass builds the id->node map; second pass attaches each node
// to its parent's reply list, or to the root list when it has no parent.
// A node whose parent is missing from the map is an orphan and is omitted.
func BuildCommentTree(comments []models.Comment) []*CommentNode {
	nodes := make(map[uuid.UUID]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{
			Comment: comments[i],
			Replies: []*CommentNode{},
		}
	}

	roots := []*CommentNode{}
	for i := range comments {
		node := nodes[comments[i].ID]
		if comments[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*comments[i].ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}

	return roots
}

// DeleteComment removes a comment. Only the author or an admin may delete;
// replies keep their rows and fall out of the tree as orphans.
func (s *CommentService) DeleteComment(commentID, callerID uuid.UUID, callerRole models.Role) error {
	var comment models.Comment
	if err := s.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load comment: %w", err)
	}

	if comment.AuthorID != callerID && callerRole != models.RoleAdmin {
		return ErrForbidden
	}

	if err := s.db.Delete(&comment).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
