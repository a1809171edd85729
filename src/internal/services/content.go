package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/database/models"
)

// ContentService handles posts, mindmaps, and research documents
type ContentService struct {
	db  *gorm.DB
	cfg *viper.Viper
}

// NewContentService creates a new content service
func NewContentService(db *gorm.DB, cfg *viper.Viper) *ContentService {
	return &ContentService{
		db:  db,
		cfg: cfg,
	}
}

// CreateContentInput represents input for creating a content item
type CreateContentInput struct {
	Kind        models.ContentKind
	Title       string
	Description string
	Body        string
	Status      models.ContentStatus
	CategoryID  *uuid.UUID
	Tags        []string
	References  []CreateReferenceInput
}

// CreateReferenceInput represents a citation on a research document
type CreateReferenceInput struct {
	Title string
	URL   string
	Note  string
}

// UpdateContentInput carries partial updates; nil fields are left unchanged
type UpdateContentInput struct {
	Title       *string
	Description *string
	Body        *string
	Status      *models.ContentStatus
	CategoryID  *uuid.UUID
	Tags        []string
}

// ContentFilter holds the optional listing filters
type ContentFilter struct {
	Kind     models.ContentKind
	Search   string
	Statuses []models.ContentStatus
	Category *uuid.UUID
	Tag      string
	Page     int
	Limit    int
}

// ContentListItem is a listing row with joined author and category names
// and the merged tag set
type ContentListItem struct {
	models.Content
	AuthorEmail  string   `json:"author_email"`
	CategoryName string   `json:"category_name"`
	TagNames     []string `json:"tags"`
}

// CreateContent creates a content item with its tag and reference
// associations in one transaction
func (s *ContentService) CreateContent(authorID uuid.UUID, input CreateContentInput) (*models.Content, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, ErrInvalidInput
	}
	if !models.ValidContentKind(input.Kind) {
		return nil, ErrInvalidInput
	}
	if input.Status == "" {
		input.Status = models.ContentDraft
	}
	if !models.ValidContentStatus(input.Status) {
		return nil, ErrInvalidInput
	}

	// Mindmap bodies are stored as a JSON node graph
	if input.Kind == models.KindMindmap && input.Body != "" {
		if !json.Valid([]byte(input.Body)) {
			return nil, ErrInvalidInput
		}
	}

	// References only make sense on research documents
	if input.Kind != models.KindResearch && len(input.References) > 0 {
		return nil, ErrInvalidInput
	}

	if input.CategoryID != nil {
		var count int64
		if err := s.db.Model(&models.Category{}).Where("id = ?", *input.CategoryID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
		if count == 0 {
			return nil, ErrNotFound
		}
	}

	content := &models.Content{
		Kind:        input.Kind,
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Body:        input.Body,
		Status:      input.Status,
		AuthorID:    authorID,
		CategoryID:  input.CategoryID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(content).Error; err != nil {
			return fmt.Errorf("failed to create content: %w", err)
		}

		if err := s.attachTags(tx, content.ID, input.Tags, authorID); err != nil {
			return err
		}

		for _, ref := range input.References {
			title := strings.TrimSpace(ref.Title)
			if title == "" {
				continue
			}
			reference := &models.Reference{
				ContentID: content.ID,
				Title:     title,
				URL:       strings.TrimSpace(ref.URL),
				Note:      strings.TrimSpace(ref.Note),
			}
			if err := tx.Create(reference).Error; err != nil {
				return fmt.Errorf("failed to create reference: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetContent(content.ID)
}

// GetContent loads a single content item with its associations
func (s *ContentService) GetContent(id uuid.UUID) (*models.Content, error) {
	var content models.Content
	err := s.db.Preload("Author").
		Preload("Category").
		Preload("Tags").
		Preload("References").
		First(&content, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return &content, nil
}

// ListContent returns content rows matching the conjunction of the given
// filters, with author email and category name joined in and tag names
// grouped per content id and merged in-memory.
func (s *ContentService) ListContent(filter ContentFilter) ([]ContentListItem, int64, error) {
	query := s.db.Model(&models.Content{}).
		Select("contents.*, users.email AS author_email, categories.name AS category_name").
		Joins("LEFT JOIN users ON users.id = contents.author_id").
		Joins("LEFT JOIN categories ON categories.id = contents.category_id")

	if filter.Kind != "" {
		query = query.Where("contents.kind = ?", filter.Kind)
	}

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("contents.title LIKE ? OR contents.description LIKE ?", like, like)
	}

	if len(filter.Statuses) > 0 {
		query = query.Where("contents.status IN ?", filter.Statuses)
	}

	if filter.Category != nil {
		query = query.Where("contents.category_id = ?", *filter.Category)
	}

	if filter.Tag != "" {
		query = query.Where(
			"contents.id IN (?)",
			s.db.Model(&models.ContentTag{}).
				Select("content_tags.content_id").
				Joins("JOIN tags ON tags.id = content_tags.tag_id").
				Where("tags.name = ?", NormalizeTagName(filter.Tag)),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count content: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var items []ContentListItem
	err := query.Order("contents.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}

	if err := s.mergeTagNames(items); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// mergeTagNames fetches tag names for the listed content ids in one query
// and attaches them to the matching rows
func (s *ContentService) mergeTagNames(items []ContentListItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
		items[i].TagNames = []string{}
	}

	var rows []struct {
		ContentID uuid.UUID
		Name      string
	}
	err := s.db.Model(&models.ContentTag{}).
		Select("content_tags.content_id, tags.name").
		Joins("JOIN tags ON tags.id = content_tags.tag_id").
		Where("content_tags.content_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to fetch tag names: %w", err)
	}

	byContent := make(map[uuid.UUID][]string, len(items))
	for _, row := range rows {
		byContent[row.ContentID] = append(byContent[row.ContentID], row.Name)
	}
	for i := range items {
		if names, ok := byContent[items[i].ID]; ok {
			items[i].TagNames = names
		}
	}
	return nil
}

// UpdateContent applies a partial update. Only the author or an admin may
// mutate; passing Tags replaces the full tag set. The item must carry the
// given kind so a route for one kind cannot touch another.
func (s *ContentService) UpdateContent(id uuid.UUID, kind models.ContentKind, callerID uuid.UUID, callerRole models.Role, input UpdateContentInput) (*models.Content, error) {
	var content models.Content
	if err := s.db.First(&content, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if content.Kind != kind {
		return nil, ErrNotFound
	}

	if content.AuthorID != callerID && callerRole != models.RoleAdmin {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Body != nil {
		if content.Kind == models.KindMindmap && *input.Body != "" && !json.Valid([]byte(*input.Body)) {
			return nil, ErrInvalidInput
		}
		updates["body"] = *input.Body
	}
	if input.Status != nil {
		if !models.ValidContentStatus(*input.Status) {
			return nil, ErrInvalidInput
		}
		updates["status"] = *input.Status
	}
	if input.CategoryID != nil {
		var count int64
		if err := s.db.Model(&models.Category{}).Where("id = ?", *input.CategoryID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
		if count == 0 {
			return nil, ErrNotFound
		}
		updates["category_id"] = *input.CategoryID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&content).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update content: %w", err)
			}
		}

		if input.Tags != nil {
			if err := tx.Where("content_id = ?", content.ID).Delete(&models.ContentTag{}).Error; err != nil {
				return fmt.Errorf("failed to clear tags: %w", err)
			}
			if err := s.attachTags(tx, content.ID, input.Tags, callerID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetContent(id)
}

// DeleteContent removes a content item with its associations in one
// transaction. Only the author or an admin may delete, and the item must
// carry the given kind.
func (s *ContentService) DeleteContent(id uuid.UUID, kind models.ContentKind, callerID uuid.UUID, callerRole models.Role) error {
	var content models.Content
	if err := s.db.First(&content, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load content: %w", err)
	}
	if content.Kind != kind {
		return ErrNotFound
	}

	if content.AuthorID != callerID && callerRole != models.RoleAdmin {
		return ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", id).Delete(&models.ContentTag{}).Error; err != nil {
			return fmt.Errorf("failed to delete tag associations: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Reference{}).Error; err != nil {
			return fmt.Errorf("failed to delete references: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return fmt.Errorf("failed to delete bookmarks: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.ReadLater{}).Error; err != nil {
			return fmt.Errorf("failed to delete read-later entries: %w", err)
		}
		if err := tx.Delete(&content).Error; err != nil {
			return fmt.Errorf("failed to delete content: %w", err)
		}
		return nil
	})
}

// IncrementViewCount bumps a content item's view counter
func (s *ContentService) IncrementViewCount(id uuid.UUID) {
	s.db.Model(&models.Content{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
}

// attachTags links the named tags to a content item, creating missing tags
// as approved labels credited to the author
func (s *ContentService) attachTags(tx *gorm.DB, contentID uuid.UUID, tagNames []string, creatorID uuid.UUID) error {
	for _, tagName := range tagNames {
		tagName = NormalizeTagName(tagName)
		if tagName == "" {
			continue
		}

		var tag models.Tag
		err := tx.Where("name = ?", tagName).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{
				Name:      tagName,
				Status:    models.LabelApproved,
				CreatorID: &creatorID,
			}
			if err := tx.Create(&tag).Error; err != nil {
				return fmt.Errorf("failed to create tag: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to look up tag: %w", err)
		}

		link := models.ContentTag{ContentID: contentID, TagID: tag.ID}
		if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}
	return nil
}
