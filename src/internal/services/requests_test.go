package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/cache"
	"github.com/casapps/casnotes/src/internal/database"
	"github.com/casapps/casnotes/src/internal/database/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateTestDB(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Status:       models.UserActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestNotificationService(db *gorm.DB) *NotificationService {
	return NewNotificationService(db, cache.NewCacheManager(viper.New()))
}

func TestTagRequestLifecycle(t *testing.T) {
	db := setupTestDB(t)
	service := NewRequestService(db, newTestNotificationService(db))
	requester := createTestUser(t, db, "requester", models.RoleCreator)

	t.Run("SubmitNormalizesName", func(t *testing.T) {
		request, err := service.SubmitTagRequest(requester.ID, "  GoLang  ")
		require.NoError(t, err)
		assert.Equal(t, "golang", request.Name)
		assert.Equal(t, models.RequestPending, request.Status)
	})

	t.Run("DuplicatePendingRejected", func(t *testing.T) {
		_, err := service.SubmitTagRequest(requester.ID, "golang")
		assert.ErrorIs(t, err, ErrDuplicateRequest)
	})

	t.Run("ApproveCreatesTagAndNotifies", func(t *testing.T) {
		requests, err := service.ListTagRequests(requester.ID, models.RequestPending)
		require.NoError(t, err)
		require.Len(t, requests, 1)

		request, tag, err := service.ApproveTagRequest(requests[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestApproved, request.Status)
		require.NotNil(t, request.DecidedAt)
		assert.Equal(t, "golang", tag.Name)
		assert.Equal(t, models.LabelApproved, tag.Status)

		var notifications []models.Notification
		require.NoError(t, db.Where("user_id = ?", requester.ID).Find(&notifications).Error)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotifyTagApproved, notifications[0].Type)
	})

	t.Run("SecondDecisionFails", func(t *testing.T) {
		requests, err := service.ListTagRequests(requester.ID, models.RequestApproved)
		require.NoError(t, err)
		require.Len(t, requests, 1)

		_, _, err = service.ApproveTagRequest(requests[0].ID)
		assert.ErrorIs(t, err, ErrRequestDecided)

		_, err = service.RejectTagRequest(requests[0].ID)
		assert.ErrorIs(t, err, ErrRequestDecided)

		// The failed second decision must not add a notification
		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("user_id = ?", requester.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("SubmitForExistingTagFails", func(t *testing.T) {
		_, err := service.SubmitTagRequest(requester.ID, "golang")
		assert.ErrorIs(t, err, ErrLabelExists)
	})

	t.Run("DecideMissingRequest", func(t *testing.T) {
		_, _, err := service.ApproveTagRequest(uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestApproveTagRequestReusesExistingTag(t *testing.T) {
	db := setupTestDB(t)
	service := NewRequestService(db, newTestNotificationService(db))
	requester := createTestUser(t, db, "requester", models.RoleCreator)

	tag := &models.Tag{Name: "golang", Status: models.LabelApproved}
	require.NoError(t, db.Create(tag).Error)

	// The request predates the tag, so submission checks do not apply
	request := &models.TagRequest{Name: "golang", RequesterID: requester.ID}
	require.NoError(t, db.Create(request).Error)

	_, approved, err := service.ApproveTagRequest(request.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, approved.ID)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "golang").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRejectTagRequestRollback(t *testing.T) {
	db := setupTestDB(t)
	service := NewRequestService(db, newTestNotificationService(db))
	requester := createTestUser(t, db, "requester", models.RoleCreator)
	author := createTestUser(t, db, "author", models.RoleCreator)

	t.Run("UnreferencedTagDeleted", func(t *testing.T) {
		tag := &models.Tag{Name: "fleeting", Status: models.LabelApproved}
		require.NoError(t, db.Create(tag).Error)
		request := &models.TagRequest{Name: "fleeting", RequesterID: requester.ID}
		require.NoError(t, db.Create(request).Error)

		_, err := service.RejectTagRequest(request.ID)
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "fleeting").Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("ReferencedTagKept", func(t *testing.T) {
		tag := &models.Tag{Name: "pinned", Status: models.LabelApproved}
		require.NoError(t, db.Create(tag).Error)

		content := &models.Content{
			Kind:     models.KindPost,
			Title:    "Uses the tag",
			Body:     "body",
			Status:   models.ContentPublished,
			AuthorID: author.ID,
		}
		require.NoError(t, db.Create(content).Error)
		require.NoError(t, db.Create(&models.ContentTag{ContentID: content.ID, TagID: tag.ID}).Error)

		request := &models.TagRequest{Name: "pinned", RequesterID: requester.ID}
		require.NoError(t, db.Create(request).Error)

		rejected, err := service.RejectTagRequest(request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestRejected, rejected.Status)

		var count int64
		require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "pinned").Count(&count).Error)
		assert.Equal(t, int64(1), count)
		require.NoError(t, db.Model(&models.ContentTag{}).Where("tag_id = ?", tag.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestCategoryRequestLifecycle(t *testing.T) {
	db := setupTestDB(t)
	service := NewRequestService(db, newTestNotificationService(db))
	requester := createTestUser(t, db, "requester", models.RoleCreator)
	author := createTestUser(t, db, "author", models.RoleCreator)

	t.Run("ApproveCreatesCategory", func(t *testing.T) {
		request, err := service.SubmitCategoryRequest(requester.ID, "Distributed Systems", "All things consensus")
		require.NoError(t, err)

		decided, category, err := service.ApproveCategoryRequest(request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestApproved, decided.Status)
		assert.Equal(t, "Distributed Systems", category.Name)
		assert.Equal(t, "All things consensus", category.Description)
	})

	t.Run("RejectReferencedCategoryKept", func(t *testing.T) {
		var category models.Category
		require.NoError(t, db.Where("name = ?", "Distributed Systems").First(&category).Error)

		content := &models.Content{
			Kind:       models.KindResearch,
			Title:      "Paxos notes",
			Body:       "body",
			Status:     models.ContentPublished,
			AuthorID:   author.ID,
			CategoryID: &category.ID,
		}
		require.NoError(t, db.Create(content).Error)

		request := &models.CategoryRequest{Name: "Distributed Systems", RequesterID: requester.ID}
		require.NoError(t, db.Create(request).Error)

		_, err := service.RejectCategoryRequest(request.ID)
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Category{}).
			Where("name = ?", "Distributed Systems").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("RejectUnreferencedCategoryDeleted", func(t *testing.T) {
		category := &models.Category{Name: "Ephemeral", Status: models.LabelApproved}
		require.NoError(t, db.Create(category).Error)
		request := &models.CategoryRequest{Name: "Ephemeral", RequesterID: requester.ID}
		require.NoError(t, db.Create(request).Error)

		_, err := service.RejectCategoryRequest(request.ID)
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Category{}).
			Where("name = ?", "Ephemeral").Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}

func TestSubmitTagRequestSurfacesLookupError(t *testing.T) {
	db := setupTestDB(t)
	service := NewRequestService(db, newTestNotificationService(db))
	requester := createTestUser(t, db, "requester", models.RoleConsumer)

	// Make the duplicate-name count fail so the guard cannot silently pass
	forced := errors.New("forced failure")
	err := db.Callback().Query().Before("gorm:query").Register("force_tag_count_failure", func(d *gorm.DB) {
		if d.Statement.Schema != nil && d.Statement.Schema.Table == "tags" {
			d.AddError(forced)
		}
	})
	require.NoError(t, err)
	defer db.Callback().Query().Remove("force_tag_count_failure")

	_, err = service.SubmitTagRequest(requester.ID, "golang")
	require.ErrorIs(t, err, forced)

	var count int64
	require.NoError(t, db.Model(&models.TagRequest{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
