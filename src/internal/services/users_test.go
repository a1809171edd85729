package services

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/email"
)

func newTestUserService(db *gorm.DB) *UserService {
	cfg := viper.New()
	return NewUserService(db, cfg, email.NewService(cfg))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	service := newTestUserService(db)

	t.Run("Register", func(t *testing.T) {
		user, err := service.Register(RegisterInput{
			Username: "alice",
			Email:    "Alice@Example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, models.RoleConsumer, user.Role)
		assert.Equal(t, models.UserActive, user.Status)
		assert.NotEqual(t, "correct-horse", user.PasswordHash)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		_, err := service.Register(RegisterInput{
			Username: "alice",
			Email:    "other@example.com",
			Password: "correct-horse",
		})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := service.Register(RegisterInput{
			Username: "alice2",
			Email:    "alice@example.com",
			Password: "correct-horse",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		_, err := service.Register(RegisterInput{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "short",
		})
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("ReservedUsername", func(t *testing.T) {
		_, err := service.Register(RegisterInput{
			Username: "admin",
			Email:    "admin@example.com",
			Password: "correct-horse",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("AuthenticateByUsernameAndEmail", func(t *testing.T) {
		user, err := service.Authenticate("alice", "correct-horse", "", nil)
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)

		_, err = service.Authenticate("Alice@Example.com", "correct-horse", "", nil)
		require.NoError(t, err)
	})

	t.Run("BadPassword", func(t *testing.T) {
		_, err := service.Authenticate("alice", "wrong", "", nil)
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		_, err := service.Authenticate("nobody", "whatever-long", "", nil)
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("BannedAccountRejected", func(t *testing.T) {
		var user models.User
		require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
		_, err := service.UpdateStatus(user.ID, models.UserBanned)
		require.NoError(t, err)

		_, err = service.Authenticate("alice", "correct-horse", "", nil)
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	service := newTestUserService(db)

	user, err := service.Register(RegisterInput{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "original-pass",
	})
	require.NoError(t, err)

	t.Run("WrongOldPassword", func(t *testing.T) {
		err := service.ChangePassword(user.ID, "not-the-one", "replacement-pass")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, service.ChangePassword(user.ID, "original-pass", "replacement-pass"))

		_, err := service.Authenticate("carol", "original-pass", "", nil)
		assert.ErrorIs(t, err, ErrBadCredentials)
		_, err = service.Authenticate("carol", "replacement-pass", "", nil)
		assert.NoError(t, err)
	})
}

func TestBanClearsSessions(t *testing.T) {
	db := setupTestDB(t)
	service := newTestUserService(db)

	user, err := service.Register(RegisterInput{
		Username: "dave",
		Email:    "dave@example.com",
		Password: "some-password",
	})
	require.NoError(t, err)

	_, err = service.CreateSession(user.ID, "refresh-token-1", "127.0.0.1", "test")
	require.NoError(t, err)

	_, err = service.UpdateStatus(user.ID, models.UserBanned)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteUserCascade(t *testing.T) {
	db := setupTestDB(t)
	service := newTestUserService(db)
	victim := createTestUser(t, db, "victim", models.RoleCreator)
	other := createTestUser(t, db, "other", models.RoleConsumer)

	seed := func(t *testing.T) (*models.Content, *models.Tag) {
		tag := &models.Tag{Name: "victims-tag", Status: models.LabelApproved, CreatorID: &victim.ID}
		require.NoError(t, db.Create(tag).Error)

		content := &models.Content{
			Kind:     models.KindResearch,
			Title:    "Victim's research",
			Body:     "body",
			Status:   models.ContentPublished,
			AuthorID: victim.ID,
		}
		require.NoError(t, db.Create(content).Error)
		require.NoError(t, db.Create(&models.ContentTag{ContentID: content.ID, TagID: tag.ID}).Error)
		require.NoError(t, db.Create(&models.Reference{ContentID: content.ID, Title: "Cited work"}).Error)
		require.NoError(t, db.Create(&models.Comment{ContentID: content.ID, AuthorID: other.ID, Body: "hi"}).Error)
		require.NoError(t, db.Create(&models.Vote{UserID: other.ID, ContentID: content.ID, Type: models.VoteUp}).Error)
		require.NoError(t, db.Create(&models.Bookmark{UserID: victim.ID, ContentID: content.ID}).Error)
		require.NoError(t, db.Create(&models.Notification{UserID: victim.ID, Type: models.NotifyComment, Message: "m"}).Error)
		return content, tag
	}

	t.Run("RemovesAllDependents", func(t *testing.T) {
		content, tag := seed(t)

		require.NoError(t, service.DeleteUser(victim.ID))

		_, err := service.GetUser(victim.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var count int64
		for _, check := range []struct {
			model interface{}
			where string
			arg   interface{}
		}{
			{&models.Content{}, "author_id = ?", victim.ID},
			{&models.ContentTag{}, "content_id = ?", content.ID},
			{&models.Reference{}, "content_id = ?", content.ID},
			{&models.Comment{}, "content_id = ?", content.ID},
			{&models.Vote{}, "content_id = ?", content.ID},
			{&models.Bookmark{}, "user_id = ?", victim.ID},
			{&models.Notification{}, "user_id = ?", victim.ID},
		} {
			require.NoError(t, db.Model(check.model).Where(check.where, check.arg).Count(&count).Error)
			assert.Equal(t, int64(0), count)
		}

		// The tag survives with its creator reference cleared
		var kept models.Tag
		require.NoError(t, db.First(&kept, "id = ?", tag.ID).Error)
		assert.Nil(t, kept.CreatorID)
	})
}

func TestDeleteUserAtomicity(t *testing.T) {
	db := setupTestDB(t)
	service := newTestUserService(db)
	victim := createTestUser(t, db, "victim", models.RoleCreator)

	content := &models.Content{
		Kind:     models.KindPost,
		Title:    "Survives the failed delete",
		Body:     "body",
		Status:   models.ContentPublished,
		AuthorID: victim.ID,
	}
	require.NoError(t, db.Create(content).Error)

	// Force the final user delete to fail so the transaction rolls back
	forced := errors.New("forced failure")
	err := db.Callback().Delete().Before("gorm:delete").Register("force_user_delete_failure", func(d *gorm.DB) {
		if d.Statement.Schema != nil && d.Statement.Schema.Table == "users" {
			d.AddError(forced)
		}
	})
	require.NoError(t, err)
	defer db.Callback().Delete().Remove("force_user_delete_failure")

	err = service.DeleteUser(victim.ID)
	require.Error(t, err)

	// Nothing was deleted
	var count int64
	require.NoError(t, db.Model(&models.Content{}).Where("author_id = ?", victim.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", victim.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
