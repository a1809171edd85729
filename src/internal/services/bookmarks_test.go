package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/casnotes/src/internal/database/models"
)

func TestBookmarks(t *testing.T) {
	db := setupTestDB(t)
	service := NewBookmarkService(db)
	author := createTestUser(t, db, "author", models.RoleCreator)
	reader := createTestUser(t, db, "reader", models.RoleConsumer)

	content := &models.Content{
		Kind:     models.KindPost,
		Title:    "Bookmarkable",
		Body:     "body",
		Status:   models.ContentPublished,
		AuthorID: author.ID,
	}
	require.NoError(t, db.Create(content).Error)

	t.Run("AddAndList", func(t *testing.T) {
		_, err := service.AddBookmark(reader.ID, content.ID)
		require.NoError(t, err)

		bookmarks, err := service.ListBookmarks(reader.ID)
		require.NoError(t, err)
		require.Len(t, bookmarks, 1)
		assert.Equal(t, "Bookmarkable", bookmarks[0].Content.Title)
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		_, err := service.AddBookmark(reader.ID, content.ID)
		assert.ErrorIs(t, err, ErrDuplicateEntry)
	})

	t.Run("MissingContent", func(t *testing.T) {
		_, err := service.AddBookmark(reader.ID, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, service.RemoveBookmark(reader.ID, content.ID))
		assert.ErrorIs(t, service.RemoveBookmark(reader.ID, content.ID), ErrNotFound)
	})
}

func TestReadLater(t *testing.T) {
	db := setupTestDB(t)
	service := NewBookmarkService(db)
	author := createTestUser(t, db, "author", models.RoleCreator)
	reader := createTestUser(t, db, "reader", models.RoleConsumer)

	first := &models.Content{
		Kind: models.KindPost, Title: "First", Body: "b",
		Status: models.ContentPublished, AuthorID: author.ID,
	}
	second := &models.Content{
		Kind: models.KindPost, Title: "Second", Body: "b",
		Status: models.ContentPublished, AuthorID: author.ID,
	}
	require.NoError(t, db.Create(first).Error)
	require.NoError(t, db.Create(second).Error)

	t.Run("QueueAndMarkDone", func(t *testing.T) {
		_, err := service.AddReadLater(reader.ID, first.ID)
		require.NoError(t, err)
		_, err = service.AddReadLater(reader.ID, second.ID)
		require.NoError(t, err)

		require.NoError(t, service.MarkReadLaterDone(reader.ID, first.ID))

		entries, err := service.ListReadLater(reader.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		// Unread entries sort first
		assert.False(t, entries[0].Done)
		assert.Equal(t, second.ID, entries[0].ContentID)
		assert.True(t, entries[1].Done)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, service.RemoveReadLater(reader.ID, first.ID))
		assert.ErrorIs(t, service.RemoveReadLater(reader.ID, first.ID), ErrNotFound)
	})
}
