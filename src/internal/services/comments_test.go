package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/casnotes/src/internal/database/models"
)

func TestBuildCommentTree(t *testing.T) {
	newComment := func(id uuid.UUID, parent *uuid.UUID) models.Comment {
		return models.Comment{ID: id, ParentID: parent, Body: "b"}
	}

	t.Run("NestsRepliesAndDropsOrphans", func(t *testing.T) {
		rootID := uuid.New()
		replyID := uuid.New()
		missingParent := uuid.New()

		tree := BuildCommentTree([]models.Comment{
			newComment(rootID, nil),
			newComment(replyID, &rootID),
			newComment(uuid.New(), &missingParent),
		})

		require.Len(t, tree, 1)
		assert.Equal(t, rootID, tree[0].ID)
		require.Len(t, tree[0].Replies, 1)
		assert.Equal(t, replyID, tree[0].Replies[0].ID)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, BuildCommentTree(nil))
	})

	t.Run("DeepNesting", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()
		c := uuid.New()

		tree := BuildCommentTree([]models.Comment{
			newComment(a, nil),
			newComment(b, &a),
			newComment(c, &b),
		})

		require.Len(t, tree, 1)
		require.Len(t, tree[0].Replies, 1)
		require.Len(t, tree[0].Replies[0].Replies, 1)
		assert.Equal(t, c, tree[0].Replies[0].Replies[0].ID)
	})
}

func TestCommentService(t *testing.T) {
	db := setupTestDB(t)
	service := NewCommentService(db, newTestNotificationService(db))
	author := createTestUser(t, db, "author", models.RoleCreator)
	commenter := createTestUser(t, db, "commenter", models.RoleConsumer)

	content := &models.Content{
		Kind:     models.KindPost,
		Title:    "A post",
		Body:     "body",
		Status:   models.ContentPublished,
		AuthorID: author.ID,
	}
	require.NoError(t, db.Create(content).Error)

	t.Run("AddNotifiesContentAuthor", func(t *testing.T) {
		comment, err := service.AddComment(commenter.ID, content.ID, nil, "nice post")
		require.NoError(t, err)
		assert.Equal(t, "nice post", comment.Body)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("user_id = ? AND type = ?", author.ID, models.NotifyComment).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("SelfCommentDoesNotNotify", func(t *testing.T) {
		_, err := service.AddComment(author.ID, content.ID, nil, "my own note")
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("user_id = ?", author.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("ParentMustMatchContent", func(t *testing.T) {
		other := &models.Content{
			Kind:     models.KindPost,
			Title:    "Another post",
			Body:     "body",
			Status:   models.ContentPublished,
			AuthorID: author.ID,
		}
		require.NoError(t, db.Create(other).Error)

		parent, err := service.AddComment(commenter.ID, other.ID, nil, "parent elsewhere")
		require.NoError(t, err)

		_, err = service.AddComment(commenter.ID, content.ID, &parent.ID, "cross-content reply")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("EmptyBodyRejected", func(t *testing.T) {
		_, err := service.AddComment(commenter.ID, content.ID, nil, "   ")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("MissingContent", func(t *testing.T) {
		_, err := service.AddComment(commenter.ID, uuid.New(), nil, "hello")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetTreeAfterParentDeletion", func(t *testing.T) {
		parent, err := service.AddComment(commenter.ID, content.ID, nil, "parent")
		require.NoError(t, err)
		reply, err := service.AddComment(author.ID, content.ID, &parent.ID, "reply")
		require.NoError(t, err)

		require.NoError(t, service.DeleteComment(parent.ID, commenter.ID, models.RoleConsumer))

		tree, err := service.GetTree(content.ID)
		require.NoError(t, err)
		for _, node := range tree {
			assert.NotEqual(t, reply.ID, node.ID)
		}
	})

	t.Run("DeleteRequiresAuthorOrAdmin", func(t *testing.T) {
		comment, err := service.AddComment(commenter.ID, content.ID, nil, "to delete")
		require.NoError(t, err)

		err = service.DeleteComment(comment.ID, author.ID, models.RoleCreator)
		assert.ErrorIs(t, err, ErrForbidden)

		require.NoError(t, service.DeleteComment(comment.ID, author.ID, models.RoleAdmin))
	})
}
