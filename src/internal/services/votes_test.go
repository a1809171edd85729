package services

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/casnotes/src/internal/cache"
	"github.com/casapps/casnotes/src/internal/database/models"
)

func TestVoteToggle(t *testing.T) {
	db := setupTestDB(t)
	service := NewVoteService(db, cache.NewCacheManager(viper.New()))
	author := createTestUser(t, db, "author", models.RoleCreator)
	voter := createTestUser(t, db, "voter", models.RoleConsumer)

	content := &models.Content{
		Kind:     models.KindPost,
		Title:    "Votable",
		Body:     "body",
		Status:   models.ContentPublished,
		AuthorID: author.ID,
	}
	require.NoError(t, db.Create(content).Error)

	t.Run("FirstVoteCreates", func(t *testing.T) {
		vote, err := service.Toggle(voter.ID, content.ID, models.VoteUp)
		require.NoError(t, err)
		require.NotNil(t, vote)
		assert.Equal(t, models.VoteUp, vote.Type)

		counts, err := service.Counts(content.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts.Up)
		assert.Equal(t, int64(0), counts.Down)
	})

	t.Run("OppositeVoteReplaces", func(t *testing.T) {
		vote, err := service.Toggle(voter.ID, content.ID, models.VoteDown)
		require.NoError(t, err)
		require.NotNil(t, vote)
		assert.Equal(t, models.VoteDown, vote.Type)

		var count int64
		require.NoError(t, db.Model(&models.Vote{}).
			Where("user_id = ? AND content_id = ?", voter.ID, content.ID).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("SameVoteRemoves", func(t *testing.T) {
		vote, err := service.Toggle(voter.ID, content.ID, models.VoteDown)
		require.NoError(t, err)
		assert.Nil(t, vote)

		counts, err := service.Counts(content.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), counts.Up)
		assert.Equal(t, int64(0), counts.Down)
	})

	t.Run("UserVoteNilWhenNone", func(t *testing.T) {
		vote, err := service.UserVote(voter.ID, content.ID)
		require.NoError(t, err)
		assert.Nil(t, vote)
	})
}
