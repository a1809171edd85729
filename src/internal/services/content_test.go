package services

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/casnotes/src/internal/database/models"
)

func TestCreateContent(t *testing.T) {
	db := setupTestDB(t)
	service := NewContentService(db, viper.New())
	author := createTestUser(t, db, "author", models.RoleCreator)

	t.Run("PostWithTags", func(t *testing.T) {
		content, err := service.CreateContent(author.ID, CreateContentInput{
			Kind:   models.KindPost,
			Title:  "First post",
			Body:   "hello",
			Status: models.ContentPublished,
			Tags:   []string{"Go", "testing"},
		})
		require.NoError(t, err)
		require.Len(t, content.Tags, 2)

		// Tag names are lowercased on attach
		names := []string{content.Tags[0].Name, content.Tags[1].Name}
		assert.ElementsMatch(t, []string{"go", "testing"}, names)
	})

	t.Run("TagReusedAcrossContents", func(t *testing.T) {
		content, err := service.CreateContent(author.ID, CreateContentInput{
			Kind:   models.KindPost,
			Title:  "Second post",
			Body:   "hello again",
			Status: models.ContentPublished,
			Tags:   []string{"go"},
		})
		require.NoError(t, err)
		require.Len(t, content.Tags, 1)

		var count int64
		require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "go").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("MindmapBodyMustBeJSON", func(t *testing.T) {
		_, err := service.CreateContent(author.ID, CreateContentInput{
			Kind:  models.KindMindmap,
			Title: "Broken map",
			Body:  "{not json",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = service.CreateContent(author.ID, CreateContentInput{
			Kind:  models.KindMindmap,
			Title: "Valid map",
			Body:  `{"root":{"label":"center","children":[]}}`,
		})
		assert.NoError(t, err)
	})

	t.Run("ReferencesOnlyOnResearch", func(t *testing.T) {
		refs := []CreateReferenceInput{{Title: "Paper", URL: "https://example.com/p"}}

		_, err := service.CreateContent(author.ID, CreateContentInput{
			Kind:       models.KindPost,
			Title:      "Post with refs",
			Body:       "b",
			References: refs,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)

		content, err := service.CreateContent(author.ID, CreateContentInput{
			Kind:       models.KindResearch,
			Title:      "Research with refs",
			Body:       "b",
			References: refs,
		})
		require.NoError(t, err)
		require.Len(t, content.References, 1)
		assert.Equal(t, "Paper", content.References[0].Title)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		id := author.ID // any uuid not present in categories
		_, err := service.CreateContent(author.ID, CreateContentInput{
			Kind:       models.KindPost,
			Title:      "Categorized",
			Body:       "b",
			CategoryID: &id,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListContentFilters(t *testing.T) {
	db := setupTestDB(t)
	service := NewContentService(db, viper.New())
	author := createTestUser(t, db, "author", models.RoleCreator)

	category := &models.Category{Name: "Engineering", Status: models.LabelApproved}
	require.NoError(t, db.Create(category).Error)

	mustCreate := func(title string, kind models.ContentKind, status models.ContentStatus, categorized bool, tags ...string) {
		body := "body"
		if kind == models.KindMindmap {
			body = `{"root":{"label":"center"}}`
		}
		input := CreateContentInput{
			Kind:   kind,
			Title:  title,
			Body:   body,
			Status: status,
			Tags:   tags,
		}
		if categorized {
			input.CategoryID = &category.ID
		}
		_, err := service.CreateContent(author.ID, input)
		require.NoError(t, err)
	}

	mustCreate("Alpha release notes", models.KindPost, models.ContentPublished, true, "release")
	mustCreate("Beta draft", models.KindPost, models.ContentDraft, false)
	mustCreate("Gamma mindmap", models.KindMindmap, models.ContentPublished, false, "release")
	mustCreate("Delta research", models.KindResearch, models.ContentPublished, false)

	t.Run("ByKind", func(t *testing.T) {
		items, total, err := service.ListContent(ContentFilter{Kind: models.KindPost})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 2)
	})

	t.Run("ByStatus", func(t *testing.T) {
		_, total, err := service.ListContent(ContentFilter{
			Kind:     models.KindPost,
			Statuses: []models.ContentStatus{models.ContentPublished},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("BySearch", func(t *testing.T) {
		items, total, err := service.ListContent(ContentFilter{Search: "Alpha"})
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, "Alpha release notes", items[0].Title)
	})

	t.Run("ByCategory", func(t *testing.T) {
		items, total, err := service.ListContent(ContentFilter{Category: &category.ID})
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		assert.Equal(t, "Engineering", items[0].CategoryName)
	})

	t.Run("ByTagAcrossKinds", func(t *testing.T) {
		_, total, err := service.ListContent(ContentFilter{Tag: "Release"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("ConjunctionOfFilters", func(t *testing.T) {
		_, total, err := service.ListContent(ContentFilter{
			Kind: models.KindMindmap,
			Tag:  "release",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("TagNamesMerged", func(t *testing.T) {
		items, _, err := service.ListContent(ContentFilter{Search: "Alpha"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, []string{"release"}, items[0].TagNames)
		assert.Equal(t, "author@example.com", items[0].AuthorEmail)
	})

	t.Run("Pagination", func(t *testing.T) {
		items, total, err := service.ListContent(ContentFilter{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, items, 2)
	})
}

func TestUpdateAndDeleteContent(t *testing.T) {
	db := setupTestDB(t)
	service := NewContentService(db, viper.New())
	author := createTestUser(t, db, "author", models.RoleCreator)
	stranger := createTestUser(t, db, "stranger", models.RoleCreator)

	content, err := service.CreateContent(author.ID, CreateContentInput{
		Kind:   models.KindPost,
		Title:  "Original",
		Body:   "body",
		Status: models.ContentPublished,
		Tags:   []string{"old"},
	})
	require.NoError(t, err)

	t.Run("StrangerCannotUpdate", func(t *testing.T) {
		title := "Hijacked"
		_, err := service.UpdateContent(content.ID, models.KindPost, stranger.ID, models.RoleCreator, UpdateContentInput{Title: &title})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("AuthorUpdatesAndReplacesTags", func(t *testing.T) {
		title := "Revised"
		updated, err := service.UpdateContent(content.ID, models.KindPost, author.ID, models.RoleCreator, UpdateContentInput{
			Title: &title,
			Tags:  []string{"new"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Revised", updated.Title)
		require.Len(t, updated.Tags, 1)
		assert.Equal(t, "new", updated.Tags[0].Name)
	})

	t.Run("KindMismatchLeavesItemUntouched", func(t *testing.T) {
		mindmap, err := service.CreateContent(author.ID, CreateContentInput{
			Kind:   models.KindMindmap,
			Title:  "Original map",
			Body:   `{"root":{"label":"center"}}`,
			Status: models.ContentPublished,
		})
		require.NoError(t, err)

		// A post route must not update a mindmap id
		title := "Hijacked"
		_, err = service.UpdateContent(mindmap.ID, models.KindPost, author.ID, models.RoleCreator, UpdateContentInput{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)

		reloaded, err := service.GetContent(mindmap.ID)
		require.NoError(t, err)
		assert.Equal(t, "Original map", reloaded.Title)

		// Nor delete it
		err = service.DeleteContent(mindmap.ID, models.KindPost, author.ID, models.RoleCreator)
		assert.ErrorIs(t, err, ErrNotFound)

		var count int64
		require.NoError(t, db.Model(&models.Content{}).Where("id = ?", mindmap.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		require.NoError(t, service.DeleteContent(mindmap.ID, models.KindMindmap, author.ID, models.RoleCreator))
	})

	t.Run("AdminDeletesWithDependents", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Comment{
			ContentID: content.ID, AuthorID: stranger.ID, Body: "bye",
		}).Error)

		require.NoError(t, service.DeleteContent(content.ID, models.KindPost, stranger.ID, models.RoleAdmin))

		_, err := service.GetContent(content.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var count int64
		require.NoError(t, db.Model(&models.Comment{}).Where("content_id = ?", content.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
		require.NoError(t, db.Model(&models.ContentTag{}).Where("content_id = ?", content.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}
