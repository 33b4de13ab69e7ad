package seed

import (
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/testutil"
	"inkwell/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCategories(t *testing.T) {
	categories, err := DefaultCategories()
	require.NoError(t, err)
	require.NotEmpty(t, categories)

	seen := map[string]bool{}
	for _, c := range categories {
		assert.NotEmpty(t, c.Title)
		assert.NoError(t, validation.ValidateSlug(c.Slug), c.Slug)
		assert.False(t, seen[c.Slug], "duplicate slug %s", c.Slug)
		seen[c.Slug] = true
	}
}

func TestCategoriesIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, Categories(db))
	require.NoError(t, db.Model(&models.Category{}).Where("slug = ?", "go").Update("title", "Golang").Error)
	require.NoError(t, Categories(db))

	defaults, err := DefaultCategories()
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaults)), count)

	var golang models.Category
	require.NoError(t, db.Where("slug = ?", "go").First(&golang).Error)
	assert.Equal(t, "Go", golang.Title)
}

func TestBuildPost_TimestampsAndState(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, MaxDays: 30, RandSeed: 7})
	user := &models.User{ID: 1}

	for i := 0; i < 50; i++ {
		p := f.BuildPost(user)
		assert.NoError(t, validation.ValidateSlug(p.Slug), p.Slug)
		assert.LessOrEqual(t, time.Since(p.CreatedAt), 31*24*time.Hour)

		switch p.Status {
		case models.PostStatusDraft:
			assert.Nil(t, p.PublishedAt)
			assert.False(t, p.Archived)
		case models.PostStatusPublished:
			require.NotNil(t, p.PublishedAt)
			assert.False(t, p.PublishedAt.Before(p.CreatedAt))
		default:
			t.Fatalf("unexpected status %q", p.Status)
		}
	}
}

func TestSeederRun(t *testing.T) {
	db := testutil.NewDB(t)
	opts := Options{
		NumUsers:        6,
		NumPosts:        20,
		MaxComments:     6,
		MaxDays:         10,
		SkipBcrypt:      true,
		RandSeed:        42,
		MaxReplyDepth:   3,
		ReactionPercent: 50,
	}

	res, err := NewSeeder(db, opts).Run()
	require.NoError(t, err)
	assert.Equal(t, 6, res.Users)
	assert.Equal(t, 20, res.Posts)

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	assert.Len(t, comments, res.Comments)

	byID := make(map[uint]models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}
	for _, c := range comments {
		var post models.Post
		require.NoError(t, db.First(&post, c.PostID).Error)
		assert.Equal(t, models.PostStatusPublished, post.Status, "comments only land on published posts")

		if c.ParentID == nil {
			continue
		}
		parent, ok := byID[*c.ParentID]
		require.True(t, ok)
		assert.Equal(t, c.PostID, parent.PostID, "replies stay on their parent's post")
		assert.True(t, c.CreatedAt.After(parent.CreatedAt))
	}

	var reactions int64
	require.NoError(t, db.Model(&models.Reaction{}).Count(&reactions).Error)
	assert.Equal(t, int64(res.Reactions), reactions)

	// A second run with cleaning replaces content and keeps categories.
	opts.ShouldClean = true
	opts.NumPosts = 3
	_, err = NewSeeder(db, opts).Run()
	require.NoError(t, err)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(3), posts)

	var categories int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	assert.NotZero(t, categories)
}
