package blog

import (
	"errors"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertInvalidState(t *testing.T, err error) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeInvalidState, appErr.Code)
}

func TestApplyPublish(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	post := &models.Post{ID: 1, UserID: 7, Status: models.PostStatusDraft, Archived: true}

	require.NoError(t, Apply(post, EventPublish, now))
	assert.Equal(t, models.PostStatusPublished, post.Status)
	assert.False(t, post.Archived)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, now, *post.PublishedAt)

	later := now.Add(time.Hour)
	err := Apply(post, EventPublish, later)
	assertInvalidState(t, err)
	assert.Equal(t, now, *post.PublishedAt)
}

func TestApplyArchiveCycle(t *testing.T) {
	t.Parallel()

	now := time.Now()
	published := &models.Post{Status: models.PostStatusPublished}

	require.NoError(t, Apply(published, EventArchive, now))
	assert.True(t, published.Archived)

	assertInvalidState(t, Apply(published, EventArchive, now))

	require.NoError(t, Apply(published, EventUnarchive, now))
	assert.False(t, published.Archived)

	assertInvalidState(t, Apply(published, EventUnarchive, now))
}

func TestApplyRejectsArchivingDrafts(t *testing.T) {
	t.Parallel()

	draft := &models.Post{Status: models.PostStatusDraft}
	assertInvalidState(t, Apply(draft, EventArchive, time.Now()))
	assert.False(t, draft.Archived)
}

func TestApplyEditTouchesUpdatedAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	for _, status := range []models.PostStatus{models.PostStatusDraft, models.PostStatusPublished} {
		p := &models.Post{Status: status}
		require.NoError(t, Apply(p, EventEdit, now))
		assert.Equal(t, now, p.UpdatedAt)
		assert.Equal(t, status, p.Status)
	}
}

func TestFilterVisibility(t *testing.T) {
	t.Parallel()

	posts := map[string]*models.Post{
		"draft":            {UserID: 1, Status: models.PostStatusDraft},
		"draft archived":   {UserID: 1, Status: models.PostStatusDraft, Archived: true},
		"published":        {UserID: 1, Status: models.PostStatusPublished},
		"published archiv": {UserID: 1, Status: models.PostStatusPublished, Archived: true},
		"other draft":      {UserID: 2, Status: models.PostStatusDraft},
	}

	tests := []struct {
		scope Scope
		want  []string
	}{
		{ScopePublic, []string{"published"}},
		{ScopeArchived, []string{"published archiv"}},
		{ScopeOwnerAll, []string{"draft", "draft archived", "published", "published archiv"}},
		{ScopeOwnerDrafts, []string{"draft", "draft archived"}},
		{ScopeDetail, []string{"published", "published archiv"}},
		{ScopeOwnerPreview, []string{"draft", "draft archived", "published", "published archiv"}},
	}

	for _, tt := range tests {
		filter := FilterFor(tt.scope, 1)
		var got []string
		for name, p := range posts {
			if filter.Visible(p) {
				got = append(got, name)
			}
		}
		assert.ElementsMatch(t, tt.want, got, "scope %d", tt.scope)
	}
}

func TestOwnership(t *testing.T) {
	t.Parallel()

	assert.True(t, OwnedBy(3, 3))
	assert.False(t, OwnedBy(3, 4))
	assert.False(t, OwnedBy(0, 0))

	require.NoError(t, RequireOwner("Post", 1, 3, 3))
	err := RequireOwner("Post", 1, 3, 4)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestGuardChanges(t *testing.T) {
	t.Parallel()

	now := time.Now()
	changes := Changes(EventPublish, now)
	assert.Equal(t, models.PostStatusPublished, changes["status"])
	assert.Equal(t, false, changes["archived"])
	assert.Equal(t, now, changes["published_at"])

	g := Guard(EventArchive)
	require.NotNil(t, g.Status)
	require.NotNil(t, g.Archived)
	assert.False(t, *g.Archived)
	assert.Empty(t, Guard(EventEdit))
}
