package service

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionService(t *testing.T) {
	db := testutil.NewDB(t)
	events := &recordingPublisher{}
	svc := NewReactionService(repository.NewReactionRepository(db), repository.NewPostRepository(db), events)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)
	draft := testutil.CreatePost(t, db, alice.ID, models.PostStatusDraft, false)

	_, err := svc.SetReaction(ctx, bob.ID, post.ID, "love")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.SetReaction(ctx, bob.ID, draft.ID, "like")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	summary, err := svc.SetReaction(ctx, bob.ID, post.ID, "like")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts[models.ReactionLike])
	require.NotNil(t, summary.UserReaction)

	summary, err = svc.SetReaction(ctx, bob.ID, post.ID, "dislike")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Counts[models.ReactionLike])
	assert.Equal(t, 1, summary.Counts[models.ReactionDislike])

	anon, err := svc.Summary(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, anon.UserReaction)

	summary, err = svc.SetReaction(ctx, bob.ID, post.ID, "")
	require.NoError(t, err)
	assert.Nil(t, summary.UserReaction)

	assert.Equal(t, []string{"reaction_updated", "reaction_updated", "reaction_updated"}, events.types())
}
