package service

import (
	"context"
	"testing"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommentService(t *testing.T) (*CommentService, *gorm.DB, *recordingPublisher) {
	t.Helper()
	db := testutil.NewDB(t)
	events := &recordingPublisher{}
	svc := NewCommentService(repository.NewCommentRepository(db), repository.NewPostRepository(db), events, 0)
	return svc, db, events
}

func TestCommentService_CreateRules(t *testing.T) {
	svc, db, _ := newCommentService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	published := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)
	other := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)
	draft := testutil.CreatePost(t, db, alice.ID, models.PostStatusDraft, false)

	root, err := svc.CreateComment(ctx, CreateCommentInput{UserID: alice.ID, PostID: other.ID, Content: "elsewhere"})
	require.NoError(t, err)

	missing := uint(9999)
	tests := []struct {
		name string
		in   CreateCommentInput
		code string
	}{
		{"empty content", CreateCommentInput{UserID: alice.ID, PostID: published.ID, Content: "  "}, models.CodeValidation},
		{"draft post", CreateCommentInput{UserID: alice.ID, PostID: draft.ID, Content: "hi"}, models.CodeNotFound},
		{"missing post", CreateCommentInput{UserID: alice.ID, PostID: 4242, Content: "hi"}, models.CodeNotFound},
		{"missing parent", CreateCommentInput{UserID: alice.ID, PostID: published.ID, ParentID: &missing, Content: "hi"}, models.CodeNotFound},
		{"parent on another post", CreateCommentInput{UserID: alice.ID, PostID: published.ID, ParentID: &root.ID, Content: "hi"}, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateComment(ctx, tt.in)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCommentService_TreeAndCascade(t *testing.T) {
	svc, db, events := newCommentService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)

	c1, err := svc.CreateComment(ctx, CreateCommentInput{UserID: alice.ID, PostID: post.ID, Content: "first"})
	require.NoError(t, err)
	c2, err := svc.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: post.ID, ParentID: &c1.ID, Content: "reply"})
	require.NoError(t, err)
	c3, err := svc.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: post.ID, Content: "second"})
	require.NoError(t, err)
	c4, err := svc.CreateComment(ctx, CreateCommentInput{UserID: alice.ID, PostID: post.ID, ParentID: &c2.ID, Content: "nested"})
	require.NoError(t, err)
	assert.Empty(t, c4.User.Email)

	tree, err := svc.Tree(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, c1.ID, tree[0].ID)
	assert.Equal(t, c3.ID, tree[1].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, c2.ID, tree[0].Replies[0].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, c4.ID, tree[0].Replies[0].Replies[0].ID)
	assert.Empty(t, tree[1].Replies)
	assert.ElementsMatch(t, []uint{c1.ID, c2.ID, c3.ID, c4.ID}, blog.Flatten(tree))

	_, err = svc.UpdateComment(ctx, bob.ID, c1.ID, "hijack")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	edited, err := svc.UpdateComment(ctx, alice.ID, c1.ID, "first, edited")
	require.NoError(t, err)
	assert.NotNil(t, edited.EditedAt)

	_, err = svc.DeleteComment(ctx, bob.ID, c1.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	ids, err := svc.DeleteComment(ctx, alice.ID, c1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{c1.ID, c2.ID, c4.ID}, ids)

	tree, err = svc.Tree(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c3.ID}, blog.Flatten(tree))

	assert.Equal(t, []string{
		"comment_created", "comment_created", "comment_created", "comment_created",
		"comment_updated", "comment_deleted",
	}, events.types())
}

func TestCommentService_TreeTooDeep(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCommentService(repository.NewCommentRepository(db), repository.NewPostRepository(db), nil, 2)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, alice.ID, models.PostStatusPublished, false)

	var parent *uint
	for i := 0; i < 3; i++ {
		c, err := svc.CreateComment(ctx, CreateCommentInput{UserID: alice.ID, PostID: post.ID, ParentID: parent, Content: "deeper"})
		require.NoError(t, err)
		parent = &c.ID
	}

	_, err := svc.Tree(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeInternal))
}
