package service

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	events      EventPublisher
	maxDepth    int
	now         func() time.Time
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, events EventPublisher, maxDepth int) *CommentService {
	if events == nil {
		events = noopPublisher{}
	}
	if maxDepth <= 0 {
		maxDepth = blog.DefaultMaxDepth
	}
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		events:      events,
		maxDepth:    maxDepth,
		now:         utcNow,
	}
}

// buildTree nests comments and reports a too-deep thread as an internal error.
func buildTree(comments []models.Comment, maxDepth int) ([]*blog.CommentNode, error) {
	for i := range comments {
		comments[i].User = comments[i].User.PublicProfile()
	}
	tree, err := blog.BuildCommentTreeWithLimit(comments, maxDepth)
	if err != nil {
		if errors.Is(err, blog.ErrCommentTreeTooDeep) {
			return nil, models.NewInternalError(err)
		}
		return nil, err
	}
	observability.CommentTreeSize.Observe(float64(len(comments)))
	return tree, nil
}

// Tree returns the comment forest of a published post.
func (s *CommentService) Tree(ctx context.Context, postID uint) ([]*blog.CommentNode, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeDetail, 0)); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return buildTree(comments, s.maxDepth)
}

// CreateComment adds a comment to a published post. A parent, when given,
// must be a comment on the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (comment *models.Comment, err error) {
	ctx, end := observability.TraceServiceCall(ctx, "CommentService", "CreateComment")
	defer func() { end(err) }()

	content, err := requireText("Content", in.Content, maxCommentLen)
	if err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID, blog.FilterFor(blog.ScopeDetail, 0)); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil || parent.PostID != in.PostID {
			if err != nil && !models.HasCode(err, models.CodeNotFound) {
				return nil, err
			}
			return nil, models.NewNotFoundError("Parent comment", *in.ParentID)
		}
	}

	comment = &models.Comment{
		PostID:    in.PostID,
		UserID:    in.UserID,
		ParentID:  in.ParentID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.User = comment.User.PublicProfile()
	s.events.PublishPostEvent(ctx, comment.PostID, notifications.EventCommentCreated, comment)
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, content string) (comment *models.Comment, err error) {
	ctx, end := observability.TraceServiceCall(ctx, "CommentService", "UpdateComment")
	defer func() { end(err) }()

	content, err = requireText("Content", content, maxCommentLen)
	if err != nil {
		return nil, err
	}
	comment, err = s.commentRepo.UpdateContent(ctx, commentID, userID, content, s.now())
	if err != nil {
		return nil, err
	}
	comment.User = comment.User.PublicProfile()
	s.events.PublishPostEvent(ctx, comment.PostID, notifications.EventCommentUpdated, comment)
	return comment, nil
}

// DeleteComment removes a comment with all of its replies and returns the
// removed ids.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) (ids []uint, err error) {
	ctx, end := observability.TraceServiceCall(ctx, "CommentService", "DeleteComment")
	defer func() { end(err) }()

	removed, ids, err := s.commentRepo.Delete(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	s.events.PublishPostEvent(ctx, removed.PostID, notifications.EventCommentDeleted, map[string]interface{}{
		"id":  removed.ID,
		"ids": ids,
	})
	return ids, nil
}
