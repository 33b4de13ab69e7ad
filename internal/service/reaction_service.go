package service

import (
	"context"
	"time"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
)

type ReactionService struct {
	reactionRepo repository.ReactionRepository
	postRepo     repository.PostRepository
	events       EventPublisher
	now          func() time.Time
}

func NewReactionService(reactionRepo repository.ReactionRepository, postRepo repository.PostRepository, events EventPublisher) *ReactionService {
	if events == nil {
		events = noopPublisher{}
	}
	return &ReactionService{reactionRepo: reactionRepo, postRepo: postRepo, events: events, now: utcNow}
}

// Summary returns reaction counts on a published post and viewerID's own
// reaction. viewerID is zero for anonymous callers.
func (s *ReactionService) Summary(ctx context.Context, postID, viewerID uint) (*models.ReactionSummary, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeDetail, 0)); err != nil {
		return nil, err
	}
	return s.reactionRepo.Summary(ctx, postID, viewerID)
}

// SetReaction replaces the caller's reaction on a post. An empty value
// removes it.
func (s *ReactionService) SetReaction(ctx context.Context, userID, postID uint, raw string) (*models.ReactionSummary, error) {
	reaction, ok := models.ParseReactionType(raw)
	if !ok {
		return nil, models.NewValidationError("Invalid reaction type")
	}
	if _, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeDetail, 0)); err != nil {
		return nil, err
	}
	if err := s.reactionRepo.Set(ctx, userID, postID, reaction, s.now()); err != nil {
		return nil, err
	}

	summary, err := s.reactionRepo.Summary(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	s.events.PublishPostEvent(ctx, postID, notifications.EventReactionUpdated, map[string]interface{}{
		"post_id": postID,
		"counts":  summary.Counts,
	})
	return summary, nil
}
