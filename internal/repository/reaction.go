package repository

import (
	"context"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines persistence operations for post reactions.
type ReactionRepository interface {
	Set(ctx context.Context, userID, postID uint, reaction models.ReactionType, now time.Time) error
	Summary(ctx context.Context, postID, viewerID uint) (*models.ReactionSummary, error)
}

type reactionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReactionRepository returns a new ReactionRepository implementation.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, log: observability.NewRepoLogger("reactions")}
}

// Set stores the user's reaction on a post, replacing any previous one in a
// single statement. An empty reaction removes it.
func (r *reactionRepository) Set(ctx context.Context, userID, postID uint, reaction models.ReactionType, now time.Time) error {
	defer observability.TrackQuery("set", "reactions")()

	var err error
	if reaction == "" {
		err = r.db.WithContext(ctx).
			Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.Reaction{}).Error
	} else {
		row := models.Reaction{UserID: userID, PostID: postID, Type: reaction, CreatedAt: now}
		err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "created_at"}),
		}).Create(&row).Error
	}
	if err != nil {
		r.log.LogError(ctx, err, "set", "post_id", postID, "user_id", userID)
		return models.NewInternalError(err)
	}

	observability.ReactionsTotal.WithLabelValues(reactionLabel(reaction)).Inc()
	cache.InvalidatePost(ctx, postID)
	return nil
}

func reactionLabel(t models.ReactionType) string {
	if t == "" {
		return "none"
	}
	return string(t)
}

// Summary counts reactions on a post by type. Every known type is present in
// the result, and UserReaction is set when viewerID has reacted.
func (r *reactionRepository) Summary(ctx context.Context, postID, viewerID uint) (*models.ReactionSummary, error) {
	defer observability.TrackQuery("summary", "reactions")()

	var rows []struct {
		Type  models.ReactionType
		Count int
	}
	err := readDB(r.db).WithContext(ctx).Model(&models.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	summary := &models.ReactionSummary{PostID: postID, Counts: make(map[models.ReactionType]int, len(models.ReactionTypes))}
	for _, t := range models.ReactionTypes {
		summary.Counts[t] = 0
	}
	for _, row := range rows {
		summary.Counts[row.Type] = row.Count
	}

	if viewerID != 0 {
		var mine []models.Reaction
		err := r.db.WithContext(ctx).
			Where("post_id = ? AND user_id = ?", postID, viewerID).
			Limit(1).
			Find(&mine).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if len(mine) == 1 {
			t := mine[0].Type
			summary.UserReaction = &t
		}
	}
	return summary, nil
}
