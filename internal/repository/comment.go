package repository

import (
	"context"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, ownerID uint, content string, editedAt time.Time) (*models.Comment, error)
	Delete(ctx context.Context, id, ownerID uint) (*models.Comment, []uint, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()

	if err := r.db.WithContext(ctx).Omit("User", "Post", "Parent").Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create", "post_id", comment.PostID)
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Preload("User").First(comment, comment.ID).Error; err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, comment.PostID)
	r.log.LogWrite(ctx, "create", "comment_id", comment.ID, "post_id", comment.PostID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translate(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns every comment on a post, oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	defer observability.TrackQuery("list", "comments")()

	var comments []models.Comment
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// UpdateContent edits a comment owned by ownerID and stamps edited_at.
func (r *commentRepository) UpdateContent(ctx context.Context, id, ownerID uint, content string, editedAt time.Time) (*models.Comment, error) {
	defer observability.TrackQuery("update", "comments")()

	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Scopes(ownedBy(ownerID)).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"content": content, "edited_at": editedAt})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update", "comment_id", id)
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return r.GetByID(ctx, id)
}

// Delete removes an owned comment and every reply beneath it. It returns the
// removed comment and the ids of everything deleted.
func (r *commentRepository) Delete(ctx context.Context, id, ownerID uint) (*models.Comment, []uint, error) {
	defer observability.TrackQuery("delete", "comments")()
	ctx, span := observability.TraceRepositoryMethod(ctx, "Delete", "comments")
	defer span.End()

	var (
		comment models.Comment
		ids     []uint
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(ownedBy(ownerID)).Where("id = ?", id).First(&comment).Error; err != nil {
			return err
		}
		var err error
		ids, err = threadIDs(tx, "SELECT id FROM comments WHERE id = ?", id)
		if err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return nil, nil, translate(err, "Comment", id)
	}

	cache.InvalidatePost(ctx, comment.PostID)
	r.log.LogWrite(ctx, "delete", "comment_id", id, "removed", len(ids))
	return &comment, ids, nil
}
