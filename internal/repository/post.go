package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/blog"
	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// PostUpdate carries the editable fields of a post. Nil fields are left as is.
type PostUpdate struct {
	Title       *string
	Content     *string
	Description *string
	Slug        *string
	CategoryIDs *[]uint
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, categoryIDs []uint) error
	GetByID(ctx context.Context, id uint, filter blog.Filter) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string, filter blog.Filter) (*models.Post, error)
	GetPublishedByIDs(ctx context.Context, ids []uint) ([]*models.Post, error)
	List(ctx context.Context, filter blog.Filter, limit, offset int) ([]*models.Post, error)
	ListByCategory(ctx context.Context, categoryID uint, filter blog.Filter, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, query string, filter blog.Filter, limit, offset int) ([]*models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id, ownerID uint, upd PostUpdate, now time.Time) error
	Transition(ctx context.Context, id, ownerID uint, ev blog.Event, now time.Time) (bool, error)
	Delete(ctx context.Context, id, ownerID uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

const postDetailsSelect = "posts.*, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
	"(SELECT COUNT(*) FROM reactions WHERE reactions.post_id = posts.id AND reactions.type = 'like') AS likes_count, " +
	"(SELECT COUNT(*) FROM reactions WHERE reactions.post_id = posts.id AND reactions.type = 'dislike') AS dislikes_count"

// applyPostDetails adds counts and preloads the author and categories.
func applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).
		Select(postDetailsSelect).
		Preload("User").
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("categories.title ASC")
		})
}

// applyFilter turns a visibility filter into WHERE clauses.
func applyFilter(db *gorm.DB, f blog.Filter) *gorm.DB {
	if f.Status != nil {
		db = db.Where("posts.status = ?", *f.Status)
	}
	if f.Archived != nil {
		db = db.Where("posts.archived = ?", *f.Archived)
	}
	if f.OwnerID != nil {
		db = db.Scopes(ownedBy(*f.OwnerID))
	}
	return db
}

// listOrder sorts public listings by publication time and owner listings by
// creation time.
func listOrder(db *gorm.DB, f blog.Filter) *gorm.DB {
	if f.OwnerID != nil {
		return db.Order("posts.created_at DESC").Order("posts.id DESC")
	}
	return db.Order("posts.published_at DESC").Order("posts.id DESC")
}

func isPublicDetail(f blog.Filter) bool {
	return f.OwnerID == nil && f.Status != nil && *f.Status == models.PostStatusPublished && f.Archived == nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, categoryIDs []uint) error {
	defer observability.TrackQuery("create", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories", "User").Create(post).Error; err != nil {
			return err
		}
		return linkCategories(tx, post.ID, categoryIDs)
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Slug must be unique")
		}
		r.log.LogError(ctx, err, "create")
		return translate(err, "Post", post.ID)
	}
	r.log.LogWrite(ctx, "create", "post_id", post.ID)
	return nil
}

// linkCategories replaces the category links of a post. Unknown ids fail
// with a validation error.
func linkCategories(tx *gorm.DB, postID uint, categoryIDs []uint) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostCategory{}).Error; err != nil {
		return err
	}
	ids := uniqueIDs(categoryIDs)
	if len(ids) == 0 {
		return nil
	}

	var found int64
	if err := tx.Model(&models.Category{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
		return err
	}
	if int(found) != len(ids) {
		return models.NewValidationError("Unknown category")
	}

	links := make([]models.PostCategory, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.PostCategory{PostID: postID, CategoryID: id})
	}
	return tx.Create(&links).Error
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *postRepository) GetByID(ctx context.Context, id uint, filter blog.Filter) (*models.Post, error) {
	fetch := func(dest *models.Post) error {
		defer observability.TrackQuery("get", "posts")()
		q := applyFilter(applyPostDetails(r.db.WithContext(ctx)), filter)
		return translate(q.Where("posts.id = ?", id).First(dest).Error, "Post", id)
	}

	var post models.Post
	if !isPublicDetail(filter) {
		if err := fetch(&post); err != nil {
			return nil, err
		}
		return &post, nil
	}

	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return fetch(&post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string, filter blog.Filter) (*models.Post, error) {
	defer observability.TrackQuery("get_by_slug", "posts")()

	var post models.Post
	q := applyFilter(applyPostDetails(r.db.WithContext(ctx)), filter)
	if err := q.Where("posts.slug = ?", slug).First(&post).Error; err != nil {
		return nil, translate(err, "Post", slug)
	}
	return &post, nil
}

// GetPublishedByIDs loads publicly listed posts, keeping the order of ids.
// Ids that are no longer public are skipped.
func (r *postRepository) GetPublishedByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}
	defer observability.TrackQuery("get_many", "posts")()

	var posts []*models.Post
	q := applyFilter(applyPostDetails(readDB(r.db).WithContext(ctx)), blog.FilterFor(blog.ScopePublic, 0))
	if err := q.Where("posts.id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*models.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *postRepository) List(ctx context.Context, filter blog.Filter, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()

	var posts []*models.Post
	q := applyFilter(applyPostDetails(readDB(r.db).WithContext(ctx)), filter)
	if err := listOrder(q, filter).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByCategory(ctx context.Context, categoryID uint, filter blog.Filter, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("list_by_category", "posts")()

	var posts []*models.Post
	db := readDB(r.db).WithContext(ctx)
	linked := db.Model(&models.PostCategory{}).Select("post_id").Where("category_id = ?", categoryID)
	q := applyFilter(applyPostDetails(db), filter).Where("posts.id IN (?)", linked)
	if err := listOrder(q, filter).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Search(ctx context.Context, query string, filter blog.Filter, limit, offset int) ([]*models.Post, error) {
	defer observability.TrackQuery("search", "posts")()

	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	var posts []*models.Post
	q := applyFilter(applyPostDetails(readDB(r.db).WithContext(ctx)), filter).
		Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.description) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	if err := listOrder(q, filter).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Update edits a post owned by ownerID. It does not change lifecycle state.
func (r *postRepository) Update(ctx context.Context, id, ownerID uint, upd PostUpdate, now time.Time) error {
	defer observability.TrackQuery("update", "posts")()

	changes := blog.Changes(blog.EventEdit, now)
	if upd.Title != nil {
		changes["title"] = *upd.Title
	}
	if upd.Content != nil {
		changes["content"] = *upd.Content
	}
	if upd.Description != nil {
		changes["description"] = *upd.Description
	}
	if upd.Slug != nil {
		changes["slug"] = *upd.Slug
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Scopes(ownedBy(ownerID)).
			Where("id = ?", id).
			UpdateColumns(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		if upd.CategoryIDs != nil {
			return linkCategories(tx, id, *upd.CategoryIDs)
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Slug must be unique")
		}
		return translate(err, "Post", id)
	}

	cache.InvalidatePost(ctx, id)
	r.log.LogWrite(ctx, "update", "post_id", id)
	return nil
}

// Transition applies a lifecycle event as a single conditional UPDATE. It
// reports false when no owned row was in the required prior state.
func (r *postRepository) Transition(ctx context.Context, id, ownerID uint, ev blog.Event, now time.Time) (bool, error) {
	defer observability.TrackQuery("transition", "posts")()
	ctx, span := observability.TraceRepositoryMethod(ctx, "Transition", "posts")
	defer span.End()

	q := applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), blog.Filter{State: blog.Guard(ev), OwnerID: &ownerID}).
		Where("id = ?", id)
	res := q.UpdateColumns(blog.Changes(ev, now))
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "transition", "post_id", id, "event", string(ev))
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	cache.InvalidatePost(ctx, id)
	r.log.LogWrite(ctx, "transition", "post_id", id, "event", string(ev))
	return true, nil
}

// Delete removes an owned post together with its comments, reactions and
// category links.
func (r *postRepository) Delete(ctx context.Context, id, ownerID uint) error {
	defer observability.TrackQuery("delete", "posts")()
	ctx, span := observability.TraceRepositoryMethod(ctx, "Delete", "posts")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").Scopes(ownedBy(ownerID)).Where("id = ?", id).First(&post).Error; err != nil {
			return err
		}
		return deletePosts(tx, []uint{id})
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.LogError(ctx, err, "delete", "post_id", id)
		}
		return translate(err, "Post", id)
	}

	cache.InvalidatePost(ctx, id)
	r.log.LogWrite(ctx, "delete", "post_id", id)
	return nil
}

// deletePosts removes posts and everything hanging off them.
func deletePosts(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("post_id IN ?", ids).Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", ids).Delete(&models.PostCategory{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Post{}).Error
}
