package service

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// PostSearcher answers public post searches.
type PostSearcher interface {
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error)
}

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	searcher    PostSearcher
	indexer     SearchIndexer
	events      EventPublisher
	maxDepth    int
	now         func() time.Time
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Content     string
	Description string
	Slug        string
	Status      models.PostStatus
	CategoryIDs []uint
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Title       *string
	Content     *string
	Description *string
	Slug        *string
	CategoryIDs *[]uint
}

// PostDetail is a post with its comment tree.
type PostDetail struct {
	*models.Post
	Comments []*blog.CommentNode `json:"comments"`
}

// PostServiceOption configures optional collaborators.
type PostServiceOption func(*PostService)

func WithSearch(searcher PostSearcher, indexer SearchIndexer) PostServiceOption {
	return func(s *PostService) {
		if searcher != nil {
			s.searcher = searcher
		}
		if indexer != nil {
			s.indexer = indexer
		}
	}
}

func WithEvents(events EventPublisher) PostServiceOption {
	return func(s *PostService) {
		if events != nil {
			s.events = events
		}
	}
}

func WithMaxCommentDepth(depth int) PostServiceOption {
	return func(s *PostService) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

func WithClock(now func() time.Time) PostServiceOption {
	return func(s *PostService) {
		s.now = now
	}
}

func NewPostService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, opts ...PostServiceOption) *PostService {
	s := &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		indexer:     noopIndexer{},
		events:      noopPublisher{},
		maxDepth:    blog.DefaultMaxDepth,
		now:         utcNow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, end := observability.TraceServiceCall(ctx, "PostService", "CreatePost")
	defer func() { end(err) }()

	title, err := requireText("Title", in.Title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	content, err := requireText("Content", in.Content, maxContentLen)
	if err != nil {
		return nil, err
	}
	if err := limitText("Description", in.Description, maxDescriptionLen); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}

	slug, err := s.resolveSlug(ctx, in.Slug, title)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		UserID:      in.UserID,
		Title:       title,
		Slug:        slug,
		Content:     content,
		Description: in.Description,
		Status:      models.PostStatusDraft,
	}
	if status == models.PostStatusPublished {
		if err := blog.Apply(post, blog.EventPublish, s.now()); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Create(ctx, post, in.CategoryIDs); err != nil {
		return nil, err
	}
	return s.reloadOwned(ctx, post.ID, in.UserID)
}

// resolveSlug validates an explicit slug, or derives a free one from title.
func (s *PostService) resolveSlug(ctx context.Context, explicit, title string) (string, error) {
	if explicit != "" {
		if err := validation.ValidateSlug(explicit); err != nil {
			return "", models.NewValidationError(err.Error())
		}
		return explicit, nil
	}

	base := validation.Slugify(title)
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 2; i < 100; i++ {
		exists, err := s.postRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		trimmed := base
		if len(trimmed)+len(suffix) > validation.MaxSlugLength {
			trimmed = trimmed[:validation.MaxSlugLength-len(suffix)]
		}
		candidate = trimmed + suffix
	}
	return "", models.NewConflictError("Slug must be unique")
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, end := observability.TraceServiceCall(ctx, "PostService", "UpdatePost")
	defer func() { end(err) }()

	upd := repository.PostUpdate{Description: in.Description, CategoryIDs: in.CategoryIDs}
	if in.Title != nil {
		title, err := requireText("Title", *in.Title, maxTitleLen)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if in.Content != nil {
		content, err := requireText("Content", *in.Content, maxContentLen)
		if err != nil {
			return nil, err
		}
		upd.Content = &content
	}
	if in.Description != nil {
		if err := limitText("Description", *in.Description, maxDescriptionLen); err != nil {
			return nil, err
		}
	}
	if in.Slug != nil {
		if err := validation.ValidateSlug(*in.Slug); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		upd.Slug = in.Slug
	}

	if err := s.postRepo.Update(ctx, in.PostID, in.UserID, upd, s.now()); err != nil {
		return nil, err
	}
	post, err = s.reloadOwned(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.IsPublic() {
		s.events.PublishPostEvent(ctx, post.ID, notifications.EventPostUpdated, post)
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) (err error) {
	ctx, end := observability.TraceServiceCall(ctx, "PostService", "DeletePost")
	defer func() { end(err) }()

	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}
	s.indexer.Remove(postID)
	return nil
}

func (s *PostService) Publish(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.transition(ctx, userID, postID, blog.EventPublish)
}

func (s *PostService) Archive(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.transition(ctx, userID, postID, blog.EventArchive)
}

func (s *PostService) Unarchive(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.transition(ctx, userID, postID, blog.EventUnarchive)
}

// transition runs one conditional update. When it matches nothing, an
// owner-scoped lookup decides between InvalidState and NotFound so that
// non-owners cannot learn that the post exists.
func (s *PostService) transition(ctx context.Context, userID, postID uint, ev blog.Event) (post *models.Post, err error) {
	ctx, end := observability.TraceServiceCall(ctx, "PostService", string(ev))
	defer func() {
		result := "ok"
		switch {
		case models.HasCode(err, models.CodeInvalidState):
			result = "invalid_state"
		case models.HasCode(err, models.CodeNotFound):
			result = "not_found"
		case err != nil:
			result = "error"
		}
		observability.PostTransitions.WithLabelValues(string(ev), result).Inc()
		end(err)
	}()

	ok, err := s.postRepo.Transition(ctx, postID, userID, ev, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeOwnerPreview, userID)); err != nil {
			return nil, err
		}
		return nil, blog.InvalidTransition(ev)
	}

	post, err = s.reloadOwned(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	switch ev {
	case blog.EventArchive:
		s.events.PublishPostEvent(ctx, postID, notifications.EventPostArchived, post)
	case blog.EventUnarchive:
		s.events.PublishPostEvent(ctx, postID, notifications.EventPostUnarchived, post)
	}
	return post, nil
}

func (s *PostService) reloadOwned(ctx context.Context, postID, userID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeOwnerPreview, userID))
	if err != nil {
		return nil, err
	}
	s.indexer.Sync(post)
	publicAuthors(post)
	return post, nil
}

// ListPosts lists posts for scope as seen by viewerID.
func (s *PostService) ListPosts(ctx context.Context, scope blog.Scope, viewerID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx, blog.FilterFor(scope, viewerID), limit, offset)
	if err != nil {
		return nil, err
	}
	publicAuthors(posts...)
	return posts, nil
}

// GetPost returns a published post, archived or not, with its comments.
func (s *PostService) GetPost(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeDetail, 0))
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, post)
}

// EnsureVisible reports NotFound unless the post is published.
func (s *PostService) EnsureVisible(ctx context.Context, postID uint) error {
	_, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeDetail, 0))
	return err
}

func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*PostDetail, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug, blog.FilterFor(blog.ScopeDetail, 0))
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, post)
}

// GetOwnPost returns one of the caller's posts in any state.
func (s *PostService) GetOwnPost(ctx context.Context, userID, postID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID, blog.FilterFor(blog.ScopeOwnerPreview, userID))
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, post)
}

func (s *PostService) detail(ctx context.Context, post *models.Post) (*PostDetail, error) {
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	tree, err := buildTree(comments, s.maxDepth)
	if err != nil {
		return nil, err
	}
	publicAuthors(post)
	return &PostDetail{Post: post, Comments: tree}, nil
}

// SearchPosts finds public posts. indexed selects the search index when one
// is configured; otherwise the database is queried directly.
func (s *PostService) SearchPosts(ctx context.Context, query string, indexed bool, limit, offset int) ([]*models.Post, error) {
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	var (
		posts []*models.Post
		err   error
	)
	if indexed && s.searcher != nil {
		posts, err = s.searcher.Search(ctx, query, limit, offset)
	} else {
		posts, err = s.postRepo.Search(ctx, query, blog.FilterFor(blog.ScopePublic, 0), limit, offset)
	}
	if err != nil {
		return nil, err
	}
	publicAuthors(posts...)
	return posts, nil
}
