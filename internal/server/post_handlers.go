package server

import (
	"context"
	"strings"

	"inkwell/internal/blog"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List published posts
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	return s.listPosts(c, blog.ScopePublic, 0)
}

// GetArchivedPosts handles GET /api/posts/archived
// @Summary List archived posts
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts/archived [get]
func (s *Server) GetArchivedPosts(c *fiber.Ctx) error {
	return s.listPosts(c, blog.ScopeArchived, 0)
}

// GetMyPosts handles GET /api/me/posts
// @Summary List the caller's posts in any state
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /me/posts [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	return s.listPosts(c, blog.ScopeOwnerAll, currentUserID(c))
}

// GetMyDrafts handles GET /api/me/drafts
// @Summary List the caller's drafts
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /me/drafts [get]
func (s *Server) GetMyDrafts(c *fiber.Ctx) error {
	return s.listPosts(c, blog.ScopeOwnerDrafts, currentUserID(c))
}

func (s *Server) listPosts(c *fiber.Ctx, scope blog.Scope, viewerID uint) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.ListPosts(c.UserContext(), scope, viewerID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search?q=...
// @Summary Search published posts
// @Tags posts
// @Produce json
// @Param q query string true "Query"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	page := parsePagination(c, 10)
	indexed := s.featureFlags.Enabled(featureflags.SearchIndex, currentUserID(c))

	posts, err := s.postService.SearchPosts(c.UserContext(), q, indexed, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a published post with its comment tree
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetPostBySlug handles GET /api/posts/slug/:slug
// @Summary Get a published post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/slug/{slug} [get]
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	detail, err := s.postService.GetPostBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetMyPost handles GET /api/me/posts/:id
// @Summary Preview one of the caller's posts in any state
// @Tags me
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /me/posts/{id} [get]
func (s *Server) GetMyPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)
	if !s.featureFlags.Enabled(featureflags.DraftPreview, userID) {
		return respondError(c, models.NewNotFoundError("Post", id))
	}

	detail, err := s.postService.GetOwnPost(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,content=string,description=string,slug=string,status=string,category_ids=[]int} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		Description string `json:"description"`
		Slug        string `json:"slug"`
		Status      string `json:"status"`
		CategoryIDs []uint `json:"category_ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      currentUserID(c),
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Slug:        strings.TrimSpace(req.Slug),
		Status:      models.PostStatus(req.Status),
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title       *string `json:"title"`
		Content     *string `json:"content"`
		Description *string `json:"description"`
		Slug        *string `json:"slug"`
		CategoryIDs *[]uint `json:"category_ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:      currentUserID(c),
		PostID:      id,
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Slug:        req.Slug,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post with its comments and reactions
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PublishPost handles POST /api/posts/:id/publish
// @Summary Publish a draft
// @Tags lifecycle
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{id}/publish [post]
func (s *Server) PublishPost(c *fiber.Ctx) error {
	return s.transition(c, s.postService.Publish)
}

// ArchivePost handles POST /api/posts/:id/archive
// @Summary Archive a published post
// @Tags lifecycle
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{id}/archive [post]
func (s *Server) ArchivePost(c *fiber.Ctx) error {
	return s.transition(c, s.postService.Archive)
}

// UnarchivePost handles POST /api/posts/:id/unarchive
// @Summary Restore an archived post
// @Tags lifecycle
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{id}/unarchive [post]
func (s *Server) UnarchivePost(c *fiber.Ctx) error {
	return s.transition(c, s.postService.Unarchive)
}

type transitionFunc func(ctx context.Context, userID, postID uint) (*models.Post, error)

func (s *Server) transition(c *fiber.Ctx, apply transitionFunc) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := apply(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
