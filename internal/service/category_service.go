package service

import (
	"context"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
	postRepo     repository.PostRepository
}

type CreateCategoryInput struct {
	Title   string
	Slug    string
	Content string
}

func NewCategoryService(categoryRepo repository.CategoryRepository, postRepo repository.PostRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, postRepo: postRepo}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	title, err := requireText("Title", in.Title, maxCategoryLen)
	if err != nil {
		return nil, err
	}
	slug := in.Slug
	if slug == "" {
		slug = validation.Slugify(title)
	}
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	category := &models.Category{Title: title, Slug: slug, Content: in.Content}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// PostsInCategory lists public posts tagged with the category slug.
func (s *CategoryService) PostsInCategory(ctx context.Context, slug string, limit, offset int) ([]*models.Post, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByCategory(ctx, category.ID, blog.FilterFor(blog.ScopePublic, 0), limit, offset)
	if err != nil {
		return nil, err
	}
	publicAuthors(posts...)
	return posts, nil
}
