package repository

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Category{Title: "Rust", Slug: "rust"}))
	require.NoError(t, repo.Create(ctx, &models.Category{Title: "Go", Slug: "go"}))

	err := repo.Create(ctx, &models.Category{Title: "Golang", Slug: "go"})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Go", all[0].Title)

	got, err := repo.GetBySlug(ctx, "rust")
	require.NoError(t, err)
	assert.Equal(t, "Rust", got.Title)

	_, err = repo.GetBySlug(ctx, "cobol")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
