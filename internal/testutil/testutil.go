// Package testutil provides shared database fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns an in-memory sqlite database with the full schema and
// foreign keys enforced. A single connection keeps the memory database alive.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.PrepareJoinTables(db))
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user named name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username: name,
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post owned by userID in the given state.
func CreatePost(t *testing.T, db *gorm.DB, userID uint, status models.PostStatus, archived bool) *models.Post {
	t.Helper()
	var seq int64
	require.NoError(t, db.Model(&models.Post{}).Count(&seq).Error)

	p := &models.Post{
		UserID:   userID,
		Title:    fmt.Sprintf("Post %d", seq+1),
		Slug:     fmt.Sprintf("post-%d-%d", userID, seq+1),
		Content:  "content",
		Status:   status,
		Archived: archived,
	}
	if status == models.PostStatusPublished {
		now := time.Now().Add(time.Duration(seq) * time.Second)
		p.PublishedAt = &now
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment, optionally as a reply to parentID.
func CreateComment(t *testing.T, db *gorm.DB, postID, userID uint, parentID *uint, createdAt time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PostID:    postID,
		UserID:    userID,
		ParentID:  parentID,
		Content:   "comment",
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}
