package database

import (
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPersistentModels_IncludesJoinTable(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.PostCategory); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include PostCategory")
}

func TestAutoMigrateCreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, runAutoMigrate(db))

	for _, table := range []string{"users", "posts", "categories", "post_categories", "comments", "reactions"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.False(t, db.Migrator().HasColumn(&models.Post{}, "comments_count"))
	assert.True(t, db.Migrator().HasIndex(&models.Reaction{}, "idx_reactions_user_post"))
}
