package database

import (
	"fmt"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.PostCategory{},
		&models.Comment{},
		&models.Reaction{},
	}
}

// PrepareJoinTables registers custom join models so GORM uses them for
// many2many associations.
func PrepareJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Post{}, "Categories", &models.PostCategory{}); err != nil {
		return fmt.Errorf("setup post_categories join table: %w", err)
	}
	return nil
}
