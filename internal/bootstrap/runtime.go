// Package bootstrap prepares the database and Redis before the API or the
// command-line tools start.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedCategories bool
}

// InitRuntime connects to DB and Redis and optionally seeds the default
// categories.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May leave a nil client when Redis is unreachable.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Prepare(cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare runs the data bootstrap steps against an open database.
func Prepare(cfg *config.Config, db *gorm.DB, opts Options) error {
	if err := ensureDevAdmin(cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	if opts.SeedCategories {
		if err := seed.Categories(db); err != nil {
			return fmt.Errorf("failed to seed default categories: %w", err)
		}
	}
	return nil
}

// ensureDevAdmin creates or promotes the configured admin account in
// development. Its credentials are only rewritten when DEV_ADMIN_FORCE is set.
func ensureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "inkwell_admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@inkwell.local"
	}
	password := cfg.DevAdminPassword
	if password == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	var admin models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				Username: username,
				Name:     "Administrator",
				Email:    email,
				Password: string(hashedPassword),
				IsAdmin:  true,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		}

		updates := map[string]any{"is_admin": true}
		if cfg.DevAdminForce {
			updates["username"] = username
			updates["password"] = string(hashedPassword)
		}
		return tx.Model(&models.User{}).Where("id = ?", admin.ID).Updates(updates).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateUser(context.Background(), admin.ID)

	log.Printf("development admin bootstrap ensured for %s", email)
	return nil
}
