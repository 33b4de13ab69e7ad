// Package seed provides database seeding utilities for development and testing.
package seed

import (
	_ "embed"
	"fmt"
	"log"

	"inkwell/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Options configures the seeder.
type Options struct {
	NumUsers        int
	NumPosts        int
	MaxComments     int
	MaxDays         int
	SkipBcrypt      bool
	DryRun          bool
	ShouldClean     bool
	RandSeed        int64
	SkipCategories  bool
	MaxReplyDepth   int
	ReactionPercent int
}

// DefaultOptions returns the settings used by cmd/seed without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:        25,
		NumPosts:        120,
		MaxComments:     12,
		MaxDays:         90,
		ShouldClean:     true,
		MaxReplyDepth:   4,
		ReactionPercent: 40,
	}
}

// DefaultCategory is one entry of the embedded category list.
type DefaultCategory struct {
	Title   string `yaml:"title"`
	Slug    string `yaml:"slug"`
	Content string `yaml:"content"`
}

// DefaultCategories parses the embedded category list.
func DefaultCategories() ([]DefaultCategory, error) {
	var out []DefaultCategory
	if err := yaml.Unmarshal(categoriesYAML, &out); err != nil {
		return nil, fmt.Errorf("parse categories.yaml: %w", err)
	}
	return out, nil
}

// Categories upserts the default categories by slug. Running it again
// refreshes titles and descriptions.
func Categories(db *gorm.DB) error {
	defaults, err := DefaultCategories()
	if err != nil {
		return err
	}
	for _, item := range defaults {
		category := models.Category{Title: item.Title, Slug: item.Slug, Content: item.Content}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "content"}),
		}).Create(&category).Error
		if err != nil {
			return fmt.Errorf("seed category %s: %w", item.Slug, err)
		}
	}
	return nil
}

// Result counts what a seeding run created.
type Result struct {
	Users     int
	Posts     int
	Comments  int
	Reactions int
}

// Seeder fills a database with demo content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.MaxReplyDepth <= 0 {
		opts.MaxReplyDepth = 1
	}
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll removes every seeded row. Categories survive unless all is set.
func (s *Seeder) ClearAll(all bool) error {
	log.Println("clearing existing data...")
	if s.opts.DryRun {
		return nil
	}
	tables := []interface{}{&models.Reaction{}, &models.Comment{}, &models.PostCategory{}, &models.Post{}, &models.User{}}
	if all {
		tables = append(tables, &models.Category{})
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Run seeds users, posts, comment threads and reactions.
func (s *Seeder) Run() (*Result, error) {
	log.Printf("seeding %d users and %d posts", s.opts.NumUsers, s.opts.NumPosts)

	if s.opts.ShouldClean {
		if err := s.ClearAll(false); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	var categories []models.Category
	if !s.opts.DryRun {
		if !s.opts.SkipCategories {
			if err := Categories(s.db); err != nil {
				return nil, err
			}
		}
		if err := s.db.Order("id").Find(&categories).Error; err != nil {
			return nil, fmt.Errorf("load categories: %w", err)
		}
	}

	res := &Result{}
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		post, err := s.factory.CreatePost(author, s.pickCategories(categories))
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		if post.Status != models.PostStatusPublished {
			continue
		}
		n, err := s.seedThread(post, users)
		if err != nil {
			return nil, err
		}
		res.Comments += n

		n, err = s.seedReactions(post, users)
		if err != nil {
			return nil, err
		}
		res.Reactions += n
	}

	log.Printf("seeded %d users, %d posts, %d comments, %d reactions",
		res.Users, res.Posts, res.Comments, res.Reactions)
	return res, nil
}

func (s *Seeder) pickCategories(all []models.Category) []models.Category {
	if len(all) == 0 {
		return nil
	}
	n := s.factory.rng.Intn(3)
	picked := make([]models.Category, 0, n)
	for _, idx := range s.factory.rng.Perm(len(all))[:min(n, len(all))] {
		picked = append(picked, all[idx])
	}
	return picked
}

// seedThread writes comments on a published post. Each comment replies to
// an earlier one on the same post with some probability, up to MaxReplyDepth.
func (s *Seeder) seedThread(post *models.Post, users []*models.User) (int, error) {
	if s.opts.MaxComments <= 0 {
		return 0, nil
	}
	count := s.factory.rng.Intn(s.opts.MaxComments + 1)

	type placed struct {
		comment *models.Comment
		depth   int
	}
	var thread []placed
	for i := 0; i < count; i++ {
		var parent *placed
		if len(thread) > 0 && s.factory.rng.Intn(2) == 0 {
			candidate := thread[s.factory.rng.Intn(len(thread))]
			if candidate.depth < s.opts.MaxReplyDepth {
				parent = &candidate
			}
		}

		author := users[s.factory.rng.Intn(len(users))]
		var parentComment *models.Comment
		depth := 1
		if parent != nil {
			parentComment = parent.comment
			depth = parent.depth + 1
		}
		comment, err := s.factory.CreateComment(author, post, parentComment)
		if err != nil {
			return i, fmt.Errorf("create comment: %w", err)
		}
		thread = append(thread, placed{comment: comment, depth: depth})
	}
	return len(thread), nil
}

func (s *Seeder) seedReactions(post *models.Post, users []*models.User) (int, error) {
	created := 0
	for _, user := range users {
		if s.factory.rng.Intn(100) >= s.opts.ReactionPercent {
			continue
		}
		kind := models.ReactionLike
		if s.factory.rng.Intn(4) == 0 {
			kind = models.ReactionDislike
		}
		if err := s.factory.CreateReaction(user, post, kind); err != nil {
			return created, fmt.Errorf("create reaction: %w", err)
		}
		created++
	}
	return created, nil
}
