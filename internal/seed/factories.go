package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Password-123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint

	password string
	userSeq  int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) hashedPassword() string {
	if f.password != "" {
		return f.password
	}
	if f.opts.SkipBcrypt {
		f.password = DefaultPassword
		return f.password
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		log.Printf("hash seed password: %v", err)
		f.password = DefaultPassword
		return f.password
	}
	f.password = string(hashed)
	return f.password
}

func (f *Factory) assignID(kind string, id *uint) {
	f.nextID++
	*id = f.nextID
	log.Printf("[dry-run] %s: id=%d", kind, *id)
}

// CreateUser constructs and persists a sample user. Optional overrides may
// modify it before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	person := gofakeit.Person()
	f.userSeq++
	username := fmt.Sprintf("%s%d%d", validation.Slugify(person.FirstName), gofakeit.Number(10, 99), f.userSeq)
	if len(username) > 30 {
		username = username[:30]
	}
	user := &models.User{
		Username: username,
		Name:     person.FirstName + " " + person.LastName,
		Email:    username + "@example.com",
		Password: f.hashedPassword(),
		Intro:    gofakeit.Sentence(10),
		About:    gofakeit.Paragraph(1, 3, 8, " "),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.assignID("CreateUser", &user.ID)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user without persisting it. Roughly one
// in five is left as a draft and a tenth of the published ones are archived.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	title := gofakeit.Sentence(gofakeit.Number(3, 8))
	post := &models.Post{
		UserID:      user.ID,
		Title:       title,
		Slug:        fmt.Sprintf("%s-%s", validation.Slugify(title), gofakeit.LetterN(6)),
		Content:     gofakeit.Paragraph(gofakeit.Number(2, 6), 4, 12, "\n\n"),
		Description: gofakeit.Sentence(15),
		Status:      models.PostStatusDraft,
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	post.CreatedAt = time.Now().Add(-time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute)

	if f.rng.Intn(5) > 0 {
		published := post.CreatedAt.Add(time.Duration(f.rng.Intn(48)) * time.Hour)
		if published.After(time.Now()) {
			published = time.Now()
		}
		post.Status = models.PostStatusPublished
		post.PublishedAt = &published
		post.Archived = f.rng.Intn(10) == 0
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post with the given categories.
func (f *Factory) CreatePost(user *models.User, categories []models.Category, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	post.Categories = categories

	if f.opts.DryRun {
		f.assignID("CreatePost", &post.ID)
		return post, nil
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment on post, as a reply when parent is set.
// The reply is dated after its parent so threads read in order.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	after := post.CreatedAt
	if post.PublishedAt != nil {
		after = *post.PublishedAt
	}
	if parent != nil {
		after = parent.CreatedAt
	}
	createdAt := after.Add(time.Duration(f.rng.Intn(72*60)+1) * time.Minute)

	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    user.ID,
		Content:   gofakeit.Sentence(gofakeit.Number(4, 24)),
		CreatedAt: createdAt,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.assignID("CreateComment", &comment.ID)
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReaction persists user's reaction on post.
func (f *Factory) CreateReaction(user *models.User, post *models.Post, kind models.ReactionType) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.Reaction{UserID: user.ID, PostID: post.ID, Type: kind}).Error
}
