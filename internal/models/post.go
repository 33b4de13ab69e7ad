package models

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post represents an authored article.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Title       string     `gorm:"size:300;not null" json:"title"`
	Slug        string     `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Description string     `gorm:"size:500" json:"description"`
	Status      PostStatus `gorm:"size:16;not null;default:draft;index:idx_posts_visibility" json:"status"`
	Archived    bool       `gorm:"not null;default:false;index:idx_posts_visibility" json:"archived"`
	PublishedAt *time.Time `json:"published_at"`
	Categories  []Category `gorm:"many2many:post_categories;constraint:OnDelete:CASCADE" json:"categories"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// DislikesCount is not persisted; computed at query time
	DislikesCount int       `gorm:"->;-:migration" json:"dislikes_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsPublic reports whether the post shows up in the default public listing.
func (p *Post) IsPublic() bool {
	return p.Status == PostStatusPublished && !p.Archived
}
