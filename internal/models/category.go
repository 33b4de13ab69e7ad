package models

import "time"

// Category is a tag attached to posts through post_categories.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Slug      string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostCategory is the association row between a post and a category.
type PostCategory struct {
	PostID     uint `gorm:"primaryKey"`
	CategoryID uint `gorm:"primaryKey;index"`
}

// TableName pins the join table name shared with the many2many tag on Post.
func (PostCategory) TableName() string {
	return "post_categories"
}
