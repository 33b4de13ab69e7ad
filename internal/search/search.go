// Package search keeps an external full-text index of public posts and
// answers queries from it, falling back to the database when it is down.
package search

import (
	"strings"
	"time"

	"inkwell/internal/models"
)

// Document is the indexed form of a public post.
type Document struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Author      string   `json:"author"`
	Categories  []string `json:"categories"`
	PublishedAt int64    `json:"published_at"`
}

// Engine is an external search backend.
type Engine interface {
	Healthy() bool
	Index(docs []Document) error
	Delete(id uint) error
	Search(query string, limit, offset int) ([]uint, error)
}

// NewDocument builds the indexed form of p.
func NewDocument(p *models.Post) Document {
	doc := Document{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		Content:     p.Content,
		Author:      p.User.Username,
		Categories:  make([]string, 0, len(p.Categories)),
	}
	for _, c := range p.Categories {
		doc.Categories = append(doc.Categories, c.Slug)
	}
	if p.PublishedAt != nil {
		doc.PublishedAt = p.PublishedAt.Unix()
	}
	return doc
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

const healthInterval = 10 * time.Second
