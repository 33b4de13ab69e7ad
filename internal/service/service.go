// Package service holds the application logic between HTTP handlers and the
// repositories.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"inkwell/internal/models"
)

// EventPublisher delivers live events to followers of a post.
type EventPublisher interface {
	PublishPostEvent(ctx context.Context, postID uint, eventType string, payload interface{})
}

// SearchIndexer keeps the external search index in step with post writes.
type SearchIndexer interface {
	Sync(p *models.Post)
	Remove(id uint)
}

type noopPublisher struct{}

func (noopPublisher) PublishPostEvent(context.Context, uint, string, interface{}) {}

type noopIndexer struct{}

func (noopIndexer) Sync(*models.Post) {}
func (noopIndexer) Remove(uint)       {}

const (
	maxTitleLen       = 300
	maxContentLen     = 50000
	maxDescriptionLen = 500
	maxCommentLen     = 5000
	maxCategoryLen    = 100
	maxNameLen        = 100
	maxIntroLen       = 500
	maxAboutLen       = 10000
)

// requireText trims s and checks it is present and at most max runes long.
func requireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", models.NewValidationError(field + " is required")
	}
	return s, limitText(field, s, max)
}

func limitText(field, s string, max int) error {
	if utf8.RuneCountInString(s) > max {
		return models.NewValidationError(field + " is too long")
	}
	return nil
}

// publicAuthors strips account-only fields from embedded authors.
func publicAuthors(posts ...*models.Post) {
	for _, p := range posts {
		if p != nil {
			p.User = p.User.PublicProfile()
		}
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
