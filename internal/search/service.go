package search

import (
	"context"
	"log/slog"
	"sync"

	"inkwell/internal/blog"
	"inkwell/internal/models"
	"inkwell/internal/observability"
)

// PostStore is the database side of search.
type PostStore interface {
	Search(ctx context.Context, query string, filter blog.Filter, limit, offset int) ([]*models.Post, error)
	GetPublishedByIDs(ctx context.Context, ids []uint) ([]*models.Post, error)
}

// Service tries the engine first and falls back to the database. engine may
// be nil when no index is configured.
type Service struct {
	engine Engine
	store  PostStore
	wg     sync.WaitGroup
}

// NewService creates a search service.
func NewService(engine Engine, store PostStore) *Service {
	return &Service{engine: engine, store: store}
}

func (s *Service) engineReady() bool {
	return s.engine != nil && s.engine.Healthy()
}

// Search returns public posts matching query.
func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	query = normalizeQuery(query)

	if s.engineReady() {
		ids, err := s.engine.Search(query, limit, offset)
		if err == nil {
			observability.SearchRequests.WithLabelValues("index", "ok").Inc()
			return s.store.GetPublishedByIDs(ctx, ids)
		}
		observability.SearchRequests.WithLabelValues("index", "error").Inc()
		slog.WarnContext(ctx, "search index failed, falling back to database", "error", err)
	}

	posts, err := s.store.Search(ctx, query, blog.FilterFor(blog.ScopePublic, 0), limit, offset)
	if err != nil {
		observability.SearchRequests.WithLabelValues("database", "error").Inc()
		return nil, err
	}
	observability.SearchRequests.WithLabelValues("database", "ok").Inc()
	return posts, nil
}

// Sync updates the index for p in the background: public posts are indexed,
// anything else is removed.
func (s *Service) Sync(p *models.Post) {
	if !s.engineReady() {
		return
	}
	if !p.IsPublic() {
		s.Remove(p.ID)
		return
	}
	doc := NewDocument(p)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.engine.Index([]Document{doc}); err != nil {
			slog.Warn("search: index post failed", "post_id", doc.ID, "error", err)
		}
	}()
}

// Remove drops a post from the index in the background.
func (s *Service) Remove(id uint) {
	if !s.engineReady() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.engine.Delete(id); err != nil {
			slog.Warn("search: remove post failed", "post_id", id, "error", err)
		}
	}()
}

// Reindex pushes every given post into the index synchronously.
func (s *Service) Reindex(posts []*models.Post) error {
	if !s.engineReady() {
		return nil
	}
	docs := make([]Document, 0, len(posts))
	for _, p := range posts {
		if p.IsPublic() {
			docs = append(docs, NewDocument(p))
		}
	}
	return s.engine.Index(docs)
}

// Wait blocks until background index updates finish.
func (s *Service) Wait() {
	s.wg.Wait()
}
