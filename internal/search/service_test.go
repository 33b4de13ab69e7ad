package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inkwell/internal/blog"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	mu      sync.Mutex
	healthy bool
	docs    map[uint]Document
	hits    []uint
	err     error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{healthy: true, docs: map[uint]Document{}}
}

func (f *fakeEngine) Healthy() bool { return f.healthy }

func (f *fakeEngine) Index(docs []Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return nil
}

func (f *fakeEngine) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeEngine) Search(string, int, int) ([]uint, error) {
	return f.hits, f.err
}

type fakeStore struct {
	searched string
	byIDs    []uint
}

func (s *fakeStore) Search(_ context.Context, query string, _ blog.Filter, _, _ int) ([]*models.Post, error) {
	s.searched = query
	return []*models.Post{{ID: 7}}, nil
}

func (s *fakeStore) GetPublishedByIDs(_ context.Context, ids []uint) ([]*models.Post, error) {
	s.byIDs = ids
	out := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.Post{ID: id})
	}
	return out, nil
}

func TestSearchUsesEngineWhenHealthy(t *testing.T) {
	engine := newFakeEngine()
	engine.hits = []uint{3, 1}
	store := &fakeStore{}
	svc := NewService(engine, store)

	posts, err := svc.Search(context.Background(), "  go   generics ", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, store.byIDs)
	assert.Len(t, posts, 2)
	assert.Empty(t, store.searched)
}

func TestSearchFallsBackToDatabase(t *testing.T) {
	tests := []struct {
		name   string
		engine Engine
	}{
		{"no engine", nil},
		{"unhealthy", &fakeEngine{healthy: false}},
		{"engine error", &fakeEngine{healthy: true, err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := NewService(tt.engine, store)

			posts, err := svc.Search(context.Background(), "  go   generics ", 10, 0)
			require.NoError(t, err)
			require.Len(t, posts, 1)
			assert.Equal(t, "go generics", store.searched)
		})
	}
}

func TestSyncIndexesOnlyPublicPosts(t *testing.T) {
	engine := newFakeEngine()
	svc := NewService(engine, &fakeStore{})
	now := time.Now()

	public := &models.Post{ID: 1, Title: "Hi", Status: models.PostStatusPublished, PublishedAt: &now,
		User: models.User{Username: "alice"}, Categories: []models.Category{{Slug: "go"}}}
	svc.Sync(public)
	svc.Wait()

	require.Contains(t, engine.docs, uint(1))
	assert.Equal(t, "alice", engine.docs[1].Author)
	assert.Equal(t, []string{"go"}, engine.docs[1].Categories)
	assert.Equal(t, now.Unix(), engine.docs[1].PublishedAt)

	archived := *public
	archived.Archived = true
	svc.Sync(&archived)
	svc.Wait()
	assert.NotContains(t, engine.docs, uint(1))
}

func TestReindexSkipsDrafts(t *testing.T) {
	engine := newFakeEngine()
	svc := NewService(engine, &fakeStore{})

	err := svc.Reindex([]*models.Post{
		{ID: 1, Status: models.PostStatusPublished},
		{ID: 2, Status: models.PostStatusDraft},
	})
	require.NoError(t, err)
	assert.Len(t, engine.docs, 1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Search(ctx context.Context, query string, filter blog.Filter, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, query, filter, limit, offset)
	posts, _ := args.Get(0).([]*models.Post)
	return posts, args.Error(1)
}

func (m *mockStore) GetPublishedByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	args := m.Called(ctx, ids)
	posts, _ := args.Get(0).([]*models.Post)
	return posts, args.Error(1)
}

func TestSearchPropagatesStoreError(t *testing.T) {
	store := &mockStore{}
	store.On("Search", mock.Anything, "rust", blog.FilterFor(blog.ScopePublic, 0), 20, 40).
		Return(nil, errors.New("db down")).Once()

	svc := NewService(&fakeEngine{healthy: false}, store)
	posts, err := svc.Search(context.Background(), "rust", 20, 40)

	require.EqualError(t, err, "db down")
	assert.Nil(t, posts)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "GetPublishedByIDs", mock.Anything, mock.Anything)
}
