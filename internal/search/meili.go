package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

// Meili implements Engine on top of Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	index   string
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the posts index.
// An unreachable server is retried in the background.
func NewMeili(url, apiKey, index string) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		index:  index,
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		slog.Warn("meilisearch unavailable", "url", url, "error", err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop(healthInterval)
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: m.index, PrimaryKey: "id"}); err != nil {
		slog.Debug("meilisearch create index", "index", m.index, "error", err)
	}

	index := m.client.Index(m.index)
	filterable := []interface{}{"categories", "author"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("meilisearch filterable attributes", "index", m.index, "error", err)
	}
	searchable := []string{"title", "description", "content", "author"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		slog.Warn("meilisearch searchable attributes", "index", m.index, "error", err)
	}
}

func (m *Meili) healthLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				slog.Info("meilisearch recovered, reconfiguring index", "index", m.index)
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Index(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := m.client.Index(m.index).AddDocuments(docs, nil)
	return err
}

func (m *Meili) Delete(id uint) error {
	_, err := m.client.Index(m.index).DeleteDocument(strconv.FormatUint(uint64(id), 10), nil)
	return err
}

// Search returns matching post ids in relevance order.
func (m *Meili) Search(query string, limit, offset int) ([]uint, error) {
	resp, err := m.client.Index(m.index).Search(query, &meili.SearchRequest{
		Limit:                int64(limit),
		Offset:               int64(offset),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := make([]uint, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if id, ok := decodeID(hit); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func decodeID(hit meili.Hit) (uint, bool) {
	raw, ok := hit["id"]
	if !ok {
		return 0, false
	}
	var id uint
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, false
	}
	return id, true
}
