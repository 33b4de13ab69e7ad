package service

import (
	"context"
	"sync"

	"inkwell/internal/models"
)

type recordedEvent struct {
	PostID  uint
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishPostEvent(_ context.Context, postID uint, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{PostID: postID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingIndexer struct {
	synced  []uint
	removed []uint
}

func (r *recordingIndexer) Sync(p *models.Post) {
	if p.IsPublic() {
		r.synced = append(r.synced, p.ID)
		return
	}
	r.removed = append(r.removed, p.ID)
}

func (r *recordingIndexer) Remove(id uint) {
	r.removed = append(r.removed, id)
}
