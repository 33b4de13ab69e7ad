package notifications

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/observability"
)

// Dispatcher delivers post events. With Redis configured events go through
// pub/sub and reach local clients via the hub's subscription. Otherwise they
// are broadcast on the local hub directly.
type Dispatcher struct {
	hub      *PostHub
	notifier *Notifier
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. notifier may be nil.
func NewDispatcher(hub *PostHub, notifier *Notifier) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier, now: time.Now}
}

// PublishPostEvent sends an event to every follower of postID. Delivery is
// best effort and never fails the caller.
func (d *Dispatcher) PublishPostEvent(ctx context.Context, postID uint, eventType string, payload interface{}) {
	if d == nil {
		return
	}
	data, err := Event{Type: eventType, PostID: postID, Payload: payload, Timestamp: d.now().UTC()}.Encode()
	if err != nil {
		slog.WarnContext(ctx, "encode post event failed", "post_id", postID, "error", err)
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()

	if d.notifier.Enabled() {
		err := d.notifier.PublishPost(ctx, postID, data)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "publish post event failed, delivering locally", "post_id", postID, "error", err)
	}
	if d.hub != nil {
		d.hub.Broadcast(postID, data)
	}
}
