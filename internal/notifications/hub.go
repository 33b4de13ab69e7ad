package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerPost = 2000
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrPostFull   = errors.New("post connection limit reached")
	ErrHubClosed  = errors.New("hub is shutting down")
)

// PostHub maps postID to the websocket clients following that post.
type PostHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	readers    *ReaderCounter
}

// NewPostHub creates an empty hub. readers may be nil.
func NewPostHub(readers *ReaderCounter) *PostHub {
	return &PostHub{
		conns:   make(map[uint]map[*Client]struct{}),
		readers: readers,
	}
}

// Register adds a follower of postID. userID is zero for anonymous readers.
func (h *PostHub) Register(postID, userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, ErrServerFull
	}
	m, ok := h.conns[postID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[postID] = m
	}
	if len(m) >= maxConnsPerPost {
		h.mu.Unlock()
		return nil, ErrPostFull
	}

	client := NewClient(h, conn, postID, userID)
	m[client] = struct{}{}
	h.totalConns++
	local := len(m)
	h.mu.Unlock()

	observability.WebSocketConnections.Inc()
	h.announceReaders(postID, h.readers.Join(context.Background(), postID, local))
	return client, nil
}

// UnregisterClient removes a client. It is safe to call more than once.
func (h *PostHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	local := 0
	if m, ok := h.conns[client.PostID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
			close(client.Send)
		}
		local = len(m)
		if local == 0 {
			delete(h.conns, client.PostID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketConnections.Dec()
		h.announceReaders(client.PostID, h.readers.Leave(context.Background(), client.PostID, local))
	}
}

// Followers returns the number of local clients following postID.
func (h *PostHub) Followers(postID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[postID])
}

// Broadcast sends an encoded event to every local follower of postID.
func (h *PostHub) Broadcast(postID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[postID] {
		c.TrySend(message)
	}
}

func (h *PostHub) announceReaders(postID uint, count int) {
	data, err := Event{
		Type:      EventReaders,
		PostID:    postID,
		Payload:   map[string]int{"count": count},
		Timestamp: time.Now().UTC(),
	}.Encode()
	if err != nil {
		return
	}
	h.Broadcast(postID, data)
}

// StartWiring subscribes the hub to post channels published by any instance.
func (h *PostHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPostSubscriber(ctx, func(channel, payload string) {
		postID, ok := ParsePostChannel(channel)
		if !ok {
			slog.Warn("invalid post channel", "channel", channel)
			return
		}
		h.Broadcast(postID, []byte(payload))
	})
}

// Shutdown closes every websocket connection.
func (h *PostHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	// Closing Send makes each WritePump send a close frame and drop the conn.
	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			observability.WebSocketConnections.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
