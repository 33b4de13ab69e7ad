package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

// nextEvent reads the next queued event for c, skipping reader counts unless
// wantReaders is set.
func nextEvent(t *testing.T, c *Client, wantReaders bool) Event {
	t.Helper()
	for {
		select {
		case data, ok := <-c.Send:
			require.True(t, ok, "send channel closed")
			var ev Event
			require.NoError(t, json.Unmarshal(data, &ev))
			if ev.Type == EventReaders && !wantReaders {
				continue
			}
			return ev
		case <-time.After(testEventuallyTimeout):
			t.Fatal("timed out waiting for event")
			return Event{}
		}
	}
}

func TestPostHub_BroadcastScopedToPost(t *testing.T) {
	hub := NewPostHub(nil)

	a, err := hub.Register(1, 10, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, 0, nil)
	require.NoError(t, err)

	// drain join announcements
	nextEvent(t, a, true)
	nextEvent(t, b, true)

	data, err := Event{Type: EventCommentCreated, PostID: 1}.Encode()
	require.NoError(t, err)
	hub.Broadcast(1, data)

	ev := nextEvent(t, a, false)
	assert.Equal(t, EventCommentCreated, ev.Type)
	assert.Empty(t, b.Send)

	_ = hub.Shutdown(context.Background())
}

func TestPostHub_ReaderCountsLocal(t *testing.T) {
	hub := NewPostHub(nil)

	a, err := hub.Register(5, 0, nil)
	require.NoError(t, err)
	ev := nextEvent(t, a, true)
	assert.Equal(t, EventReaders, ev.Type)
	assert.Equal(t, map[string]interface{}{"count": float64(1)}, ev.Payload)

	b, err := hub.Register(5, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Followers(5))

	hub.UnregisterClient(b)
	hub.UnregisterClient(b)
	assert.Equal(t, 1, hub.Followers(5))

	// a sees the second join and the leave
	nextEvent(t, a, true)
	ev = nextEvent(t, a, true)
	assert.Equal(t, map[string]interface{}{"count": float64(1)}, ev.Payload)

	for range b.Send {
	}

	_ = hub.Shutdown(context.Background())
}

func TestPostHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewPostHub(nil)
	c, err := hub.Register(1, 0, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	_, err = hub.Register(1, 0, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.Equal(t, 0, hub.Followers(1))
}

func TestPostHub_WiringDeliversRedisEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewPostHub(NewReaderCounter(rdb))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, NewNotifier(rdb)))

	c, err := hub.Register(9, 0, nil)
	require.NoError(t, err)

	d := NewDispatcher(hub, NewNotifier(rdb))
	d.PublishPostEvent(ctx, 9, EventPostArchived, map[string]uint{"id": 9})

	ev := nextEvent(t, c, false)
	assert.Equal(t, EventPostArchived, ev.Type)
	assert.Equal(t, uint(9), ev.PostID)

	_ = hub.Shutdown(context.Background())
}
