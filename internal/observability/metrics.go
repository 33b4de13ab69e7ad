package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inkwell"

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "database_query_latency_seconds",
		Help:      "Database query latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostTransitions counts lifecycle transitions by event and outcome.
	PostTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_transitions_total",
		Help:      "Post lifecycle transitions by event and result",
	}, []string{"event", "result"})

	// CommentTreeSize observes how many comments a rendered tree holds.
	CommentTreeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "comment_tree_size",
		Help:      "Number of comments assembled into a single post tree",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	// ReactionsTotal counts reaction writes by type; removals use "none".
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reactions_total",
		Help:      "Reaction writes by type",
	}, []string{"type"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache-aside lookups by result",
	}, []string{"result"})

	// SearchRequests counts post searches by backend and result.
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_requests_total",
		Help:      "Post searches by backend (index, database) and result",
	}, []string{"backend", "result"})

	// WebSocketConnections is the number of open live-update connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Open websocket connections following posts",
	})

	// WebSocketEventsTotal counts events fanned out to websocket clients.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_events_total",
		Help:      "Events delivered to websocket clients by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client was too slow.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_backpressure_drops_total",
		Help:      "Websocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
