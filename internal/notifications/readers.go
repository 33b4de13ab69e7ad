package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const readersTTL = 6 * time.Hour

// ReaderCounter keeps a cluster-wide count of live readers per post in
// Redis. Without Redis it reports the local count.
type ReaderCounter struct {
	rdb *redis.Client
}

// NewReaderCounter returns a counter backed by rdb, which may be nil.
func NewReaderCounter(rdb *redis.Client) *ReaderCounter {
	return &ReaderCounter{rdb: rdb}
}

func readersKey(postID uint) string {
	return fmt.Sprintf("post:%d:readers", postID)
}

// Join records a new reader and returns the current count.
func (r *ReaderCounter) Join(ctx context.Context, postID uint, local int) int {
	return r.adjust(ctx, postID, 1, local)
}

// Leave records a departed reader and returns the current count.
func (r *ReaderCounter) Leave(ctx context.Context, postID uint, local int) int {
	return r.adjust(ctx, postID, -1, local)
}

func (r *ReaderCounter) adjust(ctx context.Context, postID uint, delta int64, local int) int {
	if r == nil || r.rdb == nil {
		return local
	}
	key := readersKey(postID)
	pipe := r.rdb.TxPipeline()
	incr := pipe.IncrBy(ctx, key, delta)
	pipe.Expire(ctx, key, readersTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.WarnContext(ctx, "reader count update failed", "post_id", postID, "error", err)
		return local
	}
	n := incr.Val()
	if n < 0 {
		_ = r.rdb.Set(ctx, key, 0, readersTTL).Err()
		n = 0
	}
	return int(n)
}
