package store

import (
	"context"
	"time"
)

// Window identifies the counting bucket a usage record falls into. The
// parent package derives it from its UsageWindow so this package stays free
// of any dependency on the client.
type Window struct {
	// Duration is the exact length of this bucket. A counter first written
	// inside the bucket and expired Duration later outlives the bucket.
	Duration    time.Duration
	BucketKey   string
	BucketStart time.Time
}

// Store keeps per-operation request counters for the client's usage accounting.
type Store interface {
	// Record counts one request for key in the bucket described by w and
	// returns the bucket's new total. A bucket change restarts the count.
	Record(ctx context.Context, key string, w Window) (int64, error)

	// Count returns the total for key in the bucket described by w, or 0 if
	// the stored bucket is stale or missing.
	Count(ctx context.Context, key string, w Window) (int64, error)

	// Reset forgets every counter stored for key.
	Reset(ctx context.Context, key string) error

	// Close releases connections or files held by the store.
	Close() error
}
