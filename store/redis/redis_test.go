package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ryhazerus/enrich/store"
)

var window = store.Window{
	Duration:    time.Minute,
	BucketKey:   "2024-01-15T14:30",
	BucketStart: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreRecord(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		got, err := s.Record(ctx, "person.json", window)
		if err != nil {
			t.Fatal(err)
		}
		if got != i {
			t.Errorf("record %d: got %d", i, got)
		}
	}
	if ttl := mr.TTL("enrich:usage:person.json"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
}

func TestRedisStoreRollover(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()
	next := window
	next.BucketKey = "2024-01-15T14:31"

	s.Record(ctx, "person.json", window)
	s.Record(ctx, "person.json", window)
	if got, _ := s.Record(ctx, "person.json", next); got != 1 {
		t.Errorf("after rollover: got %d, want 1", got)
	}
	if got, _ := s.Count(ctx, "person.json", window); got != 0 {
		t.Errorf("stale bucket = %d, want 0", got)
	}
}

func TestRedisStoreCountAndReset(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	if got, err := s.Count(ctx, "company.json", window); err != nil || got != 0 {
		t.Fatalf("empty count = %d, %v", got, err)
	}
	s.Record(ctx, "company.json", window)
	s.Record(ctx, "company.json", window)
	if got, _ := s.Count(ctx, "company.json", window); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
	if err := s.Reset(ctx, "company.json"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Count(ctx, "company.json", window); got != 0 {
		t.Errorf("after reset = %d, want 0", got)
	}
}

func TestRedisStoreTTLCoversLongMonth(t *testing.T) {
	s, mr := newTestRedisStore(t)
	jan := store.Window{
		Duration:    31 * 24 * time.Hour,
		BucketKey:   "2024-01",
		BucketStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	ctx := context.Background()

	s.Record(ctx, "person.json", jan)
	mr.FastForward(30*24*time.Hour + time.Hour)
	if got, _ := s.Count(ctx, "person.json", jan); got != 1 {
		t.Errorf("count on day 31 = %d, want 1", got)
	}
	if got, _ := s.Record(ctx, "person.json", jan); got != 2 {
		t.Errorf("record on day 31 = %d, want 2", got)
	}
}
