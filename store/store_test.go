package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

var (
	minute30 = Window{
		Duration:    time.Minute,
		BucketKey:   "2024-01-15T14:30",
		BucketStart: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
	}
	minute31 = Window{
		Duration:    time.Minute,
		BucketKey:   "2024-01-15T14:31",
		BucketStart: time.Date(2024, 1, 15, 14, 31, 0, 0, time.UTC),
	}
)

func newSQLite(t *testing.T, dsn string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// backends returns one fresh instance of every in-package Store.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLite(t, ":memory:"),
		"tiered": NewTieredStore(newSQLite(t, ":memory:")),
	}
	for _, s := range out {
		t.Cleanup(func() { s.Close() })
	}
	return out
}

func TestStoreRecordCounts(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := int64(1); i <= 5; i++ {
				got, err := s.Record(ctx, "person.json", minute30)
				if err != nil {
					t.Fatal(err)
				}
				if got != i {
					t.Errorf("record %d: got %d", i, got)
				}
			}
		})
	}
}

func TestStoreBucketRollover(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s.Record(ctx, "person.json", minute30)
			s.Record(ctx, "person.json", minute30)

			got, err := s.Record(ctx, "person.json", minute31)
			if err != nil {
				t.Fatal(err)
			}
			if got != 1 {
				t.Errorf("after rollover: got %d, want 1", got)
			}
			if n, _ := s.Count(ctx, "person.json", minute30); n != 0 {
				t.Errorf("stale bucket count = %d, want 0", n)
			}
		})
	}
}

func TestStoreCountAndReset(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if n, _ := s.Count(ctx, "company.json", minute30); n != 0 {
				t.Fatalf("empty count = %d", n)
			}
			s.Record(ctx, "company.json", minute30)
			s.Record(ctx, "company.json", minute30)
			s.Record(ctx, "email/disposable.json", minute30)

			if n, _ := s.Count(ctx, "company.json", minute30); n != 2 {
				t.Errorf("count = %d, want 2", n)
			}
			if err := s.Reset(ctx, "company.json"); err != nil {
				t.Fatal(err)
			}
			if n, _ := s.Count(ctx, "company.json", minute30); n != 0 {
				t.Errorf("after reset = %d, want 0", n)
			}
			if n, _ := s.Count(ctx, "email/disposable.json", minute30); n != 1 {
				t.Errorf("untouched key = %d, want 1", n)
			}
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "usage.db")

	s := newSQLite(t, path)
	for i := 0; i < 3; i++ {
		if _, err := s.Record(ctx, "person.json", minute30); err != nil {
			t.Fatal(err)
		}
	}
	s.Close()

	reopened := newSQLite(t, path)
	defer reopened.Close()
	if n, _ := reopened.Count(ctx, "person.json", minute30); n != 3 {
		t.Errorf("after reopen = %d, want 3", n)
	}
}

func TestTieredStoreBackfillsFromBacking(t *testing.T) {
	ctx := context.Background()
	backing := newSQLite(t, ":memory:")
	for i := 0; i < 4; i++ {
		backing.Record(ctx, "person.json", minute30)
	}

	ts := NewTieredStore(backing)
	defer ts.Close()

	if n, _ := ts.Count(ctx, "person.json", minute30); n != 4 {
		t.Fatalf("count = %d, want 4", n)
	}
	if n, _ := ts.cache.Count(ctx, "person.json", minute30); n != 4 {
		t.Errorf("cache not backfilled: %d", n)
	}
	if n, _ := ts.Record(ctx, "person.json", minute30); n != 5 {
		t.Errorf("record after backfill = %d, want 5", n)
	}
}
