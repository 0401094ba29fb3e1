package testsupport

import (
	"context"
	"fmt"
	"testing"

	"stocksmith/internal/config"
	"stocksmith/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedItems replaces the store contents with count pending items and returns
// them in list order.
func SeedItems(t testing.TB, store *queue.Store, count int) []*queue.Item {
	t.Helper()

	seeds := make([]queue.Seed, count)
	for i := range seeds {
		seeds[i] = queue.Seed{
			Filename:    fmt.Sprintf("photo-%02d.jpg", i+1),
			Description: fmt.Sprintf("Stock photo prompt number %d", i+1),
		}
	}
	if err := store.Replace(context.Background(), seeds); err != nil {
		t.Fatalf("store.Replace: %v", err)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("store.List: %v", err)
	}
	if len(items) != count {
		t.Fatalf("expected %d seeded items, got %d", count, len(items))
	}
	return items
}
