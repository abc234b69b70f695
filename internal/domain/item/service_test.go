package item

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-server-go/internal/domain/cache"
	"catalog-server-go/internal/platform/storage"
)

func setupService(t *testing.T, readTTL time.Duration) *Service {
	t.Helper()

	db, err := storage.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := cache.New(cache.Config{Driver: cache.DriverMemory})
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc, err := NewService(db, store, readTTL, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestService_CreateAndGet(t *testing.T) {
	svc := setupService(t, time.Minute)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", Input{Name: "lamp", Price: 12.5})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned ID")
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "lamp" || got.Price != 12.5 || got.Owner != "alice" {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestService_GetMissing(t *testing.T) {
	svc := setupService(t, time.Minute)

	if _, err := svc.Get(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListFiltersByOwner(t *testing.T) {
	svc := setupService(t, time.Minute)
	ctx := context.Background()

	for _, in := range []struct {
		owner string
		name  string
	}{
		{"alice", "lamp"},
		{"alice", "desk"},
		{"bob", "chair"},
	} {
		if _, err := svc.Create(ctx, in.owner, Input{Name: in.name, Price: 1}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 items, got %d", len(all))
	}

	alice, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(alice) != 2 {
		t.Errorf("expected 2 items for alice, got %d", len(alice))
	}
}

func TestService_ReadsServeStaleUntilTTL(t *testing.T) {
	svc := setupService(t, time.Minute)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", Input{Name: "lamp", Price: 10})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Warm the cache, then write through the database.
	if _, err := svc.Get(ctx, created.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := svc.Update(ctx, created.ID, Input{Name: "lamp", Price: 99}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// The cached read still serves the pre-update price.
	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Price != 10 {
		t.Errorf("expected stale cached price 10, got %v", got.Price)
	}
}

func TestService_ZeroTTLReadsAreFresh(t *testing.T) {
	// A nanosecond TTL expires entries before the next read, so every read
	// recomputes.
	svc := setupService(t, time.Nanosecond)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", Input{Name: "lamp", Price: 10})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := svc.Update(ctx, created.ID, Input{Name: "lamp", Price: 99}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Price != 99 {
		t.Errorf("expected fresh price 99, got %v", got.Price)
	}
}

func TestService_UpdateMissing(t *testing.T) {
	svc := setupService(t, time.Minute)

	if _, err := svc.Update(
		context.Background(), 404, Input{Name: "x", Price: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_DeleteAndCount(t *testing.T) {
	svc := setupService(t, time.Minute)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", Input{Name: "lamp", Price: 10})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	total, err := svc.Count(ctx, "")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected count 1, got %d", total)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}
