package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Set(ctx, "greeting", "hello", time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	value, ok, err := store.Get(ctx, "greeting")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !ok || value != "hello" {
		t.Fatalf("expected hello, got %v (ok=%v)", value, ok)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Hits != 1 || stats.Misses != 0 || stats.Entries != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() { _ = store.Close() })

	_ = store.Set(ctx, "k", "first", time.Minute)
	_ = store.Set(ctx, "k", "second", time.Minute)

	value, ok, _ := store.Get(ctx, "k")
	if !ok || value != "second" {
		t.Fatalf("expected last write to win, got %v", value)
	}
}

func TestMemoryStoreExpiryCountsAsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() { _ = store.Close() })

	_ = store.Set(ctx, "short", 42, 20*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok, err := store.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to be absent")
	}

	stats, _ := store.Stats(ctx)
	if stats.Misses != 1 {
		t.Fatalf("expected one miss, got %+v", stats)
	}
	// The expired entry was evicted on access.
	if stats.Entries != 0 {
		t.Fatalf("expected expired entry removed, got %+v", stats)
	}
}

func TestMemoryStoreClearResetsStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{})
	t.Cleanup(func() { _ = store.Close() })

	_ = store.Set(ctx, "a", 1, time.Minute)
	_, _, _ = store.Get(ctx, "a")
	_, _, _ = store.Get(ctx, "missing")

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Fatal("expected cleared key to be absent")
	}

	stats, _ := store.Stats(ctx)
	// One miss from the Get after Clear.
	if stats.Hits != 0 || stats.Misses != 1 || stats.Entries != 0 {
		t.Fatalf("expected reset stats, got %+v", stats)
	}
}

func TestMemoryStoreExpiredEntriesAccumulateUntilSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{}) // no background sweeper
	t.Cleanup(func() { _ = store.Close() })

	_ = store.Set(ctx, "a", 1, 10*time.Millisecond)
	_ = store.Set(ctx, "b", 2, 10*time.Millisecond)
	_ = store.Set(ctx, "c", 3, time.Minute)
	time.Sleep(20 * time.Millisecond)

	// Without Get or a sweep, expired entries stay resident.
	stats, _ := store.Stats(ctx)
	if stats.Entries != 3 {
		t.Fatalf("expected expired entries to persist before sweep, got %+v", stats)
	}

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	stats, _ = store.Stats(ctx)
	if stats.Entries != 1 {
		t.Fatalf("expected one live entry after sweep, got %+v", stats)
	}
}

func TestMemoryStoreBackgroundSweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(Config{SweepInterval: 10 * time.Millisecond})
	t.Cleanup(func() { _ = store.Close() })

	_ = store.Set(ctx, "a", 1, 5*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		stats, _ := store.Stats(ctx)
		if stats.Entries == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected background sweep to remove expired entry")
}
