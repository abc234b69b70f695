package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newRedisStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedis(Config{
		Redis: &RedisConfig{Addr: mr.Addr()},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	payload := map[string]any{"name": "laptop", "price": 1200.0}
	if err := store.Set(ctx, "item:1", payload, time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	value, ok, err := store.Get(ctx, "item:1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	decoded, ok := value.(map[string]any)
	if !ok || decoded["name"] != "laptop" {
		t.Fatalf("unexpected value: %#v", value)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Hits != 1 || stats.Entries != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	if err := store.Set(ctx, "short", "v", time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	mr.FastForward(2 * time.Second)

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
}

func TestRedisStoreClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	_ = store.Set(ctx, "a", 1, time.Minute)
	_ = store.Set(ctx, "b", 2, time.Minute)
	_, _, _ = store.Get(ctx, "a")

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

func TestFactorySelectsDriver(t *testing.T) {
	store, err := New(Config{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("New memory error: %v", err)
	}
	_ = store.Close()

	if _, err := New(Config{Driver: "mongodb"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
