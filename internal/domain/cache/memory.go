package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

type memoryStore struct {
	data     map[string]memoryEntry
	mutex    sync.Mutex
	hits     int64
	misses   int64
	sweep    time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory builds an in-memory TTL cache. When cfg.SweepInterval is
// positive, a background goroutine removes expired entries on that cadence;
// otherwise eviction only happens lazily on Get or via CleanupExpired.
func NewMemory(cfg Config) Store {
	s := &memoryStore{
		data:  make(map[string]memoryEntry),
		sweep: cfg.SweepInterval,
		stop:  make(chan struct{}),
	}
	if s.sweep > 0 {
		go s.sweepLoop()
	}
	return s
}

func (s *memoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_, _ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (any, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.data[key]
	if !exists {
		s.misses++
		return nil, false, nil
	}
	if !time.Now().Before(entry.expiresAt) {
		delete(s.data, key)
		s.misses++
		return nil, false, nil
	}
	s.hits++
	return entry.value, true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *memoryStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data = make(map[string]memoryEntry)
	s.hits = 0
	s.misses = 0
	return nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) (int, error) {
	now := time.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for key, entry := range s.data {
		if !now.Before(entry.expiresAt) {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memoryStore) Stats(_ context.Context) (Stats, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return Stats{
		Hits:    s.hits,
		Misses:  s.misses,
		Entries: int64(len(s.data)),
	}, nil
}

func (s *memoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
