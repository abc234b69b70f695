// Package cache provides the TTL response cache used by read endpoints,
// together with a memoization helper that makes the cache transparent to a
// computation.
package cache

import (
	"context"
	"time"
)

// Store is the expiration contract shared by all cache backends.
//
// Get never returns a value past its TTL: an expired entry is treated as
// absent and may be removed on access. Every Get counts as either a hit or
// a miss. Set overwrites unconditionally (last write wins). There is no
// maximum size and no LRU eviction: entries that are written once and never
// read again survive until CleanupExpired sweeps them. That growth
// characteristic is intentional; callers with unbounded key cardinality
// should schedule sweeps or use the redis backend.
type Store interface {
	Get(ctx context.Context, key string) (value any, ok bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Clear(ctx context.Context) error
	CleanupExpired(ctx context.Context) (removed int, err error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats is a point-in-time snapshot of cache counters. Hits and Misses are
// cumulative since construction or the last Clear.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int64 `json:"total_entries"`
}

// Total returns the number of lookups observed.
func (s Stats) Total() int64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of lookups served from cache, in percent.
func (s Stats) HitRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Config describes the cache backend selection parameters.
type Config struct {
	Driver        string
	DefaultTTL    time.Duration
	SweepInterval time.Duration
	Redis         *RedisConfig
}

// RedisConfig captures connection options for the redis backend.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
