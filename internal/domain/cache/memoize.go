package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"
)

// Func is the computation signature accepted by Memoized. Arguments must be
// serializable; the derived cache key is stable across calls with equal
// arguments.
type Func[T any] func(ctx context.Context, args ...any) (T, error)

// Memoized wraps fn so that results are served from store for ttl. The name
// namespaces the keys: two memoized functions never collide even when called
// with identical arguments. If fn fails, nothing is cached and the error
// propagates unchanged. Concurrent misses for the same key are collapsed so
// fn runs once per key at a time.
func Memoized[T any](store Store, name string, ttl time.Duration, fn Func[T]) Func[T] {
	group := new(singleflight.Group)

	return func(ctx context.Context, args ...any) (T, error) {
		var zero T

		key, err := DeriveKey(name, args...)
		if err != nil {
			// Unserializable arguments cannot be cached; fall through to fn.
			return fn(ctx, args...)
		}

		if cached, ok, err := store.Get(ctx, key); err == nil && ok {
			if value, ok := coerce[T](cached); ok {
				return value, nil
			}
		}

		result, err, _ := group.Do(key, func() (any, error) {
			// A concurrent caller may have filled the entry while we waited.
			if cached, ok, err := store.Get(ctx, key); err == nil && ok {
				if value, ok := coerce[T](cached); ok {
					return value, nil
				}
			}

			value, err := fn(ctx, args...)
			if err != nil {
				return zero, err
			}
			_ = store.Set(ctx, key, value, ttl)
			return value, nil
		})
		if err != nil {
			return zero, err
		}
		return result.(T), nil
	}
}

// DeriveKey builds a deterministic cache key from a namespace and arguments.
// Collision resistance is only needed against accidental collisions, not an
// adversary choosing arguments.
func DeriveKey(name string, args ...any) (string, error) {
	payload, err := sonic.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("derive cache key: %w", err)
	}
	sum := sha256.Sum256(append([]byte(name+":"), payload...))
	return name + ":" + hex.EncodeToString(sum[:]), nil
}

// coerce recovers a typed value from what the store returned. The memory
// backend stores values as-is; the redis backend round-trips through JSON,
// so a second decode may be needed.
func coerce[T any](v any) (T, bool) {
	if typed, ok := v.(T); ok {
		return typed, true
	}

	var out T
	raw, err := sonic.Marshal(v)
	if err != nil {
		return out, false
	}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}
