// Package cache stores opaque session state with expiry, in process memory or Redis.
package cache

import (
	"context"
	"errors"
	"time"
)

// Provider is the key/value store behind per-session view state.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	// Update replaces the value of key with the result of fn, atomically with respect
	// to every other writer of the same store. fn may run more than once.
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error
	Close() error
}

// UpdateFunc computes the next value from the current one. found is false when the key
// is absent or expired. An error aborts the update, leaves the key untouched and is
// returned from Update as is.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

var (
	// ErrCacheMiss signals that a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrConflict is returned when an update kept losing to concurrent writers.
	ErrConflict = errors.New("cache update conflict")
)
