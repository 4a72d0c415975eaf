package cache

import (
	"context"
	"errors"
)

// ErrClosed is returned by stores after Close.
var ErrClosed = errors.New("cache store is closed")

// Store is the byte-level persistence behind ResponseCache.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every stored key in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the store.
	Close() error
}
