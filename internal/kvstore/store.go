// Package kvstore provides the key-addressed value storage that backs the
// chunked cache. The store enforces a per-value size ceiling and a
// per-transaction total payload ceiling; callers that need to persist larger
// payloads must split them (see internal/cache).
package kvstore

import (
	"context"
	"errors"
)

var (
	// ErrValueTooLarge is returned when a single value exceeds MaxValueBytes.
	ErrValueTooLarge = errors.New("kvstore: value exceeds per-value size limit")

	// ErrBatchTooLarge is returned when the combined payload of one PutAll
	// call exceeds MaxBatchBytes.
	ErrBatchTooLarge = errors.New("kvstore: batch exceeds per-transaction size limit")
)

// Limits describes the size ceilings a store enforces.
type Limits struct {
	MaxValueBytes int
	MaxBatchBytes int
}

// DefaultLimits mirrors the hosted backing store we deploy against:
// 400 KB per value, 4 MB per transactional write.
var DefaultLimits = Limits{
	MaxValueBytes: 400_000,
	MaxBatchBytes: 4_000_000,
}

// Store is key-addressed value storage with atomic multi-key writes.
type Store interface {
	// Get returns the value for key, reporting whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// PutAll writes every entry atomically, overwriting existing keys.
	// It fails with ErrValueTooLarge / ErrBatchTooLarge when the limits
	// are exceeded, without writing anything.
	PutAll(ctx context.Context, entries map[string][]byte) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Limits reports the size ceilings this store enforces.
	Limits() Limits
}

// checkLimits validates a PutAll batch against the store limits.
func checkLimits(entries map[string][]byte, limits Limits) error {
	total := 0
	for _, v := range entries {
		if len(v) > limits.MaxValueBytes {
			return ErrValueTooLarge
		}
		total += len(v)
	}
	if total > limits.MaxBatchBytes {
		return ErrBatchTooLarge
	}
	return nil
}
