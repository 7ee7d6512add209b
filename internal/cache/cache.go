// Package cache implements a TTL cache for JSON payloads on top of a
// kvstore.Store. Values larger than the store's per-value ceiling are split
// into ordered chunks plus one metadata record; writes are batched so each
// transaction stays under the store's per-transaction ceiling.
//
// Caching here is a performance optimization, never a correctness
// dependency: every read failure degrades to a miss and every write failure
// degrades to a no-op, logged but never surfaced to callers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"marquee/internal/kvstore"
)

// chunkSafetyMargin keeps each chunk comfortably under the store's per-value
// ceiling to leave room for storage overhead (key, record framing).
const chunkSafetyMargin = 64 * 1024

// metadata is the record stored under the logical key itself. An entry is
// valid iff this record exists, all chunkCount chunks exist, and it has not
// expired.
type metadata struct {
	ChunkCount int   `json:"chunkCount"`
	StoredAt   int64 `json:"storedAtEpochMs"`
}

// Cache is a chunked TTL cache. Two caches with different TTLs may share one
// backing store as long as their key spaces do not overlap.
type Cache struct {
	store     kvstore.Store
	ttl       time.Duration
	chunkSize int
	log       *slog.Logger

	// now is swappable for TTL tests.
	now func() time.Time
}

// New builds a cache over store with the given TTL.
func New(store kvstore.Store, ttl time.Duration) *Cache {
	limits := store.Limits()
	chunkSize := limits.MaxValueBytes - chunkSafetyMargin
	if chunkSize <= 0 {
		chunkSize = limits.MaxValueBytes / 2
	}
	return &Cache{
		store:     store,
		ttl:       ttl,
		chunkSize: chunkSize,
		log:       slog.Default().With("component", "cache"),
		now:       time.Now,
	}
}

func chunkKey(key string, index int) string {
	return fmt.Sprintf("%s#%d", key, index)
}

// Get loads the entry under key into v, reporting whether a valid entry was
// found. Expired entries are deleted lazily; a missing chunk or undecodable
// payload is a miss, never an error.
func (c *Cache) Get(ctx context.Context, key string, v any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}

	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		c.log.Warn("cache metadata corrupt, treating as miss", "key", key, "error", err)
		return false
	}

	age := c.now().UnixMilli() - meta.StoredAt
	if age >= c.ttl.Milliseconds() {
		c.evict(ctx, key, meta.ChunkCount)
		return false
	}

	payload := make([]byte, 0, meta.ChunkCount*c.chunkSize)
	for i := 0; i < meta.ChunkCount; i++ {
		chunk, ok, err := c.store.Get(ctx, chunkKey(key, i))
		if err != nil {
			c.log.Warn("cache chunk read failed, treating as miss", "key", key, "chunk", i, "error", err)
			return false
		}
		if !ok {
			c.log.Warn("cache chunk missing, treating as miss", "key", key, "chunk", i, "chunks", meta.ChunkCount)
			return false
		}
		payload = append(payload, chunk...)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		c.log.Warn("cache payload undecodable, treating as miss", "key", key, "error", err)
		return false
	}
	return true
}

// Set serializes v and stores it under key, overwriting any prior entry.
// The metadata record rides in the first batch; chunk batches are packed
// greedily under the store's per-transaction ceiling. Failures are logged
// and swallowed.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache serialize failed, skipping store", "key", key, "error", err)
		return
	}

	chunks := splitChunks(payload, c.chunkSize)
	meta, err := json.Marshal(metadata{
		ChunkCount: len(chunks),
		StoredAt:   c.now().UnixMilli(),
	})
	if err != nil {
		c.log.Warn("cache metadata serialize failed, skipping store", "key", key, "error", err)
		return
	}

	maxBatch := c.store.Limits().MaxBatchBytes
	batch := map[string][]byte{key: meta}
	batchBytes := len(meta)

	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		if err := c.store.PutAll(ctx, batch); err != nil {
			c.log.Warn("cache write failed, entry dropped", "key", key, "error", err)
			return false
		}
		batch = make(map[string][]byte)
		batchBytes = 0
		return true
	}

	for i, chunk := range chunks {
		if batchBytes+len(chunk) > maxBatch {
			if !flush() {
				return
			}
		}
		batch[chunkKey(key, i)] = chunk
		batchBytes += len(chunk)
	}
	flush()
}

// evict removes an expired entry's metadata and chunks, best-effort.
func (c *Cache) evict(ctx context.Context, key string, chunkCount int) {
	keys := make([]string, 0, chunkCount+1)
	keys = append(keys, key)
	for i := 0; i < chunkCount; i++ {
		keys = append(keys, chunkKey(key, i))
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.log.Warn("expired cache entry cleanup failed", "key", key, "error", err)
	}
}

// splitChunks slices payload into pieces of at most size bytes. An empty
// payload still yields one (empty) chunk so the entry round-trips.
func splitChunks(payload []byte, size int) [][]byte {
	if len(payload) == 0 {
		return [][]byte{{}}
	}
	chunks := make([][]byte, 0, (len(payload)+size-1)/size)
	for start := 0; start < len(payload); start += size {
		end := start + size
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[start:end])
	}
	return chunks
}
