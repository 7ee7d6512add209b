package kvstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store with the same limit semantics as SQLite.
// It exists for tests and for running without a persistent store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
	limits  Limits
}

// NewMemory returns an empty in-memory store. Zero limits default to
// DefaultLimits.
func NewMemory(limits Limits) *Memory {
	if limits == (Limits{}) {
		limits = DefaultLimits
	}
	return &Memory{entries: make(map[string][]byte), limits: limits}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *Memory) PutAll(_ context.Context, entries map[string][]byte) error {
	if err := checkLimits(entries, m.limits); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range entries {
		stored := make([]byte, len(value))
		copy(stored, value)
		m.entries[key] = stored
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) Limits() Limits { return m.limits }

// Len reports the number of stored entries, for tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
