package storage

import (
	"context"
	"strconv"
	"sync"
)

type memoryEntry struct {
	data    []byte
	version uint64
}

// Memory keeps blobs in process memory
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Load implements Backend
func (m *Memory) Load(_ context.Context, key string) ([]byte, Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, NoVersion, ErrNotFound
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, memoryVersion(entry.version), nil
}

// CompareAndSwap implements Backend
func (m *Memory) CompareAndSwap(_ context.Context, key string, data []byte, expected Version) (Version, error) {
	if err := validateKey(key); err != nil {
		return NoVersion, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := NoVersion
	entry, ok := m.entries[key]
	if ok {
		current = memoryVersion(entry.version)
	}
	if current != expected {
		return current, ErrVersionConflict
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	next := memoryEntry{data: stored, version: entry.version + 1}
	m.entries[key] = next
	return memoryVersion(next.version), nil
}

// Close implements Backend
func (m *Memory) Close() error {
	return nil
}

func memoryVersion(v uint64) Version {
	return Version(strconv.FormatUint(v, 10))
}
