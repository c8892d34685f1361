package settings

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore keeps preferences in process memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemoryStore) GetInt(key string, def int) int {
	raw, ok := m.get(key)
	if !ok {
		return def
	}
	return parseInt(raw, def)
}

func (m *MemoryStore) SetInt(key string, value int) {
	m.set(key, strconv.Itoa(value))
}

func (m *MemoryStore) GetBool(key string, def bool) bool {
	raw, ok := m.get(key)
	if !ok {
		return def
	}
	return parseBool(raw, def)
}

func (m *MemoryStore) SetBool(key string, value bool) {
	m.set(key, strconv.FormatBool(value))
}

func (m *MemoryStore) Flush(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
