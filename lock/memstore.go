package lock

import (
	"context"
	"sync"
	"time"
)

// memEntry holds a stored value with its expiry.
type memEntry struct {
	value     string
	expiresAt time.Time
}

// MemStore is an in-memory KeyedStore with TTL semantics matching the
// redis implementation. It is safe for concurrent use.
type MemStore struct {
	mu    sync.Mutex
	store map[string]*memEntry
}

// NewMemStore creates a MemStore. A background goroutine evicts expired
// entries every minute; expired keys are also treated as absent on read.
func NewMemStore() *MemStore {
	m := &MemStore{store: make(map[string]*memEntry)}
	go m.cleanupLoop()
	return m
}

func (m *MemStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.store[key]; ok && time.Now().Before(e.expiresAt) {
		return false, nil
	}
	m.store[key] = &memEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (m *MemStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.store[key]
	if !ok {
		return "", nil
	}
	if time.Now().After(e.expiresAt) {
		delete(m.store, key)
		return "", nil
	}
	return e.value, nil
}

func (m *MemStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store[key] = &memEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.store, key)
	return nil
}

// cleanupLoop evicts expired entries every minute.
func (m *MemStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for k, e := range m.store {
			if now.After(e.expiresAt) {
				delete(m.store, k)
			}
		}
		m.mu.Unlock()
	}
}
