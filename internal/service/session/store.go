package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Suitable for tests and
// single-instance dev setups; production uses the redis store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]time.Time)}
}

func (m *MemoryStore) Save(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	m.sessions[id] = time.Now().Add(ttl)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, id string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if time.Now().After(expires) {
		delete(m.sessions, id)
		return false, nil
	}
	m.sessions[id] = time.Now().Add(ttl)
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
