package game

import (
	"context"
	"strings"
	"sync"
	"time"
)

// SessionStore keeps serialized live sessions with a TTL. Load returns
// (nil, nil) when the id is unknown or expired.
type SessionStore interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memEntry struct {
	payload []byte
	expires time.Time
}

// MemoryStore is a process-local SessionStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), now: time.Now}
}

func (m *MemoryStore) Load(ctx context.Context, id string) ([]byte, error) {
	key := strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, nil
	}
	return append([]byte(nil), e.payload...), nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	e := memEntry{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[strings.TrimSpace(id)] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, strings.TrimSpace(id))
	m.mu.Unlock()
	return nil
}
