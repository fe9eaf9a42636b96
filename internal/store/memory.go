package store

import (
	"context"
	"sort"
	"sync"

	"github.com/janssja/happy2align/internal/dialogue"
)

// MemoryStore keeps sessions in process memory. Values are cloned on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*dialogue.Progress
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*dialogue.Progress)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (*dialogue.Progress, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, key string, p *dialogue.Progress) error {
	if err := checkPut(key, p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = p.Clone()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.sessions))
	for k, p := range m.sessions {
		out = append(out, summarize(k, p))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Close implements Store. It is a no-op.
func (m *MemoryStore) Close() error { return nil }
