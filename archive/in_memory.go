package archive

import (
	"context"
	"sync"
)

// InMemoryStore is a process-local Store.
//
// Concurrency: protected by RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record // identity -> records, oldest first
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory archive.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]Record)}
}

// Append stores r.
func (m *InMemoryStore) Append(_ context.Context, r Record) error {
	r = normalize(r)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[r.Identity] = append(m.records[r.Identity], r)

	return nil
}

// History returns the newest records for identity first.
func (m *InMemoryStore) History(_ context.Context, identity string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.records[identity]

	n := len(stored)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Record, 0, n)
	for i := len(stored) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, stored[i])
	}

	return out, nil
}
