package storage

import (
	"context"
	"sync"

	"budgetbook/internal/core"
)

// MemoryStore holds the document in memory. Used in tests and as the
// throwaway backend for trying the tool without touching disk.
type MemoryStore struct {
	mu    sync.RWMutex
	state *core.State
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*core.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, ErrNotFound
	}
	return m.state.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *core.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.Clone()
	m.saves++
	return nil
}

// SaveCount reports how many saves happened; tests assert on it.
func (m *MemoryStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
