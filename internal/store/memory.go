package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/playground/pkg/types"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]string
	history     map[string]types.HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: map[string]string{},
		history:     map[string]types.HistoryEntry{},
	}
}

func (m *MemoryStore) GetCredential(scope string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credentials[scope], nil
}

func (m *MemoryStore) SetCredential(scope, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.credentials, scope)
		return nil
	}
	m.credentials[scope] = value
	return nil
}

func (m *MemoryStore) SaveHistory(e *types.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[e.ID] = *e
	return nil
}

func (m *MemoryStore) ListHistory(limit int) ([]types.HistoryEntry, error) {
	m.mu.RLock()
	out := make([]types.HistoryEntry, 0, len(m.history))
	for _, e := range m.history {
		out = append(out, e)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) GetHistory(id string) (*types.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.history[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MemoryStore) DeleteHistory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history[id]; !ok {
		return ErrNotFound
	}
	delete(m.history, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
