package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	updatedAt time.Time
}

// MemoryRepository is a process-local ClientStateRepository.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[string]map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *MemoryRepository) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.data[sessionID][key]
	return e.value, ok, nil
}

func (m *MemoryRepository) Put(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[sessionID] == nil {
		m.data[sessionID] = make(map[string]memoryEntry)
	}
	m.data[sessionID][key] = memoryEntry{value: value, updatedAt: m.now()}
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[sessionID], key)
	if len(m.data[sessionID]) == 0 {
		delete(m.data, sessionID)
	}
	return nil
}

func (m *MemoryRepository) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MemoryRepository) PurgeStale(_ context.Context, maxAge time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	var n int64
	for sid, entries := range m.data {
		for k, e := range entries {
			if e.updatedAt.Before(cutoff) {
				delete(entries, k)
				n++
			}
		}
		if len(entries) == 0 {
			delete(m.data, sid)
		}
	}
	return n, nil
}

func (m *MemoryRepository) Ping(context.Context) error { return nil }

func (m *MemoryRepository) Close() error { return nil }
