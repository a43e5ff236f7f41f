// Package cache holds per-process caches with TTL: the dashboard state of
// each browser session and the category options shared by all of them.
package cache

import (
	"context"
	"time"

	"myfiance/internal/log"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans every registered cache.
type Manager struct {
	caches      map[string]Cleaner
	logger      *log.Logger
	cleanupDone chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		caches: make(map[string]Cleaner),
		logger: logger,
	}
}

// Register adds a cache under name. Not safe to call after Start.
func (m *Manager) Register(name string, c Cleaner) {
	m.caches[name] = c
}

// CleanAll cleans every registered cache once and returns the number of
// entries removed per cache.
func (m *Manager) CleanAll() map[string]int {
	cleaned := make(map[string]int, len(m.caches))
	for name, c := range m.caches {
		cleaned[name] = c.CleanExpired()
	}
	return cleaned
}

// Start cleans the caches every interval until ctx is cancelled.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	m.cleanupDone = make(chan struct{})
	go func() {
		defer close(m.cleanupDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for name, n := range m.CleanAll() {
					if n > 0 {
						m.logger.Debug("Expired cache entries removed", "cache", name, log.FieldCount, n)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Wait blocks until the cleanup goroutine started by Start has returned.
func (m *Manager) Wait() {
	if m.cleanupDone != nil {
		<-m.cleanupDone
	}
}
