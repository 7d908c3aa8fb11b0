package scope

import (
	"context"
	"log/slog"
	"sync"
)

// Manager hands out one Store per user. Stores are created lazily on first
// use and restored from persistence exactly once.
type Manager struct {
	mu        sync.Mutex
	directory Directory
	kv        KV
	logger    *slog.Logger
	stores    map[int64]*Store
}

// NewManager constructs a Manager.
func NewManager(dir Directory, kv KV, logger *slog.Logger) *Manager {
	return &Manager{
		directory: dir,
		kv:        kv,
		logger:    logger,
		stores:    make(map[int64]*Store),
	}
}

// ForUser returns the user's Store, creating and restoring it on first use.
func (m *Manager) ForUser(ctx context.Context, userID int64) *Store {
	m.mu.Lock()
	store, ok := m.stores[userID]
	if !ok {
		store = NewStore(m.directory, m.kv, m.logger, userID)
		m.stores[userID] = store
		m.mu.Unlock()
		store.Restore(ctx)
		return store
	}
	m.mu.Unlock()
	return store
}

// Forget drops the in-memory store for a user. Persisted selection stays; the
// next ForUser restores it.
func (m *Manager) Forget(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, userID)
}
