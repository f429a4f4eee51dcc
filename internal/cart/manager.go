package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Dhanashree-02/shreegraphicsdesign-sub002/internal/notify"
)

// Manager hands out one Store per session key, hydrating from storage on
// first access. Handlers receive an explicit cart handle instead of sharing
// an ambient singleton.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	storage  Storage
	pricing  Pricing
	notifier notify.Notifier
	log      *zap.Logger
}

func NewManager(storage Storage, pricing Pricing, notifier notify.Notifier, log *zap.Logger) *Manager {
	return &Manager{
		stores:   make(map[string]*Store),
		storage:  storage,
		pricing:  pricing,
		notifier: notifier,
		log:      log,
	}
}

func (m *Manager) Cart(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}
	s := NewStore(ctx, sessionID, m.storage, m.pricing, m.notifier, m.log)
	m.stores[sessionID] = s
	return s
}
