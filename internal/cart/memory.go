package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStorage keeps serialized carts in a map. Used in tests and as the
// zero-dependency default; carts do not survive a restart.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]LineItem, error) {
	m.mu.RLock()
	data, ok := m.carts[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNoSavedCart
	}

	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, items []LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	m.mu.Lock()
	m.carts[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.carts, key)
	m.mu.Unlock()
	return nil
}
