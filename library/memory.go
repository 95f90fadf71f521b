package library

import (
	"cmp"
	"context"
	"slices"
	"sync"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
)

// MemoryStore provides thread-safe in-memory storage.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]vitrine.LibraryItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]vitrine.LibraryItem),
	}
}

// List returns all items ordered by timestamp, newest first.
func (m *MemoryStore) List(_ context.Context) ([]vitrine.LibraryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]vitrine.LibraryItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b vitrine.LibraryItem) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Save upserts item. An existing item keeps its type and timestamp.
func (m *MemoryStore) Save(_ context.Context, item vitrine.LibraryItem) error {
	if item.ID == "" {
		return ErrInvalidItem
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[item.ID]; ok {
		old.URL = item.URL
		old.Prompt = item.Prompt
		old.Title = item.Title
		item = old
	}
	m.items[item.ID] = item
	return nil
}

// Delete removes an item.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Len returns the number of stored items.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
