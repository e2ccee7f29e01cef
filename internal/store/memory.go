package store

import (
	"context"
	"sync"

	"github.com/coldreach/email-generator/internal/model"
)

// MemoryStore implements Store using an in-memory map, preserving insertion
// order for List.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]model.Template
	order []string
}

// NewMemoryStore constructs a store holding the given templates.
func NewMemoryStore(seed ...model.Template) *MemoryStore {
	m := &MemoryStore{byID: make(map[string]model.Template, len(seed))}
	for _, t := range seed {
		if _, exists := m.byID[t.ID]; exists {
			continue
		}
		m.byID[t.ID] = t.Clone()
		m.order = append(m.order, t.ID)
	}
	return m
}

// Add inserts a new template.
func (m *MemoryStore) Add(_ context.Context, t model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[t.ID]; exists {
		return model.ErrTemplateExists
	}
	m.byID[t.ID] = t.Clone()
	m.order = append(m.order, t.ID)
	return nil
}

// Get returns the template with the given ID.
func (m *MemoryStore) Get(_ context.Context, id string) (model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.byID[id]
	if !ok {
		return model.Template{}, model.ErrTemplateNotFound
	}
	return t.Clone(), nil
}

// List returns all templates in insertion order.
func (m *MemoryStore) List(_ context.Context) ([]model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]model.Template, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, m.byID[id].Clone())
	}
	return items, nil
}
