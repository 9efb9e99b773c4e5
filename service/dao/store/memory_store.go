// Package store provides the in-memory dao.Service backend used for
// approval requests, decisions and run checkpoints in tests and demos.
package store

import (
	"context"
	"sync"

	"github.com/stewardai/steward/service/dao"
)

// MemoryStore keeps entities of type *T mapped by a comparable key K
// obtained from the supplied keySelector. Concrete DAOs embed it instead of
// rewriting identical Save/Load/Delete/List logic per entity; List returns
// everything and higher-level code filters.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
}

// NewMemoryStore creates a store; keySelector extracts the entity key,
// usually the ID field.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
}

// Save stores or overwrites an entity.
func (s *MemoryStore[K, T]) Save(_ context.Context, entity *T) error {
	if entity == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(entity)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = entity
	return nil
}

// Load returns an entity by key, or nil when absent.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return entity, nil
}

// Delete removes an entity; deleting an absent key is a no-op.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// List returns all stored entities in unspecified order.
func (s *MemoryStore[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*T, 0, len(s.records))
	for _, entity := range s.records {
		result = append(result, entity)
	}
	return result, nil
}
