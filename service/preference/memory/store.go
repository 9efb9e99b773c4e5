// Package memory provides the in-memory preference store.  Per-namespace
// update serialization uses striped mutexes keyed by the namespace hash.
package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/stewardai/steward/service/preference"
)

const stripes = 32

// Store is an in-memory preference.Store.
type Store struct {
	synthesizer preference.Synthesizer

	mu       sync.RWMutex
	profiles map[string]string

	locks [stripes]sync.Mutex
}

// New creates an in-memory store that routes updates through synthesizer.
func New(synthesizer preference.Synthesizer) *Store {
	return &Store{
		synthesizer: synthesizer,
		profiles:    make(map[string]string),
	}
}

func (s *Store) Get(_ context.Context, ns preference.Namespace, defaultValue string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, ok := s.profiles[ns.Key()]; ok {
		return value, nil
	}
	return defaultValue, nil
}

func (s *Store) Update(ctx context.Context, ns preference.Namespace, defaultValue, feedback string) error {
	if s.synthesizer == nil {
		return fmt.Errorf("no synthesizer configured")
	}
	lock := &s.locks[stripe(ns.Key())]
	lock.Lock()
	defer lock.Unlock()

	current, err := s.Get(ctx, ns, defaultValue)
	if err != nil {
		return err
	}
	next, err := s.synthesizer.Synthesize(ctx, ns, current, feedback)
	if err != nil {
		return fmt.Errorf("failed to synthesize %v: %w", ns, err)
	}
	s.mu.Lock()
	s.profiles[ns.Key()] = next
	s.mu.Unlock()
	return nil
}

func stripe(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % stripes
}

var _ preference.Store = (*Store)(nil)
