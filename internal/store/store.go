// Package store holds the in-memory entity collections of the ledger.
//
// Records are kept by value and copied on the way in and out, so no caller
// can reach store-owned memory. Each store is guarded by a single mutex.
package store

import (
	"fmt"
	"slices"
	"sync"

	"ledger/internal/core"
)

// Entity is what a Store can hold.
type Entity[T any] interface {
	EntityID() int64
	Clone() T
}

// Store is a keyed collection preserving insertion order.
type Store[T Entity[T]] struct {
	mu     sync.Mutex
	kind   string
	items  map[int64]T
	order  []int64
	nextID int64
}

// New creates an empty store; kind names the entity in error messages.
func New[T Entity[T]](kind string) *Store[T] {
	return &Store[T]{
		kind:   kind,
		items:  make(map[int64]T),
		nextID: 1,
	}
}

func (s *Store[T]) Get(id int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return e.Clone(), true
}

func (s *Store[T]) All() []T {
	return s.filter(nil)
}

// Add stores e and moves the id hint past e's id.
func (s *Store[T]) Add(e T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := e.EntityID()
	if _, exists := s.items[id]; exists {
		return fmt.Errorf("%s %d: %w", s.kind, id, core.ErrDuplicateKey)
	}
	s.items[id] = e.Clone()
	s.order = append(s.order, id)
	s.nextID = max(s.nextID, id+1)
	return nil
}

// Update replaces the record in place, keeping its insertion position.
func (s *Store[T]) Update(e T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := e.EntityID()
	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("%s %d: %w", s.kind, id, core.ErrNotFound)
	}
	s.items[id] = e.Clone()
	return nil
}

func (s *Store[T]) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("%s %d: %w", s.kind, id, core.ErrNotFound)
	}
	delete(s.items, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}

// NextID never goes back down after a delete.
func (s *Store[T]) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Len returns the current number of records.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// filter returns copies of the records accepted by keep, in insertion order.
// A nil keep accepts everything.
func (s *Store[T]) filter(keep func(T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		e := s.items[id]
		if keep == nil || keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}
