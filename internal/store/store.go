// Package store holds the authoritative in-memory territory list of one game.
package store

import (
	"errors"
	"sync"

	"github.com/playperu/territorio/internal/territorio"
)

var (
	ErrNotFound    = errors.New("territory not found")
	ErrDuplicateID = errors.New("territory id already exists")
)

// Store is a mutex-guarded territory list. Every read returns deep copies so
// callers can never mutate stored state.
type Store struct {
	mu          sync.RWMutex
	territories []territorio.Territory
}

func New(initial ...territorio.Territory) *Store {
	return &Store{territories: territorio.CloneAll(initial)}
}

// List returns a snapshot of every territory in insertion order.
func (s *Store) List() []territorio.Territory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := territorio.CloneAll(s.territories)
	if out == nil {
		out = []territorio.Territory{}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.territories)
}

func (s *Store) Get(id string) (territorio.Territory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return territorio.Territory{}, ErrNotFound
	}
	return s.territories[i].Clone(), nil
}

func (s *Store) Create(t territorio.Territory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(t.ID) >= 0 {
		return ErrDuplicateID
	}
	s.territories = append(s.territories, t.Clone())
	return nil
}

// Update replaces the rings of one territory. Identity and owner are kept.
func (s *Store) Update(id string, coordinates []territorio.Ring) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.territories[i].Coordinates = territorio.CloneRings(coordinates)
	return nil
}

func (s *Store) SetOwner(id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.territories[i].OwnerID = ownerID
	return nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.territories = append(s.territories[:i], s.territories[i+1:]...)
	return nil
}

// DeleteMany removes every listed territory and reports how many existed.
func (s *Store) DeleteMany(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.territories[:0]
	removed := 0
	for _, t := range s.territories {
		if _, ok := drop[t.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	clear(s.territories[len(kept):])
	s.territories = kept
	return removed
}

// ReplaceAll swaps in a complete new territory list in one step.
func (s *Store) ReplaceAll(ts []territorio.Territory) error {
	seen := make(map[string]struct{}, len(ts))
	for _, t := range ts {
		if _, ok := seen[t.ID]; ok {
			return ErrDuplicateID
		}
		seen[t.ID] = struct{}{}
	}

	next := territorio.CloneAll(ts)
	s.mu.Lock()
	s.territories = next
	s.mu.Unlock()
	return nil
}

func (s *Store) index(id string) int {
	for i, t := range s.territories {
		if t.ID == id {
			return i
		}
	}
	return -1
}
