// Package watchlist holds the process-wide collection of watch lists.
//
// The store is shared by every connected session; sessions reference
// entries by id and keep their own copy of the active selection, so a
// delete by one session never reaches into another session's state.
package watchlist

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrDuplicateID is returned by Create when the caller-supplied id is
// already taken by a stored watch list.
var ErrDuplicateID = errors.New("watch list id already exists")

// Store is the mutable watch list collection, keyed by id.
// All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	lists []WatchList
	byID  map[ID]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID: make(map[ID]int),
	}
}

// Create adds a watch list and returns the stored copy. Ids are caller
// input: an empty id gets a generated one, a conflicting id is rejected
// with ErrDuplicateID.
func (s *Store) Create(wl WatchList) (WatchList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wl.ID == "" {
		wl.ID = ID(uuid.NewString())
	}
	if _, exists := s.byID[wl.ID]; exists {
		return WatchList{}, ErrDuplicateID
	}

	stored := wl.clone()
	s.byID[stored.ID] = len(s.lists)
	s.lists = append(s.lists, stored)
	return stored.clone(), nil
}

// FindByID returns the watch list with the given id.
func (s *Store) FindByID(id ID) (WatchList, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return WatchList{}, false
	}
	return s.lists[i].clone(), true
}

// Delete removes the watch list with the given id and reports whether
// anything was removed.
func (s *Store) Delete(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return false
	}

	s.lists = append(s.lists[:i], s.lists[i+1:]...)
	delete(s.byID, id)
	for j := i; j < len(s.lists); j++ {
		s.byID[s.lists[j].ID] = j
	}
	return true
}

// ListAll returns every stored watch list in insertion order.
func (s *Store) ListAll() []WatchList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]WatchList, 0, len(s.lists))
	for _, wl := range s.lists {
		out = append(out, wl.clone())
	}
	return out
}

// Len returns the number of stored watch lists.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists)
}
