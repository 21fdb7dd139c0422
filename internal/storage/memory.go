package storage

import (
	"slices"
	"sync"
)

// MemoryStorage keeps the selection in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStorage initialises an empty selection.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// List returns a defensive copy of the selection in insertion order.
func (s *MemoryStorage) List() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneEntries(s.entries), nil
}

// Add validates and appends entries. Either all entries are added or none.
func (s *MemoryStorage) Add(entries []Entry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = append(s.entries, cloneEntries(entries)...)
	s.mu.Unlock()

	return nil
}

// Remove deletes the entry with the given ID.
func (s *MemoryStorage) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.entries, func(e Entry) bool { return e.ID == id })
	if idx < 0 {
		return ErrEntryNotFound
	}
	s.entries = slices.Delete(s.entries, idx, idx+1)
	return nil
}

// Clear empties the selection.
func (s *MemoryStorage) Clear() error {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()

	return nil
}

// Close is a no-op for in-memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}
