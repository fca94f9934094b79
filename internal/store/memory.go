package store

import (
	"context"
	"sync"

	"storefront/internal/models"
)

// MemoryStore keeps collections in process memory. Collections are held in
// their encoded form so reads never alias stored state.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]byte)}
}

// ReadCollection implements Store
func (s *MemoryStore) ReadCollection(_ context.Context, name string) ([]models.Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, readErr(name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.collections[name]
	if !ok {
		s.collections[name] = []byte("[]")
		return []models.Record{}, nil
	}

	records, err := models.DecodeRecords(data)
	if err != nil {
		s.collections[name] = []byte("[]")
		return []models.Record{}, nil
	}
	return records, nil
}

// Exists implements Store
func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, readErr(name, err)
	}

	s.mu.RLock()
	_, ok := s.collections[name]
	s.mu.RUnlock()
	return ok, nil
}

// WriteCollection implements Store
func (s *MemoryStore) WriteCollection(_ context.Context, name string, records []models.Record) error {
	if err := ValidateName(name); err != nil {
		return writeErr(name, err)
	}

	data, err := models.EncodeRecords(records)
	if err != nil {
		return writeErr(name, err)
	}

	s.mu.Lock()
	s.collections[name] = data
	s.mu.Unlock()
	return nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}
