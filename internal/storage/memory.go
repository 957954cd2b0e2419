package storage

import (
	"context"
	"encoding/json"
	"sync"

	"santa/internal/models"
)

// MemoryStore keeps serialized bundles in a map. Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Kind() string { return "memory" }

func (s *MemoryStore) Save(_ context.Context, id string, bundle *models.EventBundle) error {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = raw
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.EventBundle, error) {
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var bundle models.EventBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}
