package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Values are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, profile, key string) (string, error) {
	if err := validateScope(profile, key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[profile][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(ctx context.Context, profile, key, value string) error {
	if err := validateScope(profile, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.data[profile]
	if !ok {
		bucket = make(map[string]string)
		s.data[profile] = bucket
	}
	bucket[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, profile, key string) error {
	if err := validateScope(profile, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[profile], key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
