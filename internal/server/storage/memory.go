package storage

import (
	"context"
	"math"
	"sync"

	"github.com/vikinglab/contentvault/internal/common"
)

// MemStore is an in-memory Store used by tests and by components that need a
// store without external dependencies.
type MemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FreeBytes overrides Available when non-zero.
	FreeBytes int64
	// PutErr makes every Put fail; simulates a storage I/O failure.
	PutErr error
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Put(ctx context.Context, name string, data []byte) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) Available() (int64, error) {
	if s.FreeBytes != 0 {
		return s.FreeBytes, nil
	}
	return math.MaxInt64, nil
}
