package localstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dayhubapp/dayhub/internal/common"
)

// MemoryStore is an in-memory Store for tests. Values still round-trip
// through JSON so type behavior matches the SQLite implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte

	// FailWrites makes Set return this error, simulating quota or
	// serialization failures. FailReads does the same for Get.
	FailWrites error
	FailReads  error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string, out any) error {
	if s.FailReads != nil {
		return s.FailReads
	}

	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return common.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}
