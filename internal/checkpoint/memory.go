package checkpoint

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ederson/cardforge/internal/models"
)

// MemoryStore keeps checkpoints in process memory. Used in tests and as a
// fallback when no durable backend is configured. Entries hold the JSON
// encoding so corrupt-data handling matches the durable backends.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, key string, state models.AutoScanState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = raw
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key string) (*models.AutoScanState, error) {
	s.mu.RLock()
	raw, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var state models.AutoScanState
	if err := json.Unmarshal(raw, &state); err != nil {
		// Unreadable checkpoint degrades to a fresh start.
		return nil, nil
	}
	return &state, nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Put stores a raw value without validation. Test hook for exercising the
// corrupt-checkpoint path.
func (s *MemoryStore) Put(key string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = raw
}
