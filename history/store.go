package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned by Load for an unknown run id
var ErrNotFound = errors.New("history not found")

// Store persists histories by run id
type Store interface {
	Save(ctx context.Context, h *History) error
	Load(ctx context.Context, runID string) (*History, error)
	List(ctx context.Context) ([]string, error)
}

// Encode serializes a history for the persistent backends
func Encode(h *History) ([]byte, error) {
	if h == nil || h.RunID == "" {
		return nil, errors.New("history has no run id")
	}
	return json.Marshal(h)
}

// Decode parses a history written by Encode
func Decode(payload []byte) (*History, error) {
	var h History
	if err := json.Unmarshal(payload, &h); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &h, nil
}

// MemoryStore keeps histories in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*History
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*History)}
}

func (s *MemoryStore) Save(_ context.Context, h *History) error {
	if h == nil || h.RunID == "" {
		return errors.New("history has no run id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[h.RunID] = h.Clone()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, runID string) (*History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return h.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
