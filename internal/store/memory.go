package store

import (
	"errors"
	"sync"

	"github.com/i474232898/temperature-anomalies/internal/analysis"
)

var (
	// ErrNotFound is returned when no analysis run has completed yet.
	ErrNotFound = errors.New("no analysis results available")
)

// MemoryStore is a concurrency-safe in-memory holder of the latest analysis
// snapshot. Earlier snapshots are discarded on Save.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *analysis.Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the stored snapshot.
func (s *MemoryStore) Save(snapshot analysis.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &snapshot
}

// Latest returns the most recent snapshot.
func (s *MemoryStore) Latest() (analysis.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return analysis.Snapshot{}, ErrNotFound
	}
	return *s.snap, nil
}
