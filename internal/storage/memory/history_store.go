package memory

import (
	"context"
	"sort"
	"sync"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

// HistoryStore is an in-memory implementation of storage.HistoryStore.
type HistoryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExpressionRecord // keyed by fingerprint
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		data: make(map[string]*domain.ExpressionRecord),
	}
}

// Record inserts or updates the entry for rec.Fingerprint.
func (s *HistoryStore) Record(_ context.Context, rec *domain.ExpressionRecord) error {
	if rec == nil || rec.Fingerprint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data[rec.Fingerprint]
	if !ok {
		recCopy := *rec
		if recCopy.TestCount == 0 {
			recCopy.TestCount = 1
		}
		s.data[rec.Fingerprint] = &recCopy
		return nil
	}

	mergeRecord(existing, rec)
	return nil
}

// mergeRecord applies a repeat test to an existing entry.
func mergeRecord(existing, rec *domain.ExpressionRecord) {
	existing.TestCount++
	existing.LastSeen = rec.LastSeen
	existing.Status = rec.Status
	if rec.BestSharpe > existing.BestSharpe {
		existing.BestSharpe = rec.BestSharpe
	}
	if rec.BestFitness > existing.BestFitness {
		existing.BestFitness = rec.BestFitness
	}
}

// Get retrieves the entry for a fingerprint.
func (s *HistoryStore) Get(_ context.Context, fingerprint string) (*domain.ExpressionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[fingerprint]
	if !ok {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// Exists reports whether a fingerprint has been recorded.
func (s *HistoryStore) Exists(_ context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[fingerprint]
	return ok, nil
}

// All returns every record, ordered by FirstSeen ASC.
func (s *HistoryStore) All(_ context.Context) ([]*domain.ExpressionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ExpressionRecord, 0, len(s.data))
	for _, rec := range s.data {
		recCopy := *rec
		result = append(result, &recCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FirstSeen < result[j].FirstSeen
	})

	return result, nil
}

// Flush is a no-op for the in-memory store.
func (s *HistoryStore) Flush(_ context.Context) error {
	return nil
}

// Verify interface compliance at compile time.
var _ storage.HistoryStore = (*HistoryStore)(nil)
