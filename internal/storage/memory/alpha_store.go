package memory

import (
	"context"
	"sort"
	"sync"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

// AlphaStore is an in-memory implementation of storage.AlphaStore.
type AlphaStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MinedAlpha // keyed by fingerprint
}

// NewAlphaStore creates a new in-memory alpha store.
func NewAlphaStore() *AlphaStore {
	return &AlphaStore{
		data: make(map[string]*domain.MinedAlpha),
	}
}

// Insert adds a mined alpha. Returns ErrDuplicateKey if the
// fingerprint is already on the list.
func (s *AlphaStore) Insert(_ context.Context, a *domain.MinedAlpha) error {
	if a == nil || a.Fingerprint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.Fingerprint]; exists {
		return storage.ErrDuplicateKey
	}

	alphaCopy := *a
	s.data[a.Fingerprint] = &alphaCopy
	return nil
}

// All returns every stored alpha, ordered by FoundAt ASC.
func (s *AlphaStore) All(_ context.Context) ([]*domain.MinedAlpha, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MinedAlpha, 0, len(s.data))
	for _, a := range s.data {
		alphaCopy := *a
		result = append(result, &alphaCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FoundAt < result[j].FoundAt
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AlphaStore = (*AlphaStore)(nil)
