package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

// AlphaStore persists the accepted/hopeful alpha list as a JSON array
// file, rewritten wholesale on every insert.
type AlphaStore struct {
	mu   sync.RWMutex
	path string
	data map[string]*domain.MinedAlpha // keyed by fingerprint
}

// NewAlphaStore opens (or creates) an alpha list file and loads its
// contents.
func NewAlphaStore(path string) (*AlphaStore, error) {
	s := &AlphaStore{
		path: path,
		data: make(map[string]*domain.MinedAlpha),
	}

	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load alpha list %s: %w", path, err)
	}
	if len(raw) > 0 {
		var alphas []*domain.MinedAlpha
		if err := json.Unmarshal(raw, &alphas); err != nil {
			return nil, fmt.Errorf("parse alpha list %s: %w", path, err)
		}
		for _, a := range alphas {
			if a.Fingerprint == "" {
				continue
			}
			s.data[a.Fingerprint] = a
		}
	}

	return s, nil
}

// Insert adds a mined alpha and rewrites the backing file. Returns
// ErrDuplicateKey if the fingerprint is already on the list.
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
	return s.save()
}

// All returns every stored alpha, ordered by FoundAt ASC.
func (s *AlphaStore) All(_ context.Context) ([]*domain.MinedAlpha, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

func (s *AlphaStore) sorted() []*domain.MinedAlpha {
	alphas := make([]*domain.MinedAlpha, 0, len(s.data))
	for _, a := range s.data {
		alphaCopy := *a
		alphas = append(alphas, &alphaCopy)
	}
	sort.Slice(alphas, func(i, j int) bool {
		return alphas[i].FoundAt < alphas[j].FoundAt
	})
	return alphas
}

// save rewrites the whole file. Caller must hold the write lock.
func (s *AlphaStore) save() error {
	raw, err := json.MarshalIndent(s.sorted(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alpha list: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create alpha list dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write alpha list: %w", err)
	}
	return nil
}

// Verify interface compliance at compile time.
var _ storage.AlphaStore = (*AlphaStore)(nil)
