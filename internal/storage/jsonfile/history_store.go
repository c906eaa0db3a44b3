// Package jsonfile implements stores backed by flat JSON array files.
// Files are reloaded at construction and rewritten wholesale on every
// update. Single-process, single-writer use only.
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

// HistoryStore persists expression history as a JSON array file.
type HistoryStore struct {
	mu   sync.RWMutex
	path string
	data map[string]*domain.ExpressionRecord // keyed by fingerprint
}

// NewHistoryStore opens (or creates) a history file and loads its
// contents.
func NewHistoryStore(path string) (*HistoryStore, error) {
	s := &HistoryStore{
		path: path,
		data: make(map[string]*domain.ExpressionRecord),
	}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("load history %s: %w", path, err)
	}
	return s, nil
}

func (s *HistoryStore) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	var records []*domain.ExpressionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse history file: %w", err)
	}
	for _, rec := range records {
		if rec.Fingerprint == "" {
			continue
		}
		s.data[rec.Fingerprint] = rec
	}
	return nil
}

// save rewrites the whole file. Caller must hold the write lock.
func (s *HistoryStore) save() error {
	records := s.sorted()

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func (s *HistoryStore) sorted() []*domain.ExpressionRecord {
	records := make([]*domain.ExpressionRecord, 0, len(s.data))
	for _, rec := range s.data {
		recCopy := *rec
		records = append(records, &recCopy)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].FirstSeen < records[j].FirstSeen
	})
	return records
}

// Record inserts or updates the entry for rec.Fingerprint and
// rewrites the backing file.
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
	} else {
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

	return s.save()
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
	return s.sorted(), nil
}

// Flush rewrites the file from current state.
func (s *HistoryStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// Verify interface compliance at compile time.
var _ storage.HistoryStore = (*HistoryStore)(nil)
