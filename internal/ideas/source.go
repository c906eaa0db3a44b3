package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"alphaminer/internal/domain"
)

// ErrExhausted signals a source has no more candidates to offer.
var ErrExhausted = errors.New("idea source exhausted")

// Source produces expression candidates for the mining loop.
type Source interface {
	// Next returns the next candidate, or ErrExhausted when the
	// source has nothing left.
	Next(ctx context.Context) (*domain.IdeaCandidate, error)
}

// SliceSource serves a fixed list of candidates in order.
type SliceSource struct {
	mu         sync.Mutex
	candidates []domain.IdeaCandidate
	next       int
}

// NewSliceSource creates a source over a fixed candidate list.
func NewSliceSource(candidates []domain.IdeaCandidate) *SliceSource {
	return &SliceSource{candidates: candidates}
}

func (s *SliceSource) Next(ctx context.Context) (*domain.IdeaCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.candidates) {
		return nil, ErrExhausted
	}
	candidate := s.candidates[s.next]
	s.next++
	return &candidate, nil
}

// NewFileSource loads a JSON array of candidates from disk. Entries
// without an expression are skipped.
func NewFileSource(path string) (*SliceSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read idea file %s: %w", path, err)
	}

	var candidates []domain.IdeaCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("parse idea file %s: %w", path, err)
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.Expression == "" {
			continue
		}
		if c.Origin == "" {
			c.Origin = domain.OriginFile
		}
		kept = append(kept, c)
	}

	return NewSliceSource(kept), nil
}

// MultiSource drains sources in order, moving to the next one when
// the current is exhausted.
type MultiSource struct {
	mu      sync.Mutex
	sources []Source
	current int
}

// NewMultiSource chains sources.
func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (m *MultiSource) Next(ctx context.Context) (*domain.IdeaCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.current < len(m.sources) {
		candidate, err := m.sources[m.current].Next(ctx)
		if errors.Is(err, ErrExhausted) {
			m.current++
			continue
		}
		return candidate, err
	}
	return nil, ErrExhausted
}
