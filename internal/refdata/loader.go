package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"alphaminer/internal/brain"
)

// Catalog holds the platform reference data an expression can be
// validated against: the operator set and the simulatable data fields.
type Catalog struct {
	Operators  []brain.Operator  `json:"operators"`
	DataFields []brain.DataField `json:"dataFields"`
}

// Fetcher is the subset of the platform client the loader needs.
type Fetcher interface {
	Operators(ctx context.Context) ([]brain.Operator, error)
	DataFields(ctx context.Context, q brain.DataFieldQuery) ([]brain.DataField, error)
}

// Loader fetches reference data and caches it on disk, so repeated
// runs don't hammer the catalog endpoints.
type Loader struct {
	fetcher  Fetcher
	cacheDir string
	logger   *log.Logger
}

// NewLoader creates a loader caching under cacheDir.
func NewLoader(fetcher Fetcher, cacheDir string, logger *log.Logger) *Loader {
	return &Loader{fetcher: fetcher, cacheDir: cacheDir, logger: logger}
}

// Load returns the catalog for the given datasets, preferring the
// disk cache. A missing or unreadable cache falls through to the
// platform and rewrites the cache file.
func (l *Loader) Load(ctx context.Context, queries []brain.DataFieldQuery) (*Catalog, error) {
	if catalog, err := l.loadCache(); err == nil {
		l.logger.Printf("loaded reference data from cache (%d operators, %d fields)",
			len(catalog.Operators), len(catalog.DataFields))
		return catalog, nil
	}

	catalog, err := l.fetch(ctx, queries)
	if err != nil {
		return nil, err
	}

	if err := l.saveCache(catalog); err != nil {
		l.logger.Printf("failed to cache reference data: %v", err)
	}
	return catalog, nil
}

// Refresh bypasses the cache and refetches everything.
func (l *Loader) Refresh(ctx context.Context, queries []brain.DataFieldQuery) (*Catalog, error) {
	catalog, err := l.fetch(ctx, queries)
	if err != nil {
		return nil, err
	}
	if err := l.saveCache(catalog); err != nil {
		return nil, fmt.Errorf("cache reference data: %w", err)
	}
	return catalog, nil
}

func (l *Loader) fetch(ctx context.Context, queries []brain.DataFieldQuery) (*Catalog, error) {
	operators, err := l.fetcher.Operators(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch operators: %w", err)
	}

	var fields []brain.DataField
	for _, q := range queries {
		page, err := l.fetcher.DataFields(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("fetch data fields for %s: %w", q.DatasetID, err)
		}
		fields = append(fields, page...)
	}

	l.logger.Printf("fetched reference data (%d operators, %d fields)", len(operators), len(fields))
	return &Catalog{Operators: operators, DataFields: fields}, nil
}

func (l *Loader) cachePath() string {
	return filepath.Join(l.cacheDir, "refdata.json")
}

func (l *Loader) loadCache() (*Catalog, error) {
	raw, err := os.ReadFile(l.cachePath())
	if err != nil {
		return nil, err
	}
	var catalog Catalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse refdata cache: %w", err)
	}
	if len(catalog.Operators) == 0 {
		return nil, fmt.Errorf("refdata cache is empty")
	}
	return &catalog, nil
}

func (l *Loader) saveCache(catalog *Catalog) error {
	raw, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal refdata cache: %w", err)
	}
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(l.cachePath(), raw, 0o644); err != nil {
		return fmt.Errorf("write refdata cache: %w", err)
	}
	return nil
}
