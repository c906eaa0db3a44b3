package storage

import (
	"context"

	"alphaminer/internal/domain"
)

// HistoryStore tracks every expression ever tested, keyed by
// fingerprint. Records are upserted: the first Record call for a
// fingerprint creates the entry, later calls update counters and
// best metrics in place.
type HistoryStore interface {
	// Record inserts or updates the entry for rec.Fingerprint.
	// On update: TestCount is incremented, LastSeen and Status are
	// replaced, BestSharpe/BestFitness keep the maximum observed,
	// FirstSeen and the original expression text are preserved.
	Record(ctx context.Context, rec *domain.ExpressionRecord) error

	// Get retrieves the entry for a fingerprint. Returns ErrNotFound
	// if the fingerprint has never been recorded.
	Get(ctx context.Context, fingerprint string) (*domain.ExpressionRecord, error)

	// Exists reports whether a fingerprint has been recorded.
	Exists(ctx context.Context, fingerprint string) (bool, error)

	// All returns every record, ordered by FirstSeen ASC.
	All(ctx context.Context) ([]*domain.ExpressionRecord, error)

	// Flush persists in-memory state. Best effort on shutdown; a
	// no-op for stores that persist on every write.
	Flush(ctx context.Context) error
}

// AlphaStore holds the accepted/hopeful alpha list.
type AlphaStore interface {
	// Insert adds a mined alpha. Returns ErrDuplicateKey if an alpha
	// with the same fingerprint is already on the list.
	Insert(ctx context.Context, a *domain.MinedAlpha) error

	// All returns every stored alpha, ordered by FoundAt ASC.
	All(ctx context.Context) ([]*domain.MinedAlpha, error)
}

// ResultArchiveStore is the analytics sink: every terminal
// AlphaResult is archived together with the decision it produced.
// Append-only; duplicates are the caller's concern.
type ResultArchiveStore interface {
	Archive(ctx context.Context, fingerprint, decision string, r *domain.AlphaResult) error
}
