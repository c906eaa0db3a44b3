package postgres

import (
	"context"
	"fmt"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

// HistoryStore implements storage.HistoryStore using PostgreSQL.
type HistoryStore struct {
	pool *Pool
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(pool *Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

// Record inserts or updates the entry for rec.Fingerprint. Upsert
// semantics: repeat tests bump test_count, refresh last_seen/status
// and keep the best observed metrics; first_seen and the original
// expression text are preserved.
func (s *HistoryStore) Record(ctx context.Context, rec *domain.ExpressionRecord) error {
	if rec == nil || rec.Fingerprint == "" {
		return storage.ErrInvalidInput
	}

	testCount := rec.TestCount
	if testCount == 0 {
		testCount = 1
	}

	query := `
		INSERT INTO expression_history (
			fingerprint, short_id, expression,
			first_seen, last_seen, test_count,
			best_sharpe, best_fitness, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fingerprint) DO UPDATE SET
			test_count   = expression_history.test_count + 1,
			last_seen    = EXCLUDED.last_seen,
			status       = EXCLUDED.status,
			best_sharpe  = GREATEST(expression_history.best_sharpe, EXCLUDED.best_sharpe),
			best_fitness = GREATEST(expression_history.best_fitness, EXCLUDED.best_fitness)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Fingerprint, rec.ShortID, rec.Expression,
		rec.FirstSeen, rec.LastSeen, testCount,
		rec.BestSharpe, rec.BestFitness, string(rec.Status),
	)
	if err != nil {
		return fmt.Errorf("record expression history: %w", err)
	}
	return nil
}

// Get retrieves the entry for a fingerprint. Returns ErrNotFound if
// the fingerprint has never been recorded.
func (s *HistoryStore) Get(ctx context.Context, fingerprint string) (*domain.ExpressionRecord, error) {
	query := `
		SELECT fingerprint, short_id, expression,
		       first_seen, last_seen, test_count,
		       best_sharpe, best_fitness, status
		FROM expression_history
		WHERE fingerprint = $1
	`

	var rec domain.ExpressionRecord
	var status string
	err := s.pool.QueryRow(ctx, query, fingerprint).Scan(
		&rec.Fingerprint, &rec.ShortID, &rec.Expression,
		&rec.FirstSeen, &rec.LastSeen, &rec.TestCount,
		&rec.BestSharpe, &rec.BestFitness, &status,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get expression history: %w", err)
	}
	rec.Status = domain.ExpressionStatus(status)
	return &rec, nil
}

// Exists reports whether a fingerprint has been recorded.
func (s *HistoryStore) Exists(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM expression_history WHERE fingerprint = $1)`,
		fingerprint,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check expression history: %w", err)
	}
	return exists, nil
}

// All returns every record, ordered by first_seen ASC.
func (s *HistoryStore) All(ctx context.Context) ([]*domain.ExpressionRecord, error) {
	query := `
		SELECT fingerprint, short_id, expression,
		       first_seen, last_seen, test_count,
		       best_sharpe, best_fitness, status
		FROM expression_history
		ORDER BY first_seen ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query expression history: %w", err)
	}
	defer rows.Close()

	var records []*domain.ExpressionRecord
	for rows.Next() {
		var rec domain.ExpressionRecord
		var status string
		if err := rows.Scan(
			&rec.Fingerprint, &rec.ShortID, &rec.Expression,
			&rec.FirstSeen, &rec.LastSeen, &rec.TestCount,
			&rec.BestSharpe, &rec.BestFitness, &status,
		); err != nil {
			return nil, fmt.Errorf("scan expression history: %w", err)
		}
		rec.Status = domain.ExpressionStatus(status)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expression history: %w", err)
	}
	return records, nil
}

// Flush is a no-op; every Record already hits the database.
func (s *HistoryStore) Flush(_ context.Context) error {
	return nil
}
