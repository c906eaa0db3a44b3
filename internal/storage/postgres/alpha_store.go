package postgres

import (
	"context"
	"fmt"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

// AlphaStore implements storage.AlphaStore using PostgreSQL.
type AlphaStore struct {
	pool *Pool
}

// NewAlphaStore creates a new AlphaStore.
func NewAlphaStore(pool *Pool) *AlphaStore {
	return &AlphaStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlphaStore = (*AlphaStore)(nil)

// Insert adds a mined alpha. Returns ErrDuplicateKey if the
// fingerprint is already on the list.
func (s *AlphaStore) Insert(ctx context.Context, a *domain.MinedAlpha) error {
	if a == nil || a.Fingerprint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO mined_alphas (
			fingerprint, expression, hypothesis, decision,
			alpha_id, sharpe, fitness, turnover, returns,
			drawdown, margin, long_count, short_count,
			iteration, found_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		a.Fingerprint, a.Expression, a.Hypothesis, a.Decision,
		a.Result.AlphaID, a.Result.Sharpe, a.Result.Fitness, a.Result.Turnover, a.Result.Returns,
		a.Result.Drawdown, a.Result.Margin, a.Result.LongCount, a.Result.ShortCount,
		a.Iteration, a.FoundAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert mined alpha: %w", err)
	}
	return nil
}

// All returns every stored alpha, ordered by found_at ASC.
func (s *AlphaStore) All(ctx context.Context) ([]*domain.MinedAlpha, error) {
	query := `
		SELECT fingerprint, expression, hypothesis, decision,
		       alpha_id, sharpe, fitness, turnover, returns,
		       drawdown, margin, long_count, short_count,
		       iteration, found_at
		FROM mined_alphas
		ORDER BY found_at ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query mined alphas: %w", err)
	}
	defer rows.Close()

	var alphas []*domain.MinedAlpha
	for rows.Next() {
		var a domain.MinedAlpha
		if err := rows.Scan(
			&a.Fingerprint, &a.Expression, &a.Hypothesis, &a.Decision,
			&a.Result.AlphaID, &a.Result.Sharpe, &a.Result.Fitness, &a.Result.Turnover, &a.Result.Returns,
			&a.Result.Drawdown, &a.Result.Margin, &a.Result.LongCount, &a.Result.ShortCount,
			&a.Iteration, &a.FoundAt,
		); err != nil {
			return nil, fmt.Errorf("scan mined alpha: %w", err)
		}
		a.Result.Expression = a.Expression
		a.Result.Success = true
		alphas = append(alphas, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mined alphas: %w", err)
	}
	return alphas, nil
}
