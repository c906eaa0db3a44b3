package clickhouse

import (
	"context"
	"fmt"
	"time"

	"alphaminer/internal/domain"
	"alphaminer/internal/storage"
)

// ResultArchiveStore implements storage.ResultArchiveStore using ClickHouse.
// Every simulation outcome is archived append-only, including rejections
// and failures, for offline analysis of the mining run.
type ResultArchiveStore struct {
	conn *Conn
}

// NewResultArchiveStore creates a new ResultArchiveStore.
func NewResultArchiveStore(conn *Conn) *ResultArchiveStore {
	return &ResultArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResultArchiveStore = (*ResultArchiveStore)(nil)

// Archive appends one simulation result row.
func (s *ResultArchiveStore) Archive(ctx context.Context, fingerprint, decision string, res *domain.AlphaResult) error {
	if res == nil || fingerprint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO alpha_results (
			fingerprint, alpha_id, expression, decision,
			sharpe, fitness, turnover, returns, drawdown, margin,
			long_count, short_count,
			success, error_message, archived_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?, ?, ?,
			?, ?,
			?, ?, ?
		)
	`

	success := uint8(0)
	if res.Success {
		success = 1
	}

	err := s.conn.Exec(ctx, query,
		fingerprint, res.AlphaID, res.Expression, decision,
		res.Sharpe, res.Fitness, res.Turnover, res.Returns, res.Drawdown, res.Margin,
		int32(res.LongCount), int32(res.ShortCount),
		success, res.ErrorMessage, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("archive alpha result: %w", err)
	}
	return nil
}

// CountByDecision returns the number of archived results per decision.
func (s *ResultArchiveStore) CountByDecision(ctx context.Context) (map[string]uint64, error) {
	rows, err := s.conn.Query(ctx, `SELECT decision, count() FROM alpha_results GROUP BY decision`)
	if err != nil {
		return nil, fmt.Errorf("query decision counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var decision string
		var n uint64
		if err := rows.Scan(&decision, &n); err != nil {
			return nil, fmt.Errorf("scan decision count: %w", err)
		}
		counts[decision] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision counts: %w", err)
	}
	return counts, nil
}
