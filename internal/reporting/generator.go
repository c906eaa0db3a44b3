package reporting

import (
	"context"
	"sort"
	"time"

	"alphaminer/internal/domain"
	"alphaminer/internal/fingerprint"
	"alphaminer/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	historyStore storage.HistoryStore
	alphaStore   storage.AlphaStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(historyStore storage.HistoryStore, alphaStore storage.AlphaStore) *Generator {
	return &Generator{
		historyStore: historyStore,
		alphaStore:   alphaStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete run report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	records, err := g.historyStore.All(ctx)
	if err != nil {
		return nil, err
	}

	alphas, err := g.alphaStore.All(ctx)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt: g.now(),
		Summary:     g.buildSummary(records, alphas),
		Alphas:      g.buildAlphaRows(alphas),
		History:     g.buildHistoryRows(records),
	}, nil
}

func (g *Generator) buildSummary(records []*domain.ExpressionRecord, alphas []*domain.MinedAlpha) RunSummary {
	summary := RunSummary{
		ExpressionsTested: len(records),
		AlphasFound:       len(alphas),
	}

	for _, rec := range records {
		summary.TotalSimulations += rec.TestCount
		if rec.BestSharpe > summary.BestSharpe {
			summary.BestSharpe = rec.BestSharpe
			summary.BestExpression = rec.Expression
		}
	}

	for _, a := range alphas {
		switch a.Decision {
		case "ACCEPT":
			summary.Accepted++
		case "HOPEFUL":
			summary.Hopeful++
		}
	}

	return summary
}

func (g *Generator) buildAlphaRows(alphas []*domain.MinedAlpha) []AlphaRow {
	rows := make([]AlphaRow, len(alphas))
	for i, a := range alphas {
		rows[i] = AlphaRow{
			ShortID:    fingerprint.ShortID(a.Fingerprint),
			Expression: a.Expression,
			Decision:   a.Decision,
			Sharpe:     a.Result.Sharpe,
			Fitness:    a.Result.Fitness,
			Turnover:   a.Result.Turnover,
			Returns:    a.Result.Returns,
			FoundAt:    a.FoundAt,
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FoundAt != rows[j].FoundAt {
			return rows[i].FoundAt < rows[j].FoundAt
		}
		return rows[i].Expression < rows[j].Expression
	})
	return rows
}

func (g *Generator) buildHistoryRows(records []*domain.ExpressionRecord) []HistoryRow {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[string(rec.Status)]++
	}

	rows := make([]HistoryRow, 0, len(counts))
	for status, count := range counts {
		rows = append(rows, HistoryRow{Status: status, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Status < rows[j].Status
	})
	return rows
}
