package reporting

import "time"

// Report summarizes one mining run from the persisted stores.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Run Summary
	Summary RunSummary

	// Alpha rows (sorted by found_at, then fingerprint)
	Alphas []AlphaRow

	// Expression history breakdown by status
	History []HistoryRow
}

// RunSummary contains aggregate counters across the stores.
type RunSummary struct {
	ExpressionsTested int
	TotalSimulations  int
	AlphasFound       int
	Accepted          int
	Hopeful           int
	BestSharpe        float64
	BestExpression    string
}

// AlphaRow represents one mined alpha in the report table.
type AlphaRow struct {
	ShortID    string
	Expression string
	Decision   string
	Sharpe     float64
	Fitness    float64
	Turnover   float64
	Returns    float64
	FoundAt    int64 // Unix seconds
}

// HistoryRow counts tested expressions per final status.
type HistoryRow struct {
	Status string
	Count  int
}
