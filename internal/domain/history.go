package domain

// ExpressionStatus is the coarse outcome recorded per fingerprint.
type ExpressionStatus string

const (
	StatusAccepted ExpressionStatus = "ACCEPTED"
	StatusHopeful  ExpressionStatus = "HOPEFUL"
	StatusRejected ExpressionStatus = "REJECTED"
	StatusError    ExpressionStatus = "ERROR"
)

// ExpressionRecord tracks one tested expression, keyed by the
// fingerprint of its normalized text. Two expressions differing only
// in whitespace or case share a record. Created on first
// test; repeat tests update the counters, never duplicate the record.
type ExpressionRecord struct {
	Fingerprint string           `json:"fingerprint"` // SHA-256 hex of the normalized expression
	ShortID     string           `json:"short_id"`    // base58 display ID derived from the fingerprint
	Expression  string           `json:"expression"`  // original (non-normalized) text as first seen
	FirstSeen   int64            `json:"first_seen"`  // Unix seconds
	LastSeen    int64            `json:"last_seen"`   // Unix seconds
	TestCount   int              `json:"test_count"`
	BestSharpe  float64          `json:"best_sharpe"`
	BestFitness float64          `json:"best_fitness"`
	Status      ExpressionStatus `json:"status"`
}
