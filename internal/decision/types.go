package decision

import "alphaminer/internal/domain"

// Decision is the verdict on one simulated expression.
type Decision string

const (
	// DecisionAccept: the expression meets every production threshold.
	DecisionAccept Decision = "ACCEPT"
	// DecisionHopeful: strong signal that misses a secondary threshold.
	DecisionHopeful Decision = "HOPEFUL"
	// DecisionReverse: strongly negative signal worth flipping.
	DecisionReverse Decision = "REVERSE"
	// DecisionReject: simulated fine but the signal is too weak.
	DecisionReject Decision = "REJECT"
	// DecisionRefine: the simulation failed with a recoverable error.
	DecisionRefine Decision = "REFINE"
	// DecisionAbandon: the simulation failed with no path forward.
	DecisionAbandon Decision = "ABANDON"
)

// ThresholdSet holds the cutoffs the engine classifies against.
// Production checks are inclusive; the hopeful and reversal checks
// are strict.
type ThresholdSet struct {
	MinSharpe     float64
	MinFitness    float64
	MinTurnover   float64
	MaxTurnover   float64
	MinReturns    float64
	HopefulSharpe float64
}

// DefaultThresholds returns conservative production cutoffs.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		MinSharpe:     1.25,
		MinFitness:    1.0,
		MinTurnover:   0.01,
		MaxTurnover:   0.7,
		MinReturns:    0.0,
		HopefulSharpe: 1.0,
	}
}

// CriterionResult represents pass/fail for one threshold check.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Outcome is the engine's verdict plus the checklist behind it. When
// a reversal was evaluated, Result carries the synthetic reversed
// metrics and expression instead of the original ones.
type Outcome struct {
	Decision Decision
	Result   *domain.AlphaResult
	Reversed bool
	Criteria []CriterionResult
}
