package decision

import (
	"fmt"
	"strings"

	"alphaminer/internal/domain"
)

// recoverableKeywords mark simulation errors the caller can fix by
// editing the expression instead of discarding the idea.
var recoverableKeywords = []string{
	"syntax",
	"unknown variable",
	"required attribute",
	"unexpected",
}

// Engine classifies simulation results against a ThresholdSet.
type Engine struct {
	thresholds ThresholdSet
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(thresholds ThresholdSet) *Engine {
	return &Engine{thresholds: thresholds}
}

// Classify maps one result to a decision in a single pass. A REVERSE
// verdict only proposes the flip; Evaluate performs the follow-up
// classification of the reversed metrics.
func (e *Engine) Classify(res *domain.AlphaResult) Decision {
	if res == nil {
		return DecisionAbandon
	}

	if !res.Success {
		if isRecoverable(res.ErrorMessage) {
			return DecisionRefine
		}
		return DecisionAbandon
	}

	if e.PassesProduction(res) {
		return DecisionAccept
	}

	if res.Sharpe > e.thresholds.HopefulSharpe {
		return DecisionHopeful
	}

	if res.Sharpe < -e.thresholds.HopefulSharpe {
		return DecisionReverse
	}

	return DecisionReject
}

// PassesProduction reports whether every production threshold holds.
// All comparisons are inclusive, so a metric sitting exactly on its
// cutoff passes.
func (e *Engine) PassesProduction(res *domain.AlphaResult) bool {
	t := e.thresholds
	return res.Sharpe >= t.MinSharpe &&
		res.Fitness >= t.MinFitness &&
		res.Turnover >= t.MinTurnover &&
		res.Turnover <= t.MaxTurnover &&
		res.Returns >= t.MinReturns
}

// Evaluate classifies a result and, on a REVERSE verdict, classifies
// the sign-flipped metrics exactly once more. The reversed pass can
// only end in ACCEPT, HOPEFUL or REJECT; a second reversal is never
// attempted.
func (e *Engine) Evaluate(res *domain.AlphaResult) *Outcome {
	verdict := e.Classify(res)
	if verdict != DecisionReverse {
		return &Outcome{
			Decision: verdict,
			Result:   res,
			Criteria: e.checklist(res),
		}
	}

	flipped := res.Reversed()
	reverseVerdict := e.Classify(&flipped)
	if reverseVerdict == DecisionReverse {
		reverseVerdict = DecisionReject
	}

	return &Outcome{
		Decision: reverseVerdict,
		Result:   &flipped,
		Reversed: true,
		Criteria: e.checklist(&flipped),
	}
}

// checklist records each production check for the report.
func (e *Engine) checklist(res *domain.AlphaResult) []CriterionResult {
	if res == nil || !res.Success {
		return nil
	}

	t := e.thresholds
	return []CriterionResult{
		{
			Name:      "Sharpe",
			Threshold: fmt.Sprintf(">= %.2f", t.MinSharpe),
			Actual:    fmt.Sprintf("%.4f", res.Sharpe),
			Pass:      res.Sharpe >= t.MinSharpe,
		},
		{
			Name:      "Fitness",
			Threshold: fmt.Sprintf(">= %.2f", t.MinFitness),
			Actual:    fmt.Sprintf("%.4f", res.Fitness),
			Pass:      res.Fitness >= t.MinFitness,
		},
		{
			Name:      "Turnover",
			Threshold: fmt.Sprintf("%.2f..%.2f", t.MinTurnover, t.MaxTurnover),
			Actual:    fmt.Sprintf("%.4f", res.Turnover),
			Pass:      res.Turnover >= t.MinTurnover && res.Turnover <= t.MaxTurnover,
		},
		{
			Name:      "Returns",
			Threshold: fmt.Sprintf(">= %.2f", t.MinReturns),
			Actual:    fmt.Sprintf("%.4f", res.Returns),
			Pass:      res.Returns >= t.MinReturns,
		},
	}
}

// isRecoverable reports whether an error message points at a fixable
// expression problem.
func isRecoverable(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range recoverableKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
