package domain

import "fmt"

// AlphaResult is the terminal outcome of one submitted expression.
// Created exactly once when a submit+poll cycle finishes; never
// mutated afterwards. If Success is false the five performance
// metrics are zero and ErrorMessage is non-empty.
type AlphaResult struct {
	AlphaID    string `json:"alpha_id"` // backend identifier, empty if the job never completed
	Expression string `json:"expression"`

	// In-sample performance metrics
	Sharpe   float64 `json:"sharpe"`
	Fitness  float64 `json:"fitness"`
	Turnover float64 `json:"turnover"`
	Returns  float64 `json:"returns"`
	Drawdown float64 `json:"drawdown"`
	Margin   float64 `json:"margin"`

	LongCount  int `json:"long_count"`
	ShortCount int `json:"short_count"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// FailedResult builds a failure outcome for an expression.
func FailedResult(expression, message string) *AlphaResult {
	return &AlphaResult{
		Expression:   expression,
		Success:      false,
		ErrorMessage: message,
	}
}

// Reversed returns a fresh synthetic result for the sign-flipped
// expression (-1 * (expr)): sharpe, fitness and returns are negated
// and the long/short position counts are swapped. The synthetic
// result carries no backend identifier because the reversed
// expression has not actually been simulated.
func (r AlphaResult) Reversed() AlphaResult {
	return AlphaResult{
		Expression: ReverseExpression(r.Expression),
		Sharpe:     -r.Sharpe,
		Fitness:    -r.Fitness,
		Turnover:   r.Turnover,
		Returns:    -r.Returns,
		Drawdown:   r.Drawdown,
		Margin:     r.Margin,
		LongCount:  r.ShortCount,
		ShortCount: r.LongCount,
		Success:    r.Success,
	}
}

// ReverseExpression wraps an expression so its signal is negated.
func ReverseExpression(expression string) string {
	return fmt.Sprintf("(-1 * (%s))", expression)
}
