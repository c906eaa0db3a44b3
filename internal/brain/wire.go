package brain

import "alphaminer/internal/domain"

// Simulation progress statuses reported by the platform.
const (
	statusComplete = "COMPLETE"
	statusError    = "ERROR"
	statusFailed   = "FAILED"
)

// simulationRequest is the POST /simulations body.
type simulationRequest struct {
	Type     string                    `json:"type"`
	Regular  string                    `json:"regular"`
	Settings domain.SimulationSettings `json:"settings"`
}

// progressResponse is the GET <progress URL> body.
type progressResponse struct {
	Status  string `json:"status"`
	Alpha   string `json:"alpha"`
	Message string `json:"message"`
}

// alphaResponse is the GET /alphas/{id} body, trimmed to the
// in-sample block the decision engine consumes.
type alphaResponse struct {
	ID string       `json:"id"`
	IS alphaMetrics `json:"is"`
}

type alphaMetrics struct {
	Sharpe     float64 `json:"sharpe"`
	Fitness    float64 `json:"fitness"`
	Turnover   float64 `json:"turnover"`
	Returns    float64 `json:"returns"`
	Drawdown   float64 `json:"drawdown"`
	Margin     float64 `json:"margin"`
	LongCount  int     `json:"longCount"`
	ShortCount int     `json:"shortCount"`
}
