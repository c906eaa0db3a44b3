package orchestrator

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphaminer/internal/decision"
	"alphaminer/internal/domain"
	"alphaminer/internal/fingerprint"
	"alphaminer/internal/ideas"
	"alphaminer/internal/storage/memory"
)

// fakeSimulator serves canned results keyed by expression.
type fakeSimulator struct {
	results map[string]*domain.AlphaResult
	calls   []string
}

func (f *fakeSimulator) Simulate(_ context.Context, expression string, _ domain.SimulationSettings) (*domain.AlphaResult, error) {
	f.calls = append(f.calls, expression)
	res, ok := f.results[expression]
	if !ok {
		return nil, fmt.Errorf("unexpected expression %q", expression)
	}
	if res != nil {
		cp := *res
		cp.Expression = expression
		return &cp, nil
	}
	return nil, nil
}

type rejectAllValidator struct{}

func (rejectAllValidator) Validate(string) error { return fmt.Errorf("unknown variable: x") }

func passing() *domain.AlphaResult {
	return &domain.AlphaResult{
		AlphaID: "A1", Sharpe: 1.3, Fitness: 1.05, Turnover: 0.35, Returns: 0.12, Success: true,
	}
}

func newOrchestrator(t *testing.T, opts Options) (*Orchestrator, *memory.HistoryStore, *memory.AlphaStore) {
	t.Helper()
	history := memory.NewHistoryStore()
	alphas := memory.NewAlphaStore()
	opts.Engine = decision.NewEngine(decision.DefaultThresholds())
	opts.HistoryStore = history
	opts.AlphaStore = alphas
	opts.Settings = domain.DefaultSettings()
	opts.Now = func() time.Time { return time.Unix(1700000000, 0) }
	return New(opts), history, alphas
}

func TestRun_AcceptsAndPersists(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"rank(ts_delta(close, 21))": passing(),
	}}
	o, history, alphas := newOrchestrator(t, Options{
		Source: ideas.NewSliceSource([]domain.IdeaCandidate{
			{Expression: "rank(ts_delta(close, 21))", Hypothesis: "momentum"},
		}),
		Simulator: sim,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 1, result.Accepted)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, decision.DecisionAccept, result.Outcomes[0].Decision)
	assert.NotEmpty(t, result.Outcomes[0].Criteria)

	all, err := alphas.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ACCEPT", all[0].Decision)
	assert.Equal(t, "momentum", all[0].Hypothesis)
	assert.Equal(t, int64(1700000000), all[0].FoundAt)

	exists, err := history.Exists(context.Background(), fingerprint.Sum("rank(ts_delta(close, 21))"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRun_RecordsShortIDFromFingerprint(t *testing.T) {
	expr := "rank(ts_delta(close, 21))"
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{expr: passing()}}
	o, history, _ := newOrchestrator(t, Options{
		Source:    ideas.NewSliceSource([]domain.IdeaCandidate{{Expression: expr}}),
		Simulator: sim,
	})

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	fp := fingerprint.Sum(expr)
	rec, err := history.Get(context.Background(), fp)
	require.NoError(t, err)

	// The display ID is the first 8 fingerprint bytes, base58-encoded,
	// never an encoding of the expression text.
	raw, err := hex.DecodeString(fp)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(raw[:8]), rec.ShortID)
}

func TestRun_SkipsDuplicates(t *testing.T) {
	// Same expression modulo whitespace and case: one simulation only.
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"rank(close)":   {Sharpe: 0.2, Success: true},
		"RANK( close )": {Sharpe: 0.2, Success: true},
	}}
	o, _, _ := newOrchestrator(t, Options{
		Source: ideas.NewSliceSource([]domain.IdeaCandidate{
			{Expression: "rank(close)"},
			{Expression: "RANK( close )"},
		}),
		Simulator: sim,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 1, result.DuplicatesSkipped)
	assert.Equal(t, 1, result.Rejected)
	assert.Len(t, sim.calls, 1)
}

func TestRun_RefineDoesNotBurnFingerprint(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"rank(closee)": domain.FailedResult("rank(closee)", "unknown variable: closee"),
	}}
	o, history, _ := newOrchestrator(t, Options{
		Source: ideas.NewSliceSource([]domain.IdeaCandidate{
			{Expression: "rank(closee)"},
		}),
		Simulator: sim,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Refined)

	// A corrected variant of the idea must not be blocked by history.
	exists, err := history.Exists(context.Background(), fingerprint.Sum("rank(closee)"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_RefineStreakEventuallyAbandons(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"rank(closee)":  domain.FailedResult("rank(closee)", "unknown variable: closee"),
		"rank(closeee)": domain.FailedResult("rank(closeee)", "unknown variable: closeee"),
	}}
	o, history, _ := newOrchestrator(t, Options{
		Source: ideas.NewSliceSource([]domain.IdeaCandidate{
			{Expression: "rank(closee)"},
			{Expression: "rank(closeee)"},
		}),
		Simulator:         sim,
		MaxRefineAttempts: 2,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Refined)
	assert.Equal(t, 1, result.Abandoned)

	// The first broken variant stays retryable; the second exhausts
	// the streak and is burned.
	exists, err := history.Exists(context.Background(), fingerprint.Sum("rank(closee)"))
	require.NoError(t, err)
	assert.False(t, exists)

	rec, err := history.Get(context.Background(), fingerprint.Sum("rank(closeee)"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, rec.Status)
}

func TestRun_AbandonIsRecorded(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"rank(close)": domain.FailedResult("rank(close)", "Timeout"),
	}}
	o, history, _ := newOrchestrator(t, Options{
		Source:    ideas.NewSliceSource([]domain.IdeaCandidate{{Expression: "rank(close)"}}),
		Simulator: sim,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Abandoned)

	rec, err := history.Get(context.Background(), fingerprint.Sum("rank(close)"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, rec.Status)
}

func TestRun_ReversalResimulatesFlippedExpression(t *testing.T) {
	original := "rank(ts_delta(close, 21))"
	reversed := "(-1 * (rank(ts_delta(close, 21))))"

	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		original: {Sharpe: -1.3, Fitness: -1.05, Turnover: 0.35, Returns: -0.12, Success: true},
		reversed: passing(),
	}}
	o, history, alphas := newOrchestrator(t, Options{
		Source:    ideas.NewSliceSource([]domain.IdeaCandidate{{Expression: original, Hypothesis: "momentum"}}),
		Simulator: sim,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{original, reversed}, sim.calls)
	assert.Equal(t, 1, result.Accepted)

	all, err := alphas.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, reversed, all[0].Expression)
	assert.Equal(t, "momentum", all[0].Hypothesis)

	// Both the original and the flipped expression are burned.
	for _, expr := range []string{original, reversed} {
		exists, err := history.Exists(context.Background(), fingerprint.Sum(expr))
		require.NoError(t, err)
		assert.True(t, exists, expr)
	}
}

func TestRun_StopOnAccept(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"rank(close)":  passing(),
		"rank(volume)": passing(),
	}}
	o, _, _ := newOrchestrator(t, Options{
		Source: ideas.NewSliceSource([]domain.IdeaCandidate{
			{Expression: "rank(close)"},
			{Expression: "rank(volume)"},
		}),
		Simulator:    sim,
		StopOnAccept: true,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 1, result.Accepted)
	assert.Len(t, sim.calls, 1)
}

func TestRun_MaxIterationsBoundsTheRun(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"a(x)": {Sharpe: 0.1, Success: true},
		"b(x)": {Sharpe: 0.1, Success: true},
		"c(x)": {Sharpe: 0.1, Success: true},
	}}
	o, _, _ := newOrchestrator(t, Options{
		Source: ideas.NewSliceSource([]domain.IdeaCandidate{
			{Expression: "a(x)"}, {Expression: "b(x)"}, {Expression: "c(x)"},
		}),
		Simulator:     sim,
		MaxIterations: 2,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Iterations)
	assert.Len(t, sim.calls, 2)
}

func TestRun_ValidatorShortCircuitsSimulation(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{}}
	o, _, _ := newOrchestrator(t, Options{
		Source:    ideas.NewSliceSource([]domain.IdeaCandidate{{Expression: "rank(x)"}}),
		Simulator: sim,
		Validator: rejectAllValidator{},
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Refined)
	assert.Empty(t, sim.calls)
}

func TestRun_SubmissionRejectionBurnsFingerprint(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{
		"rank(close":  nil, // platform refuses at submission
		"rank(close)": {Sharpe: 0.1, Success: true},
	}}
	o, history, _ := newOrchestrator(t, Options{
		Source: ideas.NewSliceSource([]domain.IdeaCandidate{
			{Expression: "rank(close"},
			{Expression: "rank(close)"},
		}),
		Simulator: sim,
	})

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rejected)

	rec, err := history.Get(context.Background(), fingerprint.Sum("rank(close"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, rec.Status)
}

func TestRun_ContextCancellation(t *testing.T) {
	sim := &fakeSimulator{results: map[string]*domain.AlphaResult{}}
	o, _, _ := newOrchestrator(t, Options{
		Source:    ideas.NewSliceSource([]domain.IdeaCandidate{{Expression: "rank(close)"}}),
		Simulator: sim,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
