// Package orchestrator drives the mining loop.
// It coordinates: idea intake → dedup → simulation → decision → persistence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"alphaminer/internal/decision"
	"alphaminer/internal/domain"
	"alphaminer/internal/fingerprint"
	"alphaminer/internal/ideas"
	"alphaminer/internal/observability"
	"alphaminer/internal/storage"
)

// Simulator runs one expression through the platform. A nil result
// with nil error means the expression was refused at submission.
type Simulator interface {
	Simulate(ctx context.Context, expression string, settings domain.SimulationSettings) (*domain.AlphaResult, error)
}

// Validator checks an expression locally before it is spent on a
// simulation slot.
type Validator interface {
	Validate(expression string) error
}

// Orchestrator coordinates the mining loop execution.
type Orchestrator struct {
	source    ideas.Source
	simulator Simulator
	engine    *decision.Engine
	validator Validator

	historyStore storage.HistoryStore
	alphaStore   storage.AlphaStore
	archive      storage.ResultArchiveStore

	settings          domain.SimulationSettings
	maxIterations     int
	maxRefineAttempts int
	stopOnAccept      bool
	verbose           bool

	refineStreak int

	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Source       ideas.Source
	Simulator    Simulator
	Engine       *decision.Engine
	HistoryStore storage.HistoryStore
	AlphaStore   storage.AlphaStore

	// Optional
	Validator Validator                  // local pre-submission check
	Archive   storage.ResultArchiveStore // append-only result archive
	Metrics   *observability.Metrics

	Settings          domain.SimulationSettings
	MaxIterations     int  // 0 means DefaultMaxIterations
	MaxRefineAttempts int  // 0 means DefaultMaxRefineAttempts
	StopOnAccept      bool // stop the run at the first ACCEPT
	Verbose           bool

	Now func() time.Time // injectable clock for tests
}

// DefaultMaxIterations bounds a run when the source never exhausts.
const DefaultMaxIterations = 500

// DefaultMaxRefineAttempts bounds consecutive recoverable failures
// before the loop stops hoping for a fix and burns the expression.
const DefaultMaxRefineAttempts = 3

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	maxRefineAttempts := opts.MaxRefineAttempts
	if maxRefineAttempts <= 0 {
		maxRefineAttempts = DefaultMaxRefineAttempts
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		source:            opts.Source,
		simulator:         opts.Simulator,
		engine:            opts.Engine,
		validator:         opts.Validator,
		historyStore:      opts.HistoryStore,
		alphaStore:        opts.AlphaStore,
		archive:           opts.Archive,
		settings:          opts.Settings,
		maxIterations:     maxIterations,
		maxRefineAttempts: maxRefineAttempts,
		stopOnAccept:      opts.StopOnAccept,
		verbose:           opts.Verbose,
		metrics:           opts.Metrics,
		now:               now,
	}
}

// RunResult contains counters from one mining run.
type RunResult struct {
	Iterations        int
	DuplicatesSkipped int
	Accepted          int
	Hopeful           int
	Rejected          int
	Refined           int
	Abandoned         int
	Errors            []string

	// Outcomes holds the accepted and hopeful verdicts in the order
	// they were found, for per-alpha decision reports.
	Outcomes []*decision.Outcome
}

// Run executes the mining loop until the source exhausts, the
// iteration budget is spent, an ACCEPT stops the run, or the context
// is cancelled. Per-candidate failures are collected in
// RunResult.Errors rather than aborting the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	defer func() {
		if err := o.historyStore.Flush(context.Background()); err != nil {
			o.log("flush history: %v", err)
		}
	}()

	for result.Iterations < o.maxIterations {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		candidate, err := o.source.Next(ctx)
		if errors.Is(err, ideas.ErrExhausted) {
			o.log("idea source exhausted after %d iterations", result.Iterations)
			break
		}
		if err != nil {
			return result, fmt.Errorf("next candidate: %w", err)
		}

		result.Iterations++
		o.countIteration()

		accepted, err := o.processCandidate(ctx, candidate, result)
		if err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", candidate.Expression, err))
			continue
		}

		if accepted && o.stopOnAccept {
			o.log("stopping on first accepted alpha")
			break
		}
	}

	o.log("run finished: %d iterations, %d accepted, %d hopeful, %d duplicates, %d errors",
		result.Iterations, result.Accepted, result.Hopeful, result.DuplicatesSkipped, len(result.Errors))

	return result, nil
}

// processCandidate takes one idea through dedup, simulation and the
// decision engine. It reports whether the candidate ended in ACCEPT.
func (o *Orchestrator) processCandidate(ctx context.Context, candidate *domain.IdeaCandidate, result *RunResult) (bool, error) {
	fp := fingerprint.Sum(candidate.Expression)

	seen, err := o.historyStore.Exists(ctx, fp)
	if err != nil {
		return false, fmt.Errorf("check history: %w", err)
	}
	if seen {
		o.log("skipping duplicate %s", fingerprint.ShortID(fp))
		result.DuplicatesSkipped++
		o.countDuplicate()
		return false, nil
	}

	if o.validator != nil {
		if err := o.validator.Validate(candidate.Expression); err != nil {
			// A fixable expression is not burned into history, so a
			// corrected variant can be tried later.
			o.log("validation failed for %q: %v", candidate.Expression, err)
			result.Refined++
			o.countDecision(decision.DecisionRefine)
			return false, nil
		}
	}

	res, err := o.simulator.Simulate(ctx, candidate.Expression, o.settings)
	if err != nil {
		return false, fmt.Errorf("simulate: %w", err)
	}
	if res == nil {
		// Refused at submission: record so the expression is not
		// resubmitted next run.
		result.Rejected++
		o.countDecision(decision.DecisionReject)
		return false, o.recordHistory(ctx, fp, candidate.Expression, domain.StatusError, nil)
	}

	outcome := o.engine.Evaluate(res)

	// A promising synthetic reversal earns a real simulation of the
	// flipped expression before anything is persisted.
	if outcome.Reversed && (outcome.Decision == decision.DecisionAccept || outcome.Decision == decision.DecisionHopeful) {
		return o.processReversal(ctx, candidate, fp, res, outcome, result)
	}

	return o.finishCandidate(ctx, candidate, fp, outcome, result)
}

// processReversal simulates the sign-flipped expression for real and
// classifies that result in a single plain pass.
func (o *Orchestrator) processReversal(ctx context.Context, candidate *domain.IdeaCandidate, fp string, original *domain.AlphaResult, synthetic *decision.Outcome, result *RunResult) (bool, error) {
	reversedExpr := synthetic.Result.Expression
	o.log("reversal looks promising, simulating %q", reversedExpr)

	// The original expression is burned either way.
	if err := o.recordHistory(ctx, fp, candidate.Expression, domain.StatusRejected, original); err != nil {
		return false, err
	}

	res, err := o.simulator.Simulate(ctx, reversedExpr, o.settings)
	if err != nil {
		return false, fmt.Errorf("simulate reversal: %w", err)
	}
	if res == nil {
		return false, nil
	}

	reversedCandidate := &domain.IdeaCandidate{
		Expression: reversedExpr,
		Hypothesis: candidate.Hypothesis,
		Origin:     domain.OriginReversal,
	}

	outcome := o.engine.Evaluate(res)
	if outcome.Reversed {
		// Never flip twice.
		outcome = &decision.Outcome{Decision: decision.DecisionReject, Result: res}
	}

	return o.finishCandidate(ctx, reversedCandidate, fingerprint.Sum(reversedExpr), outcome, result)
}

// finishCandidate archives, records history and persists accepted or
// hopeful alphas.
func (o *Orchestrator) finishCandidate(ctx context.Context, candidate *domain.IdeaCandidate, fp string, outcome *decision.Outcome, result *RunResult) (bool, error) {
	o.countDecision(outcome.Decision)

	if outcome.Decision != decision.DecisionRefine {
		o.refineStreak = 0
	}

	if o.archive != nil {
		if err := o.archive.Archive(ctx, fp, string(outcome.Decision), outcome.Result); err != nil {
			// Archive loss is not worth failing the candidate.
			o.log("archive result: %v", err)
			o.countStoreError("archive")
		}
	}

	switch outcome.Decision {
	case decision.DecisionRefine:
		o.refineStreak++
		if o.refineStreak >= o.maxRefineAttempts {
			// The source keeps producing broken variants; stop hoping
			// for a fix and burn this one.
			o.log("abandoning %q after %d recoverable failures in a row", candidate.Expression, o.refineStreak)
			o.refineStreak = 0
			result.Abandoned++
			return false, o.recordHistory(ctx, fp, candidate.Expression, domain.StatusError, outcome.Result)
		}
		// Not burned into history; a corrected variant may follow.
		result.Refined++
		o.countRefinement()
		return false, nil

	case decision.DecisionAbandon:
		result.Abandoned++
		return false, o.recordHistory(ctx, fp, candidate.Expression, domain.StatusError, outcome.Result)

	case decision.DecisionReject, decision.DecisionReverse:
		result.Rejected++
		return false, o.recordHistory(ctx, fp, candidate.Expression, domain.StatusRejected, outcome.Result)

	case decision.DecisionAccept, decision.DecisionHopeful:
		status := domain.StatusAccepted
		if outcome.Decision == decision.DecisionHopeful {
			status = domain.StatusHopeful
		}
		if err := o.recordHistory(ctx, fp, candidate.Expression, status, outcome.Result); err != nil {
			return false, err
		}

		alpha := &domain.MinedAlpha{
			Fingerprint: fp,
			Expression:  outcome.Result.Expression,
			Hypothesis:  candidate.Hypothesis,
			Decision:    string(outcome.Decision),
			Result:      *outcome.Result,
			Iteration:   result.Iterations,
			FoundAt:     o.now().Unix(),
		}
		if err := o.alphaStore.Insert(ctx, alpha); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return false, fmt.Errorf("persist alpha: %w", err)
		}
		o.countAlphaFound()
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Decision == decision.DecisionAccept {
			result.Accepted++
			o.log("ACCEPT %s sharpe=%.3f fitness=%.3f", outcome.Result.Expression, outcome.Result.Sharpe, outcome.Result.Fitness)
			return true, nil
		}
		result.Hopeful++
		o.log("HOPEFUL %s sharpe=%.3f", outcome.Result.Expression, outcome.Result.Sharpe)
		return false, nil

	default:
		return false, fmt.Errorf("unknown decision %q", outcome.Decision)
	}
}

// recordHistory upserts the expression's dedup entry.
func (o *Orchestrator) recordHistory(ctx context.Context, fp, expression string, status domain.ExpressionStatus, res *domain.AlphaResult) error {
	nowUnix := o.now().Unix()
	rec := &domain.ExpressionRecord{
		Fingerprint: fp,
		ShortID:     fingerprint.ShortID(fp),
		Expression:  expression,
		FirstSeen:   nowUnix,
		LastSeen:    nowUnix,
		Status:      status,
	}
	if res != nil {
		rec.BestSharpe = res.Sharpe
		rec.BestFitness = res.Fitness
	}
	if err := o.historyStore.Record(ctx, rec); err != nil {
		o.countStoreError("history")
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (o *Orchestrator) countIteration() {
	if o.metrics != nil {
		o.metrics.IterationsTotal.Inc()
	}
}

func (o *Orchestrator) countDuplicate() {
	if o.metrics != nil {
		o.metrics.DuplicatesSkipped.Inc()
	}
}

func (o *Orchestrator) countDecision(d decision.Decision) {
	if o.metrics != nil {
		o.metrics.DecisionsTotal.WithLabelValues(string(d)).Inc()
	}
}

func (o *Orchestrator) countRefinement() {
	if o.metrics != nil {
		o.metrics.RefinementsAttempted.Inc()
	}
}

func (o *Orchestrator) countAlphaFound() {
	if o.metrics != nil {
		o.metrics.AlphasFound.Inc()
	}
}

func (o *Orchestrator) countStoreError(store string) {
	if o.metrics != nil {
		o.metrics.StoreErrors.WithLabelValues(store).Inc()
	}
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[miner] "+format, args...)
	}
}
