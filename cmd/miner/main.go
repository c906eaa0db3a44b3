// Package main provides the mining loop entry point.
// Executes: idea intake → dedup → simulation → decision → persistence → report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"alphaminer/internal/brain"
	"alphaminer/internal/config"
	"alphaminer/internal/decision"
	"alphaminer/internal/fingerprint"
	"alphaminer/internal/ideas"
	"alphaminer/internal/observability"
	"alphaminer/internal/orchestrator"
	"alphaminer/internal/refdata"
	"alphaminer/internal/reporting"
	"alphaminer/internal/storage"
	"alphaminer/internal/storage/clickhouse"
	"alphaminer/internal/storage/jsonfile"
	"alphaminer/internal/storage/memory"
	"alphaminer/internal/storage/migrations"
	"alphaminer/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	outputDir := flag.String("output-dir", "docs", "Output directory for run reports")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stderr, "[miner] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, cancelling run", sig)
		cancel()
	}()

	metrics := observability.NewMetrics("")
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("metrics listening on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	historyStore, alphaStore, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer closeStores()

	var archive storage.ResultArchiveStore
	var archiveStore *clickhouse.ResultArchiveStore
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse: %v", err)
		}
		defer conn.Close()
		archiveStore = clickhouse.NewResultArchiveStore(conn)
		archive = archiveStore
	}

	client := brain.NewClient(cfg.Platform.BaseURL, cfg.Platform.Username, cfg.Platform.Password,
		brain.WithPollInterval(time.Duration(cfg.Platform.PollIntervalSec)*time.Second),
		brain.WithSimulationTimeout(time.Duration(cfg.Platform.SimulationTimeout)*time.Minute),
		brain.WithLogger(log.New(os.Stderr, "[brain] ", log.LstdFlags)),
		brain.WithMetrics(metrics),
	)
	if err := client.Authenticate(ctx); err != nil {
		logger.Fatalf("authenticate: %v", err)
	}

	validator, err := buildValidator(ctx, cfg, client, logger)
	if err != nil {
		logger.Printf("reference data unavailable, submitting unvalidated: %v", err)
	}

	source, err := buildSource(cfg)
	if err != nil {
		logger.Fatalf("idea source: %v", err)
	}

	orch := orchestrator.New(orchestrator.Options{
		Source:            source,
		Simulator:         client,
		Engine:            decision.NewEngine(cfg.ThresholdSet()),
		HistoryStore:      historyStore,
		AlphaStore:        alphaStore,
		Validator:         validator,
		Archive:           archive,
		Metrics:           metrics,
		Settings:          cfg.Settings,
		MaxIterations:     cfg.Mining.MaxIterations,
		MaxRefineAttempts: cfg.Mining.MaxRefineAttempts,
		StopOnAccept:      *cfg.Mining.StopOnAccept,
		Verbose:           *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatalf("run: %v", err)
	}

	fmt.Printf("Run completed:\n")
	fmt.Printf("  Iterations: %d\n", result.Iterations)
	fmt.Printf("  Accepted:   %d\n", result.Accepted)
	fmt.Printf("  Hopeful:    %d\n", result.Hopeful)
	fmt.Printf("  Rejected:   %d\n", result.Rejected)
	fmt.Printf("  Refined:    %d\n", result.Refined)
	fmt.Printf("  Duplicates: %d\n", result.DuplicatesSkipped)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	if archiveStore != nil {
		printArchiveBreakdown(ctx, archiveStore)
	}

	if err := writeReport(ctx, historyStore, alphaStore, result.Outcomes, *outputDir); err != nil {
		logger.Fatalf("report: %v", err)
	}
}

// printArchiveBreakdown summarizes the archived decisions across all
// runs recorded in ClickHouse.
func printArchiveBreakdown(ctx context.Context, store *clickhouse.ResultArchiveStore) {
	counts, err := store.CountByDecision(ctx)
	if err != nil {
		fmt.Printf("  Archive breakdown unavailable: %v\n", err)
		return
	}

	decisions := make([]string, 0, len(counts))
	for d := range counts {
		decisions = append(decisions, d)
	}
	sort.Strings(decisions)

	fmt.Printf("  Archived decisions:\n")
	for _, d := range decisions {
		fmt.Printf("    %-8s %d\n", d, counts[d])
	}
}

// buildStores wires the configured persistence backend.
func buildStores(ctx context.Context, cfg *config.Config) (storage.HistoryStore, storage.AlphaStore, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewHistoryStore(), memory.NewAlphaStore(), func() {}, nil

	case "jsonfile":
		history, err := jsonfile.NewHistoryStore(filepath.Join(cfg.Storage.DataDir, "history.json"))
		if err != nil {
			return nil, nil, nil, err
		}
		alphas, err := jsonfile.NewAlphaStore(filepath.Join(cfg.Storage.DataDir, "alphas.json"))
		if err != nil {
			return nil, nil, nil, err
		}
		return history, alphas, func() {}, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewHistoryStore(pool), postgres.NewAlphaStore(pool), pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildValidator loads reference data and returns a local expression
// validator, or nil when the catalog cannot be fetched.
func buildValidator(ctx context.Context, cfg *config.Config, client *brain.Client, logger *log.Logger) (orchestrator.Validator, error) {
	if len(cfg.Mining.Datasets) == 0 {
		return nil, nil
	}

	loader := refdata.NewLoader(client, filepath.Join(cfg.Storage.DataDir, "refdata"), logger)

	queries := make([]brain.DataFieldQuery, 0, len(cfg.Mining.Datasets))
	for _, dataset := range cfg.Mining.Datasets {
		queries = append(queries, brain.DataFieldQuery{
			DatasetID:      dataset,
			InstrumentType: cfg.Settings.InstrumentType,
			Region:         cfg.Settings.Region,
			Universe:       cfg.Settings.Universe,
			Delay:          cfg.Settings.Delay,
		})
	}

	catalog, err := loader.Load(ctx, queries)
	if err != nil {
		return nil, err
	}
	return refdata.NewValidator(catalog), nil
}

// buildSource chains the configured idea sources: file ideas first,
// then the template grid, then the model.
func buildSource(cfg *config.Config) (ideas.Source, error) {
	var sources []ideas.Source

	if cfg.Mining.IdeaFile != "" {
		fileSource, err := ideas.NewFileSource(cfg.Mining.IdeaFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fileSource)
	}

	if len(cfg.Mining.Fields) > 0 {
		sources = append(sources, ideas.NewTemplateSource(nil, cfg.Mining.Fields, nil))
	}

	if cfg.Ollama.Prompt != "" {
		sources = append(sources, ideas.NewOllamaSource(ideas.OllamaOptions{
			Host:      cfg.Ollama.Host,
			Model:     cfg.Ollama.Model,
			Prompt:    cfg.Ollama.Prompt,
			MaxRounds: cfg.Ollama.MaxRounds,
			Logger:    log.New(os.Stderr, "[ollama] ", log.LstdFlags),
		}))
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no idea sources configured")
	}
	return ideas.NewMultiSource(sources...), nil
}

// writeReport renders the markdown and CSV run reports, plus one
// decision report per accepted or hopeful alpha.
func writeReport(ctx context.Context, history storage.HistoryStore, alphas storage.AlphaStore, outcomes []*decision.Outcome, outputDir string) error {
	report, err := reporting.NewGenerator(history, alphas).Generate(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputDir, "run_report.md"), []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outputDir, "alphas.csv"), []byte(reporting.RenderCSV(report.Alphas)), 0o644); err != nil {
		return err
	}

	for _, outcome := range outcomes {
		shortID := fingerprint.ShortID(fingerprint.Sum(outcome.Result.Expression))
		path := filepath.Join(outputDir, "decision_"+shortID+".md")
		if err := os.WriteFile(path, []byte(decision.RenderMarkdown(outcome)), 0o644); err != nil {
			return err
		}
	}

	fmt.Printf("Report written to %s\n", outputDir)
	return nil
}
