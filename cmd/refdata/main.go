// Package main refreshes the platform reference data cache: operator
// list and simulatable data fields for the configured datasets.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"alphaminer/internal/brain"
	"alphaminer/internal/config"
	"alphaminer/internal/refdata"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	logger := log.New(os.Stderr, "[refdata] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	client := brain.NewClient(cfg.Platform.BaseURL, cfg.Platform.Username, cfg.Platform.Password,
		brain.WithLogger(log.New(os.Stderr, "[brain] ", log.LstdFlags)),
	)
	if err := client.Authenticate(ctx); err != nil {
		logger.Fatalf("authenticate: %v", err)
	}

	// With no datasets configured, list what the account can simulate
	// so the operator can pick some for mining.datasets.
	if len(cfg.Mining.Datasets) == 0 {
		sets, err := client.DataSets(ctx, brain.DataSetQuery{
			InstrumentType: cfg.Settings.InstrumentType,
			Region:         cfg.Settings.Region,
			Universe:       cfg.Settings.Universe,
			Delay:          cfg.Settings.Delay,
		})
		if err != nil {
			logger.Fatalf("list datasets: %v", err)
		}
		fmt.Printf("Available datasets (%d):\n", len(sets))
		for _, set := range sets {
			fmt.Printf("  %-16s %s (%d fields)\n", set.ID, set.Name, set.FieldCount)
		}
		return
	}

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

	loader := refdata.NewLoader(client, filepath.Join(cfg.Storage.DataDir, "refdata"), logger)
	catalog, err := loader.Refresh(ctx, queries)
	if err != nil {
		logger.Fatalf("refresh reference data: %v", err)
	}

	fmt.Printf("Reference data refreshed:\n")
	fmt.Printf("  Operators:   %d\n", len(catalog.Operators))
	fmt.Printf("  Data fields: %d\n", len(catalog.DataFields))
}
