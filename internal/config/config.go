package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"alphaminer/internal/decision"
	"alphaminer/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Platform struct {
		BaseURL           string `yaml:"base_url"`
		Username          string `yaml:"username"`
		Password          string `yaml:"password"`
		PollIntervalSec   int    `yaml:"poll_interval_sec"`
		SimulationTimeout int    `yaml:"simulation_timeout_min"`
	} `yaml:"platform"`

	Settings domain.SimulationSettings `yaml:"settings"`

	Thresholds struct {
		MinSharpe     float64 `yaml:"min_sharpe"`
		MinFitness    float64 `yaml:"min_fitness"`
		MinTurnover   float64 `yaml:"min_turnover"`
		MaxTurnover   float64 `yaml:"max_turnover"`
		MinReturns    float64 `yaml:"min_returns"`
		HopefulSharpe float64 `yaml:"hopeful_sharpe"`
	} `yaml:"thresholds"`

	Mining struct {
		MaxIterations     int      `yaml:"max_iterations"`
		MaxRefineAttempts int      `yaml:"max_refine_attempts"`
		StopOnAccept      *bool    `yaml:"stop_on_accept"`
		IdeaFile          string   `yaml:"idea_file"`
		Datasets          []string `yaml:"datasets"`
		Fields            []string `yaml:"fields"`
	} `yaml:"mining"`

	Ollama struct {
		Host      string `yaml:"host"`
		Model     string `yaml:"model"`
		Prompt    string `yaml:"prompt"`
		MaxRounds int    `yaml:"max_rounds"`
	} `yaml:"ollama"`

	Storage struct {
		Backend       string `yaml:"backend"` // memory, jsonfile, postgres
		DataDir       string `yaml:"data_dir"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`

	Metrics struct {
		Addr string `yaml:"addr"` // empty disables the /metrics server
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BRAIN_BASE_URL"); v != "" {
		cfg.Platform.BaseURL = v
	}
	if v := os.Getenv("BRAIN_USERNAME"); v != "" {
		cfg.Platform.Username = v
	}
	if v := os.Getenv("BRAIN_PASSWORD"); v != "" {
		cfg.Platform.Password = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Mining.MaxIterations = n
		}
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Platform.BaseURL == "" {
		cfg.Platform.BaseURL = "https://api.worldquantbrain.com"
	}
	if cfg.Platform.PollIntervalSec == 0 {
		cfg.Platform.PollIntervalSec = 5
	}
	if cfg.Platform.SimulationTimeout == 0 {
		cfg.Platform.SimulationTimeout = 30
	}
	if cfg.Settings.InstrumentType == "" {
		cfg.Settings = domain.DefaultSettings()
	}
	if cfg.Thresholds.MinSharpe == 0 && cfg.Thresholds.MinFitness == 0 {
		defaults := decision.DefaultThresholds()
		cfg.Thresholds.MinSharpe = defaults.MinSharpe
		cfg.Thresholds.MinFitness = defaults.MinFitness
		cfg.Thresholds.MinTurnover = defaults.MinTurnover
		cfg.Thresholds.MaxTurnover = defaults.MaxTurnover
		cfg.Thresholds.MinReturns = defaults.MinReturns
		cfg.Thresholds.HopefulSharpe = defaults.HopefulSharpe
	}
	if cfg.Mining.MaxIterations == 0 {
		cfg.Mining.MaxIterations = 100
	}
	if cfg.Mining.MaxRefineAttempts == 0 {
		cfg.Mining.MaxRefineAttempts = 3
	}
	if cfg.Mining.StopOnAccept == nil {
		stop := true
		cfg.Mining.StopOnAccept = &stop
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "jsonfile"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Ollama.Host == "" {
		cfg.Ollama.Host = "http://localhost:11434"
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = "llama3"
	}

	return cfg, nil
}

// ThresholdSet converts the configured cutoffs for the decision engine.
func (c *Config) ThresholdSet() decision.ThresholdSet {
	return decision.ThresholdSet{
		MinSharpe:     c.Thresholds.MinSharpe,
		MinFitness:    c.Thresholds.MinFitness,
		MinTurnover:   c.Thresholds.MinTurnover,
		MaxTurnover:   c.Thresholds.MaxTurnover,
		MinReturns:    c.Thresholds.MinReturns,
		HopefulSharpe: c.Thresholds.HopefulSharpe,
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url is required")
	}
	if c.Platform.Username == "" {
		return fmt.Errorf("platform.username is required")
	}
	if c.Platform.Password == "" {
		return fmt.Errorf("platform.password is required")
	}
	switch c.Storage.Backend {
	case "memory", "jsonfile":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be memory, jsonfile or postgres")
	}
	if c.Thresholds.MinTurnover > c.Thresholds.MaxTurnover {
		return fmt.Errorf("thresholds.min_turnover exceeds max_turnover")
	}
	return nil
}
