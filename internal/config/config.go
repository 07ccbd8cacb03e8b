// Package config defines process configuration and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/playoffs/internal/adapters/repository"
	"github.com/okian/playoffs/internal/domain/grouping"
	"github.com/okian/playoffs/internal/domain/inference"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// DataPath is the season table CSV.
	DataPath string `koanf:"data_path"`

	// YearCutoff keeps seasons strictly after this year.
	YearCutoff int `koanf:"year_cutoff"`

	// OutcomeCardinality maps preliminary rank to its number of final
	// outcomes. A zero value removes the rank.
	OutcomeCardinality map[string]int `koanf:"outcome_cardinality"`

	// Sampler names the posterior sampler: conjugate or metropolis.
	Sampler string `koanf:"sampler"`

	Iterations int `koanf:"iterations"`
	Chains     int `koanf:"chains"`
	// Warmup of -1 discards the first half of each chain.
	Warmup int `koanf:"warmup"`
	// Seed of 0 draws a fresh seed per run.
	Seed uint64 `koanf:"seed"`

	// Metropolis tuning: starting proposal scale, half-width of the initial
	// box in log-ratio space, and warm-up iterations per step update.
	MetropolisStep        float64 `koanf:"metropolis_step"`
	MetropolisInitRadius  float64 `koanf:"metropolis_init_radius"`
	MetropolisAdaptWindow int     `koanf:"metropolis_adapt_window"`

	CredibleMass  float64 `koanf:"credible_mass"`
	RHatThreshold float64 `koanf:"rhat_threshold"`

	// WorkerCount sets the number of concurrent fits.
	WorkerCount int `koanf:"worker_count"`

	// PlotDir receives trace and density plots; empty disables plotting.
	PlotDir string `koanf:"plot_dir"`

	// MetricsFile receives a Prometheus textfile dump; empty disables it.
	MetricsFile string `koanf:"metrics_file"`

	// CSV header names.
	ColumnYear           string `koanf:"column_year"`
	ColumnLeaguePosition string `koanf:"column_league_position"`
	ColumnFinalPosition  string `koanf:"column_final_position"`
	ColumnTeam           string `koanf:"column_team"`
}

// New creates a Config populated with defaults.
func New() *Config {
	cols := repository.DefaultColumns()
	return &Config{
		LogLevel:   "info",
		LogFormat:  "text",
		DataPath:   "ipldata.csv",
		YearCutoff: 2010,
		OutcomeCardinality: map[string]int{
			"1": 3,
			"2": 3,
			"3": 4,
			"4": 4,
		},
		Sampler:               inference.SamplerConjugate,
		Iterations:            inference.DefaultIterations,
		Chains:                inference.DefaultChains,
		Warmup:                -1,
		MetropolisStep:        inference.DefaultInitialStep,
		MetropolisInitRadius:  inference.DefaultInitRadius,
		MetropolisAdaptWindow: inference.DefaultAdaptWindow,
		CredibleMass:          inference.DefaultCredibleMass,
		RHatThreshold:         inference.DefaultRHatThreshold,
		WorkerCount:           runtime.NumCPU(),
		ColumnYear:            cols.Year,
		ColumnLeaguePosition:  cols.LeaguePosition,
		ColumnFinalPosition:   cols.FinalPosition,
		ColumnTeam:            cols.Team,
	}
}

// Scheme converts OutcomeCardinality into a grouping scheme.
func (c *Config) Scheme() (grouping.Scheme, error) {
	s := make(grouping.Scheme, len(c.OutcomeCardinality))
	for key, m := range c.OutcomeCardinality {
		rank, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: outcome_cardinality key %q is not a rank", ErrInvalidConfig, key)
		}
		if m == 0 {
			continue
		}
		s[rank] = m
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return s, nil
}

// SamplerConfig returns the per-fit sampler settings.
func (c *Config) SamplerConfig() inference.SamplerConfig {
	cfg := inference.SamplerConfig{
		Iterations:    c.Iterations,
		Warmup:        c.Warmup,
		Chains:        c.Chains,
		CredibleMass:  c.CredibleMass,
		RHatThreshold: c.RHatThreshold,
	}
	if cfg.Warmup < 0 {
		cfg.Warmup = cfg.Iterations / 2
	}
	if c.Seed != 0 {
		seed := c.Seed
		cfg.Seed = &seed
	}
	return cfg
}

// NewSampler builds the configured sampler with its tuning applied.
func (c *Config) NewSampler() (inference.Sampler, error) {
	return inference.NewSampler(c.Sampler,
		inference.WithInitialStep(c.MetropolisStep),
		inference.WithInitRadius(c.MetropolisInitRadius),
		inference.WithAdaptWindow(c.MetropolisAdaptWindow),
	)
}

// Columns returns the CSV header names.
func (c *Config) Columns() repository.Columns {
	return repository.Columns{
		Year:           c.ColumnYear,
		LeaguePosition: c.ColumnLeaguePosition,
		FinalPosition:  c.ColumnFinalPosition,
		Team:           c.ColumnTeam,
	}
}

// Validate checks every setting and wraps failures with ErrInvalidConfig.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	if c.DataPath == "" {
		return fmt.Errorf("%w: data_path must not be empty", ErrInvalidConfig)
	}
	if _, err := c.NewSampler(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MetropolisStep <= 0 || c.MetropolisInitRadius <= 0 || c.MetropolisAdaptWindow <= 0 {
		return fmt.Errorf("%w: metropolis tuning values must be positive", ErrInvalidConfig)
	}
	if c.Warmup < -1 {
		return fmt.Errorf("%w: warmup %d must be -1 or non-negative", ErrInvalidConfig, c.Warmup)
	}
	if err := c.SamplerConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.CredibleMass <= 0 {
		return fmt.Errorf("%w: credible_mass must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("%w: worker_count %d must not be negative", ErrInvalidConfig, c.WorkerCount)
	}
	if c.ColumnYear == "" || c.ColumnLeaguePosition == "" || c.ColumnFinalPosition == "" {
		return fmt.Errorf("%w: required column names must not be empty", ErrInvalidConfig)
	}
	_, err := c.Scheme()
	return err
}
