package synthetic

import (
	"fmt"
	"os"

	"github.com/okian/playoffs/pkg/logger"
)

// SetupLogging initialises the global logger, at debug level when verbose.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the season generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Synthetic Season Generator
==========================

Writes a league history in the playoffs CSV layout. Each season ranks the
teams at random, then the top four play the qualifier bracket:

  Qualifier 1:  1st vs 2nd, winner to the final
  Eliminator:   3rd vs 4th, loser finishes 4th
  Qualifier 2:  loser Q1 vs winner E, loser finishes 3rd
  Final:        winner Q1 vs winner Q2

Usage:
  go run cmd/synth-seasons/main.go [options]

Options:
  -from int
        First season (default 2008)
  -to int
        Last season, inclusive (default 2021)
  -teams int
        Teams per season (default 8)
  -edge float
        Probability the better league seed wins a playoff match (default 0.55)
  -seed uint
        Random seed, 0 draws a fresh one
  -output string
        Output CSV file (default: synthetic_seasons_TIMESTAMP.csv)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # A reproducible table shaped like the published one
  go run cmd/synth-seasons/main.go -seed 42 -output ipldata.csv

  # Two centuries of seasons with a strong league-table edge
  go run cmd/synth-seasons/main.go -from 1901 -to 2100 -edge 0.7
`)
}
