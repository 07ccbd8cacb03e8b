package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/playoffs/internal/synthetic"
)

const defaultTimeout = time.Minute

func main() {
	def := synthetic.DefaultConfig()
	var (
		from    = flag.Int("from", def.FirstYear, "First season")
		to      = flag.Int("to", def.LastYear, "Last season, inclusive")
		teams   = flag.Int("teams", def.Teams, "Teams per season")
		edge    = flag.Float64("edge", def.Edge, "Probability the better league seed wins a playoff match")
		seed    = flag.Uint64("seed", 0, "Random seed, 0 draws a fresh one")
		output  = flag.String("output", "", "Output CSV file (default: synthetic_seasons_TIMESTAMP.csv)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		synthetic.ShowHelp()
		return
	}

	if err := synthetic.SetupLogging(*verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	config := &synthetic.Config{
		FirstYear:  *from,
		LastYear:   *to,
		Teams:      *teams,
		Edge:       *edge,
		Seed:       *seed,
		OutputFile: *output,
		Verbose:    *verbose,
	}
	if err := run(config); err != nil {
		_, _ = os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(config *synthetic.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := synthetic.Run(ctx, config)
	return err
}
