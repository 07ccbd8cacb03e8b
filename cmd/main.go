package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/playoffs/internal/adapters/plot"
	"github.com/okian/playoffs/internal/adapters/report"
	"github.com/okian/playoffs/internal/adapters/repository"
	app "github.com/okian/playoffs/internal/app"
	"github.com/okian/playoffs/internal/config"
	"github.com/okian/playoffs/internal/domain/inference"
	"github.com/okian/playoffs/pkg/logger"
	"github.com/okian/playoffs/pkg/metrics"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Stdout)
	stop()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// run loads configuration and records, fits every rank, and writes the
// report to out. Plots and the metrics textfile are written when configured.
func run(ctx context.Context, out io.Writer) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LogFormat != "text" {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get()

	sampler, err := cfg.NewSampler()
	if err != nil {
		return err
	}
	scheme, err := cfg.Scheme()
	if err != nil {
		return err
	}

	store := repository.NewCSVStore(cfg.DataPath,
		repository.WithColumns(cfg.Columns()),
		repository.WithLogger(log.Named("repository")),
	)
	records, err := store.Records(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	svc, err := app.New(
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithScheme(scheme),
		app.WithYearCutoff(cfg.YearCutoff),
		app.WithSamplerConfig(cfg.SamplerConfig()),
		app.WithEstimator(inference.NewEstimator(inference.WithSampler(sampler))),
	)
	if err != nil {
		return err
	}

	rep, runErr := svc.Run(ctx, records)
	if rep != nil {
		if err := report.NewWriter().Write(out, rep); err != nil {
			log.Error(ctx, "writing report failed", logger.Error(err))
		}
		if cfg.PlotDir != "" {
			renderPlots(ctx, log, plot.NewRenderer(cfg.PlotDir), rep)
		}
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error(ctx, "writing metrics failed", logger.Error(err))
		}
	}

	if runErr != nil {
		if errors.Is(runErr, app.ErrAllGroupsFailed) {
			log.Error(ctx, "no group produced an accepted posterior")
		}
		return runErr
	}
	return nil
}

func renderPlots(ctx context.Context, log logger.Logger, r *plot.Renderer, rep *app.Report) {
	for _, res := range rep.Results {
		if res.Posterior == nil {
			continue
		}
		path, err := r.Render(res.Job.Group.Rank, res.Posterior)
		if err != nil {
			log.Warn(ctx, "plot failed", logger.Int("rank", res.Job.Group.Rank), logger.Error(err))
			continue
		}
		log.Debug(ctx, "plot written", logger.Int("rank", res.Job.Group.Rank), logger.String("path", path))
	}
}
