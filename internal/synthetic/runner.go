package synthetic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/playoffs/internal/adapters/repository"
	"github.com/okian/playoffs/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run generates a league history and writes it to config.OutputFile.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("synthetic")

	gen, err := NewGenerator(*config)
	if err != nil {
		return nil, err
	}
	stats.Seed = gen.Seed()

	log.Info(ctx, "generating seasons",
		logger.Int("from", config.FirstYear),
		logger.Int("to", config.LastYear),
		logger.Int("teams", config.Teams),
		logger.Float64("edge", config.Edge),
		logger.Any("seed", stats.Seed))

	records, err := gen.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("season generation failed: %w", err)
	}
	if err := verifySeasons(records); err != nil {
		return nil, fmt.Errorf("season verification failed: %w", err)
	}
	stats.Records = len(records)
	stats.Seasons = config.LastYear - config.FirstYear + 1

	path := config.OutputFile
	if path == "" {
		path = "synthetic_seasons_" + time.Now().Format("20060102_150405") + ".csv"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	if err := repository.WriteCSV(f, records, repository.DefaultColumns()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write seasons: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close output file: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	for rank, shares := range Frequencies(records) {
		log.Debug(ctx, "observed final positions",
			logger.Int("leaguePosition", rank),
			logger.Any("shares", shares))
	}
	log.Info(ctx, "seasons written",
		logger.String("file", path),
		logger.Int("seasons", stats.Seasons),
		logger.Int("records", stats.Records),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}
