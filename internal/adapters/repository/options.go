package repository

import "github.com/okian/playoffs/pkg/logger"

// Columns names the CSV header fields records are read from.
type Columns struct {
	Year           string
	LeaguePosition string
	FinalPosition  string
	Team           string // optional
}

// DefaultColumns returns the header of the published season table.
func DefaultColumns() Columns {
	return Columns{
		Year:           "Year",
		LeaguePosition: "League_Position",
		FinalPosition:  "End_Position",
		Team:           "Team",
	}
}

// Option applies a configuration option to the CSVStore.
type Option func(*CSVStore)

// WithColumns overrides header names. Empty fields keep their defaults.
func WithColumns(c Columns) Option {
	return func(s *CSVStore) {
		if c.Year != "" {
			s.columns.Year = c.Year
		}
		if c.LeaguePosition != "" {
			s.columns.LeaguePosition = c.LeaguePosition
		}
		if c.FinalPosition != "" {
			s.columns.FinalPosition = c.FinalPosition
		}
		if c.Team != "" {
			s.columns.Team = c.Team
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *CSVStore) {
		if l != nil {
			s.logger = l
		}
	}
}
