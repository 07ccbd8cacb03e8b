package synthetic

import "time"

// Config holds configuration for a synthetic league history.
type Config struct {
	FirstYear  int     // first season generated
	LastYear   int     // last season generated, inclusive
	Teams      int     // teams per season
	Edge       float64 // probability the better league seed wins a playoff match
	Seed       uint64  // 0 draws a fresh seed
	OutputFile string  // CSV destination, empty means a timestamped name
	Verbose    bool    // enable debug logging
}

// DefaultConfig mirrors the shape of the published table.
func DefaultConfig() Config {
	return Config{
		FirstYear: 2008,
		LastYear:  2021,
		Teams:     8,
		Edge:      0.55,
	}
}

// Stats holds generation statistics.
type Stats struct {
	Seasons   int
	Records   int
	Seed      uint64
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
