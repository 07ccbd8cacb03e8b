// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/okian/playoffs/internal/domain/inference"
)

// Record is one team-season of league history.
type Record struct {
	Year           int    // season year
	Team           string // optional, informational only
	LeaguePosition int    // rank at the end of the preliminary stage, 1-based
	FinalPosition  int    // rank after the playoffs, 1-based
}

// Key identifies the season slot a record occupies. Each season has exactly
// one team per league position.
func (r Record) Key() string {
	return fmt.Sprintf("%d/%d", r.Year, r.LeaguePosition)
}

// Group is the sequence of final positions observed for one preliminary rank.
type Group struct {
	Rank     int   // preliminary rank the group was selected by
	Outcomes int   // number of possible final outcomes (m)
	Labels   []int // final positions, original record order
}

// N returns the number of observations.
func (g Group) N() int { return len(g.Labels) }

// Empty reports whether no record survived filtering.
func (g Group) Empty() bool { return len(g.Labels) == 0 }

// FitJob is one unit of work for the fit pool.
type FitJob struct {
	RunID  string
	Group  Group
	Config inference.SamplerConfig
}

// FitResult is what a worker produces for a FitJob. Posterior may be set
// together with Err when the sampler finished but failed diagnostics.
type FitResult struct {
	Job       FitJob
	Posterior *inference.Posterior
	Err       error
	Duration  time.Duration
}

// OK reports whether the fit produced an accepted posterior.
func (r FitResult) OK() bool { return r.Err == nil && r.Posterior != nil }
