// Package grouping partitions league history by preliminary rank.
package grouping

import (
	"fmt"
	"maps"
	"slices"

	"github.com/okian/playoffs/internal/domain/model"
)

// Scheme maps a preliminary rank to the number of final outcomes its group
// can take. It is configuration, never inferred from data: in the source
// league the top two teams can only finish in the top three, the next two in
// the top four.
type Scheme map[int]int

// DefaultScheme returns the playoff bracket the outcome sizes were taken from.
func DefaultScheme() Scheme {
	return Scheme{1: 3, 2: 3, 3: 4, 4: 4}
}

// Ranks returns the configured ranks in ascending order.
func (s Scheme) Ranks() []int {
	return slices.Sorted(maps.Keys(s))
}

// Validate checks every rank and outcome count.
func (s Scheme) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no ranks configured", ErrInvalidScheme)
	}
	for rank, m := range s {
		if rank < 1 {
			return fmt.Errorf("%w: rank %d", ErrInvalidScheme, rank)
		}
		if m < 2 {
			return fmt.Errorf("%w: rank %d has %d outcomes, need at least 2", ErrInvalidScheme, rank, m)
		}
	}
	return nil
}

// Grouper selects observations for a preliminary rank. It is stateless apart
// from its scheme and safe for concurrent use.
type Grouper struct {
	scheme Scheme
}

// New creates a Grouper. The scheme is copied.
func New(scheme Scheme) (*Grouper, error) {
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	return &Grouper{scheme: maps.Clone(scheme)}, nil
}

// Outcomes returns m for rank.
func (g *Grouper) Outcomes(rank int) (int, error) {
	m, ok := g.scheme[rank]
	if !ok {
		return 0, fmt.Errorf("%w: %d not in %v", ErrInvalidRank, rank, g.scheme.Ranks())
	}
	return m, nil
}

// Group returns the final positions of records from seasons after yearCutoff
// whose league position equals rank, in their original order. A group with
// no survivors is returned without error.
func (g *Grouper) Group(records []model.Record, yearCutoff, rank int) (model.Group, error) {
	if len(records) == 0 {
		return model.Group{}, ErrNoRecords
	}
	m, err := g.Outcomes(rank)
	if err != nil {
		return model.Group{}, err
	}

	labels := make([]int, 0)
	for _, r := range records {
		if r.Year <= yearCutoff || r.LeaguePosition != rank {
			continue
		}
		labels = append(labels, r.FinalPosition)
	}
	return model.Group{Rank: rank, Outcomes: m, Labels: labels}, nil
}

// GroupAll groups records for every configured rank, ascending.
func (g *Grouper) GroupAll(records []model.Record, yearCutoff int) ([]model.Group, error) {
	ranks := g.scheme.Ranks()
	groups := make([]model.Group, 0, len(ranks))
	for _, rank := range ranks {
		grp, err := g.Group(records, yearCutoff, rank)
		if err != nil {
			return nil, err
		}
		groups = append(groups, grp)
	}
	return groups, nil
}
