// Package synthetic generates league histories with a four-team playoff
// bracket, for demos and end-to-end tests.
package synthetic

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/okian/playoffs/internal/domain/model"
)

// PlayoffTeams is the size of the playoff bracket.
const PlayoffTeams = 4

// Generator produces seeded league histories.
type Generator struct {
	cfg  Config
	seed uint64
	rng  *rand.Rand
}

// NewGenerator validates cfg and seeds the generator.
func NewGenerator(cfg Config) (*Generator, error) {
	switch {
	case cfg.Teams < PlayoffTeams:
		return nil, fmt.Errorf("%w: need at least %d teams, got %d", ErrInvalidConfig, PlayoffTeams, cfg.Teams)
	case cfg.FirstYear <= 0 || cfg.LastYear < cfg.FirstYear:
		return nil, fmt.Errorf("%w: year range %d..%d", ErrInvalidConfig, cfg.FirstYear, cfg.LastYear)
	case cfg.Edge <= 0 || cfg.Edge >= 1:
		return nil, fmt.Errorf("%w: edge %v must be in (0, 1)", ErrInvalidConfig, cfg.Edge)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		cfg:  cfg,
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, uint64(cfg.Teams))),
	}, nil
}

// Seed returns the seed in use.
func (g *Generator) Seed() uint64 { return g.seed }

// Generate returns Teams records per season, ordered by year then league
// position.
func (g *Generator) Generate(ctx context.Context) ([]model.Record, error) {
	names := teamNames(g.cfg.Teams)
	out := make([]model.Record, 0, (g.cfg.LastYear-g.cfg.FirstYear+1)*g.cfg.Teams)
	for year := g.cfg.FirstYear; year <= g.cfg.LastYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, g.season(year, names)...)
	}
	return out, nil
}

func (g *Generator) season(year int, names []string) []model.Record {
	order := g.rng.Perm(len(names))
	recs := make([]model.Record, len(names))
	for pos, team := range order {
		recs[pos] = model.Record{
			Year:           year,
			Team:           names[team],
			LeaguePosition: pos + 1,
			FinalPosition:  pos + 1,
		}
	}
	for seedPos, final := range g.bracket() {
		recs[seedPos].FinalPosition = final
	}
	return recs
}

// bracket plays the qualifier format and returns the final position of each
// of the top four league seeds (index 0 is seed 1).
//
//	Q1:  seed1 vs seed2, winner to the final
//	E:   seed3 vs seed4, loser finishes 4th
//	Q2:  loser Q1 vs winner E, loser finishes 3rd
//	F:   winner Q1 vs winner Q2
func (g *Generator) bracket() [PlayoffTeams]int {
	var final [PlayoffTeams]int
	q1w, q1l := g.match(0, 1)
	ew, el := g.match(2, 3)
	final[el] = 4
	q2w, q2l := g.match(q1l, ew)
	final[q2l] = 3
	fw, fl := g.match(q1w, q2w)
	final[fw] = 1
	final[fl] = 2
	return final
}

// match returns winner and loser; seeds are zero-based league positions.
func (g *Generator) match(a, b int) (winner, loser int) {
	better, worse := min(a, b), max(a, b)
	if g.rng.Float64() < g.cfg.Edge {
		return better, worse
	}
	return worse, better
}

func teamNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Team %02d", i+1)
	}
	return out
}
