package inference

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Sampler names accepted by NewSampler.
const (
	SamplerConjugate  = "conjugate"
	SamplerMetropolis = "metropolis"
)

// ctxCheckEvery is how many iterations a chain runs between context checks.
const ctxCheckEvery = 1024

// Sampler draws from the posterior of a Model.
type Sampler interface {
	Name() string
	// Sample runs cfg.Chains independent chains and returns their retained
	// draws. cfg.Seed is always set by the Estimator.
	Sample(ctx context.Context, model Model, cfg SamplerConfig) (*Run, error)
}

// Chain is one independent sampling run after warm-up.
type Chain struct {
	Draws      [][]float64 // each draw is a point on the simplex
	Acceptance float64     // post warm-up acceptance ratio, 1 for exact draws
	StepSize   float64     // final proposal scale, 0 for exact draws
}

// Run holds every chain of a fit, indexed by chain number.
type Run struct {
	Chains []Chain
}

// NewSampler builds a sampler by name. The options apply to the Metropolis
// sampler only.
func NewSampler(name string, opts ...MetropolisOption) (Sampler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SamplerConjugate:
		return NewConjugateSampler(), nil
	case SamplerMetropolis:
		return NewMetropolisSampler(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSampler, name)
	}
}

// chainSource gives chain c its own PCG stream derived from seed, so results
// do not depend on goroutine scheduling.
func chainSource(seed uint64, c int) *rand.PCG {
	return rand.NewPCG(seed, uint64(c)+1)
}

func seedOf(cfg SamplerConfig) uint64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	return rand.Uint64()
}

// runChains runs fn once per chain concurrently and returns the chains in
// index order once all have finished.
func runChains(ctx context.Context, n int, fn func(ctx context.Context, c int) (Chain, error)) ([]Chain, error) {
	chains := make([]Chain, n)
	g, gctx := errgroup.WithContext(ctx)
	for c := range n {
		g.Go(func() error {
			ch, err := fn(gctx, c)
			if err != nil {
				return fmt.Errorf("chain %d: %w", c, err)
			}
			chains[c] = ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chains, nil
}
