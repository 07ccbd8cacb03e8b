package inference

import (
	"context"

	"gonum.org/v1/gonum/stat/distmv"
)

// ConjugateSampler draws exactly from the closed-form posterior
// Dirichlet(prior + counts). Warm-up draws are still generated and dropped so
// the draw streams line up with the configured iteration count.
type ConjugateSampler struct{}

// NewConjugateSampler returns the exact sampler.
func NewConjugateSampler() *ConjugateSampler { return &ConjugateSampler{} }

// Name implements Sampler.
func (*ConjugateSampler) Name() string { return SamplerConjugate }

// Sample implements Sampler.
func (*ConjugateSampler) Sample(ctx context.Context, model Model, cfg SamplerConfig) (*Run, error) {
	alpha := model.Concentration()
	seed := seedOf(cfg)

	chains, err := runChains(ctx, cfg.Chains, func(ctx context.Context, c int) (Chain, error) {
		dir := distmv.NewDirichlet(alpha, chainSource(seed, c))
		draws := make([][]float64, 0, cfg.Retained())
		for i := range cfg.Iterations {
			if i%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return Chain{}, err
				}
			}
			x := dir.Rand(nil)
			if i < cfg.Warmup {
				continue
			}
			draws = append(draws, x)
		}
		return Chain{Draws: draws, Acceptance: 1}, nil
	})
	if err != nil {
		return nil, err
	}
	return &Run{Chains: chains}, nil
}
