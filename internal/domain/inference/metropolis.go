package inference

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
)

// Metropolis defaults. The step is tuned during warm-up toward an acceptance
// ratio inside [adaptLow, adaptHigh] and frozen afterwards.
const (
	DefaultInitialStep = 1.0
	DefaultInitRadius  = 2.0
	DefaultAdaptWindow = 50
)

const (
	adaptLow    = 0.2
	adaptHigh   = 0.45
	adaptShrink = 0.75
	adaptGrow   = 1.25
)

// MetropolisSampler is a random-walk Metropolis sampler on the additive
// log-ratio transform of the simplex: z_j = log(p_j / p_m) for j < m.
// In z-space the log density including the Jacobian is
// sum_j (alpha_j + count_j) * log p_j, which is what the chain targets.
type MetropolisSampler struct {
	initialStep float64
	initRadius  float64
	adaptWindow int
}

// MetropolisOption configures a MetropolisSampler.
type MetropolisOption func(*MetropolisSampler)

// WithInitialStep sets the proposal scale a chain starts from.
func WithInitialStep(step float64) MetropolisOption {
	return func(s *MetropolisSampler) {
		if step > 0 {
			s.initialStep = step
		}
	}
}

// WithInitRadius sets the half-width of the uniform initialisation box in
// unconstrained space.
func WithInitRadius(r float64) MetropolisOption {
	return func(s *MetropolisSampler) {
		if r > 0 {
			s.initRadius = r
		}
	}
}

// WithAdaptWindow sets how many warm-up iterations share one step update.
func WithAdaptWindow(n int) MetropolisOption {
	return func(s *MetropolisSampler) {
		if n > 0 {
			s.adaptWindow = n
		}
	}
}

// NewMetropolisSampler returns an iterative sampler.
func NewMetropolisSampler(opts ...MetropolisOption) *MetropolisSampler {
	s := &MetropolisSampler{
		initialStep: DefaultInitialStep,
		initRadius:  DefaultInitRadius,
		adaptWindow: DefaultAdaptWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Sampler.
func (*MetropolisSampler) Name() string { return SamplerMetropolis }

// Sample implements Sampler.
func (s *MetropolisSampler) Sample(ctx context.Context, model Model, cfg SamplerConfig) (*Run, error) {
	alpha := model.Concentration()
	seed := seedOf(cfg)

	chains, err := runChains(ctx, cfg.Chains, func(ctx context.Context, c int) (Chain, error) {
		return s.chain(ctx, alpha, cfg, rand.New(chainSource(seed, c)))
	})
	if err != nil {
		return nil, err
	}
	return &Run{Chains: chains}, nil
}

func (s *MetropolisSampler) chain(ctx context.Context, alpha []float64, cfg SamplerConfig, rng *rand.Rand) (Chain, error) {
	m := len(alpha)
	z := make([]float64, m-1)
	for j := range z {
		z[j] = (2*rng.Float64() - 1) * s.initRadius
	}
	p := make([]float64, m)
	cur := logTarget(alpha, z, p)

	prop := make([]float64, m-1)
	pp := make([]float64, m)
	step := s.initialStep
	draws := make([][]float64, 0, cfg.Retained())
	accepted, windowAccepted := 0, 0

	for i := range cfg.Iterations {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Chain{}, err
			}
		}

		for j := range z {
			prop[j] = z[j] + step*rng.NormFloat64()
		}
		next := logTarget(alpha, prop, pp)
		if math.Log(rng.Float64()) < next-cur {
			copy(z, prop)
			copy(p, pp)
			cur = next
			if i < cfg.Warmup {
				windowAccepted++
			} else {
				accepted++
			}
		}

		if i < cfg.Warmup {
			if (i+1)%s.adaptWindow == 0 {
				step = adaptStep(step, float64(windowAccepted)/float64(s.adaptWindow))
				windowAccepted = 0
			}
			continue
		}
		draws = append(draws, slices.Clone(p))
	}

	return Chain{
		Draws:      draws,
		Acceptance: float64(accepted) / float64(len(draws)),
		StepSize:   step,
	}, nil
}

func adaptStep(step, rate float64) float64 {
	switch {
	case rate < adaptLow:
		return step * adaptShrink
	case rate > adaptHigh:
		return step * adaptGrow
	default:
		return step
	}
}

// logTarget maps z to the simplex in p and returns the log target density.
func logTarget(alpha, z, p []float64) float64 {
	hi := 0.0
	for _, v := range z {
		hi = max(hi, v)
	}
	sum := math.Exp(-hi)
	for _, v := range z {
		sum += math.Exp(v - hi)
	}
	lse := hi + math.Log(sum)

	lt := 0.0
	last := len(p) - 1
	for j := range last {
		lp := z[j] - lse
		p[j] = math.Exp(lp)
		lt += alpha[j] * lp
	}
	p[last] = math.Exp(-lse)
	lt += alpha[last] * -lse
	return lt
}
