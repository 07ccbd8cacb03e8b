// Package inference fits a categorical distribution with a symmetric
// Dirichlet prior to observed outcome labels.
//
// The model is fixed: prob ~ Dirichlet(1, ..., 1) and every label is an
// independent Categorical(prob) draw. Posterior draws come from a pluggable
// Sampler, by default the exact conjugate posterior. Multiple chains run
// concurrently on independent random streams and are checked with split
// R-hat before the result is accepted.
package inference

import (
	"context"
	"fmt"
)

// Estimator fits one group per call and keeps no state between calls.
type Estimator struct {
	sampler Sampler
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSampler replaces the default conjugate sampler.
func WithSampler(s Sampler) Option {
	return func(e *Estimator) {
		if s != nil {
			e.sampler = s
		}
	}
}

// NewEstimator returns an Estimator using the conjugate sampler unless
// configured otherwise.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{sampler: NewConjugateSampler()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SamplerName returns the name of the configured sampler.
func (e *Estimator) SamplerName() string { return e.sampler.Name() }

// Estimate fits labels, each in [1, m]. An empty label set yields the prior.
//
// When the chains fail the R-hat check the full posterior is returned
// together with a *DivergenceError.
func (e *Estimator) Estimate(ctx context.Context, labels []int, m int, cfg SamplerConfig) (*Posterior, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := NewModel(labels, m)
	if err != nil {
		return nil, err
	}

	seed := seedOf(cfg)
	cfg.Seed = &seed

	run, err := e.sampler.Sample(ctx, model, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s sampler: %w", e.sampler.Name(), err)
	}

	post := summarize(model, cfg, e.sampler.Name(), seed, run)
	if !post.Converged {
		worst := post.worst()
		return post, &DivergenceError{
			Component: worst,
			RHat:      post.Components[worst-1].RHat,
			Threshold: cfg.RHatThreshold,
		}
	}
	return post, nil
}
