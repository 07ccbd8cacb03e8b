package inference

import (
	"fmt"
)

// Sampler defaults, matching a single Stan run of the original analysis with
// four chains.
const (
	DefaultIterations    = 10_000
	DefaultChains        = 4
	DefaultCredibleMass  = 0.95
	DefaultRHatThreshold = 1.1
)

// SamplerConfig controls one fit.
type SamplerConfig struct {
	Iterations int     // draws per chain, warm-up included
	Warmup     int     // leading draws discarded per chain
	Chains     int     // independent chains
	Seed       *uint64 // nil draws a fresh seed, recorded on the posterior

	CredibleMass  float64 // central interval mass; 0 means DefaultCredibleMass
	RHatThreshold float64 // 0 means DefaultRHatThreshold
}

// DefaultSamplerConfig returns the defaults with half of the draws used as
// warm-up.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Iterations:    DefaultIterations,
		Warmup:        DefaultIterations / 2,
		Chains:        DefaultChains,
		CredibleMass:  DefaultCredibleMass,
		RHatThreshold: DefaultRHatThreshold,
	}
}

// Retained returns the number of draws kept per chain.
func (c SamplerConfig) Retained() int { return c.Iterations - c.Warmup }

func (c SamplerConfig) withDefaults() SamplerConfig {
	if c.CredibleMass == 0 {
		c.CredibleMass = DefaultCredibleMass
	}
	if c.RHatThreshold == 0 {
		c.RHatThreshold = DefaultRHatThreshold
	}
	return c
}

// Validate checks the configuration. Zero interval mass and threshold are
// accepted and replaced by defaults at estimate time.
func (c SamplerConfig) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidInput, c.Iterations)
	case c.Chains < 1:
		return fmt.Errorf("%w: chains must be at least 1, got %d", ErrInvalidInput, c.Chains)
	case c.Warmup < 0 || c.Warmup >= c.Iterations:
		return fmt.Errorf("%w: warmup %d must be in [0, %d)", ErrInvalidInput, c.Warmup, c.Iterations)
	case c.CredibleMass < 0 || c.CredibleMass >= 1:
		return fmt.Errorf("%w: credible mass %v must be in (0, 1)", ErrInvalidInput, c.CredibleMass)
	case c.RHatThreshold < 0 || (c.RHatThreshold > 0 && c.RHatThreshold < 1):
		return fmt.Errorf("%w: R-hat threshold %v must be at least 1", ErrInvalidInput, c.RHatThreshold)
	}
	return nil
}
