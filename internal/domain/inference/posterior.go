package inference

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// QuantileProbs are the posterior quantiles reported for every component.
var QuantileProbs = [5]float64{0.025, 0.25, 0.5, 0.75, 0.975}

// Component summarises the marginal posterior of one outcome probability.
type Component struct {
	Index     int // outcome label, 1-based
	Mean      float64
	SD        float64
	SEMean    float64 // Monte Carlo standard error of Mean
	Exact     float64 // closed-form posterior mean
	Lower     float64 // credible interval bounds at the configured mass
	Upper     float64
	Quantiles [len(QuantileProbs)]float64
	RHat      float64
	ESS       float64
}

// Posterior is the fitted distribution over the outcome probability vector.
// It is read-only once returned.
type Posterior struct {
	Outcomes     int
	N            int
	Counts       []int
	PriorOnly    bool // no observations, the posterior is the prior and Exact is 1/m
	Sampler      string
	Seed         uint64
	Iterations   int
	Warmup       int
	CredibleMass float64

	Components []Component
	Chains     [][][]float64 // chain, draw, component
	Acceptance []float64     // per chain

	MaxRHat   float64
	Converged bool // every R-hat within the threshold band around 1
}

// Means returns the sampled posterior mean vector. For a prior-only
// posterior these are Monte Carlo estimates of 1/m; Component.Exact holds
// the closed-form value.
func (p *Posterior) Means() []float64 {
	out := make([]float64, len(p.Components))
	for j, c := range p.Components {
		out[j] = c.Mean
	}
	return out
}

// Draws returns the pooled draws, chains concatenated in index order.
func (p *Posterior) Draws() [][]float64 {
	var out [][]float64
	for _, ch := range p.Chains {
		out = append(out, ch...)
	}
	return out
}

// Trace returns the per-chain series of one component (0-based).
func (p *Posterior) Trace(component int) [][]float64 {
	out := make([][]float64, len(p.Chains))
	for c, ch := range p.Chains {
		series := make([]float64, len(ch))
		for i, d := range ch {
			series[i] = d[component]
		}
		out[c] = series
	}
	return out
}

// Pooled returns every retained draw of one component (0-based).
func (p *Posterior) Pooled(component int) []float64 {
	var out []float64
	for _, s := range p.Trace(component) {
		out = append(out, s...)
	}
	return out
}

// MostLikely returns the outcome label with the highest posterior mean.
func (p *Posterior) MostLikely() int {
	best := 0
	for j, c := range p.Components {
		if c.Mean > p.Components[best].Mean {
			best = j
		}
	}
	return best + 1
}

// MeanAcceptance averages the per-chain acceptance ratios.
func (p *Posterior) MeanAcceptance() float64 {
	return stat.Mean(p.Acceptance, nil)
}

// worst returns the 1-based component whose R-hat departs furthest from 1.
func (p *Posterior) worst() int {
	idx := 0
	for j, c := range p.Components {
		if departure(c.RHat) > departure(p.Components[idx].RHat) {
			idx = j
		}
	}
	return idx + 1
}

func departure(rhat float64) float64 {
	if math.IsNaN(rhat) {
		return math.Inf(1)
	}
	return math.Abs(rhat - 1)
}

// withinBand reports whether rhat lies in [2-threshold, threshold].
func withinBand(rhat, threshold float64) bool {
	return departure(rhat) <= threshold-1
}

func summarize(model Model, cfg SamplerConfig, sampler string, seed uint64, run *Run) *Posterior {
	p := &Posterior{
		Outcomes:     model.Outcomes,
		N:            model.N(),
		Counts:       slices.Clone(model.Counts),
		Sampler:      sampler,
		Seed:         seed,
		Iterations:   cfg.Iterations,
		Warmup:       cfg.Warmup,
		CredibleMass: cfg.CredibleMass,
		Chains:       make([][][]float64, len(run.Chains)),
		Acceptance:   make([]float64, len(run.Chains)),
	}
	p.PriorOnly = p.N == 0
	for c, ch := range run.Chains {
		p.Chains[c] = ch.Draws
		p.Acceptance[c] = ch.Acceptance
	}

	exact := model.ExactMean()
	tail := (1 - cfg.CredibleMass) / 2
	p.Components = make([]Component, model.Outcomes)
	for j := range p.Components {
		trace := p.Trace(j)
		pooled := p.Pooled(j)
		slices.Sort(pooled)

		mean, sd := stat.MeanStdDev(pooled, nil)
		if len(pooled) < 2 {
			sd = 0
		}
		comp := Component{
			Index: j + 1,
			Mean:  mean,
			SD:    sd,
			Exact: exact[j],
			Lower: stat.Quantile(tail, stat.Empirical, pooled, nil),
			Upper: stat.Quantile(1-tail, stat.Empirical, pooled, nil),
			RHat:  splitRHat(trace),
			ESS:   effectiveSize(trace),
		}
		if math.IsNaN(comp.ESS) {
			comp.RHat = math.Inf(1)
		}
		for q, prob := range QuantileProbs {
			comp.Quantiles[q] = stat.Quantile(prob, stat.Empirical, pooled, nil)
		}
		comp.SEMean = math.NaN()
		if comp.ESS > 0 {
			comp.SEMean = sd / math.Sqrt(comp.ESS)
		}
		p.Components[j] = comp
	}

	p.MaxRHat = 0
	p.Converged = true
	for _, c := range p.Components {
		if !withinBand(c.RHat, cfg.RHatThreshold) {
			p.Converged = false
		}
		if math.IsNaN(c.RHat) {
			p.MaxRHat = math.Inf(1)
			continue
		}
		p.MaxRHat = max(p.MaxRHat, c.RHat)
	}
	return p
}
