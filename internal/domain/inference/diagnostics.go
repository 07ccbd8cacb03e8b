package inference

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// minHalfDraws is the shortest split half the diagnostics are computed on.
const minHalfDraws = 4

// splitChains cuts every chain into two halves of equal length, dropping the
// middle draw of odd chains. It returns nil when a half would hold fewer than
// minHalfDraws draws.
func splitChains(chains [][]float64) [][]float64 {
	if len(chains) == 0 {
		return nil
	}
	length := len(chains[0])
	for _, c := range chains[1:] {
		length = min(length, len(c))
	}
	n := length / 2
	if n < minHalfDraws {
		return nil
	}
	halves := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		c = c[:length]
		halves = append(halves, c[:n], c[length-n:])
	}
	return halves
}

// splitRHat is the Gelman-Rubin potential scale reduction computed over
// split chains. It is +Inf when there are too few draws or no within-chain
// variance.
func splitRHat(chains [][]float64) float64 {
	halves := splitChains(chains)
	if halves == nil {
		return math.Inf(1)
	}
	w, varPlus, _ := varianceComponents(halves)
	if w <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(varPlus / w)
}

// varianceComponents returns the mean within-chain variance, the pooled
// variance estimate and the per-chain means.
func varianceComponents(halves [][]float64) (w, varPlus float64, means []float64) {
	n := float64(len(halves[0]))
	means = make([]float64, len(halves))
	vars := make([]float64, len(halves))
	for i, h := range halves {
		means[i], vars[i] = stat.MeanVariance(h, nil)
	}
	w = stat.Mean(vars, nil)
	varPlus = (n-1)/n*w + stat.Variance(means, nil)
	return w, varPlus, means
}

// effectiveSize estimates the effective number of independent draws across
// split chains with Geyer's initial monotone sequence. It is NaN when the
// chains are too short to split.
func effectiveSize(chains [][]float64) float64 {
	halves := splitChains(chains)
	if halves == nil {
		return math.NaN()
	}
	n := len(halves[0])
	total := float64(len(halves) * n)

	w, varPlus, means := varianceComponents(halves)
	if varPlus <= 0 || w <= 0 {
		return total
	}

	rhoAt := func(lag int) float64 {
		acov := 0.0
		for i, h := range halves {
			acov += autocovariance(h, means[i], lag)
		}
		acov /= float64(len(halves))
		return 1 - (w-acov)/varPlus
	}

	rho := make([]float64, n+1)
	rho[0] = 1
	even, odd := 1.0, rhoAt(1)
	rho[1] = odd

	t := 1
	for t < n-4 && even+odd > 0 {
		even = rhoAt(t + 1)
		odd = rhoAt(t + 2)
		if even+odd >= 0 {
			rho[t+1] = even
			rho[t+2] = odd
		}
		t += 2
	}
	maxT := t
	if even > 0 && maxT+1 < len(rho) {
		rho[maxT+1] = even
	}

	// Enforce a monotone sequence of paired sums.
	for t = 1; t <= maxT-4; t += 2 {
		if rho[t+1]+rho[t+2] > rho[t-1]+rho[t] {
			rho[t+1] = (rho[t-1] + rho[t]) / 2
			rho[t+2] = rho[t+1]
		}
	}

	tau := -1.0
	for _, r := range rho[:maxT] {
		tau += 2 * r
	}
	if maxT+1 < len(rho) {
		tau += rho[maxT+1]
	}
	tau = max(tau, 1/math.Log10(total))
	return total / tau
}

// autocovariance at lag, normalised by the series length.
func autocovariance(x []float64, mean float64, lag int) float64 {
	n := len(x)
	if lag >= n {
		return 0
	}
	s := 0.0
	for i := 0; i+lag < n; i++ {
		s += (x[i] - mean) * (x[i+lag] - mean)
	}
	return s / float64(n)
}
