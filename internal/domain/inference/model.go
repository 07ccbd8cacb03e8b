package inference

import (
	"fmt"
)

// priorConcentration is the symmetric Dirichlet weight, a uniform prior over
// the simplex.
const priorConcentration = 1.0

// Model is the categorical-Dirichlet model reduced to its sufficient
// statistics.
type Model struct {
	Outcomes int       // m
	Prior    []float64 // Dirichlet concentration per outcome
	Counts   []int     // observations per outcome, index j is label j+1
}

// NewModel validates labels against [1, m] and counts them.
func NewModel(labels []int, m int) (Model, error) {
	if m < 2 {
		return Model{}, fmt.Errorf("%w: need at least 2 outcomes, got %d", ErrInvalidInput, m)
	}
	counts := make([]int, m)
	for i, y := range labels {
		if y < 1 || y > m {
			return Model{}, fmt.Errorf("%w: label %d at position %d outside [1, %d]", ErrInvalidInput, y, i, m)
		}
		counts[y-1]++
	}
	prior := make([]float64, m)
	for j := range prior {
		prior[j] = priorConcentration
	}
	return Model{Outcomes: m, Prior: prior, Counts: counts}, nil
}

// N returns the number of observations.
func (m Model) N() int {
	n := 0
	for _, c := range m.Counts {
		n += c
	}
	return n
}

// Concentration returns the posterior Dirichlet parameters, prior plus
// counts.
func (m Model) Concentration() []float64 {
	alpha := make([]float64, m.Outcomes)
	for j := range alpha {
		alpha[j] = m.Prior[j] + float64(m.Counts[j])
	}
	return alpha
}

// ExactMean returns the closed-form posterior mean of each component.
func (m Model) ExactMean() []float64 {
	alpha := m.Concentration()
	total := 0.0
	for _, a := range alpha {
		total += a
	}
	for j := range alpha {
		alpha[j] /= total
	}
	return alpha
}
