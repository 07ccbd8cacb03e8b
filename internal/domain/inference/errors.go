package inference

import (
	"errors"
	"fmt"
)

// Sentinel kinds for inference errors.
var (
	ErrInvalidInput       = errors.New("invalid estimator input")
	ErrSamplingDivergence = errors.New("sampling divergence")
	ErrUnknownSampler     = errors.New("unknown sampler")
)

// DivergenceError reports chains that failed the R-hat check. The posterior
// returned alongside it is complete but must not be trusted.
type DivergenceError struct {
	Component int     // 1-based outcome with the worst R-hat
	RHat      float64 // +Inf when too few draws to assess
	Threshold float64 // accepted band is [2-Threshold, Threshold]
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%s: component %d R-hat %.3f outside [%.2f, %.2f]",
		ErrSamplingDivergence, e.Component, e.RHat, 2-e.Threshold, e.Threshold)
}

func (e *DivergenceError) Unwrap() error { return ErrSamplingDivergence }
