package service

import (
	"github.com/okian/playoffs/internal/domain/grouping"
	"github.com/okian/playoffs/internal/domain/inference"
	"github.com/okian/playoffs/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of concurrent fits.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScheme sets the number of final outcomes per preliminary rank.
func WithScheme(scheme grouping.Scheme) Option {
	return func(s *Service) {
		if len(scheme) > 0 {
			s.scheme = scheme
		}
	}
}

// WithYearCutoff keeps only seasons strictly after year.
func WithYearCutoff(year int) Option {
	return func(s *Service) {
		s.yearCutoff = year
	}
}

// WithSamplerConfig sets the per-fit sampler settings.
func WithSamplerConfig(cfg inference.SamplerConfig) Option {
	return func(s *Service) {
		s.samplerConfig = cfg
	}
}

// WithEstimator replaces the default conjugate estimator.
func WithEstimator(e *inference.Estimator) Option {
	return func(s *Service) {
		if e != nil {
			s.estimator = e
		}
	}
}
