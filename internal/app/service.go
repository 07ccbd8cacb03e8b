// Package service fits one posterior per preliminary rank and collects the
// results into a run report.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/playoffs/internal/adapters/mq/queue"
	workerpool "github.com/okian/playoffs/internal/adapters/mq/worker"
	"github.com/okian/playoffs/internal/domain/grouping"
	"github.com/okian/playoffs/internal/domain/inference"
	"github.com/okian/playoffs/internal/domain/model"
	"github.com/okian/playoffs/pkg/logger"
	"github.com/okian/playoffs/pkg/metrics"
)

// DefaultYearCutoff keeps seasons from 2011 on.
const DefaultYearCutoff = 2010

// Service runs the grouping and fitting pipeline.
type Service struct {
	scheme        grouping.Scheme
	grouper       *grouping.Grouper
	estimator     *inference.Estimator
	samplerConfig inference.SamplerConfig
	yearCutoff    int
	workerCount   int

	logger logger.Logger
}

// New constructs a Service. It fails when the outcome scheme is invalid.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		scheme:        grouping.DefaultScheme(),
		estimator:     inference.NewEstimator(),
		samplerConfig: inference.DefaultSamplerConfig(),
		yearCutoff:    DefaultYearCutoff,
		workerCount:   runtime.NumCPU(),
		logger:        logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	g, err := grouping.New(s.scheme)
	if err != nil {
		return nil, err
	}
	s.grouper = g
	return s, nil
}

// Report is the outcome of one Run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Records    int
	YearCutoff int
	Sampler    string
	Config     inference.SamplerConfig
	Results    []model.FitResult // ascending rank
}

// Failed returns the number of groups without an accepted posterior.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Result returns the fit for rank.
func (r *Report) Result(rank int) (model.FitResult, bool) {
	for _, res := range r.Results {
		if res.Job.Group.Rank == rank {
			return res, true
		}
	}
	return model.FitResult{}, false
}

// Run groups records and fits every configured rank concurrently. A failing
// group is recorded on its result and does not stop the others; Run returns
// ErrAllGroupsFailed together with the report only when no group succeeded.
func (s *Service) Run(ctx context.Context, records []model.Record) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		Records:    len(records),
		YearCutoff: s.yearCutoff,
		Sampler:    s.estimator.SamplerName(),
		Config:     s.samplerConfig,
	}
	log := s.logger.With(logger.String("run_id", report.RunID))
	log.Info(ctx, "run started",
		logger.Int("records", len(records)),
		logger.Int("year_cutoff", s.yearCutoff),
		logger.String("sampler", report.Sampler),
	)

	groups, err := s.grouper.GroupAll(records, s.yearCutoff)
	if err != nil {
		return nil, fmt.Errorf("group records: %w", err)
	}

	q := jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(len(groups)))
	for _, g := range groups {
		metrics.UpdateGroupSize(g.Rank, g.N())
		if g.Empty() {
			log.Warn(ctx, "no observations, posterior is the prior",
				logger.Int("rank", g.Rank), logger.Error(grouping.ErrEmptyGroup))
		}
		job := model.FitJob{RunID: report.RunID, Group: g, Config: s.samplerConfig}
		if err := q.Enqueue(ctx, job); err != nil {
			return nil, fmt.Errorf("%w: rank %d: %w", ErrEnqueue, g.Rank, err)
		}
	}
	_ = q.Close()

	pool := workerpool.NewPool(min(s.workerCount, len(groups)), q, workerpool.FitterFunc(s.fit))
	for res := range pool.Start(ctx) {
		s.observe(ctx, log, res)
		report.Results = append(report.Results, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(report.Results, func(a, b model.FitResult) int {
		return a.Job.Group.Rank - b.Job.Group.Rank
	})
	report.Duration = time.Since(report.StartedAt)

	failed := report.Failed()
	log.Info(ctx, "run finished",
		logger.Int("groups", len(report.Results)),
		logger.Int("failed", failed),
		logger.Duration("duration", report.Duration),
	)
	if failed == len(report.Results) {
		return report, ErrAllGroupsFailed
	}
	return report, nil
}

func (s *Service) fit(ctx context.Context, job model.FitJob) model.FitResult { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	post, err := s.estimator.Estimate(ctx, job.Group.Labels, job.Group.Outcomes, job.Config)
	return model.FitResult{
		Job:       job,
		Posterior: post,
		Err:       err,
		Duration:  time.Since(start),
	}
}

// observe logs and records metrics for one finished fit.
func (s *Service) observe(ctx context.Context, log logger.Logger, res model.FitResult) { //nolint:gocritic // hugeParam: results travel by value
	rank := res.Job.Group.Rank
	outcome := outcomeOf(res)
	metrics.RecordFit(rank, outcome)
	metrics.RecordFitDuration(s.estimator.SamplerName(), float64(res.Duration.Milliseconds()))

	if post := res.Posterior; post != nil {
		metrics.RecordDraws(post.Sampler, len(post.Chains)*(post.Iterations-post.Warmup))
		metrics.UpdateAcceptance(rank, post.MeanAcceptance())
		for _, c := range post.Components {
			metrics.UpdateRHat(rank, c.Index, c.RHat)
			metrics.UpdateEffectiveSize(rank, c.Index, c.ESS)
		}
	}

	fields := []logger.Field{
		logger.Int("rank", rank),
		logger.Int("n", res.Job.Group.N()),
		logger.String("outcome", outcome),
		logger.Duration("duration", res.Duration),
	}
	if res.Posterior != nil {
		fields = append(fields, logger.Float64("max_rhat", res.Posterior.MaxRHat))
	}
	if res.Err != nil {
		log.Error(ctx, "fit failed", append(fields, logger.Error(res.Err))...)
		return
	}
	log.Info(ctx, "fit finished", fields...)
}

func outcomeOf(res model.FitResult) string { //nolint:gocritic // hugeParam: results travel by value
	switch {
	case res.Err == nil && res.Posterior != nil && res.Posterior.PriorOnly:
		return metrics.OutcomePriorOnly
	case res.Err == nil:
		return metrics.OutcomeOK
	case errors.Is(res.Err, inference.ErrSamplingDivergence):
		return metrics.OutcomeDiverged
	case errors.Is(res.Err, context.Canceled), errors.Is(res.Err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeInvalid
	}
}
