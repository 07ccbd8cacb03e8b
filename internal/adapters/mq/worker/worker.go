package worker

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/playoffs/internal/domain/model"
	"github.com/okian/playoffs/pkg/logger"
	"github.com/okian/playoffs/pkg/metrics"
)

// Job abstracts what workers read off the queue.
type Job = model.FitJob

// Fitter produces a posterior for one job. Failures are reported inside the
// result so the caller can see which rank failed.
type Fitter interface {
	Fit(ctx context.Context, job Job) model.FitResult
}

// FitterFunc adapts a function to Fitter.
type FitterFunc func(ctx context.Context, job Job) model.FitResult

// Fit implements Fitter.
func (f FitterFunc) Fit(ctx context.Context, job Job) model.FitResult { //nolint:gocritic // hugeParam: jobs travel by value
	return f(ctx, job)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until the queue drains.
type Worker interface {
	// Run starts the worker loop until the queue closes or ctx is canceled.
	Run(ctx context.Context)
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	fitter  Fitter
	results chan<- model.FitResult
	name    string

	logger logger.Logger
}

// NewInMemoryWorker creates a worker that publishes each result on results.
func NewInMemoryWorker(queue Queue, fitter Fitter, results chan<- model.FitResult, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   queue,
		fitter:  fitter,
		results: results,
		name:    "worker",
		logger:  logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			res := w.process(ctx, job)
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) model.FitResult { //nolint:gocritic // hugeParam: jobs travel by value
	metrics.IncActiveFits()
	defer metrics.DecActiveFits()

	log := w.logger.With(logger.String("run_id", job.RunID), logger.Int("rank", job.Group.Rank))
	log.Debug(ctx, "fit started", logger.Int("n", job.Group.N()), logger.Int("outcomes", job.Group.Outcomes))

	start := time.Now()
	res := w.fitter.Fit(ctx, job)
	res.Job = job
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}

	if res.Err != nil {
		metrics.RecordError("worker", "fit_failed")
		log.Warn(ctx, "fit failed", logger.Duration("duration", res.Duration), logger.Error(res.Err))
		return res
	}
	log.Debug(ctx, "fit finished", logger.Duration("duration", res.Duration))
	return res
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	results chan model.FitResult
	logger  logger.Logger
}

// NewPool creates a pool. A workerCount below one uses one worker per CPU.
func NewPool(workerCount int, queue Queue, fitter Fitter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		results: make(chan model.FitResult, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, fitter, p.results, WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker and returns the result stream. The stream is
// closed once all workers have exited.
func (p *Pool) Start(ctx context.Context) <-chan model.FitResult {
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(w *InMemoryWorker) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}
	go func() {
		wg.Wait()
		close(p.results)
	}()
	p.logger.Debug(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
	return p.results
}
