// Package metrics provides Prometheus metrics for posterior fitting runs.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fit outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeDiverged  = "diverged"
	OutcomeInvalid   = "invalid"
	OutcomePriorOnly = "prior_only"
	OutcomeCanceled  = "canceled"
)

// Manager owns every collector exported by a run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Input
	recordsLoaded  prometheus.Gauge
	recordsSkipped *prometheus.CounterVec
	groupSize      *prometheus.GaugeVec

	// Fits
	fitsTotal       *prometheus.CounterVec
	fitDuration     *prometheus.HistogramVec
	drawsGenerated  *prometheus.CounterVec
	rhat            *prometheus.GaugeVec
	effectiveSize   *prometheus.GaugeVec
	acceptanceRatio *prometheus.GaugeVec

	// Job pipeline
	queueDepth   prometheus.Gauge
	activeFits   prometheus.Gauge
	workerErrors *prometheus.CounterVec
}

var (
	globalManager *Manager                   //nolint:gochecknoglobals // singleton used by package-level recorders
	registry      = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry without Go runtime collectors
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(registry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "playoffs",
		subsystem:        "posterior",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.recordsLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_loaded",
		Help:        "Number of historical records parsed from the source",
		ConstLabels: m.constLabels,
	})

	m.recordsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records_rejected_total",
		Help:        "Source rows rejected during parsing, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.groupSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "group_observations",
		Help:        "Observations per preliminary rank after filtering",
		ConstLabels: m.constLabels,
	}, []string{"rank"})

	m.fitsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fits_total",
		Help:        "Completed fits by rank and outcome",
		ConstLabels: m.constLabels,
	}, []string{"rank", "outcome"})

	m.fitDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fit_duration_milliseconds",
		Help:        "Wall time of a single fit in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"sampler"})

	m.drawsGenerated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "draws_total",
		Help:        "Posterior draws retained after warm-up",
		ConstLabels: m.constLabels,
	}, []string{"sampler"})

	m.rhat = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rhat",
		Help:        "Split potential scale reduction per component",
		ConstLabels: m.constLabels,
	}, []string{"rank", "component"})

	m.effectiveSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "effective_sample_size",
		Help:        "Effective sample size per component",
		ConstLabels: m.constLabels,
	}, []string{"rank", "component"})

	m.acceptanceRatio = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "acceptance_ratio",
		Help:        "Mean post warm-up acceptance ratio across chains",
		ConstLabels: m.constLabels,
	}, []string{"rank"})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_depth",
		Help:        "Fit jobs waiting for a worker",
		ConstLabels: m.constLabels,
	})

	m.activeFits = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "active_fits",
		Help:        "Fits currently running",
		ConstLabels: m.constLabels,
	})

	m.workerErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Errors by component and kind",
		ConstLabels: m.constLabels,
	}, []string{"component", "kind"})
}

func manager() *Manager { return globalManager }

// UpdateRecordsLoaded sets the number of parsed records.
func UpdateRecordsLoaded(n int) {
	manager().recordsLoaded.Set(float64(n))
}

// RecordRejectedRow counts a source row rejected for reason.
func RecordRejectedRow(reason string) {
	manager().recordsSkipped.WithLabelValues(reason).Inc()
}

// UpdateGroupSize sets the observation count for a preliminary rank.
func UpdateGroupSize(rank, n int) {
	manager().groupSize.WithLabelValues(strconv.Itoa(rank)).Set(float64(n))
}

// RecordFit counts a finished fit.
func RecordFit(rank int, outcome string) {
	manager().fitsTotal.WithLabelValues(strconv.Itoa(rank), outcome).Inc()
}

// RecordFitDuration observes the fit wall time in milliseconds.
func RecordFitDuration(sampler string, ms float64) {
	manager().fitDuration.WithLabelValues(sampler).Observe(ms)
}

// RecordDraws adds retained draws.
func RecordDraws(sampler string, n int) {
	manager().drawsGenerated.WithLabelValues(sampler).Add(float64(n))
}

// UpdateRHat sets R-hat for one component (1-based) of a rank's posterior.
func UpdateRHat(rank, component int, v float64) {
	manager().rhat.WithLabelValues(strconv.Itoa(rank), strconv.Itoa(component)).Set(v)
}

// UpdateEffectiveSize sets ESS for one component of a rank's posterior.
func UpdateEffectiveSize(rank, component int, v float64) {
	manager().effectiveSize.WithLabelValues(strconv.Itoa(rank), strconv.Itoa(component)).Set(v)
}

// UpdateAcceptance sets the mean acceptance ratio for a rank.
func UpdateAcceptance(rank int, v float64) {
	manager().acceptanceRatio.WithLabelValues(strconv.Itoa(rank)).Set(v)
}

// UpdateQueueDepth sets the number of pending jobs.
func UpdateQueueDepth(n int) {
	manager().queueDepth.Set(float64(n))
}

// IncActiveFits marks a fit as started.
func IncActiveFits() { manager().activeFits.Inc() }

// DecActiveFits marks a fit as finished.
func DecActiveFits() { manager().activeFits.Dec() }

// RecordError counts an error by component and kind.
func RecordError(component, kind string) {
	manager().workerErrors.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return registry
}

// WriteTextfile dumps the registry in the Prometheus text exposition format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}
