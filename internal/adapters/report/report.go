// Package report renders run reports as plain-text posterior tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	service "github.com/okian/playoffs/internal/app"
	"github.com/okian/playoffs/internal/domain/inference"
	"github.com/okian/playoffs/internal/domain/model"
)

const defaultPrecision = 3

// Writer prints a summary table per preliminary rank.
type Writer struct {
	precision int
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithPrecision sets the number of decimals for probabilities.
func WithPrecision(digits int) Option {
	return func(w *Writer) {
		if digits > 0 {
			w.precision = digits
		}
	}
}

// NewWriter creates a report writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{precision: defaultPrecision}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders r to out.
func (w *Writer) Write(out io.Writer, r *service.Report) error {
	ew := &errWriter{w: out}
	ew.printf("Run %s\n", r.RunID)
	ew.printf("%d records, seasons after %d, %s sampler\n", r.Records, r.YearCutoff, r.Sampler)
	for _, res := range r.Results {
		ew.printf("\n")
		w.group(ew, res)
	}
	ew.printf("\n%d of %d groups fitted in %s\n", len(r.Results)-r.Failed(), len(r.Results), r.Duration.Round(time.Millisecond))
	return ew.err
}

func (w *Writer) group(ew *errWriter, res model.FitResult) { //nolint:gocritic // hugeParam: results travel by value
	g := res.Job.Group
	post := res.Posterior
	if post == nil {
		ew.printf("League position %d: N=%d, m=%d\n", g.Rank, g.N(), g.Outcomes)
		ew.printf("fit failed: %v\n", res.Err)
		return
	}

	header := fmt.Sprintf("League position %d: N=%d, m=%d, counts %v", g.Rank, post.N, post.Outcomes, post.Counts)
	if post.PriorOnly {
		header = fmt.Sprintf("League position %d: N=0 (prior only), m=%d", g.Rank, post.Outcomes)
	}
	ew.printf("%s\n", header)
	ew.printf("%d chains, each with iter=%d; warmup=%d; seed=%d\n",
		len(post.Chains), post.Iterations, post.Warmup, post.Seed)

	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
	cols := []string{"", "mean", "se_mean", "sd"}
	for _, p := range inference.QuantileProbs {
		cols = append(cols, percent(p))
	}
	cols = append(cols, "n_eff", "Rhat", "exact")
	_, _ = fmt.Fprintln(tw, strings.Join(cols, "\t")+"\t")

	for _, c := range post.Components {
		row := []string{
			fmt.Sprintf("prob[%d]", c.Index),
			w.num(c.Mean), w.num(c.SEMean), w.num(c.SD),
		}
		for _, q := range c.Quantiles {
			row = append(row, w.num(q))
		}
		row = append(row, ess(c.ESS), rhat(c.RHat), w.num(c.Exact))
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil && ew.err == nil {
		ew.err = err
	}

	lo, hi := (1-post.CredibleMass)/2, 1-(1-post.CredibleMass)/2
	if post.PriorOnly {
		ew.printf("no observations, every final position has exact mean %s\n", w.num(post.Components[0].Exact))
	} else {
		best := post.Components[post.MostLikely()-1]
		ew.printf("most likely final position %d (%s, %s-%s interval %s..%s)\n",
			best.Index, w.num(best.Mean), percent(lo), percent(hi), w.num(best.Lower), w.num(best.Upper))
	}

	switch {
	case res.Err != nil:
		ew.printf("NOT CONVERGED: %v\n", res.Err)
	default:
		ew.printf("converged, max Rhat %s\n", rhat(post.MaxRHat))
	}
}

func (w *Writer) num(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', w.precision, 64)
}

func ess(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.Itoa(int(math.Round(v)))
}

func rhat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func percent(p float64) string {
	return strconv.FormatFloat(math.Round(p*1e5)/1e3, 'f', -1, 64) + "%"
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e, format, args...)
}
