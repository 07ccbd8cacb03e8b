// Package plot draws trace and density plots of posterior draws.
package plot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/okian/playoffs/internal/domain/inference"
)

const (
	defaultBins    = 40
	defaultMaxDraw = 2_000
	rowHeight      = 2.5 * vg.Inch
	pageWidth      = 10 * vg.Inch
	dirPermission  = 0o750
)

// ErrNoDraws is returned for a posterior without retained draws.
var ErrNoDraws = errors.New("posterior has no draws")

// Renderer writes one PNG per rank: a row per component with the pooled
// density on the left and the per-chain trace on the right.
type Renderer struct {
	dir     string
	bins    int
	maxDraw int
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithBins sets the histogram bin count.
func WithBins(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.bins = n
		}
	}
}

// WithMaxTracePoints thins each trace to at most n points.
func WithMaxTracePoints(n int) Option {
	return func(r *Renderer) {
		if n > 1 {
			r.maxDraw = n
		}
	}
}

// NewRenderer creates a renderer writing into dir.
func NewRenderer(dir string, opts ...Option) *Renderer {
	r := &Renderer{dir: dir, bins: defaultBins, maxDraw: defaultMaxDraw}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the file Render writes for rank.
func (r *Renderer) Path(rank int) string {
	return filepath.Join(r.dir, fmt.Sprintf("rank%d_trace.png", rank))
}

// Render draws post and returns the written path.
func (r *Renderer) Render(rank int, post *inference.Posterior) (string, error) {
	if post == nil || len(post.Chains) == 0 || len(post.Chains[0]) == 0 {
		return "", ErrNoDraws
	}

	rows := make([][]*plot.Plot, len(post.Components))
	for j, c := range post.Components {
		density, err := r.density(rank, c.Index, post.Pooled(j))
		if err != nil {
			return "", err
		}
		trace, err := r.trace(rank, c.Index, post.Trace(j))
		if err != nil {
			return "", err
		}
		rows[j] = []*plot.Plot{density, trace}
	}

	img := vgimg.New(pageWidth, rowHeight*vg.Length(len(rows)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(rows),
		Cols: 2,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		for k := range rows[i] {
			rows[i][k].Draw(canvases[i][k])
		}
	}

	if err := os.MkdirAll(r.dir, dirPermission); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}
	path := r.Path(rank)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create plot: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

func (r *Renderer) density(rank, index int, pooled []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("rank %d prob[%d]", rank, index)
	p.X.Label.Text = "probability"
	p.Y.Label.Text = "density"

	h, err := plotter.NewHist(plotter.Values(pooled), r.bins)
	if err != nil {
		return nil, fmt.Errorf("density prob[%d]: %w", index, err)
	}
	h.Normalize(1)
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	return p, nil
}

func (r *Renderer) trace(rank, index int, chains [][]float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("rank %d prob[%d] trace", rank, index)
	p.X.Label.Text = "draw"
	p.Y.Label.Text = "probability"

	for c, series := range chains {
		stride := max(1, len(series)/r.maxDraw)
		pts := make(plotter.XYs, 0, len(series)/stride+1)
		for i := 0; i < len(series); i += stride {
			pts = append(pts, plotter.XY{X: float64(i), Y: series[i]})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("trace prob[%d] chain %d: %w", index, c, err)
		}
		line.Color = plotutil.Color(c)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("chain %d", c+1), line)
	}
	p.Legend.Top = true
	return p, nil
}
