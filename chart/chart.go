// Package chart renders aggregated sweep series as line charts. Static
// figures are drawn with gonum/plot; the interactive view is an HTML page
// built with go-echarts.
package chart

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/sarchlab/cachesweep/aggregate"
	"github.com/sarchlab/cachesweep/sweep"
)

// Line is one plotted series.
type Line struct {
	Label string
	X     []float64
	Y     []float64
}

// Chart is the renderer-neutral description of a figure.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	XScale sweep.Scale
	YScale sweep.Scale
	Lines  []Line
}

// FromResult converts the series of a sweep into a chart. Exponent axes are
// plotted in bytes.
func FromResult(res *aggregate.Result) Chart {
	exp := res.Experiment
	c := Chart{
		Title:  exp.Title,
		XLabel: exp.XLabel,
		YLabel: exp.YLabel,
		XScale: exp.XScale,
		YScale: exp.YScale,
	}
	if c.Title == "" {
		c.Title = exp.Name
	}
	if c.XLabel == "" {
		c.XLabel = string(exp.X)
	}

	for _, s := range res.Series {
		line := Line{
			Label: s.Label,
			X:     make([]float64, len(s.X)),
			Y:     append([]float64(nil), s.Values...),
		}
		for i, x := range s.X {
			if exp.X.Exponent() {
				line.X[i] = math.Ldexp(1, x)
			} else {
				line.X[i] = float64(x)
			}
		}
		c.Lines = append(c.Lines, line)
	}
	return c
}

// Options configures how charts are written and displayed.
type Options struct {
	// Width and Height are the figure size.
	Width  vg.Length
	Height vg.Length

	// Output is the figure path. The extension selects the image format.
	Output string

	// Interactive requests the HTML view to be opened after rendering.
	Interactive bool

	// HTMLPath is where the HTML view is written (default: Output + ".html").
	HTMLPath string

	// Opener is the command that opens the HTML view (default: open on
	// macOS, xdg-open elsewhere).
	Opener string
}

// DefaultOptions returns the default chart options.
func DefaultOptions() Options {
	return Options{
		Width:       8 * vg.Inch,
		Height:      6 * vg.Inch,
		Interactive: true,
	}
}

// Renderer draws charts according to its options.
type Renderer struct {
	opts Options
}

// New creates a renderer. Zero sizes fall back to the defaults.
func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.HTMLPath == "" && opts.Output != "" {
		opts.HTMLPath = opts.Output + ".html"
	}
	return &Renderer{opts: opts}
}

// Publish saves the figure to Output and, when interactive, tries to show
// it. Display failures are logged and never returned.
func (r *Renderer) Publish(c Chart) error {
	if r.opts.Output == "" {
		return errors.New("no chart output path")
	}
	if err := r.Render(c, r.opts.Output); err != nil {
		return err
	}
	log.WithField("figure", r.opts.Output).Info("chart saved")

	if !r.opts.Interactive {
		return nil
	}
	if err := r.Show(c); err != nil {
		log.WithError(err).Warn("chart not displayed")
	}
	return nil
}

// Render saves the chart as an image at path.
func Render(c Chart, path string) error {
	return New(DefaultOptions()).Render(c, path)
}

// Render saves the chart as an image at path.
func (r *Renderer) Render(c Chart, path string) error {
	if len(c.Lines) == 0 {
		return errors.New("chart has no series")
	}
	if !isImage(path) {
		return errors.Errorf("unsupported figure format %q", filepath.Ext(path))
	}

	xs, ys := c.values()
	xScale := resolve(c.XScale, xs, "x")
	yScale := resolve(c.YScale, ys, "y")

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Add(plotter.NewGrid())

	colors := palette(len(c.Lines))
	var keptX, keptY []float64
	for i, l := range c.Lines {
		pts := make(plotter.XYs, 0, len(l.X))
		for j := range l.X {
			x, y := l.X[j], l.Y[j]
			if (xScale == sweep.ScaleLog2 && x <= 0) || (yScale == sweep.ScaleLog2 && y <= 0) {
				log.WithFields(log.Fields{"series": l.Label, "x": x, "y": y}).
					Warn("dropping non-positive point from log axis")
				continue
			}
			pts = append(pts, plotter.XY{X: x, Y: y})
			keptX = append(keptX, x)
			keptY = append(keptY, y)
		}
		if len(pts) == 0 {
			continue
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return errors.Wrapf(err, "series %s", l.Label)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		points.Color = colors[i]
		points.Shape = plotutil.Shape(i)

		p.Add(line, points)
		p.Legend.Add(l.Label, line, points)
	}
	if len(keptX) == 0 {
		return errors.New("chart has no plottable points")
	}

	configureAxis(&p.X, xScale, keptX)
	configureAxis(&p.Y, yScale, keptY)

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = 1 * vg.Millimeter

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create figure directory")
		}
	}
	if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

// values returns all x and y values of the chart.
func (c Chart) values() (xs, ys []float64) {
	for _, l := range c.Lines {
		xs = append(xs, l.X...)
		ys = append(ys, l.Y...)
	}
	return xs, ys
}

// configureAxis applies the scale and ticks of one axis. Log axes get
// power-of-two bounds so a single value still spans a non-empty range.
func configureAxis(a *plot.Axis, scale sweep.Scale, values []float64) {
	if scale != sweep.ScaleLog2 {
		return
	}
	lo, hi := powerBounds(values)
	a.Scale = plot.LogScale{}
	a.Min = lo
	a.Max = hi
	a.Tick.Marker = plot.TickerFunc(powerOfTwoTicks)
}

// palette returns n distinguishable colours.
func palette(n int) []color.Color {
	size := n
	if size < 3 {
		size = 3
	}
	if size > 8 {
		size = 8
	}

	colors := make([]color.Color, n)
	p, err := brewer.GetPalette(brewer.TypeQualitative, "Dark2", size)
	if err != nil {
		for i := range colors {
			colors[i] = plotutil.Color(i)
		}
		return colors
	}

	base := p.Colors()
	for i := range colors {
		colors[i] = base[i%len(base)]
	}
	return colors
}

// isImage reports whether the extension of path is an image format gonum/plot
// can write.
func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf", ".eps", ".jpg", ".jpeg", ".tif", ".tiff":
		return true
	}
	return false
}
