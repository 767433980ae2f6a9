package chart

import (
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesweep/sweep"
)

// ErrNoDisplay is returned by Show when no graphical session is available.
var ErrNoDisplay = errors.New("no display available")

// RenderHTML writes an interactive line chart page to w.
func RenderHTML(c Chart, w io.Writer) error {
	if len(c.Lines) == 0 {
		return errors.New("chart has no series")
	}

	xs, ys := c.values()
	yScale := resolve(c.YScale, ys, "y")

	categories := distinct(xs)
	labels := make([]string, len(categories))
	for i, x := range categories {
		labels[i] = SizeLabel(x)
	}

	yAxis := opts.YAxis{Name: c.YLabel, NameLocation: "middle", NameGap: 60}
	if yScale == sweep.ScaleLog2 {
		yAxis.Type = "log"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "960px", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(yAxis),
	)
	line.SetXAxis(labels)

	for _, l := range c.Lines {
		data := make([]opts.LineData, len(categories))
		for i := range data {
			data[i] = opts.LineData{Value: "-"}
		}
		for j, x := range l.X {
			y := l.Y[j]
			if yScale == sweep.ScaleLog2 && y <= 0 {
				continue
			}
			data[sort.SearchFloat64s(categories, x)] = opts.LineData{Value: y}
		}
		line.AddSeries(l.Label, data)
	}

	return line.Render(w)
}

// Show writes the HTML view and asks the desktop to open it. It is best
// effort: without a display it returns ErrNoDisplay.
func (r *Renderer) Show(c Chart) error {
	if !hasDisplay() {
		return ErrNoDisplay
	}
	if r.opts.HTMLPath == "" {
		return errors.New("no HTML path for the interactive view")
	}

	f, err := os.Create(r.opts.HTMLPath)
	if err != nil {
		return errors.Wrap(err, "failed to create HTML view")
	}
	if err := RenderHTML(c, f); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "failed to render HTML view")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to write HTML view")
	}

	opener := r.opts.Opener
	if opener == "" {
		opener = defaultOpener()
	}
	cmd := exec.Command(opener, r.opts.HTMLPath)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to launch %s", opener)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.WithError(err).Debugf("%s exited", opener)
		}
	}()

	log.WithField("view", r.opts.HTMLPath).Info("chart opened")
	return nil
}

func hasDisplay() bool {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func defaultOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

// distinct returns the sorted distinct values.
func distinct(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	for _, v := range sorted {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
