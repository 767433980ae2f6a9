package sweep

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Scale selects how a chart axis is scaled.
type Scale string

// Axis scales. ScaleAuto picks log2 when the data spans a wide range.
const (
	ScaleLog2   Scale = "log2"
	ScaleLinear Scale = "linear"
	ScaleAuto   Scale = "auto"
)

// Valid reports whether s is a known scale. The empty scale means auto.
func (s Scale) Valid() bool {
	switch s {
	case ScaleLog2, ScaleLinear, ScaleAuto, "":
		return true
	}
	return false
}

// Metric names one statistic extracted from every simulator log.
type Metric struct {
	// Key is the statistic label as printed by the simulator.
	Key string `json:"key" yaml:"key"`

	// Label is the legend text used when the experiment plots a single
	// series per metric.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Scale multiplies the extracted value (0.01 turns a percentage into a
	// ratio). Zero means 1.
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Factor returns the multiplier applied to extracted values.
func (m Metric) Factor() float64 {
	if m.Scale == 0 {
		return 1
	}
	return m.Scale
}

// Experiment is an immutable sweep definition. Series axes are iterated
// outermost and identify a plotted line, the X axis is iterated next and
// provides the positions along each line, and any remaining axes are
// iterated innermost.
type Experiment struct {
	// Name identifies the experiment and names its result directory.
	Name string `json:"name" yaml:"name"`

	// Description is a one-line summary shown by the list command.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Figure is the image file the chart is saved to.
	Figure string `json:"figure" yaml:"figure"`

	// Title, XLabel and YLabel annotate the chart.
	Title  string `json:"title" yaml:"title"`
	XLabel string `json:"x_label" yaml:"x_label"`
	YLabel string `json:"y_label" yaml:"y_label"`

	// Protocol is the coherence protocol used for every point.
	Protocol Protocol `json:"protocol" yaml:"protocol"`

	// Series lists the outer axes whose values identify a series.
	Series []Axis `json:"series" yaml:"series"`

	// X is the inner axis plotted along the x-axis.
	X Axis `json:"x" yaml:"x"`

	// Dimensions holds the swept values of every axis.
	Dimensions map[Axis][]int `json:"dimensions" yaml:"dimensions"`

	// Metrics are extracted from every log, producing parallel series.
	Metrics []Metric `json:"metrics" yaml:"metrics"`

	// LegendFormat formats a series key into a legend label, e.g.
	// "assoc %d". Empty means metric labels are used instead.
	LegendFormat string `json:"legend_format,omitempty" yaml:"legend_format,omitempty"`

	// XScale and YScale select the chart axis scaling.
	XScale Scale `json:"x_scale,omitempty" yaml:"x_scale,omitempty"`
	YScale Scale `json:"y_scale,omitempty" yaml:"y_scale,omitempty"`
}

// Point is one grid position of an experiment.
type Point struct {
	// Config is the simulator configuration of the point.
	Config Configuration

	// Key holds the series axis values, in Experiment.Series order.
	Key []int

	// X is the value of the X axis.
	X int
}

// Dimension returns the swept values of the given axis.
func (e *Experiment) Dimension(a Axis) Dimension {
	return Dimension{Axis: a, Values: e.Dimensions[a]}
}

// Validate checks that the experiment can be swept.
func (e *Experiment) Validate() error {
	if e.Name == "" {
		return errors.New("experiment name must not be empty")
	}
	if !e.Protocol.Valid() {
		return errors.Errorf("experiment %s: unknown protocol %q", e.Name, e.Protocol)
	}
	if !e.X.Valid() {
		return errors.Errorf("experiment %s: unknown x axis %q", e.Name, e.X)
	}

	seen := map[Axis]bool{}
	for _, a := range e.Series {
		if !a.Valid() {
			return errors.Errorf("experiment %s: unknown series axis %q", e.Name, a)
		}
		if a == e.X {
			return errors.Errorf("experiment %s: axis %s is both series and x axis", e.Name, a)
		}
		if seen[a] {
			return errors.Errorf("experiment %s: series axis %s listed twice", e.Name, a)
		}
		seen[a] = true
	}

	for a := range e.Dimensions {
		if !a.Valid() {
			return errors.Errorf("experiment %s: unknown dimension %q", e.Name, a)
		}
	}
	for _, a := range Axes {
		if err := e.Dimension(a).Validate(); err != nil {
			return errors.Wrapf(err, "experiment %s", e.Name)
		}
	}

	if len(e.Metrics) == 0 {
		return errors.Errorf("experiment %s: at least one metric is required", e.Name)
	}
	metrics := map[string]bool{}
	for _, m := range e.Metrics {
		if m.Key == "" {
			return errors.Errorf("experiment %s: metric key must not be empty", e.Name)
		}
		if metrics[m.Key] {
			return errors.Errorf("experiment %s: metric %s listed twice", e.Name, m.Key)
		}
		metrics[m.Key] = true
	}

	if e.LegendFormat != "" {
		if n := formatVerbs(e.LegendFormat); n != len(e.Series) {
			return errors.Errorf("experiment %s: legend format %q takes %d values, series has %d axes",
				e.Name, e.LegendFormat, n, len(e.Series))
		}
	}

	if !e.XScale.Valid() {
		return errors.Errorf("experiment %s: unknown x scale %q", e.Name, e.XScale)
	}
	if !e.YScale.Valid() {
		return errors.Errorf("experiment %s: unknown y scale %q", e.Name, e.YScale)
	}
	return nil
}

// Size returns the number of grid points, the product of every dimension's
// cardinality.
func (e *Experiment) Size() int {
	n := 1
	for _, a := range Axes {
		n *= len(e.Dimensions[a])
	}
	return n
}

// order returns the iteration order of the axes, outermost first.
func (e *Experiment) order() []Axis {
	order := make([]Axis, 0, len(Axes))
	order = append(order, e.Series...)
	order = append(order, e.X)
	for _, a := range Axes {
		if !contains(order, a) {
			order = append(order, a)
		}
	}
	return order
}

// Points enumerates the grid in nested-loop order: series axes first, then
// the X axis, then the remaining axes.
func (e *Experiment) Points() []Point {
	order := e.order()
	points := make([]Point, 0, e.Size())

	var walk func(depth int, cfg Configuration)
	walk = func(depth int, cfg Configuration) {
		if depth == len(order) {
			key := make([]int, len(e.Series))
			for i, a := range e.Series {
				key[i] = cfg.Value(a)
			}
			points = append(points, Point{Config: cfg, Key: key, X: cfg.Value(e.X)})
			return
		}
		a := order[depth]
		for _, v := range e.Dimensions[a] {
			walk(depth+1, cfg.With(a, v))
		}
	}
	walk(0, Configuration{Protocol: e.Protocol})

	return points
}

// Keys returns the distinct series keys in iteration order.
func (e *Experiment) Keys() [][]int {
	var keys [][]int
	var walk func(depth int, prefix []int)
	walk = func(depth int, prefix []int) {
		if depth == len(e.Series) {
			keys = append(keys, append([]int(nil), prefix...))
			return
		}
		for _, v := range e.Dimensions[e.Series[depth]] {
			walk(depth+1, append(prefix, v))
		}
	}
	walk(0, nil)
	return keys
}

// Legend returns the legend label of a series. A legend format that does not
// take one value per series axis falls back to "axis=value" pairs.
func (e *Experiment) Legend(m Metric, key []int) string {
	if e.LegendFormat != "" && len(key) > 0 {
		var label string
		if formatVerbs(e.LegendFormat) == len(key) {
			args := make([]any, len(key))
			for i, v := range key {
				args[i] = v
			}
			label = fmt.Sprintf(e.LegendFormat, args...)
		} else {
			label = e.keyLabel(key)
		}
		if len(e.Metrics) > 1 {
			label = metricLabel(m) + " " + label
		}
		return label
	}
	return metricLabel(m)
}

func (e *Experiment) keyLabel(key []int) string {
	parts := make([]string, len(key))
	for i, v := range key {
		axis := "key"
		if i < len(e.Series) {
			axis = string(e.Series[i])
		}
		parts[i] = fmt.Sprintf("%s=%d", axis, v)
	}
	return strings.Join(parts, " ")
}

// formatVerbs counts the formatting verbs of a printf format, ignoring "%%".
func formatVerbs(format string) int {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}

func metricLabel(m Metric) string {
	if m.Label != "" {
		return m.Label
	}
	return m.Key
}

// Clone returns a deep copy of the experiment.
func (e *Experiment) Clone() *Experiment {
	c := *e
	c.Series = append([]Axis(nil), e.Series...)
	c.Metrics = append([]Metric(nil), e.Metrics...)
	c.Dimensions = make(map[Axis][]int, len(e.Dimensions))
	for a, values := range e.Dimensions {
		c.Dimensions[a] = append([]int(nil), values...)
	}
	return &c
}

// Names returns the sorted names of the given experiments.
func Names(exps map[string]*Experiment) []string {
	names := make([]string, 0, len(exps))
	for name := range exps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func contains(axes []Axis, a Axis) bool {
	for _, x := range axes {
		if x == a {
			return true
		}
	}
	return false
}
