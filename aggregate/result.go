package aggregate

import (
	"time"

	"github.com/sarchlab/cachesweep/runner"
	"github.com/sarchlab/cachesweep/sweep"
)

// Series is the sequence of values of one metric for one series key.
type Series struct {
	// Metric is the statistic the values were extracted for.
	Metric sweep.Metric `json:"metric"`

	// Key holds the series axis values identifying the series.
	Key []int `json:"key"`

	// Label is the legend text of the series.
	Label string `json:"label"`

	// X holds the X axis value (an exponent for size axes) of every point,
	// in iteration order.
	X []int `json:"x"`

	// Values holds the scaled metric values, parallel to X.
	Values []float64 `json:"values"`

	// Missing counts points whose log did not contain the metric. Those
	// points contribute a zero value.
	Missing int `json:"missing"`
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	return len(s.Values)
}

func (s *Series) add(x int, v float64, found bool) {
	s.X = append(s.X, x)
	s.Values = append(s.Values, v)
	if !found {
		s.Missing++
	}
}

// PointResult records one executed grid point.
type PointResult struct {
	// Config is the simulator configuration of the point.
	Config sweep.Configuration `json:"config"`

	// Log is the path of the log the simulator output went to.
	Log string `json:"log"`

	// Run describes the simulator invocation.
	Run runner.Result `json:"run"`

	// Values maps metric keys to scaled values.
	Values map[string]float64 `json:"values"`

	// Missing lists metric keys absent from the log.
	Missing []string `json:"missing,omitempty"`
}

// Result holds everything produced by one sweep run.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Experiment is the definition that was swept.
	Experiment *sweep.Experiment `json:"experiment"`

	// Dir is the result directory holding the logs.
	Dir string `json:"dir"`

	// Started and Finished bound the run.
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Series are ordered by metric, then by series key in iteration order.
	Series []*Series `json:"series"`

	// Points are ordered by execution.
	Points []PointResult `json:"points"`
}

// Invocations returns the number of simulator runs.
func (r *Result) Invocations() int {
	return len(r.Points)
}

// Failures returns the number of simulator runs with a non-zero exit status.
func (r *Result) Failures() int {
	n := 0
	for _, p := range r.Points {
		if p.Run.Failed() {
			n++
		}
	}
	return n
}

// MissingValues returns the number of metric values absent from the logs.
func (r *Result) MissingValues() int {
	n := 0
	for _, s := range r.Series {
		n += s.Missing
	}
	return n
}

// SeriesFor returns the series of one metric, in key order.
func (r *Result) SeriesFor(metric string) []*Series {
	var out []*Series
	for _, s := range r.Series {
		if s.Metric.Key == metric {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the series of a metric with the given key, or nil.
func (r *Result) Lookup(metric string, key ...int) *Series {
	for _, s := range r.SeriesFor(metric) {
		if equalKeys(s.Key, key) {
			return s
		}
	}
	return nil
}

func equalKeys(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
