package aggregate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Report is the JSON document written next to the logs of a run.
type Report struct {
	// Metadata about the run
	Metadata ReportMetadata `json:"metadata"`

	// Series is the aggregated data, one entry per metric and key
	Series []*Series `json:"series"`

	// Points lists every simulator invocation in execution order
	Points []PointResult `json:"points"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata identifies the run.
type ReportMetadata struct {
	RunID      string    `json:"run_id"`
	Experiment string    `json:"experiment"`
	Dir        string    `json:"dir"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
}

// ReportSummary contains aggregate statistics across all points.
type ReportSummary struct {
	// GridSize is the number of configuration points in the experiment
	GridSize int `json:"grid_size"`

	// Invocations is the number of simulator runs
	Invocations int `json:"invocations"`

	// Failures is the number of runs with a non-zero exit status
	Failures int `json:"failures"`

	// MissingValues is the number of metric values absent from the logs
	MissingValues int `json:"missing_values"`

	// TotalWallTime is the sum of simulator wall times
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// NewReport builds the report of a run.
func NewReport(r *Result) Report {
	var wall time.Duration
	for _, p := range r.Points {
		wall += p.Run.WallTime
	}

	return Report{
		Metadata: ReportMetadata{
			RunID:      r.RunID,
			Experiment: r.Experiment.Name,
			Dir:        r.Dir,
			Started:    r.Started.UTC(),
			Finished:   r.Finished.UTC(),
		},
		Series: r.Series,
		Points: r.Points,
		Summary: ReportSummary{
			GridSize:      r.Experiment.Size(),
			Invocations:   r.Invocations(),
			Failures:      r.Failures(),
			MissingValues: r.MissingValues(),
			TotalWallTime: wall,
		},
	}
}

// PrintJSON writes the report of a run as indented JSON.
func PrintJSON(w io.Writer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewReport(r))
}

// WriteReport writes the JSON report of a run to path.
func WriteReport(path string, r *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create report")
	}
	defer func() { _ = f.Close() }()

	if err := PrintJSON(f, r); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}

// PrintCSV writes one row per series point:
// metric,label,key,x,value.
func PrintCSV(w io.Writer, r *Result) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"metric", "label", "key", "x", "value"})

	for _, s := range r.Series {
		key := joinInts(s.Key, "-")
		for i := range s.Values {
			_ = cw.Write([]string{
				s.Metric.Key,
				s.Label,
				key,
				strconv.Itoa(s.X[i]),
				strconv.FormatFloat(s.Values[i], 'g', -1, 64),
			})
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "failed to write series CSV")
	}
	return nil
}

// PrintResults writes a human-readable summary of a run.
func PrintResults(w io.Writer, r *Result) {
	exp := r.Experiment

	_, _ = fmt.Fprintf(w, "=== Sweep %s ===\n", exp.Name)
	_, _ = fmt.Fprintf(w, "  Run ID:      %s\n", r.RunID)
	_, _ = fmt.Fprintf(w, "  Directory:   %s\n", r.Dir)
	_, _ = fmt.Fprintf(w, "  Invocations: %d\n", r.Invocations())
	if n := r.Failures(); n > 0 {
		_, _ = fmt.Fprintf(w, "  Failed runs: %d\n", n)
	}
	if n := r.MissingValues(); n > 0 {
		_, _ = fmt.Fprintf(w, "  Missing:     %d values recorded as 0\n", n)
	}
	_, _ = fmt.Fprintf(w, "  Duration:    %v\n", r.Finished.Sub(r.Started).Round(time.Millisecond))
	_, _ = fmt.Fprintln(w, "")

	for _, s := range r.Series {
		_, _ = fmt.Fprintf(w, "Series: %s (%s)\n", s.Label, s.Metric.Key)
		for i := range s.Values {
			_, _ = fmt.Fprintf(w, "  %s=%-3d %g\n", exp.X, s.X[i], s.Values[i])
		}
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintResults writes the summary of a run to the configured output.
func (a *Aggregator) PrintResults(r *Result) {
	PrintResults(a.config.Output, r)
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
