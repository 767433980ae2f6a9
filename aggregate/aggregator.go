// Package aggregate runs a sweep over an experiment's grid and accumulates
// the extracted statistics into per-metric series.
package aggregate

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesweep/runner"
	"github.com/sarchlab/cachesweep/stats"
	"github.com/sarchlab/cachesweep/sweep"
)

// Files written next to the logs of every run.
const (
	CSVFile    = "series.csv"
	ReportFile = "report.json"
)

// Runner runs the simulator for one configuration, writing to logPath.
type Runner interface {
	Run(ctx context.Context, cfg sweep.Configuration, logPath string) (runner.Result, error)
}

// ExtractorFunc returns the first match of every key in the log at path.
type ExtractorFunc func(path string, keys []string) (map[string]stats.Sample, error)

// Config configures the aggregator.
type Config struct {
	// ResultsRoot is the directory result directories are created under.
	ResultsRoot string

	// Output is where progress summaries are written (default: os.Stdout).
	Output io.Writer

	// Now returns the current time; it names the result directory.
	Now func() time.Time

	// SkipFiles disables writing series.csv and report.json.
	SkipFiles bool
}

// DefaultConfig returns the default aggregator configuration.
func DefaultConfig() Config {
	return Config{
		ResultsRoot: "results",
		Output:      os.Stdout,
		Now:         time.Now,
	}
}

// Aggregator owns one sweep: it executes every grid point strictly in
// nested-loop order, one simulator invocation at a time, and accumulates the
// extracted metrics.
type Aggregator struct {
	config  Config
	runner  Runner
	extract ExtractorFunc
}

// New creates an aggregator. A nil extract uses stats.LookupAll.
func New(config Config, r Runner, extract ExtractorFunc) *Aggregator {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.ResultsRoot == "" {
		config.ResultsRoot = "results"
	}
	if extract == nil {
		extract = stats.LookupAll
	}
	return &Aggregator{
		config:  config,
		runner:  r,
		extract: extract,
	}
}

// Run sweeps the experiment's grid. Every point is executed, even when an
// identical configuration already produced a log. The first simulator launch
// failure or log read failure aborts the sweep; logs produced so far are
// left on disk.
func (a *Aggregator) Run(ctx context.Context, exp *sweep.Experiment) (*Result, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	exp = exp.Clone()

	started := a.config.Now()
	dir, err := CreateRunDir(a.config.ResultsRoot, exp.Name, started)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      uuid.NewString(),
		Experiment: exp,
		Dir:        dir,
		Started:    started,
	}

	logger := log.WithFields(log.Fields{"experiment": exp.Name, "run": result.RunID})
	logger.Infof("sweeping %d points into %s", exp.Size(), dir)

	index := a.newSeries(exp, result)
	keys := metricKeys(exp)

	for _, p := range exp.Points() {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "sweep interrupted")
		}

		if err := p.Config.Validate(); err != nil {
			logger.WithField("config", p.Config.String()).Warnf("questionable geometry: %v", err)
		}

		logPath := filepath.Join(dir, p.Config.LogName())
		run, err := a.runner.Run(ctx, p.Config, logPath)
		if err != nil {
			return result, errors.Wrapf(err, "point %s", p.Config)
		}

		samples, err := a.extract(logPath, keys)
		if err != nil {
			return result, errors.Wrapf(err, "point %s", p.Config)
		}

		point := PointResult{
			Config: p.Config,
			Log:    logPath,
			Run:    run,
			Values: make(map[string]float64, len(exp.Metrics)),
		}
		for _, m := range exp.Metrics {
			sample := samples[m.Key]
			value := sample.Value * m.Factor()
			if !sample.Found {
				point.Missing = append(point.Missing, m.Key)
				logger.WithFields(log.Fields{"metric": m.Key, "log": logPath}).
					Debug("metric not found, using 0")
			}
			point.Values[m.Key] = value
			index.get(m.Key, p.Key).add(p.X, value, sample.Found)
		}
		result.Points = append(result.Points, point)
	}

	result.Finished = a.config.Now()

	if n := result.Failures(); n > 0 {
		logger.Warnf("%d of %d simulator runs exited with a non-zero status", n, result.Invocations())
	}
	if n := result.MissingValues(); n > 0 {
		logger.Warnf("%d metric values were missing from the logs and recorded as 0", n)
	}

	if !a.config.SkipFiles {
		if err := a.writeFiles(result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (a *Aggregator) writeFiles(result *Result) error {
	csvFile, err := os.Create(filepath.Join(result.Dir, CSVFile))
	if err != nil {
		return errors.Wrap(err, "failed to create series file")
	}
	defer func() { _ = csvFile.Close() }()
	if err := PrintCSV(csvFile, result); err != nil {
		return err
	}

	return WriteReport(filepath.Join(result.Dir, ReportFile), result)
}

// seriesIndex finds the series of a (metric, key) pair.
type seriesIndex map[string][]*Series

func (idx seriesIndex) get(metric string, key []int) *Series {
	for _, s := range idx[metric] {
		if equalKeys(s.Key, key) {
			return s
		}
	}
	return nil
}

// newSeries creates every series up front so result ordering follows the
// experiment: metrics in declared order, keys in iteration order.
func (a *Aggregator) newSeries(exp *sweep.Experiment, result *Result) seriesIndex {
	idx := seriesIndex{}
	for _, m := range exp.Metrics {
		for _, key := range exp.Keys() {
			s := &Series{
				Metric: m,
				Key:    key,
				Label:  exp.Legend(m, key),
			}
			idx[m.Key] = append(idx[m.Key], s)
			result.Series = append(result.Series, s)
		}
	}
	return idx
}

func metricKeys(exp *sweep.Experiment) []string {
	keys := make([]string, len(exp.Metrics))
	for i, m := range exp.Metrics {
		keys[i] = m.Key
	}
	return keys
}
