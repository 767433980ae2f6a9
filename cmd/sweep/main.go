// Command sweep runs cache-simulator parameter sweeps and plots the results.
//
// Usage:
//
//	go run ./cmd/sweep [flags] <command> [args]
//
// Commands:
//
//	run <experiment>   Run every grid point, aggregate the series and plot them
//	list               List the known experiments and their grid sizes
//	show <experiment>  Print an experiment definition as YAML
//
// Global flags can also be set through SWEEP_* environment variables.
//
// Example:
//
//	# Sweep cache size for three associativities and save graph2.png
//	go run ./cmd/sweep run exp2
//
//	# Override the grid from a file and skip the interactive view
//	go run ./cmd/sweep --experiments small.yaml run exp2 --no-display
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/sarchlab/cachesweep/aggregate"
	"github.com/sarchlab/cachesweep/chart"
	"github.com/sarchlab/cachesweep/runner"
	"github.com/sarchlab/cachesweep/sweep"
)

type cli struct {
	app *kingpin.Application

	logLevel    *string
	simulator   *string
	traceDir    *string
	results     *string
	experiments *string

	runCmd    *kingpin.CmdClause
	runName   *string
	figure    *string
	noDisplay *bool
	freshLogs *bool
	csv       *bool

	listCmd *kingpin.CmdClause

	showCmd  *kingpin.CmdClause
	showName *string
	showJSON *bool
}

func newCLI(out io.Writer) *cli {
	c := &cli{}
	c.app = kingpin.New("sweep", "Run cache-simulator parameter sweeps and plot the results.")
	c.app.UsageWriter(out)
	c.app.ErrorWriter(out)

	c.logLevel = c.app.Flag("log-level", "Log level: debug, info, warn, error.").
		Envar("SWEEP_LOG_LEVEL").Default("info").String()
	c.simulator = c.app.Flag("simulator", "Path of the simulator binary.").
		Envar("SWEEP_SIMULATOR").Default("./p5").String()
	c.traceDir = c.app.Flag("trace-dir", "Directory holding the trace files.").
		Envar("SWEEP_TRACE_DIR").Default(".").String()
	c.results = c.app.Flag("results", "Directory result directories are created under.").
		Envar("SWEEP_RESULTS").Default("results").String()
	c.experiments = c.app.Flag("experiments", "YAML or JSON file adding or overriding experiments.").
		Envar("SWEEP_EXPERIMENTS").String()

	c.runCmd = c.app.Command("run", "Run an experiment and plot it.")
	c.runName = c.runCmd.Arg("experiment", "Experiment name.").Required().String()
	c.figure = c.runCmd.Flag("figure", "Figure path, overriding the experiment's.").String()
	c.noDisplay = c.runCmd.Flag("no-display", "Do not open the interactive chart.").Bool()
	c.freshLogs = c.runCmd.Flag("fresh-logs", "Truncate logs instead of appending to them.").Bool()
	c.csv = c.runCmd.Flag("csv", "Print the series as CSV instead of a summary.").Bool()

	c.listCmd = c.app.Command("list", "List the known experiments.")

	c.showCmd = c.app.Command("show", "Print an experiment definition.")
	c.showName = c.showCmd.Arg("experiment", "Experiment name.").Required().String()
	c.showJSON = c.showCmd.Flag("json", "Print JSON instead of YAML.").Bool()

	return c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		log.WithError(err).Fatal("sweep failed")
	}
}

// run parses args and executes the selected command, writing reports to out.
func run(ctx context.Context, args []string, out io.Writer) error {
	c := newCLI(out)
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}

	level, err := log.ParseLevel(*c.logLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	exps := sweep.Builtin()
	if *c.experiments != "" {
		exps, err = sweep.LoadExperiments(*c.experiments, exps)
		if err != nil {
			return err
		}
	}

	switch command {
	case c.runCmd.FullCommand():
		return c.runExperiment(ctx, exps, out)
	case c.listCmd.FullCommand():
		listExperiments(exps, out)
		return nil
	case c.showCmd.FullCommand():
		return c.showExperiment(exps, out)
	}
	return errors.Errorf("unknown command %q", command)
}

func lookup(exps map[string]*sweep.Experiment, name string) (*sweep.Experiment, error) {
	exp, ok := exps[name]
	if !ok {
		return nil, errors.Errorf("unknown experiment %q (known: %v)", name, sweep.Names(exps))
	}
	return exp, nil
}

func (c *cli) runExperiment(ctx context.Context, exps map[string]*sweep.Experiment, out io.Writer) error {
	exp, err := lookup(exps, *c.runName)
	if err != nil {
		return err
	}

	sim := runner.DefaultSimulator()
	sim.Binary = *c.simulator
	sim.TraceDir = *c.traceDir
	if *c.freshLogs {
		sim.Mode = runner.Truncate
	}
	if err := sim.ValidateSetup(); err != nil {
		return err
	}
	for _, trace := range sim.MissingTraces(exp.Dimensions[sweep.AxisCores]) {
		log.WithField("trace", trace).Warn("trace file not found")
	}

	config := aggregate.DefaultConfig()
	config.ResultsRoot = *c.results
	config.Output = out

	agg := aggregate.New(config, sim, nil)
	result, err := agg.Run(ctx, exp)
	if err != nil {
		return err
	}

	if *c.csv {
		if err := aggregate.PrintCSV(out, result); err != nil {
			return err
		}
	} else {
		agg.PrintResults(result)
	}

	opts := chart.DefaultOptions()
	opts.Output = exp.Figure
	if *c.figure != "" {
		opts.Output = *c.figure
	}
	opts.Interactive = !*c.noDisplay
	return chart.New(opts).Publish(chart.FromResult(result))
}

func listExperiments(exps map[string]*sweep.Experiment, out io.Writer) {
	for _, name := range sweep.Names(exps) {
		exp := exps[name]
		_, _ = fmt.Fprintf(out, "%-12s %5d points  %s\n", name, exp.Size(), exp.Description)
	}
}

func (c *cli) showExperiment(exps map[string]*sweep.Experiment, out io.Writer) error {
	exp, err := lookup(exps, *c.showName)
	if err != nil {
		return err
	}
	data, err := exp.Marshal(*c.showJSON)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
