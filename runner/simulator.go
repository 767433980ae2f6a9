// Package runner invokes the external cache simulator for one sweep point
// and captures its output in a log file.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesweep/sweep"
)

// LogMode selects how an existing log file is treated.
type LogMode int

const (
	// Append keeps earlier output and adds the new run at the end. Extraction
	// only honours the first match, so appended runs do not change results.
	Append LogMode = iota

	// Truncate discards earlier output before running.
	Truncate
)

// Simulator describes how to launch the external simulator.
type Simulator struct {
	// Binary is the simulator executable.
	Binary string

	// TraceDir is the directory holding the memory traces. Trace paths are
	// passed relative to it when it is ".".
	TraceDir string

	// Mode selects append or truncate semantics for log files.
	Mode LogMode

	// Env is appended to the environment of the simulator process.
	Env []string
}

// Result describes one simulator invocation.
type Result struct {
	// Args are the arguments passed to the simulator, without the binary.
	Args []string `json:"args"`

	// ExitCode is the process exit status. A process killed by a signal has
	// the negated signal number.
	ExitCode int `json:"exit_code"`

	// WallTime is how long the simulator ran.
	WallTime time.Duration `json:"wall_time_ns"`
}

// Failed reports whether the simulator exited abnormally.
func (r Result) Failed() bool {
	return r.ExitCode != 0
}

// DefaultSimulator returns the simulator configuration used by the course
// setup: ./p5 with traces in the working directory, appending to logs.
func DefaultSimulator() *Simulator {
	return &Simulator{
		Binary:   "./p5",
		TraceDir: ".",
		Mode:     Append,
	}
}

// TracePath returns the path of the trace replayed for cfg.
func (s *Simulator) TracePath(cfg sweep.Configuration) string {
	if s.TraceDir == "" || s.TraceDir == "." {
		return cfg.TraceFile()
	}
	return filepath.Join(s.TraceDir, cfg.TraceFile())
}

// Args returns the simulator arguments for cfg in their fixed order:
// -t <trace> -p <protocol> -n <cores> -cache <capacity> <blocksize> <assoc>.
func (s *Simulator) Args(cfg sweep.Configuration) []string {
	return []string{
		"-t", s.TracePath(cfg),
		"-p", string(cfg.Protocol),
		"-n", strconv.Itoa(cfg.Cores),
		"-cache",
		strconv.Itoa(cfg.Capacity),
		strconv.Itoa(cfg.BlockSize),
		strconv.Itoa(cfg.Assoc),
	}
}

// CommandLine renders the shell form of the invocation for logging.
func (s *Simulator) CommandLine(cfg sweep.Configuration, logPath string) string {
	redirect := ">>"
	if s.Mode == Truncate {
		redirect = ">"
	}
	return fmt.Sprintf("%s %s %s %s", s.Binary, strings.Join(s.Args(cfg), " "), redirect, logPath)
}

// Run executes the simulator for cfg and writes its combined stdout and
// stderr to logPath. The call blocks until the simulator exits.
//
// Failing to start the simulator is an error. A non-zero exit status is not:
// it is logged and reported in the Result, and whatever output was produced
// stays in the log.
func (s *Simulator) Run(ctx context.Context, cfg sweep.Configuration, logPath string) (Result, error) {
	result := Result{Args: s.Args(cfg)}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if s.Mode == Truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	logFile, err := os.OpenFile(logPath, flags, 0644)
	if err != nil {
		return result, errors.Wrap(err, "failed to open simulator log")
	}
	defer func() { _ = logFile.Close() }()

	log.Info(s.CommandLine(cfg, logPath))

	cmd := exec.CommandContext(ctx, s.Binary, result.Args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result, errors.Wrapf(err, "failed to start simulator %s", s.Binary)
	}
	waitErr := cmd.Wait()
	result.WallTime = time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, errors.Wrap(ctxErr, "simulator run interrupted")
	}

	result.ExitCode = exitCode(cmd.ProcessState)
	if waitErr != nil && cmd.ProcessState == nil {
		return result, errors.Wrap(waitErr, "failed to wait for simulator")
	}

	fields := log.Fields{
		"config":    cfg.String(),
		"log":       logPath,
		"wall_time": result.WallTime,
	}
	if result.Failed() {
		log.WithFields(fields).Warnf("simulator exited with status %d", result.ExitCode)
	} else {
		log.WithFields(fields).Debug("simulator finished")
	}

	return result, nil
}

// exitCode returns the exit status, or the negated signal number when the
// process was killed.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return state.ExitCode()
}

// ValidateSetup checks that the simulator binary exists and is executable.
func (s *Simulator) ValidateSetup() error {
	path, err := exec.LookPath(s.Binary)
	if err != nil {
		return errors.Wrapf(err, "simulator %s not found", s.Binary)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "simulator %s not found", s.Binary)
	}
	if info.IsDir() {
		return errors.Errorf("simulator %s is a directory", s.Binary)
	}
	return nil
}

// MissingTraces returns the trace files that do not exist for the given core
// counts.
func (s *Simulator) MissingTraces(cores []int) []string {
	var missing []string
	for _, n := range cores {
		path := s.TracePath(sweep.Configuration{Cores: n})
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}
