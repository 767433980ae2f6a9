package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesweep/runner"
	"github.com/sarchlab/cachesweep/sweep"
)

// fakeSimulator prints its arguments and one statistic, then exits with
// $FAKE_EXIT (default 0).
const fakeSimulator = `#!/bin/sh
echo "   args $*"
echo "## miss_rate 12.5"
echo "warning on stderr" 1>&2
exit ${FAKE_EXIT:-0}
`

var _ = Describe("Simulator", func() {
	var (
		tempDir string
		sim     *runner.Simulator
		cfg     sweep.Configuration
		logPath string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "runner-*")
		Expect(err).NotTo(HaveOccurred())

		binary := filepath.Join(tempDir, "p5")
		Expect(os.WriteFile(binary, []byte(fakeSimulator), 0755)).To(Succeed())

		sim = runner.DefaultSimulator()
		sim.Binary = binary
		cfg = sweep.Configuration{Cores: 1, Capacity: 11, BlockSize: 6, Assoc: 1, Protocol: sweep.ProtocolNone}
		logPath = filepath.Join(tempDir, cfg.LogName())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	readLog := func() string {
		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	Describe("Args", func() {
		It("should build the arguments in fixed order", func() {
			Expect(sim.Args(cfg)).To(Equal([]string{
				"-t", "trace.1t.long.txt", "-p", "none", "-n", "1", "-cache", "11", "6", "1",
			}))
		})

		It("should render a command line with the cache geometry and core count", func() {
			line := runner.DefaultSimulator().CommandLine(cfg, "out.log")
			Expect(line).To(ContainSubstring("-cache 11 6 1"))
			Expect(line).To(ContainSubstring("-n 1"))
			Expect(line).To(HavePrefix("./p5 -t trace.1t.long.txt -p none"))
			Expect(line).To(HaveSuffix(">> out.log"))
		})

		It("should place traces under the trace directory", func() {
			sim.TraceDir = "/traces"
			cfg.Cores = 4
			Expect(sim.Args(cfg)[1]).To(Equal("/traces/trace.4t.long.txt"))
		})
	})

	Describe("Run", func() {
		It("should capture stdout and stderr in the log", func() {
			result, err := sim.Run(context.Background(), cfg, logPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExitCode).To(Equal(0))
			Expect(result.Failed()).To(BeFalse())

			content := readLog()
			Expect(content).To(ContainSubstring("-cache 11 6 1"))
			Expect(content).To(ContainSubstring("## miss_rate 12.5"))
			Expect(content).To(ContainSubstring("warning on stderr"))
		})

		It("should append repeated runs to the same log", func() {
			_, err := sim.Run(context.Background(), cfg, logPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = sim.Run(context.Background(), cfg, logPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(strings.Count(readLog(), "## miss_rate")).To(Equal(2))
		})

		It("should truncate the log in truncate mode", func() {
			sim.Mode = runner.Truncate
			_, err := sim.Run(context.Background(), cfg, logPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = sim.Run(context.Background(), cfg, logPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(strings.Count(readLog(), "## miss_rate")).To(Equal(1))
		})

		It("should report a non-zero exit without failing", func() {
			sim.Env = []string{"FAKE_EXIT=3"}
			result, err := sim.Run(context.Background(), cfg, logPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExitCode).To(Equal(3))
			Expect(result.Failed()).To(BeTrue())
			Expect(readLog()).To(ContainSubstring("## miss_rate 12.5"))
		})

		It("should fail when the simulator cannot be started", func() {
			sim.Binary = filepath.Join(tempDir, "missing")
			_, err := sim.Run(context.Background(), cfg, logPath)
			Expect(err).To(MatchError(ContainSubstring("failed to start simulator")))
		})

		It("should stop when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := sim.Run(ctx, cfg, logPath)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidateSetup", func() {
		It("should accept an executable simulator", func() {
			Expect(sim.ValidateSetup()).To(Succeed())
		})

		It("should reject a missing simulator", func() {
			sim.Binary = filepath.Join(tempDir, "nope")
			Expect(sim.ValidateSetup()).To(MatchError(ContainSubstring("not found")))
		})

		It("should list missing traces", func() {
			sim.TraceDir = tempDir
			Expect(os.WriteFile(filepath.Join(tempDir, "trace.1t.long.txt"), nil, 0644)).To(Succeed())
			Expect(sim.MissingTraces([]int{1, 2})).To(Equal([]string{
				filepath.Join(tempDir, "trace.2t.long.txt"),
			}))
		})
	})
})
