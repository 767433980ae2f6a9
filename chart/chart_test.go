package chart_test

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesweep/aggregate"
	"github.com/sarchlab/cachesweep/chart"
	"github.com/sarchlab/cachesweep/sweep"
)

func exp2Result() *aggregate.Result {
	exp := sweep.Exp2()
	exp.Dimensions[sweep.AxisCapacity] = sweep.Range(11, 13)

	metric := exp.Metrics[0]
	res := &aggregate.Result{Experiment: exp}
	for _, assoc := range []int{1, 2, 4} {
		s := &aggregate.Series{
			Metric: metric,
			Key:    []int{assoc},
			Label:  exp.Legend(metric, []int{assoc}),
			X:      []int{11, 12, 13},
		}
		for _, x := range s.X {
			s.Values = append(s.Values, float64(int(1)<<uint(x)/assoc))
		}
		res.Series = append(res.Series, s)
	}
	return res
}

func unsetDisplay() {
	for _, name := range []string{"DISPLAY", "WAYLAND_DISPLAY"} {
		old, ok := os.LookupEnv(name)
		Expect(os.Unsetenv(name)).To(Succeed())
		DeferCleanup(func() {
			if ok {
				_ = os.Setenv(name, old)
			}
		})
	}
}

var _ = Describe("Chart", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "chart-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("FromResult", func() {
		It("should plot size axes in bytes with one line per series", func() {
			c := chart.FromResult(exp2Result())

			Expect(c.Title).To(ContainSubstring("Graph #2"))
			Expect(c.XScale).To(Equal(sweep.ScaleLog2))
			Expect(c.Lines).To(HaveLen(3))
			Expect(c.Lines[0].Label).To(Equal("assoc 1"))
			Expect(c.Lines[0].X).To(Equal([]float64{2048, 4096, 8192}))
			Expect(c.Lines[2].Y).To(Equal([]float64{512, 1024, 2048}))
		})

		It("should keep plain axes as they are", func() {
			res := exp2Result()
			res.Experiment.X = sweep.AxisCores
			res.Experiment.Title = ""
			res.Series[0].X = []int{1, 2, 4}

			c := chart.FromResult(res)
			Expect(c.Title).To(Equal("exp2"))
			Expect(c.Lines[0].X).To(Equal([]float64{1, 2, 4}))
		})
	})

	Describe("Render", func() {
		It("should write the figure", func() {
			path := filepath.Join(tempDir, "graph2.png")
			Expect(chart.Render(chart.FromResult(exp2Result()), path)).To(Succeed())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeNumerically(">", 0))
		})

		It("should write SVG by extension", func() {
			path := filepath.Join(tempDir, "figures", "graph2.svg")
			Expect(chart.Render(chart.FromResult(exp2Result()), path)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("<svg"))
		})

		It("should drop zero values from a log axis", func() {
			c := chart.FromResult(exp2Result())
			c.Lines[0].Y[0] = 0

			path := filepath.Join(tempDir, "zeros.png")
			Expect(chart.Render(c, path)).To(Succeed())
			Expect(path).To(BeARegularFile())
		})

		It("should plot an all-zero log series on a linear axis", func() {
			c := chart.FromResult(exp2Result())
			for i := range c.Lines {
				for j := range c.Lines[i].Y {
					c.Lines[i].Y[j] = 0
				}
			}

			path := filepath.Join(tempDir, "empty.png")
			Expect(chart.Render(c, path)).To(Succeed())
			Expect(path).To(BeARegularFile())
		})

		It("should reject unknown formats and empty charts", func() {
			c := chart.FromResult(exp2Result())
			Expect(chart.Render(c, filepath.Join(tempDir, "graph.txt"))).
				To(MatchError(ContainSubstring("unsupported figure format")))
			Expect(chart.Render(chart.Chart{}, filepath.Join(tempDir, "graph.png"))).
				To(MatchError(ContainSubstring("no series")))
		})
	})

	Describe("RenderHTML", func() {
		It("should produce a page with every series", func() {
			var buf bytes.Buffer
			Expect(chart.RenderHTML(chart.FromResult(exp2Result()), &buf)).To(Succeed())

			html := buf.String()
			Expect(html).To(ContainSubstring("assoc 1"))
			Expect(html).To(ContainSubstring("assoc 4"))
			Expect(html).To(ContainSubstring("2K"))
			Expect(html).To(ContainSubstring(`"log"`))
		})
	})

	Describe("Publish", func() {
		It("should save the figure without a display", func() {
			unsetDisplay()

			opts := chart.DefaultOptions()
			opts.Output = filepath.Join(tempDir, "graph2.png")
			Expect(chart.New(opts).Publish(chart.FromResult(exp2Result()))).To(Succeed())
			Expect(opts.Output).To(BeARegularFile())
		})

		It("should report a missing display from Show", func() {
			if runtime.GOOS != "linux" {
				Skip("display detection is environment based on linux only")
			}
			unsetDisplay()

			opts := chart.DefaultOptions()
			opts.Output = filepath.Join(tempDir, "graph2.png")
			err := chart.New(opts).Show(chart.FromResult(exp2Result()))
			Expect(err).To(MatchError(chart.ErrNoDisplay))
		})

		It("should write the HTML view and launch the opener", func() {
			if runtime.GOOS != "linux" {
				Skip("display detection is environment based on linux only")
			}
			unsetDisplay()
			Expect(os.Setenv("DISPLAY", ":99")).To(Succeed())
			DeferCleanup(func() { _ = os.Unsetenv("DISPLAY") })

			opts := chart.DefaultOptions()
			opts.Output = filepath.Join(tempDir, "graph2.png")
			opts.Opener = "true"
			Expect(chart.New(opts).Publish(chart.FromResult(exp2Result()))).To(Succeed())

			Expect(opts.Output).To(BeARegularFile())
			Expect(opts.Output + ".html").To(BeARegularFile())
		})

		It("should not fail when the opener is missing", func() {
			if runtime.GOOS != "linux" {
				Skip("display detection is environment based on linux only")
			}
			unsetDisplay()
			Expect(os.Setenv("DISPLAY", ":99")).To(Succeed())
			DeferCleanup(func() { _ = os.Unsetenv("DISPLAY") })

			opts := chart.DefaultOptions()
			opts.Output = filepath.Join(tempDir, "graph2.png")
			opts.Opener = filepath.Join(tempDir, "no-such-opener")
			r := chart.New(opts)
			Expect(r.Show(chart.FromResult(exp2Result()))).To(MatchError(ContainSubstring("failed to launch")))
			Expect(r.Publish(chart.FromResult(exp2Result()))).To(Succeed())
		})
	})

	It("should format sizes compactly", func() {
		Expect(chart.SizeLabel(64)).To(Equal("64"))
		Expect(chart.SizeLabel(2048)).To(Equal("2K"))
		Expect(chart.SizeLabel(1 << 20)).To(Equal("1M"))
		Expect(chart.SizeLabel(1536)).To(Equal("1536"))
		Expect(chart.SizeLabel(0.125)).To(Equal("0.125"))
	})
})
