package chart

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesweep/sweep"
)

var _ = Describe("Axis scales", func() {
	It("should keep explicit scales", func() {
		Expect(resolve(sweep.ScaleLinear, []float64{1, 1 << 20}, "x")).To(Equal(sweep.ScaleLinear))
		Expect(resolve(sweep.ScaleLog2, []float64{1, 2}, "x")).To(Equal(sweep.ScaleLog2))
	})

	It("should fall back to linear when a log axis has no positive value", func() {
		Expect(resolve(sweep.ScaleLog2, []float64{0, 0}, "y")).To(Equal(sweep.ScaleLinear))
	})

	It("should pick log2 automatically for a wide positive range", func() {
		Expect(resolve(sweep.ScaleAuto, []float64{2, 32}, "y")).To(Equal(sweep.ScaleLog2))
		Expect(resolve("", []float64{2048, 1 << 20}, "x")).To(Equal(sweep.ScaleLog2))
		Expect(resolve(sweep.ScaleAuto, []float64{2, 31}, "y")).To(Equal(sweep.ScaleLinear))
		Expect(resolve(sweep.ScaleAuto, []float64{0, 1, 1024}, "y")).To(Equal(sweep.ScaleLinear))
	})

	It("should bound log axes by enclosing powers of two", func() {
		lo, hi := powerBounds([]float64{3, 1000})
		Expect(lo).To(Equal(2.0))
		Expect(hi).To(Equal(1024.0))

		lo, hi = powerBounds([]float64{64})
		Expect(lo).To(Equal(64.0))
		Expect(hi).To(Equal(128.0))
	})

	It("should place a tick on every power of two", func() {
		ticks := powerOfTwoTicks(2048, 1<<20)
		Expect(ticks).To(HaveLen(10))
		Expect(ticks[0].Value).To(Equal(2048.0))
		Expect(ticks[0].Label).To(Equal("2K"))
		Expect(ticks[9].Label).To(Equal("1M"))
	})

	It("should thin labels on wide ranges", func() {
		ticks := powerOfTwoTicks(1, 1<<30)
		labelled := 0
		for _, t := range ticks {
			if t.Label != "" {
				labelled++
			}
		}
		Expect(ticks).To(HaveLen(31))
		Expect(labelled).To(BeNumerically("<=", 13))
	})
})
