package chart

import (
	"math"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"

	"github.com/sarchlab/cachesweep/sweep"
)

// autoLogRatio is the max/min ratio from which auto scaling picks log2.
const autoLogRatio = 16

// resolve turns a configured scale into log2 or linear for the given data.
// An explicit log2 scale is kept as long as some value is positive.
func resolve(scale sweep.Scale, values []float64, axis string) sweep.Scale {
	positive := positives(values)

	switch scale {
	case sweep.ScaleLinear:
		return sweep.ScaleLinear
	case sweep.ScaleLog2:
		if len(positive) == 0 {
			log.WithField("axis", axis).Warn("no positive values, using a linear axis")
			return sweep.ScaleLinear
		}
		return sweep.ScaleLog2
	}

	if len(positive) == 0 || len(positive) != len(values) {
		return sweep.ScaleLinear
	}
	if floats.Max(positive)/floats.Min(positive) >= autoLogRatio {
		return sweep.ScaleLog2
	}
	return sweep.ScaleLinear
}

func positives(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// powerBounds returns the enclosing powers of two of the positive values.
func powerBounds(values []float64) (lo, hi float64) {
	positive := positives(values)
	if len(positive) == 0 {
		return 1, 2
	}
	lo = math.Exp2(math.Floor(math.Log2(floats.Min(positive))))
	hi = math.Exp2(math.Ceil(math.Log2(floats.Max(positive))))
	if hi <= lo {
		hi = lo * 2
	}
	return lo, hi
}

// powerOfTwoTicks places a labelled tick on every power of two in range,
// thinning the labels when there are many.
func powerOfTwoTicks(min, max float64) []plot.Tick {
	if min <= 0 || max < min {
		return plot.LogTicks{}.Ticks(math.Max(min, 1), math.Max(max, 2))
	}

	first := int(math.Floor(math.Log2(min)))
	last := int(math.Ceil(math.Log2(max)))
	step := 1
	for (last-first)/step > 12 {
		step *= 2
	}

	var ticks []plot.Tick
	for e := first; e <= last; e++ {
		t := plot.Tick{Value: math.Exp2(float64(e))}
		if (e-first)%step == 0 {
			t.Label = SizeLabel(t.Value)
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// SizeLabel formats a power-of-two byte count compactly: 512, 2K, 64K, 1M.
// Other values are formatted with %g.
func SizeLabel(v float64) string {
	units := []string{"", "K", "M", "G", "T"}
	for i := len(units) - 1; i > 0; i-- {
		div := math.Exp2(float64(10 * i))
		if v >= div && math.Mod(v, div) == 0 {
			return strconv.FormatFloat(v/div, 'f', -1, 64) + units[i]
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
