// Package sweep defines the immutable experiment descriptions that drive a
// cache-simulator parameter sweep.
//
// An Experiment names the value range of every configuration axis, which
// axes identify a plotted series and which axis provides the x positions.
// Experiments are plain data: the built-in ones live in Builtin and more can
// be loaded from YAML or JSON files with LoadExperiments.
package sweep

import (
	"github.com/pkg/errors"
)

// Axis names one configuration axis of the simulated cache system.
type Axis string

// MaxExponent is the largest power-of-two exponent a size axis may hold.
const MaxExponent = 62

// Supported axes. Capacity and block size are power-of-two exponents.
const (
	AxisCores     Axis = "cores"
	AxisCapacity  Axis = "capacity"
	AxisBlockSize Axis = "block_size"
	AxisAssoc     Axis = "assoc"
)

// Axes lists every axis in the order used by log file names.
var Axes = []Axis{AxisCores, AxisCapacity, AxisBlockSize, AxisAssoc}

// Valid reports whether a is one of the supported axes.
func (a Axis) Valid() bool {
	for _, known := range Axes {
		if a == known {
			return true
		}
	}
	return false
}

// Exponent reports whether values on this axis are power-of-two exponents.
func (a Axis) Exponent() bool {
	return a == AxisCapacity || a == AxisBlockSize
}

// Protocol is the coherence protocol tag passed to the simulator.
type Protocol string

// Coherence protocols understood by the simulator.
const (
	ProtocolNone Protocol = "none"
	ProtocolVI   Protocol = "vi"
	ProtocolMSI  Protocol = "msi"
)

// Valid reports whether p is a known protocol tag.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolNone, ProtocolVI, ProtocolMSI:
		return true
	}
	return false
}

// Dimension is the ordered list of values swept along one axis.
type Dimension struct {
	Axis   Axis
	Values []int
}

// Range returns the inclusive integer range [lo, hi].
func Range(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	values := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		values = append(values, v)
	}
	return values
}

// Len returns the number of values in the dimension.
func (d Dimension) Len() int {
	return len(d.Values)
}

// Validate checks that the dimension has at least one value, that every
// value is a positive integer and that exponents stay within MaxExponent.
func (d Dimension) Validate() error {
	if len(d.Values) == 0 {
		return errors.Errorf("dimension %s has no values", d.Axis)
	}
	for _, v := range d.Values {
		if v <= 0 {
			return errors.Errorf("dimension %s has non-positive value %d", d.Axis, v)
		}
		if d.Axis.Exponent() && v > MaxExponent {
			return errors.Errorf("dimension %s exponent %d exceeds %d", d.Axis, v, MaxExponent)
		}
	}
	return nil
}
