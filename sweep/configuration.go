package sweep

import (
	"fmt"

	"github.com/pkg/errors"
)

// Configuration is one concrete point of a sweep. It fully determines the
// simulator invocation and the name of the log file the run is captured in.
type Configuration struct {
	// Cores is the number of simulated cores (1, 2, 4).
	Cores int `json:"cores" yaml:"cores"`

	// Capacity is the log2 of the cache capacity in bytes.
	Capacity int `json:"capacity" yaml:"capacity"`

	// BlockSize is the log2 of the cache line size in bytes.
	BlockSize int `json:"block_size" yaml:"block_size"`

	// Assoc is the number of ways per set.
	Assoc int `json:"assoc" yaml:"assoc"`

	// Protocol is the coherence protocol tag.
	Protocol Protocol `json:"protocol" yaml:"protocol"`
}

// Value returns the configuration value along the given axis.
func (c Configuration) Value(a Axis) int {
	switch a {
	case AxisCores:
		return c.Cores
	case AxisCapacity:
		return c.Capacity
	case AxisBlockSize:
		return c.BlockSize
	case AxisAssoc:
		return c.Assoc
	}
	return 0
}

// With returns a copy of c with the given axis set to v.
func (c Configuration) With(a Axis, v int) Configuration {
	switch a {
	case AxisCores:
		c.Cores = v
	case AxisCapacity:
		c.Capacity = v
	case AxisBlockSize:
		c.BlockSize = v
	case AxisAssoc:
		c.Assoc = v
	}
	return c
}

// LogName returns the deterministic log file name of the configuration:
// <protocol>-<cores>-<capacity>-<blocksize>-<assoc>.out with two-digit
// zero-padded fields.
func (c Configuration) LogName() string {
	return fmt.Sprintf("%s-%02d-%02d-%02d-%02d.out",
		c.Protocol, c.Cores, c.Capacity, c.BlockSize, c.Assoc)
}

// TraceFile returns the name of the memory trace replayed for the core count.
func (c Configuration) TraceFile() string {
	return fmt.Sprintf("trace.%dt.long.txt", c.Cores)
}

// CapacityBytes returns the cache capacity in bytes.
func (c Configuration) CapacityBytes() int64 {
	return int64(1) << uint(c.Capacity)
}

// BlockBytes returns the cache line size in bytes.
func (c Configuration) BlockBytes() int64 {
	return int64(1) << uint(c.BlockSize)
}

// Sets returns the number of sets implied by the geometry, or 0 when the
// geometry is inconsistent.
func (c Configuration) Sets() int64 {
	if c.Assoc <= 0 || c.BlockSize > c.Capacity || !c.sizesInRange() {
		return 0
	}
	lines := c.CapacityBytes() / c.BlockBytes()
	if lines%int64(c.Assoc) != 0 {
		return 0
	}
	return lines / int64(c.Assoc)
}

// Validate checks that the geometry describes a buildable cache: the block
// fits in the cache and the associativity divides the number of lines.
func (c Configuration) Validate() error {
	if c.Cores <= 0 {
		return errors.Errorf("cores must be > 0, got %d", c.Cores)
	}
	if !c.Protocol.Valid() {
		return errors.Errorf("unknown protocol %q", c.Protocol)
	}
	if !c.sizesInRange() {
		return errors.Errorf("size exponents must be within [0, %d], got capacity 2^%d block 2^%d",
			MaxExponent, c.Capacity, c.BlockSize)
	}
	if c.BlockSize > c.Capacity {
		return errors.Errorf("block size 2^%d exceeds capacity 2^%d", c.BlockSize, c.Capacity)
	}
	if c.Sets() == 0 {
		return errors.Errorf("associativity %d does not divide %d lines",
			c.Assoc, c.CapacityBytes()/c.BlockBytes())
	}
	return nil
}

func (c Configuration) sizesInRange() bool {
	return c.Capacity >= 0 && c.Capacity <= MaxExponent &&
		c.BlockSize >= 0 && c.BlockSize <= MaxExponent
}

// String renders the configuration for log messages.
func (c Configuration) String() string {
	return fmt.Sprintf("protocol=%s cores=%d capacity=2^%d block=2^%d assoc=%d",
		c.Protocol, c.Cores, c.Capacity, c.BlockSize, c.Assoc)
}
