// Package cache provides the simulated caches that hit ratios are measured
// against.
package cache

import (
	"fmt"
	"math/bits"
)

// LineID identifies a cache line: the address shifted right by the line size.
type LineID uint64

// Policy selects the replacement model used by a simulated configuration.
type Policy string

const (
	// PolicyMoveToFront is the linear move-to-front approximation of LRU.
	PolicyMoveToFront Policy = "mtf"
	// PolicyLRU is exact LRU bookkeeping using the Akita cache directory.
	PolicyLRU Policy = "lru"
)

const (
	// DefaultBlockSize is the cache line size in bytes.
	DefaultBlockSize = 64
	// DefaultAssociativity is the number of tag slots per column.
	DefaultAssociativity = 16
	// DefaultSize is the capacity of the default configuration.
	DefaultSize = 8 * MB
)

const (
	// KB is one kibibyte.
	KB = 1024
	// MB is one mebibyte.
	MB = 1024 * KB
)

// Config holds the geometry of one simulated cache configuration.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (depth of each column)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
	// Policy is the replacement model. Empty means move-to-front.
	Policy Policy `json:"policy,omitempty"`
}

// DefaultConfig returns the 8 MB, 16-way, 64 B configuration.
func DefaultConfig() Config {
	return Config{
		Size:          DefaultSize,
		Associativity: DefaultAssociativity,
		BlockSize:     DefaultBlockSize,
		Policy:        PolicyMoveToFront,
	}
}

// WithSize returns a copy of the default configuration with another size.
func WithSize(size int) Config {
	c := DefaultConfig()
	c.Size = size
	return c
}

// NumColumns returns the number of associative columns (sets).
func (c Config) NumColumns() int {
	if c.Associativity <= 0 || c.BlockSize <= 0 {
		return 0
	}
	return c.Size / (c.Associativity * c.BlockSize)
}

// LineSizeLog2 returns log2 of the block size.
func (c Config) LineSizeLog2() uint {
	return uint(bits.TrailingZeros(uint(c.BlockSize)))
}

// Validate checks that the geometry describes at least one column.
func (c Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block_size must be a power of two, got %d", c.BlockSize)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0, got %d", c.Associativity)
	}
	if c.NumColumns() == 0 {
		return fmt.Errorf("size %d is smaller than one column (%d bytes)",
			c.Size, c.Associativity*c.BlockSize)
	}
	switch c.Policy {
	case "", PolicyMoveToFront, PolicyLRU:
	default:
		return fmt.Errorf("unknown replacement policy %q", c.Policy)
	}
	return nil
}

// Label renders the size the way the site report header prints it: a bare
// number of megabytes when the size is a whole number of MB, otherwise the
// size with a unit suffix.
func (c Config) Label() string {
	switch {
	case c.Size >= MB && c.Size%MB == 0:
		return fmt.Sprintf("%d", c.Size/MB)
	case c.Size >= KB && c.Size%KB == 0:
		return fmt.Sprintf("%dKB", c.Size/KB)
	default:
		return fmt.Sprintf("%dB", c.Size)
	}
}

// Statistics holds the hit and miss counts of one configuration.
type Statistics struct {
	Hits   uint64
	Misses uint64
}

// Total returns the number of accesses.
func (s Statistics) Total() uint64 {
	return s.Hits + s.Misses
}

// HitRatio returns hits over total accesses. The result is NaN when no access
// was recorded; check Total first.
func (s Statistics) HitRatio() float64 {
	return float64(s.Hits) / float64(s.Total())
}

// MissRatio returns misses over total accesses, NaN when empty.
func (s Statistics) MissRatio() float64 {
	return float64(s.Misses) / float64(s.Total())
}

// Sub returns the counts accumulated since the earlier snapshot.
func (s Statistics) Sub(earlier Statistics) Statistics {
	return Statistics{
		Hits:   s.Hits - earlier.Hits,
		Misses: s.Misses - earlier.Misses,
	}
}

// Hash folds high line bits into the low ones so that strided lines do not
// all land in the same column.
func Hash(line LineID) uint64 {
	return uint64(line) ^ (uint64(line) >> 13)
}
