package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// LRUCounter counts hits and misses of a true-LRU cache with the same
// geometry and column hash as Counter. It uses the Akita cache directory for
// tag and recency management and serves as a reference for how far the
// move-to-front approximation drifts from exact LRU.
type LRUCounter struct {
	config Config

	// Akita cache directory for tag/LRU management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// NewLRUCounter creates an empty LRU counter.
func NewLRUCounter(config Config) *LRUCounter {
	numSets := config.NumColumns()
	if numSets == 0 {
		panic("cache: configuration has no columns")
	}

	return &LRUCounter{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the counter's configuration.
func (c *LRUCounter) Config() Config {
	return c.config
}

// Access records an access to line and reports whether it hit.
func (c *LRUCounter) Access(line LineID) bool {
	return c.AccessHashed(line, Hash(line))
}

// AccessHashed records an access using a precomputed column hash. The hash
// is a bijection on line ids, so the hashed block address doubles as the tag.
func (c *LRUCounter) AccessHashed(_ LineID, hashed uint64) bool {
	blockAddr := hashed << c.config.LineSizeLog2()

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return true
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return false
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return false
}

// ClearAddresses invalidates every block and keeps the counters.
func (c *LRUCounter) ClearAddresses() {
	c.directory.Reset()
}

// Clear invalidates every block and resets the counters.
func (c *LRUCounter) Clear() {
	c.ClearAddresses()
	c.stats = Statistics{}
}

// Stats returns the cumulative counters.
func (c *LRUCounter) Stats() Statistics {
	return c.stats
}
