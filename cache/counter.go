package cache

// Model is a simulated cache configuration that counts hits and misses.
type Model interface {
	// AccessHashed records an access to line whose column hash is hashed and
	// reports whether it hit.
	AccessHashed(line LineID, hashed uint64) bool
	// ClearAddresses empties the simulated cache but keeps the counters.
	ClearAddresses()
	// Clear empties the simulated cache and resets the counters.
	Clear()
	// Stats returns the cumulative counters.
	Stats() Statistics
	// Config returns the geometry.
	Config() Config
}

// NewModel creates the model selected by the configuration's policy.
func NewModel(config Config) Model {
	if config.Policy == PolicyLRU {
		return NewLRUCounter(config)
	}
	return NewCounter(config)
}

// Counter simulates one cache configuration with a move-to-front
// approximation of LRU inside each column.
//
// Each column keeps depth tag slots, slot 0 being the most recently used. An
// access carries the new line into slot 0 and pushes every slot one step
// back until the line itself is pushed out of a slot (a hit, the line is now
// at the front) or the last slot overflows (a miss, the overflowing tag is
// evicted). Only positions are tracked, never timestamps.
type Counter struct {
	config Config
	width  uint64
	depth  int

	// tags is the width x depth tag matrix, one column after another.
	// Zero marks an empty slot.
	tags []LineID

	stats Statistics
}

// NewCounter creates a counter with an empty tag matrix. The size must be a
// multiple of Associativity*BlockSize; otherwise the width is truncated.
func NewCounter(config Config) *Counter {
	width := config.NumColumns()
	if width == 0 {
		panic("cache: configuration has no columns")
	}

	return &Counter{
		config: config,
		width:  uint64(width),
		depth:  config.Associativity,
		tags:   make([]LineID, width*config.Associativity),
	}
}

// Config returns the counter's configuration.
func (c *Counter) Config() Config {
	return c.config
}

// Width returns the number of columns.
func (c *Counter) Width() int {
	return int(c.width)
}

// Access records an access to line and reports whether it hit.
func (c *Counter) Access(line LineID) bool {
	return c.AccessHashed(line, Hash(line))
}

// AccessHashed records an access using a precomputed column hash.
func (c *Counter) AccessHashed(line LineID, hashed uint64) bool {
	col := hashed % c.width
	slots := c.tags[col*uint64(c.depth) : (col+1)*uint64(c.depth)]

	carried := line
	for r := range slots {
		old := slots[r]
		slots[r] = carried
		if old == line {
			c.stats.Hits++
			return true
		}
		carried = old
	}

	c.stats.Misses++
	return false
}

// Clear empties the tag matrix and resets the counters.
func (c *Counter) Clear() {
	c.ClearAddresses()
	c.stats = Statistics{}
}

// ClearAddresses empties the tag matrix and keeps the counters, so that the
// next activation starts cold while hit ratios stay cumulative.
func (c *Counter) ClearAddresses() {
	clear(c.tags)
}

// Stats returns the cumulative counters.
func (c *Counter) Stats() Statistics {
	return c.stats
}

// Hits returns the number of hits.
func (c *Counter) Hits() uint64 {
	return c.stats.Hits
}

// Misses returns the number of misses.
func (c *Counter) Misses() uint64 {
	return c.stats.Misses
}

// TotalAccesses returns hits plus misses.
func (c *Counter) TotalAccesses() uint64 {
	return c.stats.Total()
}

// HitRatio returns hits over total accesses, NaN when there were none.
func (c *Counter) HitRatio() float64 {
	return c.stats.HitRatio()
}

// MissRatio returns misses over total accesses, NaN when there were none.
func (c *Counter) MissRatio() float64 {
	return c.stats.MissRatio()
}
