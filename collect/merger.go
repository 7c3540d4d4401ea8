package collect

import "github.com/sarchlab/cachehit/cache"

// Merger interleaves several thread stores into one stream, taking one line
// from each non-exhausted store per rotation. The interleaving is fair by
// volume; it does not reconstruct the order in which threads ran.
type Merger struct {
	stores    []*ThreadStore
	exhausted []bool
	remaining int
	cursor    int
}

// NewMerger creates a merger over the given stores. The stores must not be
// written while the merger is in use.
func NewMerger(stores []*ThreadStore) *Merger {
	return &Merger{
		stores:    stores,
		exhausted: make([]bool, len(stores)),
		remaining: len(stores),
	}
}

// Next returns the next merged line, or false once every store is
// exhausted. Exhausted stores are rewound for reuse.
func (m *Merger) Next() (cache.LineID, bool) {
	for m.remaining > 0 {
		idx := m.cursor
		m.advance()

		if m.exhausted[idx] {
			continue
		}

		line, ok := m.stores[idx].Next()
		if !ok {
			m.exhausted[idx] = true
			m.remaining--
			continue
		}

		return line, true
	}

	return 0, false
}

func (m *Merger) advance() {
	m.cursor++
	if m.cursor == len(m.stores) {
		m.cursor = 0
	}
}
