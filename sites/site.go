// Package sites tracks annotated regions and routes memory accesses to the
// simulated caches of the region that is currently active.
package sites

import (
	"github.com/rs/xid"

	"github.com/sarchlab/cachehit/cache"
)

// Handle identifies one annotated call site. The Site measured for a call
// site is created on its first activation and memoized on the handle, so two
// call sites sharing a name still produce two Sites.
type Handle struct {
	site *Site
}

// NewHandle creates a handle for a call site.
func NewHandle() *Handle {
	return &Handle{}
}

// Site returns the Site bound to the handle, or nil before its first
// activation.
func (h *Handle) Site() *Site {
	return h.site
}

// Activation holds the counts recorded during one activation of a Site, one
// entry per cache configuration.
type Activation struct {
	Index int
	Stats []cache.Statistics
}

// Site is one annotated region and the caches measured for it.
type Site struct {
	name           string
	id             xid.ID
	profile        *cache.Profile
	executionCount uint32

	activations []Activation
	startStats  []cache.Statistics
}

func newSite(name string, configs []cache.Config) *Site {
	return &Site{
		name:    name,
		id:      xid.New(),
		profile: cache.NewProfile(configs...),
	}
}

// Name returns the display name of the region.
func (s *Site) Name() string {
	return s.name
}

// ID returns a process-unique identifier of the Site.
func (s *Site) ID() string {
	return s.id.String()
}

// Profile returns the simulated caches of the Site.
func (s *Site) Profile() *cache.Profile {
	return s.profile
}

// ExecutionCount returns how many times the region was activated.
func (s *Site) ExecutionCount() uint32 {
	return s.executionCount
}

// Activations returns the per-activation counts of completed activations.
func (s *Site) Activations() []Activation {
	return s.activations
}

// Insert records an access to a cache line.
func (s *Site) Insert(line cache.LineID) {
	s.profile.Insert(line)
}

func (s *Site) begin() {
	s.executionCount++
	s.startStats = s.profile.Stats()
}

func (s *Site) end() {
	now := s.profile.Stats()
	delta := make([]cache.Statistics, len(now))
	for i := range now {
		delta[i] = now[i].Sub(s.startStats[i])
	}

	s.activations = append(s.activations, Activation{
		Index: int(s.executionCount),
		Stats: delta,
	})

	s.profile.ClearAddresses()
}
