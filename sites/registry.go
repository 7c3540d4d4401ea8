package sites

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachehit/cache"
)

var (
	// ErrAnnotationMismatch is returned when a region end does not match the
	// active region. Nested regions are not supported.
	ErrAnnotationMismatch = errors.New("annotation mismatch")

	// ErrRegionActive is returned when a region begins while another one is
	// still active.
	ErrRegionActive = errors.New("region already active")

	// ErrNoActiveRegion is returned when an access is recorded while no
	// region is active.
	ErrNoActiveRegion = errors.New("no active region")
)

// HookPosSiteDiscovered triggers when a Site is created. Item is the *Site.
var HookPosSiteDiscovered = &sim.HookPos{Name: "SiteDiscovered"}

// HookPosRegionStart triggers after a region becomes active. Item is the
// *Site.
var HookPosRegionStart = &sim.HookPos{Name: "RegionStart"}

// HookPosRegionStop triggers after a region ends. Item is the *Site, Detail
// the Activation that just completed.
var HookPosRegionStop = &sim.HookPos{Name: "RegionStop"}

// Registry is the state machine of annotated regions. It is Inactive or
// Active with exactly one current Site.
//
// A Registry is not safe for concurrent use. Callers serialize region
// transitions against access recording; the collector does so by holding
// its drain permit exclusively.
type Registry struct {
	*sim.HookableBase

	configs []cache.Config

	active  bool
	current *Site
	sites   []*Site
}

// NewRegistry creates an inactive registry. Every Site measures the given
// cache configurations, DefaultConfig when none is given.
func NewRegistry(configs ...cache.Config) *Registry {
	if len(configs) == 0 {
		configs = []cache.Config{cache.DefaultConfig()}
	}

	return &Registry{
		HookableBase: sim.NewHookableBase(),
		configs:      configs,
	}
}

// CacheConfigs returns the configurations every Site measures.
func (r *Registry) CacheConfigs() []cache.Config {
	return r.configs
}

// Active reports whether a region is active.
func (r *Registry) Active() bool {
	return r.active
}

// Current returns the active Site, or nil when inactive.
func (r *Registry) Current() *Site {
	if !r.active {
		return nil
	}
	return r.current
}

// Sites returns every discovered Site in discovery order.
func (r *Registry) Sites() []*Site {
	return r.sites
}

// Start activates the region of the call site h, creating its Site on the
// first activation.
func (r *Registry) Start(name string, h *Handle) error {
	if h == nil {
		return fmt.Errorf("start %q: nil handle", name)
	}

	if r.active {
		return fmt.Errorf("start %q while %q is active: %w",
			name, r.current.name, ErrRegionActive)
	}

	site := h.site
	if site == nil {
		site = newSite(name, r.configs)
		h.site = site
		r.sites = append(r.sites, site)
		r.invoke(HookPosSiteDiscovered, site, nil)
	}

	r.current = site
	r.active = true
	site.begin()

	r.invoke(HookPosRegionStart, site, nil)

	return nil
}

// Stop ends the region of the call site h. The Site's caches are emptied so
// that the next activation starts cold; its counters stay cumulative.
func (r *Registry) Stop(h *Handle) error {
	if !r.active {
		return fmt.Errorf("stop without an active region: %w", ErrAnnotationMismatch)
	}

	if h == nil || h.site != r.current {
		return fmt.Errorf("stop does not match active region %q, "+
			"nested regions are not supported: %w",
			r.current.name, ErrAnnotationMismatch)
	}

	site := r.current
	r.active = false
	site.end()

	r.invoke(HookPosRegionStop, site, site.activations[len(site.activations)-1])

	return nil
}

// RecordMemoryAccess inserts a cache line into the active Site.
func (r *Registry) RecordMemoryAccess(line cache.LineID) error {
	if !r.active {
		return ErrNoActiveRegion
	}

	r.current.Insert(line)

	return nil
}

func (r *Registry) invoke(pos *sim.HookPos, site *Site, detail interface{}) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   site,
		Detail: detail,
	})
}
