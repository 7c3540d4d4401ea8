// Package profiler wires the region registry, the address collector and the
// report together behind the entry points an instrumentation engine calls.
package profiler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/collect"
	"github.com/sarchlab/cachehit/config"
	"github.com/sarchlab/cachehit/report"
	"github.com/sarchlab/cachehit/sites"
)

// ErrTaskUnsupported is returned by the task annotation entry points.
var ErrTaskUnsupported = errors.New("task annotations are not supported")

// Profiler is the context object of one profiling run. Every entry point may
// be called from any goroutine, but region transitions from different
// threads must not overlap: only one region is active at a time.
type Profiler struct {
	cfg    *config.Config
	logger *log.Logger
	hooks  []sim.Hook

	registry  *sites.Registry
	collector *collect.Collector

	// all is the program-wide profile, nil unless RecordAll is set.
	all *cache.Profile

	noted atomic.Uint64
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithLogger sets the logger that reports discovered sites, activations and
// drains. Without it nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(p *Profiler) {
		p.logger = l
	}
}

// WithHook attaches a hook to both the region registry and the collector.
func WithHook(h sim.Hook) Option {
	return func(p *Profiler) {
		p.hooks = append(p.hooks, h)
	}
}

// New creates a Profiler for the given settings. The settings are copied.
func New(cfg *config.Config, opts ...Option) (*Profiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Profiler{cfg: cfg.Clone()}

	for _, opt := range opts {
		opt(p)
	}

	// The log hook is only attached for a real logger; merged lines are
	// reported to hooks only when some are attached.
	if p.logger != nil {
		lh := &logHook{logger: p.logger}
		p.hooks = append([]sim.Hook{lh}, p.hooks...)
	} else {
		p.logger = log.New(io.Discard, "", 0)
	}

	p.registry = sites.NewRegistry(p.cfg.Caches...)
	p.collector = collect.NewCollector(p,
		collect.WithGate(p),
		collect.WithStoreCapacity(p.cfg.StoreCapacity),
		collect.WithLineSize(p.cfg.LineSize),
	)

	if p.cfg.RecordAll {
		p.all = cache.NewProfile(p.cfg.Caches...)
	}

	for _, h := range p.hooks {
		p.registry.AcceptHook(h)
		p.collector.AcceptHook(h)
	}

	return p, nil
}

// Config returns the settings of the run.
func (p *Profiler) Config() *config.Config {
	return p.cfg
}

// Registry returns the region registry.
func (p *Profiler) Registry() *sites.Registry {
	return p.registry
}

// Collector returns the address collector.
func (p *Profiler) Collector() *collect.Collector {
	return p.collector
}

// ThreadStart creates the address store of a thread.
func (p *Profiler) ThreadStart(tid collect.ThreadID) error {
	p.logger.Printf("creating thread data for tid %d", tid)
	return p.collector.ThreadStart(tid)
}

// ThreadExit drains the thread's buffered accesses and destroys its store.
func (p *Profiler) ThreadExit(tid collect.ThreadID) error {
	p.logger.Printf("cleaning thread data for tid %d", tid)
	return p.collector.ThreadExit(tid)
}

// MemoryAccess records that thread tid touched [addr, addr+size).
func (p *Profiler) MemoryAccess(tid collect.ThreadID, addr uint64, size uint32) error {
	p.noted.Add(1)
	return p.collector.Access(tid, addr, size)
}

// RegionBegin activates the region of call site h. Accesses buffered so far
// are drained first so that none of them is attributed to the new region.
func (p *Profiler) RegionBegin(name string, h *sites.Handle) error {
	return p.collector.StopTheWorld(func() error {
		return p.registry.Start(name, h)
	})
}

// RegionEnd ends the region of call site h after draining the accesses
// buffered inside it.
func (p *Profiler) RegionEnd(h *sites.Handle) error {
	return p.collector.StopTheWorld(func() error {
		return p.registry.Stop(h)
	})
}

// TaskBegin always fails; task annotations are not supported.
func (p *Profiler) TaskBegin(name string) error {
	return fmt.Errorf("task %q: %w", name, ErrTaskUnsupported)
}

// TaskEnd always fails; task annotations are not supported.
func (p *Profiler) TaskEnd(name string) error {
	return fmt.Errorf("task %q: %w", name, ErrTaskUnsupported)
}

// Flush drains every thread store.
func (p *Profiler) Flush() error {
	return p.collector.Flush(collect.TriggerExplicit)
}

// Finish drains the remaining accesses and builds the site report.
func (p *Profiler) Finish() (report.SiteReport, error) {
	if err := p.Flush(); err != nil {
		return report.SiteReport{}, err
	}

	if cur := p.registry.Current(); cur != nil {
		p.logger.Printf("region %s still active at exit", cur.Name())
	}

	return report.FromRegistry(p.registry, p.all), nil
}

// Consume feeds one merged line into the active region and, with RecordAll,
// into the program-wide profile. It is called by the collector while every
// other thread is stopped.
func (p *Profiler) Consume(line cache.LineID) error {
	if p.all != nil {
		p.all.Insert(line)
		if !p.registry.Active() {
			return nil
		}
	}

	return p.registry.RecordMemoryAccess(line)
}

// Recording reports whether accesses are buffered at all.
func (p *Profiler) Recording() bool {
	return p.all != nil || p.registry.Active()
}

// Diagnostics holds best-effort counts of a run.
type Diagnostics struct {
	NotedAccesses uint64
	StoredLines   uint64
	MergedLines   uint64
	Flushes       uint64
}

// Diagnostics returns the counts recorded so far.
func (p *Profiler) Diagnostics() Diagnostics {
	c := p.collector.Counters()

	return Diagnostics{
		NotedAccesses: p.noted.Load(),
		StoredLines:   c.StoredLines,
		MergedLines:   c.MergedLines,
		Flushes:       c.Flushes,
	}
}

func (d Diagnostics) String() string {
	return fmt.Sprintf("noted %d, stored %d, merged %d, flushes %d",
		d.NotedAccesses, d.StoredLines, d.MergedLines, d.Flushes)
}
