// Package benchmarks runs synthetic access patterns through the profiler and
// reports the hit ratios they reach.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/collect"
	"github.com/sarchlab/cachehit/config"
	"github.com/sarchlab/cachehit/profiler"
	"github.com/sarchlab/cachehit/sites"
)

// AccessFunc records one memory access of the running thread.
type AccessFunc func(addr uint64, size uint32) error

// Benchmark defines a single synthetic workload.
type Benchmark struct {
	// Name identifies the benchmark and names its region
	Name string

	// Description explains the access pattern
	Description string

	// Threads is the number of threads issuing accesses (default: 1)
	Threads int

	// Run issues the accesses of thread tid.
	Run func(tid collect.ThreadID, access AccessFunc) error
}

// BenchmarkResult holds the measured outcome of one benchmark.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains the access pattern
	Description string `json:"description"`

	// Accesses is the number of cache lines the region recorded
	Accesses uint64 `json:"accesses"`

	// Caches lists the measured configurations
	Caches []string `json:"caches"`

	// HitRatios holds one ratio per configuration
	HitRatios []float64 `json:"hit_ratios"`

	// Flushes is the number of collector drains
	Flushes uint64 `json:"flushes"`

	// WallTime is the time taken to run the workload through the profiler
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Caches lists the configurations every benchmark is measured against
	Caches []cache.Config

	// StoreCapacity overrides the thread store size (0: default)
	StoreCapacity int

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables per-benchmark progress output
	Verbose bool
}

// DefaultConfig returns a default harness configuration measuring a 256 KB,
// a 2 MB and an 8 MB cache.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Caches: []cache.Config{
			cache.WithSize(256 * cache.KB),
			cache.WithSize(2 * cache.MB),
			cache.WithSize(8 * cache.MB),
		},
		Output: os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if len(config.Caches) == 0 {
		config.Caches = DefaultConfig().Caches
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. It stops at the first
// failing benchmark.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "ran %s in %v\n", bench.Name, result.WallTime)
		}
	}

	return results, nil
}

// runBenchmark executes a single benchmark on a fresh profiler. The whole
// workload runs inside one region named after the benchmark.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	cfg := config.DefaultConfig()
	cfg.Caches = h.config.Caches
	if h.config.StoreCapacity > 0 {
		cfg.StoreCapacity = h.config.StoreCapacity
	}

	p, err := profiler.New(cfg)
	if err != nil {
		return BenchmarkResult{}, err
	}

	threads := bench.Threads
	if threads <= 0 {
		threads = 1
	}

	for t := 1; t <= threads; t++ {
		if err := p.ThreadStart(collect.ThreadID(t)); err != nil {
			return BenchmarkResult{}, err
		}
	}

	start := time.Now()

	handle := sites.NewHandle()
	if err := p.RegionBegin(bench.Name, handle); err != nil {
		return BenchmarkResult{}, err
	}

	var g errgroup.Group
	for t := 1; t <= threads; t++ {
		tid := collect.ThreadID(t)
		g.Go(func() error {
			return bench.Run(tid, func(addr uint64, size uint32) error {
				return p.MemoryAccess(tid, addr, size)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return BenchmarkResult{}, err
	}

	if err := p.RegionEnd(handle); err != nil {
		return BenchmarkResult{}, err
	}

	for t := 1; t <= threads; t++ {
		if err := p.ThreadExit(collect.ThreadID(t)); err != nil {
			return BenchmarkResult{}, err
		}
	}

	rep, err := p.Finish()
	if err != nil {
		return BenchmarkResult{}, err
	}
	wallTime := time.Since(start)

	row, _ := rep.Row(bench.Name)

	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Accesses:    row.Total(),
		HitRatios:   row.HitRatios(),
		Flushes:     p.Diagnostics().Flushes,
		WallTime:    wallTime,
	}
	for _, c := range rep.Configs {
		result.Caches = append(result.Caches, c.Label())
	}

	return result, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Cache Hit Ratio Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Accesses:    %d\n", r.Accesses)
		_, _ = fmt.Fprintf(h.config.Output, "  Flushes:     %d\n", r.Flushes)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Hit Ratio ---")
		for i, label := range r.Caches {
			_, _ = fmt.Fprintf(h.config.Output, "  %-8s %.4f\n", label, r.HitRatios[i])
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	labels := make([]string, len(h.config.Caches))
	for i, c := range h.config.Caches {
		labels[i] = "hit_" + c.Label()
	}
	_, _ = fmt.Fprintf(h.config.Output, "name,accesses,%s,flushes\n", strings.Join(labels, ","))

	for _, r := range results {
		ratios := make([]string, len(r.HitRatios))
		for i, ratio := range r.HitRatios {
			ratios[i] = fmt.Sprintf("%.4f", ratio)
		}
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%s,%d\n",
			r.Name, r.Accesses, strings.Join(ratios, ","), r.Flushes)
	}
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
