package collect

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachehit/cache"
)

var (
	// ErrUnknownThread is returned for an access or exit of a thread whose
	// store does not exist.
	ErrUnknownThread = errors.New("thread has no address store")

	// ErrThreadExists is returned when a thread starts twice.
	ErrThreadExists = errors.New("thread already has an address store")
)

// ThreadID identifies an application thread.
type ThreadID uint32

// Sink consumes merged cache lines.
type Sink interface {
	Consume(line cache.LineID) error
}

// Gate decides whether accesses are recorded at all.
type Gate interface {
	Recording() bool
}

// FlushTrigger names the event that caused a drain.
type FlushTrigger string

// Flush triggers.
const (
	TriggerStoreFull  FlushTrigger = "store-full"
	TriggerBoundary   FlushTrigger = "boundary"
	TriggerThreadExit FlushTrigger = "thread-exit"
	TriggerExplicit   FlushTrigger = "explicit"
)

// FlushInfo describes one completed drain.
type FlushInfo struct {
	Trigger FlushTrigger
	Stores  int
	Lines   uint64
}

// HookPosFlush triggers after every drain. Item is a FlushInfo.
var HookPosFlush = &sim.HookPos{Name: "Flush"}

// HookPosLineMerged triggers for every line the merger yields, before the
// sink consumes it. Item is the cache.LineID.
var HookPosLineMerged = &sim.HookPos{Name: "LineMerged"}

type threadEntry struct {
	tid   ThreadID
	store *ThreadStore
}

// Collector owns the thread stores and the drain permit that serializes
// merging against the threads filling the stores.
//
// Recording an access takes the permit shared: any number of threads append
// to their own stores concurrently. Draining takes the permit exclusively,
// which waits for every in-flight access and holds all other threads off
// until the merged lines are consumed. Every drain is therefore a full
// stop-the-world pause; it happens whenever one store fills up and at every
// region boundary, so throughput degrades with thread count and with
// boundary frequency.
//
// The thread table has its own lock. Lock order is permit, then table.
type Collector struct {
	*sim.HookableBase

	permit sync.RWMutex

	threadsMu sync.RWMutex
	threads   map[ThreadID]*ThreadStore
	order     []threadEntry

	sink Sink
	gate Gate

	capacity     int
	lineSizeLog2 uint

	storedLines atomic.Uint64
	mergedLines atomic.Uint64
	flushes     atomic.Uint64
}

// Option configures a Collector.
type Option func(*Collector)

// WithStoreCapacity sets the number of slots of every thread store.
func WithStoreCapacity(capacity int) Option {
	return func(c *Collector) {
		c.capacity = capacity
	}
}

// WithLineSize sets the cache line size in bytes. It must be a power of two.
func WithLineSize(bytes int) Option {
	return func(c *Collector) {
		c.lineSizeLog2 = cache.Config{BlockSize: bytes}.LineSizeLog2()
	}
}

// WithGate sets the gate consulted before every access. Without a gate
// every access is recorded.
func WithGate(g Gate) Option {
	return func(c *Collector) {
		c.gate = g
	}
}

// NewCollector creates a collector that feeds merged lines into sink.
func NewCollector(sink Sink, opts ...Option) *Collector {
	c := &Collector{
		HookableBase: sim.NewHookableBase(),
		threads:      make(map[ThreadID]*ThreadStore),
		sink:         sink,
		capacity:     DefaultStoreCapacity,
		lineSizeLog2: 6,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ThreadStart creates the store of a thread.
func (c *Collector) ThreadStart(tid ThreadID) error {
	c.threadsMu.Lock()
	defer c.threadsMu.Unlock()

	if _, ok := c.threads[tid]; ok {
		return fmt.Errorf("thread %d: %w", tid, ErrThreadExists)
	}

	store := newThreadStore(c.capacity, c.lineSizeLog2)
	c.threads[tid] = store
	c.order = append(c.order, threadEntry{tid: tid, store: store})

	return nil
}

// ThreadExit drains every store, so that nothing the thread buffered is
// lost, and then destroys the thread's store.
func (c *Collector) ThreadExit(tid ThreadID) error {
	c.permit.Lock()
	defer c.permit.Unlock()

	if c.lookup(tid) == nil {
		return fmt.Errorf("exit of thread %d: %w", tid, ErrUnknownThread)
	}

	err := c.drainLocked(TriggerThreadExit)

	c.threadsMu.Lock()
	delete(c.threads, tid)
	for i, e := range c.order {
		if e.tid == tid {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.threadsMu.Unlock()

	return err
}

// Threads returns the number of live thread stores.
func (c *Collector) Threads() int {
	c.threadsMu.RLock()
	defer c.threadsMu.RUnlock()

	return len(c.order)
}

// Access records the cache lines touched by [addr, addr+size) on thread tid.
// Large ranges are stored in chunks; whenever the thread's store is nearly
// full, all stores are drained before the access continues.
func (c *Collector) Access(tid ThreadID, addr uint64, size uint32) error {
	end := addr + uint64(size)
	if end < addr {
		return fmt.Errorf("%d bytes at 0x%x: %w", size, addr, ErrAddressWrap)
	}

	for start := addr; start < end; {
		chunkEnd := ((start >> c.lineSizeLog2) + StorePadding) << c.lineSizeLog2
		if chunkEnd > end || chunkEnd <= start {
			chunkEnd = end
		}

		full, err := c.store(tid, start, uint32(chunkEnd-start))
		if err != nil {
			return err
		}

		if full {
			if err := c.Flush(TriggerStoreFull); err != nil {
				return err
			}
		}

		start = chunkEnd
	}

	return nil
}

func (c *Collector) store(tid ThreadID, addr uint64, size uint32) (bool, error) {
	c.permit.RLock()
	defer c.permit.RUnlock()

	if c.gate != nil && !c.gate.Recording() {
		return false, nil
	}

	store := c.lookup(tid)
	if store == nil {
		return false, fmt.Errorf("access by thread %d: %w", tid, ErrUnknownThread)
	}

	before := store.count
	full, err := store.StoreAddress(addr, size)
	c.storedLines.Add(uint64(store.count - before))

	return full, err
}

func (c *Collector) lookup(tid ThreadID) *ThreadStore {
	c.threadsMu.RLock()
	defer c.threadsMu.RUnlock()

	return c.threads[tid]
}

// Flush drains every store into the sink.
func (c *Collector) Flush(trigger FlushTrigger) error {
	c.permit.Lock()
	defer c.permit.Unlock()

	return c.drainLocked(trigger)
}

// StopTheWorld drains every store and then runs fn while still holding the
// drain permit, so that no access is recorded until fn returns. fn must not
// call back into the collector.
func (c *Collector) StopTheWorld(fn func() error) error {
	c.permit.Lock()
	defer c.permit.Unlock()

	if err := c.drainLocked(TriggerBoundary); err != nil {
		return err
	}

	return fn()
}

func (c *Collector) drainLocked(trigger FlushTrigger) error {
	c.threadsMu.RLock()
	stores := make([]*ThreadStore, len(c.order))
	for i, e := range c.order {
		stores[i] = e.store
	}
	c.threadsMu.RUnlock()

	traced := c.NumHooks() > 0
	merger := NewMerger(stores)

	var (
		lines    uint64
		firstErr error
	)

	for {
		line, ok := merger.Next()
		if !ok {
			break
		}
		lines++

		// After a failure the remaining lines are discarded so that every
		// store still ends up rewound.
		if firstErr != nil {
			continue
		}

		if traced {
			c.InvokeHook(sim.HookCtx{Domain: c, Pos: HookPosLineMerged, Item: line})
		}

		if err := c.sink.Consume(line); err != nil {
			firstErr = fmt.Errorf("consume line 0x%x: %w", uint64(line), err)
		}
	}

	c.mergedLines.Add(lines)
	c.flushes.Add(1)

	if traced {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosFlush,
			Item:   FlushInfo{Trigger: trigger, Stores: len(stores), Lines: lines},
		})
	}

	return firstErr
}

// Counters holds diagnostic counts of a collector.
type Counters struct {
	StoredLines uint64
	MergedLines uint64
	Flushes     uint64
}

// Counters returns the diagnostic counts.
func (c *Collector) Counters() Counters {
	return Counters{
		StoredLines: c.storedLines.Load(),
		MergedLines: c.mergedLines.Load(),
		Flushes:     c.flushes.Load(),
	}
}
