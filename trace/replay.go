package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachehit/collect"
	"github.com/sarchlab/cachehit/queue"
	"github.com/sarchlab/cachehit/sites"
)

// Target receives replayed events. *profiler.Profiler implements it.
type Target interface {
	ThreadStart(tid collect.ThreadID) error
	ThreadExit(tid collect.ThreadID) error
	MemoryAccess(tid collect.ThreadID, addr uint64, size uint32) error
	RegionBegin(name string, h *sites.Handle) error
	RegionEnd(h *sites.Handle) error
	TaskBegin(name string) error
	TaskEnd(name string) error
}

// DefaultQueueDepth is the number of events staged between the parser and
// the dispatcher, and between the dispatcher and every thread worker.
const DefaultQueueDepth = 4096

// Options configures Replay.
type Options struct {
	// Parallel replays the accesses of every thread on its own goroutine.
	// Accesses of different threads then reach the target concurrently;
	// control events still see every earlier event completed.
	Parallel bool

	// QueueDepth overrides DefaultQueueDepth.
	QueueDepth int
}

// Stats counts the replayed events.
type Stats struct {
	Events   uint64
	Accesses uint64
	Regions  uint64
	Threads  uint64
}

// Replay parses the trace from r and applies every event to target. It stops
// at the first error, which is returned wrapped with the event's trace line.
func Replay(ctx context.Context, r io.Reader, target Target, opts Options) (Stats, error) {
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	g, ctx := errgroup.WithContext(ctx)
	events := queue.NewBounded[Event](depth)

	g.Go(func() error {
		defer events.Close()

		reader := NewReader(r)
		for {
			ev, err := reader.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if !events.Push(ev) {
				return nil
			}
		}
	})

	rp := &replayer{
		target:  target,
		depth:   depth,
		handles: make(map[string]*sites.Handle),
		workers: make(map[collect.ThreadID]*worker),
		group:   g,
	}

	g.Go(func() error {
		defer events.Close()
		defer rp.closeWorkers()

		for {
			ev, ok := events.Pop()
			if !ok {
				rp.barrier()
				return rp.failure()
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			var err error
			if opts.Parallel {
				err = rp.dispatch(ev)
			} else {
				err = rp.apply(ev)
			}
			if err != nil {
				rp.fail(err)
				return err
			}
		}
	})

	err := g.Wait()

	return rp.stats(), err
}

type worker struct {
	queue *queue.Bounded[Event]
}

type replayer struct {
	target Target
	depth  int
	group  *errgroup.Group

	handles map[string]*sites.Handle
	workers map[collect.ThreadID]*worker

	pending sync.WaitGroup
	failed  atomic.Pointer[error]

	events   atomic.Uint64
	accesses atomic.Uint64
	regions  atomic.Uint64
	threads  atomic.Uint64
}

func (rp *replayer) stats() Stats {
	return Stats{
		Events:   rp.events.Load(),
		Accesses: rp.accesses.Load(),
		Regions:  rp.regions.Load(),
		Threads:  rp.threads.Load(),
	}
}

func (rp *replayer) fail(err error) {
	rp.failed.CompareAndSwap(nil, &err)
}

func (rp *replayer) failure() error {
	if p := rp.failed.Load(); p != nil {
		return *p
	}
	return nil
}

// dispatch hands accesses to the worker of their thread and applies control
// events after every queued access completed.
func (rp *replayer) dispatch(ev Event) error {
	if err := rp.failure(); err != nil {
		return err
	}

	if ev.Kind == KindAccess {
		if w, ok := rp.workers[ev.Thread]; ok {
			rp.pending.Add(1)
			w.queue.Push(ev)
			return nil
		}
	}

	rp.barrier()
	if err := rp.failure(); err != nil {
		return err
	}

	if ev.Kind == KindThreadExit {
		if w, ok := rp.workers[ev.Thread]; ok {
			w.queue.Close()
			delete(rp.workers, ev.Thread)
		}
	}

	if err := rp.apply(ev); err != nil {
		return err
	}

	if ev.Kind == KindThreadStart {
		rp.startWorker(ev.Thread)
	}

	return nil
}

func (rp *replayer) startWorker(tid collect.ThreadID) {
	w := &worker{queue: queue.NewBounded[Event](rp.depth)}
	rp.workers[tid] = w

	rp.group.Go(func() error {
		for {
			ev, ok := w.queue.Pop()
			if !ok {
				return nil
			}

			if rp.failure() == nil {
				if err := rp.apply(ev); err != nil {
					rp.fail(err)
				}
			}

			rp.pending.Done()
		}
	})
}

// barrier waits until every dispatched access has been applied.
func (rp *replayer) barrier() {
	rp.pending.Wait()
}

func (rp *replayer) closeWorkers() {
	for tid, w := range rp.workers {
		w.queue.Close()
		delete(rp.workers, tid)
	}
}

func (rp *replayer) apply(ev Event) error {
	rp.events.Add(1)

	var err error

	switch ev.Kind {
	case KindThreadStart:
		rp.threads.Add(1)
		err = rp.target.ThreadStart(ev.Thread)
	case KindThreadExit:
		err = rp.target.ThreadExit(ev.Thread)
	case KindAccess:
		rp.accesses.Add(1)
		err = rp.target.MemoryAccess(ev.Thread, ev.Addr, ev.Size)
	case KindBegin:
		rp.regions.Add(1)
		err = rp.target.RegionBegin(ev.Name, rp.handle(ev.Handle))
	case KindEnd:
		err = rp.target.RegionEnd(rp.handle(ev.Handle))
	case KindTaskBegin:
		err = rp.target.TaskBegin(ev.Name)
	case KindTaskEnd:
		err = rp.target.TaskEnd(ev.Name)
	}

	if err != nil {
		return fmt.Errorf("trace line %d (%s): %w", ev.Line, ev, err)
	}

	return nil
}

// handle is only called by the dispatcher.
func (rp *replayer) handle(token string) *sites.Handle {
	h, ok := rp.handles[token]
	if !ok {
		h = sites.NewHandle()
		rp.handles[token] = h
	}
	return h
}
