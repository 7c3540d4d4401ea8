package collect_test

import (
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/collect"
)

type lineSink struct {
	lines []cache.LineID
	err   error
}

func (s *lineSink) Consume(line cache.LineID) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

type switchGate struct {
	on atomic.Bool
}

func (g *switchGate) Recording() bool {
	return g.on.Load()
}

type flushHook struct {
	mu      sync.Mutex
	flushes []collect.FlushInfo
	merged  int
}

func (h *flushHook) Func(ctx sim.HookCtx) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch ctx.Pos {
	case collect.HookPosFlush:
		h.flushes = append(h.flushes, ctx.Item.(collect.FlushInfo))
	case collect.HookPosLineMerged:
		h.merged++
	}
}

var _ = Describe("Collector", func() {
	var (
		sink *lineSink
		c    *collect.Collector
	)

	BeforeEach(func() {
		sink = &lineSink{}
		c = collect.NewCollector(sink, collect.WithStoreCapacity(128))
	})

	Describe("thread lifecycle", func() {
		It("should reject accesses of unknown threads", func() {
			err := c.Access(3, 0x1000, 8)

			Expect(err).To(MatchError(collect.ErrUnknownThread))
		})

		It("should reject starting a thread twice", func() {
			Expect(c.ThreadStart(1)).To(Succeed())

			Expect(c.ThreadStart(1)).To(MatchError(collect.ErrThreadExists))
		})

		It("should reject the exit of an unknown thread", func() {
			Expect(c.ThreadExit(9)).To(MatchError(collect.ErrUnknownThread))
		})

		It("should drain a thread's lines when it exits", func() {
			Expect(c.ThreadStart(1)).To(Succeed())
			Expect(c.Access(1, 0x1000, 8)).To(Succeed())

			Expect(c.ThreadExit(1)).To(Succeed())

			Expect(sink.lines).To(Equal([]cache.LineID{0x40}))
			Expect(c.Threads()).To(BeZero())
			Expect(c.Access(1, 0x1000, 8)).To(MatchError(collect.ErrUnknownThread))
		})
	})

	Describe("Access", func() {
		BeforeEach(func() {
			Expect(c.ThreadStart(1)).To(Succeed())
			Expect(c.ThreadStart(2)).To(Succeed())
		})

		It("should buffer lines until flushed", func() {
			Expect(c.Access(1, 0x1000, 8)).To(Succeed())
			Expect(sink.lines).To(BeEmpty())

			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())

			Expect(sink.lines).To(Equal([]cache.LineID{0x40}))
		})

		It("should merge threads round-robin on flush", func() {
			Expect(c.Access(1, 0x1000, 1)).To(Succeed())
			Expect(c.Access(1, 0x2000, 1)).To(Succeed())
			Expect(c.Access(2, 0x3000, 1)).To(Succeed())

			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())

			Expect(sink.lines).To(Equal([]cache.LineID{0x40, 0xC0, 0x80}))
		})

		It("should flush when a store is nearly full", func() {
			// capacity 128, padding 64: the 64th line fills the store
			for i := 1; i <= 63; i++ {
				Expect(c.Access(1, uint64(i)<<6, 1)).To(Succeed())
			}
			Expect(sink.lines).To(BeEmpty())

			Expect(c.Access(1, 64<<6, 1)).To(Succeed())

			Expect(sink.lines).To(HaveLen(64))
			Expect(c.Counters().Flushes).To(Equal(uint64(1)))
		})

		It("should split ranges larger than a store", func() {
			// 300 lines through a 128-slot store
			Expect(c.Access(1, 0x10000, 300*64)).To(Succeed())
			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())

			Expect(sink.lines).To(HaveLen(300))
			for i, l := range sink.lines {
				Expect(l).To(Equal(cache.LineID(0x400 + i)))
			}
		})

		It("should propagate reserved line errors", func() {
			Expect(c.Access(1, 0x8, 4)).To(MatchError(collect.ErrReservedLine))
		})

		It("should reject a range that wraps the address space", func() {
			err := c.Access(1, 0xFFFFFFFFFFFFFFC0, 128)

			Expect(err).To(MatchError(collect.ErrAddressWrap))
			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())
			Expect(sink.lines).To(BeEmpty())
		})

		It("should propagate sink errors", func() {
			sink.err = errors.New("boom")
			Expect(c.Access(1, 0x1000, 1)).To(Succeed())

			err := c.Flush(collect.TriggerExplicit)

			Expect(err).To(MatchError(ContainSubstring("boom")))
		})

		It("should rewind every store after a sink error", func() {
			sink.err = errors.New("boom")
			Expect(c.Access(1, 0x1000, 1)).To(Succeed())
			Expect(c.Access(2, 0x2000, 1)).To(Succeed())
			Expect(c.Flush(collect.TriggerExplicit)).NotTo(Succeed())

			sink.err = nil
			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())

			Expect(sink.lines).To(BeEmpty())
		})
	})

	Describe("gate", func() {
		It("should drop accesses while the gate is closed", func() {
			gate := &switchGate{}
			c = collect.NewCollector(sink, collect.WithGate(gate))
			Expect(c.ThreadStart(1)).To(Succeed())

			Expect(c.Access(1, 0x1000, 1)).To(Succeed())
			gate.on.Store(true)
			Expect(c.Access(1, 0x2000, 1)).To(Succeed())
			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())

			Expect(sink.lines).To(Equal([]cache.LineID{0x80}))
		})

		It("should not check threads while the gate is closed", func() {
			c = collect.NewCollector(sink, collect.WithGate(&switchGate{}))

			Expect(c.Access(7, 0x1000, 1)).To(Succeed())
		})
	})

	Describe("StopTheWorld", func() {
		It("should drain before running the function", func() {
			Expect(c.ThreadStart(1)).To(Succeed())
			Expect(c.Access(1, 0x1000, 1)).To(Succeed())

			var seen int
			err := c.StopTheWorld(func() error {
				seen = len(sink.lines)
				return nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(1))
		})

		It("should return the function's error", func() {
			boom := errors.New("boom")

			Expect(c.StopTheWorld(func() error { return boom })).To(MatchError(boom))
		})
	})

	Describe("hooks", func() {
		It("should report flushes and merged lines", func() {
			hook := &flushHook{}
			c.AcceptHook(hook)
			Expect(c.ThreadStart(1)).To(Succeed())
			Expect(c.Access(1, 0x1000, 128)).To(Succeed())

			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())

			Expect(hook.merged).To(Equal(2))
			Expect(hook.flushes).To(Equal([]collect.FlushInfo{
				{Trigger: collect.TriggerExplicit, Stores: 1, Lines: 2},
			}))
		})
	})

	Describe("concurrent threads", func() {
		It("should collect every line exactly once", func() {
			const (
				threads   = 8
				perThread = 5000
			)
			c = collect.NewCollector(sink, collect.WithStoreCapacity(256))
			for t := 1; t <= threads; t++ {
				Expect(c.ThreadStart(collect.ThreadID(t))).To(Succeed())
			}

			var wg sync.WaitGroup
			errs := make(chan error, threads)
			for t := 1; t <= threads; t++ {
				wg.Add(1)
				go func(tid int) {
					defer wg.Done()
					for i := 0; i < perThread; i++ {
						line := uint64(tid)<<20 | uint64(i)
						if err := c.Access(collect.ThreadID(tid), line<<6, 8); err != nil {
							errs <- err
							return
						}
					}
				}(t)
			}
			wg.Wait()
			close(errs)
			Expect(errs).To(BeEmpty())

			Expect(c.Flush(collect.TriggerExplicit)).To(Succeed())

			Expect(sink.lines).To(HaveLen(threads * perThread))
			next := map[uint64]uint64{}
			for _, l := range sink.lines {
				tid := uint64(l) >> 20
				Expect(uint64(l) & 0xFFFFF).To(Equal(next[tid]))
				next[tid]++
			}
			counters := c.Counters()
			Expect(counters.StoredLines).To(Equal(uint64(threads * perThread)))
			Expect(counters.MergedLines).To(Equal(counters.StoredLines))
		})
	})
})
