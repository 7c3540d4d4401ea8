package cache_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachehit/cache"
)

// singleColumn returns a configuration where every line maps to column 0.
func singleColumn(depth int) cache.Config {
	return cache.Config{
		Size:          depth * 64,
		Associativity: depth,
		BlockSize:     64,
	}
}

var _ = Describe("Counter", func() {
	var c *cache.Counter

	Describe("geometry", func() {
		It("should derive width from size, depth and line size", func() {
			c = cache.NewCounter(cache.DefaultConfig())
			// 8MB / (16 * 64B) = 8192 columns
			Expect(c.Width()).To(Equal(8192))
			Expect(c.Config().Size).To(Equal(8 * cache.MB))
		})

		It("should truncate the width for sizes that are not a multiple", func() {
			config := singleColumn(4)
			config.Size += 100
			c = cache.NewCounter(config)
			Expect(c.Width()).To(Equal(1))
		})
	})

	Describe("Access", func() {
		BeforeEach(func() {
			c = cache.NewCounter(singleColumn(16))
		})

		It("should miss on cold cache", func() {
			Expect(c.Access(0x1000)).To(BeFalse())
			Expect(c.Misses()).To(Equal(uint64(1)))
			Expect(c.Hits()).To(Equal(uint64(0)))
		})

		It("should hit on an immediate re-access", func() {
			c.Access(0x1000)
			Expect(c.Access(0x1000)).To(BeTrue())
			Expect(c.Hits()).To(Equal(uint64(1)))
		})

		It("should keep a line resident after depth-1 other lines", func() {
			a := cache.LineID(0x4000)
			c.Access(a)
			for i := 1; i < 16; i++ {
				Expect(c.Access(a + cache.LineID(i))).To(BeFalse())
			}

			Expect(c.Access(a)).To(BeTrue())
		})

		It("should evict a line after depth other lines", func() {
			a := cache.LineID(0x4000)
			c.Access(a)
			for i := 1; i <= 16; i++ {
				c.Access(a + cache.LineID(i))
			}

			Expect(c.Access(a)).To(BeFalse())
		})

		It("should move a hit line to the front", func() {
			// Fill the column, then touch the oldest line. It must now
			// survive 15 more distinct inserts.
			for i := 1; i <= 16; i++ {
				c.Access(cache.LineID(i))
			}
			Expect(c.Access(1)).To(BeTrue())

			for i := 100; i < 115; i++ {
				c.Access(cache.LineID(i))
			}
			Expect(c.Access(1)).To(BeTrue())
		})
	})

	Describe("trivial 2-deep, 1-column cache", func() {
		It("should produce the expected hit/miss sequence", func() {
			c = cache.NewCounter(singleColumn(2))
			a, b, cl := cache.LineID(0xA), cache.LineID(0xB), cache.LineID(0xC)

			var got []bool
			for _, line := range []cache.LineID{a, b, a, cl, a} {
				got = append(got, c.Access(line))
			}

			// After C the column holds [C, A]; B was evicted, A is still
			// resident in the back slot.
			Expect(got).To(Equal([]bool{false, false, true, false, true}))
			Expect(c.Hits()).To(Equal(uint64(2)))
			Expect(c.Misses()).To(Equal(uint64(3)))
		})

		It("should miss when the revisited line was pushed out", func() {
			c = cache.NewCounter(singleColumn(2))

			var got []bool
			for _, line := range []cache.LineID{0xA, 0xB, 0xC, 0xA} {
				got = append(got, c.Access(line))
			}

			Expect(got).To(Equal([]bool{false, false, false, false}))
		})
	})

	Describe("counters", func() {
		BeforeEach(func() {
			c = cache.NewCounter(cache.Config{
				Size:          64 * 1024,
				Associativity: 16,
				BlockSize:     64,
			})
		})

		It("should account every insert as a hit or a miss", func() {
			r := rand.New(rand.NewSource(7))
			const inserts = 20000
			for i := 0; i < inserts; i++ {
				c.Access(cache.LineID(r.Intn(4096) + 1))
			}

			Expect(c.Hits() + c.Misses()).To(Equal(uint64(inserts)))
			Expect(c.TotalAccesses()).To(Equal(uint64(inserts)))
			Expect(c.HitRatio() + c.MissRatio()).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("should report NaN ratios without accesses", func() {
			Expect(c.TotalAccesses()).To(BeZero())
			Expect(math.IsNaN(c.HitRatio())).To(BeTrue())
			Expect(math.IsNaN(c.MissRatio())).To(BeTrue())
		})

		It("should keep counters cumulative across ClearAddresses", func() {
			c.Access(0x10)
			c.Access(0x10)
			previous := c.TotalAccesses()

			c.ClearAddresses()

			Expect(c.Access(0x10)).To(BeFalse(), "cache should be cold")
			Expect(c.TotalAccesses()).To(Equal(previous + 1))
			Expect(c.Hits()).To(Equal(uint64(1)))
		})

		It("should reset everything on Clear", func() {
			c.Access(0x10)
			c.Access(0x10)

			c.Clear()

			Expect(c.TotalAccesses()).To(BeZero())
			Expect(c.Access(0x10)).To(BeFalse())
		})
	})
})

var _ = Describe("LRUCounter", func() {
	It("should produce the expected sequence on the trivial cache", func() {
		c := cache.NewLRUCounter(singleColumn(2))

		var got []bool
		for _, line := range []cache.LineID{0xA, 0xB, 0xA, 0xC, 0xA} {
			got = append(got, c.Access(line))
		}

		Expect(got).To(Equal([]bool{false, false, true, false, true}))
	})

	It("should agree with the move-to-front counter", func() {
		config := cache.Config{Size: 32 * 1024, Associativity: 8, BlockSize: 64}
		mtf := cache.NewCounter(config)
		lru := cache.NewLRUCounter(config)

		r := rand.New(rand.NewSource(42))
		for i := 0; i < 10000; i++ {
			line := cache.LineID(r.Intn(2048) + 1)
			Expect(lru.Access(line)).To(Equal(mtf.Access(line)))
		}

		Expect(lru.Stats()).To(Equal(mtf.Stats()))
	})

	It("should start cold after ClearAddresses and keep counters", func() {
		c := cache.NewLRUCounter(singleColumn(4))
		c.Access(0x10)
		c.Access(0x10)

		c.ClearAddresses()

		Expect(c.Access(0x10)).To(BeFalse())
		Expect(c.Stats().Total()).To(Equal(uint64(3)))
	})
})
