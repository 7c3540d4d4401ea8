package collect_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/collect"
)

func fill(s *collect.ThreadStore, lines ...cache.LineID) {
	for _, l := range lines {
		_, err := s.StoreAddress(uint64(l)<<6, 1)
		Expect(err).NotTo(HaveOccurred())
	}
}

func mergeAll(m *collect.Merger) []cache.LineID {
	var lines []cache.LineID
	for {
		line, ok := m.Next()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

var _ = Describe("Merger", func() {
	It("should yield nothing without stores", func() {
		m := collect.NewMerger(nil)

		_, ok := m.Next()

		Expect(ok).To(BeFalse())
	})

	It("should interleave stores round-robin", func() {
		a := collect.NewThreadStore(128)
		b := collect.NewThreadStore(128)
		c := collect.NewThreadStore(128)
		fill(a, 1, 2, 3)
		fill(b, 10)
		fill(c, 20, 21)

		lines := mergeAll(collect.NewMerger([]*collect.ThreadStore{a, b, c}))

		Expect(lines).To(Equal([]cache.LineID{1, 10, 20, 2, 21, 3}))
	})

	It("should skip empty stores", func() {
		a := collect.NewThreadStore(128)
		b := collect.NewThreadStore(128)
		fill(b, 5, 6)

		lines := mergeAll(collect.NewMerger([]*collect.ThreadStore{a, b}))

		Expect(lines).To(Equal([]cache.LineID{5, 6}))
	})

	It("should yield every line once with per-store order preserved", func() {
		counts := []int{17, 0, 40, 3, 25}
		stores := make([]*collect.ThreadStore, len(counts))
		total := 0
		for i, k := range counts {
			stores[i] = collect.NewThreadStore(128)
			for j := 0; j < k; j++ {
				// Encode the store index in the high bits.
				fill(stores[i], cache.LineID((i+1)<<16|j))
			}
			total += k
		}

		lines := mergeAll(collect.NewMerger(stores))

		Expect(lines).To(HaveLen(total))
		seen := map[cache.LineID]bool{}
		next := make([]int, len(counts))
		for _, l := range lines {
			Expect(seen).NotTo(HaveKey(l))
			seen[l] = true

			store := int(l>>16) - 1
			Expect(int(l & 0xFFFF)).To(Equal(next[store]))
			next[store]++
		}
		for i, k := range counts {
			Expect(next[i]).To(Equal(k))
		}
	})

	It("should leave the stores rewound", func() {
		a := collect.NewThreadStore(128)
		fill(a, 1, 2)
		mergeAll(collect.NewMerger([]*collect.ThreadStore{a}))

		fill(a, 3)

		Expect(mergeAll(collect.NewMerger([]*collect.ThreadStore{a}))).
			To(Equal([]cache.LineID{3}))
	})
})
