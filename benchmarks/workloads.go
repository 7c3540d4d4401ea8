package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/collect"
)

// lineBytes is the stride between consecutive lines of a workload.
const lineBytes = cache.DefaultBlockSize

// baseAddr is aligned to 8192 lines so that a contiguous scan spreads evenly
// over the columns of every default-geometry cache.
const baseAddr = uint64(1) << 30

// GetWorkloads returns the standard set of synthetic workloads.
func GetWorkloads() []Benchmark {
	return []Benchmark{
		SequentialScan(16 * cache.MB),
		RepeatedScan(1*cache.MB, 4),
		Strided(64*cache.KB, 4096, 8),
		HotSet(64*cache.KB, 64*cache.MB, 0.9, 200000),
		RandomSet(64*cache.MB, 200000),
		SharedScan(4, 512*cache.KB, 2),
	}
}

// scan touches every line of [base, base+bytes) once.
func scan(access AccessFunc, base uint64, bytes int) error {
	for off := uint64(0); off < uint64(bytes); off += lineBytes {
		if err := access(base+off, 8); err != nil {
			return err
		}
	}
	return nil
}

// SequentialScan touches every line of a buffer once. Every access misses.
func SequentialScan(bytes int) Benchmark {
	return Benchmark{
		Name:        "sequential_scan",
		Description: "one pass over a large buffer - compulsory misses only",
		Run: func(_ collect.ThreadID, access AccessFunc) error {
			return scan(access, baseAddr, bytes)
		},
	}
}

// RepeatedScan scans a working set several times. Caches that hold the
// working set hit on every pass after the first; smaller ones thrash.
func RepeatedScan(bytes, passes int) Benchmark {
	return Benchmark{
		Name:        "repeated_scan",
		Description: "cyclic passes over a working set - capacity misses",
		Run: func(_ collect.ThreadID, access AccessFunc) error {
			for p := 0; p < passes; p++ {
				if err := scan(access, baseAddr, bytes); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Strided walks a buffer with a large stride, repeatedly. Strides that are
// multiples of the column count pile onto few columns.
func Strided(bytes, stride, passes int) Benchmark {
	return Benchmark{
		Name:        "strided",
		Description: "large-stride passes - conflict misses",
		Run: func(_ collect.ThreadID, access AccessFunc) error {
			for p := 0; p < passes; p++ {
				for off := 0; off < bytes*stride/lineBytes; off += stride {
					if err := access(baseAddr+uint64(off), 8); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// HotSet sends a fraction of its accesses to a small hot buffer and the rest
// to random lines of a large cold buffer.
func HotSet(hotBytes, coldBytes int, hotFraction float64, accesses int) Benchmark {
	return Benchmark{
		Name:        "hot_set",
		Description: "skewed accesses to a small hot set - temporal locality",
		Run: func(_ collect.ThreadID, access AccessFunc) error {
			rng := rand.New(rand.NewPCG(1, 2))
			hotLines := uint64(hotBytes / lineBytes)
			coldLines := uint64(coldBytes / lineBytes)
			coldBase := baseAddr + uint64(hotBytes)

			for i := 0; i < accesses; i++ {
				var addr uint64
				if rng.Float64() < hotFraction {
					addr = baseAddr + rng.Uint64N(hotLines)*lineBytes
				} else {
					addr = coldBase + rng.Uint64N(coldLines)*lineBytes
				}
				if err := access(addr, 8); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// RandomSet touches uniformly random lines of a buffer. The hit ratio
// approaches cache size over buffer size.
func RandomSet(bytes, accesses int) Benchmark {
	return Benchmark{
		Name:        "random_set",
		Description: "uniform random accesses - no locality",
		Run: func(_ collect.ThreadID, access AccessFunc) error {
			rng := rand.New(rand.NewPCG(3, 4))
			lines := uint64(bytes / lineBytes)

			for i := 0; i < accesses; i++ {
				if err := access(baseAddr+rng.Uint64N(lines)*lineBytes, 8); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// SharedScan lets several threads scan the same buffer. When the buffer fits,
// only the first touch of every line misses, whatever the interleaving.
func SharedScan(threads, bytes, passes int) Benchmark {
	return Benchmark{
		Name:        "shared_scan",
		Description: "threads scanning one shared buffer - merged streams",
		Threads:     threads,
		Run: func(_ collect.ThreadID, access AccessFunc) error {
			for p := 0; p < passes; p++ {
				if err := scan(access, baseAddr, bytes); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
