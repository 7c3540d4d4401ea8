// Package collect buffers the cache lines touched by each application thread
// and merges the per-thread buffers into the single stream the simulated
// caches consume.
package collect

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachehit/cache"
)

const (
	// DefaultStoreCapacity is the number of line slots in a ThreadStore:
	// 1 MiB worth of 8-byte ids.
	DefaultStoreCapacity = 1024 * 1024 / 8

	// StorePadding is the headroom kept free in a ThreadStore. A store
	// reports itself full once fewer slots remain.
	StorePadding = 64
)

var (
	// ErrReservedLine is returned when an access maps to cache line 0.
	ErrReservedLine = errors.New("access maps to reserved cache line 0")

	// ErrStoreOverflow is returned when an access range does not fit into the
	// remaining capacity of a store.
	ErrStoreOverflow = errors.New("thread store overflow")

	// ErrAddressWrap is returned when an access range runs past the end of
	// the address space.
	ErrAddressWrap = errors.New("access range wraps the address space")
)

// ThreadStore is a fixed-capacity FIFO of cache lines owned by one thread.
// Only the owner writes to it; readers must exclude the owner while reading.
type ThreadStore struct {
	lines        []cache.LineID
	count        int
	top          int
	lineSizeLog2 uint
}

// NewThreadStore creates a store with the given number of slots for 64-byte
// cache lines. The capacity must exceed StorePadding.
func NewThreadStore(capacity int) *ThreadStore {
	return newThreadStore(capacity, 6)
}

func newThreadStore(capacity int, lineSizeLog2 uint) *ThreadStore {
	if capacity <= StorePadding {
		panic(fmt.Sprintf("collect: store capacity %d must exceed padding %d",
			capacity, StorePadding))
	}

	return &ThreadStore{
		lines:        make([]cache.LineID, capacity),
		lineSizeLog2: lineSizeLog2,
	}
}

// StoreAddress appends every cache line touched by [addr, addr+size). It
// returns true once the store is nearly full and should be drained.
func (s *ThreadStore) StoreAddress(addr uint64, size uint32) (bool, error) {
	if size == 0 {
		return s.nearlyFull(), nil
	}

	last := addr + uint64(size) - 1
	if last < addr {
		return false, fmt.Errorf("%d bytes at 0x%x: %w", size, addr, ErrAddressWrap)
	}

	lo := addr >> s.lineSizeLog2
	hi := last >> s.lineSizeLog2

	if lo == 0 {
		return false, fmt.Errorf("address 0x%x: %w", addr, ErrReservedLine)
	}

	if hi-lo+1 > uint64(len(s.lines)-s.count) {
		return true, fmt.Errorf("%d lines at 0x%x with %d slots left: %w",
			hi-lo+1, addr, len(s.lines)-s.count, ErrStoreOverflow)
	}

	for line := lo; line <= hi; line++ {
		s.lines[s.count] = cache.LineID(line)
		s.count++
	}

	return s.nearlyFull(), nil
}

func (s *ThreadStore) nearlyFull() bool {
	return s.count+StorePadding >= len(s.lines)
}

// Next returns the oldest unread line. Once every stored line was read it
// rewinds the store for reuse and returns false.
func (s *ThreadStore) Next() (cache.LineID, bool) {
	if s.top < s.count {
		line := s.lines[s.top]
		s.top++
		return line, true
	}

	s.top = 0
	s.count = 0

	return 0, false
}

// Len returns the number of unread lines.
func (s *ThreadStore) Len() int {
	return s.count - s.top
}

// Cap returns the number of slots.
func (s *ThreadStore) Cap() int {
	return len(s.lines)
}
