package heap

import (
	"sort"
	"sync"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
)

// Align is the granularity of every arena block.
const Align = 8

type span struct {
	addr, size uint32
}

// Arena is a first-fit, address-ordered, coalescing allocator over the tail of
// linear memory. It grows the memory by whole pages when no free span fits.
type Arena struct {
	mem   memory.Memory
	free  []span
	live  map[uint32]uint32
	base  uint32
	end   uint32
	inUse uint32
	mu    sync.Mutex
}

func alignUp(v uint32) uint64 {
	return (uint64(v) + Align - 1) &^ (Align - 1)
}

// NewArena manages memory from base to the current end of mem.
func NewArena(mem memory.Memory, base uint32) *Arena {
	a := &Arena{
		mem:  mem,
		live: make(map[uint32]uint32),
		base: uint32(alignUp(base)),
		end:  mem.Size(),
	}
	if a.base < a.end {
		a.free = append(a.free, span{addr: a.base, size: a.end - a.base})
	} else {
		a.end = a.base
	}
	return a
}

// Alloc reserves size bytes and returns the block address.
func (a *Arena) Alloc(size uint32) (uint32, error) {
	if size == 0 {
		size = Align
	}
	n64 := alignUp(size)
	if n64 > 1<<32-Align {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size)
	}
	n := uint32(n64)

	a.mu.Lock()
	defer a.mu.Unlock()

	addr, ok := a.take(n)
	if !ok {
		if !a.grow(n) {
			return 0, errors.AllocationFailed(errors.PhaseMemory, size)
		}
		if addr, ok = a.take(n); !ok {
			return 0, errors.AllocationFailed(errors.PhaseMemory, size)
		}
	}
	a.live[addr] = n
	a.inUse += n
	return addr, nil
}

func (a *Arena) take(n uint32) (uint32, bool) {
	for i := range a.free {
		s := &a.free[i]
		if s.size < n {
			continue
		}
		addr := s.addr
		if s.size == n {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			s.addr += n
			s.size -= n
		}
		return addr, true
	}
	return 0, false
}

func (a *Arena) grow(n uint32) bool {
	need := uint64(n)
	if l := len(a.free); l > 0 && a.free[l-1].addr+a.free[l-1].size == a.end {
		need -= uint64(a.free[l-1].size)
	}
	pages := (need + memory.PageSize - 1) / memory.PageSize
	if uint64(a.end)+pages*memory.PageSize > 1<<32-memory.PageSize {
		return false
	}
	if _, ok := a.mem.Grow(uint32(pages)); !ok {
		return false
	}
	newEnd := a.mem.Size()
	a.insert(span{addr: a.end, size: newEnd - a.end})
	a.end = newEnd
	return true
}

// insert adds a span to the free list, merging with its neighbours.
func (a *Arena) insert(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].addr > s.addr })
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s

	if i+1 < len(a.free) && a.free[i].addr+a.free[i].size == a.free[i+1].addr {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].addr+a.free[i-1].size == a.free[i].addr {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

// Free releases the block at addr that was allocated with size bytes.
// Releasing anything but a live block of that size panics.
func (a *Arena) Free(addr, size uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.live[addr]
	if !ok {
		errors.Fatal(errors.PhaseMemory, "free", "0x%x is not a live heap block", addr)
	}
	if size == 0 {
		size = Align
	}
	if alignUp(size) != uint64(n) {
		errors.Fatal(errors.PhaseMemory, "free", "block 0x%x has %d bytes, release asked for %d", addr, n, size)
	}
	delete(a.live, addr)
	a.inUse -= n
	a.insert(span{addr: addr, size: n})
}

// Owns reports whether addr is the start of a live block.
func (a *Arena) Owns(addr uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.live[addr]
	return ok
}

// InUse returns the number of bytes held by live blocks.
func (a *Arena) InUse() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.inUse
}

// Blocks returns the number of live blocks.
func (a *Arena) Blocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.live)
}

// Memory returns the memory the arena allocates from.
func (a *Arena) Memory() memory.Memory {
	return a.mem
}
