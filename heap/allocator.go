package heap

import (
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
)

// HeaderSize is the size of the length header preceding every allocation.
const HeaderSize = 8

// Allocator implements the native allocate/free contract on top of an Arena.
type Allocator struct {
	arena *Arena
	mem   memory.Memory
}

// NewAllocator creates an allocator drawing from arena.
func NewAllocator(arena *Arena) *Allocator {
	return &Allocator{arena: arena, mem: arena.mem}
}

// Allocate returns a pointer to size bytes. The bytes are not cleared.
func (a *Allocator) Allocate(size uint32) (memory.Ptr, error) {
	if size > 1<<32-1-HeaderSize {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size)
	}
	block, err := a.arena.Alloc(size + HeaderSize)
	if err != nil {
		return 0, err
	}
	if err := a.mem.WriteU64(block, uint64(size)); err != nil {
		a.arena.Free(block, size+HeaderSize)
		return 0, err
	}
	return block + HeaderSize, nil
}

// AllocateZeroed is Allocate followed by clearing the returned bytes.
func (a *Allocator) AllocateZeroed(size uint32) (memory.Ptr, error) {
	ptr, err := a.Allocate(size)
	if err != nil {
		return 0, err
	}
	if size > 0 {
		if err := a.mem.Write(ptr, make([]byte, size)); err != nil {
			a.Free(ptr)
			return 0, err
		}
	}
	return ptr, nil
}

// Free releases a pointer returned by Allocate, using the size stored in its
// header. Free(0) is a no-op.
func (a *Allocator) Free(ptr memory.Ptr) {
	if ptr == 0 {
		return
	}
	size, err := a.SizeOf(ptr)
	if err != nil {
		errors.Fatal(errors.PhaseMemory, "free", "header of 0x%x unreadable: %v", ptr, err)
	}
	a.arena.Free(ptr-HeaderSize, size+HeaderSize)
}

// SizeOf returns the size recorded in the header of ptr.
func (a *Allocator) SizeOf(ptr memory.Ptr) (uint32, error) {
	if ptr < HeaderSize {
		return 0, errors.OutOfBounds(errors.PhaseMemory, ptr, HeaderSize)
	}
	size, err := a.mem.ReadU64(ptr - HeaderSize)
	if err != nil {
		return 0, err
	}
	return uint32(size), nil
}

// Owns reports whether ptr was returned by Allocate and not yet freed.
func (a *Allocator) Owns(ptr memory.Ptr) bool {
	return ptr >= HeaderSize && a.arena.Owns(ptr-HeaderSize)
}

// Memory returns the memory allocations live in.
func (a *Allocator) Memory() memory.Memory {
	return a.mem
}

// Arena returns the underlying arena.
func (a *Allocator) Arena() *Arena {
	return a.arena
}
