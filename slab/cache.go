// Package slab implements the fixed-size object caches the native component
// creates for its internal nodes and operands.
//
// A cache owns one contiguous arena in linear memory holding maxDepth slots of
// objectSize bytes and an occupancy bitmap kept on the Go side. The arena is
// allocated once at creation and only released by Delete; Purge forgets every
// outstanding object without touching the arena.
package slab

import (
	"math/bits"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/heap"
	"github.com/wippyai/acpica-host/lock"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
)

// Cache is a bitmap-tracked pool of equally sized objects.
type Cache struct {
	alloc      *heap.Allocator
	name       string
	used       []uint64
	base       memory.Ptr
	objectSize uint32
	maxDepth   uint32
	inUse      uint32
	lock       lock.Spinlock
}

// New creates a cache of maxDepth objects of objectSize bytes each. If the
// arena cannot be allocated nothing is retained and AE_NO_MEMORY is returned.
func New(alloc *heap.Allocator, name string, objectSize, maxDepth uint16) (*Cache, error) {
	if objectSize == 0 {
		return nil, status.ErrBadParameter
	}
	c := &Cache{
		alloc:      alloc,
		name:       name,
		objectSize: uint32(objectSize),
		maxDepth:   uint32(maxDepth),
		used:       make([]uint64, (int(maxDepth)+63)/64),
	}
	if maxDepth > 0 {
		base, err := alloc.AllocateZeroed(c.objectSize * c.maxDepth)
		if err != nil {
			return nil, status.ErrNoMemory
		}
		c.base = base
	}
	return c, nil
}

// Name returns the diagnostic name given at creation.
func (c *Cache) Name() string { return c.name }

// ObjectSize returns the slot size in bytes.
func (c *Cache) ObjectSize() uint32 { return c.objectSize }

// MaxDepth returns the number of slots.
func (c *Cache) MaxDepth() uint32 { return c.maxDepth }

// InUse returns the number of acquired objects.
func (c *Cache) InUse() uint32 {
	c.lock.Acquire()
	defer c.lock.Release()
	return c.inUse
}

// Acquire returns a zeroed object, or 0 when every slot is in use.
func (c *Cache) Acquire() memory.Ptr {
	c.lock.Acquire()
	defer c.lock.Release()

	for w, word := range c.used {
		if word == ^uint64(0) {
			continue
		}
		i := uint32(w*64 + bits.TrailingZeros64(^word))
		if i >= c.maxDepth {
			break
		}
		c.used[w] |= 1 << (i % 64)
		c.inUse++

		ptr := c.base + i*c.objectSize
		if err := c.alloc.Memory().Write(ptr, make([]byte, c.objectSize)); err != nil {
			errors.Fatal(errors.PhaseMemory, "AcpiOsAcquireObject", "cache %q slot %d: %v", c.name, i, err)
		}
		return ptr
	}
	return 0
}

// Release returns an object to the cache. A pointer that does not address a
// slot of this cache, or a slot that is not in use, is a contract violation.
func (c *Cache) Release(ptr memory.Ptr) {
	c.lock.Acquire()
	defer c.lock.Release()

	if ptr < c.base || ptr >= c.base+c.objectSize*c.maxDepth || (ptr-c.base)%c.objectSize != 0 {
		errors.Fatal(errors.PhaseMemory, "AcpiOsReleaseObject", "0x%x is not an object of cache %q", ptr, c.name)
	}
	i := (ptr - c.base) / c.objectSize
	mask := uint64(1) << (i % 64)
	if c.used[i/64]&mask == 0 {
		errors.Fatal(errors.PhaseMemory, "AcpiOsReleaseObject", "object %d of cache %q released twice", i, c.name)
	}
	c.used[i/64] &^= mask
	c.inUse--
}

// Purge marks every object free. Outstanding pointers become invalid.
func (c *Cache) Purge() {
	c.lock.Acquire()
	defer c.lock.Release()

	clear(c.used)
	c.inUse = 0
}

// Delete releases the arena. The cache must not be used afterwards.
func (c *Cache) Delete() {
	c.lock.Acquire()
	defer c.lock.Release()

	c.alloc.Free(c.base)
	c.base = 0
	c.used = nil
	c.maxDepth = 0
	c.inUse = 0
}
