package osl

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/handle"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/slab"
	"github.com/wippyai/acpica-host/status"
)

// Allocate returns size bytes of native heap, or 0.
func (d *Dispatcher) Allocate(size uint32) memory.Ptr {
	ptr, err := d.alloc.Allocate(size)
	if err != nil {
		Logger().Warn("native allocation failed", zap.Uint32("size", size), zap.Error(err))
		return 0
	}
	return ptr
}

// AllocateZeroed returns size zeroed bytes of native heap, or 0.
func (d *Dispatcher) AllocateZeroed(size uint32) memory.Ptr {
	ptr, err := d.alloc.AllocateZeroed(size)
	if err != nil {
		Logger().Warn("native allocation failed", zap.Uint32("size", size), zap.Error(err))
		return 0
	}
	return ptr
}

// Free releases storage returned by Allocate.
func (d *Dispatcher) Free(ptr memory.Ptr) {
	d.alloc.Free(ptr)
}

// CreateCache creates an object cache and stores its handle at out.
func (d *Dispatcher) CreateCache(name memory.Ptr, objectSize, maxDepth uint16, out memory.Ptr) status.Status {
	if out == 0 {
		return code(status.BadParameter)
	}
	var label string
	if name != 0 {
		b, err := memory.ReadCString(d.mem, name, 64)
		if err != nil {
			errors.Fatal(errors.PhaseHost, "AcpiOsCreateCache", "cache name: %v", err)
		}
		label = string(b)
	}
	c, err := slab.New(d.alloc, label, objectSize, maxDepth)
	if err != nil {
		return result("AcpiOsCreateCache", err)
	}
	h, err := d.caches.Insert(c)
	if err != nil {
		c.Delete()
		return code(status.NoMemory)
	}
	Logger().Debug("cache created",
		zap.String("name", label),
		zap.Uint16("object_size", objectSize),
		zap.Uint16("max_depth", maxDepth))
	d.put32("AcpiOsCreateCache", out, uint32(h))
	return status.OK
}

func (d *Dispatcher) cache(h uint32) (*slab.Cache, bool) {
	c, ok := d.caches.Get(handle.Handle(h))
	if !ok {
		Logger().Error("dead cache handle", zap.Uint32("handle", h))
	}
	return c, ok
}

// DeleteCache frees a cache and its slots.
func (d *Dispatcher) DeleteCache(h uint32) status.Status {
	c, err := d.caches.Remove(handle.Handle(h))
	if err != nil {
		return code(status.BadParameter)
	}
	c.Delete()
	return status.OK
}

// PurgeCache marks every slot free.
func (d *Dispatcher) PurgeCache(h uint32) status.Status {
	c, ok := d.cache(h)
	if !ok {
		return code(status.BadParameter)
	}
	c.Purge()
	return status.OK
}

// AcquireObject returns a zeroed object, or 0 when every slot is taken.
func (d *Dispatcher) AcquireObject(h uint32) memory.Ptr {
	c, ok := d.cache(h)
	if !ok {
		return 0
	}
	ptr := c.Acquire()
	if ptr == 0 {
		Logger().Debug("cache exhausted", zap.String("name", c.Name()), zap.Uint32("max_depth", c.MaxDepth()))
	}
	return ptr
}

// ReleaseObject returns an object to its cache.
func (d *Dispatcher) ReleaseObject(h uint32, ptr memory.Ptr) status.Status {
	c, ok := d.cache(h)
	if !ok || ptr == 0 {
		return code(status.BadParameter)
	}
	c.Release(ptr)
	return status.OK
}

// mapping is a physical window copied into native memory. clean holds the
// bytes as they were copied in.
type mapping struct {
	phys   uint64
	ptr    memory.Ptr
	window []byte
	clean  []byte
}

// MapMemory copies a host window of physical memory into the native heap and
// returns its native address, or 0.
func (d *Dispatcher) MapMemory(ctx context.Context, phys uint64, length uint32) memory.Ptr {
	if length == 0 {
		return 0
	}
	hctx, done := d.enter(ctx, "AcpiOsMapMemory")
	window, err := d.host.MapMemory(hctx, phys, length)
	done()
	if err != nil {
		Logger().Warn("map failed", zap.Uint64("phys", phys), zap.Uint32("length", length), zap.Error(err))
		return 0
	}
	if uint32(len(window)) < length {
		Logger().Error("host returned a short window",
			zap.Uint64("phys", phys),
			zap.Uint32("length", length),
			zap.Int("got", len(window)))
		return 0
	}
	window = window[:length]

	clean := bytes.Clone(window)
	ptr, err := d.copyIn(clean)
	if err != nil {
		Logger().Warn("no native memory for mapping", zap.Uint32("length", length), zap.Error(err))
		return 0
	}

	d.mapMu.Lock()
	d.mappings[ptr] = &mapping{phys: phys, ptr: ptr, window: window, clean: clean}
	d.mapMu.Unlock()
	return ptr
}

// UnmapMemory writes the bytes the native side changed back into the host
// window and frees the copy. Unchanged bytes are left alone, so overlapping
// mappings of one range keep each other's writes.
func (d *Dispatcher) UnmapMemory(ctx context.Context, ptr memory.Ptr, length uint32) {
	d.mapMu.Lock()
	m, ok := d.mappings[ptr]
	delete(d.mappings, ptr)
	d.mapMu.Unlock()
	if !ok {
		errors.Fatal(errors.PhaseHost, "AcpiOsUnmapMemory", "0x%x is not a mapping", ptr)
	}
	if length != uint32(len(m.window)) {
		Logger().Warn("unmap length differs from map length",
			zap.Uint32("mapped", uint32(len(m.window))),
			zap.Uint32("unmapped", length))
	}

	data, err := d.mem.Read(ptr, uint32(len(m.window)))
	if err != nil {
		errors.Fatal(errors.PhaseHost, "AcpiOsUnmapMemory", "read back mapping: %v", err)
	}
	writeBack(m.window, m.clean, data)
	d.alloc.Free(ptr)

	hctx, done := d.enter(ctx, "AcpiOsUnmapMemory")
	defer done()
	if err := d.host.UnmapMemory(hctx, m.phys, m.window); err != nil {
		Logger().Warn("unmap failed", zap.Uint64("phys", m.phys), zap.Error(err))
	}
}

// writeBack copies each run of data that differs from clean into window.
func writeBack(window, clean, data []byte) {
	for i := 0; i < len(data); {
		if data[i] == clean[i] {
			i++
			continue
		}
		j := i + 1
		for j < len(data) && data[j] != clean[j] {
			j++
		}
		copy(window[i:j], data[i:j])
		i = j
	}
}

// Mappings returns the number of live mappings.
func (d *Dispatcher) Mappings() int {
	d.mapMu.Lock()
	defer d.mapMu.Unlock()
	return len(d.mappings)
}

// GetPhysicalAddress resolves a native address inside a live mapping.
func (d *Dispatcher) GetPhysicalAddress(logical memory.Ptr, out memory.Ptr) status.Status {
	if logical == 0 || out == 0 {
		return code(status.BadParameter)
	}
	d.mapMu.Lock()
	var phys uint64
	found := false
	for _, m := range d.mappings {
		if logical >= m.ptr && uint64(logical) < uint64(m.ptr)+uint64(len(m.window)) {
			phys = m.phys + uint64(logical-m.ptr)
			found = true
			break
		}
	}
	d.mapMu.Unlock()
	if !found {
		return code(status.AeError)
	}
	d.put64("AcpiOsGetPhysicalAddress", out, phys)
	return status.OK
}

// Readable reports whether a native range lies inside linear memory.
func (d *Dispatcher) Readable(ptr memory.Ptr, length uint32) bool {
	return ptr != 0 && uint64(ptr)+uint64(length) <= uint64(d.mem.Size())
}

// Writable reports whether a native range lies inside linear memory.
func (d *Dispatcher) Writable(ptr memory.Ptr, length uint32) bool {
	return d.Readable(ptr, length)
}
