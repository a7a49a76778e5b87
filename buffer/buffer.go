// Package buffer implements the native side's length-plus-pointer buffer
// convention.
//
// A buffer descriptor is two 32-bit words in linear memory: Length, then
// Pointer. Length AllocateBuffer asks the native side to allocate storage of
// the right size itself through the host allocator; on return the descriptor
// holds the real length and pointer. AllocatePattern drives that exchange and
// hands back an owned Go copy of the data.
package buffer

import (
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/heap"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
)

// AllocateBuffer is the auto-allocate sentinel length.
const AllocateBuffer uint32 = 0xFFFFFFFF

// DescriptorSize is the size of a buffer descriptor in linear memory.
const DescriptorSize = 8

// Kind classifies a descriptor.
type Kind int

const (
	KindEmpty Kind = iota
	KindFixed
	KindAutoAllocate
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindFixed:
		return "fixed"
	case KindAutoAllocate:
		return "auto_allocate"
	default:
		return "invalid"
	}
}

// ErrBufferUnchanged is returned when the native call left the auto-allocate
// sentinel in place, so no data was produced.
var ErrBufferUnchanged = errors.New(errors.PhaseMemory, errors.KindBufferUnchanged).
	Detail("native call did not fill the buffer").
	Build()

// Buffer is the Go view of a descriptor.
type Buffer struct {
	Length  uint32
	Pointer memory.Ptr
}

// Kind reports how the native side will interpret the descriptor.
func (b Buffer) Kind() Kind {
	switch {
	case b.Length == AllocateBuffer:
		return KindAutoAllocate
	case b.Length == 0 && b.Pointer == 0:
		return KindEmpty
	default:
		return KindFixed
	}
}

// Read loads the descriptor at ptr.
func Read(mem memory.Memory, ptr memory.Ptr) (Buffer, error) {
	length, err := mem.ReadU32(ptr)
	if err != nil {
		return Buffer{}, err
	}
	p, err := mem.ReadU32(ptr + 4)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{Length: length, Pointer: p}, nil
}

// Write stores b at ptr.
func Write(mem memory.Memory, ptr memory.Ptr, b Buffer) error {
	if err := mem.WriteU32(ptr, b.Length); err != nil {
		return err
	}
	return mem.WriteU32(ptr+4, b.Pointer)
}

// AllocatePattern passes an auto-allocate descriptor to f and returns f's
// result with an owned copy of whatever the native side stored.
//
// If the descriptor still holds the sentinel afterwards the data error is
// ErrBufferUnchanged, whatever f returned. The storage the native side
// allocated must come from alloc; anything else is a contract violation.
func AllocatePattern[R any](alloc *heap.Allocator, f func(desc memory.Ptr) R) (R, []byte, error) {
	var zero R
	mem := alloc.Memory()

	desc, err := alloc.Allocate(DescriptorSize)
	if err != nil {
		return zero, nil, status.ErrNoMemory
	}
	defer alloc.Free(desc)

	if err := Write(mem, desc, Buffer{Length: AllocateBuffer}); err != nil {
		return zero, nil, err
	}

	r := f(desc)

	b, err := Read(mem, desc)
	if err != nil {
		return r, nil, err
	}
	if b.Length == AllocateBuffer {
		return r, nil, ErrBufferUnchanged
	}
	if b.Pointer == 0 {
		if b.Length != 0 {
			errors.Fatal(errors.PhaseMemory, "buffer", "descriptor has length %d and no storage", b.Length)
		}
		return r, []byte{}, nil
	}
	if !alloc.Owns(b.Pointer) {
		errors.Fatal(errors.PhaseMemory, "buffer", "storage 0x%x was not allocated by the host allocator", b.Pointer)
	}
	defer alloc.Free(b.Pointer)

	data, err := mem.Read(b.Pointer, b.Length)
	if err != nil {
		return r, nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return r, out, nil
}

// Fixed passes a descriptor over size bytes of fresh storage to f. If the
// native side reports a length larger than size, the data error is
// AE_BUFFER_OVERFLOW and carries no bytes.
func Fixed[R any](alloc *heap.Allocator, size uint32, f func(desc memory.Ptr) R) (R, []byte, error) {
	var zero R
	mem := alloc.Memory()

	desc, err := alloc.Allocate(DescriptorSize)
	if err != nil {
		return zero, nil, status.ErrNoMemory
	}
	defer alloc.Free(desc)

	data, err := alloc.AllocateZeroed(size)
	if err != nil {
		return zero, nil, status.ErrNoMemory
	}
	defer alloc.Free(data)

	if err := Write(mem, desc, Buffer{Length: size, Pointer: data}); err != nil {
		return zero, nil, err
	}

	r := f(desc)

	b, err := Read(mem, desc)
	if err != nil {
		return r, nil, err
	}
	if b.Length > size {
		return r, nil, &status.Error{Code: status.BufferOverflow, Raw: uint32(status.BufferOverflow)}
	}
	raw, err := mem.Read(data, b.Length)
	if err != nil {
		return r, nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return r, out, nil
}
