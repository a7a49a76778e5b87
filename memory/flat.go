package memory

import (
	"encoding/binary"

	"github.com/wippyai/acpica-host/errors"
)

// Flat is a growable in-process linear memory.
type Flat struct {
	data     []byte
	maxPages uint32
}

// NewFlat creates a memory of the given initial size in pages. maxPages of 0 means 65536.
func NewFlat(pages, maxPages uint32) *Flat {
	if maxPages == 0 {
		maxPages = 65536
	}
	return &Flat{data: make([]byte, int(pages)*PageSize), maxPages: maxPages}
}

func (f *Flat) bounds(offset, length uint32) bool {
	return uint64(offset)+uint64(length) <= uint64(len(f.data))
}

// Bytes exposes the backing slice.
func (f *Flat) Bytes() []byte { return f.data }

func (f *Flat) Read(offset, length uint32) ([]byte, error) {
	if !f.bounds(offset, length) {
		return nil, errors.OutOfBounds(errors.PhaseMemory, offset, length)
	}
	return f.data[offset : offset+length : offset+length], nil
}

func (f *Flat) Write(offset uint32, data []byte) error {
	if !f.bounds(offset, uint32(len(data))) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, uint32(len(data)))
	}
	copy(f.data[offset:], data)
	return nil
}

func (f *Flat) ReadU8(offset uint32) (uint8, error) {
	if !f.bounds(offset, 1) {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 1)
	}
	return f.data[offset], nil
}

func (f *Flat) ReadU16(offset uint32) (uint16, error) {
	if !f.bounds(offset, 2) {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 2)
	}
	return binary.LittleEndian.Uint16(f.data[offset:]), nil
}

func (f *Flat) ReadU32(offset uint32) (uint32, error) {
	if !f.bounds(offset, 4) {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 4)
	}
	return binary.LittleEndian.Uint32(f.data[offset:]), nil
}

func (f *Flat) ReadU64(offset uint32) (uint64, error) {
	if !f.bounds(offset, 8) {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 8)
	}
	return binary.LittleEndian.Uint64(f.data[offset:]), nil
}

func (f *Flat) WriteU8(offset uint32, v uint8) error {
	if !f.bounds(offset, 1) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 1)
	}
	f.data[offset] = v
	return nil
}

func (f *Flat) WriteU16(offset uint32, v uint16) error {
	if !f.bounds(offset, 2) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 2)
	}
	binary.LittleEndian.PutUint16(f.data[offset:], v)
	return nil
}

func (f *Flat) WriteU32(offset uint32, v uint32) error {
	if !f.bounds(offset, 4) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 4)
	}
	binary.LittleEndian.PutUint32(f.data[offset:], v)
	return nil
}

func (f *Flat) WriteU64(offset uint32, v uint64) error {
	if !f.bounds(offset, 8) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 8)
	}
	binary.LittleEndian.PutUint64(f.data[offset:], v)
	return nil
}

func (f *Flat) Size() uint32 {
	return uint32(len(f.data))
}

// Grow appends zeroed pages, failing past the configured maximum.
func (f *Flat) Grow(pages uint32) (uint32, bool) {
	prev := uint32(len(f.data) / PageSize)
	if uint64(prev)+uint64(pages) > uint64(f.maxPages) {
		return prev, false
	}
	f.data = append(f.data, make([]byte, int(pages)*PageSize)...)
	return prev, true
}
