package memory

import (
	"bytes"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/acpica-host/errors"
)

// PageSize is the wasm page size.
const PageSize = 65536

// Ptr is an address in linear memory. 0 is the null pointer.
type Ptr = uint32

// Memory is linear memory as seen by the binding layer.
type Memory interface {
	Read(offset, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, v uint8) error
	WriteU16(offset uint32, v uint16) error
	WriteU32(offset uint32, v uint32) error
	WriteU64(offset uint32, v uint64) error
	Size() uint32
	Grow(pages uint32) (previous uint32, ok bool)
}

// Wrap wraps a wazero api.Memory.
func Wrap(mem api.Memory) Memory {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to Memory.
type Wrapper struct {
	Mem api.Memory
}

// Read reads bytes from memory.
func (m *Wrapper) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseMemory, offset, length)
	}
	return data, nil
}

// Write writes bytes to memory.
func (m *Wrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, uint32(len(data)))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Wrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 1)
	}
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m *Wrapper) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 2)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 4)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Wrapper) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.Mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 8)
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Wrapper) WriteU8(offset uint32, v uint8) error {
	if !m.Mem.WriteByte(offset, v) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 1)
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m *Wrapper) WriteU16(offset uint32, v uint16) error {
	if !m.Mem.WriteUint16Le(offset, v) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 2)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(offset uint32, v uint32) error {
	if !m.Mem.WriteUint32Le(offset, v) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 4)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Wrapper) WriteU64(offset uint32, v uint64) error {
	if !m.Mem.WriteUint64Le(offset, v) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 8)
	}
	return nil
}

// Size returns the memory size in bytes.
func (m *Wrapper) Size() uint32 {
	return m.Mem.Size()
}

// Grow grows memory by the given number of pages.
func (m *Wrapper) Grow(pages uint32) (uint32, bool) {
	return m.Mem.Grow(pages)
}

// ReadCString reads a NUL-terminated string of at most max bytes.
func ReadCString(m Memory, ptr Ptr, max uint32) ([]byte, error) {
	if ptr == 0 {
		return nil, errors.NilPointer(errors.PhaseMemory, "", "string pointer")
	}
	size := m.Size()
	if ptr >= size {
		return nil, errors.OutOfBounds(errors.PhaseMemory, ptr, 1)
	}
	n := size - ptr
	if n > max {
		n = max
	}
	data, err := m.Read(ptr, n)
	if err != nil {
		return nil, err
	}
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return nil, errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Value(ptr).
			Detail("string at 0x%x is not terminated within %d bytes", ptr, n).
			Build()
	}
	out := make([]byte, end)
	copy(out, data[:end])
	return out, nil
}

// ReadString reads a NUL-terminated string that must be valid UTF-8.
func ReadString(m Memory, ptr Ptr, max uint32) (string, error) {
	b, err := ReadCString(m, ptr, max)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.InvalidUTF8(errors.PhaseMemory, "", b)
	}
	return string(b), nil
}

// WriteCString writes s followed by a NUL byte.
func WriteCString(m Memory, ptr Ptr, s string) error {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return m.Write(ptr, buf)
}
