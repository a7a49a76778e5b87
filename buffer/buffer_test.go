package buffer

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/acpica-host/heap"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
)

func newAllocator() (*heap.Allocator, *memory.Flat) {
	mem := memory.NewFlat(1, 1)
	return heap.NewAllocator(heap.NewArena(mem, 256)), mem
}

// fill behaves like a native routine honouring the auto-allocate convention.
func fill(t *testing.T, alloc *heap.Allocator, data []byte) func(memory.Ptr) uint32 {
	return func(desc memory.Ptr) uint32 {
		mem := alloc.Memory()
		b, err := Read(mem, desc)
		if err != nil {
			t.Fatal(err)
		}
		if b.Kind() != KindAutoAllocate {
			t.Fatalf("descriptor kind = %v, want auto_allocate", b.Kind())
		}
		p, err := alloc.Allocate(uint32(len(data)))
		if err != nil {
			t.Fatal(err)
		}
		mem.Write(p, data)
		Write(mem, desc, Buffer{Length: uint32(len(data)), Pointer: p})
		return 0
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		b    Buffer
		want Kind
	}{
		{Buffer{}, KindEmpty},
		{Buffer{Length: AllocateBuffer}, KindAutoAllocate},
		{Buffer{Length: AllocateBuffer, Pointer: 8}, KindAutoAllocate},
		{Buffer{Length: 16, Pointer: 64}, KindFixed},
		{Buffer{Length: 0, Pointer: 64}, KindFixed},
	}
	for _, tt := range tests {
		if got := tt.b.Kind(); got != tt.want {
			t.Errorf("%+v.Kind() = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func TestAllocatePattern(t *testing.T) {
	alloc, _ := newAllocator()

	r, data, err := AllocatePattern(alloc, fill(t, alloc, []byte("\\_SB_.PCI0")))
	if err != nil {
		t.Fatalf("AllocatePattern: %v", err)
	}
	if r != 0 {
		t.Errorf("result = %d", r)
	}
	if string(data) != "\\_SB_.PCI0" {
		t.Errorf("data = %q", data)
	}
	if alloc.Arena().Blocks() != 0 {
		t.Errorf("%d blocks leaked", alloc.Arena().Blocks())
	}
}

func TestAllocatePattern_Unchanged(t *testing.T) {
	alloc, _ := newAllocator()

	r, data, err := AllocatePattern(alloc, func(memory.Ptr) uint32 {
		return uint32(status.NotFound)
	})
	if !stderrors.Is(err, ErrBufferUnchanged) {
		t.Fatalf("err = %v, want ErrBufferUnchanged", err)
	}
	if r != uint32(status.NotFound) || data != nil {
		t.Errorf("r = %#x, data = %v", r, data)
	}
	if alloc.Arena().Blocks() != 0 {
		t.Error("descriptor leaked")
	}
}

func TestAllocatePattern_Empty(t *testing.T) {
	alloc, _ := newAllocator()

	_, data, err := AllocatePattern(alloc, func(desc memory.Ptr) int {
		Write(alloc.Memory(), desc, Buffer{})
		return 0
	})
	if err != nil || data == nil || len(data) != 0 {
		t.Errorf("data = %v, err = %v; want empty owned slice", data, err)
	}
}

func TestAllocatePattern_ForeignStoragePanics(t *testing.T) {
	alloc, _ := newAllocator()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for storage not from the allocator")
		}
	}()
	AllocatePattern(alloc, func(desc memory.Ptr) int {
		Write(alloc.Memory(), desc, Buffer{Length: 4, Pointer: 32})
		return 0
	})
}

func TestFixed(t *testing.T) {
	alloc, _ := newAllocator()

	t.Run("fits", func(t *testing.T) {
		_, data, err := Fixed(alloc, 16, func(desc memory.Ptr) int {
			b, _ := Read(alloc.Memory(), desc)
			if b.Kind() != KindFixed || b.Length != 16 {
				t.Errorf("descriptor = %+v", b)
			}
			alloc.Memory().Write(b.Pointer, []byte("PCI0"))
			Write(alloc.Memory(), desc, Buffer{Length: 4, Pointer: b.Pointer})
			return 0
		})
		if err != nil || string(data) != "PCI0" {
			t.Errorf("data = %q, err = %v", data, err)
		}
	})

	t.Run("overflow", func(t *testing.T) {
		_, data, err := Fixed(alloc, 4, func(desc memory.Ptr) int {
			b, _ := Read(alloc.Memory(), desc)
			Write(alloc.Memory(), desc, Buffer{Length: 32, Pointer: b.Pointer})
			return 0
		})
		if status.CodeOf(err) != status.BufferOverflow || data != nil {
			t.Errorf("data = %v, err = %v", data, err)
		}
	})

	if alloc.Arena().Blocks() != 0 {
		t.Errorf("%d blocks leaked", alloc.Arena().Blocks())
	}
}
