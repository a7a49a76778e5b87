package heap

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
)

const testBase = 1024

func newAllocator(pages, maxPages uint32) (*Allocator, *memory.Flat) {
	mem := memory.NewFlat(pages, maxPages)
	return NewAllocator(NewArena(mem, testBase)), mem
}

func TestAllocator_Header(t *testing.T) {
	a, mem := newAllocator(1, 1)

	tests := []uint32{0, 1, 7, 8, 100, 4096}
	for _, size := range tests {
		ptr, err := a.Allocate(size)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", size, err)
		}
		if ptr%Align != 0 {
			t.Errorf("Allocate(%d) = 0x%x, not %d-aligned", size, ptr, Align)
		}
		hdr, _ := mem.ReadU64(ptr - HeaderSize)
		if hdr != uint64(size) {
			t.Errorf("header for %d = %d", size, hdr)
		}
		if got, _ := a.SizeOf(ptr); got != size {
			t.Errorf("SizeOf = %d, want %d", got, size)
		}
		if !a.Owns(ptr) {
			t.Errorf("Owns(0x%x) = false", ptr)
		}
	}
}

func TestAllocator_FreeReuse(t *testing.T) {
	a, _ := newAllocator(1, 1)

	p1, _ := a.Allocate(32)
	a.Free(p1)
	if a.Owns(p1) {
		t.Error("freed pointer still owned")
	}
	p2, _ := a.Allocate(32)
	if p1 != p2 {
		t.Errorf("first-fit did not reuse freed block: 0x%x vs 0x%x", p1, p2)
	}
	a.Free(0)
}

func TestArena_Coalesce(t *testing.T) {
	a, mem := newAllocator(1, 1)
	arena := a.Arena()

	ptrs := make([]uint32, 3)
	for i := range ptrs {
		ptrs[i], _ = a.Allocate(1000)
	}
	a.Free(ptrs[0])
	a.Free(ptrs[2])
	a.Free(ptrs[1])

	if arena.InUse() != 0 || arena.Blocks() != 0 {
		t.Fatalf("InUse = %d, Blocks = %d", arena.InUse(), arena.Blocks())
	}
	if len(arena.free) != 1 {
		t.Fatalf("free list not coalesced: %v", arena.free)
	}

	// The whole region must be usable again as one block.
	whole := mem.Size() - testBase - HeaderSize
	if _, err := a.Allocate(whole); err != nil {
		t.Errorf("Allocate(whole region) after coalescing: %v", err)
	}
}

func TestArena_Grow(t *testing.T) {
	a, mem := newAllocator(1, 4)

	ptr, err := a.Allocate(100000)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if mem.Size() < ptr+100000 {
		t.Fatalf("memory not grown: size %d, block end %d", mem.Size(), ptr+100000)
	}
	if err := mem.WriteU8(ptr+99999, 1); err != nil {
		t.Errorf("last byte not writable: %v", err)
	}
}

func TestAllocator_OutOfMemory(t *testing.T) {
	a, mem := newAllocator(1, 1)

	_, err := a.Allocate(2 * memory.PageSize)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindAllocation}) {
		t.Fatalf("Allocate = %v, want allocation error", err)
	}
	if a.Arena().InUse() != 0 || a.Arena().Blocks() != 0 {
		t.Error("failed allocation leaked a block")
	}
	if mem.Size() != memory.PageSize {
		t.Error("failed allocation grew memory")
	}
	if _, err := a.Allocate(0xFFFFFFFF); err == nil {
		t.Error("Allocate(max) should fail")
	}
}

func TestAllocator_Zeroed(t *testing.T) {
	a, mem := newAllocator(1, 1)

	p, _ := a.Allocate(64)
	mem.Write(p, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	a.Free(p)

	z, err := a.AllocateZeroed(64)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := mem.Read(z, 64)
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, b)
		}
	}
}

func TestAllocator_DoubleFreePanics(t *testing.T) {
	a, _ := newAllocator(1, 1)
	p, _ := a.Allocate(16)
	a.Free(p)

	defer func() {
		if r := recover(); r == nil {
			t.Error("double free did not panic")
		}
	}()
	a.Free(p)
}

func TestAllocator_Concurrent(t *testing.T) {
	a, _ := newAllocator(4, 4)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p, err := a.Allocate(uint32(16 + i))
				if err != nil {
					t.Error(err)
					return
				}
				a.Free(p)
			}
		}()
	}
	wg.Wait()
	if a.Arena().InUse() != 0 {
		t.Errorf("InUse = %d after concurrent churn", a.Arena().InUse())
	}
}
