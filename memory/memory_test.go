package memory

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/wippyai/acpica-host/errors"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory"
	0x02, 0x00, // kind: memory, index 0
}

func instantiate(t *testing.T) Memory {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	mod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	mem := Wrap(mod.ExportedMemory("memory"))
	if mem == nil {
		t.Fatal("expected non-nil wrapped memory")
	}
	return mem
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("expected nil for nil memory")
	}
}

func implementations(t *testing.T) map[string]Memory {
	return map[string]Memory{
		"wazero": instantiate(t),
		"flat":   NewFlat(1, 4),
	}
}

func TestMemory_ReadWrite(t *testing.T) {
	for name, mem := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			if err := mem.Write(16, []byte{1, 2, 3, 4}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			got, err := mem.Read(16, 4)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(got) != "\x01\x02\x03\x04" {
				t.Errorf("Read = %v", got)
			}

			if err := mem.WriteU64(64, 0x1122334455667788); err != nil {
				t.Fatal(err)
			}
			v64, _ := mem.ReadU64(64)
			v32, _ := mem.ReadU32(64)
			v16, _ := mem.ReadU16(64)
			v8, _ := mem.ReadU8(64)
			if v64 != 0x1122334455667788 || v32 != 0x55667788 || v16 != 0x7788 || v8 != 0x88 {
				t.Errorf("little-endian reads = %x %x %x %x", v64, v32, v16, v8)
			}
		})
	}
}

func TestMemory_OutOfBounds(t *testing.T) {
	for name, mem := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := mem.ReadU32(PageSize - 2)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindOutOfBounds}) {
				t.Errorf("ReadU32 at end = %v, want out_of_bounds", err)
			}
			if err := mem.Write(PageSize-1, []byte{1, 2}); err == nil {
				t.Error("expected write past end to fail")
			}
		})
	}
}

func TestMemory_Grow(t *testing.T) {
	for name, mem := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			prev, ok := mem.Grow(2)
			if !ok || prev != 1 {
				t.Fatalf("Grow = %d, %v", prev, ok)
			}
			if mem.Size() != 3*PageSize {
				t.Errorf("Size = %d", mem.Size())
			}
			if err := mem.WriteU32(3*PageSize-4, 7); err != nil {
				t.Errorf("write in grown page: %v", err)
			}
		})
	}
}

func TestFlat_GrowLimit(t *testing.T) {
	mem := NewFlat(1, 2)
	if _, ok := mem.Grow(2); ok {
		t.Error("Grow past maximum should fail")
	}
	if mem.Size() != PageSize {
		t.Errorf("failed Grow changed size to %d", mem.Size())
	}
}

func TestCString(t *testing.T) {
	mem := NewFlat(1, 1)
	if err := WriteCString(mem, 100, "\\_SB_.PCI0"); err != nil {
		t.Fatal(err)
	}

	s, err := ReadString(mem, 100, 64)
	if err != nil || s != "\\_SB_.PCI0" {
		t.Errorf("ReadString = %q, %v", s, err)
	}

	if _, err := ReadCString(mem, 100, 4); err == nil {
		t.Error("expected unterminated error when max is too small")
	}
	if _, err := ReadCString(mem, 0, 4); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindNilPointer}) {
		t.Errorf("null pointer = %v", err)
	}

	mem.Write(200, []byte{0xff, 0xfe, 0})
	if _, err := ReadString(mem, 200, 8); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindInvalidUTF8}) {
		t.Errorf("invalid UTF-8 = %v", err)
	}
}
