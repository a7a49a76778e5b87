package table

import (
	"encoding/binary"
	stderrors "errors"
	"testing"

	"github.com/wippyai/acpica-host/errors"
)

func prtRecord(pin uint32, addr uint64, index uint32, source string) []byte {
	n := (prtSourceOff + len(source) + 1 + 7) &^ 7
	rec := make([]byte, n)
	binary.LittleEndian.PutUint32(rec[prtLengthOff:], uint32(n))
	binary.LittleEndian.PutUint32(rec[prtPinOff:], pin)
	binary.LittleEndian.PutUint64(rec[prtAddressOff:], addr)
	binary.LittleEndian.PutUint32(rec[prtSourceIndexOff:], index)
	copy(rec[prtSourceOff:], source)
	return rec
}

func prtBuffer(recs ...[]byte) []byte {
	var out []byte
	for _, r := range recs {
		out = append(out, r...)
	}
	return append(out, make([]byte, 4)...)
}

func TestPRT(t *testing.T) {
	prt := NewPRT(prtBuffer(
		prtRecord(0, 0x0001FFFF, 16, ""),
		prtRecord(3, 0x001FFFFF, 0, `\_SB.LNKD`),
	))

	want := []PRTEntry{
		{Device: 1, Pin: PinA, SourceIndex: 16},
		{Device: 0x1F, Pin: PinD, Source: `\_SB.LNKD`},
	}
	var got []PRTEntry
	for e := range prt.All() {
		got = append(got, e)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if !got[0].Hardwired() || got[1].Hardwired() {
		t.Error("Hardwired mismatch")
	}
	if got[1].Pin.String() != "INTD" {
		t.Errorf("pin = %s", got[1].Pin)
	}
}

func TestPRT_RestartAndCursor(t *testing.T) {
	prt := NewPRT(prtBuffer(
		prtRecord(0, 0x0001FFFF, 1, ""),
		prtRecord(1, 0x0002FFFF, 2, ""),
	))

	it := prt.Iter()
	first, _ := it.Next()
	second, _ := it.Next()
	if first.SourceIndex != 1 || second.SourceIndex != 2 {
		t.Fatalf("cursor order = %d, %d", first.SourceIndex, second.SourceIndex)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("cursor did not stop at the terminator")
	}

	for range 2 {
		n := 0
		for range prt.All() {
			n++
		}
		if n != 2 {
			t.Fatalf("All() yielded %d entries", n)
		}
	}
}

func TestPRT_Termination(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"empty", nil, 0},
		{"only terminator", make([]byte, 4), 0},
		{"no terminator", prtRecord(0, 0xFFFF, 0, ""), 1},
		{"data after terminator", append(prtBuffer(prtRecord(0, 0xFFFF, 0, "")), prtRecord(1, 0xFFFF, 0, "")...), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 0
			for range NewPRT(tt.data).All() {
				n++
			}
			if n != tt.want {
				t.Errorf("got %d entries, want %d", n, tt.want)
			}
		})
	}
}

func TestPRT_Fatal(t *testing.T) {
	bad := prtRecord(0, 0x0001FFFF, 0, "ABCD")
	bad[prtSourceOff+1] = 0xFF

	tests := []struct {
		name string
		rec  []byte
		kind errors.Kind
	}{
		{"pin out of range", prtRecord(4, 0x0001FFFF, 0, ""), errors.KindInternal},
		{"function not wildcard", prtRecord(0, 0x00010000, 0, ""), errors.KindInternal},
		{"invalid utf8 source", bad, errors.KindInvalidUTF8},
		{"length past end", append([]byte{0xFF, 0, 0, 0}, make([]byte, 20)...), errors.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok {
					t.Fatalf("recovered %v, want error", r)
				}
				var e *errors.Error
				if !stderrors.As(err, &e) || e.Kind != tt.kind {
					t.Fatalf("recovered %v", err)
				}
			}()
			NewPRT(prtBuffer(tt.rec)).Iter().Next()
		})
	}
}

func TestBuildPRT(t *testing.T) {
	entries := []PRTEntry{
		{Device: 1, Pin: PinA, SourceIndex: 16},
		{Device: 2, Pin: PinC, Source: `\_SB.LNKC`},
	}
	raw := BuildPRT(entries)
	if len(raw) != 24+32+4 {
		t.Fatalf("len = %d", len(raw))
	}

	var got []PRTEntry
	for e := range NewPRT(raw).All() {
		got = append(got, e)
	}
	if len(got) != 2 || got[0] != entries[0] || got[1] != entries[1] {
		t.Fatalf("entries = %+v", got)
	}
	if !got[0].Hardwired() || got[1].Hardwired() {
		t.Error("Hardwired")
	}
}
