package table

import (
	"testing"
)

func TestFinalizeChecksum(t *testing.T) {
	b := BuildSDT("SSDT", 2, []byte{1, 2, 3, 4, 5})
	if Checksum(b) != 0 {
		t.Fatalf("checksum = %d, want 0", Checksum(b))
	}
	h, err := ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if h.Sig() != "SSDT" || h.Length != uint32(len(b)) || h.Revision != 2 {
		t.Errorf("header = %+v", h)
	}
	if h.OEM() != "WIPPY" {
		t.Errorf("OEM() = %q", h.OEM())
	}
}

func TestParseHeader_Short(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 10)); err == nil {
		t.Fatal("expected error")
	}
}

func TestRSDP(t *testing.T) {
	b := BuildRSDP(0x1234_5678_9000)
	if len(b) != RSDPSize {
		t.Fatalf("len = %d", len(b))
	}
	r, err := ParseRSDP(b)
	if err != nil {
		t.Fatal(err)
	}
	if r.Revision != 2 || r.XSDTAddr != 0x1234_5678_9000 || r.Length != RSDPSize {
		t.Errorf("rsdp = %+v", r)
	}
	if !r.Valid(b) {
		t.Error("built RSDP does not validate")
	}

	b[20]++
	if r.Valid(b) {
		t.Error("corrupted extended area validated")
	}
}

func TestRSDP_V1(t *testing.T) {
	b := make([]byte, 20)
	copy(b, RSDPSignature)
	b[15] = 0
	b[16] = 0x00
	b[17] = 0x10
	b[8] = -Checksum(b)

	r, err := ParseRSDP(b)
	if err != nil {
		t.Fatal(err)
	}
	if r.RSDTAddr != 0x1000 || r.XSDTAddr != 0 {
		t.Errorf("rsdp = %+v", r)
	}
	if !r.Valid(b) {
		t.Error("v1 RSDP does not validate")
	}
}

func TestParseRSDP_BadSignature(t *testing.T) {
	if _, err := ParseRSDP(make([]byte, 36)); err == nil {
		t.Fatal("expected error")
	}
}

func TestRootEntries(t *testing.T) {
	want := []uint64{0x1000, 0x2000, 0xFFFF_0000_0000}
	got, err := RootEntries(BuildXSDT(want))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = 0x%x, want 0x%x", i, got[i], want[i])
		}
	}

	rsdt := BuildSDT("RSDT", 1, []byte{0x00, 0x10, 0, 0, 0x00, 0x20, 0, 0})
	got, err = RootEntries(rsdt)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 0x1000 || got[1] != 0x2000 {
		t.Errorf("rsdt entries = %x", got)
	}
}
