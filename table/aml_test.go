package table

import (
	"bytes"
	"testing"
)

func TestAMLInteger(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{0x42, []byte{0x0a, 0x42}},
		{0x1234, []byte{0x0b, 0x34, 0x12}},
		{0x0001FFFF, []byte{0x0c, 0xff, 0xff, 0x01, 0x00}},
		{1 << 32, []byte{0x0e, 0, 0, 0, 0, 1, 0, 0, 0}},
	}
	for _, tt := range tests {
		if got := AMLInteger(tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("AMLInteger(0x%x) = % x, want % x", tt.v, got, tt.want)
		}
	}
}

func TestEISAID(t *testing.T) {
	tests := map[string]uint32{
		"PNP0A03": 0x030AD041,
		"PNP0A08": 0x080AD041,
		"PNP0C0F": 0x0F0CD041,
		"bad":     0,
	}
	for id, want := range tests {
		if got := EISAID(id); got != want {
			t.Errorf("EISAID(%q) = 0x%08x, want 0x%08x", id, got, want)
		}
	}
}

func TestNameString(t *testing.T) {
	tests := []struct {
		path string
		want []byte
	}{
		{"_HID", []byte("_HID")},
		{"PCI", []byte("PCI_")},
		{`\_SB`, append([]byte{'\\'}, "_SB_"...)},
		{`\_SB.PCI0`, append([]byte{'\\', 0x2e}, "_SB_PCI0"...)},
		{`\_SB.PCI0.ISA`, append([]byte{'\\', 0x2f, 3}, "_SB_PCI0ISA_"...)},
		{`^^LNKA`, append([]byte{'^', '^'}, "LNKA"...)},
		{`\`, []byte{'\\', 0}},
	}
	for _, tt := range tests {
		if got := nameString(tt.path); !bytes.Equal(got, tt.want) {
			t.Errorf("nameString(%q) = % x, want % x", tt.path, got, tt.want)
		}
	}
}

func TestPkgLength(t *testing.T) {
	tests := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0x01}},
		{0x3e, []byte{0x3f}},
		{0x3f, []byte{0x41, 0x04}},
		{0x1000, []byte{0x83, 0x00, 0x01}},
	}
	for _, tt := range tests {
		got := withPkgLength(nil, make([]byte, tt.n))
		if !bytes.Equal(got[:len(tt.want)], tt.want) || len(got) != tt.n+len(tt.want) {
			t.Errorf("pkgLength(%d) = % x", tt.n, got[:len(tt.want)])
		}
	}
}

func TestAMLDevice(t *testing.T) {
	dev := AMLDevice("LNKA", AMLName("_HID", AMLInteger(uint64(EISAID("PNP0C0F")))))
	want := []byte{0x5b, 0x82, 0x0f, 'L', 'N', 'K', 'A', 0x08, '_', 'H', 'I', 'D', 0x0c, 0x41, 0xd0, 0x0c, 0x0f}
	if !bytes.Equal(dev, want) {
		t.Errorf("device = % x\nwant     % x", dev, want)
	}

	dsdt := BuildDSDT(AMLScope(`\_SB`, dev))
	if Checksum(dsdt) != 0 {
		t.Error("DSDT checksum")
	}
	h, _ := ParseHeader(dsdt)
	if h.Sig() != "DSDT" || int(h.Length) != len(dsdt) {
		t.Errorf("header = %+v", h)
	}
}

func TestAMLPackageAndMethod(t *testing.T) {
	pkg := AMLPackage(AMLInteger(0x0001FFFF), AMLInteger(0), AMLInteger(0), AMLInteger(16))
	want := []byte{0x12, 0x0b, 0x04, 0x0c, 0xff, 0xff, 0x01, 0x00, 0x00, 0x00, 0x0a, 0x10}
	if !bytes.Equal(pkg, want) {
		t.Errorf("package = % x, want % x", pkg, want)
	}

	m := AMLMethod("_STA", 0, AMLInteger(0x0F))
	want = []byte{0x14, 0x09, '_', 'S', 'T', 'A', 0x00, 0xa4, 0x0a, 0x0f}
	if !bytes.Equal(m, want) {
		t.Errorf("method = % x, want % x", m, want)
	}
}
