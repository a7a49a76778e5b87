package table

import (
	"encoding/binary"
	"strings"
)

// AML opcodes used by the encoder.
const (
	amlZero         = 0x00
	amlOne          = 0x01
	amlName         = 0x08
	amlBytePrefix   = 0x0a
	amlWordPrefix   = 0x0b
	amlDwordPrefix  = 0x0c
	amlStringPrefix = 0x0d
	amlQwordPrefix  = 0x0e
	amlScope        = 0x10
	amlPackage      = 0x12
	amlMethod       = 0x14
	amlDualName     = 0x2e
	amlMultiName    = 0x2f
	amlExtPrefix    = 0x5b
	amlRootChar     = 0x5c
	amlParentChar   = 0x5e
	amlReturn       = 0xa4
	amlDevice       = 0x82
)

// The encoder below emits just enough AML for synthetic DSDTs: named
// integers, strings and packages, devices, scopes and constant methods.

// AMLInteger encodes v with the smallest integer prefix.
func AMLInteger(v uint64) []byte {
	switch {
	case v == 0:
		return []byte{amlZero}
	case v == 1:
		return []byte{amlOne}
	case v <= 0xff:
		return []byte{amlBytePrefix, byte(v)}
	case v <= 0xffff:
		return binary.LittleEndian.AppendUint16([]byte{amlWordPrefix}, uint16(v))
	case v <= 0xffffffff:
		return binary.LittleEndian.AppendUint32([]byte{amlDwordPrefix}, uint32(v))
	}
	return binary.LittleEndian.AppendUint64([]byte{amlQwordPrefix}, v)
}

// AMLString encodes a string constant.
func AMLString(s string) []byte {
	out := append([]byte{amlStringPrefix}, s...)
	return append(out, 0)
}

// AMLPackage encodes a fixed package of encoded elements.
func AMLPackage(elems ...[]byte) []byte {
	body := []byte{byte(len(elems))}
	for _, e := range elems {
		body = append(body, e...)
	}
	return withPkgLength([]byte{amlPackage}, body)
}

// AMLName encodes Name(name, value).
func AMLName(name string, value []byte) []byte {
	out := append([]byte{amlName}, nameString(name)...)
	return append(out, value...)
}

// AMLScope encodes Scope(path) { terms }.
func AMLScope(path string, terms ...[]byte) []byte {
	return withPkgLength([]byte{amlScope}, append(nameString(path), concat(terms)...))
}

// AMLDevice encodes Device(name) { terms }.
func AMLDevice(name string, terms ...[]byte) []byte {
	return withPkgLength([]byte{amlExtPrefix, amlDevice}, append(nameString(name), concat(terms)...))
}

// AMLMethod encodes a serialized-free method returning value.
func AMLMethod(name string, args uint8, value []byte) []byte {
	body := append(nameString(name), args&0x7)
	body = append(body, amlReturn)
	return withPkgLength([]byte{amlMethod}, append(body, value...))
}

// EISAID compresses a seven character PNP ID such as "PNP0A03" into its
// 32-bit encoding.
func EISAID(id string) uint32 {
	if len(id) != 7 {
		return 0
	}
	vendor := uint16(id[0]-0x40)&0x1f<<10 | uint16(id[1]-0x40)&0x1f<<5 | uint16(id[2]-0x40)&0x1f
	var product uint16
	for _, c := range []byte(id[3:]) {
		product = product<<4 | uint16(hexNibble(c))
	}
	return uint32(vendor>>8) | uint32(vendor&0xff)<<8 | uint32(product>>8)<<16 | uint32(product&0xff)<<24
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return 0
}

func concat(parts [][]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// nameString encodes a path like `\_SB.PCI0` or `_HID`. Segments shorter
// than four characters are padded with underscores.
func nameString(path string) []byte {
	var out []byte
	for strings.HasPrefix(path, `\`) || strings.HasPrefix(path, "^") {
		if path[0] == '\\' {
			out = append(out, amlRootChar)
		} else {
			out = append(out, amlParentChar)
		}
		path = path[1:]
	}
	if path == "" {
		return append(out, amlZero)
	}
	segs := strings.Split(path, ".")
	switch len(segs) {
	case 1:
	case 2:
		out = append(out, amlDualName)
	default:
		out = append(out, amlMultiName, byte(len(segs)))
	}
	for _, s := range segs {
		seg := []byte("____")
		copy(seg, s)
		out = append(out, seg...)
	}
	return out
}

// withPkgLength appends the PkgLength of body (which counts its own bytes)
// and body to op.
func withPkgLength(op, body []byte) []byte {
	n := len(body)
	var enc []byte
	switch {
	case n+1 < 0x40:
		enc = []byte{byte(n + 1)}
	case n+2 < 0x1000:
		t := n + 2
		enc = []byte{0x40 | byte(t&0xf), byte(t >> 4)}
	case n+3 < 0x100000:
		t := n + 3
		enc = []byte{0x80 | byte(t&0xf), byte(t >> 4), byte(t >> 12)}
	default:
		t := n + 4
		enc = []byte{0xc0 | byte(t&0xf), byte(t >> 4), byte(t >> 12), byte(t >> 20)}
	}
	out := append(op, enc...)
	return append(out, body...)
}
