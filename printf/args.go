package printf

import (
	"strings"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
)

// MaxString bounds how far a %s argument is scanned for its terminator.
const MaxString = 4096

var nullString = []byte("(null)")

// VaList is a wasm32 va_list: a pointer to consecutive 4-byte argument slots.
type VaList struct {
	Mem memory.Memory
	Ptr memory.Ptr
}

func (v *VaList) next() uint32 {
	word, err := v.Mem.ReadU32(v.Ptr)
	if err != nil {
		errors.Fatal(errors.PhaseFormat, "va_arg", "argument slot 0x%x: %v", v.Ptr, err)
	}
	v.Ptr += 4
	return word
}

func (v *VaList) Int() int32      { return int32(v.next()) }
func (v *VaList) Uint() uint32    { return v.next() }
func (v *VaList) Pointer() uint32 { return v.next() }

func (v *VaList) String() []byte {
	ptr := v.next()
	if ptr == 0 {
		return nullString
	}
	s, err := memory.ReadCString(v.Mem, ptr, MaxString)
	if err != nil {
		errors.Fatal(errors.PhaseFormat, "va_arg", "string argument 0x%x: %v", ptr, err)
	}
	return s
}

type valueKind uint8

const (
	kindInt valueKind = iota
	kindUint
	kindPointer
	kindString
)

func (k valueKind) String() string {
	return [...]string{"int", "unsigned int", "pointer", "string"}[k]
}

// Value is one pre-materialised variadic argument.
type Value struct {
	s    string
	n    uint32
	kind valueKind
}

// Int returns a signed int argument. Characters are passed as Int.
func Int(v int32) Value { return Value{kind: kindInt, n: uint32(v)} }

// Uint returns an unsigned int argument.
func Uint(v uint32) Value { return Value{kind: kindUint, n: v} }

// Pointer returns a pointer argument.
func Pointer(v uint32) Value { return Value{kind: kindPointer, n: v} }

// Str returns a string argument.
func Str(s string) Value { return Value{kind: kindString, s: s} }

// Values serves arguments from a slice in order.
type Values struct {
	list []Value
	pos  int
}

// NewValues creates a cursor over vals.
func NewValues(vals ...Value) *Values {
	return &Values{list: vals}
}

// Remaining returns the number of arguments not yet consumed.
func (v *Values) Remaining() int { return len(v.list) - v.pos }

func (v *Values) take(want string, ok func(valueKind) bool) Value {
	if v.pos >= len(v.list) {
		errors.Fatal(errors.PhaseFormat, "va_arg", "argument %d missing, format wants %s", v.pos+1, want)
	}
	val := v.list[v.pos]
	if !ok(val.kind) {
		errors.Fatal(errors.PhaseFormat, "va_arg", "argument %d is %v, format wants %s", v.pos+1, val.kind, want)
	}
	v.pos++
	return val
}

func isInteger(k valueKind) bool { return k != kindString }

func (v *Values) Int() int32      { return int32(v.take("int", isInteger).n) }
func (v *Values) Uint() uint32    { return v.take("unsigned int", isInteger).n }
func (v *Values) Pointer() uint32 { return v.take("pointer", isInteger).n }

func (v *Values) String() []byte {
	return []byte(v.take("string", func(k valueKind) bool { return k == kindString }).s)
}

// Sprintf formats vals according to format and returns the result.
func Sprintf(format string, vals ...Value) string {
	var b strings.Builder
	Fprintf(&b, []byte(format), NewValues(vals...))
	return b.String()
}
