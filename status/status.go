package status

import (
	stderrors "errors"
	"fmt"

	"github.com/wippyai/acpica-host/errors"
)

// Status is the raw native status word.
type Status uint32

// OK is the success status.
const OK Status = 0

// Class partitions error codes by origin.
type Class uint8

const (
	ClassEnvironmental Class = 0
	ClassProgrammer    Class = 1
	ClassAcpiTables    Class = 2
	ClassAml           Class = 3
	ClassControl       Class = 4
	ClassUnknown       Class = 0xFF
)

func (c Class) String() string {
	switch c {
	case ClassEnvironmental:
		return "environmental"
	case ClassProgrammer:
		return "programmer"
	case ClassAcpiTables:
		return "acpi_tables"
	case ClassAml:
		return "aml"
	case ClassControl:
		return "control"
	default:
		return "unknown"
	}
}

// ErrorCode is a non-success status. Every defined value equals its wire encoding.
type ErrorCode uint32

// Unknown stands for any code outside the defined tables.
const Unknown ErrorCode = 0xFFFF_FFFF

const (
	classMask = 0xF000
	codeMask  = 0x0FFF
)

// Class returns the class the code belongs to.
func (c ErrorCode) Class() Class {
	if !c.defined() {
		return ClassUnknown
	}
	return Class((uint32(c) & classMask) >> 12)
}

// Code returns the class-relative code.
func (c ErrorCode) Code() uint16 {
	return uint16(uint32(c) & codeMask)
}

func (c ErrorCode) String() string {
	if !c.defined() {
		return "AE_UNKNOWN"
	}
	return classNames[(uint32(c)&classMask)>>12][uint32(c)&codeMask]
}

// Err returns the code as an error value.
func (c ErrorCode) Err() *Error {
	return &Error{Code: c, Raw: Encode(c)}
}

func (c ErrorCode) defined() bool {
	v := uint32(c)
	if v == 0 || v > 0xFFFF {
		return false
	}
	cls := (v & classMask) >> 12
	if int(cls) >= len(classNames) {
		return false
	}
	code := v & codeMask
	return code != 0 && int(code) < len(classNames[cls])
}

// Decode converts a native status word into an error. It returns nil for OK.
func Decode(raw uint32) error {
	if raw == uint32(OK) {
		return nil
	}
	code := ErrorCode(raw)
	if !code.defined() {
		code = Unknown
	}
	return &Error{Code: code, Raw: raw}
}

// DecodeOp is Decode with the native operation name attached to a failure.
func DecodeOp(op string, raw uint32) error {
	err := Decode(raw)
	if err == nil {
		return nil
	}
	e := err.(*Error)
	e.Op = op
	return e
}

// Encode converts an error code into its native status word. Unknown encodes as AE_ERROR.
func Encode(c ErrorCode) uint32 {
	if !c.defined() {
		return uint32(AeError)
	}
	return uint32(c)
}

// Error is a failed native status.
type Error struct {
	Op   string
	Code ErrorCode
	Raw  uint32
}

func (e *Error) Error() string {
	name := e.Code.String()
	if e.Code == Unknown {
		name = fmt.Sprintf("AE_UNKNOWN(0x%04x)", e.Raw)
	}
	if e.Op == "" {
		return name
	}
	return e.Op + ": " + name
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for the codes the binding layer produces itself.
var (
	ErrNoMemory     = NoMemory.Err()
	ErrNotFound     = NotFound.Err()
	ErrBadParameter = BadParameter.Err()
	ErrSupport      = Support.Err()
	ErrTime         = Time.Err()
	ErrLimit        = Limit.Err()
	ErrNotExist     = NotExist.Err()
	ErrAlreadyExist = AlreadyExists.Err()
)

// CodeOf extracts the error code of err, or Unknown when err carries none.
func CodeOf(err error) ErrorCode {
	var se *Error
	if stderrors.As(err, &se) {
		return se.Code
	}
	return Unknown
}

// FromError maps any error onto the status word returned to the native side.
func FromError(err error) uint32 {
	if err == nil {
		return uint32(OK)
	}
	var se *Error
	if stderrors.As(err, &se) {
		return Encode(se.Code)
	}
	var be *errors.Error
	if stderrors.As(err, &be) {
		return Encode(kindCode(be.Kind))
	}
	return uint32(AeError)
}

func kindCode(k errors.Kind) ErrorCode {
	switch k {
	case errors.KindAllocation:
		return NoMemory
	case errors.KindUnsupported:
		return Support
	case errors.KindNotFound:
		return NotFound
	case errors.KindInvalidInput, errors.KindInvalidHandle, errors.KindNilPointer:
		return BadParameter
	case errors.KindOutOfBounds:
		return BadAddress
	case errors.KindTimeout:
		return Time
	case errors.KindLimit:
		return Limit
	case errors.KindInvalidData, errors.KindInvalidUTF8:
		return BadData
	default:
		return AeError
	}
}
