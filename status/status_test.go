package status

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/wippyai/acpica-host/errors"
)

func definedCodes() []ErrorCode {
	var codes []ErrorCode
	for cls, names := range classNames {
		for code := 1; code < len(names); code++ {
			codes = append(codes, ErrorCode(uint32(cls)<<12|uint32(code)))
		}
	}
	return codes
}

func TestDecodeOK(t *testing.T) {
	if err := Decode(0); err != nil {
		t.Fatalf("Decode(0) = %v, want nil", err)
	}
}

func TestRoundTrip(t *testing.T) {
	codes := definedCodes()
	if len(codes) != 0x23+9+5+0x25+0xC {
		t.Fatalf("defined codes = %d", len(codes))
	}
	for _, c := range codes {
		err := Decode(Encode(c))
		if got := CodeOf(err); got != c {
			t.Errorf("Decode(Encode(%v)) = %v", c, got)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		raw   uint32
		code  ErrorCode
		class Class
		name  string
	}{
		{0x0001, AeError, ClassEnvironmental, "AE_ERROR"},
		{0x0004, NoMemory, ClassEnvironmental, "AE_NO_MEMORY"},
		{0x0023, EndOfTable, ClassEnvironmental, "AE_END_OF_TABLE"},
		{0x1001, BadParameter, ClassProgrammer, "AE_BAD_PARAMETER"},
		{0x2003, BadChecksum, ClassAcpiTables, "AE_BAD_CHECKSUM"},
		{0x3025, AmlBufferLength, ClassAml, "AE_AML_BUFFER_LENGTH"},
		{0x4003, CtrlTerminate, ClassControl, "AE_CTRL_TERMINATE"},
		{0x0024, Unknown, ClassUnknown, "AE_UNKNOWN"},
		{0x1000, Unknown, ClassUnknown, "AE_UNKNOWN"},
		{0x5001, Unknown, ClassUnknown, "AE_UNKNOWN"},
		{0x1_0004, Unknown, ClassUnknown, "AE_UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("0x%x", tt.raw), func(t *testing.T) {
			err := Decode(tt.raw)
			var se *Error
			if !stderrors.As(err, &se) {
				t.Fatalf("Decode returned %T", err)
			}
			if se.Code != tt.code {
				t.Errorf("code = %v, want %v", se.Code, tt.code)
			}
			if se.Code.Class() != tt.class {
				t.Errorf("class = %v, want %v", se.Code.Class(), tt.class)
			}
			if se.Code.String() != tt.name {
				t.Errorf("name = %q, want %q", se.Code.String(), tt.name)
			}
			if se.Raw != tt.raw {
				t.Errorf("raw = 0x%x, want 0x%x", se.Raw, tt.raw)
			}
		})
	}
}

func TestEncodeUnknown(t *testing.T) {
	if got := Encode(Unknown); got != uint32(AeError) {
		t.Errorf("Encode(Unknown) = 0x%x, want AE_ERROR", got)
	}
	if got := FromError(stderrors.New("opaque")); got != uint32(AeError) {
		t.Errorf("FromError(opaque) = 0x%x, want AE_ERROR", got)
	}
}

func TestErrorMessage(t *testing.T) {
	err := DecodeOp("AcpiLoadTables", 0x2001)
	if err.Error() != "AcpiLoadTables: AE_BAD_SIGNATURE" {
		t.Errorf("message = %q", err.Error())
	}
	unknown := Decode(0x0FFF)
	if unknown.Error() != "AE_UNKNOWN(0x0fff)" {
		t.Errorf("unknown message = %q", unknown.Error())
	}
	if !stderrors.Is(err, &Error{Code: BadSignature}) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, ErrNotFound) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want uint32
	}{
		{"nil", nil, 0},
		{"status", ErrTime, 0x0011},
		{"wrapped status", fmt.Errorf("wait: %w", ErrLimit), 0x0010},
		{"allocation", errors.AllocationFailed(errors.PhaseMemory, 16), 0x0004},
		{"unsupported", errors.Unsupported(errors.PhaseHost, "pci"), 0x000F},
		{"invalid handle", errors.InvalidHandle(errors.PhaseHost, "lock", 3), 0x1001},
		{"out of bounds", errors.OutOfBounds(errors.PhaseMemory, 1, 1), 0x1009},
		{"plain", stderrors.New("boom"), 0x0001},
		{"unknown status", Decode(0x7777), 0x0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err); got != tt.want {
				t.Errorf("FromError = 0x%x, want 0x%x", got, tt.want)
			}
		})
	}
}
