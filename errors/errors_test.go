package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseTables,
				Kind:   KindStateConsumed,
				Op:     "AcpiLoadTables",
				Detail: "token reused",
			},
			contains: []string{"[tables]", "state_consumed", "in AcpiLoadTables", "token reused"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMemory,
				Kind:   KindAllocation,
				Detail: "heap exhausted",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[memory]", "allocation", "heap exhausted", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseHost,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseNamespace,
		Kind:   KindBufferUnchanged,
		Detail: "AcpiGetName",
	}

	if !err.Is(&Error{Phase: PhaseNamespace, Kind: KindBufferUnchanged}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindBufferUnchanged}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseNamespace, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseNamespace, Kind: KindBufferUnchanged}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseHost, KindUnsupported).
		Op("AcpiOsReadPort").
		Value(0x64).
		Cause(cause).
		Detail("port %#x width %d", 0x64, 8).
		Build()

	if err.Phase != PhaseHost {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseHost)
	}
	if err.Kind != KindUnsupported {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
	}
	if err.Op != "AcpiOsReadPort" {
		t.Errorf("Op = %v, want AcpiOsReadPort", err.Op)
	}
	if err.Value != 0x64 {
		t.Errorf("Value = %v, want 0x64", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "port 0x64 width 8" {
		t.Errorf("Detail = %q, want 'port 0x64 width 8'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("InvalidUTF8", func(t *testing.T) {
		err := InvalidUTF8(PhaseDecode, "_PRT", []byte{0xff, 0xfe})
		if err.Kind != KindInvalidUTF8 {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidUTF8)
		}
		if !strings.Contains(err.Detail, "fffe") {
			t.Errorf("Detail = %q, should contain preview", err.Detail)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseMemory, 1024)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseMemory, 0x10000, 4)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != uint32(0x10000) {
			t.Errorf("Value = %v, want 0x10000", err.Value)
		}
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		err := InvalidHandle(PhaseHost, "semaphore", 7)
		if err.Kind != KindInvalidHandle {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidHandle)
		}
	})

	t.Run("StateConsumed", func(t *testing.T) {
		err := StateConsumed("AcpiLoadTables")
		if !errors.Is(err, &Error{Phase: PhaseTables, Kind: KindStateConsumed}) {
			t.Errorf("StateConsumed should match tables/state_consumed, got %v", err)
		}
	})
}

func TestFatal(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*Error)
		if !ok {
			t.Fatalf("recovered %T, want *Error", r)
		}
		if err.Kind != KindInternal || err.Op != "AcpiOsVprintf" {
			t.Errorf("unexpected fatal error %v", err)
		}
	}()
	Fatal(PhaseFormat, "AcpiOsVprintf", "unsupported conversion %q", 'f')
}

func TestMissingExportsError(t *testing.T) {
	t.Run("lists every export", func(t *testing.T) {
		err := &MissingExportsError{Module: "acpica", Exports: []string{"AcpiLoadTables", "__heap_base"}}
		msg := err.Error()
		for _, s := range []string{"acpica", "2 export", "AcpiLoadTables", "__heap_base"} {
			if !strings.Contains(msg, s) {
				t.Errorf("error %q should contain %q", msg, s)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := &MissingExportsError{}
		if !strings.Contains(err.Error(), "no exports specified") {
			t.Errorf("empty error should have specific message, got: %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		var err error = &MissingExportsError{Exports: []string{"memory"}}
		if !errors.Is(err, &MissingExportsError{}) {
			t.Error("errors.Is should match MissingExportsError")
		}
	})
}
