package acpica

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/osl"
)

// bareWASM exports memory and __heap_base and nothing else.
var bareWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page
	0x06, 0x07, 0x01, 0x7f, 0x00, 0x41, 0x80, 0x08, 0x0b, // global: i32 const 1024
	0x07, 0x18, 0x02, // export section: 24 bytes, 2 exports
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, // "memory"
	0x0b, 0x5f, 0x5f, 0x68, 0x65, 0x61, 0x70, 0x5f, 0x62, 0x61, 0x73, 0x65, 0x03, 0x00, // "__heap_base"
}

func TestInstantiate_MissingExports(t *testing.T) {
	ctx := context.Background()
	_, err := Instantiate(ctx, bareWASM, osl.New(nil), &Config{ModuleName: "bare"})

	var missing *errors.MissingExportsError
	if !stderrors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingExportsError", err)
	}
	if missing.Module != "bare" {
		t.Errorf("module = %q", missing.Module)
	}
	if len(missing.Exports) != len(RequiredExports) {
		t.Errorf("missing %d exports, want %d: %v", len(missing.Exports), len(RequiredExports), missing.Exports)
	}
	for _, name := range missing.Exports {
		if name == exportMemory {
			t.Error("memory reported missing")
		}
	}
}

func TestInstantiate_InvalidModule(t *testing.T) {
	ctx := context.Background()
	_, err := Load([]byte("not wasm"), nil)(ctx, osl.New(nil))

	var e *errors.Error
	if !stderrors.As(err, &e) || e.Phase != errors.PhaseLoad {
		t.Fatalf("err = %v, want a load error", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(t.TempDir()+"/acpica.wasm", nil)(context.Background(), osl.New(nil))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestConfig_ModuleName(t *testing.T) {
	var nilCfg *Config
	tests := []struct {
		cfg  *Config
		want string
	}{
		{nilCfg, DefaultModuleName},
		{&Config{}, DefaultModuleName},
		{&Config{ModuleName: "fw"}, "fw"},
	}
	for _, tt := range tests {
		if got := tt.cfg.moduleName(); got != tt.want {
			t.Errorf("moduleName() = %q, want %q", got, tt.want)
		}
	}
}
