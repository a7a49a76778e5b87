package acpica

// DefaultModuleName is the instance name used when Config.ModuleName is empty.
const DefaultModuleName = "acpica"

// Config holds configuration for loading the native module.
type Config struct {
	// MemoryLimitPages caps the native linear memory in 64 KiB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// EnableWASI instantiates wasi_snapshot_preview1 for builds linked
	// against wasi-libc.
	EnableWASI bool

	// ModuleName names the instance inside the runtime.
	ModuleName string
}

func (c *Config) moduleName() string {
	if c == nil || c.ModuleName == "" {
		return DefaultModuleName
	}
	return c.ModuleName
}
