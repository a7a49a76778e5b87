package acpi

import (
	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/acpica"
)

// DefaultTableCount is the initial size of the root table list.
const DefaultTableCount = 16

// Options configures initialization.
type Options struct {
	// Flags are passed to AcpiEnableSubsystem and AcpiInitializeObjects.
	Flags uint32
	// TableCount sizes the root table list.
	TableCount uint32
	// FixedTableCount forbids growing the root table list.
	FixedTableCount bool
	Logger          *zap.Logger
}

// DefaultOptions returns full initialization with a resizable table list.
func DefaultOptions() Options {
	return Options{
		Flags:      acpica.FullInitialization,
		TableCount: DefaultTableCount,
	}
}

func (o *Options) withDefaults() Options {
	if o == nil {
		return DefaultOptions()
	}
	out := *o
	if out.TableCount == 0 {
		out.TableCount = DefaultTableCount
	}
	return out
}

func (o *Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return Logger()
}
