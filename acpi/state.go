package acpi

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/acpica"
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/status"
)

// ErrStateConsumed is returned when an initialization state is used twice.
var ErrStateConsumed = errors.StateConsumed("")

var registered atomic.Bool

// subsystem is shared by every state of one registration.
type subsystem struct {
	native acpica.Native
	d      *osl.Dispatcher
	opts   Options
	log    *zap.Logger
}

func (s *subsystem) check(op string, st status.Status) error {
	err := status.DecodeOp(op, uint32(st))
	if err != nil {
		s.log.Debug("native call failed", zap.String("op", op), zap.Error(err))
	}
	return err
}

type state struct {
	sys  *subsystem
	used atomic.Bool
}

func (s *state) consume(op string) error {
	if s == nil || s.sys == nil {
		return errors.NotInitialized(errors.PhaseTables, "subsystem")
	}
	if !s.used.CompareAndSwap(false, true) {
		return errors.StateConsumed(op)
	}
	return nil
}

// Registered is a subsystem whose OS layer is registered and whose global
// state is initialized.
type Registered struct{ state }

// TablesInitialized has a root table list built from the RSDP.
type TablesInitialized struct{ state }

// TablesLoaded has its definition blocks loaded into the namespace.
type TablesLoaded struct{ state }

// SubsystemEnabled runs in ACPI mode with its handlers installed.
type SubsystemEnabled struct{ state }

// Ready is a fully initialized subsystem.
type Ready struct{ state }

// Register creates the dispatcher serving host, loads the native module
// and initializes the subsystem. It panics when called a second time in
// the same process, whether or not the first call succeeded.
func Register(ctx context.Context, host osl.Host, load acpica.Loader, opts *Options) (*Registered, error) {
	if !registered.CompareAndSwap(false, true) {
		panic(errors.New(errors.PhaseRegister, errors.KindInternal).
			Op("Register").
			Detail("the OS interface is already registered").
			Build())
	}
	if load == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "no native loader")
	}

	o := opts.withDefaults()
	sys := &subsystem{d: osl.New(host), opts: o, log: o.logger()}
	native, err := load(ctx, sys.d)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRegister, errors.KindInstantiation, err, "load native subsystem")
	}
	sys.native = native

	if err := sys.check("AcpiInitializeSubsystem", native.InitializeSubsystem(ctx)); err != nil {
		native.Close(ctx)
		sys.d.Close()
		return nil, err
	}
	sys.log.Info("ACPI subsystem registered")
	return &Registered{state{sys: sys}}, nil
}

// InitializeTables locates the root pointer and builds the table list.
func (r *Registered) InitializeTables(ctx context.Context) (*TablesInitialized, error) {
	if err := r.consume("InitializeTables"); err != nil {
		return nil, err
	}
	sys := r.sys
	st := sys.native.InitializeTables(ctx, sys.opts.TableCount, !sys.opts.FixedTableCount)
	if err := sys.check("AcpiInitializeTables", st); err != nil {
		return nil, err
	}
	sys.log.Debug("tables initialized")
	return &TablesInitialized{state{sys: sys}}, nil
}

// LoadTables loads the DSDT and SSDTs into the namespace.
func (t *TablesInitialized) LoadTables(ctx context.Context) (*TablesLoaded, error) {
	if err := t.consume("LoadTables"); err != nil {
		return nil, err
	}
	if err := t.sys.check("AcpiLoadTables", t.sys.native.LoadTables(ctx)); err != nil {
		return nil, err
	}
	t.sys.log.Debug("tables loaded")
	return &TablesLoaded{state{sys: t.sys}}, nil
}

// EnableSubsystem switches to ACPI mode and installs the fixed handlers.
func (t *TablesLoaded) EnableSubsystem(ctx context.Context) (*SubsystemEnabled, error) {
	if err := t.consume("EnableSubsystem"); err != nil {
		return nil, err
	}
	if err := t.sys.check("AcpiEnableSubsystem", t.sys.native.EnableSubsystem(ctx, t.sys.opts.Flags)); err != nil {
		return nil, err
	}
	t.sys.log.Debug("subsystem enabled", zap.Uint32("flags", t.sys.opts.Flags))
	return &SubsystemEnabled{state{sys: t.sys}}, nil
}

// InitializeObjects runs device and object initialization.
func (s *SubsystemEnabled) InitializeObjects(ctx context.Context) (*Ready, error) {
	if err := s.consume("InitializeObjects"); err != nil {
		return nil, err
	}
	if err := s.sys.check("AcpiInitializeObjects", s.sys.native.InitializeObjects(ctx, s.sys.opts.Flags)); err != nil {
		return nil, err
	}
	s.sys.log.Info("ACPI subsystem ready")
	return &Ready{state{sys: s.sys}}, nil
}

// Initialize drives a registered subsystem through every stage.
func Initialize(ctx context.Context, r *Registered) (*Ready, error) {
	ti, err := r.InitializeTables(ctx)
	if err != nil {
		return nil, err
	}
	tl, err := ti.LoadTables(ctx)
	if err != nil {
		return nil, err
	}
	se, err := tl.EnableSubsystem(ctx)
	if err != nil {
		return nil, err
	}
	return se.InitializeObjects(ctx)
}

// Terminate shuts the subsystem down and releases the native instance. The
// process cannot register again.
func (r *Ready) Terminate(ctx context.Context) error {
	if err := r.consume("Terminate"); err != nil {
		return err
	}
	err := r.sys.check("AcpiTerminate", r.sys.native.Terminate(ctx))
	if cerr := r.sys.native.Close(ctx); cerr != nil && err == nil {
		err = errors.Wrap(errors.PhaseRegister, errors.KindInternal, cerr, "close native subsystem")
	}
	r.sys.d.Close()
	r.sys.log.Info("ACPI subsystem terminated")
	return err
}

// Dispatcher returns the dispatcher serving the native subsystem.
func (r *Ready) Dispatcher() *osl.Dispatcher { return r.sys.d }

// live reports an error once the subsystem has been terminated.
func (r *Ready) live() error {
	if r == nil || r.sys == nil {
		return errors.NotInitialized(errors.PhaseNamespace, "subsystem")
	}
	if r.used.Load() {
		return errors.StateConsumed("query")
	}
	return nil
}
