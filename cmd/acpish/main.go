package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/acpica-host/acpi"
	"github.com/wippyai/acpica-host/acpica"
	"github.com/wippyai/acpica-host/acpica/acpicatest"
	"github.com/wippyai/acpica-host/hosted"
	"github.com/wippyai/acpica-host/osl"
)

type options struct {
	wasm      string
	images    string
	rsdp      string
	synthetic bool
	sim       bool
	tables    bool
	devices   bool
	hid       string
	prt       bool
	eval      string
	verbose   bool
	pages     uint
}

func main() {
	var o options
	flag.StringVar(&o.wasm, "wasm", "", "Path to the ACPICA wasm32 build")
	flag.StringVar(&o.images, "image", "", "Physical memory images (file@0xBASE,file2@0xBASE2)")
	flag.StringVar(&o.rsdp, "rsdp", "", "Physical address of the RSDP (scanned for when empty)")
	flag.BoolVar(&o.synthetic, "synthetic", false, "Build firmware tables for a synthetic machine")
	flag.BoolVar(&o.sim, "sim", false, "Run the in-process simulated subsystem instead of -wasm")
	flag.BoolVar(&o.tables, "tables", false, "List installed tables")
	flag.BoolVar(&o.devices, "devices", false, "List present devices")
	flag.StringVar(&o.hid, "hid", "", "Restrict -devices to a hardware ID")
	flag.BoolVar(&o.prt, "prt", false, "Print PCI interrupt routing of root bridges")
	flag.StringVar(&o.eval, "eval", "", "Evaluate an absolute path and print the result")
	flag.UintVar(&o.pages, "pages", 0, "Native memory limit in 64 KiB pages")
	interactive := flag.Bool("i", false, "Interactive namespace browser")
	flag.BoolVar(&o.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if o.wasm == "" && !o.sim {
		fmt.Fprintln(os.Stderr, "Usage: acpish -wasm <acpica.wasm> [-image file@base,...] [-synthetic] [-tables] [-devices] [-prt]")
		fmt.Fprintln(os.Stderr, "       acpish -sim [-tables] [-devices] [-prt] [-eval path]")
		fmt.Fprintln(os.Stderr, "       acpish ... -i  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(o.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), o, *interactive, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		return nil, err
	}
	acpi.SetLogger(log.Named("acpi"))
	acpica.SetLogger(log.Named("acpica"))
	osl.SetLogger(log.Named("osl"))
	hosted.SetLogger(log.Named("hosted"))
	return log, nil
}

// parseImages parses "path@base" items.
func parseImages(s string) ([]hosted.Image, error) {
	var out []hosted.Image
	for _, item := range strings.Split(s, ",") {
		if item == "" {
			continue
		}
		path, base, ok := strings.Cut(item, "@")
		if !ok {
			return nil, fmt.Errorf("image %q: want file@base", item)
		}
		addr, err := strconv.ParseUint(base, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", item, err)
		}
		out = append(out, hosted.Image{Path: path, Base: addr})
	}
	return out, nil
}

func hostConfig(o options, nodes []node) (hosted.Config, error) {
	var cfg hosted.Config
	if o.synthetic || (o.sim && o.images == "") {
		cfg = syntheticFirmware(nodes).Config()
	}
	images, err := parseImages(o.images)
	if err != nil {
		return cfg, err
	}
	cfg.Images = append(cfg.Images, images...)
	if o.rsdp != "" {
		addr, err := strconv.ParseUint(o.rsdp, 0, 64)
		if err != nil {
			return cfg, fmt.Errorf("rsdp: %w", err)
		}
		cfg.RSDP = addr
	}
	return cfg, nil
}

func loader(o options, nodes []node) acpica.Loader {
	if o.sim {
		return acpicatest.New(syntheticObjects(nodes)...).Loader()
	}
	return acpica.LoadFile(o.wasm, &acpica.Config{MemoryLimitPages: uint32(o.pages)})
}

// boot brings the subsystem up to Ready.
func boot(ctx context.Context, o options, log *zap.Logger) (*acpi.Ready, *hosted.Host, error) {
	nodes := syntheticMachine()
	cfg, err := hostConfig(o, nodes)
	if err != nil {
		return nil, nil, err
	}
	host, err := hosted.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("hosted: %w", err)
	}

	opts := acpi.DefaultOptions()
	opts.Logger = log.Named("acpi")
	reg, err := acpi.Register(ctx, host, loader(o, nodes), &opts)
	if err != nil {
		host.Close()
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	ready, err := acpi.Initialize(ctx, reg)
	if err != nil {
		host.Close()
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return ready, host, nil
}

func run(ctx context.Context, o options, interactive bool, log *zap.Logger) error {
	if interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	ready, host, err := boot(ctx, o, log)
	if err != nil {
		return err
	}
	defer host.Close()
	defer func() {
		if err := ready.Terminate(ctx); err != nil {
			log.Warn("terminate", zap.Error(err))
		}
	}()

	if interactive {
		return runInteractive(ready)
	}

	w := os.Stdout
	all := !o.tables && !o.devices && !o.prt && o.eval == ""
	if o.tables || all {
		if err := printTables(ctx, w, ready); err != nil {
			return err
		}
	}
	if o.devices || all {
		if err := printDevices(ctx, w, ready, o.hid); err != nil {
			return err
		}
	}
	if o.prt {
		if err := printRouting(ctx, w, ready); err != nil {
			return err
		}
	}
	if o.eval != "" {
		return printEval(ctx, w, ready, o.eval)
	}
	return nil
}
