package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/acpica-host/acpi"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

type deviceEntry struct {
	handle acpi.Handle
	depth  uint32
	path   string
	info   table.DeviceInfo
}

func (d deviceEntry) ids() string {
	ids := []string{}
	if d.info.Has(table.ValidHID) {
		ids = append(ids, d.info.HardwareID)
	}
	ids = append(ids, d.info.Compatible...)
	return strings.Join(ids, " ")
}

// listDevices collects every device in the namespace in pre-order.
func listDevices(ctx context.Context, r *acpi.Ready) ([]deviceEntry, error) {
	var (
		out  []deviceEntry
		werr error
	)
	_, _, err := acpi.Walk(ctx, r, table.TypeDevice, acpi.Root, ^uint32(0), func(ctx context.Context, h acpi.Handle, depth uint32) (struct{}, bool) {
		path, err := r.Name(ctx, h, true)
		if err != nil {
			werr = err
			return struct{}{}, true
		}
		info, err := r.DeviceInfo(ctx, h)
		if err != nil {
			werr = err
			return struct{}{}, true
		}
		out = append(out, deviceEntry{handle: h, depth: depth, path: path, info: info})
		return struct{}{}, false
	})
	if err != nil {
		return nil, err
	}
	return out, werr
}

func printTables(ctx context.Context, w io.Writer, r *acpi.Ready) error {
	headers, err := r.Headers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Tables: %d\n", len(headers))
	for _, h := range headers {
		fmt.Fprintf(w, "  %s  len %6d  rev %d  %-6s %s\n", h.Sig(), h.Length, h.Revision, h.OEM(), strings.TrimRight(string(h.OEMTableID[:]), " \x00"))
	}

	if madt, err := r.MADT(ctx); err == nil {
		fmt.Fprintf(w, "\nMADT: local APIC at 0x%08X\n", madt.LocalControllerAddress)
		it := madt.Entries()
		for e, ok := it.Next(); ok; e, ok = it.Next() {
			v, err := e.Decode()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %-24s %+v\n", e.Type, v)
		}
		if err := it.Err(); err != nil {
			return err
		}
	} else if status.CodeOf(err) != status.NotFound {
		return err
	}

	if allocs, err := r.MCFG(ctx); err == nil {
		fmt.Fprintln(w, "\nMCFG:")
		for _, a := range allocs {
			fmt.Fprintf(w, "  segment %d buses %02X-%02X at 0x%X\n", a.Segment, a.StartBus, a.EndBus, a.BaseAddress)
		}
	} else if status.CodeOf(err) != status.NotFound {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

func printDevices(ctx context.Context, w io.Writer, r *acpi.Ready, hid string) error {
	handles, err := r.Devices(ctx, hid)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Devices: %d\n", len(handles))
	for _, h := range handles {
		path, err := r.Name(ctx, h, true)
		if err != nil {
			return err
		}
		info, err := r.DeviceInfo(ctx, h)
		if err != nil {
			return err
		}
		e := deviceEntry{handle: h, path: path, info: info}
		fmt.Fprintf(w, "  %-28s %s\n", path, e.ids())
	}
	fmt.Fprintln(w)
	return nil
}

func printRouting(ctx context.Context, w io.Writer, r *acpi.Ready) error {
	bridges, err := r.Devices(ctx, "PNP0A03")
	if err != nil {
		return err
	}
	for _, b := range bridges {
		path, err := r.Name(ctx, b, true)
		if err != nil {
			return err
		}
		prt, err := r.IRQRoutingTable(ctx, b)
		if status.CodeOf(err) == status.NotFound {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s._PRT\n", path)
		for e := range prt.All() {
			fmt.Fprintf(w, "  %s\n", formatRoute(e))
		}
	}
	fmt.Fprintln(w)
	return nil
}

func formatRoute(e table.PRTEntry) string {
	if e.Hardwired() {
		return fmt.Sprintf("device %2d %s -> GSI %d", e.Device, e.Pin, e.SourceIndex)
	}
	return fmt.Sprintf("device %2d %s -> %s[%d]", e.Device, e.Pin, e.Source, e.SourceIndex)
}

// evaluate returns the integer or string value of path.
func evaluate(ctx context.Context, r *acpi.Ready, h acpi.Handle, path string) (string, error) {
	if v, err := r.EvaluateInteger(ctx, h, path); err == nil {
		return fmt.Sprintf("0x%X", v), nil
	} else if status.CodeOf(err) != status.Unknown {
		return "", err
	}
	return r.EvaluateString(ctx, h, path)
}

func printEval(ctx context.Context, w io.Writer, r *acpi.Ready, path string) error {
	v, err := evaluate(ctx, r, 0, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s = %s\n", path, v)
	return nil
}
