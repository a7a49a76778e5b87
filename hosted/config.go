package hosted

import (
	"io"
	"os"

	"github.com/wippyai/acpica-host/osl"
)

// Image is a piece of physical memory. Path names a file to map; when Path
// is empty Data is used as is.
type Image struct {
	Path string
	Data []byte
	Base uint64
}

// Config configures a Host.
type Config struct {
	// Output receives native diagnostic output. Defaults to os.Stdout.
	Output io.Writer
	// Input is read by GetLine. Defaults to os.Stdin.
	Input *os.File

	// RSDP is the root pointer address. When 0 the BIOS area is scanned.
	RSDP   uint64
	Images []Image

	Ports []PortRange
	// PCI holds initial configuration space contents per function.
	PCI map[osl.PCIID][]byte

	// Predefined replaces the values of predefined objects by name.
	Predefined map[string]string
	// Tables replaces tables by signature.
	Tables map[string][]byte
}

func (c *Config) output() io.Writer {
	if c.Output == nil {
		return os.Stdout
	}
	return c.Output
}

func (c *Config) input() *os.File {
	if c.Input == nil {
		return os.Stdin
	}
	return c.Input
}
