package hosted

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/osl"
)

// PortDevice is a device on the I/O port bus. port is absolute.
type PortDevice interface {
	ReadPort(port uint32, width osl.Width) uint32
	WritePort(port, value uint32, width osl.Width)
}

// PortRange claims Size ports starting at Base for Device.
type PortRange struct {
	Base   uint32
	Size   uint32
	Device PortDevice
}

type bus struct {
	ranges []PortRange
}

func (b *bus) device(port uint32) PortDevice {
	for _, r := range b.ranges {
		if port >= r.Base && port-r.Base < r.Size {
			return r.Device
		}
	}
	return nil
}

// read returns all ones for unclaimed ports, like a floating bus.
func (b *bus) read(port uint32, width osl.Width) uint32 {
	dev := b.device(port)
	if dev == nil {
		Logger().Debug("read from unclaimed port", zap.Uint32("port", port))
		return uint32(width.Mask())
	}
	return dev.ReadPort(port, width) & uint32(width.Mask())
}

func (b *bus) write(port, value uint32, width osl.Width) {
	dev := b.device(port)
	if dev == nil {
		Logger().Debug("write to unclaimed port", zap.Uint32("port", port), zap.Uint32("value", value))
		return
	}
	dev.WritePort(port, value&uint32(width.Mask()), width)
}

// PM1 control register bits.
const (
	PM1SCIEnable   = 1 << 0
	PM1SleepType   = 7 << 10
	PM1SleepEnable = 1 << 13
)

// PM1Control is a PM1a control block. Writes with SLP_EN set are recorded as
// sleep requests and SLP_EN reads back as zero.
type PM1Control struct {
	mu     sync.Mutex
	value  uint16
	sleeps []uint8

	// OnSleep, when set, is called with the requested SLP_TYP.
	OnSleep func(typ uint8)
}

func (c *PM1Control) ReadPort(uint32, osl.Width) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint32(c.value)
}

func (c *PM1Control) WritePort(_ uint32, value uint32, _ osl.Width) {
	c.mu.Lock()
	c.value = uint16(value) &^ PM1SleepEnable
	var typ uint8
	sleep := value&PM1SleepEnable != 0
	if sleep {
		typ = uint8(value & PM1SleepType >> 10)
		c.sleeps = append(c.sleeps, typ)
	}
	onSleep := c.OnSleep
	c.mu.Unlock()

	if sleep {
		Logger().Info("sleep requested", zap.Uint8("slp_typ", typ))
		if onSleep != nil {
			onSleep(typ)
		}
	}
}

// SCIEnabled reports whether the platform is in ACPI mode.
func (c *PM1Control) SCIEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value&PM1SCIEnable != 0
}

// SleepRequests returns the SLP_TYP values written so far.
func (c *PM1Control) SleepRequests() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint8(nil), c.sleeps...)
}

func (c *PM1Control) setSCI(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.value |= PM1SCIEnable
	} else {
		c.value &^= PM1SCIEnable
	}
}

// SMICommand is the SMI command port. Writing the enable or disable value
// switches the PM1 control block in or out of ACPI mode.
type SMICommand struct {
	Enable  uint8
	Disable uint8
	PM1     *PM1Control
}

func (s *SMICommand) ReadPort(uint32, osl.Width) uint32 { return 0 }

func (s *SMICommand) WritePort(_ uint32, value uint32, _ osl.Width) {
	switch uint8(value) {
	case s.Enable:
		Logger().Info("ACPI mode enabled")
		s.PM1.setSCI(true)
	case s.Disable:
		Logger().Info("ACPI mode disabled")
		s.PM1.setSCI(false)
	default:
		Logger().Debug("unknown SMI command", zap.Uint32("value", value))
	}
}
