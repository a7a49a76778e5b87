package table

import (
	"bytes"
	"encoding/binary"

	"github.com/wippyai/acpica-host/errors"
)

// AddressSpace defines the location where a set of registers resides.
type AddressSpace uint8

const (
	AddressSpaceSysMemory AddressSpace = iota
	AddressSpaceSysIO
	AddressSpacePCI
	AddressSpaceEmbController
	AddressSpaceSMBus
	AddressSpaceFuncFixedHW AddressSpace = 0x7f
)

// GenericAddress specifies a register range located in a particular address
// space.
type GenericAddress struct {
	Space      AddressSpace
	BitWidth   uint8
	BitOffset  uint8
	AccessSize uint8
	Address    uint64
}

// PowerProfile is the preferred power management profile.
type PowerProfile uint8

const (
	PowerProfileUnspecified PowerProfile = iota
	PowerProfileDesktop
	PowerProfileMobile
	PowerProfileWorkstation
	PowerProfileEnterpriseServer
	PowerProfileSOHOServer
	PowerProfileAppliancePC
	PowerProfilePerformanceServer
	PowerProfileTablet
)

// FADT flag bits.
const (
	FADTFlagWBINVD        = 1 << 0
	FADTFlagResetRegister = 1 << 10
	FADTFlagHWReduced     = 1 << 20
)

// FADT (Fixed ACPI Description Table) describes the fixed hardware register
// blocks used for power management. Fields past the length a firmware
// revision defines decode as zero.
type FADT struct {
	Header

	FirmwareCtrl uint32
	Dsdt         uint32

	_ uint8

	PreferredPowerProfile PowerProfile
	SCIInterrupt          uint16
	SMICommandPort        uint32
	AcpiEnable            uint8
	AcpiDisable           uint8
	S4BIOSReq             uint8
	PSTATEControl         uint8
	PM1aEventBlock        uint32
	PM1bEventBlock        uint32
	PM1aControlBlock      uint32
	PM1bControlBlock      uint32
	PM2ControlBlock       uint32
	PMTimerBlock          uint32
	GPE0Block             uint32
	GPE1Block             uint32
	PM1EventLength        uint8
	PM1ControlLength      uint8
	PM2ControlLength      uint8
	PMTimerLength         uint8
	GPE0Length            uint8
	GPE1Length            uint8
	GPE1Base              uint8
	CStateControl         uint8
	WorstC2Latency        uint16
	WorstC3Latency        uint16
	FlushSize             uint16
	FlushStride           uint16
	DutyOffset            uint8
	DutyWidth             uint8
	DayAlarm              uint8
	MonthAlarm            uint8
	Century               uint8

	BootArchitectureFlags uint16

	_     uint8
	Flags uint32

	ResetReg   GenericAddress
	ResetValue uint8

	ArmBootArchitectureFlags uint16
	MinorVersion             uint8

	XFirmwareCtrl     uint64
	XDsdt             uint64
	XPM1aEventBlock   GenericAddress
	XPM1bEventBlock   GenericAddress
	XPM1aControlBlock GenericAddress
	XPM1bControlBlock GenericAddress
	XPM2ControlBlock  GenericAddress
	XPMTimerBlock     GenericAddress
	XGPE0Block        GenericAddress
	XGPE1Block        GenericAddress

	SleepControlReg GenericAddress
	SleepStatusReg  GenericAddress

	HypervisorVendorID uint64
}

// FADTSize is the size of the newest FADT revision decoded.
var FADTSize = binary.Size(FADT{})

// ParseFADT decodes a FADT of any revision.
func ParseFADT(b []byte) (FADT, error) {
	var f FADT
	h, err := ParseHeader(b)
	if err != nil {
		return f, err
	}
	if h.Sig() != "FACP" {
		return f, errors.InvalidData(errors.PhaseDecode, "FACP", "signature is "+h.Sig())
	}
	if int(h.Length) > len(b) {
		return f, errors.InvalidData(errors.PhaseDecode, "FACP", "table length exceeds data")
	}
	buf := make([]byte, FADTSize)
	copy(buf, b[:h.Length])
	binary.Read(bytes.NewReader(buf), binary.LittleEndian, &f)
	return f, nil
}

// DSDTAddress returns the 64-bit DSDT pointer when present, else the 32-bit one.
func (f FADT) DSDTAddress() uint64 {
	if f.XDsdt != 0 {
		return f.XDsdt
	}
	return uint64(f.Dsdt)
}

// HardwareReduced reports whether the platform has no fixed ACPI hardware.
func (f FADT) HardwareReduced() bool {
	return f.Flags&FADTFlagHWReduced != 0
}
