package table

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
)

// ObjectType is the type of a namespace object.
type ObjectType uint32

const (
	TypeAny ObjectType = iota
	TypeInteger
	TypeString
	TypeBuffer
	TypePackage
	TypeFieldUnit
	TypeDevice
	TypeEvent
	TypeMethod
	TypeMutex
	TypeRegion
	TypePower
	TypeProcessor
	TypeThermal
	TypeBufferField
	TypeDDBHandle
	TypeDebugObject
)

var objectTypeNames = [...]string{
	"Any", "Integer", "String", "Buffer", "Package", "FieldUnit", "Device",
	"Event", "Method", "Mutex", "Region", "Power", "Processor", "Thermal",
	"BufferField", "DDBHandle", "DebugObject",
}

func (t ObjectType) String() string {
	if int(t) < len(objectTypeNames) {
		return objectTypeNames[t]
	}
	return "Internal"
}

// Valid bits of DeviceInfo.
const (
	ValidADR  = 0x0002
	ValidHID  = 0x0004
	ValidUID  = 0x0008
	ValidCID  = 0x0020
	ValidCLS  = 0x0040
	ValidSXDS = 0x0100
	ValidSXWS = 0x0200
)

// DeviceInfo flag bits.
const FlagPCIRootBridge = 0x01

// ACPI_DEVICE_INFO layout for a 32-bit native build.
const (
	devInfoSize      = 0
	devInfoName      = 4
	devInfoType      = 8
	devInfoParams    = 12
	devInfoValid     = 14
	devInfoFlags     = 16
	devInfoHighest   = 17
	devInfoLowest    = 21
	devInfoAddress   = 32
	devInfoHID       = 40
	devInfoUID       = 48
	devInfoCLS       = 56
	devInfoCIDCount  = 64
	devInfoCIDs      = 72
	devInfoFixedSize = 72

	pnpIDSize = 8
	maxIDLen  = 256
)

// DeviceInfo is the decoded identification block of a namespace object.
type DeviceInfo struct {
	Name       string
	Type       ObjectType
	ParamCount uint8
	Valid      uint16
	Flags      uint8

	HighestDstates [4]uint8
	LowestDstates  [5]uint8

	Address    uint64
	HardwareID string
	UniqueID   string
	ClassCode  string
	Compatible []string
}

// Has reports whether all the given Valid bits are set.
func (d DeviceInfo) Has(bits uint16) bool { return d.Valid&bits == bits }

// DecodeDeviceInfo decodes an ACPI_DEVICE_INFO block at ptr in native memory.
// The ID strings it points to are copied.
func DecodeDeviceInfo(mem memory.Memory, ptr memory.Ptr) (DeviceInfo, error) {
	var d DeviceInfo
	raw, err := mem.Read(ptr, devInfoFixedSize)
	if err != nil {
		return d, err
	}
	le := binary.LittleEndian
	if size := le.Uint32(raw[devInfoSize:]); size < devInfoFixedSize {
		return d, errors.InvalidData(errors.PhaseDecode, "AcpiGetObjectInfo", "info block too small")
	}

	d.Name = string(raw[devInfoName : devInfoName+4])
	d.Type = ObjectType(le.Uint32(raw[devInfoType:]))
	d.ParamCount = raw[devInfoParams]
	d.Valid = le.Uint16(raw[devInfoValid:])
	d.Flags = raw[devInfoFlags]
	copy(d.HighestDstates[:], raw[devInfoHighest:])
	copy(d.LowestDstates[:], raw[devInfoLowest:])

	if d.Has(ValidADR) {
		d.Address = le.Uint64(raw[devInfoAddress:])
	}
	ids := []struct {
		bit uint16
		off uint32
		dst *string
	}{
		{ValidHID, devInfoHID, &d.HardwareID},
		{ValidUID, devInfoUID, &d.UniqueID},
		{ValidCLS, devInfoCLS, &d.ClassCode},
	}
	for _, id := range ids {
		if !d.Has(id.bit) {
			continue
		}
		if *id.dst, err = readPNPID(mem, ptr+id.off); err != nil {
			return d, err
		}
	}

	if d.Has(ValidCID) {
		count := le.Uint32(raw[devInfoCIDCount:])
		if count > maxIDLen {
			return d, errors.InvalidData(errors.PhaseDecode, "AcpiGetObjectInfo", "compatible ID count out of range")
		}
		d.Compatible = make([]string, 0, count)
		for i := range count {
			s, err := readPNPID(mem, ptr+devInfoCIDs+i*pnpIDSize)
			if err != nil {
				return d, err
			}
			d.Compatible = append(d.Compatible, s)
		}
	}
	return d, nil
}

// readPNPID reads an ACPI_PNP_DEVICE_ID {Length u32; String ptr}. Length
// counts the terminating NUL.
func readPNPID(mem memory.Memory, at memory.Ptr) (string, error) {
	length, err := mem.ReadU32(at)
	if err != nil {
		return "", err
	}
	str, err := mem.ReadU32(at + 4)
	if err != nil {
		return "", err
	}
	if length == 0 || str == 0 {
		return "", nil
	}
	if length > maxIDLen {
		return "", errors.InvalidData(errors.PhaseDecode, "AcpiGetObjectInfo", "ID string too long")
	}
	b, err := memory.ReadCString(mem, str, length)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		panic(errors.InvalidUTF8(errors.PhaseDecode, "AcpiGetObjectInfo", b))
	}
	return string(b), nil
}

// Marshal lays d out as an ACPI_DEVICE_INFO block placed at base, with the
// ID strings following the fixed part and the compatible ID list.
func (d DeviceInfo) Marshal(base memory.Ptr) []byte {
	le := binary.LittleEndian
	strOff := uint32(devInfoFixedSize + len(d.Compatible)*pnpIDSize)
	b := make([]byte, strOff)

	strs := make([]byte, 0, 64)
	putID := func(at int, s string) {
		if s == "" {
			return
		}
		le.PutUint32(b[at:], uint32(len(s)+1))
		le.PutUint32(b[at+4:], base+strOff+uint32(len(strs)))
		strs = append(strs, s...)
		strs = append(strs, 0)
	}

	copy(b[devInfoName:devInfoName+4], d.Name)
	le.PutUint32(b[devInfoType:], uint32(d.Type))
	b[devInfoParams] = d.ParamCount
	le.PutUint16(b[devInfoValid:], d.Valid)
	b[devInfoFlags] = d.Flags
	copy(b[devInfoHighest:], d.HighestDstates[:])
	copy(b[devInfoLowest:], d.LowestDstates[:])
	le.PutUint64(b[devInfoAddress:], d.Address)
	putID(devInfoHID, d.HardwareID)
	putID(devInfoUID, d.UniqueID)
	putID(devInfoCLS, d.ClassCode)
	le.PutUint32(b[devInfoCIDCount:], uint32(len(d.Compatible)))
	le.PutUint32(b[devInfoCIDCount+4:], uint32(len(d.Compatible)*pnpIDSize))
	for i, cid := range d.Compatible {
		putID(devInfoCIDs+i*pnpIDSize, cid)
	}

	b = append(b, strs...)
	le.PutUint32(b[devInfoSize:], uint32(len(b)))
	return b
}
