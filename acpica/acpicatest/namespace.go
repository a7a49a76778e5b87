package acpicatest

import (
	"strings"

	"github.com/wippyai/acpica-host/table"
)

// typeLocalScope is the internal type of scope objects such as \_GPE.
const typeLocalScope table.ObjectType = 0x1B

// Device status bits returned by _STA.
const (
	StaPresent     = 0x01
	StaEnabled     = 0x02
	StaShown       = 0x04
	StaFunctioning = 0x08
	staDefault     = StaPresent | StaEnabled | StaShown | StaFunctioning
)

// Object is a namespace object of the simulated subsystem. Integer, String
// and Method objects carry their result in Value as a uint64 or a string.
type Object struct {
	Name     string
	Type     table.ObjectType
	HID      string
	UID      string
	CID      []string
	CLS      string
	Address  uint64
	HasADR   bool
	Status   uint64
	Value    any
	Routing  []table.PRTEntry
	Children []*Object

	parent *Object
	handle uint32
}

// Option configures a Device.
type Option func(*Object)

// HID sets _HID.
func HID(id string) Option { return func(o *Object) { o.HID = id } }

// UID sets _UID.
func UID(id string) Option { return func(o *Object) { o.UID = id } }

// CID sets _CID.
func CID(ids ...string) Option { return func(o *Object) { o.CID = ids } }

// CLS sets _CLS.
func CLS(code string) Option { return func(o *Object) { o.CLS = code } }

// ADR sets _ADR.
func ADR(addr uint64) Option {
	return func(o *Object) {
		o.Address = addr
		o.HasADR = true
	}
}

// STA sets the value _STA returns. Devices are present and functioning by
// default.
func STA(v uint64) Option { return func(o *Object) { o.Status = v } }

// PRT sets the routing table returned for the device.
func PRT(entries ...table.PRTEntry) Option { return func(o *Object) { o.Routing = entries } }

// Children adds child objects.
func Children(objs ...*Object) Option {
	return func(o *Object) { o.Children = append(o.Children, objs...) }
}

// Device creates a device object.
func Device(name string, opts ...Option) *Object {
	o := &Object{Name: nameSeg(name), Type: table.TypeDevice, Status: staDefault}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Integer creates a named integer.
func Integer(name string, v uint64) *Object {
	return &Object{Name: nameSeg(name), Type: table.TypeInteger, Value: v}
}

// String creates a named string.
func String(name, s string) *Object {
	return &Object{Name: nameSeg(name), Type: table.TypeString, Value: s}
}

// Method creates a control method returning v, a uint64 or a string.
func Method(name string, v any) *Object {
	return &Object{Name: nameSeg(name), Type: table.TypeMethod, Value: v}
}

// nameSeg pads a name to the four characters of a name segment.
func nameSeg(s string) string {
	if len(s) >= 4 {
		return s[:4]
	}
	return s + strings.Repeat("_", 4-len(s))
}

// Path returns the absolute path of o.
func (o *Object) Path() string {
	if o.parent == nil {
		return `\`
	}
	if o.parent.parent == nil {
		return `\` + o.Name
	}
	return o.parent.Path() + "." + o.Name
}

func (o *Object) child(name string) *Object {
	for _, c := range o.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// implicit synthesizes the identification objects of a device.
func (o *Object) implicit(name string) (any, bool) {
	if o.Type != table.TypeDevice {
		return nil, false
	}
	switch name {
	case "_HID":
		return o.HID, o.HID != ""
	case "_UID":
		return o.UID, o.UID != ""
	case "_ADR":
		return o.Address, o.HasADR
	case "_STA":
		return o.Status, true
	}
	return nil, false
}

// matchesID reports whether hid is the device's _HID or one of its _CIDs.
func (o *Object) matchesID(hid string) bool {
	if o.HID == hid {
		return true
	}
	for _, c := range o.CID {
		if c == hid {
			return true
		}
	}
	return false
}

func (o *Object) pciRoot() bool {
	return o.matchesID("PNP0A03") || o.matchesID("PNP0A08")
}

// walk visits the objects below o in pre-order, down to maxDepth. fn
// returns stepSkip to leave out an object's children and stepStop to end
// the walk.
func (o *Object) walk(depth, maxDepth uint32, fn func(*Object, uint32) walkStep) walkStep {
	for _, c := range o.Children {
		switch step := fn(c, depth); step {
		case stepContinue:
			if depth < maxDepth {
				if step := c.walk(depth+1, maxDepth, fn); step != stepContinue {
					return step
				}
			}
		case stepSkip:
		default:
			return step
		}
	}
	return stepContinue
}

type walkStep int

const (
	stepContinue walkStep = iota
	stepSkip
	stepStop
)
