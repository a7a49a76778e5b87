package hosted

import (
	"encoding/binary"
	"sync"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/osl"
)

// pciConfigSize is the size of an extended configuration space.
const pciConfigSize = 4096

// pciStore holds the configuration space of present functions. Absent
// functions read as all ones and ignore writes.
type pciStore struct {
	mu        sync.Mutex
	functions map[osl.PCIID]*[pciConfigSize]byte
}

func newPCIStore(initial map[osl.PCIID][]byte) *pciStore {
	p := &pciStore{functions: make(map[osl.PCIID]*[pciConfigSize]byte, len(initial))}
	for id, data := range initial {
		var cfg [pciConfigSize]byte
		copy(cfg[:], data)
		p.functions[id] = &cfg
	}
	return p
}

func checkRegister(id osl.PCIID, reg uint32, width osl.Width) error {
	if reg+uint32(width/8) > pciConfigSize {
		return errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Op("pci_config").
			Detail("register 0x%x of %s is out of range", reg, id).
			Build()
	}
	return nil
}

func (p *pciStore) read(id osl.PCIID, reg uint32, width osl.Width) (uint64, error) {
	if err := checkRegister(id, reg, width); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.functions[id]
	if !ok {
		return width.Mask(), nil
	}
	b := cfg[reg:]
	switch width {
	case osl.Width8:
		return uint64(b[0]), nil
	case osl.Width16:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case osl.Width32:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (p *pciStore) write(id osl.PCIID, reg uint32, value uint64, width osl.Width) error {
	if err := checkRegister(id, reg, width); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.functions[id]
	if !ok {
		return nil
	}
	b := cfg[reg:]
	switch width {
	case osl.Width8:
		b[0] = uint8(value)
	case osl.Width16:
		binary.LittleEndian.PutUint16(b, uint16(value))
	case osl.Width32:
		binary.LittleEndian.PutUint32(b, uint32(value))
	default:
		binary.LittleEndian.PutUint64(b, value)
	}
	return nil
}
