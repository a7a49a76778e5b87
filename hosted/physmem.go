package hosted

import (
	"encoding/binary"
	"os"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/table"
)

// BIOS area searched for the root pointer.
const (
	biosAreaStart = 0xE0000
	biosAreaEnd   = 0x100000
)

// Region is a contiguous piece of physical memory.
type Region struct {
	Base    uint64
	data    []byte
	release func() error
}

// NewRegion wraps data as physical memory at base.
func NewRegion(base uint64, data []byte) *Region {
	return &Region{Base: base, data: data}
}

// OpenImage maps the file at path as physical memory at base. The mapping
// is private: writes never reach the file. When the file cannot be mapped it
// is read into memory instead.
func OpenImage(path string, base uint64) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open image", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Load("stat image", err)
	}
	if fi.Size() == 0 {
		return nil, errors.InvalidInput(errors.PhaseMemory, "image "+path+" is empty")
	}

	data, release, err := mapFile(f, int(fi.Size()))
	if err != nil {
		Logger().Warn("mmap failed, reading image", zap.String("path", path), zap.Error(err))
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Load("read image", err)
		}
		release = nil
	}
	Logger().Debug("image mapped",
		zap.String("path", path),
		zap.Uint64("base", base),
		zap.Int("size", len(data)))
	return &Region{Base: base, data: data, release: release}, nil
}

// Len returns the size of r in bytes.
func (r *Region) Len() uint64 { return uint64(len(r.data)) }

// End returns the first address past r.
func (r *Region) End() uint64 { return r.Base + r.Len() }

func (r *Region) contains(phys uint64, length uint32) bool {
	return phys >= r.Base && phys+uint64(length) <= r.End() && phys+uint64(length) >= phys
}

// Close releases the backing mapping.
func (r *Region) Close() error {
	if r.release == nil {
		return nil
	}
	release := r.release
	r.release, r.data = nil, nil
	return release()
}

// space is a physical address space made of non-overlapping regions.
type space struct {
	mu      sync.RWMutex
	regions []*Region
}

func (s *space) add(r *Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.regions {
		if r.Base < o.End() && o.Base < r.End() {
			return errors.New(errors.PhaseMemory, errors.KindInvalidInput).
				Detail("region 0x%x-0x%x overlaps 0x%x-0x%x", r.Base, r.End(), o.Base, o.End()).
				Build()
		}
	}
	s.regions = append(s.regions, r)
	slices.SortFunc(s.regions, func(a, b *Region) int {
		switch {
		case a.Base < b.Base:
			return -1
		case a.Base > b.Base:
			return 1
		}
		return 0
	})
	return nil
}

// window returns the bytes at phys. The slice aliases the region.
func (s *space) window(phys uint64, length uint32) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.regions {
		if r.contains(phys, length) {
			off := phys - r.Base
			return r.data[off : off+uint64(length) : off+uint64(length)], nil
		}
	}
	return nil, errors.New(errors.PhaseHost, errors.KindOutOfBounds).
		Op("physical_memory").
		Detail("0x%x (length %d) is not backed", phys, length).
		Value(phys).
		Build()
}

func (s *space) read(phys uint64, width osl.Width) (uint64, error) {
	b, err := s.window(phys, uint32(width/8))
	if err != nil {
		return 0, err
	}
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

func (s *space) write(phys, value uint64, width osl.Width) error {
	b, err := s.window(phys, uint32(width/8))
	if err != nil {
		return err
	}
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

// scanRSDP searches the BIOS area for a root pointer with a valid checksum,
// on 16-byte boundaries.
func (s *space) scanRSDP() uint64 {
	for addr := uint64(biosAreaStart); addr+20 <= biosAreaEnd; addr += 16 {
		b, err := s.window(addr, 20)
		if err != nil || string(b[:8]) != table.RSDPSignature {
			continue
		}
		if full, err := s.window(addr, table.RSDPSize); err == nil {
			b = full
		}
		r, err := table.ParseRSDP(b)
		if err == nil && r.Valid(b) {
			return addr
		}
	}
	return 0
}

func (s *space) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, r := range s.regions {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.regions = nil
	return first
}
