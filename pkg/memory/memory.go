// Package memory provides byte-addressable backends for the CPU memory bus.
package memory

import (
	"fmt"
	"os"
)

// Size is the 16-bit address space.
const Size = 0x10000

// Bank is the minimal byte-level interface a backend implements. Wide turns
// any Bank into a full CPU memory bus.
type Bank interface {
	ReadUnsigned8(addr uint16) uint8
	WriteUnsigned8(addr uint16, v uint8)
}

// RAM is a flat 64 KiB read/write memory.
type RAM struct {
	data [Size]uint8
}

// NewRAM returns zeroed RAM.
func NewRAM() *RAM {
	return &RAM{}
}

func (m *RAM) ReadUnsigned8(addr uint16) uint8     { return m.data[addr] }
func (m *RAM) WriteUnsigned8(addr uint16, v uint8) { m.data[addr] = v }
func (m *RAM) ReadSigned8(addr uint16) int8        { return int8(m.data[addr]) }

func (m *RAM) ReadUnsigned16(addr uint16) uint16 {
	return uint16(m.data[addr]) | uint16(m.data[addr+1])<<8
}

func (m *RAM) WriteUnsigned16(addr uint16, v uint16) {
	m.data[addr] = uint8(v)
	m.data[addr+1] = uint8(v >> 8)
}

// Bytes exposes the backing array, e.g. for snapshots.
func (m *RAM) Bytes() []uint8 { return m.data[:] }

// Load copies data to org, wrapping at the top of memory.
func (m *RAM) Load(org uint16, data []uint8) {
	for i, b := range data {
		m.data[org+uint16(i)] = b
	}
}

// LoadFile reads a raw binary image into memory at org.
func (m *RAM) LoadFile(path string, org uint16) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read image: %w", err)
	}
	if len(data) > Size-int(org) {
		return 0, fmt.Errorf("image %s is %d bytes, only %d fit at %04X", path, len(data), Size-int(org), org)
	}
	m.Load(org, data)
	return len(data), nil
}

// ROM is a read-only image. Writes are ignored; reads past the end of the
// image return 0xFF.
type ROM struct {
	data []uint8
}

// NewROM wraps image without copying it.
func NewROM(image []uint8) *ROM {
	return &ROM{data: image}
}

func (r *ROM) ReadUnsigned8(addr uint16) uint8 {
	if int(addr) < len(r.data) {
		return r.data[addr]
	}
	return 0xFF
}

func (r *ROM) WriteUnsigned8(uint16, uint8) {}

// Empty models an unpopulated slot: reads return 0, writes are dropped.
type Empty struct{}

func (Empty) ReadUnsigned8(uint16) uint8   { return 0 }
func (Empty) WriteUnsigned8(uint16, uint8) {}

// Wide adds the signed and 16-bit accessors to a byte-level Bank.
type Wide struct {
	Bank
}

func (w Wide) ReadSigned8(addr uint16) int8 {
	return int8(w.ReadUnsigned8(addr))
}

func (w Wide) ReadUnsigned16(addr uint16) uint16 {
	return uint16(w.ReadUnsigned8(addr)) | uint16(w.ReadUnsigned8(addr+1))<<8
}

func (w Wide) WriteUnsigned16(addr uint16, v uint16) {
	w.WriteUnsigned8(addr, uint8(v))
	w.WriteUnsigned8(addr+1, uint8(v>>8))
}

// PageSize is the span of one of the four slots of the address space.
const PageSize = 0x4000

// Paged routes each 16 KiB page to its own Bank. Banks see the full
// address, so a ROM in page 0 and a RAM behind the other pages need no
// offset arithmetic. A nil page behaves as Empty.
type Paged struct {
	Pages [4]Bank
}

func (p *Paged) bank(addr uint16) Bank {
	if b := p.Pages[addr/PageSize]; b != nil {
		return b
	}
	return Empty{}
}

func (p *Paged) ReadUnsigned8(addr uint16) uint8     { return p.bank(addr).ReadUnsigned8(addr) }
func (p *Paged) WriteUnsigned8(addr uint16, v uint8) { p.bank(addr).WriteUnsigned8(addr, v) }
