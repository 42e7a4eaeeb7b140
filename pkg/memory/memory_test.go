package memory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRAMWordAccess(t *testing.T) {
	m := NewRAM()
	m.WriteUnsigned16(0x1000, 0xBEEF)
	if m.ReadUnsigned8(0x1000) != 0xEF || m.ReadUnsigned8(0x1001) != 0xBE {
		t.Errorf("little-endian write: %02X %02X", m.ReadUnsigned8(0x1000), m.ReadUnsigned8(0x1001))
	}
	if got := m.ReadUnsigned16(0x1000); got != 0xBEEF {
		t.Errorf("ReadUnsigned16: got %04X want BEEF", got)
	}
	m.WriteUnsigned8(0x2000, 0xFE)
	if got := m.ReadSigned8(0x2000); got != -2 {
		t.Errorf("ReadSigned8: got %d want -2", got)
	}
}

func TestRAMWraps(t *testing.T) {
	m := NewRAM()
	m.WriteUnsigned16(0xFFFF, 0x1234)
	if m.ReadUnsigned8(0xFFFF) != 0x34 || m.ReadUnsigned8(0x0000) != 0x12 {
		t.Errorf("wrap: FFFF=%02X 0000=%02X", m.ReadUnsigned8(0xFFFF), m.ReadUnsigned8(0))
	}
	m.Load(0xFFFE, []uint8{1, 2, 3})
	if m.ReadUnsigned8(0x0000) != 3 {
		t.Errorf("Load wrap: 0000=%02X", m.ReadUnsigned8(0))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.com")
	if err := os.WriteFile(path, []uint8{0x3E, 0x42, 0x76}, 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewRAM()
	n, err := m.LoadFile(path, 0x0100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || m.ReadUnsigned8(0x0101) != 0x42 {
		t.Errorf("LoadFile: n=%d byte=%02X", n, m.ReadUnsigned8(0x0101))
	}
	if _, err := m.LoadFile(path, 0xFFFF); err == nil {
		t.Error("oversized image should fail")
	}
	if _, err := m.LoadFile(filepath.Join(t.TempDir(), "missing"), 0); err == nil {
		t.Error("missing file should fail")
	}
}

func TestROMIgnoresWrites(t *testing.T) {
	w := Wide{NewROM([]uint8{0x11, 0x22})}
	w.WriteUnsigned8(0, 0xFF)
	w.WriteUnsigned16(0, 0xFFFF)
	if got := w.ReadUnsigned16(0); got != 0x2211 {
		t.Errorf("ROM: got %04X want 2211", got)
	}
	if got := w.ReadUnsigned8(0x100); got != 0xFF {
		t.Errorf("past image: got %02X want FF", got)
	}
}

func TestEmpty(t *testing.T) {
	w := Wide{Empty{}}
	w.WriteUnsigned8(5, 9)
	if w.ReadUnsigned8(5) != 0 || w.ReadUnsigned16(5) != 0 || w.ReadSigned8(5) != 0 {
		t.Error("empty slot should read 0")
	}
}

func TestPaged(t *testing.T) {
	ram := NewRAM()
	p := &Paged{Pages: [4]Bank{NewROM([]uint8{0xC3, 0x00, 0x80}), ram, nil, ram}}
	w := Wide{p}

	w.WriteUnsigned8(0x0000, 0x00)
	if got := w.ReadUnsigned16(0x0001); got != 0x8000 {
		t.Errorf("ROM page: %04X want 8000", got)
	}
	w.WriteUnsigned16(0x4000, 0x1234)
	if got := ram.ReadUnsigned16(0x4000); got != 0x1234 {
		t.Errorf("RAM page: %04X want 1234", got)
	}
	w.WriteUnsigned8(0x8000, 0x55)
	if got := w.ReadUnsigned8(0x8000); got != 0 {
		t.Errorf("empty page: %02X want 00", got)
	}
	if got := ram.ReadUnsigned8(0x8000); got != 0 {
		t.Errorf("empty page leaked into RAM: %02X", got)
	}
	// 16-bit access straddling a page boundary.
	ram.WriteUnsigned8(0xC000, 0xAB)
	ram.WriteUnsigned8(0xBFFF, 0xCD)
	if got := w.ReadUnsigned16(0xBFFF); got != 0xAB00 {
		t.Errorf("straddle: %04X want AB00", got)
	}
}
