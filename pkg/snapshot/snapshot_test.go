package snapshot

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/memory"
)

func newCPU() (*cpu.CPU, *memory.RAM) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	ram := memory.NewRAM()
	return cpu.New(ram, nil, cpu.WithLogger(l)), ram
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c, ram := newCPU()
	// LD A,5; EXX; HALT
	ram.Load(0x0100, []uint8{0x3E, 0x05, 0xD9, 0x76})
	r := c.Registers()
	r.Set(cpu.PC, 0x0100)
	r.Set(cpu.SP, 0xF000)
	r.Set(cpu.BC, 0x1234)
	r.IM = 1
	r.IFF1, r.IFF2 = true, true
	if err := c.Execute(3, false); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "state.gob")
	if err := Save(path, Capture(c)); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	c2, ram2 := newCPU()
	if err := s.Apply(c2); err != nil {
		t.Fatal(err)
	}
	r2 := c2.Registers()
	if r2.A() != 5 || r2.Shadow(cpu.BC) != 0x1234 || r2.Get(cpu.BC) != 0 {
		t.Errorf("A=%02X BC'=%04X BC=%04X", r2.A(), r2.Shadow(cpu.BC), r2.Get(cpu.BC))
	}
	if !r2.Halted || r2.IM != 1 || !r2.IFF1 || !r2.IFF2 {
		t.Errorf("halted=%v IM=%d IFF1=%v IFF2=%v", r2.Halted, r2.IM, r2.IFF1, r2.IFF2)
	}
	if r2.Cycles != c.Cycles() || r2.R != c.Registers().R {
		t.Errorf("cycles %d/%d R %02X/%02X", r2.Cycles, c.Cycles(), r2.R, c.Registers().R)
	}
	if ram2.ReadUnsigned8(0x0103) != 0x76 {
		t.Errorf("memory image not restored")
	}
	if r2.Get(cpu.PC) != 0x0103 {
		t.Errorf("PC=%04X want 0103", r2.Get(cpu.PC))
	}
}

func TestApplyRejectsShortImage(t *testing.T) {
	c, _ := newCPU()
	s := &State{Memory: make([]uint8, 16)}
	if err := s.Apply(c); err == nil {
		t.Error("expected error for short memory image")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad")
	if err := os.WriteFile(bad, []byte("not gob"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected decode error")
	}
}
