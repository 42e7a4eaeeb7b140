// Package snapshot saves and restores a whole machine: registers, scalar
// CPU state and the 64 KiB address space.
package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/memory"
)

// State holds everything needed to resume a run.
type State struct {
	Registers map[string]uint16 // keys as in cpu.Registers.Snapshot
	IFF1      bool
	IFF2      bool
	IM        uint8
	Halted    bool
	Cycles    uint64
	Memory    []uint8
}

// Capture copies the state of c and its whole address space.
func Capture(c *cpu.CPU) *State {
	r := c.Registers()
	s := &State{
		Registers: r.Snapshot(),
		IFF1:      r.IFF1,
		IFF2:      r.IFF2,
		IM:        r.IM,
		Halted:    r.Halted,
		Cycles:    r.Cycles,
		Memory:    make([]uint8, memory.Size),
	}
	mem := c.Memory()
	for i := range s.Memory {
		s.Memory[i] = mem.ReadUnsigned8(uint16(i))
	}
	return s
}

// Apply restores s into c. Memory is written through the CPU's bus, so
// read-only regions keep their contents.
func (s *State) Apply(c *cpu.CPU) error {
	if len(s.Memory) != memory.Size {
		return fmt.Errorf("snapshot memory is %d bytes, want %d", len(s.Memory), memory.Size)
	}
	r := c.Registers()
	r.Restore(s.Registers)
	r.IFF1 = s.IFF1
	r.IFF2 = s.IFF2
	r.IM = s.IM
	r.Halted = s.Halted
	r.Cycles = s.Cycles
	mem := c.Memory()
	for i, v := range s.Memory {
		mem.WriteUnsigned8(uint16(i), v)
	}
	return nil
}

// Save writes a state to a file.
func Save(path string, s *State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a state written by Save.
func Load(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var s State
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &s, nil
}
