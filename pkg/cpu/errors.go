package cpu

import (
	"errors"
	"fmt"

	"github.com/oisee/z80emu/pkg/inst"
)

// ErrHalted is returned by ExecuteUntil when the CPU halts before reaching
// the target address.
var ErrHalted = errors.New("cpu halted")

// UnimplementedOpcodeError reports an opcode slot with no handler.
type UnimplementedOpcodeError struct {
	Prefix inst.Table
	Opcode uint8
	PC     uint16 // address of the first byte of the instruction
}

func (e *UnimplementedOpcodeError) Error() string {
	if e.Prefix == inst.Base {
		return fmt.Sprintf("unimplemented opcode %02X at %04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("unimplemented opcode %s %02X at %04X", e.Prefix, e.Opcode, e.PC)
}
