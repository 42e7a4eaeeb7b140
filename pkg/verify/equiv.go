package verify

import (
	"fmt"
	"sync"

	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/inst"
)

// Vector is a starting register file for equivalence checks.
type Vector struct {
	AF, BC, DE, HL, SP uint16
}

// TestVectors are fixed inputs on which two encodings must agree.
var TestVectors = []Vector{
	{AF: 0x0000, BC: 0x0000, DE: 0x0000, HL: 0x0000, SP: 0xF000},
	{AF: 0xFFFF, BC: 0xFFFF, DE: 0xFFFF, HL: 0xFFFF, SP: 0xFFFE},
	{AF: 0x0100, BC: 0x0203, DE: 0x0405, HL: 0x0607, SP: 0x1234},
	{AF: 0x8001, BC: 0x4020, DE: 0x1008, HL: 0x0402, SP: 0x8000},
	{AF: 0x5500, BC: 0xAA55, DE: 0xAA55, HL: 0xAA55, SP: 0x5555},
	{AF: 0xAA01, BC: 0x55AA, DE: 0x55AA, HL: 0x55AA, SP: 0xAAAA},
	{AF: 0x0F00, BC: 0xF00F, DE: 0xF00F, HL: 0xF00F, SP: 0xFFFE},
	{AF: 0x7F01, BC: 0x807F, DE: 0x807F, HL: 0x807F, SP: 0x7FFF},
}

// codeOrg is where encodings under test are placed, clear of every
// vector's BC and DE.
const codeOrg uint16 = 0xE000

// execOne runs the single instruction prog from v.
func execOne(v Vector, prog ...uint8) (*cpu.CPU, error) {
	c, _ := newCPU(codeOrg, prog...)
	r := c.Registers()
	r.Set(cpu.AF, v.AF)
	r.Set(cpu.BC, v.BC)
	r.Set(cpu.DE, v.DE)
	r.Set(cpu.HL, v.HL)
	r.Set(cpu.SP, v.SP)
	return c, c.ExecuteSingleInstruction()
}

// sameState compares everything but PC, R and the cycle count, including
// the bytes LD (BC),A and LD (DE),A could have written.
func sameState(a, b *cpu.CPU) (string, bool) {
	sa, sb := a.Snapshot(), b.Snapshot()
	for k, v := range sa {
		if k == "PC" || k == "R" {
			continue
		}
		if sb[k] != v {
			return fmt.Sprintf("%s=%04X vs %04X", k, v, sb[k]), false
		}
	}
	for _, reg := range []cpu.Reg16{cpu.BC, cpu.DE} {
		addr := a.Registers().Get(reg)
		if x, y := a.Memory().ReadUnsigned8(addr), b.Memory().ReadUnsigned8(addr); x != y {
			return fmt.Sprintf("(%s)=%02X vs %02X", reg, x, y), false
		}
	}
	if a.Halted() != b.Halted() {
		return "halt state differs", false
	}
	return pass, true
}

// quickCheck reports whether two single-instruction encodings leave the
// same state on every test vector.
func quickCheck(target, candidate []uint8) bool {
	for _, v := range TestVectors {
		a, errA := execOne(v, target...)
		b, errB := execOne(v, candidate...)
		if errA != nil || errB != nil {
			return false
		}
		if _, ok := sameState(a, b); !ok {
			return false
		}
	}
	return true
}

// prefixFallbackOps lists the base opcodes whose DD form is the same
// instruction: no operand bytes, no HL or (HL) involvement, and no
// control flow.
var prefixFallbackOps = sync.OnceValue(func() []uint8 {
	var ops []uint8
	for _, op := range inst.Ops(inst.Base) {
		base, dd := inst.Lookup(inst.Base, op), inst.Lookup(inst.DD, op)
		f := inst.Split(op)
		if f.X > 2 || op == 0x76 || base.Operand != inst.None {
			continue
		}
		if dd.Defined() && dd.Mnemonic == base.Mnemonic {
			ops = append(ops, op)
		}
	}
	return ops
})

func prefixFallbackCases() int64 {
	return int64(2 * len(prefixFallbackOps()))
}

// checkPrefixFallback compares the DD (then FD) form of one fallback opcode
// with the plain opcode on every test vector.
func checkPrefixFallback(i int64) (string, bool) {
	ops := prefixFallbackOps()
	prefix := uint8(0xDD)
	if i >= int64(len(ops)) {
		prefix = 0xFD
		i -= int64(len(ops))
	}
	op := ops[i]

	if !quickCheck([]uint8{prefix, op}, []uint8{op}) {
		return fmt.Sprintf("%02X %02X differs from %02X", prefix, op, op), false
	}
	plain, err := execOne(TestVectors[0], op)
	if err != nil {
		return err.Error(), false
	}
	prefixed, err := execOne(TestVectors[0], prefix, op)
	if err != nil {
		return err.Error(), false
	}
	if prefixed.PC() != plain.PC()+1 || prefixed.Cycles() != plain.Cycles()+4 {
		return fmt.Sprintf("%02X %02X: PC %04X/%04X T %d/%d", prefix, op,
			prefixed.PC(), plain.PC(), prefixed.Cycles(), plain.Cycles()), false
	}
	return pass, true
}
