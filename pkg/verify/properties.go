package verify

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/sirupsen/logrus"

	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/memory"
)

const pass = ""

// Properties returns every self-test property in a fixed order.
func Properties() []*Property {
	return []*Property{
		{Name: "parity", Desc: "parity table matches popcount", Cases: 256, Check: checkParity},
		{Name: "add-sub-roundtrip", Desc: "a+b-b == a with consistent C and V", Cases: 1 << 16, Check: checkAddSub},
		{Name: "adc-sbc-carry", Desc: "ADC/SBC honour carry in and out", Cases: 1 << 17, Check: checkCarryChain},
		{Name: "inc-dec-carry", Desc: "INC/DEC keep C, set N and V correctly", Cases: 1 << 17, Check: checkIncDec},
		{Name: "logical-flags", Desc: "AND/OR/XOR flags", Cases: 3 << 16, Check: checkLogical},
		{Name: "compare-flags", Desc: "CP sets Z, C and N from a-v, bits 3/5 from v", Cases: 1 << 16, Check: checkCompare},
		{Name: "rotate-roundtrip", Desc: "RLC/RRC and RL/RR invert each other", Cases: 512, Check: checkRotate},
		{Name: "bit-test", Desc: "BIT n sets Z iff the bit is clear", Cases: 8 * 256, Check: checkBit},
		{Name: "daa-bcd", Desc: "ADD/SUB then DAA is decimal arithmetic", Cases: 2 * 100 * 100, Check: checkDaa},
		{Name: "add16-flags", Desc: "ADD HL keeps S, Z and P/V", Cases: 1 << 16, Check: checkAdd16},
		{Name: "adc16-sbc16", Desc: "ADC/SBC HL set Z, S and C from the 16-bit result", Cases: 1 << 17, Check: checkAdcSbc16},
		{Name: "shadow-exchange", Desc: "EXX and EX AF,AF' are involutions", Cases: 1 << 16, Check: checkShadow},
		{Name: "index-displacement", Desc: "LD A,(IX+d) for every d", Cases: 2 * 256, Check: checkDisplacement},
		{Name: "halt-interrupt", Desc: "HALT holds PC; the interrupt pushes it and vectors to 0038h", Cases: 254, Check: checkHaltInterrupt},
		{Name: "syscall-ret", Desc: "a system-call hook returns through a synthetic RET", Cases: 256, Check: checkSyscall},
		{Name: "prefix-fallback", Desc: "DD/FD on an opcode without HL is the opcode plus 4 T-states", Cases: prefixFallbackCases(), Check: checkPrefixFallback},
	}
}

func checkParity(i int64) (string, bool) {
	x := uint8(i)
	want := bits.OnesCount8(x)%2 == 0
	if cpu.EvenParity[x] != want {
		return fmt.Sprintf("x=%02X", x), false
	}
	if (cpu.ParityTable[x] == cpu.FlagP) != want {
		return fmt.Sprintf("x=%02X flag table", x), false
	}
	return pass, true
}

func checkAddSub(i int64) (string, bool) {
	a, b := uint8(i>>8), uint8(i)
	var r cpu.Registers
	sum := r.AddSub8(a, b, false, false)
	if r.Flag(cpu.FlagC) != (uint16(a)+uint16(b) > 0xFF) {
		return fmt.Sprintf("add a=%02X b=%02X F=%02X carry", a, b, r.F()), false
	}
	overflow := (a^sum)&(b^sum)&0x80 != 0
	if r.Flag(cpu.FlagV) != overflow {
		return fmt.Sprintf("add a=%02X b=%02X F=%02X overflow", a, b, r.F()), false
	}
	back := r.AddSub8(sum, b, true, false)
	if back != a {
		return fmt.Sprintf("a=%02X b=%02X got %02X", a, b, back), false
	}
	if r.Flag(cpu.FlagC) != (sum < b) || !r.Flag(cpu.FlagN) {
		return fmt.Sprintf("sub %02X-%02X F=%02X", sum, b, r.F()), false
	}
	return pass, true
}

func checkCarryChain(i int64) (string, bool) {
	a, b := uint8(i>>8), uint8(i)
	c := uint8(i>>16) & 1
	var r cpu.Registers

	r.SetF(c)
	got := r.AddSub8(a, b, false, true)
	full := uint16(a) + uint16(b) + uint16(c)
	if got != uint8(full) || r.Flag(cpu.FlagC) != (full > 0xFF) {
		return fmt.Sprintf("adc a=%02X b=%02X c=%d got %02X F=%02X", a, b, c, got, r.F()), false
	}

	r.SetF(c)
	got = r.AddSub8(a, b, true, true)
	diff := int(a) - int(b) - int(c)
	if got != uint8(diff) || r.Flag(cpu.FlagC) != (diff < 0) {
		return fmt.Sprintf("sbc a=%02X b=%02X c=%d got %02X F=%02X", a, b, c, got, r.F()), false
	}
	if r.Flag(cpu.FlagZ) != (got == 0) {
		return fmt.Sprintf("sbc a=%02X b=%02X c=%d zero", a, b, c), false
	}
	return pass, true
}

func checkIncDec(i int64) (string, bool) {
	v, f := uint8(i>>8), uint8(i)
	inc := i>>16 == 0
	var r cpu.Registers
	r.SetF(f)
	got := r.IncDec8(v, inc)

	want, overflow := v+1, v == 0x7F
	if !inc {
		want, overflow = v-1, v == 0x80
	}
	switch {
	case got != want:
		return fmt.Sprintf("v=%02X inc=%v got %02X", v, inc, got), false
	case r.F()&cpu.FlagC != f&cpu.FlagC:
		return fmt.Sprintf("v=%02X F=%02X inc=%v carry changed", v, f, inc), false
	case r.Flag(cpu.FlagN) == inc:
		return fmt.Sprintf("v=%02X inc=%v N wrong", v, inc), false
	case r.Flag(cpu.FlagV) != overflow:
		return fmt.Sprintf("v=%02X inc=%v V wrong", v, inc), false
	case r.Flag(cpu.FlagZ) != (got == 0):
		return fmt.Sprintf("v=%02X inc=%v Z wrong", v, inc), false
	}
	return pass, true
}

func checkLogical(i int64) (string, bool) {
	a, v := uint8(i>>8), uint8(i)
	op := cpu.LogicOp(i >> 16)
	var r cpu.Registers
	r.SetF(0xFF)
	got := r.Logical(op, a, v)

	var want uint8
	switch op {
	case cpu.OpAnd:
		want = a & v
	case cpu.OpOr:
		want = a | v
	case cpu.OpXor:
		want = a ^ v
	}
	switch {
	case got != want:
		return fmt.Sprintf("op=%d a=%02X v=%02X got %02X", op, a, v, got), false
	case r.Flag(cpu.FlagH) != (op == cpu.OpAnd):
		return fmt.Sprintf("op=%d H wrong", op), false
	case r.F()&(cpu.FlagC|cpu.FlagN) != 0:
		return fmt.Sprintf("op=%d a=%02X v=%02X F=%02X C/N set", op, a, v, r.F()), false
	case r.Flag(cpu.FlagP) != cpu.EvenParity[got]:
		return fmt.Sprintf("op=%d result=%02X parity", op, got), false
	}
	return pass, true
}

func checkCompare(i int64) (string, bool) {
	a, v := uint8(i>>8), uint8(i)
	var r cpu.Registers
	r.Compare(a, v)
	switch {
	case r.Flag(cpu.FlagZ) != (a == v), r.Flag(cpu.FlagC) != (a < v), !r.Flag(cpu.FlagN):
		return fmt.Sprintf("cp a=%02X v=%02X F=%02X", a, v, r.F()), false
	case r.F()&(cpu.Flag3|cpu.Flag5) != v&(cpu.Flag3|cpu.Flag5):
		return fmt.Sprintf("cp a=%02X v=%02X bits 3/5", a, v), false
	}
	return pass, true
}

func checkRotate(i int64) (string, bool) {
	v := uint8(i)
	c := uint8(i>>8) & 1
	var r cpu.Registers

	if got := r.Rotate(cpu.OpRRC, r.Rotate(cpu.OpRLC, v)); got != v {
		return fmt.Sprintf("rlc/rrc v=%02X got %02X", v, got), false
	}

	r.SetF(c)
	mid := r.Rotate(cpu.OpRL, v)
	if r.F()&cpu.FlagC != v>>7 {
		return fmt.Sprintf("rl v=%02X carry out", v), false
	}
	got := r.Rotate(cpu.OpRR, mid)
	if got != v || r.F()&cpu.FlagC != c {
		return fmt.Sprintf("rl/rr v=%02X c=%d got %02X F=%02X", v, c, got, r.F()), false
	}

	r.Rotate(cpu.OpSRL, v)
	if r.F()&cpu.FlagC != v&1 {
		return fmt.Sprintf("srl v=%02X carry out", v), false
	}
	return pass, true
}

func checkBit(i int64) (string, bool) {
	n, v := uint8(i>>8), uint8(i)
	var r cpu.Registers
	r.SetF(cpu.FlagC)
	r.Bit(n, v)
	isClear := v&(1<<n) == 0
	if r.Flag(cpu.FlagZ) != isClear || !r.Flag(cpu.FlagH) || !r.Flag(cpu.FlagC) || r.Flag(cpu.FlagN) {
		return fmt.Sprintf("bit %d,%02X F=%02X", n, v, r.F()), false
	}
	return pass, true
}

func bcd(n int) uint8 { return uint8(n/10<<4 | n%10) }

func checkDaa(i int64) (string, bool) {
	x, y := int(i%100), int(i/100%100)
	sub := i >= 100*100
	var r cpu.Registers
	raw := r.AddSub8(bcd(x), bcd(y), sub, false)
	got := r.Daa(raw)

	want, carry, op := x+y, x+y >= 100, "+"
	if sub {
		want, carry, op = x-y, x < y, "-"
	}
	want = (want + 100) % 100
	if got != bcd(want) || r.Flag(cpu.FlagC) != carry {
		return fmt.Sprintf("%d %s %d: got %02X F=%02X want %02X", x, op, y, got, r.F(), bcd(want)), false
	}
	return pass, true
}

// spread derives a second 16-bit operand from a case index.
func spread(i int64) uint16 { return uint16(i)*0x9E37 ^ 0x5A5A }

func checkAdd16(i int64) (string, bool) {
	a, b := uint16(i), spread(i)
	var r cpu.Registers
	keep := cpu.FlagS | cpu.FlagZ | cpu.FlagP
	r.SetF(keep | cpu.FlagN)
	got := r.Add16(a, b)
	switch {
	case got != a+b:
		return fmt.Sprintf("%04X+%04X got %04X", a, b, got), false
	case r.F()&keep != keep, r.Flag(cpu.FlagN):
		return fmt.Sprintf("%04X+%04X F=%02X", a, b, r.F()), false
	case r.Flag(cpu.FlagC) != (uint32(a)+uint32(b) > 0xFFFF):
		return fmt.Sprintf("%04X+%04X carry", a, b), false
	}
	return pass, true
}

func checkAdcSbc16(i int64) (string, bool) {
	a, b := uint16(i), spread(i)
	sub := i>>16 != 0
	c := uint8(i>>3) & 1
	var r cpu.Registers
	r.SetF(c)
	got := r.AddSub16(a, b, sub, true)

	full := int(a) + int(b) + int(c)
	if sub {
		full = int(a) - int(b) - int(c)
	}
	switch {
	case got != uint16(full):
		return fmt.Sprintf("%04X,%04X c=%d sub=%v got %04X", a, b, c, sub, got), false
	case r.Flag(cpu.FlagZ) != (got == 0), r.Flag(cpu.FlagS) != (got&0x8000 != 0):
		return fmt.Sprintf("%04X,%04X sub=%v F=%02X", a, b, sub, r.F()), false
	case r.Flag(cpu.FlagC) != (full < 0 || full > 0xFFFF):
		return fmt.Sprintf("%04X,%04X c=%d sub=%v carry", a, b, c, sub), false
	case r.Flag(cpu.FlagN) != sub:
		return fmt.Sprintf("%04X,%04X sub=%v N", a, b, sub), false
	}
	return pass, true
}

func checkShadow(i int64) (string, bool) {
	var r cpu.Registers
	v := uint16(i)
	for k, reg := range []cpu.Reg16{cpu.AF, cpu.BC, cpu.DE, cpu.HL} {
		r.Set(reg, v+uint16(k))
		r.SetShadow(reg, ^v-uint16(k))
	}
	before := r.Snapshot()

	r.Exx()
	if r.Get(cpu.BC) != ^v-1 || r.Shadow(cpu.BC) != v+1 || r.Get(cpu.AF) != v {
		return fmt.Sprintf("v=%04X single EXX", v), false
	}
	r.Exx()
	r.ExAF()
	if r.Get(cpu.AF) != ^v {
		return fmt.Sprintf("v=%04X single EX AF", v), false
	}
	r.ExAF()
	after := r.Snapshot()
	for k, want := range before {
		if after[k] != want {
			return fmt.Sprintf("v=%04X %s=%04X want %04X", v, k, after[k], want), false
		}
	}
	return pass, true
}

var quiet = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func newCPU(org uint16, prog ...uint8) (*cpu.CPU, *memory.RAM) {
	ram := memory.NewRAM()
	ram.Load(org, prog)
	c := cpu.New(ram, nil, cpu.WithLogger(quiet), cpu.WithStrict(true))
	c.Registers().Set(cpu.PC, org)
	c.Registers().Set(cpu.SP, 0xF000)
	return c, ram
}

func checkDisplacement(i int64) (string, bool) {
	d := uint8(i)
	prefix := uint8(0xDD)
	idx := cpu.IX
	if i >= 256 {
		prefix, idx = 0xFD, cpu.IY
	}
	c, ram := newCPU(0x0100, prefix, 0x7E, d)
	c.Registers().Set(idx, 0x2000)
	addr := 0x2000 + uint16(int8(d))
	ram.WriteUnsigned8(addr, d^0x5A)
	if err := c.ExecuteSingleInstruction(); err != nil {
		return err.Error(), false
	}
	r := c.Registers()
	if r.A() != d^0x5A || r.Get(cpu.PC) != 0x0103 || c.Cycles() != 19 {
		return fmt.Sprintf("%02X 7E %02X: A=%02X PC=%04X T=%d", prefix, d, r.A(), r.Get(cpu.PC), c.Cycles()), false
	}
	return pass, true
}

func checkHaltInterrupt(i int64) (string, bool) {
	addr := uint16(i+1)<<8 | 0x80
	c, ram := newCPU(addr, 0x76)
	r := c.Registers()
	r.IFF1, r.IFF2 = true, true
	for n := 0; n < 3; n++ {
		if err := c.ExecuteSingleInstruction(); err != nil {
			return err.Error(), false
		}
	}
	if !c.Halted() || r.Get(cpu.PC) != addr {
		return fmt.Sprintf("HALT at %04X: halted=%v PC=%04X", addr, c.Halted(), r.Get(cpu.PC)), false
	}
	if !c.Interrupt() {
		return fmt.Sprintf("HALT at %04X: interrupt refused", addr), false
	}
	sp := r.Get(cpu.SP)
	if c.Halted() || ram.ReadUnsigned16(sp) != addr || r.Get(cpu.PC) != cpu.IntVector {
		return fmt.Sprintf("HALT at %04X: halted=%v (SP)=%04X PC=%04X", addr, c.Halted(), ram.ReadUnsigned16(sp), r.Get(cpu.PC)), false
	}
	return pass, true
}

func checkSyscall(i int64) (string, bool) {
	ret := uint16(i)<<8 | 0x34
	c, ram := newCPU(0x0005)
	ram.WriteUnsigned16(0xF000, ret)
	c.RegisterSystemCall(0x0005, func(c *cpu.CPU) error {
		c.Registers().SetA(0x42)
		return nil
	})
	if err := c.ExecuteSingleInstruction(); err != nil {
		return err.Error(), false
	}
	r := c.Registers()
	if r.A() != 0x42 || r.Get(cpu.PC) != ret || r.Get(cpu.SP) != 0xF002 {
		return fmt.Sprintf("ret=%04X: A=%02X PC=%04X SP=%04X", ret, r.A(), r.Get(cpu.PC), r.Get(cpu.SP)), false
	}
	return pass, true
}
