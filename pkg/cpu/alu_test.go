package cpu

import (
	"math/bits"
	"testing"
)

// TestFlagTables verifies our precomputed tables match expected values.
func TestFlagTables(t *testing.T) {
	if Sz53Table[0]&FlagZ == 0 {
		t.Error("sz53Table[0] should have Z flag")
	}
	if Sz53Table[0x80]&FlagS == 0 {
		t.Error("sz53Table[0x80] should have S flag")
	}
	for x := 0; x < 256; x++ {
		even := bits.OnesCount8(uint8(x))%2 == 0
		if EvenParity[x] != even {
			t.Errorf("EvenParity[%02X] = %v, want %v", x, EvenParity[x], even)
		}
		if (ParityTable[x] == FlagP) != even {
			t.Errorf("ParityTable[%02X] = %02X", x, ParityTable[x])
		}
	}
}

// TestAddFlags verifies ADD A, r flag behavior for key cases.
func TestAddFlags(t *testing.T) {
	tests := []struct {
		a, val       uint8
		wantA        uint8
		wantCarry    bool
		wantZero     bool
		wantSign     bool
		wantHalf     bool
		wantOverflow bool
	}{
		{0, 0, 0, false, true, false, false, false},
		{1, 1, 2, false, false, false, false, false},
		{0xFF, 1, 0, true, true, false, true, false},
		{0x0F, 1, 0x10, false, false, false, true, false},
		{0x7F, 1, 0x80, false, false, true, true, true}, // overflow: pos + pos = neg
		{0x80, 0x80, 0, true, true, false, false, true}, // overflow: neg + neg = pos
	}

	for _, tc := range tests {
		var r Registers
		got := r.AddSub8(tc.a, tc.val, false, false)
		f := r.F()
		if got != tc.wantA {
			t.Errorf("ADD A=%02X + %02X: got A=%02X, want %02X", tc.a, tc.val, got, tc.wantA)
		}
		if (f&FlagC != 0) != tc.wantCarry {
			t.Errorf("ADD A=%02X + %02X: carry=%v, want %v", tc.a, tc.val, f&FlagC != 0, tc.wantCarry)
		}
		if (f&FlagZ != 0) != tc.wantZero {
			t.Errorf("ADD A=%02X + %02X: zero=%v, want %v", tc.a, tc.val, f&FlagZ != 0, tc.wantZero)
		}
		if (f&FlagS != 0) != tc.wantSign {
			t.Errorf("ADD A=%02X + %02X: sign=%v, want %v", tc.a, tc.val, f&FlagS != 0, tc.wantSign)
		}
		if (f&FlagH != 0) != tc.wantHalf {
			t.Errorf("ADD A=%02X + %02X: half=%v, want %v", tc.a, tc.val, f&FlagH != 0, tc.wantHalf)
		}
		if (f&FlagV != 0) != tc.wantOverflow {
			t.Errorf("ADD A=%02X + %02X: overflow=%v, want %v", tc.a, tc.val, f&FlagV != 0, tc.wantOverflow)
		}
		if f&FlagN != 0 {
			t.Errorf("ADD A=%02X + %02X: N should be clear", tc.a, tc.val)
		}
	}
}

func TestSubFlags(t *testing.T) {
	tests := []struct {
		a, val       uint8
		wantA        uint8
		wantCarry    bool
		wantOverflow bool
	}{
		{5, 3, 2, false, false},
		{0, 1, 0xFF, true, false},
		{0x80, 1, 0x7F, false, true}, // neg - pos = pos
		{0x7F, 0xFF, 0x80, true, true},
		{0x42, 0x42, 0, false, false},
	}
	for _, tc := range tests {
		var r Registers
		got := r.AddSub8(tc.a, tc.val, true, false)
		f := r.F()
		if got != tc.wantA {
			t.Errorf("SUB A=%02X - %02X: got A=%02X, want %02X", tc.a, tc.val, got, tc.wantA)
		}
		if (f&FlagC != 0) != tc.wantCarry {
			t.Errorf("SUB A=%02X - %02X: carry=%v, want %v", tc.a, tc.val, f&FlagC != 0, tc.wantCarry)
		}
		if (f&FlagV != 0) != tc.wantOverflow {
			t.Errorf("SUB A=%02X - %02X: overflow=%v, want %v", tc.a, tc.val, f&FlagV != 0, tc.wantOverflow)
		}
		if f&FlagN == 0 {
			t.Errorf("SUB A=%02X - %02X: N should be set", tc.a, tc.val)
		}
	}
}

func TestCarryIn(t *testing.T) {
	var r Registers
	r.SetF(FlagC)
	if got := r.AddSub8(0x10, 0x01, false, true); got != 0x12 {
		t.Errorf("ADC 10+01+C: got %02X want 12", got)
	}
	r.SetF(FlagC)
	if got := r.AddSub8(0x10, 0x01, false, false); got != 0x11 {
		t.Errorf("ADD ignores carry: got %02X want 11", got)
	}
	r.SetF(FlagC)
	if got := r.AddSub8(0x10, 0x01, true, true); got != 0x0E {
		t.Errorf("SBC 10-01-C: got %02X want 0E", got)
	}
}

// TestExhaustiveAddSub verifies that subtracting b undoes adding b for all
// 256x256 operand pairs, and that carry tracks the unsigned overflow.
func TestExhaustiveAddSub(t *testing.T) {
	var r Registers
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			sum := r.AddSub8(uint8(a), uint8(b), false, false)
			if (r.F()&FlagC != 0) != (a+b > 0xFF) {
				t.Fatalf("ADD %02X+%02X: carry=%v", a, b, r.F()&FlagC != 0)
			}
			back := r.AddSub8(sum, uint8(b), true, false)
			if back != uint8(a) {
				t.Fatalf("%02X+%02X-%02X = %02X", a, b, b, back)
			}
			if (r.F()&FlagC != 0) != (int(sum) < b) {
				t.Fatalf("SUB %02X-%02X: carry=%v", sum, b, r.F()&FlagC != 0)
			}
		}
	}
}

func TestAddSub16(t *testing.T) {
	var r Registers
	if got := r.AddSub16(0x7FFF, 0x0001, false, false); got != 0x8000 || r.F()&FlagV == 0 || r.F()&FlagS == 0 {
		t.Errorf("ADC 7FFF+1: got %04X F=%02X", got, r.F())
	}
	if got := r.AddSub16(0x0000, 0x0001, true, false); got != 0xFFFF || r.F()&FlagC == 0 || r.F()&FlagN == 0 {
		t.Errorf("SBC 0-1: got %04X F=%02X", got, r.F())
	}
	r.SetF(FlagC)
	if got := r.AddSub16(0x1000, 0x0FFF, true, true); got != 0 || r.F()&FlagZ == 0 {
		t.Errorf("SBC 1000-0FFF-C: got %04X F=%02X", got, r.F())
	}
}

func TestAdd16PreservesSZP(t *testing.T) {
	var r Registers
	r.SetF(FlagS | FlagZ | FlagP | FlagN)
	got := r.Add16(0xFFFF, 0x0001)
	f := r.F()
	if got != 0 {
		t.Errorf("ADD HL FFFF+1: got %04X", got)
	}
	if f&(FlagS|FlagZ|FlagP) != FlagS|FlagZ|FlagP {
		t.Errorf("ADD HL should preserve S, Z, P/V: F=%02X", f)
	}
	if f&FlagN != 0 || f&FlagC == 0 || f&FlagH == 0 {
		t.Errorf("ADD HL FFFF+1: F=%02X, want C and H set, N clear", f)
	}
}

func TestIncDec(t *testing.T) {
	tests := []struct {
		v        uint8
		inc      bool
		want     uint8
		overflow bool
		zero     bool
	}{
		{0x7F, true, 0x80, true, false},
		{0xFF, true, 0x00, false, true},
		{0x80, false, 0x7F, true, false},
		{0x01, false, 0x00, false, true},
		{0x10, false, 0x0F, false, false},
	}
	for _, tc := range tests {
		for _, carry := range []uint8{0, FlagC} {
			var r Registers
			r.SetF(carry)
			got := r.IncDec8(tc.v, tc.inc)
			f := r.F()
			if got != tc.want {
				t.Errorf("IncDec8(%02X, %v): got %02X want %02X", tc.v, tc.inc, got, tc.want)
			}
			if f&FlagC != carry {
				t.Errorf("IncDec8(%02X, %v): carry changed, F=%02X", tc.v, tc.inc, f)
			}
			if (f&FlagV != 0) != tc.overflow {
				t.Errorf("IncDec8(%02X, %v): overflow=%v", tc.v, tc.inc, f&FlagV != 0)
			}
			if (f&FlagZ != 0) != tc.zero {
				t.Errorf("IncDec8(%02X, %v): zero=%v", tc.v, tc.inc, f&FlagZ != 0)
			}
		}
	}
}

func TestAndOrXor(t *testing.T) {
	var r Registers
	r.SetF(FlagC | FlagN)
	if got := r.Logical(OpAnd, 0xFF, 0x0F); got != 0x0F {
		t.Errorf("AND: got A=%02X, want 0F", got)
	}
	if r.F()&FlagH == 0 || r.F()&(FlagC|FlagN) != 0 {
		t.Errorf("AND flags: F=%02X", r.F())
	}
	if got := r.Logical(OpOr, 0xF0, 0x0F); got != 0xFF {
		t.Errorf("OR: got A=%02X, want FF", got)
	}
	if r.F()&FlagP == 0 || r.F()&FlagS == 0 {
		t.Errorf("OR FF: want P and S, F=%02X", r.F())
	}
	if got := r.Logical(OpXor, 0x42, 0x42); got != 0 {
		t.Errorf("XOR: got A=%02X, want 00", got)
	}
	if r.F()&FlagZ == 0 || r.F()&FlagH != 0 {
		t.Errorf("XOR 0: F=%02X", r.F())
	}
	if r.Logical(OpXor, 0x01, 0x00); r.F()&FlagP != 0 {
		t.Errorf("XOR odd parity: F=%02X", r.F())
	}
}

func TestCompare(t *testing.T) {
	var r Registers
	r.Compare(0x42, 0x42)
	if r.F()&FlagZ == 0 || r.F()&FlagN == 0 || r.F()&FlagC != 0 {
		t.Errorf("CP equal: F=%02X", r.F())
	}
	r.Compare(0x10, 0x28)
	if r.F()&FlagC == 0 || r.F()&FlagZ != 0 {
		t.Errorf("CP less: F=%02X", r.F())
	}
	if r.F()&(Flag3|Flag5) != 0x28&(Flag3|Flag5) {
		t.Errorf("CP undocumented bits should follow operand: F=%02X", r.F())
	}
}

func TestRotates(t *testing.T) {
	tests := []struct {
		op        RotOp
		v, carry  uint8
		want      uint8
		wantCarry bool
	}{
		{OpRLC, 0x80, 0, 0x01, true},
		{OpRRC, 0x01, 0, 0x80, true},
		{OpRL, 0x80, 0, 0x00, true},
		{OpRL, 0x01, FlagC, 0x03, false},
		{OpRR, 0x01, FlagC, 0x80, true},
		{OpSLA, 0x80, 0, 0x00, true},
		{OpSRA, 0x80, 0, 0xC0, false},
		{OpSLL, 0x80, 0, 0x01, true},
		{OpSRL, 0x81, 0, 0x40, true},
	}
	for _, tc := range tests {
		var r Registers
		r.SetF(tc.carry | FlagH | FlagN)
		got := r.Rotate(tc.op, tc.v)
		if got != tc.want {
			t.Errorf("rot %d %02X: got %02X want %02X", tc.op, tc.v, got, tc.want)
		}
		if (r.F()&FlagC != 0) != tc.wantCarry {
			t.Errorf("rot %d %02X: carry=%v want %v", tc.op, tc.v, r.F()&FlagC != 0, tc.wantCarry)
		}
		if r.F()&(FlagH|FlagN) != 0 {
			t.Errorf("rot %d %02X: H/N should be cleared, F=%02X", tc.op, tc.v, r.F())
		}
		if (r.F()&FlagZ != 0) != (got == 0) {
			t.Errorf("rot %d %02X: zero flag mismatch, F=%02X", tc.op, tc.v, r.F())
		}
	}
}

func TestRotateAKeepsSZP(t *testing.T) {
	var r Registers
	r.SetF(FlagS | FlagZ | FlagP)
	got := r.RotateA(OpRLC, 0x80)
	if got != 0x01 {
		t.Errorf("RLCA 0x80: got %02X want 0x01", got)
	}
	if r.F()&(FlagS|FlagZ|FlagP) != FlagS|FlagZ|FlagP || r.F()&FlagC == 0 {
		t.Errorf("RLCA flags: F=%02X", r.F())
	}
}

func TestBit(t *testing.T) {
	var r Registers
	r.SetF(FlagC | FlagN)
	r.Bit(3, 0x00)
	if r.F()&FlagZ == 0 || r.F()&FlagH == 0 || r.F()&FlagN != 0 || r.F()&FlagC == 0 {
		t.Errorf("BIT 3, 00: F=%02X", r.F())
	}
	r.Bit(3, 0x08)
	if r.F()&FlagZ != 0 {
		t.Errorf("BIT 3, 08: Z should be clear, F=%02X", r.F())
	}
	if SetBit(7, 0x01) != 0x81 || ResBit(0, 0x81) != 0x80 {
		t.Error("SetBit/ResBit")
	}
}

// TestDAA verifies DAA for a selection of key cases.
func TestDAA(t *testing.T) {
	tests := []struct {
		a         uint8
		f         uint8 // input flags
		want      uint8
		wantCarry bool
		name      string
	}{
		{0x15, 0, 0x15, false, "BCD 15 no adjust"},
		{0x1A, 0, 0x20, false, "BCD adjust low nibble"},
		{0xA0, 0, 0x00, true, "BCD adjust high nibble"},
		{0x9A, 0, 0x00, true, "BCD 9A -> 00"},
		{0x0F, FlagN, 0x09, false, "after subtract"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var r Registers
			r.SetF(tc.f)
			got := r.Daa(tc.a)
			if got != tc.want {
				t.Errorf("DAA A=%02X F=%02X: got A=%02X want %02X (F=%02X)", tc.a, tc.f, got, tc.want, r.F())
			}
			if (r.F()&FlagC != 0) != tc.wantCarry {
				t.Errorf("DAA A=%02X F=%02X: carry=%v want %v", tc.a, tc.f, r.F()&FlagC != 0, tc.wantCarry)
			}
		})
	}
}
