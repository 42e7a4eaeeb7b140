package cpu

// Flag/ALU engine, ported from remogatto/z80. Every operation returns its
// numeric result and rewrites F.

// LogicOp selects AND, OR or XOR for Logical.
type LogicOp uint8

const (
	OpAnd LogicOp = iota
	OpOr
	OpXor
)

// RotOp selects one of the CB rotate/shift operations, in encoding order.
type RotOp uint8

const (
	OpRLC RotOp = iota
	OpRRC
	OpRL
	OpRR
	OpSLA
	OpSRA
	OpSLL
	OpSRL
)

// AddSub8 computes a+b or a-b, optionally including the carry flag, and
// sets every flag from the raw result.
func (r *Registers) AddSub8(a, b uint8, sub, useCarry bool) uint8 {
	var carry uint16
	if useCarry {
		carry = uint16(r.F() & FlagC)
	}
	var temp uint16
	var f uint8
	if sub {
		temp = uint16(a) - uint16(b) - carry
		lookup := ((a & 0x88) >> 3) | ((b & 0x88) >> 2) | uint8((temp&0x88)>>1)
		f = FlagN | HalfcarrySubTable[lookup&0x07] | OverflowSubTable[lookup>>4]
	} else {
		temp = uint16(a) + uint16(b) + carry
		lookup := ((a & 0x88) >> 3) | ((b & 0x88) >> 2) | uint8((temp&0x88)>>1)
		f = HalfcarryAddTable[lookup&0x07] | OverflowAddTable[lookup>>4]
	}
	result := uint8(temp)
	r.SetF(f | bsel(temp&0x100 != 0, FlagC, 0) | Sz53Table[result])
	return result
}

// Compare sets flags as for a-v without producing a result. Bits 3 and 5
// are copied from the operand.
func (r *Registers) Compare(a, v uint8) {
	cptemp := uint16(a) - uint16(v)
	lookup := ((a & 0x88) >> 3) | ((v & 0x88) >> 2) | uint8((cptemp&0x88)>>1)
	r.SetF(bsel(cptemp&0x100 != 0, FlagC, bsel(cptemp&0xFF != 0, 0, FlagZ)) |
		FlagN |
		HalfcarrySubTable[lookup&0x07] |
		OverflowSubTable[lookup>>4] |
		(v & (Flag3 | Flag5)) |
		uint8(cptemp&uint16(FlagS)))
}

// AddSub16 is the 16-bit form used by ADC HL and SBC HL: all flags are
// recomputed, overflow is tested against bit 15.
func (r *Registers) AddSub16(a, b uint16, sub, useCarry bool) uint16 {
	var carry uint32
	if useCarry {
		carry = uint32(r.F() & FlagC)
	}
	var result uint32
	var f uint8
	if sub {
		result = uint32(a) - uint32(b) - carry
		lookup := uint8(((uint32(a) & 0x8800) >> 11) | ((uint32(b) & 0x8800) >> 10) | ((result & 0x8800) >> 9))
		f = FlagN | OverflowSubTable[lookup>>4] | HalfcarrySubTable[lookup&0x07]
	} else {
		result = uint32(a) + uint32(b) + carry
		lookup := uint8(((uint32(a) & 0x8800) >> 11) | ((uint32(b) & 0x8800) >> 10) | ((result & 0x8800) >> 9))
		f = OverflowAddTable[lookup>>4] | HalfcarryAddTable[lookup&0x07]
	}
	v := uint16(result)
	hi := uint8(v >> 8)
	r.SetF(f |
		bsel(result&0x10000 != 0, FlagC, 0) |
		(hi & (Flag3 | Flag5 | FlagS)) |
		bsel(v != 0, 0, FlagZ))
	return v
}

// Add16 implements ADD HL/IX/IY, rr: H from bit 11, C from bit 15, N cleared,
// S, Z and P/V preserved.
func (r *Registers) Add16(a, b uint16) uint16 {
	result := uint32(a) + uint32(b)
	hc := (a & 0x0FFF) + (b & 0x0FFF)
	r.SetF((r.F() & (FlagS | FlagZ | FlagP)) |
		bsel(hc&0x1000 != 0, FlagH, 0) |
		bsel(result&0x10000 != 0, FlagC, 0) |
		(uint8(result>>8) & (Flag3 | Flag5)))
	return uint16(result)
}

// IncDec8 increments or decrements v. Carry is preserved; overflow fires on
// 7F->80 and 80->7F.
func (r *Registers) IncDec8(v uint8, inc bool) uint8 {
	f := r.F() & FlagC
	if inc {
		v++
		f |= bsel(v == 0x80, FlagV, 0) | bsel(v&0x0F != 0, 0, FlagH)
	} else {
		f |= bsel(v&0x0F != 0, 0, FlagH) | FlagN
		v--
		f |= bsel(v == 0x7F, FlagV, 0)
	}
	r.SetF(f | Sz53Table[v])
	return v
}

// Logical applies AND, OR or XOR. C and N are cleared, P/V is even parity,
// H is set only for AND.
func (r *Registers) Logical(op LogicOp, a, v uint8) uint8 {
	var result uint8
	var f uint8
	switch op {
	case OpAnd:
		result = a & v
		f = FlagH
	case OpOr:
		result = a | v
	case OpXor:
		result = a ^ v
	}
	r.SetF(f | Sz53pTable[result])
	return result
}

// Rotate applies one of the CB rotate/shift operations. C receives the bit
// shifted out; H and N are cleared; S, Z and P/V follow the result.
func (r *Registers) Rotate(op RotOp, v uint8) uint8 {
	var out, result uint8
	switch op {
	case OpRLC:
		out = v >> 7
		result = v<<1 | out
	case OpRRC:
		out = v & 1
		result = v>>1 | out<<7
	case OpRL:
		out = v >> 7
		result = v<<1 | r.F()&FlagC
	case OpRR:
		out = v & 1
		result = v>>1 | (r.F()&FlagC)<<7
	case OpSLA:
		out = v >> 7
		result = v << 1
	case OpSRA:
		out = v & 1
		result = v&0x80 | v>>1
	case OpSLL:
		out = v >> 7
		result = v<<1 | 1
	case OpSRL:
		out = v & 1
		result = v >> 1
	}
	r.SetF(out | Sz53pTable[result])
	return result
}

// RotateA implements RLCA, RRCA, RLA and RRA. Unlike the CB forms these
// keep S, Z and P/V.
func (r *Registers) RotateA(op RotOp, a uint8) uint8 {
	keep := r.F() & (FlagS | FlagZ | FlagP)
	result := r.Rotate(op, a)
	r.SetF(keep | r.F()&FlagC | result&(Flag3|Flag5))
	return result
}

// Bit implements BIT n, v: Z and P/V are set when the bit is clear, H is
// set, N is cleared, C is kept.
func (r *Registers) Bit(n, v uint8) {
	f := (r.F() & FlagC) | FlagH | (v & (Flag3 | Flag5))
	if v&(1<<n) == 0 {
		f |= FlagP | FlagZ
	}
	if n == 7 && v&0x80 != 0 {
		f |= FlagS
	}
	r.SetF(f)
}

// Daa adjusts a for BCD after an addition or subtraction.
func (r *Registers) Daa(a uint8) uint8 {
	var add uint8
	f := r.F()
	carry := f & FlagC
	if f&FlagH != 0 || a&0x0F > 9 {
		add = 6
	}
	if carry != 0 || a > 0x99 {
		add |= 0x60
	}
	if a > 0x99 {
		carry = FlagC
	}
	result := r.AddSub8(a, add, f&FlagN != 0, false)
	r.SetF(r.F()&^(FlagC|FlagP) | carry | ParityTable[result])
	return result
}

// SetBit returns v with bit n set.
func SetBit(n, v uint8) uint8 { return v | 1<<n }

// ResBit returns v with bit n cleared.
func ResBit(n, v uint8) uint8 { return v &^ (1 << n) }

// bsel returns a if cond is true, else b. Branchless flag selection.
func bsel(cond bool, a, b uint8) uint8 {
	if cond {
		return a
	}
	return b
}
