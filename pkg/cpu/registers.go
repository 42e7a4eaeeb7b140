package cpu

// Reg16 names a 16-bit register in the primary bank.
type Reg16 uint8

const (
	AF Reg16 = iota
	BC
	DE
	HL
	IX
	IY
	SP
	PC

	numReg16
)

var reg16Names = [numReg16]string{"AF", "BC", "DE", "HL", "IX", "IY", "SP", "PC"}

func (r Reg16) String() string {
	if r < numReg16 {
		return reg16Names[r]
	}
	return "?"
}

// Registers is the complete CPU-visible state. Each pair is stored as one
// 16-bit word; the 8-bit halves are derived with explicit shifts so the
// layout does not depend on host byte order.
type Registers struct {
	w      [numReg16]uint16
	shadow [4]uint16 // AF', BC', DE', HL'

	I uint8
	R uint8

	IFF1   bool
	IFF2   bool
	IM     uint8
	Halted bool

	Cycles uint64
}

// Get returns a 16-bit register.
func (r *Registers) Get(i Reg16) uint16 { return r.w[i] }

// Set stores a 16-bit register.
func (r *Registers) Set(i Reg16, v uint16) { r.w[i] = v }

// Hi returns the high byte of a pair.
func (r *Registers) Hi(i Reg16) uint8 { return uint8(r.w[i] >> 8) }

// Lo returns the low byte of a pair.
func (r *Registers) Lo(i Reg16) uint8 { return uint8(r.w[i]) }

// SetHi replaces the high byte of a pair.
func (r *Registers) SetHi(i Reg16, v uint8) { r.w[i] = r.w[i]&0x00FF | uint16(v)<<8 }

// SetLo replaces the low byte of a pair.
func (r *Registers) SetLo(i Reg16, v uint8) { r.w[i] = r.w[i]&0xFF00 | uint16(v) }

// Shadow returns the alternate copy of AF, BC, DE or HL.
func (r *Registers) Shadow(i Reg16) uint16 {
	if i > HL {
		return 0
	}
	return r.shadow[i]
}

// SetShadow stores the alternate copy of AF, BC, DE or HL.
func (r *Registers) SetShadow(i Reg16, v uint16) {
	if i <= HL {
		r.shadow[i] = v
	}
}

// Exx exchanges BC, DE and HL with their shadows.
func (r *Registers) Exx() {
	for i := BC; i <= HL; i++ {
		r.w[i], r.shadow[i] = r.shadow[i], r.w[i]
	}
}

// ExAF exchanges AF with AF'.
func (r *Registers) ExAF() {
	r.w[AF], r.shadow[AF] = r.shadow[AF], r.w[AF]
}

func (r *Registers) A() uint8 { return r.Hi(AF) }
func (r *Registers) F() uint8 { return r.Lo(AF) }
func (r *Registers) B() uint8 { return r.Hi(BC) }
func (r *Registers) C() uint8 { return r.Lo(BC) }
func (r *Registers) D() uint8 { return r.Hi(DE) }
func (r *Registers) E() uint8 { return r.Lo(DE) }
func (r *Registers) H() uint8 { return r.Hi(HL) }
func (r *Registers) L() uint8 { return r.Lo(HL) }

func (r *Registers) SetA(v uint8) { r.SetHi(AF, v) }
func (r *Registers) SetF(v uint8) { r.SetLo(AF, v) }
func (r *Registers) SetB(v uint8) { r.SetHi(BC, v) }
func (r *Registers) SetC(v uint8) { r.SetLo(BC, v) }
func (r *Registers) SetD(v uint8) { r.SetHi(DE, v) }
func (r *Registers) SetE(v uint8) { r.SetLo(DE, v) }
func (r *Registers) SetH(v uint8) { r.SetHi(HL, v) }
func (r *Registers) SetL(v uint8) { r.SetLo(HL, v) }

// Flag reports whether every bit of mask is set in F.
func (r *Registers) Flag(mask uint8) bool { return r.F()&mask == mask }

// incR advances the low seven bits of R, keeping bit 7.
func (r *Registers) incR() {
	r.R = r.R&0x80 | (r.R+1)&0x7F
}

// Snapshot returns every named register, the shadow set, I and R.
func (r *Registers) Snapshot() map[string]uint16 {
	m := make(map[string]uint16, int(numReg16)+6)
	for i := AF; i < numReg16; i++ {
		m[i.String()] = r.w[i]
	}
	for i := AF; i <= HL; i++ {
		m["_"+i.String()] = r.shadow[i]
	}
	m["I"] = uint16(r.I)
	m["R"] = uint16(r.R)
	return m
}

// Restore loads registers from a map produced by Snapshot. Missing keys
// leave the register unchanged.
func (r *Registers) Restore(m map[string]uint16) {
	for i := AF; i < numReg16; i++ {
		if v, ok := m[i.String()]; ok {
			r.w[i] = v
		}
	}
	for i := AF; i <= HL; i++ {
		if v, ok := m["_"+i.String()]; ok {
			r.shadow[i] = v
		}
	}
	if v, ok := m["I"]; ok {
		r.I = uint8(v)
	}
	if v, ok := m["R"]; ok {
		r.R = uint8(v)
	}
}
