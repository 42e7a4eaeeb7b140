package cpu

// get8 reads r[i] for i != 6. H and L resolve to the halves of idx.
func (c *CPU) get8(i uint8, idx Reg16) uint8 {
	switch i {
	case 0:
		return c.reg.Hi(BC)
	case 1:
		return c.reg.Lo(BC)
	case 2:
		return c.reg.Hi(DE)
	case 3:
		return c.reg.Lo(DE)
	case 4:
		return c.reg.Hi(idx)
	case 5:
		return c.reg.Lo(idx)
	default:
		return c.reg.Hi(AF)
	}
}

// set8 writes r[i] for i != 6.
func (c *CPU) set8(i uint8, idx Reg16, v uint8) {
	switch i {
	case 0:
		c.reg.SetHi(BC, v)
	case 1:
		c.reg.SetLo(BC, v)
	case 2:
		c.reg.SetHi(DE, v)
	case 3:
		c.reg.SetLo(DE, v)
	case 4:
		c.reg.SetHi(idx, v)
	case 5:
		c.reg.SetLo(idx, v)
	default:
		c.reg.SetHi(AF, v)
	}
}

// readR reads r[i], including the memory operand.
func (c *CPU) readR(i uint8, idx Reg16) uint8 {
	if i == 6 {
		return c.mem.ReadUnsigned8(c.indexed(idx))
	}
	return c.get8(i, idx)
}

// indexed returns the memory operand address: HL, or IX/IY plus a
// displacement fetched from the instruction stream.
func (c *CPU) indexed(idx Reg16) uint16 {
	if idx == HL {
		return c.reg.Get(HL)
	}
	d := c.fetchSigned8()
	return c.reg.Get(idx) + uint16(int16(d))
}

// bitAddr is indexed for the CB family, where the displacement has already
// been read by the decoder.
func (c *CPU) bitAddr(idx Reg16) uint16 {
	if idx == HL {
		return c.reg.Get(HL)
	}
	return c.reg.Get(idx) + uint16(int16(c.disp))
}

// getRP reads rp[p] = BC, DE, HL, SP with HL replaced by idx.
func (c *CPU) getRP(p uint8, idx Reg16) uint16 {
	switch p {
	case 0:
		return c.reg.Get(BC)
	case 1:
		return c.reg.Get(DE)
	case 2:
		return c.reg.Get(idx)
	default:
		return c.reg.Get(SP)
	}
}

func (c *CPU) setRP(p uint8, idx Reg16, v uint16) {
	switch p {
	case 0:
		c.reg.Set(BC, v)
	case 1:
		c.reg.Set(DE, v)
	case 2:
		c.reg.Set(idx, v)
	default:
		c.reg.Set(SP, v)
	}
}

// getRP2 reads rp2[p] = BC, DE, HL, AF.
func (c *CPU) getRP2(p uint8, idx Reg16) uint16 {
	if p == 3 {
		return c.reg.Get(AF)
	}
	return c.getRP(p, idx)
}

func (c *CPU) setRP2(p uint8, idx Reg16, v uint16) {
	if p == 3 {
		c.reg.Set(AF, v)
		return
	}
	c.setRP(p, idx, v)
}

// cond evaluates cc[y] = NZ, Z, NC, C, PO, PE, P, M.
func (c *CPU) cond(y uint8) bool {
	f := c.reg.F()
	switch y {
	case 0:
		return f&FlagZ == 0
	case 1:
		return f&FlagZ != 0
	case 2:
		return f&FlagC == 0
	case 3:
		return f&FlagC != 0
	case 4:
		return f&FlagP == 0
	case 5:
		return f&FlagP != 0
	case 6:
		return f&FlagS == 0
	default:
		return f&FlagS != 0
	}
}

// alu applies alu[y] to A and v.
func (c *CPU) alu(y, v uint8) {
	r := &c.reg
	a := r.A()
	switch y {
	case 0:
		r.SetA(r.AddSub8(a, v, false, false))
	case 1:
		r.SetA(r.AddSub8(a, v, false, true))
	case 2:
		r.SetA(r.AddSub8(a, v, true, false))
	case 3:
		r.SetA(r.AddSub8(a, v, true, true))
	case 4:
		r.SetA(r.Logical(OpAnd, a, v))
	case 5:
		r.SetA(r.Logical(OpXor, a, v))
	case 6:
		r.SetA(r.Logical(OpOr, a, v))
	default:
		r.Compare(a, v)
	}
}

// halt freezes the CPU on the HALT byte until an interrupt arrives.
func (c *CPU) halt() {
	c.reg.Halted = true
	c.reg.Set(PC, c.start)
}

func (c *CPU) jr(take bool) {
	d := c.fetchSigned8()
	if !take {
		c.notTaken()
		return
	}
	c.reg.Set(PC, c.reg.Get(PC)+uint16(int16(d)))
}

func (c *CPU) djnz() {
	b := c.reg.B() - 1
	c.reg.SetB(b)
	c.jr(b != 0)
}

func (c *CPU) cpl() {
	a := ^c.reg.A()
	c.reg.SetA(a)
	c.reg.SetF(c.reg.F()&(FlagS|FlagZ|FlagP|FlagC) | FlagH | FlagN | a&(Flag3|Flag5))
}

func (c *CPU) scf() {
	c.reg.SetF(c.reg.F()&(FlagS|FlagZ|FlagP) | FlagC | c.reg.A()&(Flag3|Flag5))
}

func (c *CPU) ccf() {
	f := c.reg.F()
	c.reg.SetF(f&(FlagS|FlagZ|FlagP) |
		bsel(f&FlagC != 0, FlagH, FlagC) |
		c.reg.A()&(Flag3|Flag5))
}

// loadAIR implements LD A, I and LD A, R: P/V reflects IFF2.
func (c *CPU) loadAIR(v uint8) {
	c.reg.SetA(v)
	c.reg.SetF(c.reg.F()&FlagC | Sz53Table[v] | bsel(c.reg.IFF2, FlagP, 0))
}

func (c *CPU) rrd() {
	hl := c.reg.Get(HL)
	m := c.mem.ReadUnsigned8(hl)
	a := c.reg.A()
	c.reg.SetA(a&0xF0 | m&0x0F)
	c.mem.WriteUnsigned8(hl, a<<4|m>>4)
	c.reg.SetF(c.reg.F()&FlagC | Sz53pTable[c.reg.A()])
}

func (c *CPU) rld() {
	hl := c.reg.Get(HL)
	m := c.mem.ReadUnsigned8(hl)
	a := c.reg.A()
	c.reg.SetA(a&0xF0 | m>>4)
	c.mem.WriteUnsigned8(hl, m<<4|a&0x0F)
	c.reg.SetF(c.reg.F()&FlagC | Sz53pTable[c.reg.A()])
}

// blockHandler builds the LDxx, CPxx, INxx and OUTxx group. y selects
// increment (4, 6) or decrement (5, 7) and single (4, 5) or repeat (6, 7);
// z selects the operation. A repeating form rewinds PC to itself so the
// next step runs the following iteration.
func blockHandler(y, z uint8) handler {
	delta := uint16(1)
	if y&1 == 1 {
		delta = 0xFFFF
	}
	repeat := y >= 6

	var body func(c *CPU) bool
	switch z {
	case 0:
		body = func(c *CPU) bool {
			r := &c.reg
			v := c.mem.ReadUnsigned8(r.Get(HL))
			c.mem.WriteUnsigned8(r.Get(DE), v)
			r.Set(HL, r.Get(HL)+delta)
			r.Set(DE, r.Get(DE)+delta)
			bc := r.Get(BC) - 1
			r.Set(BC, bc)
			n := v + r.A()
			r.SetF(r.F()&(FlagS|FlagZ|FlagC) |
				bsel(bc != 0, FlagV, 0) |
				n&Flag3 | (n&0x02)<<4)
			return bc != 0
		}
	case 1:
		body = func(c *CPU) bool {
			r := &c.reg
			v := c.mem.ReadUnsigned8(r.Get(HL))
			a := r.A()
			result := a - v
			r.Set(HL, r.Get(HL)+delta)
			bc := r.Get(BC) - 1
			r.Set(BC, bc)
			half := a&0x0F < v&0x0F
			n := result
			if half {
				n--
			}
			r.SetF(r.F()&FlagC | FlagN |
				Sz53Table[result]&^(Flag3|Flag5) |
				bsel(half, FlagH, 0) |
				bsel(bc != 0, FlagV, 0) |
				n&Flag3 | (n&0x02)<<4)
			return bc != 0 && result != 0
		}
	case 2:
		body = func(c *CPU) bool {
			r := &c.reg
			v := c.io.Read8(r.C())
			c.mem.WriteUnsigned8(r.Get(HL), v)
			r.Set(HL, r.Get(HL)+delta)
			b := r.B() - 1
			r.SetB(b)
			r.SetF(r.F()&FlagC | FlagN | Sz53Table[b])
			return b != 0
		}
	default:
		body = func(c *CPU) bool {
			r := &c.reg
			v := c.mem.ReadUnsigned8(r.Get(HL))
			b := r.B() - 1
			r.SetB(b)
			c.io.Write8(r.C(), v)
			r.Set(HL, r.Get(HL)+delta)
			r.SetF(r.F()&FlagC | FlagN | Sz53Table[b])
			return b != 0
		}
	}

	if !repeat {
		return func(c *CPU) { body(c) }
	}
	return func(c *CPU) {
		if body(c) {
			c.reg.Set(PC, c.start)
		} else {
			c.notTaken()
		}
	}
}
