package cpu

import "github.com/oisee/z80emu/pkg/inst"

// handler executes one decoded instruction. Operand bytes after the opcode
// are fetched by the handler; the T-state cost is added by the dispatcher
// from the instruction catalog.
type handler func(c *CPU)

// dispatch holds the seven opcode tables. It is filled once at package
// initialisation and never written afterwards.
var dispatch [inst.TableCount][256]handler

func init() {
	dispatch[inst.Base] = mainTable(HL)
	dispatch[inst.DD] = mainTable(IX)
	dispatch[inst.FD] = mainTable(IY)
	dispatch[inst.CB] = bitTable(HL)
	dispatch[inst.DDCB] = bitTable(IX)
	dispatch[inst.FDCB] = bitTable(IY)
	dispatch[inst.ED] = edTable()
}

// mainTable builds the unprefixed table with HL, or the DD/FD table when idx
// is IX or IY. Opcodes that never touch HL behave identically either way.
func mainTable(idx Reg16) (t [256]handler) {
	for i := 0; i < 256; i++ {
		op := uint8(i)
		if inst.IsPrefix(op) {
			continue
		}
		f := inst.Split(op)
		switch f.X {
		case 0:
			t[op] = x0Handler(f, idx)
		case 1:
			if f.Y == 6 && f.Z == 6 {
				t[op] = (*CPU).halt
			} else {
				t[op] = loadHandler(f.Y, f.Z, idx)
			}
		case 2:
			y, z := f.Y, f.Z
			t[op] = func(c *CPU) { c.alu(y, c.readR(z, idx)) }
		case 3:
			t[op] = x3Handler(f, idx)
		}
	}
	return t
}

func x0Handler(f inst.Fields, idx Reg16) handler {
	y, z, p, q := f.Y, f.Z, f.P, f.Q
	switch z {
	case 0:
		switch y {
		case 0:
			return func(*CPU) {}
		case 1:
			return func(c *CPU) { c.reg.ExAF() }
		case 2:
			return (*CPU).djnz
		case 3:
			return func(c *CPU) { c.jr(true) }
		default:
			cc := y - 4
			return func(c *CPU) { c.jr(c.cond(cc)) }
		}
	case 1:
		if q == 0 {
			return func(c *CPU) { c.setRP(p, idx, c.fetch16()) }
		}
		return func(c *CPU) {
			c.reg.Set(idx, c.reg.Add16(c.reg.Get(idx), c.getRP(p, idx)))
		}
	case 2:
		return indirectLoad(p, q, idx)
	case 3:
		delta := uint16(1)
		if q == 1 {
			delta = 0xFFFF
		}
		return func(c *CPU) { c.setRP(p, idx, c.getRP(p, idx)+delta) }
	case 4, 5:
		inc := z == 4
		if y == 6 {
			return func(c *CPU) {
				addr := c.indexed(idx)
				c.mem.WriteUnsigned8(addr, c.reg.IncDec8(c.mem.ReadUnsigned8(addr), inc))
			}
		}
		return func(c *CPU) { c.set8(y, idx, c.reg.IncDec8(c.get8(y, idx), inc)) }
	case 6:
		if y == 6 {
			return func(c *CPU) {
				addr := c.indexed(idx)
				c.mem.WriteUnsigned8(addr, c.fetch8())
			}
		}
		return func(c *CPU) { c.set8(y, idx, c.fetch8()) }
	default:
		switch y {
		case 0, 1, 2, 3:
			op := RotOp(y)
			return func(c *CPU) { c.reg.SetA(c.reg.RotateA(op, c.reg.A())) }
		case 4:
			return func(c *CPU) { c.reg.SetA(c.reg.Daa(c.reg.A())) }
		case 5:
			return (*CPU).cpl
		case 6:
			return (*CPU).scf
		default:
			return (*CPU).ccf
		}
	}
}

func indirectLoad(p, q uint8, idx Reg16) handler {
	if q == 0 {
		switch p {
		case 0:
			return func(c *CPU) { c.mem.WriteUnsigned8(c.reg.Get(BC), c.reg.A()) }
		case 1:
			return func(c *CPU) { c.mem.WriteUnsigned8(c.reg.Get(DE), c.reg.A()) }
		case 2:
			return func(c *CPU) { c.mem.WriteUnsigned16(c.fetch16(), c.reg.Get(idx)) }
		default:
			return func(c *CPU) { c.mem.WriteUnsigned8(c.fetch16(), c.reg.A()) }
		}
	}
	switch p {
	case 0:
		return func(c *CPU) { c.reg.SetA(c.mem.ReadUnsigned8(c.reg.Get(BC))) }
	case 1:
		return func(c *CPU) { c.reg.SetA(c.mem.ReadUnsigned8(c.reg.Get(DE))) }
	case 2:
		return func(c *CPU) { c.reg.Set(idx, c.mem.ReadUnsigned16(c.fetch16())) }
	default:
		return func(c *CPU) { c.reg.SetA(c.mem.ReadUnsigned8(c.fetch16())) }
	}
}

// loadHandler builds LD r[y], r[z]. When one side is the memory operand the
// other side names the plain H or L, even under a DD/FD prefix.
func loadHandler(y, z uint8, idx Reg16) handler {
	switch {
	case z == 6:
		return func(c *CPU) { c.set8(y, HL, c.mem.ReadUnsigned8(c.indexed(idx))) }
	case y == 6:
		return func(c *CPU) { c.mem.WriteUnsigned8(c.indexed(idx), c.get8(z, HL)) }
	}
	return func(c *CPU) { c.set8(y, idx, c.get8(z, idx)) }
}

func x3Handler(f inst.Fields, idx Reg16) handler {
	y, z, p, q := f.Y, f.Z, f.P, f.Q
	switch z {
	case 0:
		return func(c *CPU) {
			if c.cond(y) {
				c.ret()
			} else {
				c.notTaken()
			}
		}
	case 1:
		if q == 0 {
			return func(c *CPU) { c.setRP2(p, idx, c.pop()) }
		}
		switch p {
		case 0:
			return (*CPU).ret
		case 1:
			return func(c *CPU) { c.reg.Exx() }
		case 2:
			return func(c *CPU) { c.reg.Set(PC, c.reg.Get(idx)) }
		default:
			return func(c *CPU) { c.reg.Set(SP, c.reg.Get(idx)) }
		}
	case 2:
		return func(c *CPU) {
			nn := c.fetch16()
			if c.cond(y) {
				c.reg.Set(PC, nn)
			} else {
				c.notTaken()
			}
		}
	case 3:
		switch y {
		case 0:
			return func(c *CPU) { c.reg.Set(PC, c.fetch16()) }
		case 1:
			return nil // CB prefix
		case 2:
			return func(c *CPU) { c.io.Write8(c.fetch8(), c.reg.A()) }
		case 3:
			return func(c *CPU) { c.reg.SetA(c.io.Read8(c.fetch8())) }
		case 4:
			return func(c *CPU) {
				sp := c.reg.Get(SP)
				v := c.mem.ReadUnsigned16(sp)
				c.mem.WriteUnsigned16(sp, c.reg.Get(idx))
				c.reg.Set(idx, v)
			}
		case 5:
			// EX DE, HL ignores DD/FD.
			return func(c *CPU) {
				de, hl := c.reg.Get(DE), c.reg.Get(HL)
				c.reg.Set(DE, hl)
				c.reg.Set(HL, de)
			}
		case 6:
			return func(c *CPU) { c.reg.IFF1, c.reg.IFF2 = false, false }
		default:
			return func(c *CPU) { c.reg.IFF1, c.reg.IFF2 = true, true }
		}
	case 4:
		return func(c *CPU) {
			nn := c.fetch16()
			if c.cond(y) {
				c.push(c.reg.Get(PC))
				c.reg.Set(PC, nn)
			} else {
				c.notTaken()
			}
		}
	case 5:
		if q == 0 {
			return func(c *CPU) { c.push(c.getRP2(p, idx)) }
		}
		if p == 0 {
			return func(c *CPU) {
				nn := c.fetch16()
				c.push(c.reg.Get(PC))
				c.reg.Set(PC, nn)
			}
		}
		return nil // DD, ED, FD prefixes
	case 6:
		return func(c *CPU) { c.alu(y, c.fetch8()) }
	default:
		vec := uint16(y) * 8
		return func(c *CPU) {
			c.push(c.reg.Get(PC))
			c.reg.Set(PC, vec)
		}
	}
}

// bitTable builds CB with HL, or DDCB/FDCB with IX/IY. The indexed forms
// always address (idx+d); a register field other than 6 also receives the
// result.
func bitTable(idx Reg16) (t [256]handler) {
	for i := 0; i < 256; i++ {
		op := uint8(i)
		f := inst.Split(op)
		x, y, z := f.X, f.Y, f.Z

		if idx == HL && z != 6 {
			switch x {
			case 0:
				t[op] = func(c *CPU) { c.set8(z, HL, c.reg.Rotate(RotOp(y), c.get8(z, HL))) }
			case 1:
				t[op] = func(c *CPU) { c.reg.Bit(y, c.get8(z, HL)) }
			case 2:
				t[op] = func(c *CPU) { c.set8(z, HL, ResBit(y, c.get8(z, HL))) }
			case 3:
				t[op] = func(c *CPU) { c.set8(z, HL, SetBit(y, c.get8(z, HL))) }
			}
			continue
		}

		if x == 1 {
			t[op] = func(c *CPU) { c.reg.Bit(y, c.mem.ReadUnsigned8(c.bitAddr(idx))) }
			continue
		}
		var apply func(r *Registers, v uint8) uint8
		switch x {
		case 0:
			apply = func(r *Registers, v uint8) uint8 { return r.Rotate(RotOp(y), v) }
		case 2:
			apply = func(_ *Registers, v uint8) uint8 { return ResBit(y, v) }
		default:
			apply = func(_ *Registers, v uint8) uint8 { return SetBit(y, v) }
		}
		copyTo := idx != HL && z != 6
		t[op] = func(c *CPU) {
			addr := c.bitAddr(idx)
			v := apply(&c.reg, c.mem.ReadUnsigned8(addr))
			c.mem.WriteUnsigned8(addr, v)
			if copyTo {
				c.set8(z, HL, v)
			}
		}
	}
	return t
}

func edTable() (t [256]handler) {
	for i := 0; i < 256; i++ {
		op := uint8(i)
		f := inst.Split(op)
		switch f.X {
		case 1:
			t[op] = edX1Handler(f)
		case 2:
			if f.Z <= 3 && f.Y >= 4 {
				t[op] = blockHandler(f.Y, f.Z)
			}
		}
	}
	return t
}

var imModes = [8]uint8{0, 0, 1, 2, 0, 0, 1, 2}

func edX1Handler(f inst.Fields) handler {
	y, z, p, q := f.Y, f.Z, f.P, f.Q
	switch z {
	case 0:
		return func(c *CPU) {
			v := c.io.Read8(c.reg.C())
			c.reg.SetF(c.reg.F()&FlagC | Sz53pTable[v])
			if y != 6 {
				c.set8(y, HL, v)
			}
		}
	case 1:
		return func(c *CPU) {
			var v uint8
			if y != 6 {
				v = c.get8(y, HL)
			}
			c.io.Write8(c.reg.C(), v)
		}
	case 2:
		sub := q == 0
		return func(c *CPU) {
			c.reg.Set(HL, c.reg.AddSub16(c.reg.Get(HL), c.getRP(p, HL), sub, true))
		}
	case 3:
		if q == 0 {
			return func(c *CPU) { c.mem.WriteUnsigned16(c.fetch16(), c.getRP(p, HL)) }
		}
		return func(c *CPU) { c.setRP(p, HL, c.mem.ReadUnsigned16(c.fetch16())) }
	case 4:
		return func(c *CPU) { c.reg.SetA(c.reg.AddSub8(0, c.reg.A(), true, false)) }
	case 5:
		// RETN and RETI both restore IFF1 from IFF2.
		return func(c *CPU) {
			c.reg.IFF1 = c.reg.IFF2
			c.ret()
		}
	case 6:
		mode := imModes[y]
		return func(c *CPU) { c.reg.IM = mode }
	default:
		switch y {
		case 0:
			return func(c *CPU) { c.reg.I = c.reg.A() }
		case 1:
			return func(c *CPU) { c.reg.R = c.reg.A() }
		case 2:
			return func(c *CPU) { c.loadAIR(c.reg.I) }
		case 3:
			return func(c *CPU) { c.loadAIR(c.reg.R) }
		case 4:
			return (*CPU).rrd
		case 5:
			return (*CPU).rld
		}
		return nil
	}
}
