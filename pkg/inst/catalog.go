package inst

// Info holds static metadata for one opcode slot.
type Info struct {
	Mnemonic string  // Assembly template, e.g. "LD A, n" or "BIT 3, (IX+d)"
	Bytes    []uint8 // Encoding without operands, e.g. {0xCB, 0x07}
	Operand  Operand // Trailing operand layout
	TStates  int     // Clock cycles (taken path for conditionals)
	NotTaken int     // Clock cycles when a condition fails; 0 if unconditional
}

// Defined reports whether the slot holds an instruction.
func (i *Info) Defined() bool {
	return i.Mnemonic != ""
}

// Catalog maps each table and opcode byte to its Info.
// Prefix slots (CB/DD/ED/FD in Base, CB in DD/FD) are left undefined;
// the decoder switches tables on them.
var Catalog [TableCount][256]Info

// Lookup returns the catalog entry for op in table t.
func Lookup(t Table, op uint8) *Info {
	return &Catalog[t][op]
}

// TStates returns the T-state cost of op in table t (taken path).
func TStates(t Table, op uint8) int {
	return Catalog[t][op].TStates
}

// ByteSize returns the total byte size of an instruction (encoding + operands).
func ByteSize(t Table, op uint8) int {
	info := &Catalog[t][op]
	return len(info.Bytes) + info.Operand.Size()
}

// Ops returns every defined opcode byte of table t.
func Ops(t Table) []uint8 {
	ops := make([]uint8, 0, 256)
	for i := 0; i < 256; i++ {
		if Catalog[t][i].Defined() {
			ops = append(ops, uint8(i))
		}
	}
	return ops
}

func set(t Table, op uint8, mnemonic string, operand Operand, tstates, notTaken int) {
	var enc []uint8
	switch t {
	case Base:
		enc = []uint8{op}
	case CB:
		enc = []uint8{0xCB, op}
	case DD:
		enc = []uint8{0xDD, op}
	case ED:
		enc = []uint8{0xED, op}
	case FD:
		enc = []uint8{0xFD, op}
	case DDCB:
		enc = []uint8{0xDD, 0xCB, op}
	case FDCB:
		enc = []uint8{0xFD, 0xCB, op}
	}
	Catalog[t][op] = Info{
		Mnemonic: mnemonic,
		Bytes:    enc,
		Operand:  operand,
		TStates:  tstates,
		NotTaken: notTaken,
	}
}

func init() {
	initBase()
	initCB()
	initED()
	initIndexed(DD)
	initIndexed(FD)
	initIndexedBits(DDCB)
	initIndexedBits(FDCB)
}

func initBase() {
	for i := 0; i < 256; i++ {
		op := uint8(i)
		f := Split(op)
		switch f.X {
		case 0:
			initBaseX0(op, f)
		case 1:
			if f.Y == 6 && f.Z == 6 {
				set(Base, op, "HALT", None, 4, 0)
				continue
			}
			t := 4
			if f.Y == 6 || f.Z == 6 {
				t = 7
			}
			set(Base, op, "LD "+R8Names[f.Y]+", "+R8Names[f.Z], None, t, 0)
		case 2:
			t := 4
			if f.Z == 6 {
				t = 7
			}
			set(Base, op, ALUNames[f.Y]+R8Names[f.Z], None, t, 0)
		case 3:
			initBaseX3(op, f)
		}
	}
}

func initBaseX0(op uint8, f Fields) {
	switch f.Z {
	case 0:
		switch f.Y {
		case 0:
			set(Base, op, "NOP", None, 4, 0)
		case 1:
			set(Base, op, "EX AF, AF'", None, 4, 0)
		case 2:
			set(Base, op, "DJNZ e", Rel8, 13, 8)
		case 3:
			set(Base, op, "JR e", Rel8, 12, 0)
		default:
			set(Base, op, "JR "+CondNames[f.Y-4]+", e", Rel8, 12, 7)
		}
	case 1:
		if f.Q == 0 {
			set(Base, op, "LD "+RPNames[f.P]+", nn", Imm16, 10, 0)
		} else {
			set(Base, op, "ADD HL, "+RPNames[f.P], None, 11, 0)
		}
	case 2:
		loads := [2][4]struct {
			m string
			o Operand
			t int
		}{
			{{"LD (BC), A", None, 7}, {"LD (DE), A", None, 7}, {"LD (nn), HL", Imm16, 16}, {"LD (nn), A", Imm16, 13}},
			{{"LD A, (BC)", None, 7}, {"LD A, (DE)", None, 7}, {"LD HL, (nn)", Imm16, 16}, {"LD A, (nn)", Imm16, 13}},
		}
		l := loads[f.Q][f.P]
		set(Base, op, l.m, l.o, l.t, 0)
	case 3:
		if f.Q == 0 {
			set(Base, op, "INC "+RPNames[f.P], None, 6, 0)
		} else {
			set(Base, op, "DEC "+RPNames[f.P], None, 6, 0)
		}
	case 4, 5:
		t := 4
		if f.Y == 6 {
			t = 11
		}
		name := "INC "
		if f.Z == 5 {
			name = "DEC "
		}
		set(Base, op, name+R8Names[f.Y], None, t, 0)
	case 6:
		t := 7
		if f.Y == 6 {
			t = 10
		}
		set(Base, op, "LD "+R8Names[f.Y]+", n", Imm8, t, 0)
	case 7:
		names := [8]string{"RLCA", "RRCA", "RLA", "RRA", "DAA", "CPL", "SCF", "CCF"}
		set(Base, op, names[f.Y], None, 4, 0)
	}
}

func initBaseX3(op uint8, f Fields) {
	switch f.Z {
	case 0:
		set(Base, op, "RET "+CondNames[f.Y], None, 11, 5)
	case 1:
		if f.Q == 0 {
			set(Base, op, "POP "+RP2Names[f.P], None, 10, 0)
			return
		}
		switch f.P {
		case 0:
			set(Base, op, "RET", None, 10, 0)
		case 1:
			set(Base, op, "EXX", None, 4, 0)
		case 2:
			set(Base, op, "JP (HL)", None, 4, 0)
		case 3:
			set(Base, op, "LD SP, HL", None, 6, 0)
		}
	case 2:
		set(Base, op, "JP "+CondNames[f.Y]+", nn", Imm16, 10, 10)
	case 3:
		switch f.Y {
		case 0:
			set(Base, op, "JP nn", Imm16, 10, 0)
		case 1:
			// CB prefix
		case 2:
			set(Base, op, "OUT (n), A", Imm8, 11, 0)
		case 3:
			set(Base, op, "IN A, (n)", Imm8, 11, 0)
		case 4:
			set(Base, op, "EX (SP), HL", None, 19, 0)
		case 5:
			set(Base, op, "EX DE, HL", None, 4, 0)
		case 6:
			set(Base, op, "DI", None, 4, 0)
		case 7:
			set(Base, op, "EI", None, 4, 0)
		}
	case 4:
		set(Base, op, "CALL "+CondNames[f.Y]+", nn", Imm16, 17, 10)
	case 5:
		if f.Q == 0 {
			set(Base, op, "PUSH "+RP2Names[f.P], None, 11, 0)
		} else if f.P == 0 {
			set(Base, op, "CALL nn", Imm16, 17, 0)
		}
		// DD, ED, FD prefixes
	case 6:
		set(Base, op, ALUNames[f.Y]+"n", Imm8, 7, 0)
	case 7:
		set(Base, op, "RST "+hexByte(f.Y*8), None, 11, 0)
	}
}

func initCB() {
	for i := 0; i < 256; i++ {
		op := uint8(i)
		f := Split(op)
		r := R8Names[f.Z]
		bit := string('0' + f.Y)
		switch f.X {
		case 0:
			t := 8
			if f.Z == 6 {
				t = 15
			}
			set(CB, op, RotNames[f.Y]+" "+r, None, t, 0)
		case 1:
			t := 8
			if f.Z == 6 {
				t = 12
			}
			set(CB, op, "BIT "+bit+", "+r, None, t, 0)
		case 2:
			t := 8
			if f.Z == 6 {
				t = 15
			}
			set(CB, op, "RES "+bit+", "+r, None, t, 0)
		case 3:
			t := 8
			if f.Z == 6 {
				t = 15
			}
			set(CB, op, "SET "+bit+", "+r, None, t, 0)
		}
	}
}

func initED() {
	block := [4][4]string{
		{"LDI", "CPI", "INI", "OUTI"},
		{"LDD", "CPD", "IND", "OUTD"},
		{"LDIR", "CPIR", "INIR", "OTIR"},
		{"LDDR", "CPDR", "INDR", "OTDR"},
	}
	for i := 0; i < 256; i++ {
		op := uint8(i)
		f := Split(op)
		switch f.X {
		case 1:
			switch f.Z {
			case 0:
				if f.Y == 6 {
					set(ED, op, "IN (C)", None, 12, 0)
				} else {
					set(ED, op, "IN "+R8Names[f.Y]+", (C)", None, 12, 0)
				}
			case 1:
				if f.Y == 6 {
					set(ED, op, "OUT (C), 0", None, 12, 0)
				} else {
					set(ED, op, "OUT (C), "+R8Names[f.Y], None, 12, 0)
				}
			case 2:
				if f.Q == 0 {
					set(ED, op, "SBC HL, "+RPNames[f.P], None, 15, 0)
				} else {
					set(ED, op, "ADC HL, "+RPNames[f.P], None, 15, 0)
				}
			case 3:
				if f.Q == 0 {
					set(ED, op, "LD (nn), "+RPNames[f.P], Imm16, 20, 0)
				} else {
					set(ED, op, "LD "+RPNames[f.P]+", (nn)", Imm16, 20, 0)
				}
			case 4:
				set(ED, op, "NEG", None, 8, 0)
			case 5:
				if f.Y == 1 {
					set(ED, op, "RETI", None, 14, 0)
				} else {
					set(ED, op, "RETN", None, 14, 0)
				}
			case 6:
				set(ED, op, "IM "+IMNames[f.Y], None, 8, 0)
			case 7:
				names := [6]string{"LD I, A", "LD R, A", "LD A, I", "LD A, R", "RRD", "RLD"}
				times := [6]int{9, 9, 9, 9, 18, 18}
				if f.Y < 6 {
					set(ED, op, names[f.Y], None, times[f.Y], 0)
				}
			}
		case 2:
			if f.Z <= 3 && f.Y >= 4 {
				if f.Y >= 6 {
					set(ED, op, block[f.Y-4][f.Z], None, 21, 16)
				} else {
					set(ED, op, block[f.Y-4][f.Z], None, 16, 0)
				}
			}
		}
	}
}

// initIndexed fills the DD or FD table. Opcodes that touch H, L, (HL) or HL
// get their index-register form; the rest execute as the unprefixed opcode
// with four extra T-states.
func initIndexed(t Table) {
	ix := IndexName(t)
	r8 := [8]string{"B", "C", "D", "E", ix + "h", ix + "l", "(" + ix + "+d)", "A"}

	for i := 0; i < 256; i++ {
		op := uint8(i)
		f := Split(op)

		switch {
		case op == 0xCB:
			// DDCB/FDCB prefix
			continue
		case op == 0xDD || op == 0xED || op == 0xFD:
			// The first prefix is dropped and decoding restarts at the next one.
			set(t, op, "NOP", None, 4, 0)
			continue
		}

		switch f.X {
		case 0:
			switch {
			case f.Z == 1 && f.Q == 0 && f.P == 2:
				set(t, op, "LD "+ix+", nn", Imm16, 14, 0)
				continue
			case f.Z == 1 && f.Q == 1:
				rp := RPNames[f.P]
				if f.P == 2 {
					rp = ix
				}
				set(t, op, "ADD "+ix+", "+rp, None, 15, 0)
				continue
			case f.Z == 2 && f.P == 2 && f.Q == 0:
				set(t, op, "LD (nn), "+ix, Imm16, 20, 0)
				continue
			case f.Z == 2 && f.P == 2 && f.Q == 1:
				set(t, op, "LD "+ix+", (nn)", Imm16, 20, 0)
				continue
			case f.Z == 3 && f.P == 2:
				if f.Q == 0 {
					set(t, op, "INC "+ix, None, 10, 0)
				} else {
					set(t, op, "DEC "+ix, None, 10, 0)
				}
				continue
			case (f.Z == 4 || f.Z == 5) && f.Y >= 4 && f.Y <= 6:
				name := "INC "
				if f.Z == 5 {
					name = "DEC "
				}
				if f.Y == 6 {
					set(t, op, name+r8[6], Disp, 23, 0)
				} else {
					set(t, op, name+r8[f.Y], None, 8, 0)
				}
				continue
			case f.Z == 6 && f.Y >= 4 && f.Y <= 6:
				if f.Y == 6 {
					set(t, op, "LD "+r8[6]+", n", DispImm8, 19, 0)
				} else {
					set(t, op, "LD "+r8[f.Y]+", n", Imm8, 11, 0)
				}
				continue
			}
		case 1:
			if f.Y == 6 && f.Z == 6 {
				break
			}
			if f.Y == 6 {
				// LD (IX+d), r uses the plain H and L.
				set(t, op, "LD "+r8[6]+", "+R8Names[f.Z], Disp, 19, 0)
				continue
			}
			if f.Z == 6 {
				set(t, op, "LD "+R8Names[f.Y]+", "+r8[6], Disp, 19, 0)
				continue
			}
			if f.Y == 4 || f.Y == 5 || f.Z == 4 || f.Z == 5 {
				set(t, op, "LD "+r8[f.Y]+", "+r8[f.Z], None, 8, 0)
				continue
			}
		case 2:
			if f.Z == 6 {
				set(t, op, ALUNames[f.Y]+r8[6], Disp, 19, 0)
				continue
			}
			if f.Z == 4 || f.Z == 5 {
				set(t, op, ALUNames[f.Y]+r8[f.Z], None, 8, 0)
				continue
			}
		case 3:
			switch op {
			case 0xE1:
				set(t, op, "POP "+ix, None, 14, 0)
				continue
			case 0xE5:
				set(t, op, "PUSH "+ix, None, 15, 0)
				continue
			case 0xE9:
				set(t, op, "JP ("+ix+")", None, 8, 0)
				continue
			case 0xF9:
				set(t, op, "LD SP, "+ix, None, 10, 0)
				continue
			case 0xE3:
				set(t, op, "EX (SP), "+ix, None, 23, 0)
				continue
			}
		}

		base := &Catalog[Base][op]
		if !base.Defined() {
			continue
		}
		notTaken := base.NotTaken
		if notTaken != 0 {
			notTaken += 4
		}
		set(t, op, base.Mnemonic, base.Operand, base.TStates+4, notTaken)
	}
}

// initIndexedBits fills DDCB or FDCB. Every form addresses (IX+d); when the
// register field is not 6 the result is also copied into that register
// (undocumented, except for BIT which ignores it).
func initIndexedBits(t Table) {
	mem := "(" + IndexName(t) + "+d)"
	for i := 0; i < 256; i++ {
		op := uint8(i)
		f := Split(op)
		bit := string('0' + f.Y)
		suffix := ""
		if f.Z != 6 {
			suffix = ", " + R8Names[f.Z]
		}
		switch f.X {
		case 0:
			set(t, op, RotNames[f.Y]+" "+mem+suffix, Disp, 23, 0)
		case 1:
			set(t, op, "BIT "+bit+", "+mem, Disp, 20, 0)
		case 2:
			set(t, op, "RES "+bit+", "+mem+suffix, Disp, 23, 0)
		case 3:
			set(t, op, "SET "+bit+", "+mem+suffix, Disp, 23, 0)
		}
	}
}
