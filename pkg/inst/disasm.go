package inst

// Reader is the memory view the disassembler needs.
type Reader interface {
	ReadUnsigned8(addr uint16) uint8
}

// Decode resolves the table, opcode and operand offset of the instruction
// at addr. For DDCB/FDCB the displacement precedes the opcode byte, so
// operands start before the opcode.
func Decode(mem Reader, addr uint16) (t Table, op uint8, operandAt uint16) {
	b := mem.ReadUnsigned8(addr)
	switch b {
	case 0xCB:
		return CB, mem.ReadUnsigned8(addr + 1), addr + 2
	case 0xED:
		return ED, mem.ReadUnsigned8(addr + 1), addr + 2
	case 0xDD, 0xFD:
		t, tcb := DD, DDCB
		if b == 0xFD {
			t, tcb = FD, FDCB
		}
		next := mem.ReadUnsigned8(addr + 1)
		if next == 0xCB {
			return tcb, mem.ReadUnsigned8(addr + 3), addr + 2
		}
		return t, next, addr + 2
	}
	return Base, b, addr + 1
}

// Disassemble returns the assembly text of the instruction at addr and its
// length in bytes. Undefined slots are rendered as DB directives.
func Disassemble(mem Reader, addr uint16) (string, int) {
	t, op, at := Decode(mem, addr)
	info := &Catalog[t][op]

	if !info.Defined() {
		buf := []byte("DB ")
		n := 1
		if t != Base {
			buf = appendHex8(buf, mem.ReadUnsigned8(addr))
			buf = append(buf, ", "...)
			n = 2
		}
		buf = appendHex8(buf, op)
		return string(buf), n
	}

	if (t == DD || t == FD) && IsPrefix(op) {
		// Lone prefix: only the first byte is consumed.
		return info.Mnemonic, 1
	}

	size := len(info.Bytes) + info.Operand.Size()
	if t == DDCB || t == FDCB {
		size = 4
	}
	next := addr + uint16(size)

	var d, n uint8
	var nn uint16
	switch info.Operand {
	case Imm8:
		n = mem.ReadUnsigned8(at)
	case Imm16:
		nn = uint16(mem.ReadUnsigned8(at)) | uint16(mem.ReadUnsigned8(at+1))<<8
	case Rel8:
		nn = next + uint16(int16(int8(mem.ReadUnsigned8(at))))
	case Disp:
		d = mem.ReadUnsigned8(at)
	case DispImm8:
		d = mem.ReadUnsigned8(at)
		n = mem.ReadUnsigned8(at + 1)
	}

	m := info.Mnemonic
	buf := make([]byte, 0, len(m)+8)
	for i := 0; i < len(m); {
		c := m[i]
		if c < 'a' || c > 'z' {
			buf = append(buf, c)
			i++
			continue
		}
		j := i
		for j < len(m) && m[j] >= 'a' && m[j] <= 'z' {
			j++
		}
		switch tok := m[i:j]; tok {
		case "nn", "e":
			buf = appendHex16(buf, nn)
		case "n":
			buf = appendHex8(buf, n)
		case "d":
			// The template carries "+d"; a negative displacement flips the sign.
			if int8(d) < 0 && len(buf) > 0 && buf[len(buf)-1] == '+' {
				buf[len(buf)-1] = '-'
				buf = appendHex8(buf, uint8(-int8(d)))
			} else {
				buf = appendHex8(buf, d)
			}
		default:
			buf = append(buf, tok...)
		}
		i = j
	}
	return string(buf), size
}

func hexByte(v uint8) string {
	return string(appendHex8(nil, v))
}

func appendHex8(buf []byte, v uint8) []byte {
	const hex = "0123456789ABCDEF"
	if v >= 0xA0 {
		buf = append(buf, '0')
	}
	buf = append(buf, hex[v>>4], hex[v&0x0F], 'h')
	return buf
}

func appendHex16(buf []byte, v uint16) []byte {
	const hex = "0123456789ABCDEF"
	if v>>12 >= 0xA {
		buf = append(buf, '0')
	}
	buf = append(buf, hex[v>>12], hex[(v>>8)&0x0F], hex[(v>>4)&0x0F], hex[v&0x0F], 'h')
	return buf
}
