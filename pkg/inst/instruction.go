package inst

// Table selects one of the seven 256-entry opcode tables of the Z80.
// The doubly-prefixed DDCB/FDCB tables are indexed by the byte that follows
// the displacement, not by the byte after CB.
type Table uint8

const (
	Base Table = iota
	CB
	DD
	ED
	FD
	DDCB
	FDCB

	TableCount // sentinel
)

var tableNames = [TableCount]string{"base", "CB", "DD", "ED", "FD", "DDCB", "FDCB"}

func (t Table) String() string {
	if t < TableCount {
		return tableNames[t]
	}
	return "?"
}

// Operand describes the bytes an instruction reads after its opcode.
type Operand uint8

const (
	None     Operand = iota
	Imm8             // n
	Imm16            // nn, little-endian
	Rel8             // e, signed offset from the next instruction
	Disp             // d, signed index displacement
	DispImm8         // d followed by n (LD (IX+d), n)
)

// Size returns the number of operand bytes.
func (o Operand) Size() int {
	switch o {
	case Imm8, Rel8, Disp:
		return 1
	case Imm16, DispImm8:
		return 2
	}
	return 0
}

// Opcode field split used by every table builder.
//
//	op = xx yyy zzz, p = y>>1, q = y&1
type Fields struct {
	X, Y, Z, P, Q uint8
}

// Split decodes op into its x/y/z/p/q fields.
func Split(op uint8) Fields {
	y := (op >> 3) & 7
	return Fields{X: op >> 6, Y: y, Z: op & 7, P: y >> 1, Q: y & 1}
}

// Register-selection groups, in encoding order.
var (
	R8Names   = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	RPNames   = [4]string{"BC", "DE", "HL", "SP"}
	RP2Names  = [4]string{"BC", "DE", "HL", "AF"}
	CondNames = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	ALUNames  = [8]string{"ADD A, ", "ADC A, ", "SUB ", "SBC A, ", "AND ", "XOR ", "OR ", "CP "}
	RotNames  = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SLL", "SRL"}
	IMNames   = [8]string{"0", "0", "1", "2", "0", "0", "1", "2"}
)

// IndexName returns "IX" for the DD family and "IY" for the FD family.
func IndexName(t Table) string {
	if t == FD || t == FDCB {
		return "IY"
	}
	return "IX"
}

// IsPrefix reports whether op is one of the four prefix bytes.
func IsPrefix(op uint8) bool {
	return op == 0xCB || op == 0xDD || op == 0xED || op == 0xFD
}
