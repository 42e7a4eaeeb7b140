package cpu

import "math/bits"

// Z80 flag bit positions in the F register.
const (
	FlagC uint8 = 0x01 // Carry
	FlagN uint8 = 0x02 // Subtract
	FlagP uint8 = 0x04 // Parity/Overflow
	Flag3 uint8 = 0x08 // Undocumented bit 3
	FlagH uint8 = 0x10 // Half-carry
	Flag5 uint8 = 0x20 // Undocumented bit 5
	FlagZ uint8 = 0x40 // Zero
	FlagS uint8 = 0x80 // Sign
)

// FlagV is the overflow reading of the parity bit.
const FlagV = FlagP

// Precomputed flag tables, ported from remogatto/z80.
var (
	// Sz53Table: S, Z, 5, 3 flags for each byte value
	Sz53Table [256]uint8
	// Sz53pTable: sz53 with parity flag included
	Sz53pTable [256]uint8
	// ParityTable: FlagP for each byte value with even parity
	ParityTable [256]uint8
	// EvenParity[x] is true when x has an even number of set bits.
	EvenParity [256]bool

	// Half-carry and overflow lookup tables (from remogatto/z80).
	// For 8-bit ops: index from bits 3 of {result, arg1, arg2}.
	// For 16-bit ops (ADC/SBC HL): index from bits 11 and 15, same tables.
	HalfcarryAddTable = [8]uint8{0, FlagH, FlagH, FlagH, 0, 0, 0, FlagH}
	HalfcarrySubTable = [8]uint8{0, 0, FlagH, 0, FlagH, 0, FlagH, FlagH}
	OverflowAddTable  = [8]uint8{0, 0, 0, FlagV, FlagV, 0, 0, 0}
	OverflowSubTable  = [8]uint8{0, FlagV, 0, 0, 0, 0, FlagV, 0}
)

func init() {
	for i := 0; i < 256; i++ {
		Sz53Table[i] = uint8(i) & (Flag3 | Flag5 | FlagS)
		if bits.OnesCount8(uint8(i))%2 == 0 {
			ParityTable[i] = FlagP
			EvenParity[i] = true
		}
		Sz53pTable[i] = Sz53Table[i] | ParityTable[i]
	}
	// Zero flag for value 0
	Sz53Table[0] |= FlagZ
	Sz53pTable[0] |= FlagZ
}
