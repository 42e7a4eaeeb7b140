package cpu

// Memory is the byte-addressable bus the core reads and writes.
// Addresses wrap at 64 KiB; 16-bit accesses are little-endian.
type Memory interface {
	ReadUnsigned8(addr uint16) uint8
	WriteUnsigned8(addr uint16, v uint8)
	ReadSigned8(addr uint16) int8
	ReadUnsigned16(addr uint16) uint16
	WriteUnsigned16(addr uint16, v uint16)
}

// IO is the 8-bit port space.
type IO interface {
	Read8(port uint8) uint8
	Write8(port uint8, v uint8)
}

// NoIO is an IO that reads 0xFF and discards writes.
type NoIO struct{}

func (NoIO) Read8(uint8) uint8   { return 0xFF }
func (NoIO) Write8(uint8, uint8) {}
