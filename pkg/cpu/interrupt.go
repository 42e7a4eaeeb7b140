package cpu

const (
	// IntVector is the mode 1 restart address.
	IntVector uint16 = 0x0038
	// NMIVector is the non-maskable interrupt restart address.
	NMIVector uint16 = 0x0066
)

// Interrupt raises the maskable interrupt. It is ignored while interrupts
// are disabled. Otherwise the current PC is pushed, the CPU leaves HALT and
// jumps to 0x0038. Every interrupt mode vectors like IM 1.
func (c *CPU) Interrupt() bool {
	if !c.reg.IFF1 {
		return false
	}
	c.reg.IFF1, c.reg.IFF2 = false, false
	c.reg.Halted = false
	c.reg.incR()
	c.push(c.reg.Get(PC))
	c.reg.Set(PC, IntVector)
	c.reg.Cycles += 13
	return true
}

// NMI raises the non-maskable interrupt. IFF2 keeps the previous IFF1 so
// RETN can restore it.
func (c *CPU) NMI() {
	c.reg.IFF2 = c.reg.IFF1
	c.reg.IFF1 = false
	c.reg.Halted = false
	c.reg.incR()
	c.push(c.reg.Get(PC))
	c.reg.Set(PC, NMIVector)
	c.reg.Cycles += 11
}
