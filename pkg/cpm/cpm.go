// Package cpm emulates enough of CP/M's BDOS, through CPU system-call
// hooks, to run conformance suites such as ZEXDOC and ZEXALL.
package cpm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/memory"
)

var (
	// ErrExit is returned when the program terminates through BDOS 0 or a
	// jump to the warm boot vector. Run treats it as success.
	ErrExit = errors.New("EXIT")

	// ErrUnimplemented is returned for a BDOS function with no handler.
	ErrUnimplemented = errors.New("UNIMPLEMENTED")
)

// Fixed addresses of the CP/M zero page.
const (
	WarmBoot    uint16 = 0x0000
	BDOSEntry   uint16 = 0x0005
	TopOfTPA    uint16 = 0x0006 // word read by programs to size memory
	CommandTail uint16 = 0x0080
	FCB1        uint16 = 0x005C
	FCB2        uint16 = 0x006C
	TPA         uint16 = 0x0100

	// DefaultTop is the default BDOS base; ZEXDOC loads SP from it.
	DefaultTop uint16 = 0xF300
)

// Spectrum build of the exerciser.
const (
	SpectrumOrg      uint16 = 0x8000
	SpectrumPrint    uint16 = 0x0010 // RST 10h
	SpectrumChanOpen uint16 = 0x1601 // ROM CHAN-OPEN, stubbed with RET
)

// HandlerType is the signature of a BDOS function.
type HandlerType func(m *CPM) error

// Handler describes one BDOS function we implement.
type Handler struct {
	// Desc is the conventional name of the function.
	Desc string

	// Handler performs the function.
	Handler HandlerType
}

// CPM holds the BDOS emulation state for one CPU.
type CPM struct {
	// Syscalls maps the function number in C to its handler.
	Syscalls map[uint8]Handler

	CPU *cpu.CPU

	// Reader is the console input.
	Reader *bufio.Reader

	// Writer is the console output.
	Writer io.Writer

	Logger *logrus.Logger

	line strings.Builder // RST 10h output waiting for CR
}

// New returns a BDOS emulation bound to c.
func New(c *cpu.CPU, in io.Reader, out io.Writer, logger *logrus.Logger) *CPM {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	sys := map[uint8]Handler{
		0:  {Desc: "P_TERMCPM", Handler: SysCallExit},
		1:  {Desc: "C_READ", Handler: SysCallReadChar},
		2:  {Desc: "C_WRITE", Handler: SysCallWriteChar},
		6:  {Desc: "C_RAWIO", Handler: SysCallRawIO},
		9:  {Desc: "C_WRITESTRING", Handler: SysCallWriteString},
		11: {Desc: "C_STAT", Handler: SysCallConsoleStatus},
		12: {Desc: "S_BDOSVER", Handler: SysCallBDOSVersion},
		25: {Desc: "DRV_GET", Handler: SysCallDriveGet},
	}
	return &CPM{
		Syscalls: sys,
		CPU:      c,
		Reader:   bufio.NewReader(in),
		Writer:   out,
		Logger:   logger,
	}
}

// Install writes the zero page (JP to the BDOS at 0x0005, top-of-TPA
// word at 0x0006) and hooks the BDOS entry and the warm boot vector.
func (m *CPM) Install(top uint16) {
	mem := m.CPU.Memory()
	mem.WriteUnsigned8(WarmBoot, 0xC3) // JP
	mem.WriteUnsigned16(WarmBoot+1, WarmBoot)
	mem.WriteUnsigned8(BDOSEntry, 0xC3)
	mem.WriteUnsigned16(TopOfTPA, top)

	m.CPU.RegisterSystemCall(BDOSEntry, m.bdos)
	m.CPU.RegisterSystemCall(WarmBoot, func(*cpu.CPU) error {
		m.Logger.Info("Warm boot")
		return ErrExit
	})
}

// InstallSpectrum adds the hooks the Spectrum build expects: RST 10h
// prints A, and ROM CHAN-OPEN is a bare RET.
func (m *CPM) InstallSpectrum() {
	m.CPU.Memory().WriteUnsigned8(SpectrumChanOpen, 0xC9)
	m.CPU.RegisterSystemCall(SpectrumPrint, m.rst10)
}

// Boot prepares the CPU to run a program already loaded at pc: SP at top
// with a return address of 0x0000 so that a final RET warm-boots.
func (m *CPM) Boot(pc, top uint16) {
	regs := m.CPU.Registers()
	regs.Set(cpu.SP, top)
	m.CPU.Memory().WriteUnsigned16(top-2, WarmBoot)
	regs.Set(cpu.SP, top-2)
	regs.Set(cpu.PC, pc)
}

// SetArgs stores the command tail at 0x0080 as a length-prefixed string and
// blanks the default FCBs.
func (m *CPM) SetArgs(args []string) {
	mem := m.CPU.Memory()
	for _, fcb := range []uint16{FCB1, FCB2} {
		mem.WriteUnsigned8(fcb, 0)
		for i := uint16(1); i <= 11; i++ {
			mem.WriteUnsigned8(fcb+i, ' ')
		}
	}
	for i := uint16(0); i < 32; i++ {
		mem.WriteUnsigned8(CommandTail+i, 0)
	}

	cli := strings.TrimSpace(strings.ToUpper(strings.Join(args, " ")))
	if len(cli) > 127 {
		cli = cli[:127]
	}
	if cli == "" {
		return
	}
	// CP/M passes the tail with its leading space.
	cli = " " + cli
	if len(cli) > 127 {
		cli = cli[:127]
	}
	mem.WriteUnsigned8(CommandTail, uint8(len(cli)))
	for i := 0; i < len(cli); i++ {
		mem.WriteUnsigned8(CommandTail+1+uint16(i), cli[i])
	}
}

// LoadCOM loads a .COM image at 0x0100 and sets up the zero page.
func (m *CPM) LoadCOM(ram *memory.RAM, path string, args []string) error {
	if _, err := ram.LoadFile(path, TPA); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	m.Install(DefaultTop)
	m.SetArgs(args)
	m.Boot(TPA, DefaultTop)
	return nil
}

// LoadSpectrum loads the Spectrum build of an exerciser at 0x8000.
func (m *CPM) LoadSpectrum(ram *memory.RAM, path string) error {
	if _, err := ram.LoadFile(path, SpectrumOrg); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	m.Install(DefaultTop)
	m.InstallSpectrum()
	m.Boot(SpectrumOrg, DefaultTop)
	return nil
}

// Run executes until the program exits, the CPU fails, or ctx is
// cancelled. A clean exit returns nil.
func (m *CPM) Run(ctx context.Context) error {
	defer m.Flush()
	for i := uint64(0); ; i++ {
		if i&0xFFFF == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if m.CPU.Halted() && !m.CPU.Registers().IFF1 {
			return cpu.ErrHalted
		}
		if err := m.CPU.ExecuteSingleInstruction(); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			return err
		}
	}
}

// Flush writes any pending RST 10h output.
func (m *CPM) Flush() {
	if m.line.Len() > 0 {
		fmt.Fprint(m.Writer, m.line.String())
		m.line.Reset()
	}
}

func (m *CPM) bdos(c *cpu.CPU) error {
	fn := c.Registers().C()
	handler, exists := m.Syscalls[fn]
	if !exists {
		m.Logger.WithFields(logrus.Fields{
			"function":    fn,
			"functionHex": fmt.Sprintf("0x%02X", fn),
		}).Error("Unimplemented syscall")
		return fmt.Errorf("BDOS function %d: %w", fn, ErrUnimplemented)
	}
	m.Logger.WithFields(logrus.Fields{
		"name":        handler.Desc,
		"function":    fn,
		"functionHex": fmt.Sprintf("0x%02X", fn),
	}).Info("Calling BIOS emulation")
	return handler.Handler(m)
}

func (m *CPM) rst10(c *cpu.CPU) error {
	ch := c.Registers().A()
	if ch != '\r' {
		m.line.WriteByte(ch)
		return nil
	}
	m.line.WriteByte('\n')
	m.Flush()
	return nil
}

// setResult stores a BDOS return value: A=L=lo, B=H=hi.
func (m *CPM) setResult(v uint16) {
	regs := m.CPU.Registers()
	regs.Set(cpu.HL, v)
	regs.SetA(uint8(v))
	regs.SetB(uint8(v >> 8))
}

// SysCallExit implements P_TERMCPM.
func SysCallExit(m *CPM) error {
	return ErrExit
}

// SysCallReadChar implements C_READ: read and echo one character. End of
// input reads as Ctrl-Z.
func SysCallReadChar(m *CPM) error {
	ch, err := m.Reader.ReadByte()
	if errors.Is(err, io.EOF) {
		ch = 0x1A
	} else if err != nil {
		return fmt.Errorf("C_READ: %w", err)
	} else {
		if _, err := m.Writer.Write([]byte{ch}); err != nil {
			return err
		}
	}
	m.setResult(uint16(ch))
	return nil
}

// SysCallWriteChar implements C_WRITE: print E.
func SysCallWriteChar(m *CPM) error {
	_, err := m.Writer.Write([]byte{m.CPU.Registers().E()})
	return err
}

// SysCallRawIO implements C_RAWIO. E=FFh returns a buffered character or
// 0, E=FEh returns the input status, anything else is printed.
func SysCallRawIO(m *CPM) error {
	e := m.CPU.Registers().E()
	switch e {
	case 0xFF:
		if m.Reader.Buffered() == 0 {
			m.setResult(0)
			return nil
		}
		ch, err := m.Reader.ReadByte()
		if err != nil {
			m.setResult(0)
			return nil
		}
		m.setResult(uint16(ch))
	case 0xFE:
		return SysCallConsoleStatus(m)
	default:
		_, err := m.Writer.Write([]byte{e})
		return err
	}
	return nil
}

// SysCallWriteString implements C_WRITESTRING: print from DE up to '$'.
func SysCallWriteString(m *CPM) error {
	mem := m.CPU.Memory()
	addr := m.CPU.Registers().Get(cpu.DE)
	var buf []byte
	for n := 0; n < memory.Size; n++ {
		ch := mem.ReadUnsigned8(addr)
		if ch == '$' {
			_, err := m.Writer.Write(buf)
			return err
		}
		buf = append(buf, ch)
		addr++
	}
	return fmt.Errorf("C_WRITESTRING: no terminator after %04X", m.CPU.Registers().Get(cpu.DE))
}

// SysCallConsoleStatus implements C_STAT: FFh when input is waiting.
func SysCallConsoleStatus(m *CPM) error {
	if m.Reader.Buffered() > 0 {
		m.setResult(0xFF)
	} else {
		m.setResult(0)
	}
	return nil
}

// SysCallBDOSVersion implements S_BDOSVER: CP/M 2.2.
func SysCallBDOSVersion(m *CPM) error {
	m.setResult(0x0022)
	return nil
}

// SysCallDriveGet implements DRV_GET: always drive A.
func SysCallDriveGet(m *CPM) error {
	m.setResult(0)
	return nil
}
