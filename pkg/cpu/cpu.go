// Package cpu implements a Z80 instruction interpreter: register file,
// flag engine, table-driven decoder, interrupts and system-call hooks.
package cpu

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oisee/z80emu/pkg/inst"
)

// SystemCall intercepts execution at a fixed address. After it returns nil
// the CPU performs a RET on its behalf.
type SystemCall func(c *CPU) error

// CPU is a single Z80 core. It is not safe for concurrent use.
type CPU struct {
	reg Registers
	mem Memory
	io  IO

	log    *logrus.Logger
	tracer Tracer
	strict bool

	hooks map[uint16]SystemCall

	// Per-instruction decode state.
	start uint16
	table inst.Table
	disp  int8
	taken bool
}

// Option configures a CPU.
type Option func(*CPU)

// WithLogger sets the logger used for errors and the default tracer.
func WithLogger(l *logrus.Logger) Option {
	return func(c *CPU) { c.log = l }
}

// WithTracer replaces the per-instruction diagnostics sink.
func WithTracer(t Tracer) Option {
	return func(c *CPU) { c.tracer = t }
}

// WithStrict makes unimplemented opcodes fail the step instead of being
// logged and skipped.
func WithStrict(strict bool) Option {
	return func(c *CPU) { c.strict = strict }
}

// New creates a CPU on the given buses. A nil io behaves as NoIO.
func New(mem Memory, io IO, opts ...Option) *CPU {
	if io == nil {
		io = NoIO{}
	}
	c := &CPU{
		mem:   mem,
		io:    io,
		log:   logrus.StandardLogger(),
		hooks: make(map[uint16]SystemCall),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = LogTracer{Logger: c.log}
	}
	c.Reset()
	return c
}

// Reset puts the CPU in its power-on state: PC and SP zero, interrupts
// disabled, IM 0, not halted. Other registers keep their values.
func (c *CPU) Reset() {
	c.reg.Set(PC, 0)
	c.reg.Set(SP, 0)
	c.reg.I = 0
	c.reg.R = 0
	c.reg.IFF1 = false
	c.reg.IFF2 = false
	c.reg.IM = 0
	c.reg.Halted = false
}

// Registers returns the live register file.
func (c *CPU) Registers() *Registers { return &c.reg }

// Memory returns the memory bus.
func (c *CPU) Memory() Memory { return c.mem }

// Snapshot returns the register snapshot used by the diagnostics sink.
func (c *CPU) Snapshot() map[string]uint16 { return c.reg.Snapshot() }

// Cycles returns the elapsed T-states.
func (c *CPU) Cycles() uint64 { return c.reg.Cycles }

// Halted reports whether the CPU is waiting for an interrupt.
func (c *CPU) Halted() bool { return c.reg.Halted }

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.reg.Get(PC) }

// RegisterSystemCall installs fn at addr, replacing any previous hook.
// A nil fn removes the hook.
func (c *CPU) RegisterSystemCall(addr uint16, fn SystemCall) {
	if fn == nil {
		delete(c.hooks, addr)
		return
	}
	c.hooks[addr] = fn
}

// ExecuteSingleInstruction runs one instruction, or one hook plus its RET.
func (c *CPU) ExecuteSingleInstruction() error {
	return c.step(false)
}

// Execute runs count instructions. With withLogging set every instruction
// is reported to the tracer before it runs.
func (c *CPU) Execute(count uint32, withLogging bool) error {
	for i := uint32(0); i < count; i++ {
		if err := c.step(withLogging); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteUntil runs until PC equals target. It returns ErrHalted if the CPU
// halts first, since nothing but an interrupt could resume it.
func (c *CPU) ExecuteUntil(target uint16) error {
	for c.reg.Get(PC) != target {
		if c.reg.Halted {
			return ErrHalted
		}
		if err := c.step(false); err != nil {
			return err
		}
	}
	return nil
}

func (c *CPU) step(trace bool) error {
	pc := c.reg.Get(PC)

	if c.reg.Halted {
		c.reg.Cycles += 4
		c.reg.incR()
		return nil
	}

	if fn, ok := c.hooks[pc]; ok {
		if trace {
			c.tracer.Debug(fmt.Sprintf("%04x : SYSCALL", pc), c.reg.Snapshot())
		}
		if err := fn(c); err != nil {
			return fmt.Errorf("system call at %04X: %w", pc, err)
		}
		c.ret()
		c.reg.Cycles += uint64(inst.TStates(inst.Base, 0xC9))
		return nil
	}

	if trace {
		text, _ := inst.Disassemble(c.mem, pc)
		c.tracer.Debug(fmt.Sprintf("%04x : %s", pc, text), c.reg.Snapshot())
	}

	c.start = pc
	c.disp = 0
	t := inst.Base
	op := c.fetchOpcode()
	switch op {
	case 0xCB:
		t = inst.CB
		op = c.fetchOpcode()
	case 0xED:
		t = inst.ED
		op = c.fetchOpcode()
	case 0xDD, 0xFD:
		t = inst.DD
		tcb := inst.DDCB
		if op == 0xFD {
			t, tcb = inst.FD, inst.FDCB
		}
		op = c.fetchOpcode()
		if op == 0xCB {
			// DD CB d op: the displacement comes before the opcode and the
			// opcode byte is not an M1 fetch.
			t = tcb
			c.disp = c.fetchSigned8()
			op = c.fetch8()
		} else if op == 0xDD || op == 0xED || op == 0xFD {
			// A prefix followed by another prefix is a NOP; decoding
			// restarts at the second prefix.
			c.reg.Set(PC, c.reg.Get(PC)-1)
			c.reg.Cycles += 4
			return nil
		}
	}
	return c.dispatch(t, op)
}

func (c *CPU) dispatch(t inst.Table, op uint8) error {
	h := dispatch[t][op]
	if h == nil {
		return c.unimplemented(t, op)
	}
	c.table = t
	c.taken = true
	h(c)
	info := &inst.Catalog[t][op]
	if c.taken {
		c.reg.Cycles += uint64(info.TStates)
	} else {
		c.reg.Cycles += uint64(info.NotTaken)
	}
	return nil
}

// unimplemented logs the missing opcode and, in strict mode, returns it as
// an error. Registers and memory are left as they were, except that PC and
// R move past the fetched bytes and the step is charged eight T-states, the
// cost of the two-byte NOP the hardware executes for these slots.
func (c *CPU) unimplemented(t inst.Table, op uint8) error {
	err := &UnimplementedOpcodeError{Prefix: t, Opcode: op, PC: c.start}
	c.reg.Cycles += 8
	c.log.WithFields(logrus.Fields{
		"pc":     fmt.Sprintf("%04x", c.start),
		"prefix": t.String(),
		"opcode": fmt.Sprintf("%02x", op),
	}).Error("Unimplemented opcode")
	if c.strict {
		return err
	}
	return nil
}

// IsUnimplemented reports whether err wraps an UnimplementedOpcodeError.
func IsUnimplemented(err error) bool {
	var u *UnimplementedOpcodeError
	return errors.As(err, &u)
}

// fetchOpcode reads an M1 byte at PC, advancing PC and R.
func (c *CPU) fetchOpcode() uint8 {
	c.reg.incR()
	return c.fetch8()
}

func (c *CPU) fetch8() uint8 {
	pc := c.reg.Get(PC)
	c.reg.Set(PC, pc+1)
	return c.mem.ReadUnsigned8(pc)
}

func (c *CPU) fetchSigned8() int8 {
	pc := c.reg.Get(PC)
	c.reg.Set(PC, pc+1)
	return c.mem.ReadSigned8(pc)
}

func (c *CPU) fetch16() uint16 {
	pc := c.reg.Get(PC)
	c.reg.Set(PC, pc+2)
	return c.mem.ReadUnsigned16(pc)
}

func (c *CPU) push(v uint16) {
	sp := c.reg.Get(SP) - 2
	c.reg.Set(SP, sp)
	c.mem.WriteUnsigned16(sp, v)
}

func (c *CPU) pop() uint16 {
	sp := c.reg.Get(SP)
	c.reg.Set(SP, sp+2)
	return c.mem.ReadUnsigned16(sp)
}

func (c *CPU) ret() {
	c.reg.Set(PC, c.pop())
}

// notTaken marks a conditional instruction as having skipped its branch.
func (c *CPU) notTaken() {
	c.taken = false
}
