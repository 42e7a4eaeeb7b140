// Package script lets Lua code install system-call hooks on a CPU.
//
// A script sees these globals:
//
//	syscall(addr, fn)  run fn(addr) whenever PC reaches addr, then RET
//	unhook(addr)       remove the hook at addr
//	reg(name)          read a register ("A", "HL", "IX", "I", ...)
//	setreg(name, v)    write a register
//	peek(addr)         read a byte
//	poke(addr, v)      write a byte
//	stop()             end the run once the current hook returns
//	print(...)         write to the engine's output
package script

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/oisee/z80emu/pkg/cpu"
)

// ErrStop is returned by a hook whose script called stop().
var ErrStop = errors.New("script requested stop")

// Engine is a Lua state bound to one CPU. Like the CPU it is not safe for
// concurrent use.
type Engine struct {
	L *lua.LState

	cpu  *cpu.CPU
	out  io.Writer
	log  *logrus.Logger
	stop bool
}

var wide = map[string]cpu.Reg16{
	"AF": cpu.AF, "BC": cpu.BC, "DE": cpu.DE, "HL": cpu.HL,
	"IX": cpu.IX, "IY": cpu.IY, "SP": cpu.SP, "PC": cpu.PC,
}

// New creates an engine with the safe standard libraries (no io or os).
func New(c *cpu.CPU, out io.Writer, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	e := &Engine{L: L, cpu: c, out: out, log: log}
	for name, fn := range map[string]lua.LGFunction{
		"syscall": e.syscall,
		"unhook":  e.unhook,
		"reg":     e.reg,
		"setreg":  e.setreg,
		"peek":    e.peek,
		"poke":    e.poke,
		"stop":    e.stopRun,
		"print":   e.print,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return e
}

// Close releases the Lua state.
func (e *Engine) Close() { e.L.Close() }

// DoFile runs a script file, which normally registers its hooks.
func (e *Engine) DoFile(path string) error {
	if err := e.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	return e.L.DoString(src)
}

func (e *Engine) syscall(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	fn := L.CheckFunction(2)
	e.cpu.RegisterSystemCall(addr, func(*cpu.CPU) error {
		err := e.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(addr))
		if err != nil {
			return err
		}
		if e.stop {
			e.stop = false
			return ErrStop
		}
		return nil
	})
	e.log.WithField("addr", fmt.Sprintf("%04x", addr)).Debug("Script hook installed")
	return 0
}

func (e *Engine) unhook(L *lua.LState) int {
	e.cpu.RegisterSystemCall(uint16(L.CheckInt(1)), nil)
	return 0
}

func (e *Engine) reg(L *lua.LState) int {
	name := strings.ToUpper(L.CheckString(1))
	v, ok := readReg(e.cpu.Registers(), name)
	if !ok {
		L.ArgError(1, "unknown register "+name)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (e *Engine) setreg(L *lua.LState) int {
	name := strings.ToUpper(L.CheckString(1))
	v := L.CheckInt(2)
	if !writeReg(e.cpu.Registers(), name, uint16(v)) {
		L.ArgError(1, "unknown register "+name)
	}
	return 0
}

func (e *Engine) peek(L *lua.LState) int {
	L.Push(lua.LNumber(e.cpu.Memory().ReadUnsigned8(uint16(L.CheckInt(1)))))
	return 1
}

func (e *Engine) poke(L *lua.LState) int {
	e.cpu.Memory().WriteUnsigned8(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)))
	return 0
}

func (e *Engine) stopRun(*lua.LState) int {
	e.stop = true
	return 0
}

func (e *Engine) print(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	fmt.Fprintln(e.out, strings.Join(parts, "\t"))
	return 0
}

func readReg(r *cpu.Registers, name string) (uint16, bool) {
	if i, ok := wide[name]; ok {
		return r.Get(i), true
	}
	switch name {
	case "A":
		return uint16(r.A()), true
	case "F":
		return uint16(r.F()), true
	case "B":
		return uint16(r.B()), true
	case "C":
		return uint16(r.C()), true
	case "D":
		return uint16(r.D()), true
	case "E":
		return uint16(r.E()), true
	case "H":
		return uint16(r.H()), true
	case "L":
		return uint16(r.L()), true
	case "I":
		return uint16(r.I), true
	case "R":
		return uint16(r.R), true
	}
	return 0, false
}

func writeReg(r *cpu.Registers, name string, v uint16) bool {
	if i, ok := wide[name]; ok {
		r.Set(i, v)
		return true
	}
	b := uint8(v)
	switch name {
	case "A":
		r.SetA(b)
	case "F":
		r.SetF(b)
	case "B":
		r.SetB(b)
	case "C":
		r.SetC(b)
	case "D":
		r.SetD(b)
	case "E":
		r.SetE(b)
	case "H":
		r.SetH(b)
	case "L":
		r.SetL(b)
	case "I":
		r.I = b
	case "R":
		r.R = b
	default:
		return false
	}
	return true
}
