package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oisee/z80emu/pkg/cpm"
	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/machine"
	"github.com/oisee/z80emu/pkg/memory"
	"github.com/oisee/z80emu/pkg/ports"
	"github.com/oisee/z80emu/pkg/script"
	"github.com/oisee/z80emu/pkg/snapshot"
)

type runOptions struct {
	org, pc, sp     string
	until           string
	consolePort     string
	maxInstructions uint64
	trace           bool
	strict          bool
	cpm             bool
	scriptPath      string
	frames          uint64
	mhz             float64
	hz              int
	realtime        bool
	saveState       string
	loadState       string
	statsview       bool
	statsviewAddr   string
	raw             bool
	rom             string
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run FILE [ARGS...]",
		Short: "Load a binary image and execute it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runImage(ctx, &o, args[0], args[1:])
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.org, "org", "0x0100", "Load address")
	f.StringVar(&o.pc, "pc", "", "Start address (defaults to --org)")
	f.StringVar(&o.sp, "sp", "0xF300", "Initial stack pointer")
	f.StringVar(&o.until, "until", "", "Stop when PC reaches this address")
	f.StringVar(&o.consolePort, "console-port", "0x01", "Output port echoed to stdout")
	f.Uint64Var(&o.maxInstructions, "max-instructions", 0, "Stop after N instructions (0 = no limit)")
	f.BoolVar(&o.trace, "trace", false, "Log every instruction with the register file")
	f.BoolVar(&o.strict, "strict", false, "Fail on unimplemented opcodes")
	f.BoolVar(&o.cpm, "cpm", false, "Install the CP/M BDOS at 0005h")
	f.StringVar(&o.scriptPath, "script", "", "Lua file that installs system-call hooks")
	f.Uint64Var(&o.frames, "frames", 0, "Run N frames with a frame interrupt (0 = instruction mode)")
	f.Float64Var(&o.mhz, "mhz", machine.DefaultMHz, "CPU clock for frame mode")
	f.IntVar(&o.hz, "hz", machine.DefaultHz, "Frame rate for frame mode")
	f.BoolVar(&o.realtime, "realtime", false, "Pace frames to wall-clock time")
	f.StringVar(&o.saveState, "save-state", "", "Write a snapshot when the run ends")
	f.StringVar(&o.loadState, "load-state", "", "Resume from a snapshot instead of loading FILE")
	f.BoolVar(&o.statsview, "statsview", false, "Serve Go runtime statistics while running")
	f.StringVar(&o.statsviewAddr, "statsview-addr", statsviewAddress, "Listen address for --statsview")
	f.BoolVar(&o.raw, "raw", false, "Put the terminal in raw mode for console input")
	f.StringVar(&o.rom, "rom", "", "ROM image mapped read-only into page 0 (0000h-3FFFh)")
	return cmd
}

func runImage(ctx context.Context, o *runOptions, path string, args []string) error {
	log := logrus.StandardLogger()
	if o.trace && !log.IsLevelEnabled(logrus.DebugLevel) {
		log.SetLevel(logrus.DebugLevel)
	}

	org, err := parseAddress("org", o.org)
	if err != nil {
		return err
	}
	pc := org
	if o.pc != "" {
		if pc, err = parseAddress("pc", o.pc); err != nil {
			return err
		}
	}
	sp, err := parseAddress("sp", o.sp)
	if err != nil {
		return err
	}
	consolePort, err := parseAddress("console-port", o.consolePort)
	if err != nil {
		return err
	}
	until := -1
	if o.until != "" {
		u, err := parseAddress("until", o.until)
		if err != nil {
			return err
		}
		until = int(u)
	}

	if o.statsview {
		launchStatsview(o.statsviewAddr, os.Stderr)
	}
	if o.raw && term.IsTerminal(int(os.Stdin.Fd())) {
		old, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %w", err)
		}
		defer func() { _ = term.Restore(int(os.Stdin.Fd()), old) }()
	}

	ram := memory.NewRAM()
	var bus cpu.Memory = ram
	if o.rom != "" {
		image, err := os.ReadFile(o.rom)
		if err != nil {
			return fmt.Errorf("read ROM: %w", err)
		}
		if len(image) > memory.PageSize {
			return fmt.Errorf("ROM %s is %d bytes, page 0 holds %d", o.rom, len(image), memory.PageSize)
		}
		bus = memory.Wide{Bank: &memory.Paged{Pages: [4]memory.Bank{memory.NewROM(image), ram, ram, ram}}}
		log.WithFields(logrus.Fields{"file": o.rom, "bytes": len(image)}).Info("ROM mapped")
	}
	router := ports.NewRouter(log)
	router.Map(uint8(consolePort), nil, ports.Output(os.Stdout))
	psg := &ports.Latch{OnWrite: func(reg, v uint8) {
		log.WithFields(logrus.Fields{"reg": reg, "value": fmt.Sprintf("%02x", v)}).Trace("PSG write")
	}}
	psg.Attach(router, 0xA0, 0xA1)

	c := cpu.New(bus, router, cpu.WithLogger(log), cpu.WithStrict(o.strict))

	if o.loadState != "" {
		s, err := snapshot.Load(o.loadState)
		if err != nil {
			return err
		}
		if err := s.Apply(c); err != nil {
			return err
		}
	} else {
		n, err := ram.LoadFile(path, org)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"file": path, "bytes": n, "org": fmt.Sprintf("%04x", org)}).Info("Image loaded")
		c.Registers().Set(cpu.PC, pc)
		c.Registers().Set(cpu.SP, sp)
	}

	if o.cpm {
		bdos := cpm.New(c, os.Stdin, os.Stdout, log)
		bdos.Install(sp)
		bdos.SetArgs(args)
		if o.loadState == "" {
			bdos.Boot(pc, sp)
		}
	}
	if o.scriptPath != "" {
		eng := script.New(c, os.Stdout, log)
		defer eng.Close()
		if err := eng.DoFile(o.scriptPath); err != nil {
			return err
		}
	}

	if o.frames > 0 || o.realtime {
		m := machine.New(c, machine.VBlank{}, machine.Config{
			MHz:      o.mhz,
			Hz:       o.hz,
			Realtime: o.realtime,
			Stop: func(c *cpu.CPU) bool {
				return until >= 0 && c.PC() == uint16(until)
			},
		}, log)
		err = m.Run(ctx, o.frames)
		log.WithField("frames", m.Frames()).Info("Frames executed")
	} else {
		var n uint64
		n, err = execute(ctx, c, o.maxInstructions, until, o.trace)
		log.WithField("instructions", n).Info("Instructions executed")
	}
	err = cleanExit(err)

	log.WithFields(logrus.Fields{
		"pc":     fmt.Sprintf("%04x", c.PC()),
		"cycles": c.Cycles(),
		"halted": c.Halted(),
	}).Info("Run finished")

	if o.saveState != "" {
		if serr := snapshot.Save(o.saveState, snapshot.Capture(c)); serr != nil {
			return errors.Join(err, serr)
		}
	}
	return err
}

// execute steps the CPU until a limit, the until address, a halt with
// interrupts disabled, or an error.
func execute(ctx context.Context, c *cpu.CPU, limit uint64, until int, trace bool) (uint64, error) {
	var n uint64
	for limit == 0 || n < limit {
		if n&0xFFFF == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		if until >= 0 && c.PC() == uint16(until) {
			return n, nil
		}
		if c.Halted() && !c.Registers().IFF1 {
			return n, cpu.ErrHalted
		}
		if err := c.Execute(1, trace); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// cleanExit maps the errors that mean "the program finished" to nil.
func cleanExit(err error) error {
	switch {
	case err == nil,
		errors.Is(err, cpm.ErrExit),
		errors.Is(err, script.ErrStop),
		errors.Is(err, machine.ErrStopped),
		errors.Is(err, cpu.ErrHalted),
		errors.Is(err, context.Canceled):
		return nil
	}
	return err
}
