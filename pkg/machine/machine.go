// Package machine drives a CPU in frame-sized cycle budgets and raises the
// frame interrupt.
package machine

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oisee/z80emu/pkg/cpu"
)

// Default clock and frame rate of an MSX1.
const (
	DefaultMHz = 3.56
	DefaultHz  = 60
)

// ErrStopped is returned by Run when the Stop callback ends the run.
var ErrStopped = errors.New("machine stopped")

// InterruptSource is polled once per frame. A video controller reports its
// vertical-blank interrupt through it.
type InterruptSource interface {
	InterruptPending() bool
}

// VBlank is an InterruptSource that fires on every frame.
type VBlank struct{}

func (VBlank) InterruptPending() bool { return true }

// Config holds scheduler configuration.
type Config struct {
	MHz      float64 // CPU clock; DefaultMHz if zero
	Hz       int     // Frames per second; DefaultHz if zero
	Realtime bool    // Sleep so that frames run at Hz

	// Stop, if set, is checked after every frame; returning true ends Run
	// with ErrStopped.
	Stop func(*cpu.CPU) bool
}

// CyclesPerFrame returns the T-state budget of one frame.
func (c Config) CyclesPerFrame() uint64 {
	mhz, hz := c.MHz, c.Hz
	if mhz <= 0 {
		mhz = DefaultMHz
	}
	if hz <= 0 {
		hz = DefaultHz
	}
	return uint64(mhz * 1e6 / float64(hz))
}

// FrameDuration returns the wall-clock length of one frame.
func (c Config) FrameDuration() time.Duration {
	hz := c.Hz
	if hz <= 0 {
		hz = DefaultHz
	}
	return time.Second / time.Duration(hz)
}

// Machine owns a CPU and its interrupt source.
type Machine struct {
	CPU    *cpu.CPU
	Source InterruptSource

	cfg    Config
	budget uint64
	frames uint64
	log    *logrus.Logger
}

// New creates a scheduler. A nil source never interrupts.
func New(c *cpu.CPU, src InterruptSource, cfg Config, log *logrus.Logger) *Machine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Machine{
		CPU:    c,
		Source: src,
		cfg:    cfg,
		budget: cfg.CyclesPerFrame(),
		log:    log,
	}
}

// Frames returns the number of completed frames.
func (m *Machine) Frames() uint64 { return m.frames }

// RunFrame executes instructions until the frame budget is spent, then
// offers the interrupt. The frame ends on cycle count, so a long
// instruction may overrun the budget slightly.
func (m *Machine) RunFrame() error {
	target := m.CPU.Cycles() + m.budget
	for m.CPU.Cycles() < target {
		if err := m.CPU.ExecuteSingleInstruction(); err != nil {
			return err
		}
	}
	m.frames++
	if m.Source != nil && m.Source.InterruptPending() {
		accepted := m.CPU.Interrupt()
		m.log.WithFields(logrus.Fields{
			"frame":    m.frames,
			"accepted": accepted,
		}).Trace("Frame interrupt")
	}
	return nil
}

// Run executes frames until ctx is cancelled, maxFrames frames have run
// (0 means no limit), Stop returns true, or the CPU reports an error.
func (m *Machine) Run(ctx context.Context, maxFrames uint64) error {
	var tick *time.Ticker
	if m.cfg.Realtime {
		tick = time.NewTicker(m.cfg.FrameDuration())
		defer tick.Stop()
	}

	start := m.frames
	for maxFrames == 0 || m.frames-start < maxFrames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.RunFrame(); err != nil {
			return err
		}
		if m.cfg.Stop != nil && m.cfg.Stop(m.CPU) {
			return ErrStopped
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick.C:
			}
		}
	}
	return nil
}
