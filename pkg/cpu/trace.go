package cpu

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Tracer receives one message per executed instruction when logging is
// enabled. The message is "<addr> : <disassembly>".
type Tracer interface {
	Debug(msg string, regs map[string]uint16)
}

// LogTracer writes trace lines to a logrus logger at debug level with every
// register as a field.
type LogTracer struct {
	Logger *logrus.Logger
}

func (t LogTracer) Debug(msg string, regs map[string]uint16) {
	fields := make(logrus.Fields, len(regs))
	for k, v := range regs {
		fields[k] = fmt.Sprintf("%04x", v)
	}
	t.Logger.WithFields(fields).Debug(msg)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(msg string, regs map[string]uint16)

func (f TracerFunc) Debug(msg string, regs map[string]uint16) { f(msg, regs) }
