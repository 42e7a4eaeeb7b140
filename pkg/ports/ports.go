// Package ports routes the CPU's 8-bit I/O space to device handlers.
package ports

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// ReadFunc services an IN from a port.
type ReadFunc func(port uint8) uint8

// WriteFunc services an OUT to a port.
type WriteFunc func(port uint8, v uint8)

// Router dispatches port accesses to registered handlers. Reads from an
// unmapped port return 0xFF and writes to one are dropped; both are logged
// at debug level.
type Router struct {
	mu     sync.RWMutex
	reads  [256]ReadFunc
	writes [256]WriteFunc
	log    *logrus.Logger
}

// NewRouter returns an empty router logging to l (the standard logger if nil).
func NewRouter(l *logrus.Logger) *Router {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Router{log: l}
}

// Map installs handlers for port. A nil handler leaves that direction unmapped.
func (r *Router) Map(port uint8, read ReadFunc, write WriteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads[port] = read
	r.writes[port] = write
}

// Unmap removes both handlers of port.
func (r *Router) Unmap(port uint8) {
	r.Map(port, nil, nil)
}

func (r *Router) Read8(port uint8) uint8 {
	r.mu.RLock()
	fn := r.reads[port]
	r.mu.RUnlock()
	if fn == nil {
		r.log.WithField("port", fmt.Sprintf("%02x", port)).Debug("Read from unmapped port")
		return 0xFF
	}
	return fn(port)
}

func (r *Router) Write8(port uint8, v uint8) {
	r.mu.RLock()
	fn := r.writes[port]
	r.mu.RUnlock()
	if fn == nil {
		r.log.WithFields(logrus.Fields{
			"port":  fmt.Sprintf("%02x", port),
			"value": fmt.Sprintf("%02x", v),
		}).Debug("Write to unmapped port")
		return
	}
	fn(port, v)
}

// Latch is a register-select/data port pair such as the PSG at A0h/A1h:
// a write to the select port picks a register, the data port reads or
// writes it.
type Latch struct {
	mu       sync.Mutex
	selected uint8
	regs     [256]uint8

	// OnWrite, if set, is called after a data write.
	OnWrite func(reg, v uint8)
}

// Attach maps the latch on selectPort and dataPort.
func (l *Latch) Attach(r *Router, selectPort, dataPort uint8) {
	r.Map(selectPort, nil, func(_ uint8, v uint8) {
		l.mu.Lock()
		l.selected = v
		l.mu.Unlock()
	})
	r.Map(dataPort, func(uint8) uint8 {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.regs[l.selected]
	}, func(_ uint8, v uint8) {
		l.mu.Lock()
		reg := l.selected
		l.regs[reg] = v
		l.mu.Unlock()
		if l.OnWrite != nil {
			l.OnWrite(reg, v)
		}
	})
}

// Register returns the current value of register reg.
func (l *Latch) Register(reg uint8) uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.regs[reg]
}

// Output returns a WriteFunc that writes each byte to w, for a simple
// console device.
func Output(w io.Writer) WriteFunc {
	return func(_ uint8, v uint8) {
		_, _ = w.Write([]byte{v})
	}
}

// Constant returns a ReadFunc that always yields v.
func Constant(v uint8) ReadFunc {
	return func(uint8) uint8 { return v }
}
