// Package display drives a two-digit seven-segment POST-code display.
package display

import (
	"github.com/bobuhiro11/postclock/digits"
	"github.com/bobuhiro11/postclock/iodelay"
	"github.com/bobuhiro11/postclock/ioport"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// DefaultPort is the POST-code port.
const DefaultPort = 0x80

var logger = loggo.GetLogger("postclock.display")

type Config struct {
	// Port is the I/O port the display decodes. Zero means DefaultPort.
	Port uint16
	// IODelayPath is checked for a kernel claim on Port. Empty means
	// iodelay.DefaultPath.
	IODelayPath string
	// Backend performs the port access. Nil means ioport.Hardware.
	Backend ioport.Backend
}

// Display owns the permission to write the display's port. Like the guard it
// wraps, it must only be used from the goroutine that opened it.
type Display struct {
	guard *ioport.Guard
}

// Open refuses to touch a port the kernel uses for io_delay, then acquires
// it. Both failures are final.
func Open(c Config) (*Display, error) {
	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.IODelayPath == "" {
		c.IODelayPath = iodelay.DefaultPath
	}

	if c.Backend == nil {
		c.Backend = ioport.Hardware{}
	}

	if err := iodelay.Check(c.IODelayPath, c.Port); err != nil {
		return nil, errors.Annotatef(err, "checking port %#x", c.Port)
	}

	g, err := ioport.AcquireWith(c.Backend, c.Port)
	if err != nil {
		return nil, errors.Annotatef(err, "opening display at port %#x", c.Port)
	}

	logger.Infof("display at port %#x ready", c.Port)

	return &Display{guard: g}, nil
}

// Hexadecimal shows value as two hexadecimal digits.
func (d *Display) Hexadecimal(value uint8) {
	d.guard.Out(value)
}

// Decimal shows value, which must be at most 99, as two decimal digits.
func (d *Display) Decimal(value uint8) {
	d.Hexadecimal(digits.Encode(value))
}

// Separator shows "CC".
func (d *Display) Separator() {
	d.Hexadecimal(digits.Separator)
}

// Close releases the port.
func (d *Display) Close() error {
	return d.guard.Release()
}
