// Package iodelay tells whether the kernel uses an I/O port for its own
// io_delay, in which case userspace must not write to it.
package iodelay

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// DefaultPath exposes the kernel's io_delay type on x86. Other architectures
// do not have it, and reading it then fails.
const DefaultPath = "/proc/sys/kernel/io_delay_type"

const (
	ErrConfigRead   = errors.ConstError("cannot read io_delay type")
	ErrConfigParse  = errors.ConstError("cannot parse io_delay type")
	ErrPortConflict = errors.ConstError("port in use by the kernel for io_delay (see the io_delay boot parameter)")
)

var logger = loggo.GetLogger("postclock.iodelay")

// Type is the kernel's io_delay method.
// Values are defined in arch/x86/kernel/io_delay.c.
type Type uint8

const (
	Type0x80   Type = 0
	Type0xED   Type = 1
	TypeUDelay Type = 2
	TypeNone   Type = 3
)

func (t Type) String() string {
	switch t {
	case Type0x80:
		return "0x80"
	case Type0xED:
		return "0xed"
	case TypeUDelay:
		return "udelay"
	case TypeNone:
		return "none"
	}

	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Reserves reports whether the kernel writes to port for its delays.
func (t Type) Reserves(port uint16) bool {
	switch t {
	case Type0x80:
		return port == 0x80
	case Type0xED:
		return port == 0xed
	}

	return false
}

// Read returns the io_delay type stored at path. The file is read on every
// call since the value can be changed through sysctl.
func Read(path string) (Type, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConfigRead, err)
	}

	s := strings.TrimRightFunc(string(b), unicode.IsSpace)

	// An explicit plus sign is accepted like any other unsigned integer
	// syntax; leading whitespace is not.
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrConfigParse, s, err)
	}

	logger.Tracef("%s = %s", path, Type(v))

	return Type(v), nil
}

// CheckPortAvailable reports whether port 0x80 is free for userspace
// according to DefaultPath. A false result must stop startup.
func CheckPortAvailable() (bool, error) {
	return CheckPortAvailableAt(DefaultPath)
}

// CheckPortAvailableAt is CheckPortAvailable reading path instead.
func CheckPortAvailableAt(path string) (bool, error) {
	t, err := Read(path)
	if err != nil {
		return false, err
	}

	return t != Type0x80, nil
}

// Check returns an error matching ErrPortConflict if the io_delay type at
// path reserves port, or the error of reading it.
func Check(path string, port uint16) error {
	t, err := Read(path)
	if err != nil {
		return err
	}

	if t.Reserves(port) {
		return fmt.Errorf("%w: io_delay=%s, port %#x", ErrPortConflict, t, port)
	}

	logger.Debugf("io_delay=%s leaves port %#x to userspace", t, port)

	return nil
}
