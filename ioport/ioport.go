// Package ioport grants the calling OS thread direct access to one x86 I/O
// port and writes bytes to it.
//
// Linux grants port permissions per thread with ioperm(2). A Guard therefore
// pins its goroutine to the OS thread it was acquired on, and every use from
// any other thread panics.
package ioport

import (
	"fmt"
	"runtime"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

const (
	// ErrPermission is returned when the OS refuses access to the port.
	ErrPermission = errors.ConstError("access to I/O port denied")

	// ErrUnsupported is returned by the hardware backend on platforms
	// without direct port I/O.
	ErrUnsupported = errors.ConstError("direct port I/O is not supported on this platform")

	// ErrReleased is the panic value of writes through a released Guard.
	ErrReleased = errors.ConstError("I/O port guard already released")
)

var logger = loggo.GetLogger("postclock.ioport")

// Backend performs the privileged operations behind a Guard. Hardware is the
// real one; machine.Machine simulates it.
type Backend interface {
	// Grant gives the calling thread access to address.
	Grant(address uint16) error
	// Revoke drops the calling thread's access to address.
	Revoke(address uint16) error
	// Out writes value to address. It cannot fail.
	Out(address uint16, value uint8)
}

// CrossThreadUseError is the panic value of a Guard used from a thread other
// than the one that acquired it.
type CrossThreadUseError struct {
	Address uint16
	Owner   int
	Caller  int
}

func (e *CrossThreadUseError) Error() string {
	return fmt.Sprintf("I/O port %#x acquired by thread %d, used from thread %d", e.Address, e.Owner, e.Caller)
}

// Guard holds the calling thread's permission to write one I/O port.
//
// The caller is responsible for the port being safe to write: nothing else,
// kernel or userspace, may depend on its value. Two guards on the same port
// from different threads are not prevented.
type Guard struct {
	backend  Backend
	address  uint16
	tid      int
	released bool
}

// Acquire grants the calling thread access to the I/O port at address using
// the hardware backend.
func Acquire(address uint16) (*Guard, error) {
	return AcquireWith(Hardware{}, address)
}

// AcquireWith is Acquire on an arbitrary backend.
//
// On success the calling goroutine stays locked to its OS thread until
// Release.
func AcquireWith(b Backend, address uint16) (*Guard, error) {
	runtime.LockOSThread()

	if err := b.Grant(address); err != nil {
		runtime.UnlockOSThread()

		return nil, fmt.Errorf("%w: port %#x: %w", ErrPermission, address, err)
	}

	g := &Guard{
		backend: b,
		address: address,
		tid:     gettid(),
	}

	logger.Debugf("acquired port %#x on thread %d", address, g.tid)

	return g, nil
}

// Address returns the port the guard writes to.
func (g *Guard) Address() uint16 {
	return g.address
}

// Out writes value to the port.
//
// It panics with *CrossThreadUseError when called from a thread other than
// the acquiring one.
func (g *Guard) Out(value uint8) {
	if g.released {
		panic(ErrReleased)
	}

	g.checkThread()

	g.backend.Out(g.address, value)
}

// Release revokes the permission and unlocks the OS thread. It must be called
// from the acquiring thread. Releasing twice is a no-op.
//
// If revoking fails the thread still holds the permission, so it stays locked
// and the guard stays usable; Release may be called again.
func (g *Guard) Release() error {
	if g.released {
		return nil
	}

	g.checkThread()

	if err := g.backend.Revoke(g.address); err != nil {
		return fmt.Errorf("revoking port %#x: %w", g.address, err)
	}

	g.released = true

	runtime.UnlockOSThread()

	logger.Debugf("released port %#x", g.address)

	return nil
}

// ThreadID returns the id of the calling OS thread, the unit ioperm(2)
// permissions are granted to.
func ThreadID() int {
	return gettid()
}

func (g *Guard) checkThread() {
	if tid := gettid(); tid != g.tid {
		panic(&CrossThreadUseError{Address: g.address, Owner: g.tid, Caller: tid})
	}
}
