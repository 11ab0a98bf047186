// Package machine simulates the I/O port space of an x86 PC, including the
// per-thread port permissions of ioperm(2). It implements ioport.Backend so
// the whole display stack can run without privileges or hardware.
//
// Permissions are keyed by ioport.ThreadID, which only distinguishes threads
// on Linux; elsewhere all threads share one permission set.
package machine

import (
	"fmt"
	"sync"

	"github.com/bobuhiro11/postclock/device"
	"github.com/bobuhiro11/postclock/iodev"
	"github.com/bobuhiro11/postclock/ioport"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

const (
	cmosPort  = 0x70
	delayPort = 0xed

	numPorts = 0x10000
)

// ErrDenied is returned by Grant after Deny.
const ErrDenied = errors.ConstError("simulated ioperm denied")

var logger = loggo.GetLogger("postclock.machine")

// FaultError is the panic value of an OUT to a port the calling thread has
// no permission for. The real CPU raises #GP and the kernel sends SIGSEGV.
type FaultError struct {
	Port   uint16
	Thread int
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("general protection fault: OUT to port %#x from thread %d without permission", e.Port, e.Thread)
}

// Write is one OUT observed on the bus.
type Write struct {
	Thread int
	Port   uint16
	Value  uint8
}

type Machine struct {
	mu             sync.Mutex
	ports          [numPorts]uint8
	ioportHandlers [numPorts]func(m *Machine, port uint64, bytes []byte) error
	perms          map[int]map[uint16]bool
	writes         []Write
	denyErr        error
	trace          bool

	postCode *device.PostCodeDevice
}

// New returns a machine with a POST-code display at port 0x80 and latches at
// the CMOS and 0xED delay ports.
func New() *Machine {
	m := &Machine{
		perms:    map[int]map[uint16]bool{},
		postCode: device.NewPostCodeDevice(device.PostCodePort),
	}

	m.initIOPortHandlers()

	return m
}

func (m *Machine) initIOPortHandlers() {
	funcNone := func(m *Machine, port uint64, bytes []byte) error {
		return nil
	}

	for port := 0; port < numPorts; port++ {
		m.ioportHandlers[port] = funcNone
	}

	m.Attach(m.postCode)
	m.Attach(iodev.NewLatchDevice("cmos", cmosPort, 2))
	m.Attach(iodev.NewLatchDevice("delay", delayPort, 1))
}

// Attach routes writes to the ports of d to it.
func (m *Machine) Attach(d device.IODevice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for port := d.IOPort(); port < d.IOPort()+d.Size() && port < numPorts; port++ {
		m.ioportHandlers[port] = func(m *Machine, port uint64, bytes []byte) error {
			return d.Write(port, bytes)
		}
	}
}

// PostCode returns the display attached at port 0x80.
func (m *Machine) PostCode() *device.PostCodeDevice {
	return m.postCode
}

// Deny makes every following Grant fail with err, or succeed again if err is
// nil.
func (m *Machine) Deny(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.denyErr = err
}

// SetTrace logs every OUT as the disassembled instruction.
func (m *Machine) SetTrace(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trace = on
}

func (m *Machine) Grant(address uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.denyErr != nil {
		return fmt.Errorf("%w: %w", ErrDenied, m.denyErr)
	}

	tid := ioport.ThreadID()
	if m.perms[tid] == nil {
		m.perms[tid] = map[uint16]bool{}
	}

	m.perms[tid][address] = true

	return nil
}

func (m *Machine) Revoke(address uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.perms[ioport.ThreadID()], address)

	return nil
}

// Permitted reports whether thread may write port.
func (m *Machine) Permitted(thread int, port uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.perms[thread][port]
}

// Out latches value on port and hands it to the attached device. It panics
// with *FaultError when the calling thread lacks permission.
func (m *Machine) Out(address uint16, value uint8) {
	tid := ioport.ThreadID()

	m.mu.Lock()

	if !m.perms[tid][address] {
		m.mu.Unlock()
		panic(&FaultError{Port: address, Thread: tid})
	}

	m.ports[address] = value
	m.writes = append(m.writes, Write{Thread: tid, Port: address, Value: value})
	handler := m.ioportHandlers[address]
	trace := m.trace

	m.mu.Unlock()

	if trace {
		logger.Debugf("%s\t# dx=%#x al=%#02x", Asm(), address, value)
	}

	if err := handler(m, uint64(address), []byte{value}); err != nil {
		logger.Warningf("port %#x: %v", address, err)
	}
}

// Snapshot returns the last value written to every port.
func (m *Machine) Snapshot() [numPorts]uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ports
}

// Writes returns every OUT so far, oldest first.
func (m *Machine) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Write(nil), m.writes...)
}
