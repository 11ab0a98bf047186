// Package iodev holds the plain devices that surround the POST-code display
// on the simulated machine.
package iodev

import (
	"fmt"
	"sync"
)

// LatchDevice keeps the last byte written to each port of its range and
// returns it on read. It stands in for registers whose contents must not be
// disturbed, such as the CMOS index port or the 0xED delay port.
type LatchDevice struct {
	Name  string
	Port  uint64
	Psize uint64

	mu   sync.Mutex
	regs map[uint64]byte
}

func NewLatchDevice(name string, port, size uint64) *LatchDevice {
	return &LatchDevice{
		Name:  name,
		Port:  port,
		Psize: size,
		regs:  map[uint64]byte{},
	}
}

func (l *LatchDevice) Read(port uint64, data []byte) error {
	if err := l.check(port, data); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range data {
		data[i] = l.regs[port+uint64(i)]
	}

	return nil
}

func (l *LatchDevice) Write(port uint64, data []byte) error {
	if err := l.check(port, data); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, b := range data {
		l.regs[port+uint64(i)] = b
	}

	return nil
}

func (l *LatchDevice) IOPort() uint64 {
	return l.Port
}

func (l *LatchDevice) Size() uint64 {
	return l.Psize
}

func (l *LatchDevice) check(port uint64, data []byte) error {
	if port < l.Port || port+uint64(len(data)) > l.Port+l.Psize {
		return fmt.Errorf("%s: access to %#x+%d outside %#x-%#x", l.Name, port, len(data), l.Port, l.Port+l.Psize-1)
	}

	return nil
}
