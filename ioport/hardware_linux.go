//go:build linux && (amd64 || 386)

package ioport

import (
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Hardware is the Backend for the real machine: ioperm(2) and the OUT
// instruction.
type Hardware struct{}

func (Hardware) Grant(address uint16) error {
	return unix.Ioperm(int(address), 1, 1)
}

func (Hardware) Revoke(address uint16) error {
	return unix.Ioperm(int(address), 1, 0)
}

// Out is the only place in this module that touches hardware directly.
//
// The calling thread must hold the permission for address; otherwise the
// CPU faults and the process receives SIGSEGV.
func (Hardware) Out(address uint16, value uint8) {
	outb(address, value)
}

// outb executes OUT DX, AL. It is written in assembly so the compiler can
// neither inline nor reorder it, and it touches no memory, flags or registers
// besides DX and AL.
func outb(port uint16, value uint8)

// OutEntry returns the address of the machine code Hardware.Out runs, so it
// can be disassembled and checked.
func OutEntry() unsafe.Pointer {
	return reflect.ValueOf(outb).UnsafePointer()
}
