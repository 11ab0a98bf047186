//go:build !(linux && (amd64 || 386))

package ioport

import "unsafe"

// Hardware fails on this platform; only simulated backends work here.
type Hardware struct{}

func (Hardware) Grant(address uint16) error {
	return ErrUnsupported
}

func (Hardware) Revoke(address uint16) error {
	return ErrUnsupported
}

func (Hardware) Out(address uint16, value uint8) {
	panic(ErrUnsupported)
}

// OutEntry returns nil; there is no port write routine on this platform.
func OutEntry() unsafe.Pointer {
	return nil
}
