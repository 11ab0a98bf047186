package device

import "errors"

var errDataLenInvalid = errors.New("invalid data size on port")

// IODevice describes a device attached to a range of I/O ports of the
// simulated machine.
type IODevice interface {
	Read(uint64, []byte) error
	Write(uint64, []byte) error
	IOPort() uint64
	Size() uint64
}
