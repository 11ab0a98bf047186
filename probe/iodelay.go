package probe

import (
	"fmt"
	"io"

	"github.com/bobuhiro11/postclock/iodelay"
	"github.com/bobuhiro11/postclock/ioport"
)

// Ports are the ports the kernel may use for io_delay.
var Ports = []uint16{0x80, 0xed}

// IODelay prints the kernel's io_delay type read from path and which of
// Ports it leaves to userspace.
func IODelay(w io.Writer, path string) error {
	t, err := iodelay.Read(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "io_delay_type: %d (%s)\n", uint8(t), t)

	for _, port := range Ports {
		state := "free"
		if t.Reserves(port) {
			state = "reserved by the kernel"
		}

		fmt.Fprintf(w, "* port %#x: %s\n", port, state)
	}

	return nil
}

// Permission tries to acquire port on b and releases it right away, without
// writing. It prints and returns the outcome.
func Permission(w io.Writer, b ioport.Backend, port uint16) error {
	g, err := ioport.AcquireWith(b, port)
	if err != nil {
		fmt.Fprintf(w, "* ioperm %#x: denied (%v)\n", port, err)

		return err
	}

	if err := g.Release(); err != nil {
		return err
	}

	fmt.Fprintf(w, "* ioperm %#x: granted\n", port)

	return nil
}
