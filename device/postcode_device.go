package device

import (
	"fmt"
	"sync"

	"github.com/bobuhiro11/postclock/digits"
	"github.com/juju/loggo"
)

// PostCodePort is where the BIOS writes its POST codes.
const PostCodePort = 0x80

var logger = loggo.GetLogger("postclock.device")

// PostCodeDevice simulates a two-digit seven-segment POST-code display: each
// nibble of the last byte written is shown as one hexadecimal digit.
type PostCodeDevice struct {
	mu      sync.Mutex
	port    uint64
	latched bool
	value   uint8
	history []uint8
}

func NewPostCodeDevice(port uint64) *PostCodeDevice {
	return &PostCodeDevice{port: port}
}

// Read returns 0xff; the display has no read path and the bus floats.
func (p *PostCodeDevice) Read(port uint64, data []byte) error {
	for i := range data {
		data[i] = 0xff
	}

	return nil
}

func (p *PostCodeDevice) Write(port uint64, data []byte) error {
	if len(data) != 1 {
		return errDataLenInvalid
	}

	p.mu.Lock()
	p.value = data[0]
	p.latched = true
	p.history = append(p.history, data[0])
	p.mu.Unlock()

	if v, err := digits.Decode(data[0]); err == nil {
		logger.Debugf("display %02X (decimal %d)", data[0], v)
	} else {
		logger.Debugf("display %02X", data[0])
	}

	return nil
}

func (p *PostCodeDevice) IOPort() uint64 {
	return p.port
}

func (p *PostCodeDevice) Size() uint64 {
	return 0x1
}

// Text returns the two digits currently shown, or "--" before the first
// write.
func (p *PostCodeDevice) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.latched {
		return "--"
	}

	return fmt.Sprintf("%02X", p.value)
}

// History returns every byte written so far, oldest first.
func (p *PostCodeDevice) History() []uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]uint8(nil), p.history...)
}
