package flag

import (
	"fmt"
	"strconv"
)

// ParseNumber parses s as an unsigned number of the given bit size. Like Go
// literals, it accepts the 0x, 0o and 0b prefixes.
func ParseNumber(s string, bits int) (uint64, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("%q: can't parse as a number: %w", s, strconv.ErrSyntax)
	}

	n, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("can not parse %q as a %d-bit number: %w", s, bits, err)
	}

	return n, nil
}

// ParsePort parses an I/O port number such as 0x80.
func ParsePort(s string) (uint16, error) {
	n, err := ParseNumber(s, 16)

	return uint16(n), err
}

// ParseByte parses a byte value such as 0xCC.
func ParseByte(s string) (uint8, error) {
	n, err := ParseNumber(s, 8)

	return uint8(n), err
}
