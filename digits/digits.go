// Package digits converts between decimal numbers and the bytes a POST-code
// display shows as the same two digits.
//
// A POST-code display decodes each nibble of the byte written to port 0x80 as
// one hexadecimal digit, so a byte whose nibbles are both in 0-9 reads like a
// decimal number.
package digits

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	// Max is the largest value Encode accepts.
	Max = 99

	// Separator renders as "CC" and is written between hours and minutes.
	Separator uint8 = 0xCC
)

// ErrNotDecimal is returned by Decode for bytes with a nibble above 9.
const ErrNotDecimal = errors.ConstError("byte does not look like a decimal number")

// RangeError is the panic value of Encode when its argument has more than two
// decimal digits.
type RangeError struct {
	Value uint8
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("digits: %d has more than two decimal digits", e.Value)
}

// Encode returns the byte that, in hexadecimal, visually matches the decimal
// representation of value: Encode(59) == 0x59.
//
// Encode panics with *RangeError if value > Max.
func Encode(value uint8) uint8 {
	if value > Max {
		panic(&RangeError{Value: value})
	}

	return (value/10)<<4 | value%10
}

// Decode is the inverse of Encode.
func Decode(b uint8) (uint8, error) {
	hi, lo := b>>4, b&0xf
	if hi > 9 || lo > 9 {
		return 0, fmt.Errorf("%w: %#02x", ErrNotDecimal, b)
	}

	return hi*10 + lo, nil
}
