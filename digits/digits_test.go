package digits_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bobuhiro11/postclock/digits"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   uint8
		want uint8
	}{
		{0, 0x00},
		{6, 0x06},
		{12, 0x12},
		{59, 0x59},
		{99, 0x99},
	} {
		if got := digits.Encode(tt.in); got != tt.want {
			t.Errorf("Encode(%d) = %#02x, want %#02x", tt.in, got, tt.want)
		}
	}
}

func TestEncodeNibbles(t *testing.T) {
	t.Parallel()

	for v := uint8(0); v <= digits.Max; v++ {
		b := digits.Encode(v)
		hi, lo := b>>4, b&0xf

		if hi != v/10 || lo != v%10 {
			t.Errorf("Encode(%d) = %#02x: nibbles %d,%d", v, b, hi, lo)
		}

		if hi > 9 || lo > 9 {
			t.Errorf("Encode(%d) = %#02x: nibble out of 0-9", v, b)
		}
	}
}

func TestEncodeLooksDecimal(t *testing.T) {
	t.Parallel()

	for v := uint8(0); v <= digits.Max; v++ {
		hex := fmt.Sprintf("%02x", digits.Encode(v))
		dec := fmt.Sprintf("%02d", v)

		if hex != dec {
			t.Errorf("Encode(%d) prints as %s", v, hex)
		}

		got, err := digits.Decode(digits.Encode(v))
		if err != nil {
			t.Fatal(err)
		}

		if got != v {
			t.Errorf("Decode(Encode(%d)) = %d", v, got)
		}
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	t.Parallel()

	for _, v := range []uint8{100, 160, 255} {
		func() {
			defer func() {
				var rerr *digits.RangeError

				r := recover()

				err, ok := r.(error)
				if !ok || !errors.As(err, &rerr) {
					t.Fatalf("Encode(%d) recovered %v, want *RangeError", v, r)
				}

				if rerr.Value != v {
					t.Errorf("RangeError.Value = %d, want %d", rerr.Value, v)
				}
			}()

			digits.Encode(v)
		}()
	}
}

func TestDecodeRejectsHexLetters(t *testing.T) {
	t.Parallel()

	for _, b := range []uint8{digits.Separator, 0x0a, 0xa0, 0xff} {
		if _, err := digits.Decode(b); !errors.Is(err, digits.ErrNotDecimal) {
			t.Errorf("Decode(%#02x) error = %v, want ErrNotDecimal", b, err)
		}
	}
}
