package machine

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/bobuhiro11/postclock/ioport"
	"github.com/juju/errors"
	"golang.org/x/arch/x86/x86asm"
)

const (
	// maxRoutine bounds the instructions decoded from one routine.
	maxRoutine = 64

	// maxInstLen is the longest x86 instruction.
	maxInstLen = 15
)

// ErrNoCode is returned by Disassemble for a nil entry.
const ErrNoCode = errors.ConstError("no machine code")

// outDXAL encodes OUT DX, AL, the one instruction ioport.Hardware executes.
var outDXAL = []byte{0xee}

var asm struct {
	once sync.Once
	text string
}

// Mode is the x86asm decoding mode of the running binary.
func Mode() int {
	if runtime.GOARCH == "386" {
		return 32
	}

	return 64
}

// Disassemble decodes the machine code at entry up to and including the first
// RET. The first direct CALL or JMP is followed instead of recorded, which
// skips the wrapper the Go toolchain puts in front of assembly functions.
func Disassemble(entry unsafe.Pointer, mode int) ([]x86asm.Inst, error) {
	if entry == nil {
		return nil, ErrNoCode
	}

	var (
		insts    []x86asm.Inst
		followed bool
	)

	p := entry

	for i := 0; i < maxRoutine; i++ {
		inst, err := x86asm.Decode(unsafe.Slice((*byte)(p), maxInstLen), mode)
		if err != nil {
			return nil, fmt.Errorf("decoding at %p: %w", p, err)
		}

		next := unsafe.Add(p, inst.Len)

		switch inst.Op {
		case x86asm.RET:
			return append(insts, inst), nil
		case x86asm.CALL, x86asm.JMP:
			if rel, ok := inst.Args[0].(x86asm.Rel); ok && !followed {
				followed = true
				insts = insts[:0]
				p = unsafe.Add(next, int(rel))

				continue
			}
		}

		insts = append(insts, inst)
		p = next
	}

	return nil, fmt.Errorf("no RET within %d instructions", maxRoutine)
}

// Asm returns the instruction behind every port write, in GNU syntax. It is
// read from the compiled port write routine where there is one.
func Asm() string {
	asm.once.Do(func() {
		asm.text = outAsm()
	})

	return asm.text
}

func outAsm() string {
	insts, err := Disassemble(ioport.OutEntry(), Mode())
	if err == nil {
		for _, inst := range insts {
			if inst.Op == x86asm.OUT {
				return x86asm.GNUSyntax(inst, 0, nil)
			}
		}
	}

	logger.Tracef("port write routine not decoded: %v", err)

	inst, err := x86asm.Decode(outDXAL, Mode())
	if err != nil {
		return "(bad)"
	}

	return x86asm.GNUSyntax(inst, 0, nil)
}
