package emulator

import (
	"errors"

	"github.com/adiom/plp/translate"
)

var f = translate.From

var (
	// Emulator errors
	ErrStepLimit = errors.New(f("step limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int    // Source line, or 0 if the PC has no listing entry.
	Pc     uint32 // PC of the instruction that raised the error.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc %02x: %v", err.Pc, err.Err)
	}
	return f("line %d (pc %02x): %v", err.LineNo, err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
