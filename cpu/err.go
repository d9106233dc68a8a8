package cpu

import (
	"errors"

	"github.com/adiom/plp/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrPcRange   = errors.New(f("pc outside of memory"))
	ErrNoSyscall = errors.New(f("ecall without syscall handler"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelSyntax        = errors.New(f("label syntax"))
	ErrOperandCount       = errors.New(f("wrong operand count"))
	ErrOperandMissing     = errors.New(f("operand missing"))
	ErrMemoryOperand      = errors.New(f("memory operand must be imm(xN)"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrLabelMissing is reported when a branch target label is never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode is reported when an instruction word has an unknown opcode.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x in word 0x%08x", uint8(Code(eo).Op()), uint32(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrSyntax locates an assembler error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register x0-x7", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a valid character", string(err))
}

// ErrRange is reported when an immediate does not fit its field.
type ErrRange struct {
	Value    int64
	Min, Max int64
}

func (err *ErrRange) Error() string {
	return f("%v out of range [%v, %v]", err.Value, err.Min, err.Max)
}
