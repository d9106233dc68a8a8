package cpu

import (
	"encoding/hex"
	"iter"
	"strings"
)

// Opcode represents a line of assembled code with its source location and generated instruction.
type Opcode struct {
	LineNo    int      // Source line number, starting at 1.
	Pc        int      // Byte address of the instruction.
	Words     []string // Mnemonic followed by operands.
	Code      Code     // Encoded instruction.
	LinkLabel string   // Branch target label, if any.
}

// Program is an assembled listing.
type Program struct {
	Opcodes     []Opcode
	Diagnostics []error // Lines dropped by the assembler.
}

// Debug returns the opcode that assembled to the word at pc, or nil.
func (prog *Program) Debug(pc uint32) (op *Opcode) {
	for n := range prog.Opcodes {
		if uint32(prog.Opcodes[n].Pc) == pc {
			op = &prog.Opcodes[n]
			break
		}
	}

	return
}

// Binary returns the flat little-endian memory image of the program.
func (prog *Program) Binary() (bins []byte) {
	bins = make([]byte, 0, len(prog.Opcodes)*WORD_SIZE)
	for _, code := range prog.Codes() {
		data := code.Bytes()
		bins = append(bins, data[:]...)
	}

	return
}

// Codes iterates the program as (pc, code) pairs.
func (prog *Program) Codes() iter.Seq2[uint32, Code] {
	return func(yield func(pc uint32, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(uint32(op.Pc), op.Code) {
				return
			}
		}
	}
}

// String returns a listing of the program, one instruction per line.
func (prog *Program) String() string {
	var sb strings.Builder
	for _, op := range prog.Opcodes {
		data := op.Code.Bytes()
		sb.WriteString(f("%02x: %v  %v\n", op.Pc, hex.EncodeToString(data[:]), op.Code))
	}
	return sb.String()
}

// ParseHex decodes whitespace separated hexadecimal text into a memory image.
// An optional 0x prefix on each group is accepted.
func ParseHex(text string) (data []byte, err error) {
	var digits strings.Builder
	for _, word := range strings.Fields(text) {
		word = strings.TrimPrefix(strings.TrimPrefix(word, "0x"), "0X")
		digits.WriteString(word)
	}

	data, err = hex.DecodeString(digits.String())
	return
}
