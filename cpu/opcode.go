package cpu

import (
	"encoding/binary"
	"fmt"
)

// CodeOp is the opcode byte of an instruction word.
type CodeOp uint8

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_ADD   = CodeOp(0x01) // ADD
	OP_SUB   = CodeOp(0x02) // SUB
	OP_LW    = CodeOp(0x03) // LW
	OP_SW    = CodeOp(0x04) // SW
	OP_BEQ   = CodeOp(0x05) // BEQ
	OP_BNE   = CodeOp(0x06) // BNE
	OP_LUI   = CodeOp(0x07) // LUI
	OP_JAL   = CodeOp(0x08) // JAL
	OP_JALR  = CodeOp(0x09) // JALR
	OP_ECALL = CodeOp(0x0e) // ECALL
	OP_HALT  = CodeOp(0xff) // HALT
)

// CodeFormat describes how the three operand bytes of a word are used.
type CodeFormat int

const (
	FORMAT_NONE  = CodeFormat(0) // no operands
	FORMAT_REG   = CodeFormat(1) // reg, reg, reg
	FORMAT_IMM8  = CodeFormat(2) // reg, reg, imm8
	FORMAT_IMM16 = CodeFormat(3) // reg, imm16 (low, high)
)

var opFormats = map[CodeOp]CodeFormat{
	OP_ADD:   FORMAT_REG,
	OP_SUB:   FORMAT_REG,
	OP_LW:    FORMAT_IMM8,
	OP_SW:    FORMAT_IMM8,
	OP_BEQ:   FORMAT_IMM8,
	OP_BNE:   FORMAT_IMM8,
	OP_LUI:   FORMAT_IMM16,
	OP_JAL:   FORMAT_IMM16,
	OP_JALR:  FORMAT_IMM8,
	OP_ECALL: FORMAT_NONE,
	OP_HALT:  FORMAT_NONE,
}

// Valid returns true if the opcode is part of the instruction set.
func (op CodeOp) Valid() bool {
	_, ok := opFormats[op]
	return ok
}

// Format returns the operand layout of the opcode.
func (op CodeOp) Format() CodeFormat {
	return opFormats[op]
}

// Code is a single little-endian instruction word.
// Byte 0 is the opcode, bytes 1-3 are the operand fields A, B and C.
type Code uint32

// makeCode packs an opcode and its three operand bytes.
func makeCode(op CodeOp, a, b, c uint8) Code {
	return Code(uint32(op) | uint32(a)<<8 | uint32(b)<<16 | uint32(c)<<24)
}

// MakeCodeReg creates a register-register instruction (ADD, SUB).
func MakeCodeReg(op CodeOp, rd, rs1, rs2 uint8) Code {
	return makeCode(op, rd, rs1, rs2)
}

// MakeCodeImm8 creates an instruction with two register fields and a signed
// 8-bit immediate (LW, SW, BEQ, BNE, JALR).
func MakeCodeImm8(op CodeOp, a, b uint8, imm int8) Code {
	return makeCode(op, a, b, uint8(imm))
}

// MakeCodeImm16 creates an instruction with one register field and a 16-bit
// immediate stored low byte first (LUI, JAL).
func MakeCodeImm16(op CodeOp, rd uint8, imm uint16) Code {
	return makeCode(op, rd, uint8(imm&0xff), uint8(imm>>8))
}

// MakeCodeSys creates an operand-less instruction (ECALL, HALT).
func MakeCodeSys(op CodeOp) Code {
	return makeCode(op, 0, 0, 0)
}

// CodeFromBytes decodes a little-endian word from the first four bytes.
func CodeFromBytes(data []byte) Code {
	return Code(binary.LittleEndian.Uint32(data))
}

// Bytes returns the little-endian encoding of the word.
func (code Code) Bytes() (data [WORD_SIZE]byte) {
	binary.LittleEndian.PutUint32(data[:], uint32(code))
	return
}

// Op returns the opcode byte.
func (code Code) Op() CodeOp {
	return CodeOp(code & 0xff)
}

// Args returns the three operand bytes in word order.
func (code Code) Args() (a, b, c uint8) {
	a = uint8(code >> 8)
	b = uint8(code >> 16)
	c = uint8(code >> 24)
	return
}

// Imm8 returns operand byte C as a sign-extended immediate.
func (code Code) Imm8() int32 {
	return int32(int8(code >> 24))
}

// Imm16 returns operand bytes B (low) and C (high) as an unsigned immediate.
// The assembler only encodes signed 16-bit values; LUI consumes the bits
// unsigned.
func (code Code) Imm16() uint16 {
	return uint16(code >> 16)
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	op := code.Op()
	a, b, _ := code.Args()

	switch op {
	case OP_ADD, OP_SUB:
		_, _, c := code.Args()
		out = fmt.Sprintf("%v x%d, x%d, x%d", op, a, b, c)
	case OP_LW:
		out = fmt.Sprintf("%v x%d, %d(x%d)", op, a, code.Imm8(), b)
	case OP_SW:
		// Base register is stored first, the value register second.
		out = fmt.Sprintf("%v x%d, %d(x%d)", op, b, code.Imm8(), a)
	case OP_BEQ, OP_BNE, OP_JALR:
		out = fmt.Sprintf("%v x%d, x%d, %d", op, a, b, code.Imm8())
	case OP_LUI:
		out = fmt.Sprintf("%v x%d, %#x", op, a, int16(code.Imm16()))
	case OP_JAL:
		out = fmt.Sprintf("%v x%d, %d", op, a, int16(code.Imm16()))
	case OP_ECALL, OP_HALT:
		out = op.String()
	default:
		out = fmt.Sprintf(".word 0x%08x", uint32(code))
	}

	return
}
