// Package cpu implements the processor and assembler for the PLP system.
//
// The CPU consists of a program counter (PC), eight 32-bit signed
// general-purpose registers (x0-x7, with x0 hardwired to zero) and 256 bytes
// of unified, byte-addressed memory shared by code and data. Every
// instruction is a single little-endian 32-bit word: an opcode byte followed
// by three operand bytes.
//
// The assembler is a permissive, line-oriented translator: lines it cannot
// encode are dropped with a diagnostic, and the rest of the program is still
// assembled. It supports equates, labels, character literals and
// compile-time expression evaluation.
package cpu
