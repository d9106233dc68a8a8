package cpu

import (
	"encoding/binary"
)

const (
	MEMORY_SIZE    = 256 // Bytes of unified code and data memory.
	WORD_SIZE      = 4   // Bytes per instruction and per LW/SW transfer.
	REGISTER_COUNT = 8   // General-purpose registers, x0 included.
)

// Memory is the byte-addressed store shared by code and data.
//
// Every access is bounds-checked: an access is performed only when
// 0 <= addr and addr+width <= MEMORY_SIZE. Accesses that fail the check are
// silently dropped and reported with ok == false.
type Memory [MEMORY_SIZE]byte

// InBounds returns true if [addr, addr+width) lies within memory.
func (mem *Memory) InBounds(addr int64, width int64) bool {
	return addr >= 0 && width >= 0 && addr+width <= MEMORY_SIZE
}

// Load32 reads a little-endian signed word.
func (mem *Memory) Load32(addr int64) (value int32, ok bool) {
	if !mem.InBounds(addr, WORD_SIZE) {
		return
	}

	value = int32(binary.LittleEndian.Uint32(mem[addr : addr+WORD_SIZE]))
	ok = true
	return
}

// Store32 writes a little-endian signed word.
func (mem *Memory) Store32(addr int64, value int32) (ok bool) {
	if !mem.InBounds(addr, WORD_SIZE) {
		return
	}

	binary.LittleEndian.PutUint32(mem[addr:addr+WORD_SIZE], uint32(value))
	ok = true
	return
}

// Read returns a copy of length bytes starting at addr.
func (mem *Memory) Read(addr int64, length int64) (data []byte, ok bool) {
	if !mem.InBounds(addr, length) {
		return
	}

	data = make([]byte, length)
	copy(data, mem[addr:addr+length])
	ok = true
	return
}

// Write copies data into memory starting at addr.
func (mem *Memory) Write(addr int64, data []byte) (ok bool) {
	if !mem.InBounds(addr, int64(len(data))) {
		return
	}

	copy(mem[addr:], data)
	ok = true
	return
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}
