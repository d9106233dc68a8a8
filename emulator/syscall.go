package emulator

import (
	"log"
	"strconv"
	"unicode/utf8"

	"github.com/adiom/plp/cpu"
	"github.com/adiom/plp/io"
)

const (
	SYS_PUTC  = 1 // Write the low byte of x2 as a character.
	SYS_PUTI  = 2 // Write x2 as signed decimal.
	SYS_EXIT  = 3 // Move the PC past the end of memory.
	SYS_GETC  = 4 // x2 = next input character, or -1.
	SYS_OPEN  = 5 // x2 = fd of the file named by x3 bytes at x2, or -1.
	SYS_READ  = 6 // x2 = bytes read from fd x2, up to x3, into x4, or -1.
	SYS_WRITE = 7 // x2 = bytes written to fd x2, x3 bytes from x4, or -1.
	SYS_CLOSE = 8 // x2 = 0 if fd x2 was closed, or -1.
)

// Register conventions of the syscall interface.
const (
	REG_NUMBER = 1 // Syscall number, in the upper half word.
	REG_RESULT = 2 // First argument, and result.
	REG_LENGTH = 3 // Length argument.
	REG_BUFFER = 4 // Memory address argument.
)

// SyscallDispatcher services ECALL traps against a console and a file store.
// Failures are reported to the program as -1 in x2, never to the host.
type SyscallDispatcher struct {
	Verbose bool // Set to enable verbose logging.

	Console *io.Console
	Files   *io.FileStore
}

var _ cpu.SyscallHandler = (*SyscallDispatcher)(nil)

// Syscall implements cpu.SyscallHandler.
func (sys *SyscallDispatcher) Syscall(cp *cpu.Cpu, number int32) {
	reg := &cp.Register
	arg := reg[REG_RESULT]
	length := int64(reg[REG_LENGTH])
	addr := int64(reg[REG_BUFFER])

	if sys.Verbose {
		log.Printf("syscall: %d (x2=%d, x3=%d, x4=%d)", number, arg, length, addr)
	}

	switch number {
	case SYS_PUTC:
		sys.Console.Write(rune(uint8(arg)))
	case SYS_PUTI:
		sys.Console.WriteString(strconv.FormatInt(int64(arg), 10))
	case SYS_EXIT:
		cp.Pc = cpu.MEMORY_SIZE
	case SYS_GETC:
		r, ok := sys.Console.Pop()
		if ok {
			reg[REG_RESULT] = int32(r)
		} else {
			reg[REG_RESULT] = -1
		}
	case SYS_OPEN:
		reg[REG_RESULT] = -1
		name, ok := cp.Memory.Read(int64(arg), length)
		if ok && utf8.Valid(name) {
			reg[REG_RESULT] = sys.Files.Open(string(name))
		}
	case SYS_READ:
		reg[REG_RESULT] = -1
		if !cp.Memory.InBounds(addr, length) {
			break
		}
		data, err := sys.Files.Read(arg, int(length))
		if err != nil {
			sys.fail(err)
			break
		}
		cp.Memory.Write(addr, data)
		reg[REG_RESULT] = int32(len(data))
	case SYS_WRITE:
		reg[REG_RESULT] = -1
		data, ok := cp.Memory.Read(addr, length)
		if !ok {
			break
		}
		n, err := sys.Files.Write(arg, data)
		if err != nil {
			sys.fail(err)
			break
		}
		reg[REG_RESULT] = int32(n)
	case SYS_CLOSE:
		err := sys.Files.Close(arg)
		if err != nil {
			sys.fail(err)
			reg[REG_RESULT] = -1
		} else {
			reg[REG_RESULT] = 0
		}
	default:
		sys.Console.WriteString(f("unknown syscall %v\n", strconv.Itoa(int(number))))
	}
}

func (sys *SyscallDispatcher) fail(err error) {
	if sys.Verbose {
		log.Printf("syscall: %v", err)
	}
}
