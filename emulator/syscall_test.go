package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adiom/plp/cpu"
	"github.com/adiom/plp/io"
)

func newDispatcher() (sys *SyscallDispatcher, cp *cpu.Cpu) {
	sys = &SyscallDispatcher{
		Console: &io.Console{},
		Files:   io.NewFileStore(io.DefaultSeed()),
	}
	cp = cpu.NewCpu()
	cp.Syscall = sys
	return
}

func doSyscall(cp *cpu.Cpu, number int32, args ...int32) int32 {
	for n, arg := range args {
		cp.Register[REG_RESULT+n] = arg
	}
	cp.Syscall.Syscall(cp, number)
	return cp.Register[REG_RESULT]
}

func TestSyscall_Console(t *testing.T) {
	assert := assert.New(t)

	sys, cp := newDispatcher()

	doSyscall(cp, SYS_PUTC, 'A')
	doSyscall(cp, SYS_PUTC, 0x100+'b')
	doSyscall(cp, SYS_PUTI, -42)
	doSyscall(cp, SYS_PUTI, 1234567)
	assert.Equal("Ab-421234567", sys.Console.String())

	sys.Console.Push("z")
	assert.Equal(int32('z'), doSyscall(cp, SYS_GETC))
	assert.Equal(int32(-1), doSyscall(cp, SYS_GETC))
}

func TestSyscall_Exit(t *testing.T) {
	assert := assert.New(t)

	_, cp := newDispatcher()

	doSyscall(cp, SYS_EXIT)
	assert.Equal(uint32(cpu.MEMORY_SIZE), cp.Pc)

	_, err := cp.Fetch()
	assert.ErrorIs(err, cpu.ErrPcRange)
}

func TestSyscall_Unknown(t *testing.T) {
	assert := assert.New(t)

	sys, cp := newDispatcher()
	cp.Register[REG_RESULT] = 77

	doSyscall(cp, 9)
	doSyscall(cp, -1)

	assert.Equal(int32(77), cp.Register[REG_RESULT])
	assert.Equal("unknown syscall 9\nunknown syscall -1\n", sys.Console.String())
}

func TestSyscall_Open(t *testing.T) {
	assert := assert.New(t)

	sys, cp := newDispatcher()
	copy(cp.Memory[0:], "test.txt\x00")

	fd := doSyscall(cp, SYS_OPEN, 0, 8)
	assert.GreaterOrEqual(fd, int32(1))

	assert.Equal(int32(5), doSyscall(cp, SYS_READ, fd, 5, 100))
	assert.Equal([]byte("Hello"), cp.Memory[100:105])

	desc, ok := sys.Files.Descriptor(fd)
	assert.True(ok)
	assert.Equal(io.Descriptor{Name: "test.txt", Pos: 5}, desc)

	// Descriptors are never reused.
	assert.Equal(fd+1, doSyscall(cp, SYS_OPEN, 0, 8))

	// Out of bounds name.
	assert.Equal(int32(-1), doSyscall(cp, SYS_OPEN, 250, 8))
	assert.Equal(int32(-1), doSyscall(cp, SYS_OPEN, -1, 2))
	assert.Equal(int32(-1), doSyscall(cp, SYS_OPEN, 0, -1))

	// Invalid UTF-8 name.
	cp.Memory[200] = 0xff
	assert.Equal(int32(-1), doSyscall(cp, SYS_OPEN, 200, 1))

	// A new name creates an empty file.
	copy(cp.Memory[16:], "new")
	fd = doSyscall(cp, SYS_OPEN, 16, 3)
	assert.Equal(int32(3), fd)
	data, ok := sys.Files.Contents("new")
	assert.True(ok)
	assert.Empty(data)
}

func TestSyscall_Read(t *testing.T) {
	assert := assert.New(t)

	sys, cp := newDispatcher()
	fd := sys.Files.Open(io.DEFAULT_SEED_NAME)

	// Destination out of bounds: no transfer, cursor unchanged.
	assert.Equal(int32(-1), doSyscall(cp, SYS_READ, fd, 5, 254))
	assert.Equal(int32(-1), doSyscall(cp, SYS_READ, fd, -1, 0))
	desc, _ := sys.Files.Descriptor(fd)
	assert.Equal(0, desc.Pos)

	// Short read at end of file.
	assert.Equal(int32(13), doSyscall(cp, SYS_READ, fd, 64, 0))
	assert.Equal([]byte("Hello, File!\n"), cp.Memory[0:13])
	assert.Equal(int32(0), doSyscall(cp, SYS_READ, fd, 64, 0))

	// Unknown descriptor.
	assert.Equal(int32(-1), doSyscall(cp, SYS_READ, 99, 1, 0))
}

func TestSyscall_Write(t *testing.T) {
	assert := assert.New(t)

	sys, cp := newDispatcher()
	fd := sys.Files.Open(io.DEFAULT_SEED_NAME)

	copy(cp.Memory[32:], "Jello")
	assert.Equal(int32(1), doSyscall(cp, SYS_WRITE, fd, 1, 32))
	assert.Equal(int32(5), doSyscall(cp, SYS_READ, fd, 5, 64))
	assert.Equal([]byte("ello,"), cp.Memory[64:69])

	// Writing past the end extends the file.
	assert.Equal(int32(5), doSyscall(cp, SYS_READ, fd, 5, 64))
	assert.Equal(int32(5), doSyscall(cp, SYS_WRITE, fd, 5, 32))
	data, _ := sys.Files.Contents(io.DEFAULT_SEED_NAME)
	assert.Equal([]byte("Jello, FileJello"), data)

	// Source out of bounds.
	assert.Equal(int32(-1), doSyscall(cp, SYS_WRITE, fd, 8, 252))
	assert.Equal(int32(-1), doSyscall(cp, SYS_WRITE, fd, -4, 0))

	// Unknown descriptor.
	assert.Equal(int32(-1), doSyscall(cp, SYS_WRITE, 0, 1, 32))

	data, _ = sys.Files.Contents(io.DEFAULT_SEED_NAME)
	assert.Equal([]byte("Jello, FileJello"), data)
}

func TestSyscall_Close(t *testing.T) {
	assert := assert.New(t)

	sys, cp := newDispatcher()
	fd := sys.Files.Open(io.DEFAULT_SEED_NAME)

	assert.Equal(int32(0), doSyscall(cp, SYS_CLOSE, fd))
	assert.Equal(int32(-1), doSyscall(cp, SYS_CLOSE, fd))
	assert.Equal(int32(-1), doSyscall(cp, SYS_CLOSE, 12))
	assert.Equal(int32(-1), doSyscall(cp, SYS_READ, fd, 1, 0))
}

func TestSyscall_Ecall(t *testing.T) {
	assert := assert.New(t)

	sys, cp := newDispatcher()

	// ECALL takes the number from the upper half of x1.
	cp.Register[1] = SYS_PUTI<<16 | 0xffff
	cp.Register[2] = 7
	cp.Execute(cpu.MakeCodeSys(cpu.OP_ECALL))

	assert.Equal("7", sys.Console.String())
	assert.Equal(uint32(cpu.WORD_SIZE), cp.Pc)
}
