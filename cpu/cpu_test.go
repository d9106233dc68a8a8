package cpu

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trapRecorder records syscall numbers.
type trapRecorder struct {
	numbers []int32
	pcs     []uint32
}

func (tr *trapRecorder) Syscall(cpu *Cpu, number int32) {
	tr.numbers = append(tr.numbers, number)
	tr.pcs = append(tr.pcs, cpu.Pc)
	if number == 3 {
		cpu.Pc = MEMORY_SIZE
	}
}

func newTestCpu(t *testing.T, program ...string) (cpu *Cpu, diags *[]error) {
	diags = &[]error{}
	cpu = NewCpu()
	cpu.OnDiagnostic = func(err error) { *diags = append(*diags, err) }

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)
	require.Empty(t, prog.Diagnostics)

	cpu.LoadProgram(prog.Binary())

	return
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[3] = 7
	cpu.Memory[10] = 1
	cpu.Pc = 12
	cpu.Ticks = 5

	cpu.Reset()

	assert.Equal([REGISTER_COUNT]int32{}, cpu.Register)
	assert.Equal(Memory{}, cpu.Memory)
	assert.Equal(uint32(0), cpu.Pc)
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_LoadProgram(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[2] = 9

	data := make([]byte, MEMORY_SIZE+10)
	for n := range data {
		data[n] = byte(n)
	}
	cpu.LoadProgram(data)

	assert.Equal(int32(0), cpu.Register[2])
	assert.Equal(byte(0), cpu.Memory[0])
	assert.Equal(byte(255), cpu.Memory[255])
}

func TestCpu_Fetch(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Pc = 252
	_, err := cpu.Fetch()
	assert.NoError(err)

	cpu.Pc = 253
	_, err = cpu.Fetch()
	assert.ErrorIs(err, ErrPcRange)

	cpu.Pc = 0xfffffffc
	_, err = cpu.Step()
	assert.ErrorIs(err, ErrPcRange)
	assert.Equal(uint32(0xfffffffc), cpu.Pc)
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"ADD x3, x1, x2",
		"SUB x4, x1, x2",
		"SUB x5, x6, x1",
		"HALT",
	)
	cpu.Register[1] = math.MaxInt32
	cpu.Register[2] = 1
	cpu.Register[6] = math.MinInt32

	steps := cpu.Run()
	assert.Equal(4, steps)

	assert.Equal(int32(math.MinInt32), cpu.Register[3])
	assert.Equal(int32(math.MaxInt32-1), cpu.Register[4])
	assert.Equal(int32(1), cpu.Register[5])
}

func TestCpu_RegisterZero(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"LUI x0, 0x1234",
		"ADD x0, x1, x1",
		"JAL x0, 0",
		"LW x0, 0(x0)",
		"HALT",
	)
	cpu.Register[1] = 5

	for {
		code, err := cpu.Step()
		if err != nil {
			break
		}
		assert.Equal(int32(0), cpu.Register[0], code.String())
		if code.Op() == OP_HALT {
			break
		}
	}
	assert.Equal(5, cpu.Ticks)
}

func TestCpu_LoadStore(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"LW x1, 4(x2)",
		"SW x1, 4(x2)",
		"HALT",
	)
	// The program overlaps memory[4..8]: the SW writes back what was read.
	before := cpu.Memory

	cpu.Run()

	assert.Equal(before, cpu.Memory)
	assert.Equal(int32(CodeFromBytes(before[4:8])), cpu.Register[1])
}

func TestCpu_LoadStoreData(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"LUI x2, 0",
		"ADD x2, x2, x5",
		"LW x1, -4(x2)",
		"SW x1, 0(x2)",
		"LW x3, 127(x5)",
		"SW x1, 125(x5)",
		"HALT",
	)
	cpu.Register[5] = 200
	cpu.Register[3] = 42
	cpu.Memory.Store32(196, -12345)

	cpu.Run()

	assert.Equal(int32(-12345), cpu.Register[1])
	value, _ := cpu.Memory.Load32(200)
	assert.Equal(int32(-12345), value)

	// 200+127 and 200+125 are out of bounds: no-ops.
	assert.Equal(int32(42), cpu.Register[3])
	assert.Equal(byte(0), cpu.Memory[255])
}

func TestCpu_Branch(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"BEQ x0, x0, 0x02", // 0: taken -> 12
		"HALT",             // 4
		"HALT",             // 8
		"BNE x1, x2, -1",   // 12: not taken
		"BNE x1, x0, -3",   // 16: taken -> 8
	)
	cpu.Register[1] = 7
	cpu.Register[2] = 7

	_, err := cpu.Step()
	assert.NoError(err)
	assert.Equal(uint32(0+4+2*4), cpu.Pc)

	cpu.Step()
	assert.Equal(uint32(16), cpu.Pc)

	cpu.Step()
	assert.Equal(uint32(8), cpu.Pc)
}

func TestCpu_Lui(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"LUI x1, 0x0001",
		"LUI x2, -32768",
		"LUI x3, -1",
	)

	cpu.Run()

	assert.Equal(int32(0x10000), cpu.Register[1])
	assert.Equal(int32(math.MinInt32), cpu.Register[2])
	assert.Equal(int32(-65536), cpu.Register[3])
}

func TestCpu_Jal(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"ADD x0, x0, x0", // 0
		"JAL x1, 2",      // 4: -> 8+8 = 16
		"HALT",           // 8
		"HALT",           // 12
		"JAL x2, -4",     // 16: -> 20-16 = 4
	)

	cpu.Step()
	cpu.Step()
	assert.Equal(int32(8), cpu.Register[1])
	assert.Equal(uint32(16), cpu.Pc)

	cpu.Step()
	assert.Equal(int32(20), cpu.Register[2])
	assert.Equal(uint32(4), cpu.Pc)
}

func TestCpu_Jalr(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		"JALR x1, x1, 4", // 0: -> x1 + 4, absolute
		"HALT",           // 4
		"HALT",           // 8
		"HALT",           // 12
		"JALR x3, x0, -4",
	)
	cpu.Register[1] = 12

	cpu.Step()
	assert.Equal(uint32(16), cpu.Pc)
	assert.Equal(int32(4), cpu.Register[1])

	cpu.Step()
	assert.Equal(int32(20), cpu.Register[3])
	assert.Equal(uint32(0xfffffffc), cpu.Pc)

	_, err := cpu.Step()
	assert.ErrorIs(err, ErrPcRange)
}

func TestCpu_Ecall(t *testing.T) {
	assert := assert.New(t)

	cpu, diags := newTestCpu(t,
		"ECALL",
		"LUI x1, 2",
		"ECALL",
		"LUI x1, -0x8000",
		"ECALL",
		"LUI x1, 3",
		"ECALL",
		"HALT",
	)

	// No handler: diagnostic only.
	cpu.Step()
	if assert.Len(*diags, 1) {
		assert.ErrorIs((*diags)[0], ErrNoSyscall)
	}

	tr := &trapRecorder{}
	cpu.Syscall = tr
	steps := cpu.Run()

	assert.Equal(6, steps)
	assert.Equal([]int32{2, -32768, 3}, tr.numbers)
	assert.Equal([]uint32{12, 20, 28}, tr.pcs)
	assert.Equal(uint32(MEMORY_SIZE), cpu.Pc)
}

func TestCpu_Halt(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.LoadProgram([]byte{0xff, 0, 0, 0, 0xff, 0, 0, 0})

	steps := cpu.Run()
	assert.Equal(1, steps)
	assert.Equal(uint32(4), cpu.Pc)
}

func TestCpu_RunOffEnd(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.LoadProgram(nil)

	// All zero memory decodes as opcode 0: unknown, but execution continues.
	var diags []error
	cpu.OnDiagnostic = func(err error) { diags = append(diags, err) }

	steps := cpu.Run()
	assert.Equal(MEMORY_SIZE/WORD_SIZE, steps)
	assert.Equal(uint32(MEMORY_SIZE), cpu.Pc)
	assert.Len(diags, MEMORY_SIZE/WORD_SIZE)
	assert.ErrorIs(diags[0], ErrOpcode(0))
}

func TestCpu_BadRegisterIndex(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	code := MakeCodeReg(OP_ADD, 9, 1, 200)
	data := code.Bytes()
	cpu.LoadProgram(data[:])
	cpu.Register[1] = 3

	cpu.Step()
	assert.Equal([REGISTER_COUNT]int32{0, 3}, cpu.Register)
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Register[2] = -1

	text := cpu.String()
	assert.Contains(text, "   pc: 00\n")
	assert.Contains(text, "   x2: FFFF_FFFF (-1)\n")
}
