package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":    fmt.Sprintf("%d", MEMORY_SIZE),
	"WORD_SIZE":      fmt.Sprintf("%d", WORD_SIZE),
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
}

// SyscallHandler services the ECALL trap.
type SyscallHandler interface {
	// Syscall is invoked with the number taken from x1. By the time it is
	// called the PC already points past the ECALL instruction.
	Syscall(cpu *Cpu, number int32)
}

// Cpu is the simulation context for the PLP processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Pc       uint32                // Current program counter.
	Register [REGISTER_COUNT]int32 // Register bank. Register[0] always reads as zero.
	Memory   Memory                // Unified code and data memory.

	Ticks int // Instructions executed since reset.

	Syscall      SyscallHandler  // ECALL trap handler.
	OnDiagnostic func(err error) // Recovered anomalies. Logged when nil.
}

// NewCpu creates a new CPU with zeroed state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %02X\n", "pc", cpu.Pc)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %04X_%04X (%d)\n", fmt.Sprintf("x%d", n), uint32(val)>>16, uint32(val)&0xffff, val)
	}

	return
}

// Reset the CPU state.
// - Clears the registers and memory.
// - Zeros statistics counters.
// - Sets the PC to 0.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Memory.Reset()
	cpu.Pc = 0
	cpu.Ticks = 0
}

// LoadProgram resets the CPU and copies data into memory at address 0.
// Data beyond the end of memory is silently dropped.
func (cpu *Cpu) LoadProgram(data []byte) {
	cpu.Reset()

	n := copy(cpu.Memory[:], data)
	if cpu.Verbose {
		log.Printf("cpu: loaded %d of %d bytes", n, len(data))
	}
}

// Fetch reads the instruction word at the PC.
// Returns ErrPcRange if the word does not lie entirely within memory.
func (cpu *Cpu) Fetch() (code Code, err error) {
	if !cpu.Memory.InBounds(int64(cpu.Pc), WORD_SIZE) {
		err = ErrPcRange
		return
	}

	code = CodeFromBytes(cpu.Memory[cpu.Pc : cpu.Pc+WORD_SIZE])
	return
}

// Step fetches and executes a single instruction.
// When no instruction can be fetched the CPU state is unchanged and the
// fetch error is returned.
func (cpu *Cpu) Step() (code Code, err error) {
	code, err = cpu.Fetch()
	if err != nil {
		return
	}

	cpu.Execute(code)

	return
}

// Run steps until the PC leaves memory or a HALT has been executed.
// Returns the number of instructions executed.
func (cpu *Cpu) Run() (steps int) {
	for {
		code, err := cpu.Step()
		if err != nil {
			return
		}
		steps++
		if code.Op() == OP_HALT {
			return
		}
	}
}

// reg reads a register. Indices outside the register bank read as zero.
func (cpu *Cpu) reg(index uint8) int32 {
	if int(index) >= len(cpu.Register) {
		return 0
	}
	return cpu.Register[index]
}

// setReg writes a register. Indices outside the register bank are dropped.
func (cpu *Cpu) setReg(index uint8, value int32) {
	if int(index) >= len(cpu.Register) {
		return
	}
	cpu.Register[index] = value
}

// diagnose reports a recovered anomaly.
func (cpu *Cpu) diagnose(err error) {
	if cpu.OnDiagnostic != nil {
		cpu.OnDiagnostic(err)
		return
	}
	log.Printf("cpu: %02x: %v", cpu.Pc, err)
}

// Execute executes a single decoded instruction.
//
// The PC is advanced past the instruction before the instruction takes
// effect, so relative targets are computed from the next instruction.
// Register 0 is forced back to zero afterwards.
func (cpu *Cpu) Execute(code Code) {
	if cpu.Verbose {
		log.Printf("%02x: %v", cpu.Pc, code)
	}

	next_pc := cpu.Pc + WORD_SIZE
	cpu.Pc = next_pc

	a, b, c := code.Args()

	switch code.Op() {
	case OP_ADD:
		cpu.setReg(a, cpu.reg(b)+cpu.reg(c))
	case OP_SUB:
		cpu.setReg(a, cpu.reg(b)-cpu.reg(c))
	case OP_LW:
		addr := int64(cpu.reg(b)) + int64(code.Imm8())
		value, ok := cpu.Memory.Load32(addr)
		if ok {
			cpu.setReg(a, value)
		} else if cpu.Verbose {
			log.Printf("cpu: load from %d out of bounds", addr)
		}
	case OP_SW:
		addr := int64(cpu.reg(a)) + int64(code.Imm8())
		ok := cpu.Memory.Store32(addr, cpu.reg(b))
		if !ok && cpu.Verbose {
			log.Printf("cpu: store to %d out of bounds", addr)
		}
	case OP_BEQ:
		if cpu.reg(a) == cpu.reg(b) {
			cpu.Pc = next_pc + uint32(code.Imm8()*WORD_SIZE)
		}
	case OP_BNE:
		if cpu.reg(a) != cpu.reg(b) {
			cpu.Pc = next_pc + uint32(code.Imm8()*WORD_SIZE)
		}
	case OP_LUI:
		cpu.setReg(a, int32(uint32(code.Imm16())<<16))
	case OP_JAL:
		cpu.setReg(a, int32(next_pc))
		cpu.Pc = next_pc + uint32(int32(int16(code.Imm16()))*WORD_SIZE)
	case OP_JALR:
		// Target is absolute, and read before the link register is written.
		target := uint32(cpu.reg(b) + code.Imm8())
		cpu.setReg(a, int32(next_pc))
		cpu.Pc = target
	case OP_ECALL:
		number := cpu.reg(1) >> 16
		if cpu.Syscall == nil {
			cpu.diagnose(ErrNoSyscall)
		} else {
			cpu.Syscall.Syscall(cpu, number)
		}
	case OP_HALT:
		if cpu.Verbose {
			log.Printf("cpu: halt")
		}
	default:
		cpu.diagnose(ErrOpcode(code))
	}

	cpu.Register[0] = 0
	cpu.Ticks += 1
}
