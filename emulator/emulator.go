package emulator

import (
	"errors"
	"fmt"
	goio "io"
	"iter"
	"log"

	"github.com/adiom/plp/cpu"
	"github.com/adiom/plp/internal"
	"github.com/adiom/plp/io"
)

var _emulator_defines = map[string]string{
	"SYS_PUTC":  fmt.Sprintf("%v", SYS_PUTC),
	"SYS_PUTI":  fmt.Sprintf("%v", SYS_PUTI),
	"SYS_EXIT":  fmt.Sprintf("%v", SYS_EXIT),
	"SYS_GETC":  fmt.Sprintf("%v", SYS_GETC),
	"SYS_OPEN":  fmt.Sprintf("%v", SYS_OPEN),
	"SYS_READ":  fmt.Sprintf("%v", SYS_READ),
	"SYS_WRITE": fmt.Sprintf("%v", SYS_WRITE),
	"SYS_CLOSE": fmt.Sprintf("%v", SYS_CLOSE),
}

// Emulator state. CPU + console + file store.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Console io.Console   // Console output stream and input queue.
	Files   io.FileStore // File store reached through the file syscalls.

	Diagnostics []error // Runtime anomalies since the last reset.

	dispatcher SyscallDispatcher
}

// State is a snapshot of the observable machine state.
type State struct {
	Pc       uint32
	Register [cpu.REGISTER_COUNT]int32
	Memory   cpu.Memory
	Ticks    int
	Output   string
}

// NewEmulator creates a new emulator, with the default file seed.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Files.Seed = io.DefaultSeed()
	emu.Files.Rewind()

	emu.dispatcher.Console = &emu.Console
	emu.dispatcher.Files = &emu.Files
	emu.Cpu.Syscall = &emu.dispatcher
	emu.Cpu.OnDiagnostic = emu.diagnose

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(internal.SortedSeq2(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Assemble parses program text, with all emulator defines predefined, and
// makes the result the current program. The emulator is reset.
func (emu *Emulator) Assemble(input goio.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Load(prog)

	return
}

// Load makes prog the current program, and resets the emulator.
func (emu *Emulator) Load(prog *cpu.Program) {
	emu.Program = prog
	emu.Reset()
}

// Reset the emulator state.
// - Clears the CPU and reloads the current program.
// - Rewinds the console and the file store.
func (emu *Emulator) Reset() {
	emu.sync()

	emu.Cpu.LoadProgram(emu.Program.Binary())
	emu.Console.Rewind()
	emu.Files.Rewind()
	emu.Diagnostics = nil
}

// LoadProgram resets the emulator with a raw memory image, which has no
// listing.
func (emu *Emulator) LoadProgram(data []byte) {
	emu.Program = &cpu.Program{}
	emu.Reset()
	emu.Cpu.LoadProgram(data)
}

// sync propagates the verbosity to the owned components.
func (emu *Emulator) sync() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Console.Verbose = emu.Verbose
	emu.Files.Verbose = emu.Verbose
	emu.dispatcher.Verbose = emu.Verbose
}

// diagnose records a runtime anomaly at the current instruction.
func (emu *Emulator) diagnose(err error) {
	// The PC has already moved past the instruction that raised err.
	pc := emu.Cpu.Pc - cpu.WORD_SIZE
	rerr := &ErrRuntime{Pc: pc, Err: err}
	if op := emu.Program.Debug(pc); op != nil {
		rerr.LineNo = op.LineNo
	}

	if emu.Verbose {
		log.Printf("emulator: %v", rerr)
	}
	emu.Diagnostics = append(emu.Diagnostics, rerr)
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Code returns the instruction word at the PC.
func (emu *Emulator) Code() (code cpu.Code) {
	code, _ = emu.Cpu.Fetch()
	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	op := emu.Program.Debug(emu.Cpu.Pc)
	if op == nil {
		return 0
	}

	return op.LineNo
}

// Step executes a single instruction.
// Returns done once no instruction can be fetched, or a HALT was executed.
func (emu *Emulator) Step() (done bool) {
	emu.sync()

	code, err := emu.Cpu.Step()
	if errors.Is(err, cpu.ErrPcRange) {
		done = true
		return
	}

	done = code.Op() == cpu.OP_HALT
	return
}

// Run steps until done, and returns the number of instructions executed.
// There is no bound on the number of steps.
func (emu *Emulator) Run() (steps int) {
	start := emu.Cpu.Ticks
	for done := false; !done; {
		done = emu.Step()
	}

	steps = emu.Cpu.Ticks - start
	return
}

// RunLimit steps until done or limit instructions have been executed.
// Reaching the limit returns an ErrRuntime wrapping ErrStepLimit.
func (emu *Emulator) RunLimit(limit int) (steps int, err error) {
	start := emu.Cpu.Ticks
	for emu.Cpu.Ticks-start < limit {
		if emu.Step() {
			steps = emu.Cpu.Ticks - start
			return
		}
	}

	steps = emu.Cpu.Ticks - start

	// Executing the final allowed instruction may have finished the run.
	if _, ferr := emu.Cpu.Fetch(); ferr != nil {
		return
	}

	err = &ErrRuntime{LineNo: emu.LineNo(), Pc: emu.Cpu.Pc, Err: ErrStepLimit}
	return
}

// State returns a snapshot of the machine.
func (emu *Emulator) State() State {
	return State{
		Pc:       emu.Cpu.Pc,
		Register: emu.Cpu.Register,
		Memory:   emu.Cpu.Memory,
		Ticks:    emu.Cpu.Ticks,
		Output:   emu.Console.String(),
	}
}
