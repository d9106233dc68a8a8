package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	COMMENT_MARKER = ";" // Starts a comment that runs to end of line.
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":         "0",
	"MEMORY_SIZE":    fmt.Sprintf("%d", MEMORY_SIZE),
	"WORD_SIZE":      fmt.Sprintf("%d", WORD_SIZE),
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
	charRe  = regexp.MustCompile(`'\\?[^']'`)
	memRe   = regexp.MustCompile(`^([^()]*)\(\s*([^()\s]+)\s*\)$`)
)

// Assembler is a permissive single pass assembler for the PLP system.
//
// Lines that cannot be encoded are dropped and recorded as diagnostics;
// assembly of the remaining lines always continues.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine   map[string]string // Predefines
	Label       map[string]int    // Map of jump labels to opcode indexes.
	Equate      map[string]string // Map of equates.
	Diagnostics []error           // Errors for each dropped line.
}

// Predefine defines a new equate or redefines an existing equate.
// Predefines survive across calls to Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Assemble translates program text into a flat memory image.
// Lines that fail to assemble contribute no bytes.
func Assemble(text string) []byte {
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(text))
	if err != nil {
		log.Printf("asm: %v", err)
		return nil
	}

	return prog.Binary()
}

// valueOf returns the value of a simple word: an equate, a decimal
// number or a 0x prefixed hexadecimal number, with an optional sign.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	text := word
	negative := false
	switch {
	case strings.HasPrefix(text, "-"):
		negative = true
		text = text[1:]
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	}

	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}

	u64, perr := strconv.ParseUint(text, base, 63)
	if perr != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int64(u64)
	if negative {
		value = -value
	}

	return
}

// immediate parses a word and checks it lies in [lo, hi].
func (asm *Assembler) immediate(word string, lo, hi int64) (value int64, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value < lo || value > hi {
		err = &ErrRange{Value: value, Min: lo, Max: hi}
		return
	}

	return
}

// register parses a register name x0-x7.
func (asm *Assembler) register(word string) (reg uint8, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	name := strings.ToLower(word)
	if len(name) != 2 || name[0] != 'x' || name[1] < '0' || name[1] >= '0'+REGISTER_COUNT {
		err = ErrParseRegister(word)
		return
	}

	reg = name[1] - '0'
	return
}

// memoryOperand parses an imm(xN) operand. An empty imm is zero.
func (asm *Assembler) memoryOperand(word string) (base uint8, imm int8, err error) {
	match := memRe.FindStringSubmatch(word)
	if match == nil {
		err = ErrMemoryOperand
		return
	}

	base, err = asm.register(match[2])
	if err != nil {
		return
	}

	offset := strings.TrimSpace(match[1])
	if len(offset) == 0 {
		return
	}

	value, err := asm.immediate(offset, -128, 127)
	if err != nil {
		return
	}

	imm = int8(value)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(key)
		if err != nil {
			// Ignore non-integer equates. They may be registers.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// expandExpressions replaces every balanced $(...) with its decimal value.
func (asm *Assembler) expandExpressions(line string) (out string, err error) {
	for {
		start := strings.Index(line, "$(")
		if start < 0 {
			break
		}

		depth := 0
		end := -1
		for n := start + 1; n < len(line) && end < 0; n++ {
			switch line[n] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = n
				}
			}
		}
		if end < 0 {
			err = ErrParseExpression(line[start+2:])
			return
		}

		var value int64
		value, err = asm.parenEval(line[start+2 : end])
		if err != nil {
			return
		}
		line = line[:start] + strconv.FormatInt(value, 10) + line[end+1:]
	}

	out = line
	return
}

// expandCharacters replaces 'c' character literals with their decimal value.
func expandCharacters(line string) string {
	return charRe.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "e":
				str = "\033"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%d", str[0])
	})
}

// parseLine parses a single line into a mnemonic and its operands,
// recording any labels and equates along the way.
func (asm *Assembler) parseLine(text string, lineno int) (mnemonic string, operands []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%d", lineno)

	line := expandCharacters(text)
	line, _, _ = strings.Cut(line, COMMENT_MARKER)
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	line, err = asm.expandExpressions(line)
	if err != nil {
		return
	}

	// label: [label: ...] [instruction]
	for {
		head, rest, _ := strings.Cut(line, " ")
		head, rest, _ = cutTab(head, rest)
		if !strings.HasSuffix(head, ":") {
			break
		}
		label := head[:len(head)-1]
		if !identRe.MatchString(label) {
			err = ErrLabelSyntax
			return
		}
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = len(asm.Opcode)
		line = strings.TrimSpace(rest)
		if len(line) == 0 {
			return
		}
	}

	mnemonic, rest, _ := strings.Cut(line, " ")
	mnemonic, rest, _ = cutTab(mnemonic, rest)
	mnemonic = strings.ToUpper(mnemonic)
	rest = strings.TrimSpace(rest)

	// .equ NAME VALUE
	if mnemonic == ".EQU" {
		words := strings.Fields(strings.ReplaceAll(rest, ",", " "))
		if len(words) != 2 || !identRe.MatchString(words[0]) {
			err = ErrEquateSyntax
			return
		}
		if _, ok := asm.Equate[words[0]]; ok {
			err = ErrEquateDuplicate
			return
		}
		if _, rerr := asm.register(words[1]); rerr != nil {
			var value int64
			value, err = asm.valueOf(words[1])
			if err != nil {
				return
			}
			words[1] = strconv.FormatInt(value, 10)
		}
		asm.Equate[words[0]] = words[1]
		mnemonic = ""
		return
	}

	if len(rest) > 0 {
		for _, operand := range strings.Split(rest, ",") {
			operand = strings.TrimSpace(operand)
			if len(operand) == 0 {
				err = ErrOperandMissing
				return
			}
			operands = append(operands, operand)
		}
	}

	return
}

// cutTab handles a tab separating the first word from the rest of a line.
func cutTab(head, rest string) (string, string, bool) {
	before, after, found := strings.Cut(head, "\t")
	if !found {
		return head, rest, false
	}
	return before, after + " " + rest, true
}

// Parse parses an input stream into a Program.
//
// Only a failure to read the input is returned as an error; lines that fail
// to assemble are recorded in Program.Diagnostics and contribute no code.
// Lines may be of any length.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	reader := bufio.NewReader(input)

	var lineno int

	asm.Opcode = asm.Opcode[:0]
	asm.Diagnostics = nil
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for done := false; !done; {
		var text string
		text, err = reader.ReadString('\n')
		if err == io.EOF {
			err = nil
			done = true
			if len(text) == 0 {
				break
			}
		} else if err != nil {
			return
		}
		text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		mnemonic, operands, perr := asm.parseLine(text, lineno)
		if perr == nil && len(mnemonic) > 0 {
			perr = asm.parseWords(mnemonic, operands, lineno)
		}
		if perr != nil {
			asm.diagnose(&ErrSyntax{LineNo: lineno, Line: strings.TrimSpace(text), Err: perr})
		}
	}

	asm.link()

	prog = &Program{
		Opcodes:     asm.Opcode,
		Diagnostics: asm.Diagnostics,
	}
	asm.Opcode = nil

	return
}

// diagnose records a dropped line.
func (asm *Assembler) diagnose(err error) {
	if asm.Verbose {
		log.Printf("asm: %v", err)
	}
	asm.Diagnostics = append(asm.Diagnostics, err)
}

// link resolves branch labels. A line whose label cannot be linked is
// dropped, and the labels that follow it are moved up one instruction.
// Every labelled line is then patched again, so the remaining lines encode
// as if the dropped line never existed.
func (asm *Assembler) link() {
	for linked := false; !linked; {
		linked = true
		for n := range asm.Opcode {
			op := &asm.Opcode[n]
			if len(op.LinkLabel) == 0 {
				continue
			}

			var err error
			target, ok := asm.Label[op.LinkLabel]
			if !ok {
				err = ErrLabelMissing(op.LinkLabel)
			} else {
				var code Code
				code, err = linkCode(op.Code, int64(target-(n+1)))
				if err == nil {
					op.Code = code
					continue
				}
			}

			asm.diagnose(&ErrSyntax{LineNo: op.LineNo, Line: strings.Join(op.Words, " "), Err: err})
			asm.Opcode = append(asm.Opcode[:n], asm.Opcode[n+1:]...)
			for label, index := range asm.Label {
				if index > n {
					asm.Label[label] = index - 1
				}
			}
			linked = false
			break
		}
	}

	for n := range asm.Opcode {
		asm.Opcode[n].Pc = n * WORD_SIZE
	}
}

// linkCode patches an instruction-granular branch offset into a code.
func linkCode(code Code, offset int64) (linked Code, err error) {
	a, b, _ := code.Args()

	switch code.Op() {
	case OP_JAL:
		if offset < -32768 || offset > 32767 {
			err = &ErrRange{Value: offset, Min: -32768, Max: 32767}
			return
		}
		linked = MakeCodeImm16(OP_JAL, a, uint16(offset))
	default:
		if offset < -128 || offset > 127 {
			err = &ErrRange{Value: offset, Min: -128, Max: 127}
			return
		}
		linked = MakeCodeImm8(code.Op(), a, b, int8(offset))
	}

	return
}

// mnemonicMap maps mnemonics to opcodes.
var mnemonicMap = func() (mnemonics map[string]CodeOp) {
	mnemonics = make(map[string]CodeOp, len(opFormats))
	for op := range opFormats {
		mnemonics[op.String()] = op
	}
	return
}()

// operandCount is the number of operands each format requires.
var operandCount = map[CodeFormat]int{
	FORMAT_NONE:  0,
	FORMAT_REG:   3,
	FORMAT_IMM8:  3,
	FORMAT_IMM16: 2,
}

// parseWords encodes a mnemonic and its operands as an opcode.
func (asm *Assembler) parseWords(mnemonic string, operands []string, lineno int) (err error) {
	var code Code
	var label string

	op, ok := mnemonicMap[mnemonic]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	need := operandCount[op.Format()]
	if op == OP_LW || op == OP_SW {
		need = 2
	}
	if len(operands) != need {
		err = ErrOperandCount
		return
	}

	// Registers come first in every format.
	regs := make([]uint8, 0, 3)
	for _, word := range operands {
		reg, rerr := asm.register(word)
		if rerr != nil {
			break
		}
		regs = append(regs, reg)
	}

	switch op {
	case OP_ADD, OP_SUB:
		if len(regs) != 3 {
			_, err = asm.register(operands[len(regs)])
			return
		}
		code = MakeCodeReg(op, regs[0], regs[1], regs[2])
	case OP_LW, OP_SW:
		var reg uint8
		reg, err = asm.register(operands[0])
		if err != nil {
			return
		}
		var base uint8
		var imm int8
		base, imm, err = asm.memoryOperand(operands[1])
		if err != nil {
			return
		}
		if op == OP_LW {
			code = MakeCodeImm8(op, reg, base, imm)
		} else {
			code = MakeCodeImm8(op, base, reg, imm)
		}
	case OP_BEQ, OP_BNE, OP_JALR:
		if len(regs) < 2 {
			_, err = asm.register(operands[len(regs)])
			return
		}
		var value int64
		value, err = asm.immediate(operands[2], -128, 127)
		if err != nil && op != OP_JALR && asm.isLabel(operands[2]) {
			err = nil
			label = operands[2]
		}
		if err != nil {
			return
		}
		code = MakeCodeImm8(op, regs[0], regs[1], int8(value))
	case OP_LUI, OP_JAL:
		if len(regs) < 1 {
			_, err = asm.register(operands[0])
			return
		}
		var value int64
		value, err = asm.immediate(operands[1], -32768, 32767)
		if err != nil && op == OP_JAL && asm.isLabel(operands[1]) {
			err = nil
			label = operands[1]
		}
		if err != nil {
			return
		}
		code = MakeCodeImm16(op, regs[0], uint16(value))
	case OP_ECALL, OP_HALT:
		code = MakeCodeSys(op)
	}

	opcode := Opcode{
		LineNo:    lineno,
		Pc:        len(asm.Opcode) * WORD_SIZE,
		Words:     append([]string{mnemonic}, operands...),
		Code:      code,
		LinkLabel: label,
	}
	asm.Opcode = append(asm.Opcode, opcode)

	return
}

// isLabel returns true if the word can name a label.
func (asm *Assembler) isLabel(word string) bool {
	if _, ok := asm.Equate[word]; ok {
		return false
	}
	if _, err := asm.register(word); err == nil {
		return false
	}
	return identRe.MatchString(word)
}
