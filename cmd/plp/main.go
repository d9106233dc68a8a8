package main

import (
	"flag"
	goio "io"
	"log"
	"os"

	"github.com/adiom/plp/cpu"
	"github.com/adiom/plp/emulator"
	"github.com/adiom/plp/io"
	"github.com/adiom/plp/translate"
)

func main() {
	var compile string
	var save string
	var binary string
	var hexText string
	var input string
	var output string
	var dir string
	var steps int
	var tty bool
	var verbose bool
	var lang string

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&save, "s", "", "Save the assembled binary to this file, do not execute")
	flag.StringVar(&binary, "l", "", "Binary memory image to load")
	flag.StringVar(&hexText, "x", "", "Hex text memory image to load")
	flag.StringVar(&input, "i", "", "Console input file ('-' for stdin)")
	flag.StringVar(&output, "o", "-", "Console output")
	flag.StringVar(&dir, "d", "", "Directory to seed the file store from")
	flag.IntVar(&steps, "n", 0, "Maximum instructions to execute (0 for no limit)")
	flag.BoolVar(&tty, "t", false, "Feed raw terminal keystrokes to the console input")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&lang, "lang", "", "Language for messages")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(lang) != 0 {
		translate.SetLocale(lang)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	if len(dir) != 0 {
		seed, err := io.ReadSeed(os.DirFS(dir))
		if err != nil {
			log.Fatalf("%v: %v", dir, err)
		}
		emu.Files.Seed = seed
	}

	// Assemble a new program, or load a memory image.
	var image []byte
	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		for _, diag := range emu.Program.Diagnostics {
			log.Printf("%v: %v", compile, diag)
		}
		if verbose {
			log.Printf("%v: listing\n%v", compile, emu.Program)
		}
		image = emu.Program.Binary()
	case len(binary) != 0:
		data, err := os.ReadFile(binary)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		image = data
	case len(hexText) != 0:
		text, err := os.ReadFile(hexText)
		if err != nil {
			log.Fatalf("%v: %v", hexText, err)
		}
		image, err = cpu.ParseHex(string(text))
		if err != nil {
			log.Fatalf("%v: %v", hexText, err)
		}
	default:
		log.Fatalf("%v: one of -c, -l or -x is required", os.Args[0])
	}

	if len(compile) == 0 {
		emu.LoadProgram(image)
	}

	if len(save) != 0 {
		err := os.WriteFile(save, image, 0644)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	switch input {
	case "":
	case "-":
		if !tty {
			data, err := goio.ReadAll(os.Stdin)
			if err != nil {
				log.Fatalf("stdin: %v", err)
			}
			emu.Console.Push(string(data))
		}
	default:
		data, err := os.ReadFile(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		emu.Console.Push(string(data))
	}

	if output == "-" {
		emu.Console.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Console.Output = ouf
	}

	var keys chan byte
	var raw *rawTerminal
	if tty {
		var err error
		raw, err = enableRawMode()
		if err != nil {
			log.Fatalf("%v: raw mode: %v", os.Args[0], err)
		}

		keys = make(chan byte, 64)
		go pollKeyboard(keys)
	}

	err := run(emu, steps, keys)
	if raw != nil {
		raw.Restore()
	}

	for _, diag := range emu.Diagnostics {
		log.Printf("%v", diag)
	}
	if err != nil {
		if verbose {
			log.Printf("%v", emu.Cpu)
		}
		log.Fatalf("%v", err)
	}
}

// run executes the emulator, queueing any pending keystrokes as console
// input before each step. A limit of 0 runs until the program finishes.
func run(emu *emulator.Emulator, limit int, keys <-chan byte) (err error) {
	switch {
	case keys == nil && limit == 0:
		emu.Run()
		return
	case keys == nil:
		_, err = emu.RunLimit(limit)
		return
	}

	var dec keyDecoder
	for n := 0; limit == 0 || n < limit; n++ {
		drainKeys(emu, keys, &dec)
		if emu.Step() {
			return
		}
	}

	// The last allowed step may have finished the program.
	if _, ferr := emu.Cpu.Fetch(); ferr != nil {
		return
	}

	err = &emulator.ErrRuntime{LineNo: emu.LineNo(), Pc: emu.Cpu.Pc, Err: emulator.ErrStepLimit}
	return
}

// drainKeys moves the keystrokes waiting in keys to the console input.
func drainKeys(emu *emulator.Emulator, keys <-chan byte, dec *keyDecoder) {
	for {
		select {
		case key, ok := <-keys:
			if !ok {
				return
			}
			emu.Console.Push(dec.Feed(key))
		default:
			return
		}
	}
}
