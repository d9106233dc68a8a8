package main

import (
	"log"
	"os"
	"unicode/utf8"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// rawTerminal holds the terminal settings in effect before raw mode.
type rawTerminal struct {
	original unix.Termios
}

// enableRawMode turns off line buffering and echo on stdin.
func enableRawMode() (tty *rawTerminal, err error) {
	tty = &rawTerminal{}

	err = termios.Tcgetattr(os.Stdin.Fd(), &tty.original)
	if err != nil {
		tty = nil
		return
	}

	raw := tty.original
	raw.Lflag &^= unix.ICANON | unix.ECHO
	err = termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &raw)
	if err != nil {
		tty = nil
	}

	return
}

// Restore puts the terminal back the way enableRawMode found it.
func (tty *rawTerminal) Restore() {
	err := termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &tty.original)
	if err != nil {
		log.Printf("plp: restore terminal: %v", err)
	}
}

// pollKeyboard feeds every byte read from stdin to keys, until stdin fails.
func pollKeyboard(keys chan<- byte) {
	defer close(keys)

	buf := make([]byte, 16)
	for {
		n, err := os.Stdin.Read(buf)
		for _, b := range buf[:n] {
			keys <- b
		}
		if err != nil {
			return
		}
	}
}

// keyDecoder assembles UTF-8 keystrokes that arrive one byte at a time.
type keyDecoder struct {
	pending []byte
}

// Feed adds a byte, and returns the characters it completes.
// Invalid sequences decode as utf8.RuneError.
func (dec *keyDecoder) Feed(b byte) (text string) {
	dec.pending = append(dec.pending, b)
	for len(dec.pending) > 0 && utf8.FullRune(dec.pending) {
		r, size := utf8.DecodeRune(dec.pending)
		text += string(r)
		dec.pending = dec.pending[size:]
	}

	return
}
