package io

import (
	"io"
	"log"
	"unicode/utf8"
)

// Console is the character boundary between an emulated program and its
// front-end. Output is append-only; input is a queue consumed from the front.
type Console struct {
	Verbose bool      // Set to enable verbose logging.
	Output  io.Writer // If set, every appended character is also written here.

	output []rune
	input  []rune
}

var _ Device = (*Console)(nil)

// Rewind clears both the output stream and the input queue.
func (con *Console) Rewind() {
	con.output = nil
	con.input = nil
}

// Write appends a character to the output stream.
func (con *Console) Write(r rune) {
	if !utf8.ValidRune(r) {
		r = utf8.RuneError
	}

	con.output = append(con.output, r)
	if con.Output != nil {
		var buff [utf8.UTFMax]byte
		n := utf8.EncodeRune(buff[:], r)
		_, err := con.Output.Write(buff[:n])
		if err != nil && con.Verbose {
			log.Printf("console: %v", err)
		}
	}
}

// WriteString appends every character of text to the output stream.
func (con *Console) WriteString(text string) {
	for _, r := range text {
		con.Write(r)
	}
}

// String returns the output stream so far.
func (con *Console) String() string {
	return string(con.output)
}

// Push queues text as pending input.
func (con *Console) Push(text string) {
	con.input = append(con.input, []rune(text)...)
}

// Pop removes and returns the front of the input queue.
// Returns ok == false when the queue is empty.
func (con *Console) Pop() (r rune, ok bool) {
	if len(con.input) == 0 {
		return
	}

	r, ok = con.input[0], true
	con.input = con.input[1:]
	return
}

// Pending returns the number of queued input characters.
func (con *Console) Pending() int {
	return len(con.input)
}
