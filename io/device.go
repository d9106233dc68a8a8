// Package io provides the host-side devices of the PLP emulator.
// It includes the console (an append-only output stream and a consumable
// input queue) and the file store reached through the file syscalls.
package io

// Device is implemented by every device owned by an emulator session.
type Device interface {
	// Rewind resets the device to its initial state.
	Rewind()
}
