package io

import (
	"errors"

	"github.com/adiom/plp/translate"
)

var f = translate.From

var (
	// File store errors
	ErrBadDescriptor  = errors.New(f("bad file descriptor"))
	ErrNegativeLength = errors.New(f("negative length"))
)

// ErrFile wraps a file store error with the descriptor it was raised for.
type ErrFile struct {
	Fd  int32
	Err error
}

func (err *ErrFile) Error() string {
	return f("fd %d: %v", err.Fd, err.Err)
}

func (err *ErrFile) Unwrap() error {
	return err.Err
}
