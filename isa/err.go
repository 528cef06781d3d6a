package isa

import (
	"errors"

	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	// Decode errors
	ErrNoInstruction   = errors.New(f("no such instruction"))
	ErrDuplicateOpcode = errors.New(f("duplicate opcode"))

	// Table errors
	ErrPatternLength = errors.New(f("pattern is not 16 bits"))
	ErrPatternChar   = errors.New(f("pattern character is not 0, 1, - or a field letter"))
	ErrPatternOpcode = errors.New(f("pattern does not start with a 5 bit opcode"))
	ErrPatternField  = errors.New(f("pattern field is not contiguous"))
	ErrTemplate      = errors.New(f("template names an unknown field"))
	ErrArgs          = errors.New(f("wrong number of operands"))
)

// ErrDecode reports the word that could not be decoded.
type ErrDecode struct {
	Word uint16
	Err  error
}

func (err *ErrDecode) Error() string {
	return f("decode 0x%04x: %v", err.Word, err.Err)
}

func (err *ErrDecode) Unwrap() error {
	return err.Err
}

// ErrTable reports a malformed instruction table entry.
type ErrTable struct {
	Pattern string
	Err     error
}

func (err *ErrTable) Error() string {
	return f("instruction '%v': %v", err.Pattern, err.Err)
}

func (err *ErrTable) Unwrap() error {
	return err.Err
}
