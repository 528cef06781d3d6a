package cpu

import (
	"errors"

	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrUnbound   = errors.New(f("signal role not bound"))
	ErrSignalOp  = errors.New(f("signal op unknown"))
	ErrRegister  = errors.New(f("register unknown"))
	ErrNotManual = errors.New(f("not in manual mode"))
	ErrMode      = errors.New(f("mode unknown"))
	ErrSnapshot  = errors.New(f("snapshot invalid"))

	// Load errors
	ErrLoadShort   = errors.New(f("program needs start, pc, sp and at least one word"))
	ErrLoadAddress = errors.New(f("address not in a memory module"))
	ErrLoadPc      = errors.New(f("pc outside the loaded words"))
)

// ErrLoad reports the token that a program or memory load refused.
type ErrLoad struct {
	Token int // Index of the offending token, or -1 for the whole load.
	Err   error
}

func (err *ErrLoad) Error() string {
	if err.Token < 0 {
		return f("load: %v", err.Err)
	}
	return f("load token %d: %v", err.Token, err.Err)
}

func (err *ErrLoad) Unwrap() error {
	return err.Err
}

// ErrStep reports the micro-step that failed.
type ErrStep struct {
	Pointer int
	Step    int
	Signal  string
	Err     error
}

func (err *ErrStep) Error() string {
	if err.Signal == "" {
		return f("micro-address %d step %d: %v", err.Pointer, err.Step, err.Err)
	}
	return f("micro-address %d step %d '%v': %v", err.Pointer, err.Step, err.Signal, err.Err)
}

func (err *ErrStep) Unwrap() error {
	return err.Err
}
