package memory

import (
	"errors"

	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	// Module errors
	ErrModuleSize      = errors.New(f("module size not allowed"))
	ErrModuleAlign     = errors.New(f("module not aligned to its size"))
	ErrModuleRange     = errors.New(f("module past end of memory"))
	ErrModuleCollision = errors.New(f("module collides"))
	ErrModuleMissing   = errors.New(f("no module at address"))

	// Access errors
	ErrUnmapped = errors.New(f("unmapped address"))
	ErrRange    = errors.New(f("address out of range"))
	ErrBusy     = errors.New(f("memory access already in progress"))

	// Backup errors
	ErrImage = errors.New(f("memory image invalid"))
)

// ErrAddress reports the address of a memory error.
type ErrAddress struct {
	Address int
	Err     error
}

func (err *ErrAddress) Error() string {
	return f("address 0x%04x: %v", err.Address, err.Err)
}

func (err *ErrAddress) Unwrap() error {
	return err.Err
}
