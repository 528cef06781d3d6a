package signal

import (
	"errors"

	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	// Validation errors
	ErrBadSignal           = errors.New(f("unknown signal"))
	ErrSignalPresent       = errors.New(f("signal already present"))
	ErrIntaDuringRead      = errors.New(f("inta during memory read"))
	ErrMultipleDownload    = errors.New(f("internal bus driven twice"))
	ErrMultipleUploadGroup = errors.New(f("unit loaded twice from internal bus"))
	ErrReadOngoing         = errors.New(f("memory read ongoing"))
	ErrWriteOngoing        = errors.New(f("memory write ongoing"))
	ErrBadSr               = errors.New(f("conflicting status register signals"))
	ErrSameGroup           = errors.New(f("conflicting signals in group"))
)

// ErrValidation reports the signal that broke a hardware conflict rule.
type ErrValidation struct {
	Signal string
	Err    error
}

func (err *ErrValidation) Error() string {
	return f("signal '%v': %v", err.Signal, err.Err)
}

func (err *ErrValidation) Unwrap() error {
	return err.Err
}
