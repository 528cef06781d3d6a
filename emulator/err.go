package emulator

import (
	"github.com/ezrec/micro16/translate"
	"github.com/ezrec/micro16/word"
)

// ErrRuntime locates a failed clock pulse in the program: the source line
// and address of the instruction that was executing.
type ErrRuntime struct {
	LineNo int    // Source line, or 0 for programs loaded without a listing.
	Pc     uint16 // Address of the instruction.
	Err    error

	tr *translate.Translator
}

func (err *ErrRuntime) Error() string {
	tr := err.tr
	if tr == nil {
		tr = translate.Host()
	}
	if err.LineNo == 0 {
		return tr.Sprintf("pc %v: %v", word.FormatHex(err.Pc), err.Err)
	}
	return tr.Sprintf("line %d (pc %v): %v", err.LineNo, word.FormatHex(err.Pc), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
