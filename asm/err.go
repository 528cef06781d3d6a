package asm

import (
	"errors"

	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	// Directive errors
	ErrEquateSyntax       = errors.New(f(".equ needs a name and a value"))
	ErrEquateDuplicate    = errors.New(f(".equ already defined"))
	ErrDirectiveSyntax    = errors.New(f("directive needs one operand"))
	ErrDirectiveInvalid   = errors.New(f("directive unknown"))
	ErrOpcodeValueMissing = errors.New(f(".word needs at least one value"))

	// Label errors
	ErrLabelDuplicate = errors.New(f("label already defined"))

	// Macro errors
	ErrMacroSyntax     = errors.New(f(".macro arguments do not match"))
	ErrMacroNesting    = errors.New(f(".macro inside a .macro body"))
	ErrMacroDuplicate  = errors.New(f(".macro already defined"))
	ErrMacroLonely     = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm = errors.New(f(".endm without .macro"))

	// Instruction errors
	ErrInstructionInvalid = errors.New(f("instruction unknown"))
	ErrOperandInvalid     = errors.New(f("operands do not fit the instruction"))
	ErrRegisterInvalid    = errors.New(f("register unknown"))
	ErrValueRange         = errors.New(f("value does not fit the field"))
	ErrTargetRange        = errors.New(f("target out of branch range"))

	// Layout errors
	ErrAddressRange = errors.New(f("address past the end of memory"))
	ErrOverlap      = errors.New(f("words overlap"))
)

// ErrLabelMissing names a label that was used but never defined.
type ErrLabelMissing string

func (err ErrLabelMissing) Error() string {
	return f("label %v not defined", string(err))
}

// What a word was expected to be.
const (
	PARSE_NUMBER     = "number"
	PARSE_VALUE      = "value or label"
	PARSE_EXPRESSION = "expression"
)

// ErrParse is a word that could not be evaluated.
type ErrParse struct {
	Text string
	Want string // One of PARSE_*.
}

func (err *ErrParse) Error() string {
	if err.Want == PARSE_EXPRESSION {
		return f("$(%v) is not a valid %v", err.Text, err.Want)
	}
	return f("'%v' is not a %v", err.Text, err.Want)
}

// ErrSyntax locates an assembly error in the source.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d: '%v': %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrMacro locates an error inside a macro expansion.
type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err *ErrMacro) Error() string {
	return f("in .macro %v line %d: %v", err.Macro, err.Line, err.Err)
}

func (err *ErrMacro) Unwrap() error {
	return err.Err
}
