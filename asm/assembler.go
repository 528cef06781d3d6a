// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/micro16/isa"
	"github.com/ezrec/micro16/memory"
)

// ORIGIN is the default load address, just past the vector table.
const ORIGIN = 0x0100

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
	"ORIGIN": fmt.Sprintf("%#x", ORIGIN),
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reIdentifier = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for the micro16 instruction set.
type Assembler struct {
	Verbose bool       // If set, verbosely logs the assembler actions.
	Table   *isa.Table // Instruction set; nil selects isa.Default.
	Opcode  []Opcode   // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	forms      []form
	expansions int    // Macro expansions so far, for @ local labels.
	ip         int    // Address of the next word.
	start      string // .start operand, if any.
	stack      string // .stack operand, if any.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// registerOf returns the register number of a word such as r3 or SP.
func registerOf(word string) (reg int, ok bool) {
	word = strings.ToLower(word)
	if word == "sp" {
		return 7, true
	}
	if len(word) == 2 && word[0] == 'r' && word[1] >= '0' && word[1] <= '7' {
		return int(word[1] - '0'), true
	}
	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = &ErrParse{Text: word, Want: PARSE_NUMBER}
		return
	}

	value = int(v64)
	if invert {
		value = int(^uint16(value))
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	err = nil
	for key, address := range asm.Label {
		if _, ok := pred[key]; !ok && reIdentifier.MatchString(key) && !strings.Contains(key, ".") {
			pred[key] = starlark.MakeInt(address)
		}
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = &ErrParse{Text: expr, Want: PARSE_EXPRESSION}
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = &ErrParse{Text: expr, Want: PARSE_EXPRESSION}
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = &ErrParse{Text: expr, Want: PARSE_EXPRESSION}
		return
	}
	value = int(st_int64)
	return
}

// expand replaces character literals and $(...) expressions with numbers.
func (asm *Assembler) expand(line string) (out string, err error) {
	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})

	out = line
	return
}

// parseLine parses a single line into words, handling labels, equates
// and macro expansion.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line, err = asm.expand(line)
	if err != nil {
		return
	}

	words = splitWords(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.ip
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil && lineno > 0 {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.Table == nil {
		asm.Table = isa.Default
	}
	asm.forms = forms(asm.Table)
	asm.ip = ORIGIN
	asm.start = ""
	asm.stack = ""
	asm.expansions = 0

	asm.Label = make(map[string]int, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			logrus.WithField("line", lineno).Debug(text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	line = ""
	lineno = 0

	prog, err = asm.link()
	return
}

// link patches the label references, then checks the program layout.
func (asm *Assembler) link() (prog *Program, err error) {
	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		for _, link := range op.Links {
			err = asm.patch(op, link)
			if err != nil {
				err = &ErrSyntax{LineNo: op.LineNo, Line: strings.Join(op.Words, " "), Err: err}
				return
			}
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	// Overlapping .org blocks.
	seen := map[int]int{}
	for _, op := range prog.Opcodes {
		for n := range op.Codes {
			if prior, ok := seen[op.Address+n]; ok {
				err = &ErrSyntax{LineNo: op.LineNo, Line: strings.Join(op.Words, " "),
					Err: fmt.Errorf("%w: line %d", ErrOverlap, prior)}
				prog = nil
				return
			}
			seen[op.Address+n] = op.LineNo
		}
	}

	start := ORIGIN
	if len(asm.Opcode) > 0 {
		start = asm.Opcode[0].Address
	}
	prog.Start, err = asm.address(asm.start, start)
	if err != nil {
		prog = nil
		return
	}

	stack, err := asm.address(asm.stack, 0)
	if err != nil {
		prog = nil
		return
	}
	prog.Stack = uint16(stack)

	return
}

// address resolves a .start or .stack operand.
func (asm *Assembler) address(word string, fallback int) (address int, err error) {
	if word == "" {
		address = fallback
		return
	}

	if target, ok := asm.Label[word]; ok {
		address = target
		return
	}

	address, err = asm.valueOf(word)
	if err != nil {
		if reIdentifier.MatchString(word) {
			err = ErrLabelMissing(word)
		}
		return
	}

	if address < 0 || address >= memory.SIZE {
		err = fmt.Errorf("%w: %v", ErrAddressRange, word)
	}
	return
}

// patch resolves one label reference.
func (asm *Assembler) patch(op *Opcode, link Link) (err error) {
	target, ok := asm.Label[link.Label]
	if !ok {
		err = ErrLabelMissing(link.Label)
		return
	}

	code := &op.Codes[link.Index]

	var value int
	switch link.Kind {
	case LINK_WORD:
		*code = uint16(target)
		return
	case LINK_RELATIVE:
		value = target - (op.Address + link.Index + 1)
		if !fitsSigned(value, link.inst.FieldWidth(link.Field)) {
			err = fmt.Errorf("%w: %v is %d words away", ErrTargetRange, link.Label, value)
			return
		}
	case LINK_LOW:
		value = target & 0xff
	case LINK_HIGH:
		value = (target >> 8) & 0xff
	default:
		value = target
		if !fits(value, link.inst.FieldWidth(link.Field)) {
			err = fmt.Errorf("%w: %v", ErrValueRange, link.Label)
			return
		}
	}

	bits, err := asm.encodeField(link.inst, link.Field, value)
	if err != nil {
		return
	}
	*code |= bits

	return
}

// fits returns true if value is representable in width bits, signed or not.
func fits(value int, width uint) bool {
	return value >= -(1<<(width-1)) && value < (1<<width)
}

// fitsSigned returns true if value is representable in width signed bits.
func fitsSigned(value int, width uint) bool {
	return value >= -(1<<(width-1)) && value < (1<<(width-1))
}

// encodeField returns the instruction word with only one field set.
func (asm *Assembler) encodeField(inst *isa.Instruction, name byte, value int) (w uint16, err error) {
	args := make([]int, len(inst.Fields()))
	for n, field := range []byte(inst.Fields()) {
		if field == name {
			args[n] = value
		}
	}
	return inst.Encode(args...)
}

// emit appends an opcode at the current address.
func (asm *Assembler) emit(op Opcode) (err error) {
	if asm.ip+len(op.Codes) > memory.SIZE {
		err = ErrAddressRange
		return
	}

	op.Address = asm.ip
	asm.Opcode = append(asm.Opcode, op)
	asm.ip += len(op.Codes)
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	op := Opcode{LineNo: lineno, Words: slices.Clone(words)}

	switch words[0] {
	case ".org":
		if len(words) != 2 {
			err = ErrDirectiveSyntax
			return
		}
		var address int
		address, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if address < 0 || address >= memory.SIZE {
			err = ErrAddressRange
			return
		}
		asm.ip = address
		return
	case ".start":
		if len(words) != 2 {
			err = ErrDirectiveSyntax
			return
		}
		asm.start = words[1]
		return
	case ".stack":
		if len(words) != 2 {
			err = ErrDirectiveSyntax
			return
		}
		asm.stack = words[1]
		return
	case ".word":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value int
			value, err = asm.valueOf(word)
			if err == nil {
				if !fits(value, 16) {
					err = fmt.Errorf("%w: %v", ErrValueRange, word)
					return
				}
				op.Codes = append(op.Codes, uint16(value))
				continue
			}
			if !reIdentifier.MatchString(word) {
				err = &ErrParse{Text: word, Want: PARSE_VALUE}
				return
			}
			err = nil
			op.Links = append(op.Links, Link{Index: len(op.Codes), Label: word, Kind: LINK_WORD})
			op.Codes = append(op.Codes, 0)
		}
		return asm.emit(op)
	}

	if strings.HasPrefix(words[0], ".") {
		err = ErrDirectiveInvalid
		return
	}

	mnemonic := strings.ToUpper(words[0])
	if mnemonic == "LDI" {
		err = asm.loadImmediate(&op, words[1:])
	} else {
		err = asm.instruction(&op, mnemonic, words[1:])
	}
	if err != nil {
		return
	}

	if asm.Verbose {
		logrus.WithFields(logrus.Fields{
			"line":    lineno,
			"address": asm.ip,
			"codes":   op.Codes,
		}).Debug(strings.Join(words, " "))
	}

	return asm.emit(op)
}

// instruction assembles one machine instruction.
func (asm *Assembler) instruction(op *Opcode, mnemonic string, args []string) (err error) {
	known := false
	for n := range asm.forms {
		fm := &asm.forms[n]
		cond, ok := fm.matchMnemonic(mnemonic)
		if !ok {
			continue
		}
		known = true
		if len(fm.operands) != len(args) {
			continue
		}

		var w uint16
		var links []Link
		w, links, ok, err = asm.encode(fm, cond, args)
		if err != nil {
			return
		}
		if !ok {
			continue
		}

		op.Codes = append(op.Codes, w)
		op.Links = append(op.Links, links...)
		return
	}

	if known {
		err = ErrOperandInvalid
	} else {
		err = ErrInstructionInvalid
	}
	return
}

// encode tries to assemble args against one form. ok is false if the
// operand kinds do not match the form.
func (asm *Assembler) encode(fm *form, cond isa.Cond, args []string) (w uint16, links []Link, ok bool, err error) {
	values := map[byte]int{}
	if fm.cond {
		values['c'] = int(cond)
	}

	for n, arg := range args {
		want := fm.operands[n]
		width := fm.inst.FieldWidth(want.field)

		indirect := strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]")
		if indirect {
			arg = arg[1 : len(arg)-1]
		}
		reg, isReg := registerOf(arg)

		switch want.kind {
		case OPERAND_REGISTER:
			if !isReg || indirect {
				return
			}
			values[want.field] = reg
			continue
		case OPERAND_INDIRECT:
			if !isReg || !indirect {
				return
			}
			values[want.field] = reg
			continue
		}

		if isReg || indirect {
			return
		}

		value, verr := asm.valueOf(arg)
		if verr != nil {
			if !reIdentifier.MatchString(arg) {
				err = &ErrParse{Text: arg, Want: PARSE_VALUE}
				return
			}
			kind := LINK_FIELD
			if want.kind == OPERAND_RELATIVE {
				kind = LINK_RELATIVE
			}
			links = append(links, Link{Label: arg, Kind: kind, Field: want.field, inst: fm.inst})
			continue
		}

		// A number for a relative operand is the displacement itself.
		if want.kind == OPERAND_RELATIVE && !fitsSigned(value, width) {
			err = fmt.Errorf("%w: %d", ErrTargetRange, value)
			return
		}
		if !fits(value, width) {
			err = fmt.Errorf("%w: %d", ErrValueRange, value)
			return
		}
		values[want.field] = value
	}

	fields := fm.inst.Fields()
	encoded := make([]int, len(fields))
	for n := range len(fields) {
		encoded[n] = values[fields[n]]
	}

	w, err = fm.inst.Encode(encoded...)
	if err != nil {
		return
	}

	ok = true
	return
}

// loadImmediate assembles LDI Rn, value as MOVL then MOVH.
func (asm *Assembler) loadImmediate(op *Opcode, args []string) (err error) {
	if len(args) != 2 {
		err = ErrOperandInvalid
		return
	}

	reg, ok := registerOf(args[0])
	if !ok {
		err = ErrRegisterInvalid
		return
	}

	movl, okl := asm.Table.ByOpcode(isa.OPCODE_MOVL)
	movh, okh := asm.Table.ByOpcode(isa.OPCODE_MOVH)
	if !okl || !okh {
		err = ErrInstructionInvalid
		return
	}

	value, verr := asm.valueOf(args[1])
	if verr != nil {
		if !reIdentifier.MatchString(args[1]) {
			err = &ErrParse{Text: args[1], Want: PARSE_VALUE}
			return
		}
		op.Links = append(op.Links,
			Link{Index: 0, Label: args[1], Kind: LINK_LOW, Field: 'b', inst: movl},
			Link{Index: 1, Label: args[1], Kind: LINK_HIGH, Field: 'b', inst: movh},
		)
		value = 0
	} else if !fits(value, 16) {
		err = fmt.Errorf("%w: %d", ErrValueRange, value)
		return
	}

	low, err := movl.Encode(reg, value&0xff)
	if err != nil {
		return
	}
	high, err := movh.Encode(reg, (value>>8)&0xff)
	if err != nil {
		return
	}

	op.Codes = append(op.Codes, low, high)
	return
}
