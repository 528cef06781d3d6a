// Package isa defines the instruction set: the bit pattern of every
// opcode, its mnemonic template, how its operand fields bind to the
// register roles of its micro-code, and the micro-steps themselves.
package isa

import (
	"fmt"
	"strings"

	"github.com/ezrec/micro16/signal"
	"github.com/ezrec/micro16/word"
)

// Shape is the register binding shape of an instruction.
type Shape int

const (
	SHAPE_NONE = Shape(iota) // No register operands.
	SHAPE_R1                 // Every role binds to op1.
	SHAPE_R2                 // Roles bind to op1, op2.
	SHAPE_R3                 // Roles bind to op1, op2, op3.
)

const (
	OPCODE_BITS  = 5
	OPCODE_SHIFT = word.BITS - OPCODE_BITS
	PATTERN_LEN  = word.BITS
)

// Opcode returns the top 5 bits of an instruction word.
func Opcode(w uint16) uint8 {
	return uint8(w >> OPCODE_SHIFT)
}

// Operands returns the generic register operand fields of a word:
// op1 (bits 10..8), op2 (bits 7..5) and op3 (bits 4..2).
func Operands(w uint16) (ops [3]uint8) {
	ops[0] = uint8(w>>8) & 7
	ops[1] = uint8(w>>5) & 7
	ops[2] = uint8(w>>2) & 7
	return
}

// field is one lettered operand of a pattern.
type field struct {
	name  byte
	shift uint
	width uint
}

func (fd field) mask() uint16 {
	return uint16((1 << fd.width) - 1)
}

// Instruction is an instruction descriptor.
type Instruction struct {
	Opcode   uint8
	Pattern  string        // 16 chars: 0/1 fixed, letters are fields, '-' don't care.
	Mnemonic string        // Template, see Render.
	Shape    Shape         // Register binding shape.
	Roles    []signal.Role // Roles bound, in operand order.
	Steps    []signal.Row  // Micro-steps, the last one holds fin.
	NotTaken uint8         // Opcode run instead when the branch condition is false.

	mask   uint16
	match  uint16
	fields []field
}

// compile parses the pattern and checks the template.
func (inst *Instruction) compile() (err error) {
	defer func() {
		if err != nil {
			err = &ErrTable{Pattern: inst.Pattern, Err: err}
		}
	}()

	if len(inst.Pattern) != PATTERN_LEN {
		return ErrPatternLength
	}

	inst.mask = 0
	inst.match = 0
	inst.fields = nil

	index := map[byte]int{}
	for n := range PATTERN_LEN {
		c := inst.Pattern[n]
		bit := uint(PATTERN_LEN - 1 - n)
		switch {
		case c == '0':
			inst.mask |= 1 << bit
		case c == '1':
			inst.mask |= 1 << bit
			inst.match |= 1 << bit
		case c == '-':
		case c >= 'a' && c <= 'z':
			i, ok := index[c]
			if !ok {
				index[c] = len(inst.fields)
				inst.fields = append(inst.fields, field{name: c, shift: bit, width: 1})
				continue
			}
			fd := &inst.fields[i]
			if fd.shift != bit+1 {
				return ErrPatternField
			}
			fd.shift = bit
			fd.width++
		default:
			return ErrPatternChar
		}
	}

	if inst.mask>>OPCODE_SHIFT != (1<<OPCODE_BITS)-1 || Opcode(inst.match) != inst.Opcode {
		return ErrPatternOpcode
	}

	for _, name := range templateNames(inst.Mnemonic) {
		if name == "cond" {
			name = "c"
		}
		if len(name) != 1 || inst.field(name[0]) == nil {
			return ErrTemplate
		}
	}

	return
}

func (inst *Instruction) field(name byte) *field {
	for n := range inst.fields {
		if inst.fields[n].name == name {
			return &inst.fields[n]
		}
	}
	return nil
}

// Matches returns true if w fits the fixed bits of the pattern.
func (inst *Instruction) Matches(w uint16) bool {
	return w&inst.mask == inst.match
}

// Field extracts the named operand field from w.
func (inst *Instruction) Field(w uint16, name byte) (value uint16, ok bool) {
	fd := inst.field(name)
	if fd == nil {
		return
	}
	return (w >> fd.shift) & fd.mask(), true
}

// Fields returns the operand field names, in order of first appearance.
func (inst *Instruction) Fields() string {
	var names []byte
	for _, fd := range inst.fields {
		names = append(names, fd.name)
	}
	return string(names)
}

// FieldWidth returns the width in bits of the named field, or zero.
func (inst *Instruction) FieldWidth(name byte) uint {
	fd := inst.field(name)
	if fd == nil {
		return 0
	}
	return fd.width
}

// Encode packs operands into a word, in order of field first appearance.
// Operands are masked to their field width; negative values wrap.
func (inst *Instruction) Encode(args ...int) (w uint16, err error) {
	if len(args) != len(inst.fields) {
		err = fmt.Errorf("%v: %w", inst.Mnemonic, ErrArgs)
		return
	}

	w = inst.match
	for n, fd := range inst.fields {
		w |= (uint16(args[n]) & fd.mask()) << fd.shift
	}

	return
}

// Render substitutes the operand fields of w into the mnemonic template.
//
// `{x}` is decimal, `{x:x}` hex, `{x:s}` signed decimal of the field width,
// and `{cond}` the condition mnemonic of field c.
func (inst *Instruction) Render(w uint16) string {
	var out strings.Builder

	text := inst.Mnemonic
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(text[open:], '}')
		if end < 0 {
			break
		}
		out.WriteString(text[:open])
		out.WriteString(inst.renderField(w, text[open+1:open+end]))
		text = text[open+end+1:]
	}
	out.WriteString(text)

	return out.String()
}

func (inst *Instruction) renderField(w uint16, placeholder string) string {
	name, format, _ := strings.Cut(placeholder, ":")
	if name == "cond" {
		c, _ := inst.Field(w, 'c')
		return Cond(c).String()
	}

	fd := inst.field(name[0])
	if fd == nil {
		return "{" + placeholder + "}"
	}
	value := (w >> fd.shift) & fd.mask()

	switch format {
	case "x":
		return fmt.Sprintf("0x%02X", value)
	case "s":
		return fmt.Sprintf("%d", word.SignedField(value, fd.width))
	}
	return fmt.Sprintf("%d", value)
}

// Binding returns the register lookup for the placeholders of this
// instruction, using the operand fields of w.
func (inst *Instruction) Binding(w uint16) func(role signal.Role) uint8 {
	ops := Operands(w)
	regs := map[signal.Role]uint8{}

	for n, role := range inst.Roles {
		switch inst.Shape {
		case SHAPE_R1:
			regs[role] = ops[0]
		case SHAPE_R2, SHAPE_R3:
			if n < len(ops) {
				regs[role] = ops[n]
			}
		}
	}

	return func(role signal.Role) uint8 {
		return regs[role]
	}
}

// templateNames lists the field names used by a mnemonic template.
func templateNames(template string) (names []string) {
	for {
		open := strings.IndexByte(template, '{')
		if open < 0 {
			return
		}
		end := strings.IndexByte(template[open:], '}')
		if end < 0 {
			return
		}
		name, _, _ := strings.Cut(template[open+1:open+end], ":")
		names = append(names, name)
		template = template[open+end+1:]
	}
}
