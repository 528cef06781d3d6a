package asm

import (
	"strings"

	"github.com/ezrec/micro16/isa"
)

// OperandKind is the syntax class of an operand.
type OperandKind int

const (
	OPERAND_REGISTER = OperandKind(iota) // R{x}
	OPERAND_INDIRECT                     // [R{x}]
	OPERAND_VALUE                        // {x} or {x:x}
	OPERAND_RELATIVE                     // {x:s}, a branch target
)

type operand struct {
	kind  OperandKind
	field byte
}

// form is the assembler view of one instruction template.
type form struct {
	inst     *isa.Instruction
	mnemonic string // Upper case mnemonic, or the part before {cond}.
	cond     bool   // The mnemonic ends with a condition.
	operands []operand
}

// splitWords splits at whitespace and commas.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// newForm derives the syntax of an instruction from its mnemonic template.
func newForm(inst *isa.Instruction) (fm form, ok bool) {
	words := splitWords(inst.Mnemonic)
	if len(words) == 0 {
		return
	}

	fm.inst = inst
	fm.mnemonic = strings.ToUpper(words[0])
	if before, found := strings.CutSuffix(words[0], "{cond}"); found {
		fm.mnemonic = strings.ToUpper(before)
		fm.cond = true
	}

	for _, text := range words[1:] {
		var op operand
		inner := text
		switch {
		case strings.HasPrefix(text, "[R{") && strings.HasSuffix(text, "}]"):
			op.kind = OPERAND_INDIRECT
			inner = text[2 : len(text)-1]
		case strings.HasPrefix(text, "R{"):
			op.kind = OPERAND_REGISTER
			inner = text[1:]
		case strings.HasSuffix(text, ":s}"):
			op.kind = OPERAND_RELATIVE
		default:
			op.kind = OPERAND_VALUE
		}
		if len(inner) < 3 || inner[0] != '{' {
			return
		}
		op.field = inner[1]
		fm.operands = append(fm.operands, op)
	}

	ok = true
	return
}

// forms returns the forms of a table, with NOP first. Not-taken branch
// variants share their taken form's syntax and are left out.
func forms(table *isa.Table) (fms []form) {
	notTaken := map[uint8]bool{}
	for _, inst := range table.Instructions {
		if inst.NotTaken != 0 {
			notTaken[inst.NotTaken] = true
		}
	}

	if fm, ok := newForm(isa.Nop); ok {
		fms = append(fms, fm)
	}

	for _, inst := range table.Instructions {
		if notTaken[inst.Opcode] {
			continue
		}
		fm, ok := newForm(inst)
		if ok {
			fms = append(fms, fm)
		}
	}

	return
}

// matchMnemonic returns the condition named by the mnemonic, if the form
// takes one.
func (fm *form) matchMnemonic(mnemonic string) (cond isa.Cond, ok bool) {
	if !fm.cond {
		ok = mnemonic == fm.mnemonic
		return
	}

	suffix, found := strings.CutPrefix(mnemonic, fm.mnemonic)
	if !found {
		return
	}
	return isa.ParseCond(suffix)
}
