package isa

import (
	"errors"
	"fmt"

	"github.com/ezrec/micro16/signal"
)

// Nop is the implicit opcode 0. It is not part of any table.
var Nop = &Instruction{
	Opcode:   0,
	Pattern:  "00000-----------",
	Mnemonic: "NOP",
	Steps:    []signal.Row{signal.MustParseRow("fin")},
	mask:     0xf800,
}

// Table is an instruction set.
type Table struct {
	Instructions []*Instruction // Instructions, in table order.
	byOpcode     map[uint8]*Instruction
}

// NewTable compiles the instruction descriptors.
func NewTable(insts []Instruction) (table *Table, err error) {
	table = &Table{
		byOpcode: map[uint8]*Instruction{},
	}

	for n := range insts {
		inst := insts[n]
		err = inst.compile()
		if err != nil {
			table = nil
			return
		}
		table.Instructions = append(table.Instructions, &inst)
		if _, ok := table.byOpcode[inst.Opcode]; !ok {
			table.byOpcode[inst.Opcode] = &inst
		}
	}

	return
}

// MustTable is NewTable for static tables.
func MustTable(insts []Instruction) *Table {
	table, err := NewTable(insts)
	if err != nil {
		panic(err)
	}
	return table
}

// ByOpcode returns the first instruction declared with the opcode.
func (table *Table) ByOpcode(opcode uint8) (inst *Instruction, ok bool) {
	if opcode == 0 {
		return Nop, true
	}
	inst, ok = table.byOpcode[opcode]
	return
}

// Lookup finds the single instruction matching w.
func (table *Table) Lookup(w uint16) (inst *Instruction, err error) {
	if Opcode(w) == 0 {
		inst = Nop
		return
	}

	for _, candidate := range table.Instructions {
		if !candidate.Matches(w) {
			continue
		}
		if inst != nil {
			err = &ErrDecode{Word: w, Err: ErrDuplicateOpcode}
			inst = nil
			return
		}
		inst = candidate
	}

	if inst == nil {
		err = &ErrDecode{Word: w, Err: ErrNoInstruction}
	}

	return
}

// Decode renders w as a mnemonic.
func (table *Table) Decode(w uint16) (text string, err error) {
	inst, err := table.Lookup(w)
	if err != nil {
		return
	}

	text = inst.Render(w)
	return
}

// Resolve looks up w, and for a conditional branch whose condition is
// false under flags returns its not-taken pseudo-instruction instead.
func (table *Table) Resolve(w uint16, flags Flags) (inst *Instruction, err error) {
	inst, err = table.Lookup(w)
	if err != nil || inst.NotTaken == 0 {
		return
	}

	c, _ := inst.Field(w, 'c')
	if Cond(c).Eval(flags) {
		return
	}

	other, ok := table.byOpcode[inst.NotTaken]
	if !ok {
		err = &ErrDecode{Word: w, Err: ErrNoInstruction}
		inst = nil
		return
	}

	inst = other
	return
}

// Encode packs operands for the instruction with the opcode.
func (table *Table) Encode(opcode uint8, args ...int) (w uint16, err error) {
	inst, ok := table.ByOpcode(opcode)
	if !ok {
		err = fmt.Errorf("opcode %d: %w", opcode, ErrNoInstruction)
		return
	}
	return inst.Encode(args...)
}

// Check looks for pairs of instructions whose patterns overlap.
func (table *Table) Check() (err error) {
	var errs []error
	for n, a := range table.Instructions {
		for _, b := range table.Instructions[n+1:] {
			common := a.mask & b.mask
			if a.match&common == b.match&common {
				errs = append(errs, &ErrTable{Pattern: b.Pattern, Err: ErrDuplicateOpcode})
			}
		}
	}
	return errors.Join(errs...)
}
