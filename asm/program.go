package asm

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/ezrec/micro16/isa"
	"github.com/ezrec/micro16/word"
)

// LinkKind is how a label is patched into an assembled word.
type LinkKind int

const (
	LINK_WORD     = LinkKind(iota) // The whole word is the label address.
	LINK_FIELD                     // An absolute operand field.
	LINK_RELATIVE                  // A displacement from the following word.
	LINK_LOW                       // The low byte of the address, into a field.
	LINK_HIGH                      // The high byte of the address, into a field.
)

// Link is a label reference waiting for the label to be defined.
type Link struct {
	Index int      // Code the label is patched into.
	Label string   // Label name.
	Kind  LinkKind // How it is patched.
	Field byte     // Operand field, for everything but LINK_WORD.

	inst *isa.Instruction
}

// Opcode is the assembled output of one source line.
type Opcode struct {
	LineNo  int      // Source line number.
	Address int      // Address of the first code.
	Words   []string // Source words after equate substitution.
	Codes   []uint16 // Assembled words.
	Links   []Link   // Label references, resolved by the end of Parse.
}

// Program is an assembled program.
type Program struct {
	Start   int      // Address of the first instruction to run.
	Stack   uint16   // Initial stack pointer.
	Opcodes []Opcode // Opcodes in source order.
}

// Debug locates the opcode holding an address.
type Debug struct {
	*Opcode
	Index int
}

// Debug returns the opcode holding the address, if any.
func (prog *Program) Debug(address int) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if address >= op.Address && address < op.Address+len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  address - op.Address,
			}
			break
		}
	}

	return
}

// LineNo returns the source line of the word at the address, or zero.
func (prog *Program) LineNo(address int) int {
	dbg := prog.Debug(address)
	if dbg.Opcode == nil {
		return 0
	}
	return dbg.LineNo
}

// Codes iterates over every assembled word and its address.
func (prog *Program) Codes() iter.Seq2[int, uint16] {
	return func(yield func(address int, code uint16) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Address+n, code) {
					return
				}
			}
		}
	}
}

// Bounds returns the lowest and highest address assembled.
func (prog *Program) Bounds() (first, last int, ok bool) {
	for address := range prog.Codes() {
		if !ok || address < first {
			first = address
		}
		if !ok || address > last {
			last = address
		}
		ok = true
	}
	return
}

// Binary returns the memory image from the lowest to the highest address
// assembled. Gaps between .org blocks are zero.
func (prog *Program) Binary() (origin int, words []uint16) {
	first, last, ok := prog.Bounds()
	if !ok {
		return
	}

	origin = first
	words = make([]uint16, last-first+1)
	for address, code := range prog.Codes() {
		words[address-first] = code
	}

	return
}

// Tokens returns the program load format: the load address, the first
// instruction address, the initial stack pointer, then the words.
func (prog *Program) Tokens() (tokens []string) {
	origin, words := prog.Binary()

	tokens = append(tokens,
		word.FormatHex(uint16(origin)),
		word.FormatHex(uint16(prog.Start)),
		word.FormatHex(prog.Stack),
	)
	for _, w := range words {
		tokens = append(tokens, word.FormatHex(w))
	}

	return
}

// Listing renders the program with addresses, words and disassembly.
func (prog *Program) Listing(table *isa.Table) string {
	if table == nil {
		table = isa.Default
	}

	opcodes := slices.Clone(prog.Opcodes)
	slices.SortStableFunc(opcodes, func(a, b Opcode) int { return a.Address - b.Address })

	var out strings.Builder
	for _, op := range opcodes {
		for n, code := range op.Codes {
			text, err := table.Decode(code)
			if err != nil {
				text = "?"
			}
			source := ""
			if n == 0 {
				source = strings.Join(op.Words, " ")
			}
			fmt.Fprintf(&out, "%04X: %04X  %-20s ; %4d: %v\n", op.Address+n, code, text, op.LineNo, source)
		}
	}

	return out.String()
}
