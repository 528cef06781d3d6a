// Package ucode flattens the fetch sequence, the micro-steps of every
// instruction and the interrupt service sequence into one addressable
// micro-program.
package ucode

import (
	"strings"

	"github.com/ezrec/micro16/isa"
	"github.com/ezrec/micro16/signal"
)

// FETCH is the shared fetch sequence, at micro-address 0.
var FETCH = []signal.Row{
	signal.MustParseRow("pc-ib ib-mar read tmpe-clr carry-in add"),
	signal.MustParseRow("tmps-ib ib-pc"),
	signal.MustParseRow("mdr-ib ib-ir"),
}

// INTERRUPT is the interrupt service sequence: push SR, push PC,
// acknowledge, then load PC from the vector table cell.
var INTERRUPT = rows(
	"r7-ib tmpe-set add",
	"tmps-ib ib-r7 ib-mar",
	"sr-ib ib-mdr write",
	"r7-ib tmpe-set add",
	"tmps-ib ib-r7 ib-mar",
	"pc-ib ib-mdr write",
	"",
	"inta",
	"mdr-ib ib-mar read",
	"",
	"mdr-ib ib-pc cli fin",
)

func rows(text ...string) (out []signal.Row) {
	for _, line := range text {
		out = append(out, signal.MustParseRow(line))
	}
	return
}

// Umem is a micro-program.
type Umem struct {
	Rows       []signal.Row
	Entry      map[uint8]int // Opcode to micro-address.
	IntAddress int           // Start of the interrupt sequence.

	table *isa.Table
}

// New builds the micro-program of an instruction table.
func New(table *isa.Table) (umem *Umem) {
	umem = &Umem{
		Entry: map[uint8]int{},
		table: table,
	}

	umem.Rows = append(umem.Rows, FETCH...)

	umem.Entry[isa.OPCODE_NOP] = len(umem.Rows)
	umem.Rows = append(umem.Rows, isa.Nop.Steps...)

	for _, inst := range table.Instructions {
		if _, ok := umem.Entry[inst.Opcode]; ok {
			continue
		}
		umem.Entry[inst.Opcode] = len(umem.Rows)
		umem.Rows = append(umem.Rows, inst.Steps...)
	}

	umem.IntAddress = len(umem.Rows)
	umem.Rows = append(umem.Rows, INTERRUPT...)

	return
}

// Row returns the row at a micro-address. Out of range addresses give an
// empty row.
func (umem *Umem) Row(address int) signal.Row {
	if address < 0 || address >= len(umem.Rows) {
		return nil
	}
	return umem.Rows[address]
}

// Len is the number of rows.
func (umem *Umem) Len() int {
	return len(umem.Rows)
}

// Listing renders the micro-program, one row per line.
func (umem *Umem) Listing() string {
	labels := map[int]string{0: "fetch", umem.IntAddress: "interrupt"}
	for opcode, address := range umem.Entry {
		inst, ok := umem.table.ByOpcode(opcode)
		if ok {
			labels[address] = strings.Fields(inst.Mnemonic)[0]
		}
	}

	var out strings.Builder
	for address, row := range umem.Rows {
		label := labels[address]
		if label != "" {
			out.WriteString(label + ":\n")
		}
		out.WriteString("\t" + row.String() + "\n")
	}
	return out.String()
}
