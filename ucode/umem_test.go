package ucode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/micro16/isa"
	"github.com/ezrec/micro16/signal"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)

	umem := New(isa.Default)

	assert.Equal(3, umem.Entry[isa.OPCODE_NOP])
	assert.Equal("fin", umem.Row(3).String())
	assert.Equal("pc-ib ib-mar read tmpe-clr carry-in add", umem.Row(0).String())
	assert.True(umem.Row(2).Has(signal.OP_IB_IR))

	// Entries follow table order, each body contiguous.
	address := 4
	for _, inst := range isa.Default.Instructions {
		assert.Equal(address, umem.Entry[inst.Opcode], inst.Mnemonic)
		for n, row := range inst.Steps {
			assert.Equal(row, umem.Row(address+n), inst.Mnemonic)
		}
		address += len(inst.Steps)
	}

	assert.Equal(address, umem.IntAddress)
	assert.Equal(address+len(INTERRUPT), umem.Len())
	assert.True(umem.Row(umem.IntAddress + 7).Has(signal.OP_INTA))
	assert.True(umem.Row(umem.Len() - 1).Has(signal.OP_FIN))

	assert.Nil(umem.Row(-1))
	assert.Nil(umem.Row(umem.Len()))
}

func TestNew_RowsValidate(t *testing.T) {
	assert := assert.New(t)

	umem := New(isa.Default)
	for address, row := range umem.Rows {
		bound := row.Bind(func(signal.Role) uint8 { return 1 })
		assert.NoError(signal.Validate(bound, signal.MEMORY_IDLE), "%d: %v", address, row)
	}
}

func TestListing(t *testing.T) {
	assert := assert.New(t)

	listing := New(isa.Default).Listing()
	assert.Contains(listing, "fetch:\n")
	assert.Contains(listing, "interrupt:\n")
	assert.Contains(listing, "ADD:\n\trs1-ib ib-tmpe\n")
}
