package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/micro16/signal"
)

func TestDefault_Check(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Default.Check())

	for _, inst := range Default.Instructions {
		assert.NotEmpty(inst.Steps, inst.Mnemonic)
		last := inst.Steps[len(inst.Steps)-1]
		assert.True(last.Has(signal.OP_FIN), inst.Mnemonic)
		for _, row := range inst.Steps[:len(inst.Steps)-1] {
			assert.False(row.Has(signal.OP_FIN), inst.Mnemonic)
		}
	}

	for _, opcode := range []uint8{27, 28, 29} {
		_, ok := Default.ByOpcode(opcode)
		assert.False(ok, opcode)
	}
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		word uint16
		text string
	}{
		{0x0000, "NOP"},
		{0x0014, "NOP"},
		{0x2102, "MOVL R1, 0x02"},
		{0x2900, "MOVH R1, 0x00"},
		{0x2203, "MOVL R2, 0x03"},
		{0x2A00, "MOVH R2, 0x00"},
		{0x4028, "ADD R0, R1, R2"},
		{0x0A60, "MOV R2, R3"},
		{0x1260, "MOV R2, [R3]"},
		{0x1A60, "MOV [R2], R3"},
		{0x3700, "PUSH R7"},
		{0x6C20, "CMP R4, R1"},
		{0x9000, "CLI"},
		{0xA020, "INT 32"},
		{0xB0FF, "JMP -1"},
		{0xB07F, "JMP 127"},
		{0xD000, "RET"},
		{0xF5FE, "BRNZ -2"},
		{0xF4FE, "BRZ -2"},
		{0xF010, "BRC 16"},
		{0xF680, "BRS -128"},
		{0xFC80, "BRZ -128"},
	}

	for _, entry := range table {
		text, err := Default.Decode(entry.word)
		assert.NoError(err, "%04x", entry.word)
		assert.Equal(entry.text, text, "%04x", entry.word)
	}

	for _, w := range []uint16{0xD800, 0xE000, 0xE800} {
		_, err := Default.Decode(w)
		assert.ErrorIs(err, ErrNoInstruction, "%04x", w)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, inst := range Default.Instructions {
		fields := inst.Fields()
		args := make([]int, len(fields))
		for n := range fields {
			args[n] = n + 1
		}

		w, err := inst.Encode(args...)
		assert.NoError(err, inst.Mnemonic)
		assert.Equal(inst.Opcode, Opcode(w), inst.Mnemonic)

		got, err := Default.Lookup(w)
		assert.NoError(err, inst.Mnemonic)
		assert.Equal(inst, got, inst.Mnemonic)

		for n := range fields {
			value, ok := inst.Field(w, fields[n])
			assert.True(ok)
			assert.Equal(uint16(args[n]), value, "%v field %c", inst.Mnemonic, fields[n])
		}

		text, err := Default.Decode(w)
		assert.NoError(err)
		assert.Equal(inst.Render(w), text)
	}

	_, err := Default.Encode(OPCODE_ADD, 1, 2)
	assert.ErrorIs(err, ErrArgs)

	w, err := Default.Encode(OPCODE_JMP, -3)
	assert.NoError(err)
	text, _ := Default.Decode(w)
	assert.Equal("JMP -3", text)

	_, err = Default.Encode(28)
	assert.ErrorIs(err, ErrNoInstruction)
}

func TestBinding(t *testing.T) {
	assert := assert.New(t)

	add, _ := Default.ByOpcode(OPCODE_ADD)
	w, _ := add.Encode(5, 6, 7)
	bind := add.Binding(w)
	assert.Equal(uint8(5), bind(signal.ROLE_RD))
	assert.Equal(uint8(6), bind(signal.ROLE_RS1))
	assert.Equal(uint8(7), bind(signal.ROLE_RS2))

	inc, _ := Default.ByOpcode(OPCODE_INC)
	w, _ = inc.Encode(3)
	bind = inc.Binding(w)
	assert.Equal(uint8(3), bind(signal.ROLE_RDS))

	row := inc.Steps[0].Bind(bind)
	assert.Equal("r3-ib tmpe-clr carry-in add alu-sr", row.String())

	store, _ := Default.ByOpcode(OPCODE_MOV_STOR)
	w, _ = store.Encode(1, 4)
	bind = store.Binding(w)
	assert.Equal(uint8(1), bind(signal.ROLE_RI))
	assert.Equal(uint8(4), bind(signal.ROLE_RS))
}

func TestResolve(t *testing.T) {
	assert := assert.New(t)

	brz, _ := Default.Encode(OPCODE_BR, int(COND_Z), 4)

	inst, err := Default.Resolve(brz, Flags{Zero: true})
	assert.NoError(err)
	assert.Equal(OPCODE_BR, inst.Opcode)

	inst, err = Default.Resolve(brz, Flags{})
	assert.NoError(err)
	assert.Equal(OPCODE_BR_NOT, inst.Opcode)

	mov, _ := Default.Encode(OPCODE_MOV, 1, 2)
	inst, err = Default.Resolve(mov, Flags{})
	assert.NoError(err)
	assert.Equal(OPCODE_MOV, inst.Opcode)
}

func TestCond_Eval(t *testing.T) {
	assert := assert.New(t)

	all := Flags{Zero: true, Carry: true, Overflow: true, Sign: true}
	none := Flags{}

	for cond := COND_C; cond <= COND_NS; cond++ {
		negated := cond&1 == 1
		assert.Equal(!negated, cond.Eval(all), cond.String())
		assert.Equal(negated, cond.Eval(none), cond.String())

		name := cond.String()
		parsed, ok := ParseCond(name)
		assert.True(ok)
		assert.Equal(cond, parsed)
	}

	assert.False(Cond(8).Eval(all))
	assert.Equal("?", Cond(9).String())
}

func TestNewTable_Errors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		inst Instruction
		err  error
	}{
		{Instruction{Opcode: 1, Pattern: "00001aaa", Mnemonic: "X"}, ErrPatternLength},
		{Instruction{Opcode: 1, Pattern: "00001aaa?-------", Mnemonic: "X"}, ErrPatternChar},
		{Instruction{Opcode: 1, Pattern: "00001AAA--------", Mnemonic: "X"}, ErrPatternChar},
		{Instruction{Opcode: 1, Pattern: "00001aaabbbaaa--", Mnemonic: "X"}, ErrPatternField},
		{Instruction{Opcode: 2, Pattern: "00001aaa--------", Mnemonic: "X"}, ErrPatternOpcode},
		{Instruction{Opcode: 1, Pattern: "0000-aaa--------", Mnemonic: "X"}, ErrPatternOpcode},
		{Instruction{Opcode: 1, Pattern: "00001aaa--------", Mnemonic: "X {b}"}, ErrTemplate},
		{Instruction{Opcode: 1, Pattern: "00001aaa--------", Mnemonic: "X {cond}"}, ErrTemplate},
	}

	for _, entry := range table {
		_, err := NewTable([]Instruction{entry.inst})
		assert.ErrorIs(err, entry.err, entry.inst.Pattern)

		var terr *ErrTable
		assert.ErrorAs(err, &terr)
	}
}

func TestLookup_Duplicate(t *testing.T) {
	assert := assert.New(t)

	table := MustTable([]Instruction{
		{Opcode: 1, Pattern: "00001aaa--------", Mnemonic: "ONE R{a}"},
		{Opcode: 1, Pattern: "00001---bbbbbbbb", Mnemonic: "TWO {b}"},
	})

	_, err := table.Decode(0x0800)
	assert.ErrorIs(err, ErrDuplicateOpcode)
	assert.Error(table.Check())

	assert.Panics(func() {
		MustTable([]Instruction{{Opcode: 1, Pattern: "bad"}})
	})
}

func FuzzDecode(f *testing.F) {
	for _, seed := range []uint16{0x0000, 0x2102, 0x4028, 0xB0FF, 0xF4FE, 0xD800} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, w uint16) {
		inst, err := Default.Lookup(w)
		op := Opcode(w)
		if op >= 27 && op <= 29 {
			if err == nil {
				t.Fatalf("%04x: decoded unassigned opcode %d", w, op)
			}
			return
		}
		if err != nil {
			t.Fatalf("%04x: %v", w, err)
		}
		if inst.Opcode != op {
			t.Fatalf("%04x: opcode %d decoded as %d", w, op, inst.Opcode)
		}

		fields := inst.Fields()
		args := make([]int, len(fields))
		for n := range fields {
			v, _ := inst.Field(w, fields[n])
			args[n] = int(v)
		}
		again, err := inst.Encode(args...)
		if err != nil {
			t.Fatal(err)
		}
		if inst.Render(again) != inst.Render(w) {
			t.Fatalf("%04x: %v != %v", w, inst.Render(again), inst.Render(w))
		}
	})
}
