// Package alu is the arithmetic logic unit: one 16-bit operation over the
// TMPE latch and the internal bus, with a carry-in, into the TMPS latch.
package alu

import (
	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/isa"
	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/word"
)

// Op is an ALU operation.
type Op int

const (
	ALU_OP_ADD = Op(iota) // add
	ALU_OP_SUB            // sub
	ALU_OP_OR             // or
	ALU_OP_AND            // and
	ALU_OP_XOR            // xor
)

var opNames = [...]string{"add", "sub", "or", "and", "xor"}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "?"
	}
	return opNames[op]
}

// Status register bits.
const (
	SR_ZERO     = uint(0)
	SR_CARRY    = uint(1)
	SR_OVERFLOW = uint(2)
	SR_SIGN     = uint(3)
	SR_INT      = uint(4) // Interrupt enable.
)

// Flags are the condition flags of the last operation.
type Flags = isa.Flags

// FlagsOf extracts the condition flags from a status register value.
func FlagsOf(sr uint16) Flags {
	return Flags{
		Zero:     sr&(1<<SR_ZERO) != 0,
		Carry:    sr&(1<<SR_CARRY) != 0,
		Overflow: sr&(1<<SR_OVERFLOW) != 0,
		Sign:     sr&(1<<SR_SIGN) != 0,
	}
}

// WithFlags replaces the condition flags of sr, keeping the other bits.
func WithFlags(sr uint16, flags Flags) uint16 {
	sr = word.WithBit(sr, SR_ZERO, flags.Zero)
	sr = word.WithBit(sr, SR_CARRY, flags.Carry)
	sr = word.WithBit(sr, SR_OVERFLOW, flags.Overflow)
	sr = word.WithBit(sr, SR_SIGN, flags.Sign)
	return sr
}

// Compute performs op over a and b.
//
// add is a+b+cin, sub is a-b-cin with the borrow reported as carry.
// Logical operations clear carry and overflow.
func Compute(op Op, a, b uint16, cin bool) (result uint16, flags Flags) {
	carry := uint32(0)
	if cin {
		carry = 1
	}

	signA := a&word.SIGN != 0
	signB := b&word.SIGN != 0

	switch op {
	case ALU_OP_ADD:
		sum := uint32(a) + uint32(b) + carry
		result = uint16(sum)
		flags.Carry = sum > word.MASK
		signR := result&word.SIGN != 0
		flags.Overflow = signA == signB && signR != signA
	case ALU_OP_SUB:
		result = a - b - uint16(carry)
		flags.Carry = uint32(a) < uint32(b)+carry
		signR := result&word.SIGN != 0
		flags.Overflow = signA != signB && signR != signA
	case ALU_OP_OR:
		result = a | b
	case ALU_OP_AND:
		result = a & b
	case ALU_OP_XOR:
		result = a ^ b
	}

	flags.Zero = result == 0
	flags.Sign = result&word.SIGN != 0

	return
}

// Alu is the arithmetic logic unit and its latches.
type Alu struct {
	Verbose bool // If set, log every operation.

	Tmpe    *word.Word // Operand A latch.
	Tmps    *word.Word // Result latch.
	CarryIn bool       // Carry-in for the next operation.
	Flags   Flags      // Flags of the last operation.

	hub *notify.Hub
}

// New creates an ALU publishing to hub.
func New(hub *notify.Hub) *Alu {
	return &Alu{
		Tmpe: word.New("tmpe", hub),
		Tmps: word.New("tmps", hub),
		hub:  hub,
	}
}

// Operate runs op with TMPE as A and b as B, latching the result in TMPS.
func (alu *Alu) Operate(op Op, b uint16) (result uint16) {
	a := alu.Tmpe.Get()
	result, alu.Flags = Compute(op, a, b, alu.CarryIn)
	alu.Tmps.Set(result)

	if alu.Verbose {
		logrus.WithFields(logrus.Fields{
			"op":     op.String(),
			"a":      word.FormatHex(a),
			"b":      word.FormatHex(b),
			"cin":    alu.CarryIn,
			"result": word.FormatHex(result),
		}).Debug("alu")
	}

	alu.hub.Publish(notify.Event{
		Kind:   notify.EVENT_ALU_RESULT,
		Source: "alu",
		Text:   op.String(),
		A:      a,
		B:      b,
		New:    result,
	})

	return
}

// Reset zeroes the latches, the carry-in and the flags.
func (alu *Alu) Reset() {
	alu.Tmpe.Reset()
	alu.Tmps.Reset()
	alu.CarryIn = false
	alu.Flags = Flags{}
}
