// Package cpu implements the micro-programmed processor of the micro16
// machine.
//
// The processor has eight 16-bit general purpose registers (r0-r7, with r7
// the stack pointer), a program counter, a status register, an instruction
// register and the memory address and data registers. Every register talks
// to the others over one internal bus (IB). Each clock pulse executes one
// row of signals from the micro-program; the rows of an instruction are
// bound to concrete registers from the operand fields of the decoded word.
//
// The control unit runs in one of four modes: single step, one instruction,
// free running, or manual, where the user loads each signal set by hand.
package cpu
