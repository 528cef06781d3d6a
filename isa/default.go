package isa

import (
	"strings"

	"github.com/ezrec/micro16/signal"
)

// Opcodes of the default instruction set.
const (
	OPCODE_NOP      = uint8(0)
	OPCODE_MOV      = uint8(1)
	OPCODE_MOV_LOAD = uint8(2)
	OPCODE_MOV_STOR = uint8(3)
	OPCODE_MOVL     = uint8(4)
	OPCODE_MOVH     = uint8(5)
	OPCODE_PUSH     = uint8(6)
	OPCODE_POP      = uint8(7)
	OPCODE_ADD      = uint8(8)
	OPCODE_SUB      = uint8(9)
	OPCODE_OR       = uint8(10)
	OPCODE_AND      = uint8(11)
	OPCODE_XOR      = uint8(12)
	OPCODE_CMP      = uint8(13)
	OPCODE_NOT      = uint8(14)
	OPCODE_INC      = uint8(15)
	OPCODE_DEC      = uint8(16)
	OPCODE_NEG      = uint8(17)
	OPCODE_CLI      = uint8(18)
	OPCODE_STI      = uint8(19)
	OPCODE_INT      = uint8(20)
	OPCODE_IRET     = uint8(21)
	OPCODE_JMP      = uint8(22)
	OPCODE_JMP_REG  = uint8(23)
	OPCODE_CALL     = uint8(24)
	OPCODE_CALL_REG = uint8(25)
	OPCODE_RET      = uint8(26)
	OPCODE_BR       = uint8(30)
	OPCODE_BR_NOT   = uint8(31)
)

// steps parses micro-steps separated by '/'.
func steps(text string) (rows []signal.Row) {
	for _, row := range strings.Split(text, "/") {
		rows = append(rows, signal.MustParseRow(row))
	}
	return
}

// Common micro-step sequences.
const (
	uPushSp = "r7-ib tmpe-set add / tmps-ib ib-r7 ib-mar"
	uPopSp  = "r7-ib ib-mar read tmpe-clr carry-in add / tmps-ib ib-r7"
	uAlu3   = "rs1-ib ib-tmpe / rs2-ib %v alu-sr / tmps-ib ib-rd fin"
	uUnary  = "rds-ib %v alu-sr / tmps-ib ib-rds fin"
	uRel    = "pc-ib ib-tmpe / ird-ib add / tmps-ib ib-pc fin"
)

func alu3(op string) []signal.Row {
	return steps(strings.Replace(uAlu3, "%v", op, 1))
}

func unary(op string) []signal.Row {
	return steps(strings.Replace(uUnary, "%v", op, 1))
}

var (
	rolesR2 = []signal.Role{signal.ROLE_RD, signal.ROLE_RS}
	rolesR3 = []signal.Role{signal.ROLE_RD, signal.ROLE_RS1, signal.ROLE_RS2}
)

// DefaultInstructions returns the descriptors of the reference machine.
func DefaultInstructions() []Instruction {
	return []Instruction{
		{
			Opcode: OPCODE_MOV, Pattern: "00001aaabbb-----", Mnemonic: "MOV R{a}, R{b}",
			Shape: SHAPE_R2, Roles: rolesR2,
			Steps: steps("rs-ib ib-rd fin"),
		},
		{
			Opcode: OPCODE_MOV_LOAD, Pattern: "00010aaabbb-----", Mnemonic: "MOV R{a}, [R{b}]",
			Shape: SHAPE_R2, Roles: []signal.Role{signal.ROLE_RD, signal.ROLE_RI},
			Steps: steps("ri-ib ib-mar read / / mdr-ib ib-rd fin"),
		},
		{
			Opcode: OPCODE_MOV_STOR, Pattern: "00011aaabbb-----", Mnemonic: "MOV [R{a}], R{b}",
			Shape: SHAPE_R2, Roles: []signal.Role{signal.ROLE_RI, signal.ROLE_RS},
			Steps: steps("ri-ib ib-mar / rs-ib ib-mdr write / fin"),
		},
		{
			Opcode: OPCODE_MOVL, Pattern: "00100aaabbbbbbbb", Mnemonic: "MOVL R{a}, {b:x}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RD},
			Steps: steps("irl-ibl ibl-rd fin"),
		},
		{
			Opcode: OPCODE_MOVH, Pattern: "00101aaabbbbbbbb", Mnemonic: "MOVH R{a}, {b:x}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RD},
			Steps: steps("irl-ibh ibh-rd fin"),
		},
		{
			Opcode: OPCODE_PUSH, Pattern: "00110aaa--------", Mnemonic: "PUSH R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RS},
			Steps: steps(uPushSp + " / rs-ib ib-mdr write / fin"),
		},
		{
			Opcode: OPCODE_POP, Pattern: "00111aaa--------", Mnemonic: "POP R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RD},
			Steps: steps(uPopSp + " / mdr-ib ib-rd fin"),
		},
		{
			Opcode: OPCODE_ADD, Pattern: "01000aaabbbccc--", Mnemonic: "ADD R{a}, R{b}, R{c}",
			Shape: SHAPE_R3, Roles: rolesR3, Steps: alu3("add"),
		},
		{
			Opcode: OPCODE_SUB, Pattern: "01001aaabbbccc--", Mnemonic: "SUB R{a}, R{b}, R{c}",
			Shape: SHAPE_R3, Roles: rolesR3, Steps: alu3("sub"),
		},
		{
			Opcode: OPCODE_OR, Pattern: "01010aaabbbccc--", Mnemonic: "OR R{a}, R{b}, R{c}",
			Shape: SHAPE_R3, Roles: rolesR3, Steps: alu3("or"),
		},
		{
			Opcode: OPCODE_AND, Pattern: "01011aaabbbccc--", Mnemonic: "AND R{a}, R{b}, R{c}",
			Shape: SHAPE_R3, Roles: rolesR3, Steps: alu3("and"),
		},
		{
			Opcode: OPCODE_XOR, Pattern: "01100aaabbbccc--", Mnemonic: "XOR R{a}, R{b}, R{c}",
			Shape: SHAPE_R3, Roles: rolesR3, Steps: alu3("xor"),
		},
		{
			Opcode: OPCODE_CMP, Pattern: "01101aaabbb-----", Mnemonic: "CMP R{a}, R{b}",
			Shape: SHAPE_R2, Roles: []signal.Role{signal.ROLE_RS1, signal.ROLE_RS2},
			Steps: steps("rs1-ib ib-tmpe / rs2-ib sub alu-sr fin"),
		},
		{
			Opcode: OPCODE_NOT, Pattern: "01110aaa--------", Mnemonic: "NOT R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RDS},
			Steps: unary("tmpe-set xor"),
		},
		{
			Opcode: OPCODE_INC, Pattern: "01111aaa--------", Mnemonic: "INC R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RDS},
			Steps: unary("tmpe-clr carry-in add"),
		},
		{
			Opcode: OPCODE_DEC, Pattern: "10000aaa--------", Mnemonic: "DEC R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RDS},
			Steps: unary("tmpe-set add"),
		},
		{
			Opcode: OPCODE_NEG, Pattern: "10001aaa--------", Mnemonic: "NEG R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RDS},
			Steps: unary("tmpe-clr sub"),
		},
		{
			Opcode: OPCODE_CLI, Pattern: "10010-----------", Mnemonic: "CLI",
			Steps: steps("cli fin"),
		},
		{
			Opcode: OPCODE_STI, Pattern: "10011-----------", Mnemonic: "STI",
			Steps: steps("sti fin"),
		},
		{
			Opcode: OPCODE_INT, Pattern: "10100---aaaaaaaa", Mnemonic: "INT {a}",
			Steps: steps(uPushSp + " / sr-ib ib-mdr write / " +
				uPushSp + " / pc-ib ib-mdr write / / irl-ib ib-mar read / / mdr-ib ib-pc cli fin"),
		},
		{
			Opcode: OPCODE_IRET, Pattern: "10101-----------", Mnemonic: "IRET",
			Steps: steps(uPopSp + " / mdr-ib ib-pc / " + uPopSp + " / mdr-ib ib-sr fin"),
		},
		{
			Opcode: OPCODE_JMP, Pattern: "10110---aaaaaaaa", Mnemonic: "JMP {a:s}",
			Steps: steps(uRel),
		},
		{
			Opcode: OPCODE_JMP_REG, Pattern: "10111aaa--------", Mnemonic: "JMP R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RX},
			Steps: steps("rx-ib ib-pc fin"),
		},
		{
			Opcode: OPCODE_CALL, Pattern: "11000---aaaaaaaa", Mnemonic: "CALL {a:s}",
			Steps: steps(uPushSp + " / pc-ib ib-mdr write ib-tmpe / ird-ib add / tmps-ib ib-pc fin"),
		},
		{
			Opcode: OPCODE_CALL_REG, Pattern: "11001aaa--------", Mnemonic: "CALL R{a}",
			Shape: SHAPE_R1, Roles: []signal.Role{signal.ROLE_RX},
			Steps: steps(uPushSp + " / pc-ib ib-mdr write / rx-ib ib-pc fin"),
		},
		{
			Opcode: OPCODE_RET, Pattern: "11010-----------", Mnemonic: "RET",
			Steps: steps(uPopSp + " / mdr-ib ib-pc fin"),
		},
		{
			Opcode: OPCODE_BR, Pattern: "11110cccaaaaaaaa", Mnemonic: "BR{cond} {a:s}",
			Steps:    steps(uRel),
			NotTaken: OPCODE_BR_NOT,
		},
		{
			Opcode: OPCODE_BR_NOT, Pattern: "11111cccaaaaaaaa", Mnemonic: "BR{cond} {a:s}",
			Steps: steps("fin"),
		},
	}
}

// Default is the instruction set of the reference machine.
var Default = MustTable(DefaultInstructions())
