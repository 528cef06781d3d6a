// Package signal defines the micro-operations of the machine, their
// conflict groups, and the validator that refuses combinations which
// would short or contend a bus in real hardware.
//
// A signal either names a concrete register (r0-r7) or a register role
// (rd, rs, rs1, rs2, ri, rds, rx) that is bound to a register from the
// operand fields of the decoded instruction.
package signal

import (
	"fmt"
	"strings"
)

// Op is the kind of a signal.
type Op int

const (
	OP_REG_IB   = Op(iota) // r?-ib
	OP_IB_REG              // ib-r?
	OP_IBH_REG             // ibh-r?
	OP_IBL_REG             // ibl-r?
	OP_PC_IB               // pc-ib
	OP_IB_PC               // ib-pc
	OP_IB_IR               // ib-ir
	OP_IRL_IB              // irl-ib
	OP_IRD_IB              // ird-ib
	OP_IRL_IBL             // irl-ibl
	OP_IRL_IBH             // irl-ibh
	OP_SR_IB               // sr-ib
	OP_IB_SR               // ib-sr
	OP_ALU_SR              // alu-sr
	OP_IB_MAR              // ib-mar
	OP_MDR_IB              // mdr-ib
	OP_IB_MDR              // ib-mdr
	OP_IB_TMPE             // ib-tmpe
	OP_TMPE_CLR            // tmpe-clr
	OP_TMPE_SET            // tmpe-set
	OP_TMPS_IB             // tmps-ib
	OP_CARRY_IN            // carry-in
	OP_ADD                 // add
	OP_SUB                 // sub
	OP_OR                  // or
	OP_AND                 // and
	OP_XOR                 // xor
	OP_READ                // read
	OP_WRITE               // write
	OP_INTA                // inta
	OP_CLI                 // cli
	OP_STI                 // sti
	OP_FIN                 // fin
	OP_COUNT
)

// Register transfer name formats. The %v is the register or role name.
var regFormat = map[Op]string{
	OP_REG_IB:  "%v-ib",
	OP_IB_REG:  "ib-%v",
	OP_IBH_REG: "ibh-%v",
	OP_IBL_REG: "ibl-%v",
}

var opNames = map[Op]string{
	OP_PC_IB:    "pc-ib",
	OP_IB_PC:    "ib-pc",
	OP_IB_IR:    "ib-ir",
	OP_IRL_IB:   "irl-ib",
	OP_IRD_IB:   "ird-ib",
	OP_IRL_IBL:  "irl-ibl",
	OP_IRL_IBH:  "irl-ibh",
	OP_SR_IB:    "sr-ib",
	OP_IB_SR:    "ib-sr",
	OP_ALU_SR:   "alu-sr",
	OP_IB_MAR:   "ib-mar",
	OP_MDR_IB:   "mdr-ib",
	OP_IB_MDR:   "ib-mdr",
	OP_IB_TMPE:  "ib-tmpe",
	OP_TMPE_CLR: "tmpe-clr",
	OP_TMPE_SET: "tmpe-set",
	OP_TMPS_IB:  "tmps-ib",
	OP_CARRY_IN: "carry-in",
	OP_ADD:      "add",
	OP_SUB:      "sub",
	OP_OR:       "or",
	OP_AND:      "and",
	OP_XOR:      "xor",
	OP_READ:     "read",
	OP_WRITE:    "write",
	OP_INTA:     "inta",
	OP_CLI:      "cli",
	OP_STI:      "sti",
	OP_FIN:      "fin",
}

// Role is a register placeholder, resolved from the decoded instruction.
type Role int

const (
	ROLE_NONE = Role(iota)
	ROLE_RD
	ROLE_RS
	ROLE_RS1
	ROLE_RS2
	ROLE_RI
	ROLE_RDS
	ROLE_RX
)

var roleNames = [...]string{"", "rd", "rs", "rs1", "rs2", "ri", "rds", "rx"}

func (role Role) String() string {
	if role < 0 || int(role) >= len(roleNames) {
		return "r?"
	}
	return roleNames[role]
}

// Signal is one atomic micro-operation.
// Register transfers carry either a concrete Reg (Role == ROLE_NONE)
// or a Role placeholder.
type Signal struct {
	Op   Op
	Reg  uint8
	Role Role
}

// RegisterTransfer returns true for the r?-ib, ib-r?, ibh-r? and ibl-r? ops.
func (op Op) RegisterTransfer() bool {
	_, ok := regFormat[op]
	return ok
}

// Concrete returns true if the signal names no placeholder.
func (sig Signal) Concrete() bool {
	return sig.Role == ROLE_NONE
}

// Bind resolves a placeholder with the register chosen by lookup.
// Concrete signals are returned unchanged.
func (sig Signal) Bind(lookup func(role Role) uint8) Signal {
	if sig.Concrete() {
		return sig
	}
	return Signal{Op: sig.Op, Reg: lookup(sig.Role) & 7}
}

func (sig Signal) String() string {
	format, ok := regFormat[sig.Op]
	if ok {
		if sig.Role != ROLE_NONE {
			return fmt.Sprintf(format, sig.Role.String())
		}
		return fmt.Sprintf(format, fmt.Sprintf("r%d", sig.Reg))
	}

	name, ok := opNames[sig.Op]
	if !ok {
		return fmt.Sprintf("op%d", int(sig.Op))
	}
	return name
}

var byName map[string]Signal

func init() {
	byName = make(map[string]Signal)
	for op, name := range opNames {
		byName[name] = Signal{Op: op}
	}
	for op, format := range regFormat {
		for reg := range 8 {
			byName[fmt.Sprintf(format, fmt.Sprintf("r%d", reg))] = Signal{Op: op, Reg: uint8(reg)}
		}
		for role := ROLE_RD; role <= ROLE_RX; role++ {
			byName[fmt.Sprintf(format, role.String())] = Signal{Op: op, Role: role}
		}
	}
}

// Parse resolves a signal name.
func Parse(name string) (sig Signal, err error) {
	sig, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		err = &ErrValidation{Signal: name, Err: ErrBadSignal}
	}
	return
}

// Row is the set of signals active during one step, in execution order.
type Row []Signal

// ParseRow parses a whitespace separated list of signal names.
func ParseRow(text string) (row Row, err error) {
	for _, name := range strings.Fields(text) {
		var sig Signal
		sig, err = Parse(name)
		if err != nil {
			return
		}
		row = append(row, sig)
	}
	return
}

// MustParseRow is ParseRow for static micro-code tables.
func MustParseRow(text string) Row {
	row, err := ParseRow(text)
	if err != nil {
		panic(err)
	}
	return row
}

// Has returns true if the row contains a signal of this op.
func (row Row) Has(op Op) bool {
	for _, sig := range row {
		if sig.Op == op {
			return true
		}
	}
	return false
}

// Concrete returns true if no signal in the row is a placeholder.
func (row Row) Concrete() bool {
	for _, sig := range row {
		if !sig.Concrete() {
			return false
		}
	}
	return true
}

// Bind resolves every placeholder in the row.
func (row Row) Bind(lookup func(role Role) uint8) (bound Row) {
	bound = make(Row, len(row))
	for n, sig := range row {
		bound[n] = sig.Bind(lookup)
	}
	return
}

// Names returns the signal names of the row.
func (row Row) Names() (names []string) {
	for _, sig := range row {
		names = append(names, sig.String())
	}
	return
}

func (row Row) String() string {
	return strings.Join(row.Names(), " ")
}
