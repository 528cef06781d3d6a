package signal

// Group is the hardware unit a signal drives or loads.
type Group int

// GROUP_NONE is the group of placeholders and unknown operations.
const GROUP_NONE = Group(-1)

const (
	GROUP_R0 = Group(iota)
	GROUP_R1
	GROUP_R2
	GROUP_R3
	GROUP_R4
	GROUP_R5
	GROUP_R6
	GROUP_R7
	GROUP_PC
	GROUP_IR
	GROUP_SR
	GROUP_TMPE
	GROUP_TMPS
	GROUP_MAR
	GROUP_MDR
	GROUP_MEMORY
	GROUP_ALU
	GROUP_INT
	GROUP_FIN
)

var groupNames = [...]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"PC", "IR", "SR", "TMPE", "TMPS", "MAR", "MDR",
	"MEMORY", "ALU", "INT", "FIN",
}

func (group Group) String() string {
	if group < 0 || int(group) >= len(groupNames) {
		return "?"
	}
	return groupNames[group]
}

var opGroup = map[Op]Group{
	OP_PC_IB:    GROUP_PC,
	OP_IB_PC:    GROUP_PC,
	OP_IB_IR:    GROUP_IR,
	OP_IRL_IB:   GROUP_IR,
	OP_IRD_IB:   GROUP_IR,
	OP_IRL_IBL:  GROUP_IR,
	OP_IRL_IBH:  GROUP_IR,
	OP_SR_IB:    GROUP_SR,
	OP_IB_SR:    GROUP_SR,
	OP_ALU_SR:   GROUP_SR,
	OP_IB_MAR:   GROUP_MAR,
	OP_MDR_IB:   GROUP_MDR,
	OP_IB_MDR:   GROUP_MDR,
	OP_IB_TMPE:  GROUP_TMPE,
	OP_TMPE_CLR: GROUP_TMPE,
	OP_TMPE_SET: GROUP_TMPE,
	OP_TMPS_IB:  GROUP_TMPS,
	OP_CARRY_IN: GROUP_ALU,
	OP_ADD:      GROUP_ALU,
	OP_SUB:      GROUP_ALU,
	OP_OR:       GROUP_ALU,
	OP_AND:      GROUP_ALU,
	OP_XOR:      GROUP_ALU,
	OP_READ:     GROUP_MEMORY,
	OP_WRITE:    GROUP_MEMORY,
	OP_INTA:     GROUP_MEMORY,
	OP_CLI:      GROUP_INT,
	OP_STI:      GROUP_INT,
	OP_FIN:      GROUP_FIN,
}

// Group returns the conflict group of a concrete signal, or GROUP_NONE.
func (sig Signal) Group() Group {
	if !sig.Concrete() {
		return GROUP_NONE
	}
	if sig.Op.RegisterTransfer() {
		return GROUP_R0 + Group(sig.Reg&7)
	}
	group, ok := opGroup[sig.Op]
	if !ok {
		return GROUP_NONE
	}
	return group
}

// Download returns true if the signal drives the internal bus.
func (sig Signal) Download() bool {
	switch sig.Op {
	case OP_REG_IB, OP_PC_IB, OP_IRL_IB, OP_IRD_IB, OP_IRL_IBL, OP_IRL_IBH,
		OP_SR_IB, OP_MDR_IB, OP_TMPS_IB:
		return true
	}
	return false
}

// Upload returns true if the signal loads a unit from the internal bus.
func (sig Signal) Upload() bool {
	switch sig.Op {
	case OP_IB_REG, OP_IBH_REG, OP_IBL_REG, OP_IB_PC, OP_IB_IR, OP_IB_SR,
		OP_IB_MAR, OP_IB_MDR, OP_IB_TMPE:
		return true
	}
	return false
}
