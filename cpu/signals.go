package cpu

import (
	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/alu"
	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/signal"
	"github.com/ezrec/micro16/word"
)

var aluOps = map[signal.Op]alu.Op{
	signal.OP_ADD: alu.ALU_OP_ADD,
	signal.OP_SUB: alu.ALU_OP_SUB,
	signal.OP_OR:  alu.ALU_OP_OR,
	signal.OP_AND: alu.ALU_OP_AND,
	signal.OP_XOR: alu.ALU_OP_XOR,
}

// Execute performs one concrete signal.
func (cpu *Cpu) Execute(sig signal.Signal) (err error) {
	if !sig.Concrete() {
		err = ErrUnbound
		return
	}

	ib := cpu.Ib

	switch sig.Op {
	case signal.OP_REG_IB:
		ib.Set(cpu.Register[sig.Reg].Get())
	case signal.OP_IB_REG:
		cpu.Register[sig.Reg].Set(ib.Get())
	case signal.OP_IBH_REG:
		cpu.Register[sig.Reg].SetHigh(ib.High())
	case signal.OP_IBL_REG:
		cpu.Register[sig.Reg].SetLow(ib.Low())
	case signal.OP_PC_IB:
		ib.Set(cpu.Pc.Get())
	case signal.OP_IB_PC:
		cpu.Pc.Set(ib.Get())
	case signal.OP_IB_IR:
		cpu.Ir.Set(ib.Get())
	case signal.OP_IRL_IB, signal.OP_IRL_IBL:
		ib.Set(uint16(cpu.Ir.Low()))
	case signal.OP_IRD_IB:
		ib.Set(word.SignExtend8(cpu.Ir.Low()))
	case signal.OP_IRL_IBH:
		ib.Set(uint16(cpu.Ir.Low()) << 8)
	case signal.OP_SR_IB:
		ib.Set(cpu.Sr.Get())
	case signal.OP_IB_SR:
		cpu.Sr.Set(ib.Get())
	case signal.OP_ALU_SR:
		cpu.Sr.Set(alu.WithFlags(cpu.Sr.Get(), cpu.Alu.Flags))
	case signal.OP_IB_MAR:
		cpu.Mar.Set(ib.Get())
		cpu.Memory.AddressBus.Set(ib.Get())
	case signal.OP_MDR_IB:
		ib.Set(cpu.Mdr.Get())
	case signal.OP_IB_MDR:
		cpu.Mdr.Set(ib.Get())
		cpu.Memory.DataBus.Set(ib.Get())
	case signal.OP_IB_TMPE:
		cpu.Alu.Tmpe.Set(ib.Get())
	case signal.OP_TMPE_CLR:
		cpu.Alu.Tmpe.Set(0)
	case signal.OP_TMPE_SET:
		cpu.Alu.Tmpe.Set(word.MASK)
	case signal.OP_TMPS_IB:
		ib.Set(cpu.Alu.Tmps.Get())
	case signal.OP_CARRY_IN:
		cpu.Alu.CarryIn = true
	case signal.OP_ADD, signal.OP_SUB, signal.OP_OR, signal.OP_AND, signal.OP_XOR:
		cpu.Alu.Operate(aluOps[sig.Op], ib.Get())
	case signal.OP_READ:
		err = cpu.Memory.StartRead()
	case signal.OP_WRITE:
		err = cpu.Memory.StartWrite()
	case signal.OP_INTA:
		cpu.inta()
	case signal.OP_CLI:
		cpu.Sr.SetBit(alu.SR_INT, false)
	case signal.OP_STI:
		cpu.Sr.SetBit(alu.SR_INT, true)
	case signal.OP_FIN:
	default:
		err = ErrSignalOp
	}

	if err != nil {
		return
	}

	cpu.hub.Publish(notify.Event{
		Kind:    notify.EVENT_SIGNAL,
		Source:  "uc",
		Address: cpu.Uc.Pointer,
		Text:    sig.String(),
	})

	return
}

// inta acknowledges the next interrupting device and places its vector
// on the data bus and in MDR. With nobody to acknowledge, the bus is left
// alone and the problem reported without stopping the clock.
func (cpu *Cpu) inta() {
	vector, ok := cpu.Io.Acknowledge()
	if !ok {
		logrus.WithFields(logrus.Fields{
			"pc": word.FormatHex(cpu.Pc.Get()),
		}).Warn("inta: no device to acknowledge")
		cpu.hub.Publish(notify.Event{
			Kind:   notify.EVENT_ERROR,
			Source: "uc",
			Text:   "inta: no device to acknowledge",
		})
		return
	}

	cpu.Memory.DataBus.Set(vector)
	cpu.Mdr.Set(vector)
}
