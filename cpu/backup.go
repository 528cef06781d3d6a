package cpu

import (
	"fmt"

	"github.com/ezrec/micro16/alu"
	"github.com/ezrec/micro16/io"
	"github.com/ezrec/micro16/memory"
	"github.com/ezrec/micro16/signal"
)

// AluState is the serialisable state of the ALU.
type AluState struct {
	Tmpe    uint16    `json:"tmpe"`
	Tmps    uint16    `json:"tmps"`
	CarryIn bool      `json:"carry_in"`
	Flags   alu.Flags `json:"flags"`
}

// UcState is the serialisable state of the control unit.
type UcState struct {
	Pointer   int      `json:"pointer"`
	Step      int      `json:"step"`
	Mode      Mode     `json:"mode"`
	Interrupt bool     `json:"interrupt"`
	Halted    bool     `json:"halted"`
	Decoded   uint16   `json:"decoded"`
	Opcode    uint8    `json:"opcode"` // Opcode the rows are bound from, after branch resolution.
	Signals   []string `json:"signals,omitempty"`
}

// Snapshot is the complete machine state.
type Snapshot struct {
	Registers [REGISTERS]uint16 `json:"registers"`
	Pc        uint16            `json:"pc"`
	Sr        uint16            `json:"sr"`
	Ir        uint16            `json:"ir"`
	Mar       uint16            `json:"mar"`
	Mdr       uint16            `json:"mdr"`
	Ib        uint16            `json:"ib"`
	Pulses    int               `json:"pulses"`

	Alu     AluState         `json:"alu"`
	Uc      UcState          `json:"uc"`
	Memory  *memory.Image    `json:"memory"`
	Devices []io.DeviceState `json:"devices"`
}

// Backup captures the machine state.
func (cpu *Cpu) Backup() (snap *Snapshot, err error) {
	devices, err := cpu.Io.Backup()
	if err != nil {
		return
	}

	snap = &Snapshot{
		Pc:     cpu.Pc.Get(),
		Sr:     cpu.Sr.Get(),
		Ir:     cpu.Ir.Get(),
		Mar:    cpu.Mar.Get(),
		Mdr:    cpu.Mdr.Get(),
		Ib:     cpu.Ib.Get(),
		Pulses: cpu.Pulses,
		Alu: AluState{
			Tmpe:    cpu.Alu.Tmpe.Get(),
			Tmps:    cpu.Alu.Tmps.Get(),
			CarryIn: cpu.Alu.CarryIn,
			Flags:   cpu.Alu.Flags,
		},
		Uc: UcState{
			Pointer:   cpu.Uc.Pointer,
			Step:      cpu.Uc.Step,
			Mode:      cpu.Uc.Mode,
			Interrupt: cpu.Uc.Interrupt,
			Halted:    cpu.Uc.Halted,
			Decoded:   cpu.Uc.Decoded,
			Opcode:    cpu.Uc.Instruction().Opcode,
			Signals:   cpu.Uc.manual.Names(),
		},
		Memory:  cpu.Memory.Backup(),
		Devices: devices,
	}

	for n, reg := range cpu.Register {
		snap.Registers[n] = reg.Get()
	}

	return
}

// Restore replaces the machine state with a snapshot. Every part of the
// snapshot is checked before anything changes, so a refused snapshot
// leaves the machine as it was.
func (cpu *Cpu) Restore(snap *Snapshot) (err error) {
	if snap == nil || snap.Memory == nil {
		err = ErrSnapshot
		return
	}

	if snap.Uc.Mode < MODE_STEP || snap.Uc.Mode > MODE_MANUAL {
		err = fmt.Errorf("%w: %w", ErrSnapshot, ErrMode)
		return
	}

	inst, ok := cpu.Table.ByOpcode(snap.Uc.Opcode)
	if !ok {
		err = fmt.Errorf("%w: opcode %d", ErrSnapshot, snap.Uc.Opcode)
		return
	}

	manual := signal.Set{Memory: snap.Memory.State}
	for _, name := range snap.Uc.Signals {
		err = manual.AddSignal(name)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrSnapshot, err)
			return
		}
	}

	err = cpu.Memory.CheckImage(snap.Memory)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSnapshot, err)
		return
	}

	err = cpu.Io.CheckRestore(snap.Devices, snap.Memory)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSnapshot, err)
		return
	}

	cpu.Io.Clear()

	err = cpu.Memory.Restore(snap.Memory)
	if err != nil {
		return
	}

	err = cpu.Io.Restore(snap.Devices)
	if err != nil {
		return
	}

	for n, reg := range cpu.Register {
		reg.Set(snap.Registers[n])
	}
	cpu.Pc.Set(snap.Pc)
	cpu.Sr.Set(snap.Sr)
	cpu.Ir.Set(snap.Ir)
	cpu.Mar.Set(snap.Mar)
	cpu.Mdr.Set(snap.Mdr)
	cpu.Ib.Set(snap.Ib)
	cpu.Pulses = snap.Pulses

	cpu.Alu.Tmpe.Set(snap.Alu.Tmpe)
	cpu.Alu.Tmps.Set(snap.Alu.Tmps)
	cpu.Alu.CarryIn = snap.Alu.CarryIn
	cpu.Alu.Flags = snap.Alu.Flags

	cpu.Uc = Uc{
		Pointer:   snap.Uc.Pointer,
		Step:      snap.Uc.Step,
		Mode:      snap.Uc.Mode,
		Interrupt: snap.Uc.Interrupt,
		Halted:    snap.Uc.Halted,
		Decoded:   snap.Uc.Decoded,
		inst:      inst,
		manual:    manual,
	}

	return
}
