package cpu

import (
	"fmt"
	"iter"
	"maps"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/alu"
	"github.com/ezrec/micro16/io"
	"github.com/ezrec/micro16/isa"
	"github.com/ezrec/micro16/memory"
	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/ucode"
	"github.com/ezrec/micro16/word"
)

// Register file layout.
const (
	REGISTERS   = 8
	REGISTER_SP = 7      // r7 is the stack pointer.
	RESET_PC    = 0x0100 // First instruction after reset.
)

var _cpu_defines = map[string]string{
	"SP":          fmt.Sprintf("r%d", REGISTER_SP),
	"RESET_PC":    fmt.Sprintf("0x%04x", RESET_PC),
	"SR_ZERO":     strconv.FormatUint(uint64(alu.SR_ZERO), 10),
	"SR_CARRY":    strconv.FormatUint(uint64(alu.SR_CARRY), 10),
	"SR_OVERFLOW": strconv.FormatUint(uint64(alu.SR_OVERFLOW), 10),
	"SR_SIGN":     strconv.FormatUint(uint64(alu.SR_SIGN), 10),
	"SR_INT":      strconv.FormatUint(uint64(alu.SR_INT), 10),
}

// Cpu is the simulation context of the processor, its memory and devices.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [REGISTERS]*word.Word // General purpose registers; r7 is SP.
	Pc       *word.Word
	Sr       *word.Word
	Ir       *word.Word
	Mar      *word.Word
	Mdr      *word.Word
	Ib       *word.Word // Internal bus.

	Alu    *alu.Alu
	Memory *memory.Memory
	Io     *io.Manager
	Table  *isa.Table
	Umem   *ucode.Umem
	Uc     Uc // Control unit.

	Pulses int // Clock pulses since reset.

	hub *notify.Hub
}

// NewCpu creates a processor for an instruction table, with an empty
// address space. A nil table selects isa.Default.
func NewCpu(table *isa.Table, hub *notify.Hub) (cpu *Cpu) {
	if table == nil {
		table = isa.Default
	}

	cpu = &Cpu{
		Pc:     word.New("pc", hub),
		Sr:     word.New("sr", hub),
		Ir:     word.New("ir", hub),
		Mar:    word.New("mar", hub),
		Mdr:    word.New("mdr", hub),
		Ib:     word.New("ib", hub),
		Alu:    alu.New(hub),
		Memory: memory.New(hub),
		Io:     io.NewManager(hub),
		Table:  table,
		Umem:   ucode.New(table),
		hub:    hub,
	}

	for n := range cpu.Register {
		cpu.Register[n] = word.New(fmt.Sprintf("r%d", n), hub)
	}

	cpu.Memory.SetDevices(cpu.Io)
	cpu.Io.Link(cpu.Memory)

	cpu.Reset()

	return
}

// Defines for the assembler.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// SetVerbose sets the verbosity of every unit.
func (cpu *Cpu) SetVerbose(verbose bool) {
	cpu.Verbose = verbose
	cpu.Alu.Verbose = verbose
	cpu.Memory.Verbose = verbose
	cpu.Io.Verbose = verbose
}

// Sp returns the stack pointer register.
func (cpu *Cpu) Sp() *word.Word {
	return cpu.Register[REGISTER_SP]
}

// Reset the CPU state.
//   - Zeros the registers, then sets PC to RESET_PC.
//   - Clears the ALU, the staged memory access and the buses.
//   - Resets every device.
//   - Returns the control unit to the fetch sequence in step mode.
//
// Memory contents are kept. Resetting twice is the same as once.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		logrus.Debug("cpu: reset")
	}

	for _, reg := range cpu.Register {
		reg.Reset()
	}
	cpu.Sr.Reset()
	cpu.Ir.Reset()
	cpu.Mar.Reset()
	cpu.Mdr.Reset()
	cpu.Ib.Reset()
	cpu.Pc.Set(RESET_PC)

	cpu.Alu.Reset()
	cpu.Memory.Reset()
	cpu.Io.Reset()

	cpu.Uc.reset()
	cpu.Pulses = 0

	cpu.hub.Publish(notify.Event{
		Kind:   notify.EVENT_UC_RESET,
		Source: "uc",
	})
}

// ClockPulse advances the whole machine by one pulse: the staged memory
// access first, then the devices, then one micro-step.
func (cpu *Cpu) ClockPulse() (fin bool, err error) {
	cpu.Pulses++

	loaded, err := cpu.Memory.ClockPulse()
	if err != nil {
		cpu.Uc.Halted = true
		err = &ErrStep{Pointer: cpu.Uc.Pointer, Step: cpu.Uc.Step, Err: err}
		return
	}
	if loaded {
		cpu.Mdr.Set(cpu.Memory.DataBus.Get())
	}

	cpu.Io.ClockPulse()
	cpu.Uc.Interrupt = cpu.Io.Interrupting()

	return cpu.RunStep()
}

// registerNames are the names shown by String, in order.
var registerNames = []string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"pc", "sr", "ir", "mar", "mdr", "ib", "tmpe", "tmps",
}

// Lookup finds a register by name. "sp" is an alias of r7.
func (cpu *Cpu) Lookup(name string) (reg *word.Word, err error) {
	name = strings.ToLower(name)
	switch name {
	case "sp":
		reg = cpu.Sp()
	case "pc":
		reg = cpu.Pc
	case "sr":
		reg = cpu.Sr
	case "ir":
		reg = cpu.Ir
	case "mar":
		reg = cpu.Mar
	case "mdr":
		reg = cpu.Mdr
	case "ib":
		reg = cpu.Ib
	case "tmpe":
		reg = cpu.Alu.Tmpe
	case "tmps":
		reg = cpu.Alu.Tmps
	default:
		if len(name) == 2 && name[0] == 'r' && name[1] >= '0' && name[1] < '0'+REGISTERS {
			reg = cpu.Register[name[1]-'0']
			return
		}
		err = fmt.Errorf("%w: %v", ErrRegister, name)
	}
	return
}

// SetRegister loads a register by name, rejecting values outside 16 bits.
// Loading MAR or MDR also drives the matching memory bus.
func (cpu *Cpu) SetRegister(name string, value int) (err error) {
	reg, err := cpu.Lookup(name)
	if err != nil {
		return
	}

	err = reg.SetInt(value)
	if err != nil {
		return
	}

	switch reg {
	case cpu.Mar:
		cpu.Memory.AddressBus.Set(reg.Get())
	case cpu.Mdr:
		cpu.Memory.DataBus.Set(reg.Get())
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for _, name := range registerNames {
		reg, _ := cpu.Lookup(name)
		text += fmt.Sprintf("% 5s: %v\n", name, word.FormatHex(reg.Get()))
	}

	flags := []byte("izcos")
	for n, bit := range []uint{alu.SR_INT, alu.SR_ZERO, alu.SR_CARRY, alu.SR_OVERFLOW, alu.SR_SIGN} {
		if cpu.Sr.Bit(bit) {
			flags[n] -= 'a' - 'A'
		}
	}
	text += fmt.Sprintf("% 5s: %s\n", "flags", flags)
	text += fmt.Sprintf("% 5s: %v\n", "uc", cpu.Uc.String())

	return
}
