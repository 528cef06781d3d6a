package cpu

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/alu"
	"github.com/ezrec/micro16/isa"
	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/signal"
)

// Mode is the clocking mode of the control unit.
type Mode int

const (
	MODE_STEP        = Mode(iota) // One micro-step per request.
	MODE_INSTRUCTION              // Run until the next instruction boundary.
	MODE_AUTO                     // Run until stopped.
	MODE_MANUAL                   // Run the hand loaded signal set.
)

var modeNames = [...]string{"step", "instruction", "auto", "manual"}

func (mode Mode) String() string {
	if mode < 0 || int(mode) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[mode]
}

// ParseMode finds a mode by name.
func ParseMode(name string) (mode Mode, err error) {
	for n, text := range modeNames {
		if text == name {
			mode = Mode(n)
			return
		}
	}
	err = fmt.Errorf("%w: %v", ErrMode, name)
	return
}

// Automatic returns true if rows come from the micro-program.
func (mode Mode) Automatic() bool {
	return mode != MODE_MANUAL
}

// Uc is the control unit state.
type Uc struct {
	Pointer   int    // Micro-address of the next row.
	Step      int    // Steps taken in the current instruction.
	Mode      Mode   // Clocking mode.
	Interrupt bool   // A device requested service on the last pulse.
	Halted    bool   // The clock was stopped by an error or an instruction boundary.
	Decoded   uint16 // Instruction word the rows are bound from.

	inst   *isa.Instruction
	manual signal.Set
}

func (uc *Uc) reset() {
	uc.Pointer = 0
	uc.Step = 0
	uc.Mode = MODE_STEP
	uc.Interrupt = false
	uc.Halted = false
	uc.Decoded = 0
	uc.inst = isa.Nop
	uc.manual.Clear()
}

// Instruction returns the instruction the rows are bound from.
func (uc *Uc) Instruction() *isa.Instruction {
	if uc.inst == nil {
		return isa.Nop
	}
	return uc.inst
}

func (uc *Uc) String() string {
	return fmt.Sprintf("%v @%d step %d [%v]", uc.Mode, uc.Pointer, uc.Step, uc.Instruction().Render(uc.Decoded))
}

// SetMode changes the clocking mode. Leaving or entering manual mode
// discards the loaded signal set.
func (cpu *Cpu) SetMode(mode Mode) (err error) {
	if mode < MODE_STEP || mode > MODE_MANUAL {
		err = fmt.Errorf("%w: %d", ErrMode, int(mode))
		return
	}

	if (mode == MODE_MANUAL) != (cpu.Uc.Mode == MODE_MANUAL) {
		cpu.Uc.manual.Clear()
	}
	cpu.Uc.Mode = mode
	return
}

// LoadSignals replaces the manual signal set. Each signal is checked
// against the ones before it and the memory access in progress.
func (cpu *Cpu) LoadSignals(names []string) (err error) {
	if cpu.Uc.Mode != MODE_MANUAL {
		err = ErrNotManual
		return
	}

	set := signal.Set{Memory: cpu.Memory.State()}
	for _, name := range names {
		err = set.AddSignal(name)
		if err != nil {
			return
		}
	}

	cpu.Uc.manual = set
	return
}

// Signals returns the loaded manual signal names.
func (cpu *Cpu) Signals() []string {
	return cpu.Uc.manual.Names()
}

// row selects the row for this step: the manual set, or the micro-program
// row bound to the decoded instruction.
func (cpu *Cpu) row() (row signal.Row, err error) {
	uc := &cpu.Uc

	if !uc.Mode.Automatic() {
		uc.manual.Memory = cpu.Memory.State()
		err = uc.manual.Validate()
		if err != nil {
			return
		}
		row = uc.manual.Row()
		uc.manual.Clear()
		return
	}

	row = cpu.Umem.Row(uc.Pointer)
	if !row.Concrete() {
		row = row.Bind(uc.Instruction().Binding(uc.Decoded))
	}
	return
}

// RunStep executes one row of signals and advances the control unit.
// Signals run in the order given, each seeing the effects of those before.
//
// At fin, outside manual mode, the next row is the interrupt sequence if
// a device is requesting service and SR.I is set, otherwise the fetch
// sequence. A row that loads IR decodes the new instruction and jumps to
// its micro-steps. An error stops the clock; signals already executed in
// the row are not undone.
func (cpu *Cpu) RunStep() (fin bool, err error) {
	uc := &cpu.Uc
	pointer, step := uc.Pointer, uc.Step

	defer func() {
		if err != nil {
			uc.Halted = true
			if cpu.Verbose {
				logrus.WithFields(logrus.Fields{
					"pointer": pointer,
					"step":    step,
				}).Warn(err)
			}
		}
	}()

	row, err := cpu.row()
	if err != nil {
		err = &ErrStep{Pointer: pointer, Step: step, Err: err}
		return
	}

	cpu.Alu.CarryIn = false

	if cpu.Verbose {
		logrus.WithFields(logrus.Fields{
			"mode":    uc.Mode.String(),
			"pointer": pointer,
			"step":    step,
		}).Debug(row.String())
	}

	for _, sig := range row {
		err = cpu.Execute(sig)
		if err != nil {
			err = &ErrStep{Pointer: pointer, Step: step, Signal: sig.String(), Err: err}
			return
		}
	}

	uc.Step++
	cpu.hub.Publish(notify.Event{
		Kind:    notify.EVENT_STEP,
		Source:  "uc",
		New:     uint16(uc.Step),
		Address: pointer,
	})

	if row.Has(signal.OP_FIN) && uc.Mode.Automatic() {
		cpu.boundary()
		fin = true
		return
	}

	if uc.Mode.Automatic() {
		uc.Pointer++
	}

	if row.Has(signal.OP_IB_IR) {
		err = cpu.decode()
		if err != nil {
			err = &ErrStep{Pointer: pointer, Step: step, Err: err}
			return
		}
	}

	return
}

// boundary ends the current instruction.
func (cpu *Cpu) boundary() {
	uc := &cpu.Uc

	cpu.hub.Publish(notify.Event{
		Kind:    notify.EVENT_INSTRUCTION,
		Source:  "uc",
		New:     uc.Decoded,
		Address: int(cpu.Pc.Get()),
		Text:    uc.Instruction().Render(uc.Decoded),
	})

	if uc.Interrupt && cpu.Sr.Bit(alu.SR_INT) {
		uc.Pointer = cpu.Umem.IntAddress
		cpu.hub.Publish(notify.Event{
			Kind:    notify.EVENT_INTERRUPT,
			Source:  "uc",
			Address: uc.Pointer,
			Text:    "service",
		})
	} else {
		uc.Pointer = 0
	}
	uc.Step = 0

	if uc.Mode == MODE_INSTRUCTION {
		uc.Halted = true
	}
}

// decode looks up the word in IR, resolving conditional branches against
// the current flags, and jumps to its micro-steps.
func (cpu *Cpu) decode() (err error) {
	uc := &cpu.Uc

	w := cpu.Ir.Get()
	inst, err := cpu.Table.Resolve(w, alu.FlagsOf(cpu.Sr.Get()))
	if err != nil {
		return
	}

	pointer, ok := cpu.Umem.Entry[inst.Opcode]
	if !ok {
		err = &isa.ErrDecode{Word: w, Err: isa.ErrNoInstruction}
		return
	}

	uc.Decoded = w
	uc.inst = inst
	uc.Pointer = pointer

	if cpu.Verbose {
		logrus.WithFields(logrus.Fields{
			"pc":   cpu.Pc.Get(),
			"word": w,
		}).Debug(inst.Render(w))
	}

	return
}
