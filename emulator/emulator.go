// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/asm"
	"github.com/ezrec/micro16/config"
	"github.com/ezrec/micro16/cpu"
	"github.com/ezrec/micro16/internal"
	dev "github.com/ezrec/micro16/io"
	"github.com/ezrec/micro16/memory"
	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/translate"
)

const (
	KEY_QUEUE = 64 // Keys waiting to be delivered to the keyboard.
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%#x", memory.SIZE),
}

// Emulator state. CPU + memory + devices, and the clock that drives them.
type Emulator struct {
	Verbose  bool          // If set, enables verbose logging.
	*cpu.Cpu               // Reference to the CPU simulation.
	Program  *asm.Program  // Reference to the currently running program listing.
	Interval time.Duration // Delay between clock pulses in Run.
	Hub      *notify.Hub   // Notifications from every unit.

	Translator *translate.Translator // Language of the runtime errors.

	Output     io.Writer   // Where screen devices echo their text.
	TapeInput  io.Reader   // Tape read by tape devices.
	TapeOutput io.Writer   // Tape punched by tape devices.
	Keys       chan uint16 // Keys for the first keyboard, delivered between pulses.

	lineno int
	pc     uint16
	stop   atomic.Bool
}

// NewEmulator creates a new emulator, with the default configuration.
func NewEmulator() (emu *Emulator) {
	hub := &notify.Hub{}

	emu = &Emulator{
		Cpu:     cpu.NewCpu(nil, hub),
		Program: &asm.Program{},
		Hub:     hub,
		Keys:    make(chan uint16, KEY_QUEUE),

		Translator: translate.Host(),
	}

	err := emu.Configure(config.Default())
	if err != nil {
		panic(err)
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.deviceDefines(),
	)
}

// deviceDefines names the cells and vectors of the devices.
func (emu *Emulator) deviceDefines() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, device := range emu.Io.Devices() {
			cfg := device.Config()
			name := strings.ToUpper(cfg.Name)
			if !yield(name+"_BASE", fmt.Sprintf("%#x", cfg.Base)) {
				return
			}
			if _, ok := device.(dev.InterruptingDevice); ok && cfg.Int {
				if !yield(name+"_VECTOR", fmt.Sprintf("%#x", cfg.Vector)) {
					return
				}
			}
		}
	}
}

// Configure rebuilds the machine from a configuration: memory modules,
// devices, clock interval, and the program to load.
// Every module and device error is reported.
func (emu *Emulator) Configure(cfg *config.Config) (err error) {
	err = cfg.Check()
	if err != nil {
		return
	}

	emu.Verbose = cfg.Verbose
	emu.Interval = cfg.Pulse.Duration

	emu.Translator = translate.Host()
	if cfg.Language != "" {
		emu.Translator = translate.New(cfg.Language)
	}

	emu.Io.Clear()
	for _, mod := range emu.Memory.Modules() {
		err = emu.Memory.RemoveModule(mod.Address)
		if err != nil {
			return
		}
	}

	if len(cfg.ModuleSizes) != 0 {
		emu.Memory.Sizes = append([]int(nil), cfg.ModuleSizes...)
	}

	var errs []error
	for _, mod := range cfg.Module {
		errs = append(errs, emu.Memory.AddModule(mod.Address, mod.Size))
	}

	for _, dc := range cfg.Device {
		device, derr := dev.Create(dc)
		if derr != nil {
			errs = append(errs, derr)
			continue
		}
		errs = append(errs, emu.Io.AddDevice(device))
	}

	err = errors.Join(errs...)
	if err != nil {
		return
	}

	emu.attach()
	emu.Program = &asm.Program{}
	emu.Cpu.Reset()

	switch {
	case cfg.Source != "":
		err = emu.loadFile(cfg.Source, emu.LoadSource)
	case cfg.Program != "":
		err = emu.loadFile(cfg.Program, emu.LoadTokens)
	}

	return
}

func (emu *Emulator) loadFile(path string, load func(io.Reader) error) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	err = load(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}
	return
}

// attach connects the screens and tapes to their streams.
func (emu *Emulator) attach() {
	for _, device := range emu.Io.Devices() {
		switch device := device.(type) {
		case *dev.Screen:
			device.Out = emu.Output
		case *dev.Tape:
			device.Input = emu.TapeInput
			device.Output = emu.TapeOutput
		}
	}
}

// SetOutput changes where screen devices echo their text.
func (emu *Emulator) SetOutput(out io.Writer) {
	emu.Output = out
	emu.attach()
}

// SetTape changes the tapes read and punched by tape devices.
func (emu *Emulator) SetTape(input io.Reader, output io.Writer) {
	emu.TapeInput = input
	emu.TapeOutput = output
	emu.attach()
}

// Keyboard returns the first keyboard device.
func (emu *Emulator) Keyboard() (kbd *dev.Keyboard, ok bool) {
	for _, device := range emu.Io.Devices() {
		kbd, ok = device.(*dev.Keyboard)
		if ok {
			return
		}
	}
	return
}

// LoadSource assembles a program, with the machine defines, and loads it.
func (emu *Emulator) LoadSource(r io.Reader) (err error) {
	assembler := &asm.Assembler{
		Verbose: emu.Verbose,
		Table:   emu.Table,
	}
	for key, value := range emu.Defines() {
		assembler.Predefine(key, value)
	}

	prog, err := assembler.Parse(r)
	if err != nil {
		return
	}

	err = emu.Cpu.LoadProgram(prog.Tokens())
	if err != nil {
		return
	}

	emu.Program = prog
	return
}

// LoadTokens loads a program in the load format, from whitespace
// separated hex tokens.
func (emu *Emulator) LoadTokens(r io.Reader) (err error) {
	var tokens []string

	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	err = emu.Cpu.LoadProgram(tokens)
	if err != nil {
		return
	}

	emu.Program = &asm.Program{}
	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(int(emu.Pc.Get()))
}

// keys delivers waiting keys to the keyboard.
func (emu *Emulator) keys() {
	for {
		select {
		case key := <-emu.Keys:
			kbd, ok := emu.Keyboard()
			if !ok {
				continue
			}
			err := kbd.PushKey(key)
			if err != nil {
				logrus.Warn(err)
			}
		default:
			return
		}
	}
}

// Step performs a single clock pulse of the emulator.
func (emu *Emulator) Step() (fin bool, err error) {
	// Set CPU verbosity
	emu.Cpu.SetVerbose(emu.Verbose)

	emu.keys()

	if emu.Uc.Step == 0 {
		emu.lineno = emu.LineNo()
		emu.pc = emu.Pc.Get()
	}

	fin, err = emu.Cpu.ClockPulse()
	if err != nil {
		err = &ErrRuntime{LineNo: emu.lineno, Pc: emu.pc, Err: err, tr: emu.Translator}
	}

	return
}

// RunInstruction pulses the clock up to the next instruction boundary.
// In manual mode there are no boundaries, and only one pulse is given.
func (emu *Emulator) RunInstruction(ctx context.Context) (err error) {
	for {
		var fin bool
		fin, err = emu.Step()
		if err != nil || fin || emu.Uc.Mode == cpu.MODE_MANUAL {
			return
		}

		err = ctx.Err()
		if err != nil {
			return
		}
	}
}

// Run starts the clock. It returns when the control unit halts, Stop is
// called, or ctx is done. In step and manual modes a single pulse is given.
// Stop is the only method that may be called while Run is active.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	emu.stop.Store(false)
	emu.Uc.Halted = false

	var tick <-chan time.Time
	if emu.Interval > 0 {
		ticker := time.NewTicker(emu.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	if emu.Verbose {
		logrus.WithFields(logrus.Fields{
			"mode":     emu.Uc.Mode.String(),
			"interval": emu.Interval,
		}).Info("run")
	}

	for {
		_, err = emu.Step()
		if err != nil {
			return
		}

		switch {
		case emu.Uc.Halted:
			return
		case emu.Uc.Mode == cpu.MODE_STEP, emu.Uc.Mode == cpu.MODE_MANUAL:
			return
		case emu.stop.Load():
			return
		}

		if tick == nil {
			err = ctx.Err()
			if err != nil {
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-tick:
		}
	}
}

// Stop requests a running clock to stop after the current pulse.
func (emu *Emulator) Stop() {
	emu.stop.Store(true)
}

// Save writes the machine state.
func (emu *Emulator) Save(w io.Writer) (err error) {
	snap, err := emu.Cpu.Backup()
	if err != nil {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Load replaces the machine state with one written by Save.
func (emu *Emulator) Load(r io.Reader) (err error) {
	var snap cpu.Snapshot
	err = json.NewDecoder(r).Decode(&snap)
	if err != nil {
		err = fmt.Errorf("%w: %w", cpu.ErrSnapshot, err)
		return
	}

	err = emu.Cpu.Restore(&snap)
	if err != nil {
		return
	}

	emu.attach()
	return
}
