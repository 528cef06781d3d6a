// Package memory models the address space of the machine: memory modules,
// device windows, and the staged two pulse read and write cycle driven
// from the address and data buses.
package memory

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/signal"
	"github.com/ezrec/micro16/word"
)

const (
	SIZE        = 0x10000 // Cells in the address space.
	KB          = 1024
	UNMAPPED    = "XXXX" // PeekPos label of an unmapped cell.
	STAGE_PULSE = 2      // Pulses from raising read or write to completion.
)

// DefaultSizes are the module sizes, in KB, allowed by default.
var DefaultSizes = []int{4, 8, 16, 32}

// Devices is the device window side of the address space.
type Devices interface {
	// Overlaps returns true if a device claims any address in start..last.
	Overlaps(start, last int) bool
	// Owns returns the device label if a device claims the address.
	Owns(address int) (label string, ok bool)
	// GetPos reads a device cell.
	GetPos(address int) (value uint16, err error)
	// SetPos writes a device cell.
	SetPos(address int, value uint16) (err error)
}

// Module is a block of memory.
type Module struct {
	Address int `json:"address"`
	SizeKb  int `json:"size"`
}

// Last returns the last address of the module.
func (mod Module) Last() int {
	return mod.Address + mod.SizeKb*KB - 1
}

// Contains returns true if the address is inside the module.
func (mod Module) Contains(address int) bool {
	return address >= mod.Address && address <= mod.Last()
}

// Memory is the address space.
type Memory struct {
	Verbose bool  // If set, log staged accesses.
	Sizes   []int // Allowed module sizes in KB.

	AddressBus *word.Word
	DataBus    *word.Word

	modules []Module
	cells   []uint16
	devices Devices

	state  signal.MemoryState
	pulses int

	hub *notify.Hub
}

// New creates an empty address space.
func New(hub *notify.Hub) *Memory {
	return &Memory{
		Sizes:      slices.Clone(DefaultSizes),
		AddressBus: word.New("address-bus", hub),
		DataBus:    word.New("data-bus", hub),
		cells:      make([]uint16, SIZE),
		hub:        hub,
	}
}

// SetDevices links the device controller.
func (mem *Memory) SetDevices(devices Devices) {
	mem.devices = devices
}

// Modules returns the modules, in address order.
func (mem *Memory) Modules() []Module {
	return slices.Clone(mem.modules)
}

// Overlaps returns true if a module claims any address in start..last.
func (mem *Memory) Overlaps(start, last int) bool {
	for _, mod := range mem.modules {
		if start <= mod.Last() && last >= mod.Address {
			return true
		}
	}
	return false
}

// checkModule validates a module against a size whitelist, the modules
// already placed, and the devices, if any.
func checkModule(mod Module, sizes []int, placed []Module, devices Devices) (err error) {
	if !slices.Contains(sizes, mod.SizeKb) {
		return ErrModuleSize
	}

	size := mod.SizeKb * KB
	if mod.Address < 0 || mod.Address+size > SIZE {
		return ErrModuleRange
	}

	for _, other := range placed {
		if mod.Address <= other.Last() && mod.Last() >= other.Address {
			return ErrModuleCollision
		}
	}

	if devices != nil && devices.Overlaps(mod.Address, mod.Last()) {
		return ErrModuleCollision
	}

	if mod.Address%size != 0 {
		return ErrModuleAlign
	}

	return
}

// AddModule maps a zeroed module of sizeKb at address.
func (mem *Memory) AddModule(address int, sizeKb int) (err error) {
	mod := Module{Address: address, SizeKb: sizeKb}
	size := sizeKb * KB

	err = checkModule(mod, mem.Sizes, mem.modules, mem.devices)
	if err != nil {
		err = &ErrAddress{Address: address, Err: err}
		return
	}

	clear(mem.cells[address : address+size])

	mem.modules = append(mem.modules, mod)
	slices.SortFunc(mem.modules, func(a, b Module) int { return a.Address - b.Address })

	mem.hub.Publish(notify.Event{
		Kind:    notify.EVENT_MODULE_ADDED,
		Source:  "memory",
		Address: address,
		Size:    sizeKb,
	})

	return
}

// RemoveModule unmaps the module starting at address.
func (mem *Memory) RemoveModule(address int) (err error) {
	n := slices.IndexFunc(mem.modules, func(mod Module) bool { return mod.Address == address })
	if n < 0 {
		err = &ErrAddress{Address: address, Err: ErrModuleMissing}
		return
	}

	mod := mem.modules[n]
	mem.modules = slices.Delete(mem.modules, n, n+1)
	clear(mem.cells[mod.Address : mod.Last()+1])

	mem.hub.Publish(notify.Event{
		Kind:    notify.EVENT_MODULE_REMOVED,
		Source:  "memory",
		Address: address,
		Size:    mod.SizeKb,
	})

	return
}

// Module returns the module owning an address.
func (mem *Memory) Module(address int) (mod Module, ok bool) {
	for _, mod = range mem.modules {
		if mod.Contains(address) {
			ok = true
			return
		}
	}
	mod = Module{}
	return
}

// Writable returns true if the address is module backed.
func (mem *Memory) Writable(address int) bool {
	_, ok := mem.Module(address)
	return ok
}

// GetPos reads a cell, delegating device windows to their device.
func (mem *Memory) GetPos(address int) (value uint16, err error) {
	if address < 0 || address >= SIZE {
		err = &ErrAddress{Address: address, Err: ErrRange}
		return
	}

	if mem.Writable(address) {
		value = mem.cells[address]
		return
	}

	if mem.devices != nil {
		if _, ok := mem.devices.Owns(address); ok {
			value, err = mem.devices.GetPos(address)
			return
		}
	}

	err = &ErrAddress{Address: address, Err: ErrUnmapped}
	return
}

// SetPos writes a cell, delegating device windows to their device.
func (mem *Memory) SetPos(address int, value uint16) (err error) {
	if address < 0 || address >= SIZE {
		err = &ErrAddress{Address: address, Err: ErrRange}
		return
	}

	if mem.Writable(address) {
		old := mem.cells[address]
		mem.cells[address] = value
		mem.hub.Publish(notify.Event{
			Kind:    notify.EVENT_MEMORY_EDITED,
			Source:  "memory",
			Address: address,
			Old:     old,
			New:     value,
		})
		return
	}

	if mem.devices != nil {
		if _, ok := mem.devices.Owns(address); ok {
			err = mem.devices.SetPos(address, value)
			return
		}
	}

	err = &ErrAddress{Address: address, Err: ErrUnmapped}
	return
}

// PeekPos renders a cell without device side effects: four hex digits for
// module cells, the device label for device windows, UNMAPPED otherwise.
func (mem *Memory) PeekPos(address int) string {
	if address >= 0 && address < SIZE && mem.Writable(address) {
		return word.FormatHex(mem.cells[address])
	}

	if mem.devices != nil {
		if label, ok := mem.devices.Owns(address); ok {
			return label
		}
	}

	return UNMAPPED
}

// State returns the staged access in progress.
func (mem *Memory) State() signal.MemoryState {
	return mem.state
}

// StartRead raises the read line.
func (mem *Memory) StartRead() error {
	return mem.start(signal.MEMORY_READ)
}

// StartWrite raises the write line.
func (mem *Memory) StartWrite() error {
	return mem.start(signal.MEMORY_WRITE)
}

func (mem *Memory) start(state signal.MemoryState) (err error) {
	if mem.state != signal.MEMORY_IDLE {
		err = &ErrAddress{Address: int(mem.AddressBus.Get()), Err: ErrBusy}
		return
	}

	mem.state = state
	mem.pulses = 0
	return
}

// ClockPulse advances a staged access. On the second pulse after the line
// was raised the access is performed against the address bus; a read
// places the value on the data bus and returns loaded.
func (mem *Memory) ClockPulse() (loaded bool, err error) {
	if mem.state == signal.MEMORY_IDLE {
		return
	}

	mem.pulses++
	if mem.pulses < STAGE_PULSE {
		return
	}

	state := mem.state
	mem.state = signal.MEMORY_IDLE
	mem.pulses = 0

	address := int(mem.AddressBus.Get())

	switch state {
	case signal.MEMORY_READ:
		var value uint16
		value, err = mem.GetPos(address)
		if err != nil {
			return
		}
		mem.DataBus.Set(value)
		loaded = true
	case signal.MEMORY_WRITE:
		value := mem.DataBus.Get()
		err = mem.SetPos(address, value)
		if err != nil {
			return
		}
	}

	if mem.Verbose {
		logrus.WithFields(logrus.Fields{
			"address": word.FormatHex(uint16(address)),
			"value":   word.FormatHex(mem.DataBus.Get()),
			"read":    state == signal.MEMORY_READ,
		}).Debug("memory")
	}

	return
}

// Reset drops any staged access and clears the buses. Contents are kept.
func (mem *Memory) Reset() {
	mem.state = signal.MEMORY_IDLE
	mem.pulses = 0
	mem.AddressBus.Reset()
	mem.DataBus.Reset()
}
