package io

import (
	"encoding/json"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/notify"
)

const (
	// VECTOR_TABLE_END is the last address reserved for the vector table.
	// Device bases must be above it.
	VECTOR_TABLE_END = 0x100
	// ADDRESS_LAST is the last address of the machine.
	ADDRESS_LAST = 0xffff
)

// Memory is the module side of the address space.
type Memory interface {
	// Overlaps returns true if a module claims any address in start..last.
	Overlaps(start, last int) bool
}

type entry struct {
	start  int
	size   int
	last   int
	device Device
}

// Manager is the device registry and interrupt controller.
type Manager struct {
	Verbose bool // If set, log registrations and acknowledges.

	entries []entry
	memory  Memory
	hub     *notify.Hub
}

// NewManager creates an empty device registry.
func NewManager(hub *notify.Hub) *Manager {
	return &Manager{hub: hub}
}

// Link attaches the memory whose modules devices must not collide with.
func (mgr *Manager) Link(memory Memory) {
	mgr.memory = memory
}

// AddDevice registers a device.
func (mgr *Manager) AddDevice(dev Device) (err error) {
	cfg := dev.Config()
	defer func() {
		if err != nil {
			err = &ErrDevice{Name: cfg.Name, Err: err}
		}
	}()

	if _, ok := mgr.Lookup(cfg.Name); ok {
		return ErrDeviceName
	}

	err = checkWindow(cfg, dev.Size(), mgr.entries, mgr.memory)
	if err != nil {
		return
	}

	last := cfg.Base + dev.Size() - 1
	mgr.entries = append(mgr.entries, entry{
		start:  cfg.Base,
		size:   dev.Size(),
		last:   last,
		device: dev,
	})

	if mgr.Verbose {
		logrus.WithFields(logrus.Fields{
			"name": cfg.Name,
			"type": cfg.Type,
			"base": cfg.Base,
			"size": dev.Size(),
		}).Info("device added")
	}

	mgr.hub.Publish(notify.Event{
		Kind:    notify.EVENT_DEVICE_ADDED,
		Source:  cfg.Name,
		Address: cfg.Base,
		Size:    dev.Size(),
		Text:    cfg.Type,
	})

	return
}

// checkWindow validates the address window of a device against the
// entries already placed and the memory modules.
func checkWindow(cfg Config, size int, placed []entry, memory Memory) (err error) {
	if memory == nil {
		return ErrDeviceLink
	}

	if cfg.Base <= VECTOR_TABLE_END {
		return ErrDeviceReserved
	}

	last := cfg.Base + size - 1
	if last > ADDRESS_LAST {
		return ErrDeviceRange
	}

	if overlapping(placed, cfg.Base, last) || memory.Overlaps(cfg.Base, last) {
		return ErrDeviceCollision
	}

	return
}

func overlapping(entries []entry, start, last int) bool {
	for _, e := range entries {
		if start <= e.last && last >= e.start {
			return true
		}
	}
	return false
}

// RemoveDevice unregisters a device by name.
func (mgr *Manager) RemoveDevice(name string) (err error) {
	n := slices.IndexFunc(mgr.entries, func(e entry) bool { return e.device.Config().Name == name })
	if n < 0 {
		err = &ErrDevice{Name: name, Err: ErrDeviceMissing}
		return
	}

	e := mgr.entries[n]
	mgr.entries = slices.Delete(mgr.entries, n, n+1)

	mgr.hub.Publish(notify.Event{
		Kind:    notify.EVENT_DEVICE_REMOVED,
		Source:  name,
		Address: e.start,
		Size:    e.size,
	})

	return
}

// Lookup finds a device by name.
func (mgr *Manager) Lookup(name string) (dev Device, ok bool) {
	for _, e := range mgr.entries {
		if e.device.Config().Name == name {
			return e.device, true
		}
	}
	return
}

// Devices lists the devices in declaration order.
func (mgr *Manager) Devices() (devs []Device) {
	for _, e := range mgr.entries {
		devs = append(devs, e.device)
	}
	return
}

// Overlaps returns true if a device claims any address in start..last.
func (mgr *Manager) Overlaps(start, last int) bool {
	return overlapping(mgr.entries, start, last)
}

func (mgr *Manager) find(address int) (e entry, ok bool) {
	for _, e = range mgr.entries {
		if address >= e.start && address <= e.last {
			ok = true
			return
		}
	}
	e = entry{}
	return
}

// Owns returns the label of the device claiming an address.
func (mgr *Manager) Owns(address int) (label string, ok bool) {
	e, ok := mgr.find(address)
	if ok {
		label = e.device.Config().Label()
	}
	return
}

// GetPos reads a device cell by absolute address.
func (mgr *Manager) GetPos(address int) (value uint16, err error) {
	e, ok := mgr.find(address)
	if !ok {
		err = ErrDeviceMissing
		return
	}
	return e.device.GetPos(address - e.start)
}

// SetPos writes a device cell by absolute address.
func (mgr *Manager) SetPos(address int, value uint16) (err error) {
	e, ok := mgr.find(address)
	if !ok {
		err = ErrDeviceMissing
		return
	}
	return e.device.SetPos(address-e.start, value)
}

// GetIntDevices returns the devices with interrupts enabled that are
// currently interrupting, in declaration order.
func (mgr *Manager) GetIntDevices() (devs []InterruptingDevice) {
	for _, e := range mgr.entries {
		idev, ok := e.device.(InterruptingDevice)
		if !ok || !e.device.Config().Int {
			continue
		}
		if idev.IsInterrupting() {
			devs = append(devs, idev)
		}
	}
	return
}

// GetNextInt returns the interrupting device with the lowest priority
// value. Ties go to the earliest declared.
func (mgr *Manager) GetNextInt() (next InterruptingDevice, ok bool) {
	for _, dev := range mgr.GetIntDevices() {
		if !ok || dev.Config().Priority < next.Config().Priority {
			next = dev
			ok = true
		}
	}
	return
}

// Interrupting returns true if any device requests service.
func (mgr *Manager) Interrupting() bool {
	return len(mgr.GetIntDevices()) > 0
}

// Acknowledge acknowledges the next interrupting device, returning its vector.
func (mgr *Manager) Acknowledge() (vector uint16, ok bool) {
	dev, ok := mgr.GetNextInt()
	if !ok {
		return
	}

	vector = dev.Acknowledge()

	if mgr.Verbose {
		logrus.WithFields(logrus.Fields{
			"name":   dev.Config().Name,
			"vector": vector,
		}).Info("interrupt acknowledged")
	}

	mgr.hub.Publish(notify.Event{
		Kind:   notify.EVENT_INTERRUPT,
		Source: dev.Config().Name,
		New:    vector,
	})

	return
}

// ClockPulse forwards a pulse to the devices currently interrupting.
func (mgr *Manager) ClockPulse() {
	for _, dev := range mgr.GetIntDevices() {
		dev.ClockPulse()
	}
}

// Reset resets every device.
func (mgr *Manager) Reset() {
	for _, e := range mgr.entries {
		e.device.Reset()
	}
}

// DeviceState is the serialisable form of one registered device.
type DeviceState struct {
	Config Config          `json:"config"`
	State  json.RawMessage `json:"state"`
}

// Backup captures every device in declaration order.
func (mgr *Manager) Backup() (states []DeviceState, err error) {
	for _, e := range mgr.entries {
		var state json.RawMessage
		state, err = e.device.State()
		if err != nil {
			err = &ErrDevice{Name: e.device.Config().Name, Err: err}
			return
		}
		states = append(states, DeviceState{Config: e.device.Config(), State: state})
	}
	return
}

// Clear unregisters every device.
func (mgr *Manager) Clear() {
	for len(mgr.entries) > 0 {
		_ = mgr.RemoveDevice(mgr.entries[0].device.Config().Name)
	}
}

// prepare creates the devices of states and checks them as a set against
// the modules of memory.
func prepare(states []DeviceState, memory Memory) (devs []Device, err error) {
	placed := make([]entry, 0, len(states))
	names := map[string]bool{}

	for _, ds := range states {
		var dev Device
		dev, err = Create(ds.Config)
		if err != nil {
			return
		}

		if len(ds.State) != 0 {
			err = dev.SetState(ds.State)
		}
		if err == nil && names[ds.Config.Name] {
			err = ErrDeviceName
		}
		if err == nil {
			err = checkWindow(ds.Config, dev.Size(), placed, memory)
		}
		if err != nil {
			err = &ErrDevice{Name: ds.Config.Name, Err: err}
			return
		}

		names[ds.Config.Name] = true
		placed = append(placed, entry{
			start: ds.Config.Base,
			size:  dev.Size(),
			last:  ds.Config.Base + dev.Size() - 1,
		})
		devs = append(devs, dev)
	}

	return
}

// CheckRestore checks that states can be restored over the modules of
// memory, without touching the registry.
func (mgr *Manager) CheckRestore(states []DeviceState, memory Memory) (err error) {
	_, err = prepare(states, memory)
	return
}

// Restore replaces the registry with devices created from states.
// Nothing is replaced if any device is refused.
func (mgr *Manager) Restore(states []DeviceState) (err error) {
	devs, err := prepare(states, mgr.memory)
	if err != nil {
		return
	}

	mgr.Clear()
	for _, dev := range devs {
		err = mgr.AddDevice(dev)
		if err != nil {
			return
		}
	}

	return
}
