// Package io provides the memory mapped devices of the machine and the
// controller that registers them, checks their address windows and
// arbitrates their interrupts.
package io

import (
	"encoding/json"
	"strings"
)

// Device is a memory mapped device.
type Device interface {
	// Config returns the registration settings of the device.
	Config() Config
	// Size is the number of cells the device claims.
	Size() int
	// GetPos reads the cell at a device relative offset.
	GetPos(offset int) (value uint16, err error)
	// SetPos writes the cell at a device relative offset.
	SetPos(offset int, value uint16) (err error)
	// Reset returns the device to its power-on state.
	Reset()
	// State serialises the device specific state.
	State() (state json.RawMessage, err error)
	// SetState restores the device specific state.
	SetState(state json.RawMessage) (err error)
}

// InterruptingDevice is a device that can raise interrupts.
type InterruptingDevice interface {
	Device
	// IsInterrupting returns true while the device requests service.
	IsInterrupting() bool
	// Acknowledge accepts the request and returns the vector.
	Acknowledge() (vector uint16)
	// ClockPulse is delivered on each pulse while interrupting.
	ClockPulse()
}

// Config are the registration settings of a device.
type Config struct {
	Type     string `json:"type" toml:"type"`
	Name     string `json:"name" toml:"name"`
	Base     int    `json:"base" toml:"base"`
	Int      bool   `json:"int" toml:"int"`           // Interrupts enabled.
	Priority int    `json:"priority" toml:"priority"` // Lower wins.
	Vector   int    `json:"vector" toml:"vector"`     // Vector table cell.
	Capacity int    `json:"capacity,omitempty" toml:"capacity"`
}

// Label is the short tag shown for the device cells of a memory view.
func (cfg Config) Label() string {
	label := strings.ToUpper(cfg.Name)
	if len(label) > 4 {
		label = label[:4]
	}
	return label
}

// window implements the common part of every device.
type window struct {
	cfg  Config
	size int
}

// Config returns the registration settings.
func (w *window) Config() Config {
	return w.cfg
}

// Size returns the number of cells.
func (w *window) Size() int {
	return w.size
}

// check validates an offset.
func (w *window) check(offset int) (err error) {
	if offset < 0 || offset >= w.size {
		err = &ErrDevice{Name: w.cfg.Name, Err: ErrDeviceOffset}
	}
	return
}
