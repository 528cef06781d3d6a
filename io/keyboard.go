package io

import (
	"encoding/json"
)

const (
	KEYBOARD_DATA   = 0 // Read takes the oldest key; write queues a key.
	KEYBOARD_STATUS = 1 // Read gives the keys waiting; write flushes.
	KEYBOARD_SIZE   = 2

	// KEYBOARD_DEFAULT_CAPACITY is the key buffer size of a new keyboard.
	KEYBOARD_DEFAULT_CAPACITY = 16
)

// Keyboard is an interrupting input device with a bounded key buffer.
// A buffered key raises an interrupt; once acknowledged the request stays
// down until the handler reads the data cell.
type Keyboard struct {
	window

	Buffer  []uint16 // Keys waiting, oldest first.
	Acked   bool     // Request acknowledged, waiting for the data read.
	Waiting int      // Pulses spent interrupting since the last read.
}

var _ InterruptingDevice = (*Keyboard)(nil)

// NewKeyboard creates a keyboard.
func NewKeyboard(cfg Config) (kbd *Keyboard, err error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = KEYBOARD_DEFAULT_CAPACITY
	}
	if cfg.Capacity < 0 || cfg.Vector < 0 || cfg.Vector > 0xff {
		err = &ErrDevice{Name: cfg.Name, Err: ErrDeviceConfig}
		return
	}

	kbd = &Keyboard{
		window: window{cfg: cfg, size: KEYBOARD_SIZE},
	}

	return
}

// PushKey queues a key, as if typed.
func (kbd *Keyboard) PushKey(key uint16) (err error) {
	if len(kbd.Buffer) >= kbd.cfg.Capacity {
		err = &ErrDevice{Name: kbd.cfg.Name, Err: ErrDeviceFull}
		return
	}

	kbd.Buffer = append(kbd.Buffer, key)
	return
}

// GetPos reads the data or status cell.
func (kbd *Keyboard) GetPos(offset int) (value uint16, err error) {
	err = kbd.check(offset)
	if err != nil {
		return
	}

	switch offset {
	case KEYBOARD_DATA:
		if len(kbd.Buffer) == 0 {
			return
		}
		value = kbd.Buffer[0]
		kbd.Buffer = kbd.Buffer[1:]
		kbd.Acked = false
		kbd.Waiting = 0
	case KEYBOARD_STATUS:
		value = uint16(len(kbd.Buffer))
	}

	return
}

// SetPos queues a key on the data cell, or flushes on the status cell.
func (kbd *Keyboard) SetPos(offset int, value uint16) (err error) {
	err = kbd.check(offset)
	if err != nil {
		return
	}

	switch offset {
	case KEYBOARD_DATA:
		err = kbd.PushKey(value)
	case KEYBOARD_STATUS:
		kbd.Buffer = nil
		kbd.Acked = false
	}

	return
}

// IsInterrupting returns true while a key waits unacknowledged.
func (kbd *Keyboard) IsInterrupting() bool {
	return kbd.cfg.Int && len(kbd.Buffer) > 0 && !kbd.Acked
}

// Acknowledge accepts the request.
func (kbd *Keyboard) Acknowledge() (vector uint16) {
	kbd.Acked = true
	return uint16(kbd.cfg.Vector)
}

// ClockPulse counts the pulses the request has waited.
func (kbd *Keyboard) ClockPulse() {
	kbd.Waiting++
}

// Reset empties the buffer.
func (kbd *Keyboard) Reset() {
	kbd.Buffer = nil
	kbd.Acked = false
	kbd.Waiting = 0
}

type keyboardState struct {
	Buffer  []uint16 `json:"buffer"`
	Acked   bool     `json:"acked"`
	Waiting int      `json:"waiting"`
}

// State serialises the buffer and handshake.
func (kbd *Keyboard) State() (json.RawMessage, error) {
	return json.Marshal(&keyboardState{
		Buffer:  kbd.Buffer,
		Acked:   kbd.Acked,
		Waiting: kbd.Waiting,
	})
}

// SetState restores the buffer and handshake.
func (kbd *Keyboard) SetState(state json.RawMessage) (err error) {
	var ks keyboardState
	err = json.Unmarshal(state, &ks)
	if err != nil {
		return
	}

	if len(ks.Buffer) > kbd.cfg.Capacity {
		err = &ErrDevice{Name: kbd.cfg.Name, Err: ErrDeviceState}
		return
	}

	kbd.Buffer = ks.Buffer
	kbd.Acked = ks.Acked
	kbd.Waiting = ks.Waiting
	return
}
