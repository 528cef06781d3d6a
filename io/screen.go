package io

import (
	"encoding/json"
	"io"
	"unicode/utf8"
)

const (
	SCREEN_DATA    = 0 // Write prints a character; read gives the last one.
	SCREEN_CONTROL = 1 // Write clears; read gives the characters shown.
	SCREEN_SIZE    = 2

	// SCREEN_DEFAULT_CAPACITY is one 80x25 page.
	SCREEN_DEFAULT_CAPACITY = 80 * 25
)

// Screen is a text output device. Characters written are kept, up to
// its capacity, and copied to Out when set.
type Screen struct {
	window

	Out  io.Writer // Optional echo of every character.
	Text []uint16
}

var _ Device = (*Screen)(nil)

// NewScreen creates a screen.
func NewScreen(cfg Config) (scr *Screen, err error) {
	if cfg.Capacity == 0 {
		cfg.Capacity = SCREEN_DEFAULT_CAPACITY
	}
	if cfg.Capacity < 0 {
		err = &ErrDevice{Name: cfg.Name, Err: ErrDeviceConfig}
		return
	}

	scr = &Screen{
		window: window{cfg: cfg, size: SCREEN_SIZE},
	}

	return
}

// GetPos reads the data or control cell.
func (scr *Screen) GetPos(offset int) (value uint16, err error) {
	err = scr.check(offset)
	if err != nil {
		return
	}

	switch offset {
	case SCREEN_DATA:
		if len(scr.Text) > 0 {
			value = scr.Text[len(scr.Text)-1]
		}
	case SCREEN_CONTROL:
		value = uint16(len(scr.Text))
	}

	return
}

// SetPos prints on the data cell, or clears on the control cell.
func (scr *Screen) SetPos(offset int, value uint16) (err error) {
	err = scr.check(offset)
	if err != nil {
		return
	}

	switch offset {
	case SCREEN_DATA:
		if len(scr.Text) >= scr.cfg.Capacity {
			err = &ErrDevice{Name: scr.cfg.Name, Err: ErrDeviceFull}
			return
		}
		scr.Text = append(scr.Text, value)
		if scr.Out != nil {
			buf := utf8.AppendRune(nil, rune(value))
			_, err = scr.Out.Write(buf)
			if err != nil {
				err = &ErrDevice{Name: scr.cfg.Name, Err: err}
			}
		}
	case SCREEN_CONTROL:
		scr.Text = nil
	}

	return
}

// String returns the text shown.
func (scr *Screen) String() string {
	runes := make([]rune, len(scr.Text))
	for n, c := range scr.Text {
		runes[n] = rune(c)
	}
	return string(runes)
}

// Reset clears the screen.
func (scr *Screen) Reset() {
	scr.Text = nil
}

// State serialises the text shown.
func (scr *Screen) State() (json.RawMessage, error) {
	return json.Marshal(scr.Text)
}

// SetState restores the text shown.
func (scr *Screen) SetState(state json.RawMessage) (err error) {
	var text []uint16
	err = json.Unmarshal(state, &text)
	if err != nil {
		return
	}

	if len(text) > scr.cfg.Capacity {
		err = &ErrDevice{Name: scr.cfg.Name, Err: ErrDeviceState}
		return
	}

	scr.Text = text
	return
}
