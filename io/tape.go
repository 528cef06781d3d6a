package io

import (
	"encoding/json"
	"errors"
	"io"
)

const (
	TAPE_DATA   = 0 // Read takes the next byte, or TAPE_EOF; write punches a byte.
	TAPE_STATUS = 1 // Read gives the bytes read so far; writes are ignored.
	TAPE_SIZE   = 2

	TAPE_EOF = 0xffff // Data cell value past the end of the input.
)

// Tape provides sequential I/O for reading and writing byte streams.
// It wraps an io.Reader for input and io.Writer for output. Rewind is
// not possible on a tape.
type Tape struct {
	window

	Input  io.Reader // Tape being read, or nil.
	Output io.Writer // Tape being punched, or nil.

	Read    int  // Bytes read.
	Punched int  // Bytes punched.
	Ended   bool // Input reached its end.
}

var _ Device = (*Tape)(nil)

// NewTape creates a tape reader and punch.
func NewTape(cfg Config) (tape *Tape, err error) {
	tape = &Tape{
		window: window{cfg: cfg, size: TAPE_SIZE},
	}
	return
}

// GetPos reads the next byte, or the count of bytes read.
func (tape *Tape) GetPos(offset int) (value uint16, err error) {
	err = tape.check(offset)
	if err != nil {
		return
	}

	if offset == TAPE_STATUS {
		value = uint16(tape.Read)
		return
	}

	value = TAPE_EOF
	if tape.Input == nil || tape.Ended {
		return
	}

	var one [1]byte
	_, err = io.ReadFull(tape.Input, one[:])
	if errors.Is(err, io.EOF) {
		tape.Ended = true
		err = nil
		return
	}
	if err != nil {
		err = &ErrDevice{Name: tape.cfg.Name, Err: err}
		return
	}

	tape.Read++
	value = uint16(one[0])
	return
}

// SetPos punches the low byte of value on the data cell.
func (tape *Tape) SetPos(offset int, value uint16) (err error) {
	err = tape.check(offset)
	if err != nil || offset != TAPE_DATA {
		return
	}

	tape.Punched++
	if tape.Output == nil {
		return
	}

	_, err = tape.Output.Write([]byte{byte(value)})
	if err != nil {
		err = &ErrDevice{Name: tape.cfg.Name, Err: err}
	}
	return
}

// Reset clears the counters. The tapes themselves stay where they are.
func (tape *Tape) Reset() {
	tape.Read = 0
	tape.Punched = 0
	tape.Ended = false
}

type tapeState struct {
	Read    int  `json:"read"`
	Punched int  `json:"punched"`
	Ended   bool `json:"ended"`
}

// State serialises the counters.
func (tape *Tape) State() (json.RawMessage, error) {
	return json.Marshal(tapeState{Read: tape.Read, Punched: tape.Punched, Ended: tape.Ended})
}

// SetState restores the counters.
func (tape *Tape) SetState(state json.RawMessage) (err error) {
	var ts tapeState
	err = json.Unmarshal(state, &ts)
	if err != nil {
		return
	}

	if ts.Read < 0 || ts.Punched < 0 {
		err = ErrDeviceState
		return
	}

	tape.Read = ts.Read
	tape.Punched = ts.Punched
	tape.Ended = ts.Ended
	return
}
