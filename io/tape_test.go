package io

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTape_Read(t *testing.T) {
	assert := assert.New(t)

	tape, err := NewTape(Config{Type: "tape", Name: "tape"})
	assert.NoError(err)
	assert.Equal(TAPE_SIZE, tape.Size())

	// No tape loaded.
	value, err := tape.GetPos(TAPE_DATA)
	assert.NoError(err)
	assert.Equal(uint16(TAPE_EOF), value)

	tape.Input = bytes.NewBuffer([]byte{0x55, 0xAA})

	for _, expected := range []uint16{0x55, 0xAA, TAPE_EOF, TAPE_EOF} {
		value, err = tape.GetPos(TAPE_DATA)
		assert.NoError(err)
		assert.Equal(expected, value)
	}

	assert.True(tape.Ended)
	status, err := tape.GetPos(TAPE_STATUS)
	assert.NoError(err)
	assert.Equal(uint16(2), status)

	_, err = tape.GetPos(TAPE_SIZE)
	assert.ErrorIs(err, ErrDeviceOffset)
}

type errorReader struct{}

func (er *errorReader) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}

func TestTape_ReadError(t *testing.T) {
	assert := assert.New(t)

	tape, _ := NewTape(Config{Name: "tape"})
	tape.Input = &errorReader{}

	_, err := tape.GetPos(TAPE_DATA)
	assert.ErrorIs(err, io.ErrUnexpectedEOF)
	assert.False(tape.Ended)
	assert.Equal(0, tape.Read)
}

func TestTape_Punch(t *testing.T) {
	assert := assert.New(t)

	tape, _ := NewTape(Config{Name: "tape"})

	// Punching with no tape loaded only counts.
	assert.NoError(tape.SetPos(TAPE_DATA, 'x'))
	assert.Equal(1, tape.Punched)

	output := &bytes.Buffer{}
	tape.Output = output
	assert.NoError(tape.SetPos(TAPE_DATA, 0x1248))
	assert.NoError(tape.SetPos(TAPE_STATUS, 0xffff))
	assert.Equal([]byte{0x48}, output.Bytes())
	assert.Equal(2, tape.Punched)
}

func TestTape_State(t *testing.T) {
	assert := assert.New(t)

	tape, _ := NewTape(Config{Name: "tape"})
	tape.Input = bytes.NewBuffer([]byte{1})
	_, _ = tape.GetPos(TAPE_DATA)
	_, _ = tape.GetPos(TAPE_DATA)
	assert.NoError(tape.SetPos(TAPE_DATA, 2))

	state, err := tape.State()
	assert.NoError(err)

	tape.Reset()
	assert.Equal(0, tape.Read)
	assert.False(tape.Ended)

	assert.NoError(tape.SetState(state))
	assert.Equal(1, tape.Read)
	assert.Equal(1, tape.Punched)
	assert.True(tape.Ended)

	assert.ErrorIs(tape.SetState([]byte(`{"read": -1}`)), ErrDeviceState)
}
