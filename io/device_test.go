package io

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyboard(t *testing.T) {
	assert := assert.New(t)

	kbd, err := NewKeyboard(Config{Type: "keyboard", Name: "kbd", Int: true, Vector: 0x30, Capacity: 2})
	assert.NoError(err)
	assert.Equal(KEYBOARD_SIZE, kbd.Size())
	assert.False(kbd.IsInterrupting())

	assert.NoError(kbd.PushKey('a'))
	assert.NoError(kbd.SetPos(KEYBOARD_DATA, 'b'))
	assert.ErrorIs(kbd.PushKey('c'), ErrDeviceFull)
	assert.True(kbd.IsInterrupting())

	status, err := kbd.GetPos(KEYBOARD_STATUS)
	assert.NoError(err)
	assert.Equal(uint16(2), status)

	assert.Equal(uint16(0x30), kbd.Acknowledge())
	assert.False(kbd.IsInterrupting())

	key, err := kbd.GetPos(KEYBOARD_DATA)
	assert.NoError(err)
	assert.Equal(uint16('a'), key)
	assert.True(kbd.IsInterrupting())

	assert.NoError(kbd.SetPos(KEYBOARD_STATUS, 0))
	assert.False(kbd.IsInterrupting())

	key, err = kbd.GetPos(KEYBOARD_DATA)
	assert.NoError(err)
	assert.Equal(uint16(0), key)

	_, err = kbd.GetPos(2)
	assert.ErrorIs(err, ErrDeviceOffset)
	assert.ErrorIs(kbd.SetPos(-1, 0), ErrDeviceOffset)

	_, err = NewKeyboard(Config{Name: "bad", Vector: 0x100})
	assert.ErrorIs(err, ErrDeviceConfig)

	// Interrupts disabled: keys are buffered but never raise a request.
	quiet, _ := NewKeyboard(Config{Name: "quiet"})
	assert.Equal(KEYBOARD_DEFAULT_CAPACITY, quiet.Config().Capacity)
	assert.NoError(quiet.PushKey('z'))
	assert.False(quiet.IsInterrupting())
}

func TestKeyboard_State(t *testing.T) {
	assert := assert.New(t)

	kbd, _ := NewKeyboard(Config{Name: "kbd", Capacity: 2})
	assert.NoError(kbd.PushKey('a'))
	kbd.Acknowledge()
	kbd.ClockPulse()

	state, err := kbd.State()
	assert.NoError(err)

	other, _ := NewKeyboard(Config{Name: "kbd", Capacity: 2})
	assert.NoError(other.SetState(state))
	assert.Equal(kbd.Buffer, other.Buffer)
	assert.True(other.Acked)
	assert.Equal(1, other.Waiting)

	small, _ := NewKeyboard(Config{Name: "kbd", Capacity: 2})
	assert.ErrorIs(small.SetState([]byte(`{"buffer":[1,2,3]}`)), ErrDeviceState)
	assert.Error(small.SetState([]byte(`nope`)))

	kbd.Reset()
	assert.Empty(kbd.Buffer)
	assert.False(kbd.Acked)
}

func TestScreen(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	scr, err := NewScreen(Config{Name: "scr", Capacity: 3})
	assert.NoError(err)
	scr.Out = &out

	for _, c := range "abc" {
		assert.NoError(scr.SetPos(SCREEN_DATA, uint16(c)))
	}
	assert.ErrorIs(scr.SetPos(SCREEN_DATA, 'd'), ErrDeviceFull)
	assert.Equal("abc", scr.String())
	assert.Equal("abc", out.String())

	last, _ := scr.GetPos(SCREEN_DATA)
	assert.Equal(uint16('c'), last)
	count, _ := scr.GetPos(SCREEN_CONTROL)
	assert.Equal(uint16(3), count)

	state, err := scr.State()
	assert.NoError(err)

	assert.NoError(scr.SetPos(SCREEN_CONTROL, 0))
	assert.Equal("", scr.String())
	last, _ = scr.GetPos(SCREEN_DATA)
	assert.Equal(uint16(0), last)

	assert.NoError(scr.SetState(state))
	assert.Equal("abc", scr.String())

	_, err = scr.GetPos(SCREEN_SIZE)
	assert.ErrorIs(err, ErrDeviceOffset)

	scr.Reset()
	assert.Empty(scr.Text)
}

func TestLights(t *testing.T) {
	assert := assert.New(t)

	lights, err := NewLights(Config{Name: "leds"})
	assert.NoError(err)

	assert.NoError(lights.SetPos(0, 0x8005))
	assert.True(lights.Lit(0))
	assert.False(lights.Lit(1))
	assert.True(lights.Lit(15))
	assert.Equal("*............*.*", lights.String())

	value, err := lights.GetPos(0)
	assert.NoError(err)
	assert.Equal(uint16(0x8005), value)

	_, err = lights.GetPos(1)
	assert.ErrorIs(err, ErrDeviceOffset)

	state, _ := lights.State()
	lights.Reset()
	assert.Equal(uint16(0), lights.Value)
	assert.NoError(lights.SetState(state))
	assert.Equal(uint16(0x8005), lights.Value)
}

func TestCreate(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"keyboard", "lights", "screen", "tape"}, Types())

	for _, typ := range Types() {
		dev, err := Create(Config{Type: typ, Name: typ})
		assert.NoError(err)
		assert.Equal(typ, dev.Config().Type)
	}

	_, err := Create(Config{Type: "printer", Name: "lp"})
	assert.ErrorIs(err, ErrDeviceType)

	assert.Equal("KEYB", Config{Name: "keyboard"}.Label())
	assert.Equal("K0", Config{Name: "k0"}.Label())
}
