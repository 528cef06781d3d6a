package io

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/micro16/notify"
)

// modules is a module map with fixed ranges.
type modules [][2]int

func (mods modules) Overlaps(start, last int) bool {
	for _, mod := range mods {
		if start <= mod[1] && last >= mod[0] {
			return true
		}
	}
	return false
}

func newKeyboard(t *testing.T, name string, base, priority, vector int) *Keyboard {
	kbd, err := NewKeyboard(Config{
		Type:     "keyboard",
		Name:     name,
		Base:     base,
		Int:      true,
		Priority: priority,
		Vector:   vector,
	})
	assert.NoError(t, err)
	return kbd
}

func TestManager_AddDevice(t *testing.T) {
	assert := assert.New(t)

	mgr := NewManager(nil)
	kbd := newKeyboard(t, "kbd", 0x9000, 1, 0x20)

	assert.ErrorIs(mgr.AddDevice(kbd), ErrDeviceLink)

	mgr.Link(modules{{0x0000, 0x7fff}})
	assert.NoError(mgr.AddDevice(kbd))
	assert.ErrorIs(mgr.AddDevice(kbd), ErrDeviceName)

	table := []struct {
		cfg Config
		err error
	}{
		{Config{Type: "lights", Name: "low", Base: 0x0100}, ErrDeviceReserved},
		{Config{Type: "lights", Name: "zero", Base: 0}, ErrDeviceReserved},
		{Config{Type: "screen", Name: "end", Base: 0xffff}, ErrDeviceRange},
		{Config{Type: "lights", Name: "module", Base: 0x7000}, ErrDeviceCollision},
		{Config{Type: "screen", Name: "overlap", Base: 0x8fff}, ErrDeviceCollision},
		{Config{Type: "lights", Name: "top", Base: 0xffff}, nil},
		{Config{Type: "lights", Name: "edge", Base: 0x9002}, nil},
	}

	for _, entry := range table {
		dev, err := Create(entry.cfg)
		assert.NoError(err)
		err = mgr.AddDevice(dev)
		if entry.err == nil {
			assert.NoError(err, entry.cfg.Name)
		} else {
			assert.ErrorIs(err, entry.err, entry.cfg.Name)
			var derr *ErrDevice
			assert.ErrorAs(err, &derr)
			assert.Equal(entry.cfg.Name, derr.Name)
		}
	}

	assert.Len(mgr.Devices(), 3)
	assert.True(mgr.Overlaps(0x9001, 0x9001))
	assert.False(mgr.Overlaps(0x9003, 0xfffe))

	// The lowest legal base is just past the vector table.
	dev, _ := Create(Config{Type: "lights", Name: "first", Base: 0x0101})
	mgr.Link(modules{})
	assert.NoError(mgr.AddDevice(dev))
}

func TestManager_RemoveDevice(t *testing.T) {
	assert := assert.New(t)

	hub := &notify.Hub{}
	rec := &notify.Recorder{}
	hub.Subscribe(rec.Record)

	mgr := NewManager(hub)
	mgr.Link(modules{})
	assert.NoError(mgr.AddDevice(newKeyboard(t, "kbd", 0x9000, 1, 0x20)))

	assert.ErrorIs(mgr.RemoveDevice("nope"), ErrDeviceMissing)
	assert.NoError(mgr.RemoveDevice("kbd"))
	_, ok := mgr.Lookup("kbd")
	assert.False(ok)

	// The window is free again.
	assert.NoError(mgr.AddDevice(newKeyboard(t, "kbd2", 0x9000, 1, 0x20)))

	assert.Len(rec.Of(notify.EVENT_DEVICE_ADDED), 2)
	assert.Len(rec.Of(notify.EVENT_DEVICE_REMOVED), 1)
}

func TestManager_Pos(t *testing.T) {
	assert := assert.New(t)

	mgr := NewManager(nil)
	mgr.Link(modules{})
	lights, _ := NewLights(Config{Type: "lights", Name: "leds", Base: 0xa000})
	assert.NoError(mgr.AddDevice(lights))

	assert.NoError(mgr.SetPos(0xa000, 0x00f0))
	assert.Equal(uint16(0x00f0), lights.Value)

	value, err := mgr.GetPos(0xa000)
	assert.NoError(err)
	assert.Equal(uint16(0x00f0), value)

	label, ok := mgr.Owns(0xa000)
	assert.True(ok)
	assert.Equal("LEDS", label)

	_, ok = mgr.Owns(0xa001)
	assert.False(ok)
	_, err = mgr.GetPos(0xa001)
	assert.ErrorIs(err, ErrDeviceMissing)
	assert.ErrorIs(mgr.SetPos(0xa001, 1), ErrDeviceMissing)
}

func TestManager_NextInt(t *testing.T) {
	assert := assert.New(t)

	hub := &notify.Hub{}
	rec := &notify.Recorder{}
	hub.Subscribe(rec.Record)

	mgr := NewManager(hub)
	mgr.Link(modules{})

	a := newKeyboard(t, "a", 0x9000, 2, 0x10)
	b := newKeyboard(t, "b", 0x9010, 1, 0x11)
	c := newKeyboard(t, "c", 0x9020, 1, 0x12)
	quiet, _ := NewKeyboard(Config{Type: "keyboard", Name: "quiet", Base: 0x9030, Priority: 0})
	for _, dev := range []Device{a, b, c, quiet} {
		assert.NoError(mgr.AddDevice(dev))
	}

	_, ok := mgr.GetNextInt()
	assert.False(ok)
	assert.False(mgr.Interrupting())

	assert.NoError(quiet.PushKey('q'))
	assert.NoError(a.PushKey('a'))
	assert.NoError(c.PushKey('c'))
	assert.NoError(b.PushKey('b'))
	assert.Len(mgr.GetIntDevices(), 3)

	// b and c tie on priority; b is declared first.
	next, ok := mgr.GetNextInt()
	assert.True(ok)
	assert.Equal("b", next.Config().Name)

	vector, ok := mgr.Acknowledge()
	assert.True(ok)
	assert.Equal(uint16(0x11), vector)

	next, _ = mgr.GetNextInt()
	assert.Equal("c", next.Config().Name)

	// Only interrupting devices see the pulse.
	mgr.ClockPulse()
	assert.Equal(0, b.Waiting)
	assert.Equal(1, c.Waiting)
	assert.Equal(1, a.Waiting)
	assert.Equal(0, quiet.Waiting)

	// Reading the data cell ends the handshake.
	value, err := mgr.GetPos(0x9010)
	assert.NoError(err)
	assert.Equal(uint16('b'), value)
	assert.False(b.Acked)

	events := rec.Of(notify.EVENT_INTERRUPT)
	assert.Len(events, 1)
	assert.Equal("b", events[0].Source)

	mgr.Reset()
	assert.False(mgr.Interrupting())
	_, ok = mgr.Acknowledge()
	assert.False(ok)
}

func TestManager_BackupRestore(t *testing.T) {
	assert := assert.New(t)

	mgr := NewManager(nil)
	mgr.Link(modules{})
	kbd := newKeyboard(t, "kbd", 0x9000, 1, 0x20)
	assert.NoError(kbd.PushKey('x'))
	kbd.Acknowledge()
	scr, _ := NewScreen(Config{Type: "screen", Name: "scr", Base: 0x9100})
	assert.NoError(scr.SetPos(SCREEN_DATA, 'h'))
	assert.NoError(scr.SetPos(SCREEN_DATA, 'i'))
	lights, _ := NewLights(Config{Type: "lights", Name: "leds", Base: 0x9200})
	lights.Value = 0x8001

	for _, dev := range []Device{kbd, scr, lights} {
		assert.NoError(mgr.AddDevice(dev))
	}

	states, err := mgr.Backup()
	assert.NoError(err)
	assert.Len(states, 3)

	other := NewManager(nil)
	other.Link(modules{})
	assert.NoError(other.AddDevice(newKeyboard(t, "gone", 0xa000, 1, 1)))
	assert.NoError(other.Restore(states))

	_, ok := other.Lookup("gone")
	assert.False(ok)

	dev, ok := other.Lookup("kbd")
	assert.True(ok)
	rkbd := dev.(*Keyboard)
	assert.Equal([]uint16{'x'}, rkbd.Buffer)
	assert.True(rkbd.Acked)
	assert.Equal(0x20, rkbd.Config().Vector)

	dev, _ = other.Lookup("scr")
	assert.Equal("hi", dev.(*Screen).String())

	dev, _ = other.Lookup("leds")
	assert.Equal(uint16(0x8001), dev.(*Lights).Value)

	states[0].Config.Type = "teletype"
	assert.ErrorIs(other.Restore(states), ErrDeviceType)
	assert.Len(other.Devices(), 3)
}

func TestManager_RestoreRefused(t *testing.T) {
	lights := DeviceState{Config: Config{Type: "lights", Name: "leds", Base: 0x9000}}
	screen := DeviceState{Config: Config{Type: "screen", Name: "scr", Base: 0x9100}}

	table := [](struct {
		name   string
		states []DeviceState
		memory Memory
		err    error
	}){
		{"module", []DeviceState{lights}, modules{{0x8000, 0x9fff}}, ErrDeviceCollision},
		{"each other", []DeviceState{lights, {Config: Config{Type: "screen", Name: "scr", Base: 0x9000}}}, modules{}, ErrDeviceCollision},
		{"name", []DeviceState{lights, {Config: Config{Type: "screen", Name: "leds", Base: 0x9100}}}, modules{}, ErrDeviceName},
		{"reserved", []DeviceState{{Config: Config{Type: "lights", Name: "low", Base: 0x0040}}}, modules{}, ErrDeviceReserved},
		{"range", []DeviceState{{Config: Config{Type: "screen", Name: "top", Base: 0xffff}}}, modules{}, ErrDeviceRange},
		{"state", []DeviceState{{Config: lights.Config, State: []byte(`"x"`)}}, modules{}, nil},
		{"no memory", []DeviceState{screen}, nil, ErrDeviceLink},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			err := NewManager(nil).CheckRestore(entry.states, entry.memory)
			if entry.err == nil {
				assert.Error(err)
			} else {
				assert.ErrorIs(err, entry.err)
			}

			mgr := NewManager(nil)
			mgr.Link(modules{})
			assert.NoError(mgr.AddDevice(newKeyboard(t, "kept", 0xa000, 1, 1)))
			if entry.memory != nil {
				mgr.Link(entry.memory)
				assert.Error(mgr.Restore(entry.states))
			}

			_, ok := mgr.Lookup("kept")
			assert.True(ok)
			assert.Len(mgr.Devices(), 1)
		})
	}

	assert.NoError(t, NewManager(nil).CheckRestore([]DeviceState{lights, screen}, modules{{0, 0x7fff}}))
}
