package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/signal"
)

// window is a single device cell at a fixed address.
type window struct {
	address int
	value   uint16
	reads   int
}

func (w *window) Overlaps(start, last int) bool {
	return start <= w.address && last >= w.address
}

func (w *window) Owns(address int) (label string, ok bool) {
	if address == w.address {
		return "DEV0", true
	}
	return
}

func (w *window) GetPos(address int) (value uint16, err error) {
	w.reads++
	return w.value, nil
}

func (w *window) SetPos(address int, value uint16) (err error) {
	w.value = value
	return
}

func TestAddModule(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	assert.NoError(mem.AddModule(0x0000, 32))
	assert.NoError(mem.AddModule(0x8000, 32))
	assert.ErrorIs(mem.AddModule(0x4000, 32), ErrModuleCollision)

	mem = New(nil)
	assert.NoError(mem.AddModule(0x0000, 32))
	assert.ErrorIs(mem.AddModule(0x4000, 16), ErrModuleCollision)
	assert.ErrorIs(mem.AddModule(0x8000, 12), ErrModuleSize)
	assert.ErrorIs(mem.AddModule(0x9000, 8), ErrModuleAlign)
	assert.ErrorIs(mem.AddModule(0x10000, 4), ErrModuleRange)
	assert.ErrorIs(mem.AddModule(-0x1000, 4), ErrModuleRange)
	assert.NoError(mem.AddModule(0x8000, 4))
	assert.NoError(mem.AddModule(0xC000, 16))

	assert.Equal([]Module{{0x0000, 32}, {0x8000, 4}, {0xC000, 16}}, mem.Modules())
	assert.Equal(0xFFFF, mem.Modules()[2].Last())

	var aerr *ErrAddress
	err := mem.AddModule(0x4000, 16)
	assert.ErrorAs(err, &aerr)
	assert.Equal(0x4000, aerr.Address)
}

func TestAddModule_DeviceCollision(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	mem.SetDevices(&window{address: 0x9000})

	assert.ErrorIs(mem.AddModule(0x8000, 32), ErrModuleCollision)
	assert.NoError(mem.AddModule(0x8000, 4))
}

func TestRemoveModule(t *testing.T) {
	assert := assert.New(t)

	hub := &notify.Hub{}
	rec := &notify.Recorder{}
	hub.Subscribe(rec.Record)

	mem := New(hub)
	assert.NoError(mem.AddModule(0x1000, 4))
	assert.NoError(mem.SetPos(0x1234, 0xBEEF))

	assert.ErrorIs(mem.RemoveModule(0x1200), ErrModuleMissing)
	assert.NoError(mem.RemoveModule(0x1000))
	assert.Empty(mem.Modules())

	_, err := mem.GetPos(0x1234)
	assert.ErrorIs(err, ErrUnmapped)
	assert.Equal(UNMAPPED, mem.PeekPos(0x1234))

	// Remapped modules are zero filled.
	assert.NoError(mem.AddModule(0x1000, 4))
	value, err := mem.GetPos(0x1234)
	assert.NoError(err)
	assert.Equal(uint16(0), value)

	assert.Len(rec.Of(notify.EVENT_MODULE_ADDED), 2)
	assert.Len(rec.Of(notify.EVENT_MODULE_REMOVED), 1)
	assert.Len(rec.Of(notify.EVENT_MEMORY_EDITED), 1)
}

func TestPos(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	dev := &window{address: 0x9000, value: 0x55AA}
	mem.SetDevices(dev)
	assert.NoError(mem.AddModule(0x0000, 4))

	assert.NoError(mem.SetPos(0x0010, 0x1234))
	value, err := mem.GetPos(0x0010)
	assert.NoError(err)
	assert.Equal(uint16(0x1234), value)
	assert.Equal("1234", mem.PeekPos(0x0010))

	value, err = mem.GetPos(0x9000)
	assert.NoError(err)
	assert.Equal(uint16(0x55AA), value)
	assert.Equal(1, dev.reads)

	assert.Equal("DEV0", mem.PeekPos(0x9000))
	assert.Equal(1, dev.reads)

	assert.NoError(mem.SetPos(0x9000, 7))
	assert.Equal(uint16(7), dev.value)

	assert.ErrorIs(mem.SetPos(0x2000, 1), ErrUnmapped)
	_, err = mem.GetPos(SIZE)
	assert.ErrorIs(err, ErrRange)
	assert.ErrorIs(mem.SetPos(-1, 0), ErrRange)
	assert.Equal(UNMAPPED, mem.PeekPos(SIZE))
}

func TestStagedRead(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	assert.NoError(mem.AddModule(0x0000, 4))
	assert.NoError(mem.SetPos(0x0100, 0xCAFE))

	mem.AddressBus.Set(0x0100)
	assert.NoError(mem.StartRead())
	assert.Equal(signal.MEMORY_READ, mem.State())
	assert.ErrorIs(mem.StartWrite(), ErrBusy)

	loaded, err := mem.ClockPulse()
	assert.NoError(err)
	assert.False(loaded)
	assert.Equal(uint16(0), mem.DataBus.Get())

	loaded, err = mem.ClockPulse()
	assert.NoError(err)
	assert.True(loaded)
	assert.Equal(uint16(0xCAFE), mem.DataBus.Get())
	assert.Equal(signal.MEMORY_IDLE, mem.State())

	loaded, err = mem.ClockPulse()
	assert.NoError(err)
	assert.False(loaded)
}

func TestStagedWrite(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	assert.NoError(mem.AddModule(0x0000, 4))

	mem.AddressBus.Set(0x0200)
	mem.DataBus.Set(0x1111)
	assert.NoError(mem.StartWrite())
	assert.Equal(signal.MEMORY_WRITE, mem.State())

	_, err := mem.ClockPulse()
	assert.NoError(err)
	assert.Equal("0000", mem.PeekPos(0x0200))

	_, err = mem.ClockPulse()
	assert.NoError(err)
	assert.Equal("1111", mem.PeekPos(0x0200))
	assert.Equal(signal.MEMORY_IDLE, mem.State())

	// A write to nowhere fails on completion.
	mem.AddressBus.Set(0x4000)
	assert.NoError(mem.StartWrite())
	_, err = mem.ClockPulse()
	assert.NoError(err)
	_, err = mem.ClockPulse()
	assert.ErrorIs(err, ErrUnmapped)
	assert.Equal(signal.MEMORY_IDLE, mem.State())
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	assert.NoError(mem.AddModule(0x0000, 4))
	assert.NoError(mem.SetPos(1, 2))
	mem.AddressBus.Set(1)
	assert.NoError(mem.StartRead())

	mem.Reset()
	assert.Equal(signal.MEMORY_IDLE, mem.State())
	assert.Equal(uint16(0), mem.AddressBus.Get())
	assert.Equal("0002", mem.PeekPos(1))
}

func TestBackupRestore(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	assert.NoError(mem.AddModule(0x0000, 4))
	assert.NoError(mem.AddModule(0x8000, 8))
	assert.NoError(mem.SetPos(0x0003, 0x0303))
	assert.NoError(mem.SetPos(0x8004, 0x8484))
	mem.AddressBus.Set(0x0003)
	assert.NoError(mem.StartRead())
	_, _ = mem.ClockPulse()

	img := mem.Backup()

	other := New(nil)
	assert.NoError(other.AddModule(0x4000, 16))
	assert.NoError(other.Restore(img))

	assert.Equal(mem.Modules(), other.Modules())
	assert.Equal("0303", other.PeekPos(0x0003))
	assert.Equal("8484", other.PeekPos(0x8004))
	assert.Equal(UNMAPPED, other.PeekPos(0x4000))
	assert.Equal(signal.MEMORY_READ, other.State())

	loaded, err := other.ClockPulse()
	assert.NoError(err)
	assert.True(loaded)
	assert.Equal(uint16(0x0303), other.DataBus.Get())

	img.Modules[0].Cells = img.Modules[0].Cells[:10]
	assert.ErrorIs(New(nil).Restore(img), ErrModuleSize)
}

func TestRestore_Refused(t *testing.T) {
	source := New(nil)
	assert.NoError(t, source.AddModule(0x0000, 4))
	assert.NoError(t, source.AddModule(0x8000, 8))

	table := [](struct {
		name   string
		modify func(img *Image)
		err    error
	}){
		{"short cells", func(img *Image) { img.Modules[0].Cells = img.Modules[0].Cells[:10] }, ErrModuleSize},
		{"size", func(img *Image) { img.Sizes = []int{8} }, ErrModuleSize},
		{"align", func(img *Image) { img.Modules[1].Address = 0x9000 }, ErrModuleAlign},
		{"range", func(img *Image) { img.Modules[1].Address = 0xf000 }, ErrModuleRange},
		{"overlap", func(img *Image) { img.Modules[1].Address = 0x0000 }, ErrModuleCollision},
		{"state", func(img *Image) { img.State = 7 }, ErrImage},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			img := source.Backup()
			entry.modify(img)

			mem := New(nil)
			assert.NoError(mem.AddModule(0x4000, 16))
			assert.NoError(mem.SetPos(0x4001, 0x1234))

			assert.ErrorIs(mem.CheckImage(img), entry.err)
			assert.ErrorIs(mem.Restore(img), entry.err)

			assert.Equal([]Module{{Address: 0x4000, SizeKb: 16}}, mem.Modules())
			assert.Equal("1234", mem.PeekPos(0x4001))
			assert.Equal(DefaultSizes, mem.Sizes)
		})
	}

	assert.ErrorIs(t, New(nil).CheckImage(nil), ErrImage)
}

func TestImage_Overlaps(t *testing.T) {
	assert := assert.New(t)

	mem := New(nil)
	assert.NoError(mem.AddModule(0x8000, 8))
	img := mem.Backup()

	assert.True(img.Overlaps(0x9fff, 0xa000))
	assert.True(img.Overlaps(0x7000, 0x8000))
	assert.False(img.Overlaps(0xa000, 0xa0ff))
	assert.False(img.Overlaps(0x0100, 0x7fff))
}
