package memory

import (
	"slices"

	"github.com/ezrec/micro16/signal"
)

// ModuleImage is a module and its contents.
type ModuleImage struct {
	Module
	Cells []uint16 `json:"cells"`
}

// Image is the serialisable state of the address space.
type Image struct {
	Sizes      []int              `json:"sizes"`
	Modules    []ModuleImage      `json:"modules"`
	State      signal.MemoryState `json:"state"`
	Pulses     int                `json:"pulses"`
	AddressBus uint16             `json:"address_bus"`
	DataBus    uint16             `json:"data_bus"`
}

// Backup captures the memory state.
func (mem *Memory) Backup() (img *Image) {
	img = &Image{
		Sizes:      append([]int(nil), mem.Sizes...),
		State:      mem.state,
		Pulses:     mem.pulses,
		AddressBus: mem.AddressBus.Get(),
		DataBus:    mem.DataBus.Get(),
	}

	for _, mod := range mem.modules {
		cells := make([]uint16, mod.SizeKb*KB)
		copy(cells, mem.cells[mod.Address:mod.Last()+1])
		img.Modules = append(img.Modules, ModuleImage{Module: mod, Cells: cells})
	}

	return
}

// sizes returns the size whitelist the image is restored with.
func (img *Image) sizes(fallback []int) []int {
	if len(img.Sizes) != 0 {
		return img.Sizes
	}
	return fallback
}

// Overlaps returns true if a module of the image claims any address in
// start..last.
func (img *Image) Overlaps(start, last int) bool {
	for _, mi := range img.Modules {
		if start <= mi.Last() && last >= mi.Address {
			return true
		}
	}
	return false
}

// CheckImage validates a backup without touching the memory: cell
// counts, module sizes, ranges, alignment, overlaps between the modules,
// and the staged access.
func (mem *Memory) CheckImage(img *Image) (err error) {
	if img == nil {
		return ErrImage
	}

	if img.State < signal.MEMORY_IDLE || img.State > signal.MEMORY_WRITE || img.Pulses < 0 {
		return ErrImage
	}

	sizes := img.sizes(mem.Sizes)
	placed := make([]Module, 0, len(img.Modules))
	for _, mi := range img.Modules {
		err = checkModule(mi.Module, sizes, placed, nil)
		if err == nil && len(mi.Cells) != mi.SizeKb*KB {
			err = ErrModuleSize
		}
		if err != nil {
			err = &ErrAddress{Address: mi.Address, Err: err}
			return
		}
		placed = append(placed, mi.Module)
	}

	return
}

// Restore replaces the memory state with a backup. The image is checked
// first, and the memory is untouched if it is refused. The devices linked
// must not collide with the restored modules.
func (mem *Memory) Restore(img *Image) (err error) {
	err = mem.CheckImage(img)
	if err != nil {
		return
	}

	for _, mi := range img.Modules {
		if mem.devices != nil && mem.devices.Overlaps(mi.Address, mi.Last()) {
			err = &ErrAddress{Address: mi.Address, Err: ErrModuleCollision}
			return
		}
	}

	for _, mod := range mem.Modules() {
		err = mem.RemoveModule(mod.Address)
		if err != nil {
			return
		}
	}

	mem.Sizes = slices.Clone(img.sizes(mem.Sizes))

	for _, mi := range img.Modules {
		err = mem.AddModule(mi.Address, mi.SizeKb)
		if err != nil {
			return
		}
		copy(mem.cells[mi.Address:], mi.Cells)
	}

	mem.state = img.State
	mem.pulses = img.Pulses
	mem.AddressBus.Restore(img.AddressBus)
	mem.DataBus.Restore(img.DataBus)

	return
}
