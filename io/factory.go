package io

import (
	"maps"
	"slices"
)

// Factory creates a device from its settings.
type Factory func(cfg Config) (Device, error)

var factories = map[string]Factory{
	"keyboard": func(cfg Config) (Device, error) { return NewKeyboard(cfg) },
	"screen":   func(cfg Config) (Device, error) { return NewScreen(cfg) },
	"lights":   func(cfg Config) (Device, error) { return NewLights(cfg) },
	"tape":     func(cfg Config) (Device, error) { return NewTape(cfg) },
}

// Register adds or replaces a device type.
func Register(typ string, factory Factory) {
	factories[typ] = factory
}

// Types lists the registered device types.
func Types() []string {
	return slices.Sorted(maps.Keys(factories))
}

// Create makes a device of cfg.Type.
func Create(cfg Config) (dev Device, err error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		err = &ErrDevice{Name: cfg.Name, Err: ErrDeviceType}
		return
	}

	return factory(cfg)
}
