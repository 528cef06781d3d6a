package io

import (
	"errors"

	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	// Registration errors
	ErrDeviceName      = errors.New(f("device name already registered"))
	ErrDeviceLink      = errors.New(f("no memory linked"))
	ErrDeviceReserved  = errors.New(f("base inside the interrupt vector table"))
	ErrDeviceRange     = errors.New(f("device past end of memory"))
	ErrDeviceCollision = errors.New(f("device collides"))
	ErrDeviceMissing   = errors.New(f("no such device"))
	ErrDeviceType      = errors.New(f("unknown device type"))
	ErrDeviceConfig    = errors.New(f("invalid device configuration"))

	// Operation errors
	ErrDeviceFull   = errors.New(f("device buffer full"))
	ErrDeviceOffset = errors.New(f("device offset out of bounds"))
	ErrDeviceState  = errors.New(f("device state invalid"))
)

// ErrDevice reports the device an error relates to.
type ErrDevice struct {
	Name string
	Err  error
}

func (err *ErrDevice) Error() string {
	return f("device %v: %v", err.Name, err.Err)
}

func (err *ErrDevice) Unwrap() error {
	return err.Err
}
