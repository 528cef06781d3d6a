package io

import (
	"encoding/json"
	"fmt"
)

// LIGHTS_SIZE is the one latch cell.
const LIGHTS_SIZE = 1

// Lights is a bank of sixteen lamps driven by one latch.
type Lights struct {
	window

	Value uint16
}

var _ Device = (*Lights)(nil)

// NewLights creates a light bank.
func NewLights(cfg Config) (lights *Lights, err error) {
	lights = &Lights{
		window: window{cfg: cfg, size: LIGHTS_SIZE},
	}
	return
}

// GetPos reads the latch.
func (lights *Lights) GetPos(offset int) (value uint16, err error) {
	err = lights.check(offset)
	if err != nil {
		return
	}
	value = lights.Value
	return
}

// SetPos loads the latch.
func (lights *Lights) SetPos(offset int, value uint16) (err error) {
	err = lights.check(offset)
	if err != nil {
		return
	}
	lights.Value = value
	return
}

// Lit returns true if lamp n is on.
func (lights *Lights) Lit(n uint) bool {
	return (lights.Value>>n)&1 == 1
}

// String draws the lamps, most significant first.
func (lights *Lights) String() string {
	text := []byte(fmt.Sprintf("%016b", lights.Value))
	for n, c := range text {
		if c == '1' {
			text[n] = '*'
		} else {
			text[n] = '.'
		}
	}
	return string(text)
}

// Reset turns every lamp off.
func (lights *Lights) Reset() {
	lights.Value = 0
}

// State serialises the latch.
func (lights *Lights) State() (json.RawMessage, error) {
	return json.Marshal(lights.Value)
}

// SetState restores the latch.
func (lights *Lights) SetState(state json.RawMessage) error {
	return json.Unmarshal(state, &lights.Value)
}
