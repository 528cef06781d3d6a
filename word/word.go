// Package word provides the 16-bit storage cell used for every register
// and bus of the machine, and the bit level helpers around it.
package word

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ezrec/micro16/notify"
	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	ErrRange    = errors.New(f("value out of 16-bit range"))
	ErrHexToken = errors.New(f("not a 4 digit hex word"))
)

const (
	MASK   = 0xffff
	SIGN   = 0x8000
	BITS   = 16
	DIGITS = 4 // Hex digits per word token.
)

// Word is a named 16-bit cell: a register, a bus or a latch.
// Every mutation is published to the hub, if one is attached.
type Word struct {
	Name  string
	value uint16
	hub   *notify.Hub
}

// New creates a zeroed word.
func New(name string, hub *notify.Hub) *Word {
	return &Word{Name: name, hub: hub}
}

// Get returns the current value.
func (w *Word) Get() uint16 {
	return w.value
}

// Set stores value, publishing the change.
func (w *Word) Set(value uint16) {
	old := w.value
	w.value = value
	w.hub.Publish(notify.Event{
		Kind:   notify.EVENT_VALUE_CHANGED,
		Source: w.Name,
		Old:    old,
		New:    value,
	})
}

// SetInt stores an unchecked integer, rejecting anything outside 0..0xffff.
func (w *Word) SetInt(value int) (err error) {
	if value < 0 || value > MASK {
		err = fmt.Errorf("%v %v: %w", w.Name, value, ErrRange)
		return
	}

	w.Set(uint16(value))
	return
}

// Reset zeroes the word.
func (w *Word) Reset() {
	old := w.value
	w.value = 0
	w.hub.Publish(notify.Event{
		Kind:   notify.EVENT_RESET,
		Source: w.Name,
		Old:    old,
	})
}

// Restore sets the value without publishing, for snapshot restore.
func (w *Word) Restore(value uint16) {
	w.value = value
}

// Bit returns bit n.
func (w *Word) Bit(n uint) bool {
	return (w.value>>n)&1 == 1
}

// SetBit sets or clears bit n.
func (w *Word) SetBit(n uint, on bool) {
	w.Set(WithBit(w.value, n, on))
}

// ToggleBit inverts bit n.
func (w *Word) ToggleBit(n uint) {
	w.Set(w.value ^ (1 << n))
}

// Low returns the low byte.
func (w *Word) Low() uint8 {
	return uint8(w.value)
}

// High returns the high byte.
func (w *Word) High() uint8 {
	return uint8(w.value >> 8)
}

// SetLow replaces the low byte.
func (w *Word) SetLow(b uint8) {
	w.Set((w.value & 0xff00) | uint16(b))
}

// SetHigh replaces the high byte.
func (w *Word) SetHigh(b uint8) {
	w.Set((w.value & 0x00ff) | (uint16(b) << 8))
}

func (w *Word) String() string {
	return fmt.Sprintf("%v=%04X", w.Name, w.value)
}

// WithBit returns value with bit n set or cleared.
func WithBit(value uint16, n uint, on bool) uint16 {
	if on {
		return value | (1 << n)
	}
	return value &^ (1 << n)
}

// Signed interprets value as two's complement.
func Signed(value uint16) int16 {
	return int16(value)
}

// FromSigned converts a signed integer to two's complement, if it fits.
func FromSigned(value int) (out uint16, err error) {
	if value < -SIGN || value > MASK>>1 {
		err = ErrRange
		return
	}
	out = uint16(value)
	return
}

// SignExtend8 widens a byte to 16 bits, replicating bit 7.
func SignExtend8(b uint8) uint16 {
	return uint16(int16(int8(b)))
}

// SignedField interprets the low width bits of value as two's complement.
func SignedField(value uint16, width uint) int {
	sign := uint16(1) << (width - 1)
	v := int(value & ((sign << 1) - 1))
	if value&sign != 0 {
		v -= int(sign) << 1
	}
	return v
}

// ParseHex parses a word token of exactly four hex digits.
func ParseHex(token string) (value uint16, err error) {
	if len(token) != DIGITS {
		err = fmt.Errorf("'%v': %w", token, ErrHexToken)
		return
	}

	v, err := strconv.ParseUint(token, 16, BITS)
	if err != nil {
		err = fmt.Errorf("'%v': %w", token, ErrHexToken)
		return
	}

	value = uint16(v)
	return
}

// FormatHex renders value as a four digit token.
func FormatHex(value uint16) string {
	return fmt.Sprintf("%04X", value)
}
