package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/micro16/word"
)

const fuzzPulses = 256

func FuzzCpu(f *testing.F) {
	f.Add(uint16(0x0000), uint16(0x0000), uint16(0x1234), uint16(0x1000))
	f.Add(uint16(0x0940), uint16(0x0014), uint16(0x0001), uint16(0x1000))
	f.Add(uint16(0x2102), uint16(0x2900), uint16(0xffff), uint16(0x7ffe))
	f.Add(uint16(0x4028), uint16(0x0000), uint16(0x8000), uint16(0x0000))
	f.Add(uint16(0xd800), uint16(0x0000), uint16(0x0000), uint16(0x1000))

	f.Fuzz(func(t *testing.T, first, second, value, sp uint16) {
		assert := assert.New(t)

		cpu := newTestCpu(t, nil)
		err := cpu.LoadProgram([]string{
			word.FormatHex(RESET_PC),
			word.FormatHex(RESET_PC),
			word.FormatHex(sp),
			word.FormatHex(first),
			word.FormatHex(second),
		})
		if !assert.NoError(err) {
			return
		}
		for _, reg := range cpu.Register[:REGISTER_SP] {
			reg.Set(value)
		}

		assert.NoError(cpu.SetMode(MODE_AUTO))

		for range fuzzPulses {
			_, err = cpu.ClockPulse()
			if err != nil {
				break
			}
		}

		if err != nil {
			var step *ErrStep
			assert.True(errors.As(err, &step), "%v", err)
			assert.True(cpu.Uc.Halted)
			return
		}

		assert.False(cpu.Uc.Halted)
		assert.Equal(fuzzPulses, cpu.Pulses)
	})
}
