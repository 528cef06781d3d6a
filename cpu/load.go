package cpu

import (
	"github.com/sirupsen/logrus"

	"github.com/ezrec/micro16/memory"
	"github.com/ezrec/micro16/word"
)

// parseTokens converts hex word tokens, reporting the first bad one.
func parseTokens(tokens []string, offset int) (words []uint16, err error) {
	words = make([]uint16, len(tokens))
	for n, token := range tokens {
		words[n], err = word.ParseHex(token)
		if err != nil {
			err = &ErrLoad{Token: n + offset, Err: err}
			words = nil
			return
		}
	}
	return
}

// checkRange verifies every cell of start..start+count-1 is module memory.
func (cpu *Cpu) checkRange(start int, count int, offset int) (err error) {
	for n := range count {
		address := start + n
		if address >= memory.SIZE {
			err = &ErrLoad{Token: n + offset, Err: &memory.ErrAddress{Address: address, Err: memory.ErrRange}}
			return
		}
		if !cpu.Memory.Writable(address) {
			err = &ErrLoad{Token: n + offset, Err: &memory.ErrAddress{Address: address, Err: ErrLoadAddress}}
			return
		}
	}
	return
}

// LoadProgram loads a program in token form: the load address, the
// first instruction address, the initial stack pointer, then the program
// words. Every token and address is checked before memory is touched.
//
// The CPU is reset, then PC and SP are set from the program.
func (cpu *Cpu) LoadProgram(tokens []string) (err error) {
	if len(tokens) < 4 {
		err = &ErrLoad{Token: -1, Err: ErrLoadShort}
		return
	}

	words, err := parseTokens(tokens, 0)
	if err != nil {
		return
	}

	start, pc, sp := int(words[0]), int(words[1]), words[2]
	code := words[3:]

	err = cpu.checkRange(start, len(code), 3)
	if err != nil {
		return
	}

	if pc < start || pc >= start+len(code) {
		err = &ErrLoad{Token: 1, Err: ErrLoadPc}
		return
	}

	cpu.Reset()

	for n, w := range code {
		err = cpu.Memory.SetPos(start+n, w)
		if err != nil {
			err = &ErrLoad{Token: n + 3, Err: err}
			return
		}
	}

	cpu.Pc.Set(uint16(pc))
	cpu.Sp().Set(sp)

	if cpu.Verbose {
		logrus.WithFields(logrus.Fields{
			"start": word.FormatHex(uint16(start)),
			"pc":    word.FormatHex(uint16(pc)),
			"sp":    word.FormatHex(sp),
			"words": len(code),
		}).Info("program loaded")
	}

	return
}

// LoadMemory writes words in token form from start onwards, without
// touching the CPU. Every token and address is checked first.
func (cpu *Cpu) LoadMemory(tokens []string, start int) (err error) {
	if start < 0 {
		err = &ErrLoad{Token: -1, Err: &memory.ErrAddress{Address: start, Err: memory.ErrRange}}
		return
	}

	words, err := parseTokens(tokens, 0)
	if err != nil {
		return
	}

	err = cpu.checkRange(start, len(words), 0)
	if err != nil {
		return
	}

	for n, w := range words {
		err = cpu.Memory.SetPos(start+n, w)
		if err != nil {
			err = &ErrLoad{Token: n, Err: err}
			return
		}
	}

	return
}
