package isa

// Cond is a 3-bit branch condition code.
type Cond uint8

const (
	COND_C  = Cond(0b000) // C
	COND_NC = Cond(0b001) // NC
	COND_O  = Cond(0b010) // O
	COND_NO = Cond(0b011) // NO
	COND_Z  = Cond(0b100) // Z
	COND_NZ = Cond(0b101) // NZ
	COND_S  = Cond(0b110) // S
	COND_NS = Cond(0b111) // NS
)

var condNames = map[Cond]string{
	COND_C:  "C",
	COND_NC: "NC",
	COND_O:  "O",
	COND_NO: "NO",
	COND_Z:  "Z",
	COND_NZ: "NZ",
	COND_S:  "S",
	COND_NS: "NS",
}

func (cond Cond) String() string {
	name, ok := condNames[cond]
	if !ok {
		return "?"
	}
	return name
}

// ParseCond resolves a condition mnemonic.
func ParseCond(name string) (cond Cond, ok bool) {
	for c, n := range condNames {
		if n == name {
			return c, true
		}
	}
	return
}

// Flags are the condition flags a branch is evaluated against.
type Flags struct {
	Zero     bool
	Carry    bool
	Overflow bool
	Sign     bool
}

// Eval evaluates the condition. Unknown codes are false.
func (cond Cond) Eval(flags Flags) bool {
	switch cond {
	case COND_Z:
		return flags.Zero
	case COND_NZ:
		return !flags.Zero
	case COND_C:
		return flags.Carry
	case COND_NC:
		return !flags.Carry
	case COND_O:
		return flags.Overflow
	case COND_NO:
		return !flags.Overflow
	case COND_S:
		return flags.Sign
	case COND_NS:
		return !flags.Sign
	}
	return false
}
