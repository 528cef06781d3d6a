package signal

import (
	"slices"
)

// MemoryState is the staged access in progress when a set is validated.
type MemoryState int

const (
	MEMORY_IDLE = MemoryState(iota)
	MEMORY_READ
	MEMORY_WRITE
)

// Groups that tolerate a single signal per step.
var exclusiveGroups = map[Group]bool{
	GROUP_IR:     true,
	GROUP_TMPE:   true,
	GROUP_TMPS:   true,
	GROUP_MEMORY: true,
}

// validator accumulates what a set has used so far.
type validator struct {
	memory   MemoryState
	seen     map[Signal]bool
	download bool
	uploaded map[Group]bool
	groups   map[Group]Row
}

func newValidator(memory MemoryState) *validator {
	return &validator{
		memory:   memory,
		seen:     make(map[Signal]bool),
		uploaded: make(map[Group]bool),
		groups:   make(map[Group]Row),
	}
}

func (v *validator) seenOp(op Op) bool {
	for sig := range v.seen {
		if sig.Op == op {
			return true
		}
	}
	return false
}

// check applies the conflict rules to sig against what was seen so far.
func (v *validator) check(sig Signal) (err error) {
	defer func() {
		if err != nil {
			err = &ErrValidation{Signal: sig.String(), Err: err}
		}
	}()

	if sig.Op < 0 || sig.Op >= OP_COUNT || !sig.Concrete() {
		return ErrBadSignal
	}

	if v.seen[sig] {
		return ErrSignalPresent
	}

	switch sig.Op {
	case OP_INTA:
		if v.seenOp(OP_READ) || v.memory == MEMORY_READ {
			return ErrIntaDuringRead
		}
	case OP_READ:
		if v.seenOp(OP_INTA) {
			return ErrIntaDuringRead
		}
	}

	if sig.Download() && v.download {
		return ErrMultipleDownload
	}

	group := sig.Group()

	if sig.Upload() && v.uploaded[group] {
		return ErrMultipleUploadGroup
	}

	switch v.memory {
	case MEMORY_READ:
		if group == GROUP_MEMORY || sig.Op == OP_IB_MAR {
			return ErrReadOngoing
		}
	case MEMORY_WRITE:
		if group == GROUP_MEMORY || sig.Op == OP_IB_MAR || sig.Op == OP_IB_MDR {
			return ErrWriteOngoing
		}
	}

	prior := v.groups[group]
	if len(prior) == 0 {
		return
	}

	switch {
	case group == GROUP_SR:
		pair := (sig.Op == OP_SR_IB && prior[0].Op == OP_IB_SR) ||
			(sig.Op == OP_IB_SR && prior[0].Op == OP_SR_IB)
		if len(prior) > 1 || !pair {
			return ErrBadSr
		}
	case exclusiveGroups[group]:
		return ErrSameGroup
	case group == GROUP_ALU:
		if sig.Op == OP_CARRY_IN {
			return
		}
		for _, other := range prior {
			if other.Op != OP_CARRY_IN {
				return ErrSameGroup
			}
		}
	}

	return
}

// add records sig as part of the set.
func (v *validator) add(sig Signal) {
	v.seen[sig] = true
	if sig.Download() {
		v.download = true
	}
	group := sig.Group()
	if sig.Upload() {
		v.uploaded[group] = true
	}
	v.groups[group] = append(v.groups[group], sig)
}

// Validate checks a proposed step against the hardware conflict rules,
// left to right, returning the first violation.
func Validate(row Row, memory MemoryState) (err error) {
	v := newValidator(memory)
	for _, sig := range row {
		err = v.check(sig)
		if err != nil {
			return
		}
		v.add(sig)
	}
	return
}

// ValidateNames parses and validates operator supplied signal names.
func ValidateNames(names []string, memory MemoryState) (row Row, err error) {
	for _, name := range names {
		var sig Signal
		sig, err = Parse(name)
		if err != nil {
			return
		}
		row = append(row, sig)
	}

	err = Validate(row, memory)
	return
}

// Set is an incrementally edited signal set. Every edit keeps the set valid.
type Set struct {
	Memory MemoryState // Memory state the set is checked against.
	row    Row
}

// AddSignal adds a signal by name, refusing it if the set would break a rule.
func (set *Set) AddSignal(name string) (err error) {
	sig, err := Parse(name)
	if err != nil {
		return
	}

	v := newValidator(set.Memory)
	for _, prior := range set.row {
		v.add(prior)
	}

	err = v.check(sig)
	if err != nil {
		return
	}

	set.row = append(set.row, sig)
	return
}

// RemoveSignal removes a signal by name. Removing an absent signal is a no-op.
func (set *Set) RemoveSignal(name string) (err error) {
	sig, err := Parse(name)
	if err != nil {
		return
	}

	set.row = slices.DeleteFunc(set.row, func(s Signal) bool { return s == sig })
	return
}

// Validate re-checks the whole set, for use after the memory state changed.
func (set *Set) Validate() error {
	return Validate(set.row, set.Memory)
}

// Row returns a copy of the signals in the set, in insertion order.
func (set *Set) Row() Row {
	return slices.Clone(set.row)
}

// Names returns the signal names in the set.
func (set *Set) Names() []string {
	return set.row.Names()
}

// Clear empties the set.
func (set *Set) Clear() {
	set.row = nil
}
