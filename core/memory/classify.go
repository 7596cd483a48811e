// Copyright 2024 The trill Authors
// This file is part of trill.
//
// trill is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// trill is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with trill. If not, see <http://www.gnu.org/licenses/>.

package memory

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/trill-evm/trill/core/trace"
)

// ErrStackUnderflow is returned when a trace entry does not carry enough
// stack operands to decode its memory effect.
var ErrStackUnderflow = errors.New("stack underflow")

// Touch marks one memory word affected by an instruction. ForceRead touches
// are reads regardless of the instruction role, used for the source side of
// in-place copies.
type Touch struct {
	Slot      int
	ForceRead bool
}

// Operand is a named stack argument, kept for display.
type Operand struct {
	Name  string
	Value *uint256.Int
}

// Effect is the decoded memory effect of a single instruction.
type Effect struct {
	Op       Opcode
	Role     Role
	Touches  []Touch
	Operands []Operand
}

// Operand returns the named stack argument, or nil if the opcode has none by
// that name.
func (e *Effect) Operand(name string) *uint256.Int {
	for _, o := range e.Operands {
		if o.Name == name {
			return o.Value
		}
	}
	return nil
}

// OperandMap returns the stack arguments keyed by name.
func (e *Effect) OperandMap() map[string]*uint256.Int {
	m := make(map[string]*uint256.Int, len(e.Operands))
	for _, o := range e.Operands {
		m[o.Name] = o.Value
	}
	return m
}

// Counts returns the number of touched words on the write side and on the
// read side of the effect.
func (e *Effect) Counts() (writes, reads int) {
	for _, t := range e.Touches {
		if t.ForceRead || e.Role == Read {
			reads++
		} else if e.Role == Write {
			writes++
		}
	}
	return writes, reads
}

// operandNames lists the stack arguments, top of stack first.
var operandNames = map[Kind][]string{
	MLOAD:          {"offset"},
	MSTORE:         {"offset", "value"},
	MSTORE8:        {"offset", "value"},
	CALLDATACOPY:   {"destOffset", "offset", "size"},
	CODECOPY:       {"destOffset", "offset", "size"},
	RETURNDATACOPY: {"destOffset", "offset", "size"},
	EXTCODECOPY:    {"address", "destOffset", "offset", "size"},
	MCOPY:          {"destOffset", "offset", "size"},
}

// Classify decodes the memory effect of rec. Indexed is the number of words
// currently in bounds, used by MSIZE. Touches are clipped to limit words.
func Classify(rec *trace.InstructionRecord, indexed, limit int) (Effect, error) {
	op := ParseOpcode(rec.Op)
	eff := Effect{Op: op}

	names := operandNames[op.Kind]
	if len(rec.Stack) < len(names) {
		return eff, fmt.Errorf("instruction %d (%s): %w: have %d, want %d",
			rec.Index, rec.Op, ErrStackUnderflow, len(rec.Stack), len(names))
	}
	for i, name := range names {
		v, _ := rec.Back(i)
		eff.Operands = append(eff.Operands, Operand{Name: name, Value: v})
	}

	switch op.Kind {
	case MLOAD:
		eff.Role = Read
		eff.Touches = touches(eff.Operand("offset"), 1, limit, false)
	case MSTORE, MSTORE8:
		eff.Role = Write
		eff.Touches = touches(eff.Operand("offset"), 1, limit, false)
	case CALLDATACOPY, CODECOPY, RETURNDATACOPY, EXTCODECOPY:
		eff.Role = Write
		n := Words(saturate(eff.Operand("size")))
		eff.Touches = touches(eff.Operand("destOffset"), n, limit, false)
	case MCOPY:
		eff.Role = Write
		n := Words(saturate(eff.Operand("size")))
		eff.Touches = touches(eff.Operand("destOffset"), n, limit, false)
		eff.Touches = append(eff.Touches, touches(eff.Operand("offset"), n, limit, true)...)
	case MSIZE:
		eff.Role = Read
		if indexed > limit {
			indexed = limit
		}
		for slot := 0; slot < indexed; slot++ {
			eff.Touches = append(eff.Touches, Touch{Slot: slot})
		}
	case Other:
		eff.Role = None
	}
	return eff, nil
}

func touches(offset *uint256.Int, count uint64, limit int, forceRead bool) []Touch {
	from, to := WordRange(saturate(offset)/32, count, limit)
	if from >= to {
		return nil
	}
	out := make([]Touch, 0, to-from)
	for slot := from; slot < to; slot++ {
		out = append(out, Touch{Slot: slot, ForceRead: forceRead})
	}
	return out
}

func saturate(v *uint256.Int) uint64 {
	if v == nil {
		return 0
	}
	n, overflow := v.Uint64WithOverflow()
	if overflow {
		return ^uint64(0)
	}
	return n
}

// Words returns the number of 32-byte words needed to hold size bytes.
func Words(size uint64) uint64 {
	if size > ^uint64(0)-31 {
		return ^uint64(0)/32 + 1
	}
	return (size + 31) / 32
}

// WordRange clips the word range [start, start+count) to [0, limit).
func WordRange(start, count uint64, limit int) (int, int) {
	if limit <= 0 || start >= uint64(limit) {
		return 0, 0
	}
	end := start + count
	if end < start || end > uint64(limit) {
		end = uint64(limit)
	}
	return int(start), int(end)
}
