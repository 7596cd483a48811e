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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trill-evm/trill/core/trace"
)

// stack builds a bottom-to-top stack from top-first values.
func stack(top ...uint64) []*uint256.Int {
	s := make([]*uint256.Int, len(top))
	for i, v := range top {
		s[len(top)-1-i] = uint256.NewInt(v)
	}
	return s
}

func slots(ts []Touch, forceRead bool) []int {
	var out []int
	for _, t := range ts {
		if t.ForceRead == forceRead {
			out = append(out, t.Slot)
		}
	}
	return out
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		op     string
		stack  []*uint256.Int
		role   Role
		marked []int
		forced []int
	}{
		{name: "mload", op: "MLOAD", stack: stack(0x40), role: Read, marked: []int{2}},
		{name: "mstore", op: "MSTORE", stack: stack(0x40, 0x80), role: Write, marked: []int{2}},
		{name: "mstore unaligned", op: "MSTORE", stack: stack(0x3f, 1), role: Write, marked: []int{1}},
		{name: "mstore8", op: "MSTORE8", stack: stack(0x21, 0xff), role: Write, marked: []int{1}},
		{name: "calldatacopy", op: "CALLDATACOPY", stack: stack(0x20, 0, 0x41), role: Write, marked: []int{1, 2, 3}},
		{name: "codecopy empty", op: "CODECOPY", stack: stack(0x20, 0, 0), role: Write},
		{name: "returndatacopy", op: "RETURNDATACOPY", stack: stack(0, 0, 0x20), role: Write, marked: []int{0}},
		{name: "extcodecopy", op: "EXTCODECOPY", stack: stack(0xdead, 0x60, 0, 0x40), role: Write, marked: []int{3, 4}},
		{name: "mcopy", op: "MCOPY", stack: stack(0x80, 0x00, 0x40), role: Write, marked: []int{4, 5}, forced: []int{0, 1}},
		{name: "msize", op: "MSIZE", stack: stack(), role: Read, marked: []int{0, 1, 2}},
		{name: "add", op: "ADD", stack: stack(1, 2), role: None},
		{name: "unknown", op: "NOTANOP", role: None},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &trace.InstructionRecord{Op: tt.op, Stack: tt.stack}
			eff, err := Classify(rec, 3, 8)
			require.NoError(t, err)
			assert.Equal(t, tt.role, eff.Role)
			// Plain touches take the role of the instruction.
			assert.Equal(t, tt.marked, slots(eff.Touches, false))
			assert.Equal(t, tt.forced, slots(eff.Touches, true))
		})
	}
}

func TestClassifyOperands(t *testing.T) {
	rec := &trace.InstructionRecord{Op: "EXTCODECOPY", Stack: stack(0xdead, 0x60, 0x4, 0x40)}
	eff, err := Classify(rec, 0, 8)
	require.NoError(t, err)

	ops := eff.OperandMap()
	require.Len(t, ops, 4)
	assert.Equal(t, uint64(0xdead), ops["address"].Uint64())
	assert.Equal(t, uint64(0x60), ops["destOffset"].Uint64())
	assert.Equal(t, uint64(0x4), ops["offset"].Uint64())
	assert.Equal(t, uint64(0x40), ops["size"].Uint64())
	assert.Nil(t, eff.Operand("value"))

	w, r := eff.Counts()
	assert.Equal(t, 2, w)
	assert.Equal(t, 0, r)
}

func TestClassifyMcopyCounts(t *testing.T) {
	rec := &trace.InstructionRecord{Op: "MCOPY", Stack: stack(0x40, 0, 0x40)}
	eff, err := Classify(rec, 0, 4)
	require.NoError(t, err)
	w, r := eff.Counts()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, r)
}

func TestClassifyClipsAndSaturates(t *testing.T) {
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200)

	// Offset far beyond memory: nothing to mark.
	rec := &trace.InstructionRecord{Op: "MSTORE", Stack: []*uint256.Int{uint256.NewInt(1), huge}}
	eff, err := Classify(rec, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, Write, eff.Role)
	assert.Empty(t, eff.Touches)

	// Huge size is clipped at the slot vector.
	rec = &trace.InstructionRecord{Op: "CALLDATACOPY", Stack: []*uint256.Int{huge, uint256.NewInt(0), uint256.NewInt(0x20)}}
	eff, err = Classify(rec, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, slots(eff.Touches, false))

	// MSIZE never exceeds the slot vector.
	eff, err = Classify(&trace.InstructionRecord{Op: "MSIZE"}, 10, 4)
	require.NoError(t, err)
	assert.Len(t, eff.Touches, 4)
}

func TestClassifyStackUnderflow(t *testing.T) {
	for _, op := range []string{"MLOAD", "MSTORE", "CALLDATACOPY", "EXTCODECOPY", "MCOPY"} {
		rec := &trace.InstructionRecord{Index: 7, Op: op, Stack: stack(0x20)[:0]}
		_, err := Classify(rec, 0, 4)
		require.Error(t, err, op)
		assert.True(t, errors.Is(err, ErrStackUnderflow), op)
		assert.Contains(t, err.Error(), "instruction 7")
	}
	// An absent stack is only an error for opcodes needing operands.
	_, err := Classify(&trace.InstructionRecord{Op: "JUMPDEST"}, 0, 4)
	assert.NoError(t, err)
}

func TestWords(t *testing.T) {
	assert.Equal(t, uint64(0), Words(0))
	assert.Equal(t, uint64(1), Words(1))
	assert.Equal(t, uint64(1), Words(32))
	assert.Equal(t, uint64(2), Words(33))
	assert.Equal(t, ^uint64(0)/32+1, Words(^uint64(0)))

	from, to := WordRange(2, 10, 5)
	assert.Equal(t, 2, from)
	assert.Equal(t, 5, to)
	from, to = WordRange(^uint64(0)-1, 10, 5)
	assert.Equal(t, from, to)
}

func TestParseOpcode(t *testing.T) {
	assert.Equal(t, Opcode{Kind: MCOPY, Name: "MCOPY"}, ParseOpcode("MCOPY"))
	assert.Equal(t, Opcode{Kind: MLOAD, Name: "MLOAD"}, ParseOpcode("mload"))
	assert.Equal(t, Opcode{Kind: Other, Name: "STOP"}, ParseOpcode("STOP"))
	assert.Equal(t, Opcode{Kind: Other, Name: "FROB"}, ParseOpcode("FROB"))
	assert.True(t, ParseOpcode("MSIZE").IsMemory())
	assert.False(t, ParseOpcode("ADD").IsMemory())

	set, err := ParseOpcodeSet("mstore, MLOAD,,")
	require.NoError(t, err)
	assert.True(t, set.Contains("MSTORE", "MLOAD"))
	assert.Equal(t, 2, set.Cardinality())

	_, err = ParseOpcodeSet("MSTORE,FROB")
	assert.Error(t, err)

	assert.Len(t, MemoryOpcodes(), 9)
}

func TestStatusAging(t *testing.T) {
	assert.Equal(t, Active, Init.Age())
	assert.Equal(t, Active, Reading.Age())
	assert.Equal(t, Unread, Writing.Age())
	assert.Equal(t, Unread, Unread.Age())
	assert.Equal(t, Empty, Empty.Age())
	assert.Equal(t, "writing", Writing.String())
	assert.Equal(t, Reading, Read.Status())
	assert.Equal(t, Writing, Write.Status())
	assert.Equal(t, byte('W'), Writing.Symbol())
	assert.Equal(t, byte('?'), SlotStatus(42).Symbol())
}
