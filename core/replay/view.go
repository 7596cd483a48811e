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

package replay

import (
	"github.com/holiman/uint256"
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/trace"
)

// Operation is the decoded form of the latest processed instruction.
type Operation struct {
	Index    int
	Op       memory.Opcode
	Role     memory.Role
	Pc       uint64
	Gas      uint64
	GasCost  uint64
	Depth    int
	Err      string
	Operands []memory.Operand
}

func newOperation(rec *trace.InstructionRecord, eff *memory.Effect) *Operation {
	return &Operation{
		Index:    rec.Index,
		Op:       eff.Op,
		Role:     eff.Role,
		Pc:       rec.Pc,
		Gas:      rec.Gas,
		GasCost:  rec.GasCost,
		Depth:    rec.Depth,
		Err:      rec.Err,
		Operands: eff.Operands,
	}
}

// OperandMap returns the named stack arguments.
func (o *Operation) OperandMap() map[string]*uint256.Int {
	m := make(map[string]*uint256.Int, len(o.Operands))
	for _, op := range o.Operands {
		m[op.Name] = op.Value
	}
	return m
}

// View is a frozen copy of a State taken after an Advance. It shares nothing
// mutable with the engine.
type View struct {
	Transaction trace.Transaction
	Failed      bool

	Slots   []memory.SlotStatus
	Indexed int
	Next    int
	Total   int

	History   []memory.Opcode
	Operation *Operation // nil before the first step
	Reads     []uint64
	Writes    []uint64

	// Done is set once the last instruction has been processed.
	Done bool
}

// Counts returns how many slots carry each status.
func (v *View) Counts() map[memory.SlotStatus]int {
	counts := make(map[memory.SlotStatus]int)
	for _, s := range v.Slots {
		counts[s]++
	}
	return counts
}

// Progress returns the fraction of the trace processed, in [0, 1].
func (v *View) Progress() float64 {
	if v.Total == 0 {
		return 1
	}
	return float64(v.Next) / float64(v.Total)
}

func (s *State) snapshot() *View {
	v := &View{
		Slots:   append([]memory.SlotStatus(nil), s.slots...),
		Indexed: s.indexed,
		Next:    s.next,
		History: append([]memory.Opcode(nil), s.hist.ops...),
		Reads:   append([]uint64(nil), s.hist.reads...),
		Writes:  append([]uint64(nil), s.hist.writes...),
	}
	if s.trace != nil {
		v.Transaction = s.trace.Transaction
		v.Failed = s.trace.Failed
		v.Total = s.trace.Len()
		v.Done = s.next >= v.Total
	}
	if s.render != nil {
		op := *s.render
		op.Operands = append([]memory.Operand(nil), s.render.Operands...)
		v.Operation = &op
	}
	return v
}
