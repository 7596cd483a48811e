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

// Package trace contains the instruction-level execution trace model consumed
// by the replay engine, together with the sources able to produce it.
package trace

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// InstructionRecord is a single step of a struct-logger execution trace.
// Memory holds the 32-byte words observed *before* the instruction ran, so the
// effect of instruction i only shows up in the memory of instruction i+1.
type InstructionRecord struct {
	Index   int
	Op      string
	Pc      uint64
	Gas     uint64
	GasCost uint64
	Depth   int
	Err     string

	// Stack is ordered bottom to top, the last element is the top of stack.
	// A nil stack means the tracer did not capture it.
	Stack []*uint256.Int

	// Memory is nil when the tracer did not capture memory. An empty, non-nil
	// slice means memory was captured and was empty.
	Memory []common.Hash
}

// MemoryWords returns the number of memory words reported before the
// instruction executed.
func (r *InstructionRecord) MemoryWords() int {
	return len(r.Memory)
}

// HasMemory reports whether the tracer captured memory for this step.
func (r *InstructionRecord) HasMemory() bool {
	return r.Memory != nil
}

// Back returns the n'th item counted from the top of the stack, Back(0) being
// the top. The boolean is false if the stack is absent or too shallow.
func (r *InstructionRecord) Back(n int) (*uint256.Int, bool) {
	if n < 0 || n >= len(r.Stack) {
		return nil, false
	}
	return r.Stack[len(r.Stack)-1-n], true
}

// Transaction is the envelope of the traced transaction.
type Transaction struct {
	Hash        common.Hash     `json:"hash" yaml:"hash"`
	From        common.Address  `json:"from" yaml:"from"`
	To          *common.Address `json:"to,omitempty" yaml:"to,omitempty"`
	BlockHash   common.Hash     `json:"blockHash" yaml:"blockHash"`
	BlockNumber uint64          `json:"blockNumber" yaml:"blockNumber"`
	Gas         uint64          `json:"gas" yaml:"gas"`
	GasUsed     uint64          `json:"gasUsed" yaml:"gasUsed"`
	Status      uint64          `json:"status" yaml:"status"`
}

// Trace is a fully acquired transaction: its envelope plus the ordered
// instruction log produced by debug_traceTransaction.
type Trace struct {
	Transaction Transaction
	Failed      bool
	Gas         uint64
	ReturnValue string
	Records     []InstructionRecord
}

// NewTrace assembles a trace from an execution result, numbering the records
// in execution order.
func NewTrace(tx Transaction, res *ExecutionResult) *Trace {
	records := make([]InstructionRecord, len(res.StructLogs))
	copy(records, res.StructLogs)
	for i := range records {
		records[i].Index = i
	}
	return &Trace{
		Transaction: tx,
		Failed:      res.Failed,
		Gas:         res.Gas,
		ReturnValue: res.ReturnValue,
		Records:     records,
	}
}

// MaxMemoryWords returns the largest memory size, in words, observed across
// the whole trace.
func (t *Trace) MaxMemoryWords() int {
	var max int
	for i := range t.Records {
		if n := t.Records[i].MemoryWords(); n > max {
			max = n
		}
	}
	return max
}

// Len returns the number of instructions in the trace.
func (t *Trace) Len() int {
	return len(t.Records)
}

// Result converts the trace back into the wire representation.
func (t *Trace) Result() *ExecutionResult {
	return &ExecutionResult{
		Gas:         t.Gas,
		Failed:      t.Failed,
		ReturnValue: t.ReturnValue,
		StructLogs:  t.Records,
	}
}
