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

// Package native records instruction traces from EVM execution inside the
// process, without a node.
package native

import (
	"encoding/json"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/eth/tracers"
	"github.com/holiman/uint256"
	"github.com/trill-evm/trill/core/trace"
)

func init() {
	tracers.DefaultDirectory.Register("memoryTracer", newMemoryTracer, false)
}

// memoryTracerConfig bounds the recorded trace.
type memoryTracerConfig struct {
	Limit int `json:"limit"` // zero means unbounded, otherwise later instructions are dropped
}

// memoryTracer captures the stack and the pre-execution memory of every
// instruction, the same data a struct logger returns with memory enabled.
type memoryTracer struct {
	env    atomic.Pointer[vm.EVM]
	cfg    memoryTracerConfig
	logs   []trace.InstructionRecord
	output []byte
	gas    uint64
	err    error

	interrupt atomic.Bool
	mu        sync.Mutex
	reason    error
}

func newMemoryTracer(ctx *tracers.Context, cfg json.RawMessage) (tracers.Tracer, error) {
	t := new(memoryTracer)
	if cfg != nil {
		if err := json.Unmarshal(cfg, &t.cfg); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *memoryTracer) CaptureTxStart(gasLimit uint64) {}

func (t *memoryTracer) CaptureTxEnd(restGas uint64) {}

// CaptureStart implements the EVMLogger interface to initialize the tracing operation.
func (t *memoryTracer) CaptureStart(env *vm.EVM, from common.Address, to common.Address, create bool, input []byte, gas uint64, value *big.Int) {
	t.env.Store(env)
}

// CaptureEnd is called after the call finishes to finalize the tracing.
func (t *memoryTracer) CaptureEnd(output []byte, gasUsed uint64, err error) {
	t.output = common.CopyBytes(output)
	t.gas = gasUsed
	t.err = err
}

func (t *memoryTracer) CaptureEnter(typ vm.OpCode, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
}

func (t *memoryTracer) CaptureExit(output []byte, gasUsed uint64, err error) {}

// CaptureState records one instruction before it executes.
func (t *memoryTracer) CaptureState(pc uint64, op vm.OpCode, gas, cost uint64, scope *vm.ScopeContext, rData []byte, depth int, err error) {
	if t.interrupt.Load() {
		return
	}
	// Past the limit execution goes on, the trace is kept as a prefix.
	if t.cfg.Limit != 0 && len(t.logs) >= t.cfg.Limit {
		return
	}
	rec := trace.InstructionRecord{
		Index:   len(t.logs),
		Op:      op.String(),
		Pc:      pc,
		Gas:     gas,
		GasCost: cost,
		Depth:   depth,
	}
	if err != nil {
		rec.Err = err.Error()
	}
	data := scope.Stack.Data()
	rec.Stack = make([]*uint256.Int, len(data))
	for i := range data {
		rec.Stack[i] = new(uint256.Int).Set(&data[i])
	}
	mem := scope.Memory.Data()
	rec.Memory = make([]common.Hash, len(mem)/32)
	for i := range rec.Memory {
		rec.Memory[i] = common.BytesToHash(mem[i*32 : (i+1)*32])
	}
	t.logs = append(t.logs, rec)
}

// CaptureFault is covered by the error passed to CaptureState.
func (t *memoryTracer) CaptureFault(pc uint64, op vm.OpCode, gas, cost uint64, scope *vm.ScopeContext, depth int, err error) {
}

// result assembles the recorded trace.
func (t *memoryTracer) result() *trace.ExecutionResult {
	return &trace.ExecutionResult{
		Gas:         t.gas,
		Failed:      t.err != nil,
		ReturnValue: common.Bytes2Hex(t.output),
		StructLogs:  t.logs,
	}
}

// GetResult returns the trace in the debug_traceTransaction format.
func (t *memoryTracer) GetResult() (json.RawMessage, error) {
	res, err := json.Marshal(t.result())
	if err != nil {
		return nil, err
	}
	return res, t.stopReason()
}

// Stop terminates execution of the tracer at the first opportune moment.
func (t *memoryTracer) Stop(err error) {
	t.mu.Lock()
	t.reason = err
	t.mu.Unlock()
	t.interrupt.Store(true)
	if env := t.env.Load(); env != nil {
		env.Cancel()
	}
}

func (t *memoryTracer) stopReason() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}
