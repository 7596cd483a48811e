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

package native

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm/runtime"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/trill-evm/trill/core/trace"
	"github.com/trill-evm/trill/log"
)

// DefaultGasLimit is the gas available to a local run when none is given.
const DefaultGasLimit = 10_000_000

// contractAddress is where runtime.Execute installs the code.
var contractAddress = common.BytesToAddress([]byte("contract"))

// Source executes bytecode in an in-memory EVM and serves the resulting trace.
// Its transaction hash is synthetic, derived from the code and input.
type Source struct {
	Code     []byte
	Input    []byte
	GasLimit uint64
	Origin   common.Address
	// Limit caps the number of recorded instructions, zero means unbounded.
	// Execution still runs to completion and only the first Limit are kept.
	Limit int
}

// Hash returns the synthetic transaction hash of the run.
func (s *Source) Hash() common.Hash {
	return crypto.Keccak256Hash(s.Code, s.Input)
}

// Fetch runs the code and returns its trace. A zero hash is accepted in place
// of Hash.
func (s *Source) Fetch(ctx context.Context, hash common.Hash) (*trace.Trace, error) {
	if hash != (common.Hash{}) && hash != s.Hash() {
		return nil, trace.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gasLimit := s.GasLimit
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}
	tracer := &memoryTracer{cfg: memoryTracerConfig{Limit: s.Limit}}
	cfg := &runtime.Config{
		Origin:   s.Origin,
		GasLimit: gasLimit,
	}
	cfg.EVMConfig.Tracer = tracer

	stop := context.AfterFunc(ctx, func() { tracer.Stop(ctx.Err()) })
	defer stop()

	start := time.Now()
	_, _, err := runtime.Execute(s.Code, s.Input, cfg)
	if reason := tracer.stopReason(); reason != nil {
		return nil, errors.Wrap(reason, "local execution interrupted")
	}
	res := tracer.result()
	log.Debug("Executed code locally", "instructions", len(res.StructLogs), "gas", res.Gas, "err", err, "elapsed", time.Since(start))

	status := uint64(1)
	if err != nil {
		status = 0
		res.Failed = true
	}
	to := contractAddress
	tx := trace.Transaction{
		Hash:    s.Hash(),
		From:    s.Origin,
		To:      &to,
		Gas:     gasLimit,
		GasUsed: res.Gas,
		Status:  status,
	}
	return trace.NewTrace(tx, res), nil
}
