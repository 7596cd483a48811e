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
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/eth/tracers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/replay"
	"github.com/trill-evm/trill/core/trace"
)

// storeLoadCode stores 0x80 at 0x40, loads it back, stores it at 0 and
// returns the first word.
var storeLoadCode = common.FromHex("608060405260405160005260206000f3")

func TestLocalExecution(t *testing.T) {
	src := &Source{Code: storeLoadCode}
	tr, err := src.Fetch(context.Background(), common.Hash{})
	require.NoError(t, err)

	ops := make([]string, tr.Len())
	for i, rec := range tr.Records {
		ops[i] = rec.Op
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, 1, rec.Depth)
	}
	assert.Equal(t, []string{
		"PUSH1", "PUSH1", "MSTORE", "PUSH1", "MLOAD",
		"PUSH1", "MSTORE", "PUSH1", "PUSH1", "RETURN",
	}, ops)

	// Memory is captured before each instruction runs.
	assert.Empty(t, tr.Records[2].Memory)
	require.Len(t, tr.Records[3].Memory, 3)
	assert.Equal(t, common.BytesToHash([]byte{0x80}), tr.Records[3].Memory[2])

	top, ok := tr.Records[2].Back(0)
	require.True(t, ok)
	assert.Equal(t, uint64(0x40), top.Uint64())

	assert.False(t, tr.Failed)
	assert.Equal(t, src.Hash(), tr.Transaction.Hash)
	assert.Equal(t, uint64(1), tr.Transaction.Status)
	assert.Equal(t, common.Bytes2Hex(common.LeftPadBytes([]byte{0x80}, 32)), tr.ReturnValue)
	assert.NotZero(t, tr.Transaction.GasUsed)
}

func TestLocalReplay(t *testing.T) {
	src := &Source{Code: storeLoadCode}
	s := replay.NewState(src, src.Hash())

	v, err := s.Advance(context.Background(), 10, replay.Forward, false)
	require.NoError(t, err)
	require.True(t, v.Done)
	require.Len(t, v.Slots, 3)

	assert.Equal(t, uint64(4), v.Writes[len(v.Writes)-1])
	assert.Equal(t, uint64(1), v.Reads[len(v.Reads)-1])
	assert.Equal(t, memory.Unread, v.Slots[0])
	assert.Equal(t, memory.Unread, v.Slots[1])
	assert.Equal(t, memory.Active, v.Slots[2])
}

func TestLocalExecutionRevert(t *testing.T) {
	// PUSH1 0 PUSH1 0 REVERT
	src := &Source{Code: common.FromHex("60006000fd")}
	tr, err := src.Fetch(context.Background(), src.Hash())
	require.NoError(t, err)
	assert.True(t, tr.Failed)
	assert.Equal(t, uint64(0), tr.Transaction.Status)
	assert.Equal(t, 3, tr.Len())
}

func TestLocalExecutionLimits(t *testing.T) {
	src := &Source{Code: storeLoadCode, Limit: 3}
	tr, err := src.Fetch(context.Background(), common.Hash{})
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())
	assert.Equal(t, "MSTORE", tr.Records[2].Op)
	assert.False(t, tr.Failed)
	assert.Equal(t, common.Bytes2Hex(common.LeftPadBytes([]byte{0x80}, 32)), tr.ReturnValue)

	// The prefix replays like any other trace.
	s := replay.NewState(src, src.Hash())
	v, err := s.Advance(context.Background(), 3, replay.Forward, false)
	require.NoError(t, err)
	assert.True(t, v.Done)
	assert.Equal(t, "MSTORE", v.Operation.Op.Name)

	_, err = src.Fetch(context.Background(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, trace.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Source{Code: storeLoadCode}).Fetch(ctx, common.Hash{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTracerDirectory(t *testing.T) {
	tracer, err := tracers.DefaultDirectory.New("memoryTracer", new(tracers.Context), json.RawMessage(`{"limit":2}`))
	require.NoError(t, err)
	mt, ok := tracer.(*memoryTracer)
	require.True(t, ok)
	assert.Equal(t, 2, mt.cfg.Limit)
}
