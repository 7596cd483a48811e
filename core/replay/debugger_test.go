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
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trill-evm/trill/core/trace"
)

func TestDebuggerVersus(t *testing.T) {
	a, b := common.HexToHash("0xa"), common.HexToHash("0xb")
	src := trace.NewStaticSource(
		newTrace(a, mstores(6)...),
		newTrace(b, mixed(9)...),
	)
	d, err := NewDebugger(src, a, b)
	require.NoError(t, err)
	assert.True(t, d.Versus())

	require.NoError(t, d.Load(context.Background()))
	for _, s := range d.States() {
		assert.True(t, s.Loaded())
	}

	views, err := d.Advance(context.Background(), 4, Forward, false)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, a, views[0].Transaction.Hash)
	assert.Equal(t, b, views[1].Transaction.Hash)
	assert.Equal(t, 6, views[0].Total)
	assert.Equal(t, 9, views[1].Total)
	assert.Equal(t, 4, views[0].Next)
	assert.Equal(t, 4, views[1].Next)

	// States are independent: the shorter trace finishes on its own.
	views, err = d.Advance(context.Background(), 4, Forward, false)
	require.NoError(t, err)
	assert.True(t, views[0].Done)
	assert.False(t, views[1].Done)
	assert.Equal(t, 8, views[1].Next)
}

func TestDebuggerLoadFailure(t *testing.T) {
	a := common.HexToHash("0xa")
	src := trace.NewStaticSource(newTrace(a, mstores(2)...))
	d, err := NewDebugger(src, a, common.HexToHash("0xbad"))
	require.NoError(t, err)

	err = d.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, trace.ErrNotFound)
}

func TestDebuggerArity(t *testing.T) {
	src := trace.NewStaticSource()
	_, err := NewDebugger(src)
	assert.Error(t, err)
	_, err = NewDebugger(src, common.Hash{}, common.Hash{}, common.Hash{})
	assert.Error(t, err)

	d, err := NewDebugger(src, common.Hash{1})
	require.NoError(t, err)
	assert.False(t, d.Versus())
}
