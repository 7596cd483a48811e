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

package tui

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/replay"
	"github.com/trill-evm/trill/core/trace"
)

var (
	txA = common.HexToHash("0xaa")
	txB = common.HexToHash("0xbb")
)

// storeTrace returns n MSTOREs, each growing memory by one word.
func storeTrace(hash common.Hash, n int) *trace.Trace {
	res := new(trace.ExecutionResult)
	for i := 0; i < n; i++ {
		res.StructLogs = append(res.StructLogs, trace.InstructionRecord{
			Op:     "MSTORE",
			Pc:     uint64(i),
			Depth:  1,
			Stack:  []*uint256.Int{uint256.NewInt(0xff), uint256.NewInt(uint64(32 * i))},
			Memory: make([]common.Hash, i),
		})
	}
	return trace.NewTrace(trace.Transaction{Hash: hash}, res)
}

func newModel(t *testing.T, src trace.Source, hashes ...common.Hash) *Model {
	t.Helper()
	dbg, err := replay.NewDebugger(src, hashes...)
	require.NoError(t, err)
	return New(context.Background(), dbg, Config{FPS: 10, Iteration: 1})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func loaded(t *testing.T, m *Model) {
	t.Helper()
	_, cmd := m.Update(m.load())
	require.Nil(t, cmd)
	require.True(t, m.loaded)
	require.NoError(t, m.Err())
}

func TestModelIgnoresTicksUntilLoaded(t *testing.T) {
	m := newModel(t, trace.NewStaticSource(storeTrace(txA, 3)), txA)

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Nil(t, m.views)
	assert.Contains(t, m.View(), "loading")

	loaded(t, m)
	require.Len(t, m.views, 1)
	assert.Equal(t, 0, m.views[0].Next)
	assert.Contains(t, m.View(), "not started")
}

func TestModelStepping(t *testing.T) {
	m := newModel(t, trace.NewStaticSource(storeTrace(txA, 3)), txA)
	loaded(t, m)

	m.Update(tickMsg(time.Now()))
	assert.Equal(t, 1, m.views[0].Next)
	assert.Contains(t, m.View(), "MSTORE")

	m.Update(runes("+"))
	assert.Equal(t, 2, m.cfg.Iteration)
	m.Update(tickMsg(time.Now()))
	assert.Equal(t, 3, m.views[0].Next)
	assert.True(t, m.views[0].Done)

	m.Update(runes("-"))
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, replay.Backward, m.dir)
	m.Update(tickMsg(time.Now()))
	assert.Equal(t, 2, m.views[0].Next)

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	require.True(t, m.paused)
	before := m.views[0].Next
	m.Update(tickMsg(time.Now()))
	assert.Equal(t, before, m.views[0].Next)

	m.Update(runes("-"))
	assert.Equal(t, 1, m.cfg.Iteration)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, replay.Forward, m.dir)
}

func TestModelScrollIsClamped(t *testing.T) {
	m := newModel(t, trace.NewStaticSource(storeTrace(txA, 4)), txA)
	loaded(t, m)
	for i := 0; i < 4; i++ {
		m.Update(tickMsg(time.Now()))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.panes[0].histOffset)
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.panes[0].histOffset)
	for i := 0; i < 10; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, len(m.views[0].History)-1, m.panes[0].histOffset)

	m.Update(runes("s"))
	assert.Equal(t, 0, m.panes[0].memOffset)
	m.Update(runes("w"))
	assert.Equal(t, 0, m.panes[0].memOffset)
}

func TestModelVersus(t *testing.T) {
	m := newModel(t, trace.NewStaticSource(storeTrace(txA, 2), storeTrace(txB, 5)), txA, txB)
	loaded(t, m)
	require.Len(t, m.views, 2)
	m.Update(tea.WindowSizeMsg{Width: 400, Height: 60})

	m.Update(tickMsg(time.Now()))
	m.Update(tickMsg(time.Now()))
	assert.Equal(t, 2, m.views[0].Next)
	assert.Equal(t, 2, m.views[1].Next)
	assert.True(t, m.views[0].Done)
	assert.False(t, m.views[1].Done)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.focus)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.focus)

	out := m.View()
	assert.Contains(t, out, txA.Hex())
	assert.Contains(t, out, txB.Hex())
}

func TestModelQuits(t *testing.T) {
	m := newModel(t, trace.NewStaticSource(storeTrace(txA, 1)), txA)
	_, cmd := m.Update(runes("q"))
	assert.True(t, isQuit(cmd))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
}

func TestModelLoadFailure(t *testing.T) {
	m := newModel(t, trace.NewStaticSource(), txA)
	_, cmd := m.Update(m.load())
	assert.True(t, isQuit(cmd))
	assert.ErrorIs(t, m.Err(), trace.ErrNotFound)
	assert.Contains(t, m.View(), "error")
}

func TestModelDecodeFailure(t *testing.T) {
	res := &trace.ExecutionResult{StructLogs: []trace.InstructionRecord{{Op: "MSTORE", Stack: []*uint256.Int{}}}}
	m := newModel(t, trace.NewStaticSource(trace.NewTrace(trace.Transaction{Hash: txA}, res)), txA)
	loaded(t, m)

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.True(t, isQuit(cmd))
	assert.ErrorIs(t, m.Err(), memory.ErrStackUnderflow)
}

func TestModelHelp(t *testing.T) {
	m := newModel(t, trace.NewStaticSource(storeTrace(txA, 1)), txA)
	loaded(t, m)
	assert.NotContains(t, m.View(), "memory down")
	m.Update(runes("h"))
	assert.Contains(t, m.View(), "memory down")
}

func TestConfigSanitize(t *testing.T) {
	cfg := Config{}
	cfg.sanitize()
	assert.Equal(t, Config{FPS: DefaultFPS, Iteration: DefaultIteration}, cfg)
}

func TestActivityLine(t *testing.T) {
	plain := lipgloss.NewStyle()
	assert.Equal(t, "", activityLine(nil, 10, plain))
	assert.Equal(t, "", activityLine([]uint64{1}, 0, plain))

	out := activityLine([]uint64{0, 1, 2, 3, 4, 5, 6, 7}, 8, plain)
	assert.Equal(t, 8, lipgloss.Width(out))
	assert.Contains(t, out, "█")

	flat := activityLine([]uint64{4, 4, 4}, 8, plain)
	assert.Equal(t, 3, lipgloss.Width(flat))
	assert.NotContains(t, flat, "█")

	// Only the last points are drawn.
	assert.Equal(t, 2, lipgloss.Width(activityLine([]uint64{9, 0, 5, 10}, 2, plain)))

	huge := activityLine([]uint64{0, math.MaxUint64 / 2, math.MaxUint64}, 3, plain)
	assert.Equal(t, 3, lipgloss.Width(huge))
	assert.Contains(t, huge, "█")
}

func TestRenderGrid(t *testing.T) {
	slots := []memory.SlotStatus{memory.Writing, memory.Reading, memory.Unread, memory.Active, memory.Init}
	out := renderGrid(slots, 4)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "000000")
	assert.Contains(t, lines[1], "000080")
	assert.Equal(t, 2, gridRows(5, 4))
	assert.Equal(t, minGridCols, gridCols(0))
	assert.Equal(t, maxGridCols, gridCols(1000))
}
