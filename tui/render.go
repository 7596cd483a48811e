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
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/replay"
)

const (
	minGridCols = 4
	maxGridCols = 32
	historyRows = 8
)

// gridCols is the number of slots per memory grid row for a panel width.
func gridCols(width int) int {
	return min(max((width-12)/2, minGridCols), maxGridCols)
}

// gridRows is the number of rows needed to show n slots.
func gridRows(n, cols int) int {
	return (n + cols - 1) / cols
}

// renderGrid draws the slot vector, one row per cols slots, prefixed by the
// byte offset of the row.
func renderGrid(slots []memory.SlotStatus, cols int) string {
	if len(slots) == 0 {
		return mutedStyle.Render("no memory")
	}
	var b strings.Builder
	for row := 0; row < gridRows(len(slots), cols); row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%06x ", row*cols*32)))
		end := min((row+1)*cols, len(slots))
		for _, s := range slots[row*cols : end] {
			b.WriteString(renderSlot(s))
		}
	}
	return b.String()
}

func renderMemory(v *replay.View, width, height, offset int) string {
	cols := gridCols(width)
	vp := viewport.New(width, height)
	vp.SetContent(renderGrid(v.Slots, cols))
	vp.SetYOffset(offset)

	counts := v.Counts()
	legend := strings.Join([]string{
		slotStyles[memory.Writing].Render(fmt.Sprintf("writing %d", counts[memory.Writing])),
		slotStyles[memory.Reading].Render(fmt.Sprintf("reading %d", counts[memory.Reading])),
		slotStyles[memory.Unread].Render(fmt.Sprintf("unread %d", counts[memory.Unread])),
		slotStyles[memory.Active].Render(fmt.Sprintf("active %d", counts[memory.Active])),
	}, "  ")
	title := titleStyle.Render(fmt.Sprintf("memory %d/%d words", v.Indexed, len(v.Slots)))
	return lipgloss.JoinVertical(lipgloss.Left, title, vp.View(), legend)
}

func renderTransaction(v *replay.View) string {
	tx := v.Transaction
	to := "contract creation"
	if tx.To != nil {
		to = tx.To.Hex()
	}
	status := okStyle.Render("success")
	if v.Failed {
		status = errorStyle.Render("failed")
	}
	lines := []string{
		titleStyle.Render("transaction"),
		"hash   " + tx.Hash.Hex(),
		"from   " + tx.From.Hex(),
		"to     " + to,
		fmt.Sprintf("block  %d", tx.BlockNumber),
		fmt.Sprintf("gas    %d / %d", tx.GasUsed, tx.Gas),
		"status " + status,
		fmt.Sprintf("step   %d / %d (%.0f%%)", v.Next, v.Total, v.Progress()*100),
	}
	return strings.Join(lines, "\n")
}

func renderOperation(v *replay.View) string {
	op := v.Operation
	if op == nil {
		return titleStyle.Render("operation") + "\n" + mutedStyle.Render("not started")
	}
	lines := []string{
		titleStyle.Render("operation") + " " + roleStyle(op.Role).Render(fmt.Sprintf("%s (%s)", op.Op.Name, op.Role)),
		fmt.Sprintf("index  %d", op.Index),
		fmt.Sprintf("pc     %d", op.Pc),
		fmt.Sprintf("gas    %d (cost %d)", op.Gas, op.GasCost),
		fmt.Sprintf("depth  %d", op.Depth),
	}
	for _, o := range op.Operands {
		lines = append(lines, fmt.Sprintf("%-10s %s", o.Name, o.Value.Hex()))
	}
	if op.Err != "" {
		lines = append(lines, errorStyle.Render(op.Err))
	}
	return strings.Join(lines, "\n")
}

// renderHistory lists the most recent opcodes, newest last, skipping the
// newest offset entries.
func renderHistory(v *replay.View, offset int) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("history (%d)", len(v.History)))}
	end := max(len(v.History)-offset, 0)
	start := max(end-historyRows, 0)
	for i := start; i < end; i++ {
		op := v.History[i]
		line := fmt.Sprintf("%6d %s", i, op.Name)
		if op.Kind != memory.Other {
			line = titleStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderChart(v *replay.View, width int) string {
	var reads, writes uint64
	if n := len(v.Reads); n > 0 {
		reads, writes = v.Reads[n-1], v.Writes[n-1]
	}
	width = max(width-14, 1)
	return strings.Join([]string{
		titleStyle.Render("activity"),
		readStyle.Render(fmt.Sprintf("R %6d ", reads)) + activityLine(v.Reads, width, readStyle),
		writeStyle.Render(fmt.Sprintf("W %6d ", writes)) + activityLine(v.Writes, width, writeStyle),
	}, "\n")
}

// renderPanel lays out every widget of one transaction in a column.
func renderPanel(v *replay.View, p pane, width, gridHeight int, focused bool) string {
	style := boxStyle
	if focused {
		style = focusBoxStyle
	}
	inner := max(width-4, 1)
	box := func(s string) string { return style.Width(inner).Render(s) }

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		style.Width(inner/2).Render(renderTransaction(v)),
		style.Width(inner-inner/2-2).Render(renderOperation(v)),
	)
	if inner < 80 {
		top = lipgloss.JoinVertical(lipgloss.Left, box(renderTransaction(v)), box(renderOperation(v)))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		box(renderMemory(v, inner-2, gridHeight, p.memOffset)),
		lipgloss.JoinHorizontal(lipgloss.Top,
			style.Width(24).Render(renderHistory(v, p.histOffset)),
			style.Width(max(inner-28, 10)).Render(renderChart(v, inner-28)),
		),
	)
}
