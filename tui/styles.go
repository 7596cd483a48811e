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
	"github.com/charmbracelet/lipgloss"
	"github.com/trill-evm/trill/core/memory"
)

var (
	colorRead   = lipgloss.Color("#4FC1FF")
	colorWrite  = lipgloss.Color("#FF6B6B")
	colorActive = lipgloss.Color("#6A9955")
	colorUnread = lipgloss.Color("#D7BA7D")
	colorMuted  = lipgloss.Color("#5C6370")
	colorFocus  = lipgloss.Color("#C586C0")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
	focusBoxStyle = boxStyle.BorderForeground(colorFocus)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorWrite).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(colorActive).Bold(true)
	readStyle     = lipgloss.NewStyle().Foreground(colorRead)
	writeStyle    = lipgloss.NewStyle().Foreground(colorWrite)
)

var slotStyles = map[memory.SlotStatus]lipgloss.Style{
	memory.Init:    lipgloss.NewStyle().Foreground(colorMuted),
	memory.Empty:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3E4451")),
	memory.Active:  lipgloss.NewStyle().Foreground(colorActive),
	memory.Reading: lipgloss.NewStyle().Foreground(colorRead).Bold(true),
	memory.Writing: lipgloss.NewStyle().Foreground(colorWrite).Bold(true),
	memory.Unread:  lipgloss.NewStyle().Foreground(colorUnread),
}

var slotGlyphs = map[memory.SlotStatus]string{
	memory.Init:    "··",
	memory.Empty:   "  ",
	memory.Active:  "▒▒",
	memory.Reading: "██",
	memory.Writing: "██",
	memory.Unread:  "▓▓",
}

func renderSlot(s memory.SlotStatus) string {
	return slotStyles[s].Render(slotGlyphs[s])
}

func roleStyle(r memory.Role) lipgloss.Style {
	switch r {
	case memory.Read:
		return readStyle
	case memory.Write:
		return writeStyle
	}
	return mutedStyle
}
