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

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Forward  key.Binding
	Backward key.Binding
	Pause    key.Binding
	HistUp   key.Binding
	HistDown key.Binding
	MemUp    key.Binding
	MemDown  key.Binding
	Faster   key.Binding
	Slower   key.Binding
	Focus    key.Binding
	Help     key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "step forward")),
	Backward: key.NewBinding(key.WithKeys("left", "j"), key.WithHelp("←", "step back")),
	Pause:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pause")),
	HistUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "history up")),
	HistDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "history down")),
	MemUp:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "memory up")),
	MemDown:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "memory down")),
	Faster:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more steps per tick")),
	Slower:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "fewer steps per tick")),
	Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch transaction")),
	Help:     key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h", "help")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Backward, k.Forward, k.Pause, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Backward, k.Forward, k.Pause},
		{k.Faster, k.Slower, k.Focus},
		{k.HistUp, k.HistDown, k.MemUp, k.MemDown},
		{k.Help, k.Quit},
	}
}
