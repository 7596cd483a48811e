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

// Package tui renders a replay debugger in the terminal.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/trill-evm/trill/core/replay"
	"github.com/trill-evm/trill/log"
)

const (
	DefaultFPS       = 30
	DefaultIteration = 1

	defaultWidth  = 120
	defaultHeight = 40
)

// Config holds the stepping parameters of a session.
type Config struct {
	FPS       int
	Iteration int
}

func (c *Config) sanitize() {
	if c.FPS <= 0 {
		log.Warn("Sanitizing invalid fps", "provided", c.FPS, "updated", DefaultFPS)
		c.FPS = DefaultFPS
	}
	if c.Iteration < 1 {
		log.Warn("Sanitizing invalid iteration", "provided", c.Iteration, "updated", DefaultIteration)
		c.Iteration = DefaultIteration
	}
}

type (
	loadedMsg struct{ err error }
	tickMsg   time.Time
)

// pane is the per-transaction scroll state.
type pane struct {
	memOffset  int
	histOffset int
}

// Model is the bubbletea model of a debugging session. It is the only caller
// of the debugger once the program runs.
type Model struct {
	ctx context.Context
	dbg *replay.Debugger
	cfg Config

	dir      replay.Direction
	paused   bool
	loaded   bool
	views    []*replay.View
	panes    []pane
	focus    int
	showHelp bool
	help     help.Model

	width, height int
	err           error
}

// New creates a model over dbg. The debugger is loaded when the program starts.
func New(ctx context.Context, dbg *replay.Debugger, cfg Config) *Model {
	cfg.sanitize()
	return &Model{
		ctx:    ctx,
		dbg:    dbg,
		cfg:    cfg,
		dir:    replay.Forward,
		panes:  make([]pane, len(dbg.States())),
		help:   help.New(),
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Err returns the error that ended the session, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load, m.tick())
}

func (m *Model) load() tea.Msg {
	return loadedMsg{err: m.dbg.Load(m.ctx)}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.cfg.FPS), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.loaded = true
		return m, m.advance(true)

	case tickMsg:
		if !m.loaded {
			return m, m.tick()
		}
		if cmd := m.advance(m.paused); cmd != nil {
			return m, cmd
		}
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// advance steps every transaction once and keeps the resulting views.
func (m *Model) advance(paused bool) tea.Cmd {
	views, err := m.dbg.Advance(m.ctx, m.cfg.Iteration, m.dir, paused)
	if err != nil {
		m.err = err
		return tea.Quit
	}
	m.views = views
	m.clampScroll()
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	p := &m.panes[m.focus]
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Forward):
		m.dir = replay.Forward
	case key.Matches(msg, keys.Backward):
		m.dir = replay.Backward
	case key.Matches(msg, keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, keys.Faster):
		m.cfg.Iteration++
	case key.Matches(msg, keys.Slower):
		m.cfg.Iteration = max(m.cfg.Iteration-1, 1)
	case key.Matches(msg, keys.HistUp):
		p.histOffset++
	case key.Matches(msg, keys.HistDown):
		p.histOffset--
	case key.Matches(msg, keys.MemUp):
		p.memOffset--
	case key.Matches(msg, keys.MemDown):
		p.memOffset++
	case key.Matches(msg, keys.Focus):
		m.focus = (m.focus + 1) % len(m.panes)
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	}
	m.clampScroll()
	return nil
}

func (m *Model) clampScroll() {
	for i := range m.panes {
		p := &m.panes[i]
		var hist, rows int
		if i < len(m.views) {
			hist = len(m.views[i].History)
			rows = gridRows(len(m.views[i].Slots), gridCols(m.panelWidth()-6))
		}
		p.histOffset = min(max(p.histOffset, 0), max(hist-1, 0))
		p.memOffset = min(max(p.memOffset, 0), max(rows-m.gridHeight(), 0))
	}
}

func (m *Model) panelWidth() int {
	return m.width / max(len(m.panes), 1)
}

func (m *Model) gridHeight() int {
	return max(m.height-30, 3)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("error: %v", m.err)) + "\n"
	}
	if !m.loaded {
		return mutedStyle.Render("loading trace...") + "\n"
	}
	panels := make([]string, len(m.views))
	for i, v := range m.views {
		focused := len(m.views) > 1 && i == m.focus
		panels[i] = renderPanel(v, m.panes[i], m.panelWidth(), m.gridHeight(), focused)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, panels...),
		m.statusLine(),
		m.help.View(keys),
	)
}

func (m *Model) statusLine() string {
	state := "running"
	if m.paused {
		state = "paused"
	}
	return mutedStyle.Render(fmt.Sprintf("%s %s  %d step(s)/tick  %d fps", m.dir, state, m.cfg.Iteration, m.cfg.FPS))
}

// Run starts the terminal program and blocks until the user quits.
func Run(ctx context.Context, dbg *replay.Debugger, cfg Config) error {
	final, err := tea.NewProgram(New(ctx, dbg, cfg), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	return final.(*Model).Err()
}
