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

// Package replay implements the reversible trace replay engine. A State walks
// an instruction trace forward or backward and derives, for every step, the
// status of each memory word together with read and write counters.
package replay

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/trace"
	"github.com/trill-evm/trill/log"
)

var (
	forwardTimer   = gethmetrics.NewRegisteredTimer("trill/replay/forward", nil)
	backwardTimer  = gethmetrics.NewRegisteredTimer("trill/replay/backward", nil)
	stepCounter    = gethmetrics.NewRegisteredCounter("trill/replay/steps", nil)
	rewindCounter  = gethmetrics.NewRegisteredCounter("trill/replay/rewinds", nil)
	initTimer      = gethmetrics.NewRegisteredTimer("trill/replay/init", nil)
	stepLogLimiter = &log.EveryN{N: 64}
)

// Direction selects which way Advance moves.
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// State is the replay state of a single transaction. It is not safe for
// concurrent use.
type State struct {
	source trace.Source
	hash   common.Hash

	trace   *trace.Trace
	slots   []memory.SlotStatus
	indexed int
	next    int

	// pending is the effect of instruction next-1, visible from next on.
	pending *memory.Effect
	render  *Operation
	hist    history

	err error
}

// NewState creates a state replaying hash from source. Nothing is fetched
// until the first Load or Advance.
func NewState(source trace.Source, hash common.Hash) *State {
	return &State{source: source, hash: hash}
}

// Hash returns the transaction hash the state replays.
func (s *State) Hash() common.Hash {
	return s.hash
}

// Loaded reports whether the trace has been fetched.
func (s *State) Loaded() bool {
	return s.trace != nil
}

// Err returns the error that ended the session, if any.
func (s *State) Err() error {
	return s.err
}

// Load fetches the trace and sizes the slot vector. It is a no-op once loaded.
func (s *State) Load(ctx context.Context) error {
	if s.trace != nil {
		return nil
	}
	if s.err != nil {
		return s.err
	}
	start := time.Now()
	t, err := s.source.Fetch(ctx, s.hash)
	if err != nil {
		// Cancellation is not fatal, a later call may retry.
		if ctx.Err() == nil {
			s.err = errors.Wrapf(err, "fetch trace %s", s.hash.Hex())
			return s.err
		}
		return err
	}
	s.trace = t
	s.slots = make([]memory.SlotStatus, t.MaxMemoryWords())
	if t.Len() > 0 {
		s.indexed = min(t.Records[0].MemoryWords(), len(s.slots))
	}
	initTimer.UpdateSince(start)
	log.Debug("Loaded trace", "tx", s.hash, "instructions", t.Len(), "words", len(s.slots), "elapsed", time.Since(start))
	return nil
}

// Advance moves the replay and returns a snapshot of the resulting state.
// Forward steps process up to iterations instructions; a backward step
// rewinds to the nearest earlier memory affecting instruction. A paused call
// changes nothing. Decode failures end the session: every later call returns
// the same error.
func (s *State) Advance(ctx context.Context, iterations int, dir Direction, paused bool) (*View, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if paused {
		return s.snapshot(), nil
	}
	if iterations < 1 {
		iterations = 1
	}
	var err error
	if dir == Backward {
		start := time.Now()
		err = s.stepBack(iterations)
		backwardTimer.UpdateSince(start)
		rewindCounter.Inc(1)
	} else {
		start := time.Now()
		err = s.stepForward(iterations)
		forwardTimer.UpdateSince(start)
	}
	if err != nil {
		s.err = err
		log.Error("Replay failed", "tx", s.hash, "next", s.next, "err", err)
		return nil, err
	}
	log.TraceBy(stepLogLimiter, "Replay step", "tx", s.hash, "dir", dir, "next", s.next, "indexed", s.indexed)
	return s.snapshot(), nil
}

// View returns a snapshot without moving.
func (s *State) View() *View {
	return s.snapshot()
}

func (s *State) classify(i int) (*memory.Effect, error) {
	eff, err := memory.Classify(&s.trace.Records[i], s.indexed, len(s.slots))
	if err != nil {
		return nil, err
	}
	return &eff, nil
}
