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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trill-evm/trill/common/gopool"
	"github.com/trill-evm/trill/core/trace"
	"github.com/trill-evm/trill/log"
	"github.com/trill-evm/trill/metrics"
)

// MaxStates is the number of transactions a debugger can replay side by side.
const MaxStates = 2

var errNoStates = errors.New("no transaction to replay")

// Debugger owns the independent replay states of one or two transactions.
type Debugger struct {
	states []*State
	label  *metrics.Label
}

// NewDebugger creates a debugger replaying the given transactions from source.
func NewDebugger(source trace.Source, hashes ...common.Hash) (*Debugger, error) {
	if len(hashes) == 0 {
		return nil, errNoStates
	}
	if len(hashes) > MaxStates {
		return nil, fmt.Errorf("too many transactions: have %d, max %d", len(hashes), MaxStates)
	}
	d := &Debugger{label: metrics.GetOrRegisterLabel("trill/session")}
	for _, h := range hashes {
		d.states = append(d.states, NewState(source, h))
	}
	return d, nil
}

// States returns the replay states in the order they were requested.
func (d *Debugger) States() []*State {
	return d.states
}

// Versus reports whether two transactions are compared.
func (d *Debugger) Versus() bool {
	return len(d.states) > 1
}

// Load fetches every trace concurrently. Each fetch only touches its own state.
func (d *Debugger) Load(ctx context.Context) error {
	tasks := make([]gopool.Task, len(d.states))
	for i, s := range d.states {
		tasks[i] = s.Load
	}
	if err := gopool.Run(ctx, tasks...); err != nil {
		return err
	}
	info := metrics.LabelValue{"states": len(d.states)}
	for i, s := range d.states {
		info[fmt.Sprintf("tx%d", i)] = s.Hash().Hex()
		info[fmt.Sprintf("instructions%d", i)] = s.trace.Len()
	}
	d.label.Mark(info)
	log.Info("Traces loaded", "count", len(d.states))
	return nil
}

// Advance moves every state by the same parameters, one after the other, and
// returns their views in order.
func (d *Debugger) Advance(ctx context.Context, iterations int, dir Direction, paused bool) ([]*View, error) {
	views := make([]*View, len(d.states))
	for i, s := range d.states {
		v, err := s.Advance(ctx, iterations, dir, paused)
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	return views, nil
}
