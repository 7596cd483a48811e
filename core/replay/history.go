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

import "github.com/trill-evm/trill/core/memory"

// history is the opcode scrollback plus the cumulative read and write series,
// one point per processed instruction.
type history struct {
	ops    []memory.Opcode
	reads  []uint64
	writes []uint64
}

func (h *history) last() (reads, writes uint64) {
	if n := len(h.reads); n > 0 {
		return h.reads[n-1], h.writes[n-1]
	}
	return 0, 0
}

// record appends one point to both series, adding the given deltas.
func (h *history) record(reads, writes int) {
	r, w := h.last()
	h.reads = append(h.reads, r+uint64(reads))
	h.writes = append(h.writes, w+uint64(writes))
}

// repeat appends a point equal to the previous one.
func (h *history) repeat() {
	h.record(0, 0)
}

func (h *history) push(op memory.Opcode) {
	h.ops = append(h.ops, op)
}

// pop drops the latest history entry and the latest point of each series.
func (h *history) pop() {
	if n := len(h.ops); n > 0 {
		h.ops = h.ops[:n-1]
	}
	if n := len(h.reads); n > 0 {
		h.reads = h.reads[:n-1]
		h.writes = h.writes[:n-1]
	}
}
