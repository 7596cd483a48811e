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

// stepBack rewinds to the state in which the nearest memory affecting
// instruction before next-iterations has just become visible. The slot
// vector is rebuilt from the memory bounds around that instruction rather
// than from an undo log, so shading of older slots may differ from the
// forward pass.
func (s *State) stepBack(iterations int) error {
	target := max(s.next-iterations, 0)

	// Instruction j is visible from j+1 on and reported by j+2, so the
	// state at target was produced by an instruction at or before target-2.
	j := -1
	var eff *memory.Effect
	for k := target - 2; k >= 0; k-- {
		e, err := s.classify(k)
		if err != nil {
			return err
		}
		if e.Role.Affects() {
			j, eff = k, e
			break
		}
	}
	if j < 0 {
		return nil
	}
	records := s.trace.Records

	lenJ := min(records[j].MemoryWords(), len(s.slots))
	lenNext := lenJ
	if j+1 < len(records) {
		lenNext = min(records[j+1].MemoryWords(), len(s.slots))
	}
	s.indexed = min(s.indexed, lenNext)
	status := eff.Role.Status()
	for slot := range s.slots {
		switch {
		case slot >= s.indexed:
			s.slots[slot] = memory.Empty
		case slot >= lenJ:
			s.slots[slot] = status
		}
	}
	for _, t := range eff.Touches {
		if t.Slot >= s.indexed {
			continue
		}
		if t.ForceRead {
			s.slots[t.Slot] = memory.Reading
		} else {
			s.slots[t.Slot] = status
		}
	}
	s.next = min(j+2, len(records))

	// Resume exactly where a forward pass over next-1 would have left off.
	last := s.next - 1
	cur, err := s.classify(last)
	if err != nil {
		return err
	}
	s.render = newOperation(&records[last], cur)
	if cur.Role.Affects() {
		s.pending = cur
	} else {
		s.pending = nil
	}
	s.hist.pop()
	return nil
}
