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
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/trace"
)

// stepForward processes up to iterations instructions starting at next.
func (s *State) stepForward(iterations int) error {
	records := s.trace.Records
	for n := 0; n < iterations && s.next < len(records); n++ {
		i := s.next
		rec := &records[i]

		s.age()
		if s.pending != nil {
			s.apply(rec)
		} else {
			s.hist.repeat()
		}
		if i > 0 {
			s.hist.push(memory.ParseOpcode(records[i-1].Op))
		}

		eff, err := s.classify(i)
		if err != nil {
			return err
		}
		s.render = newOperation(rec, eff)
		if eff.Role.Affects() {
			s.pending = eff
		} else {
			s.pending = nil
		}
		s.next = i + 1
		stepCounter.Inc(1)
	}
	return nil
}

// age decays the statuses of the in-bounds slots by one step.
func (s *State) age() {
	for i := 0; i < s.indexed; i++ {
		s.slots[i] = s.slots[i].Age()
	}
}

// apply makes the pending effect visible in the memory reported by rec and
// records one point of read/write activity.
func (s *State) apply(rec *trace.InstructionRecord) {
	eff := s.pending
	status := eff.Role.Status()

	from := s.indexed
	for bound := min(rec.MemoryWords(), len(s.slots)); s.indexed < bound; s.indexed++ {
		s.slots[s.indexed] = status
	}
	grown := s.indexed - from

	var reads, writes int
	if eff.Role == memory.Write {
		writes = grown
	} else {
		reads = grown
	}
	for _, t := range eff.Touches {
		// The next record may report less memory, after a halt or a return
		// to a shallower frame. Such touches never became visible.
		if t.Slot >= s.indexed {
			continue
		}
		if t.ForceRead {
			s.slots[t.Slot] = memory.Reading
		} else {
			s.slots[t.Slot] = status
		}
		// Words that just came into bounds are already counted.
		if t.Slot >= from && t.Slot < s.indexed {
			continue
		}
		if t.ForceRead || eff.Role == memory.Read {
			reads++
		} else {
			writes++
		}
	}
	s.pending = nil
	s.hist.record(reads, writes)
}
