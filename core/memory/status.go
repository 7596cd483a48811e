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

// Package memory classifies EVM instructions by the effect they have on the
// 32-byte words of call memory.
package memory

// SlotStatus is the display state of a single memory word.
type SlotStatus uint8

const (
	Init    SlotStatus = iota // never touched yet
	Empty                     // beyond the memory bounds of the current step
	Active                    // touched earlier, read or initialised
	Reading                   // read by the instruction that just became visible
	Writing                   // written by the instruction that just became visible
	Unread                    // written earlier, not read since
)

var statusNames = [...]string{
	Init:    "init",
	Empty:   "empty",
	Active:  "active",
	Reading: "reading",
	Writing: "writing",
	Unread:  "unread",
}

func (s SlotStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

var statusSymbols = [...]byte{
	Init:    '.',
	Empty:   '_',
	Active:  'a',
	Reading: 'R',
	Writing: 'W',
	Unread:  'u',
}

// Symbol returns a one character rendering of the status.
func (s SlotStatus) Symbol() byte {
	if int(s) < len(statusSymbols) {
		return statusSymbols[s]
	}
	return '?'
}

// Age returns the status a slot decays to after one more forward step in
// which it was not touched.
func (s SlotStatus) Age() SlotStatus {
	switch s {
	case Reading, Init:
		return Active
	case Writing:
		return Unread
	}
	return s
}

// Role is the decoded effect of an instruction on memory.
type Role uint8

const (
	None Role = iota
	Read
	Write
)

func (r Role) String() string {
	switch r {
	case Read:
		return "read"
	case Write:
		return "write"
	}
	return "none"
}

// Status maps the role onto the slot status it produces once visible.
func (r Role) Status() SlotStatus {
	switch r {
	case Read:
		return Reading
	case Write:
		return Writing
	}
	return Active
}

// Affects reports whether the role touches memory at all.
func (r Role) Affects() bool {
	return r != None
}
