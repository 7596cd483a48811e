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

package memory

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Kind enumerates the memory relevant opcodes. Everything else is Other.
type Kind uint8

const (
	Other Kind = iota
	MLOAD
	MSTORE
	MSTORE8
	CALLDATACOPY
	CODECOPY
	RETURNDATACOPY
	EXTCODECOPY
	MCOPY
	MSIZE
)

var kindByOp = map[vm.OpCode]Kind{
	vm.MLOAD:          MLOAD,
	vm.MSTORE:         MSTORE,
	vm.MSTORE8:        MSTORE8,
	vm.CALLDATACOPY:   CALLDATACOPY,
	vm.CODECOPY:       CODECOPY,
	vm.RETURNDATACOPY: RETURNDATACOPY,
	vm.EXTCODECOPY:    EXTCODECOPY,
	vm.MCOPY:          MCOPY,
	vm.MSIZE:          MSIZE,
}

// Opcode is a decoded mnemonic. Unknown or memory neutral mnemonics keep their
// original spelling in Name.
type Opcode struct {
	Kind Kind
	Name string
}

// ParseOpcode decodes a struct logger mnemonic.
func ParseOpcode(mnemonic string) Opcode {
	name := strings.ToUpper(strings.TrimSpace(mnemonic))
	op := vm.StringToOp(name)
	// StringToOp maps unknown names to STOP.
	if op.String() != name {
		return Opcode{Kind: Other, Name: mnemonic}
	}
	if kind, ok := kindByOp[op]; ok {
		return Opcode{Kind: kind, Name: name}
	}
	return Opcode{Kind: Other, Name: name}
}

func (o Opcode) String() string {
	return o.Name
}

// IsMemory reports whether the opcode belongs to the classified set.
func (o Opcode) IsMemory() bool {
	return o.Kind != Other
}

// OpcodeSet is a set of upper-case mnemonics.
type OpcodeSet = mapset.Set[string]

// ParseOpcodeSet parses a comma separated list of mnemonics. Names unknown to
// the EVM are rejected.
func ParseOpcodeSet(list string) (OpcodeSet, error) {
	set := mapset.NewSet[string]()
	for _, item := range strings.Split(list, ",") {
		name := strings.ToUpper(strings.TrimSpace(item))
		if name == "" {
			continue
		}
		if vm.StringToOp(name).String() != name {
			return nil, fmt.Errorf("unknown opcode %q", item)
		}
		set.Add(name)
	}
	return set, nil
}

// MemoryOpcodes returns the mnemonics the classifier understands, sorted.
func MemoryOpcodes() []string {
	names := make([]string, 0, len(kindByOp))
	for op := range kindByOp {
		names = append(names, op.String())
	}
	sort.Strings(names)
	return names
}
