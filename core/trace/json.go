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

package trace

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TraceConfig is the option object passed to debug_traceTransaction for the
// default struct logger.
type TraceConfig struct {
	EnableMemory     bool    `json:"enableMemory"`
	DisableStack     bool    `json:"disableStack"`
	DisableStorage   bool    `json:"disableStorage"`
	EnableReturnData bool    `json:"enableReturnData"`
	Timeout          *string `json:"timeout,omitempty"`
}

// DefaultTraceConfig captures memory and stack, which is all the replay
// engine needs. Storage capture is disabled to keep payloads small.
func DefaultTraceConfig() *TraceConfig {
	return &TraceConfig{
		EnableMemory:     true,
		DisableStack:     false,
		DisableStorage:   true,
		EnableReturnData: true,
	}
}

// ExecutionResult is the struct logger response of debug_traceTransaction.
type ExecutionResult struct {
	Gas         uint64              `json:"gas" yaml:"gas"`
	Failed      bool                `json:"failed" yaml:"failed"`
	ReturnValue string              `json:"returnValue" yaml:"returnValue"`
	StructLogs  []InstructionRecord `json:"structLogs" yaml:"structLogs"`
}

// Document is the on-disk form of an acquired trace.
type Document struct {
	Transaction Transaction     `json:"transaction" yaml:"transaction"`
	Result      ExecutionResult `json:"result" yaml:"result"`
}

// structLog mirrors a single struct logger entry on the wire.
type structLog struct {
	Pc      uint64    `json:"pc" yaml:"pc"`
	Op      string    `json:"op" yaml:"op"`
	Gas     uint64    `json:"gas" yaml:"gas"`
	GasCost uint64    `json:"gasCost" yaml:"gasCost"`
	Depth   int       `json:"depth" yaml:"depth"`
	Error   string    `json:"error,omitempty" yaml:"error,omitempty"`
	Stack   *[]string `json:"stack,omitempty" yaml:"stack,omitempty"`
	Memory  *[]string `json:"memory,omitempty" yaml:"memory,omitempty"`
}

func (r *InstructionRecord) toWire() structLog {
	enc := structLog{
		Pc:      r.Pc,
		Op:      r.Op,
		Gas:     r.Gas,
		GasCost: r.GasCost,
		Depth:   r.Depth,
		Error:   r.Err,
	}
	if r.Stack != nil {
		stack := make([]string, len(r.Stack))
		for i, v := range r.Stack {
			stack[i] = v.Hex()
		}
		enc.Stack = &stack
	}
	if r.Memory != nil {
		memory := make([]string, len(r.Memory))
		for i, w := range r.Memory {
			memory[i] = hex.EncodeToString(w[:])
		}
		enc.Memory = &memory
	}
	return enc
}

func (r *InstructionRecord) fromWire(dec structLog) error {
	r.Pc = dec.Pc
	r.Op = dec.Op
	r.Gas = dec.Gas
	r.GasCost = dec.GasCost
	r.Depth = dec.Depth
	r.Err = dec.Error
	r.Stack, r.Memory = nil, nil

	if dec.Stack != nil {
		stack, err := DecodeStack(*dec.Stack)
		if err != nil {
			return errors.Wrapf(err, "pc %d op %s", dec.Pc, dec.Op)
		}
		r.Stack = stack
	}
	if dec.Memory != nil {
		r.Memory = DecodeMemory(*dec.Memory)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r InstructionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *InstructionRecord) UnmarshalJSON(input []byte) error {
	var dec structLog
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	return r.fromWire(dec)
}

// MarshalYAML implements yaml.Marshaler.
func (r InstructionRecord) MarshalYAML() (interface{}, error) {
	return r.toWire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *InstructionRecord) UnmarshalYAML(value *yaml.Node) error {
	var dec structLog
	if err := value.Decode(&dec); err != nil {
		return err
	}
	return r.fromWire(dec)
}

// DecodeStack parses hex encoded stack items. Both the compact geth form
// ("0x40") and the zero padded form used by older clients are accepted.
func DecodeStack(items []string) ([]*uint256.Int, error) {
	stack := make([]*uint256.Int, len(items))
	for i, item := range items {
		v, err := decodeWord(item)
		if err != nil {
			return nil, fmt.Errorf("stack item %d: %w", i, err)
		}
		stack[i] = v
	}
	return stack, nil
}

func decodeWord(s string) (*uint256.Int, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromHex("0x" + s)
}

// DecodeMemory converts the struct logger memory dump into words.
func DecodeMemory(words []string) []common.Hash {
	memory := make([]common.Hash, len(words))
	for i, w := range words {
		memory[i] = common.HexToHash(w)
	}
	return memory
}
