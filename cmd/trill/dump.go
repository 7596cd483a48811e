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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/replay"
	"gopkg.in/yaml.v3"
)

// dumpRow is one replayed instruction together with the memory state once the
// previous instruction's effect became visible.
type dumpRow struct {
	Index    int               `json:"index" yaml:"index"`
	Op       string            `json:"op" yaml:"op"`
	Role     string            `json:"role" yaml:"role"`
	Pc       uint64            `json:"pc" yaml:"pc"`
	Depth    int               `json:"depth" yaml:"depth"`
	Operands map[string]string `json:"operands,omitempty" yaml:"operands,omitempty"`
	Indexed  int               `json:"indexed" yaml:"indexed"`
	Reads    uint64            `json:"reads" yaml:"reads"`
	Writes   uint64            `json:"writes" yaml:"writes"`
	Slots    string            `json:"slots" yaml:"slots"`
}

func newDumpRow(v *replay.View) dumpRow {
	op := v.Operation
	row := dumpRow{
		Index:   op.Index,
		Op:      op.Op.Name,
		Role:    op.Role.String(),
		Pc:      op.Pc,
		Depth:   op.Depth,
		Indexed: v.Indexed,
	}
	if n := len(v.Reads); n > 0 {
		row.Reads, row.Writes = v.Reads[n-1], v.Writes[n-1]
	}
	if len(op.Operands) > 0 {
		row.Operands = make(map[string]string, len(op.Operands))
		for _, o := range op.Operands {
			row.Operands[o.Name] = o.Value.Hex()
		}
	}
	slots := make([]byte, len(v.Slots))
	for i, s := range v.Slots {
		slots[i] = s.Symbol()
	}
	row.Slots = string(slots)
	return row
}

// replayRows steps s forward one instruction at a time until the end of the
// trace, keeping the rows whose opcode passes filter.
func replayRows(ctx context.Context, s *replay.State, filter memory.OpcodeSet) ([]dumpRow, *replay.View, error) {
	rows := make([]dumpRow, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		v, err := s.Advance(ctx, 1, replay.Forward, false)
		if err != nil {
			return nil, nil, err
		}
		if v.Operation != nil && (filter == nil || filter.Contains(v.Operation.Op.Name)) {
			rows = append(rows, newDumpRow(v))
		}
		if v.Done {
			return rows, v, nil
		}
	}
}

var (
	readColor  = color.New(color.FgCyan).SprintFunc()
	writeColor = color.New(color.FgRed, color.Bold).SprintFunc()
)

func colorRole(role string) string {
	switch role {
	case memory.Read.String():
		return readColor(role)
	case memory.Write.String():
		return writeColor(role)
	}
	return role
}

func formatOperands(ops map[string]string) string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + ops[name]
	}
	return strings.Join(parts, " ")
}

func writeRows(w io.Writer, format string, rows []dumpRow, last *replay.View) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rows)
	case "", "table":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Index", "Op", "Role", "PC", "Operands", "Reads", "Writes", "Slots"})
	table.SetAutoWrapText(false)
	for _, r := range rows {
		table.Append([]string{
			strconv.Itoa(r.Index),
			r.Op,
			colorRole(r.Role),
			strconv.FormatUint(r.Pc, 10),
			formatOperands(r.Operands),
			strconv.FormatUint(r.Reads, 10),
			strconv.FormatUint(r.Writes, 10),
			r.Slots,
		})
	}
	table.Render()

	status := "success"
	if last.Failed {
		status = "failed"
	}
	var reads, writes uint64
	if n := len(last.Reads); n > 0 {
		reads, writes = last.Reads[n-1], last.Writes[n-1]
	}
	_, err := fmt.Fprintf(w, "tx %s: %d instructions, %d words, %d reads, %d writes, %s\n",
		last.Transaction.Hash.Hex(), last.Total, len(last.Slots), reads, writes, status)
	return err
}
