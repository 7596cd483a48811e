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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trill-evm/trill/cmd/utils"
	"github.com/trill-evm/trill/core/memory"
	"github.com/trill-evm/trill/core/replay"
	"github.com/trill-evm/trill/core/trace"
	"github.com/trill-evm/trill/eth/tracers/native"
	"github.com/trill-evm/trill/ethclient"
	"github.com/trill-evm/trill/log"
	"github.com/trill-evm/trill/tui"
	"github.com/urfave/cli/v2"
)

var (
	txFlag = &cli.StringFlag{
		Name:  "tx",
		Usage: "Hash of the transaction to replay",
	}
	versusFlag = &cli.StringFlag{
		Name:  "versus",
		Usage: "Hash of a second transaction replayed side by side",
	}
	outFlag = &cli.PathFlag{
		Name:     "out",
		Usage:    "Output file, .yaml or .yml selects YAML, anything else JSON",
		Required: true,
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format (table|json|yaml)",
		Value: "table",
	}
	opsFlag = &cli.StringFlag{
		Name:  "ops",
		Usage: "Comma separated opcodes to report, 'memory' selects every memory opcode",
	}
	codeFlag = &cli.StringFlag{
		Name:     "code",
		Usage:    "Hex encoded bytecode to execute",
		Required: true,
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "Hex encoded call data",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "Gas available to the execution",
		Value: native.DefaultGasLimit,
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Record only the first N instructions, execution still completes (0 = unlimited)",
	}
	dumpFlag = &cli.BoolFlag{
		Name:  "dump",
		Usage: "Print the replay instead of opening the terminal UI",
	}

	inspectCommand = &cli.Command{
		Action:    inspect,
		Name:      "inspect",
		Usage:     "Replay one or two transactions in the terminal UI",
		ArgsUsage: "",
		Flags:     slices.Concat([]cli.Flag{txFlag, versusFlag}, utils.GlobalFlags),
		Description: `
The inspect command fetches the instruction trace of a transaction and replays
its memory activity. With --versus a second transaction is stepped in lockstep.`,
	}
	dumpCommand = &cli.Command{
		Action:    dump,
		Name:      "dump",
		Usage:     "Replay a transaction without the terminal UI",
		ArgsUsage: "",
		Flags:     slices.Concat([]cli.Flag{txFlag, formatFlag, opsFlag}, utils.GlobalFlags),
		Description: `
The dump command replays a transaction forward and prints one row per
instruction, with the memory state once that instruction's effect is visible.`,
	}
	exportCommand = &cli.Command{
		Action:    export,
		Name:      "export",
		Usage:     "Save a transaction trace to a file",
		ArgsUsage: "",
		Flags:     slices.Concat([]cli.Flag{txFlag, outFlag}, utils.GlobalFlags),
		Description: `
The export command saves a trace so that it can later be replayed offline
with --trace.file.`,
	}
	runCommand = &cli.Command{
		Action:    runCode,
		Name:      "run",
		Usage:     "Execute bytecode locally and replay it",
		ArgsUsage: "",
		Flags:     slices.Concat([]cli.Flag{codeFlag, inputFlag, gasFlag, limitFlag, dumpFlag, formatFlag, opsFlag}, utils.GlobalFlags),
		Description: `
The run command executes bytecode in an in-memory EVM without a node and
replays the recorded trace.`,
	}
)

var errNoSource = errors.New("no trace source, set --rpc or --trace.file")

// prepare loads the configuration and installs logging for a command. The
// returned function flushes the logger.
func prepare(ctx *cli.Context, screen bool) (trillConfig, func(), error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return cfg, nil, err
	}
	closer, err := setupLogging(cfg, screen)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, func() { closer.Close() }, nil
}

// openSource picks the trace source described by cfg.
func openSource(ctx *cli.Context, cfg trillConfig) (trace.Source, func(), error) {
	switch {
	case cfg.Node.TraceFile != "":
		return &trace.FileSource{Path: cfg.Node.TraceFile}, func() {}, nil
	case cfg.Node.URL != "":
		src, err := ethclient.Dial(ctx.Context, cfg.Node.URL, cfg.Client)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	}
	return nil, nil, errNoSource
}

// txHash returns the transaction selected by --tx. A trace file needs no
// hash, it holds a single transaction.
func txHash(ctx *cli.Context, cfg trillConfig) (common.Hash, error) {
	if !ctx.IsSet(txFlag.Name) {
		if cfg.Node.TraceFile != "" {
			return common.Hash{}, nil
		}
		return common.Hash{}, fmt.Errorf("missing --%s", txFlag.Name)
	}
	return utils.ParseHash(ctx.String(txFlag.Name))
}

// opcodeFilter parses --ops, nil means every instruction.
func opcodeFilter(ctx *cli.Context) (memory.OpcodeSet, error) {
	if !ctx.IsSet(opsFlag.Name) {
		return nil, nil
	}
	var names []string
	for _, item := range utils.SplitAndTrim(ctx.String(opsFlag.Name)) {
		if strings.EqualFold(item, "memory") {
			names = append(names, memory.MemoryOpcodes()...)
			continue
		}
		names = append(names, item)
	}
	return memory.ParseOpcodeSet(strings.Join(names, ","))
}

func inspect(ctx *cli.Context) error {
	cfg, flush, err := prepare(ctx, true)
	if err != nil {
		return err
	}
	defer flush()

	hash, err := txHash(ctx, cfg)
	if err != nil {
		return err
	}
	hashes := []common.Hash{hash}
	if ctx.IsSet(versusFlag.Name) {
		other, err := utils.ParseHash(ctx.String(versusFlag.Name))
		if err != nil {
			return err
		}
		hashes = append(hashes, other)
	}
	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	dbg, err := replay.NewDebugger(src, hashes...)
	if err != nil {
		return err
	}
	return tui.Run(ctx.Context, dbg, cfg.Replay)
}

func dump(ctx *cli.Context) error {
	cfg, flush, err := prepare(ctx, false)
	if err != nil {
		return err
	}
	defer flush()

	hash, err := txHash(ctx, cfg)
	if err != nil {
		return err
	}
	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	return dumpReplay(ctx, replay.NewState(src, hash))
}

// dumpReplay runs s to completion and prints it in the requested format.
func dumpReplay(ctx *cli.Context, s *replay.State) error {
	filter, err := opcodeFilter(ctx)
	if err != nil {
		return err
	}
	rows, last, err := replayRows(ctx.Context, s, filter)
	if err != nil {
		return err
	}
	return writeRows(ctx.App.Writer, ctx.String(formatFlag.Name), rows, last)
}

func export(ctx *cli.Context) error {
	cfg, flush, err := prepare(ctx, false)
	if err != nil {
		return err
	}
	defer flush()

	hash, err := txHash(ctx, cfg)
	if err != nil {
		return err
	}
	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	tr, err := src.Fetch(ctx.Context, hash)
	if err != nil {
		return err
	}
	out := ctx.Path(outFlag.Name)
	if err := trace.WriteFile(out, tr); err != nil {
		return err
	}
	log.Info("Exported trace", "tx", tr.Transaction.Hash, "instructions", tr.Len(), "file", out)
	return nil
}

func runCode(ctx *cli.Context) error {
	dumping := ctx.Bool(dumpFlag.Name)
	cfg, flush, err := prepare(ctx, !dumping)
	if err != nil {
		return err
	}
	defer flush()

	code, err := hexutil.Decode(ctx.String(codeFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %v", codeFlag.Name, err)
	}
	var input []byte
	if ctx.IsSet(inputFlag.Name) {
		if input, err = hexutil.Decode(ctx.String(inputFlag.Name)); err != nil {
			return fmt.Errorf("invalid --%s: %v", inputFlag.Name, err)
		}
	}
	src := &native.Source{
		Code:     code,
		Input:    input,
		GasLimit: ctx.Uint64(gasFlag.Name),
		Limit:    ctx.Int(limitFlag.Name),
	}
	if dumping {
		return dumpReplay(ctx, replay.NewState(src, src.Hash()))
	}
	dbg, err := replay.NewDebugger(src, src.Hash())
	if err != nil {
		return err
	}
	return tui.Run(ctx.Context, dbg, cfg.Replay)
}
