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

// Package utils contains internal helper functions for trill commands.
package utils

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	"github.com/trill-evm/trill/ethclient"
	"github.com/trill-evm/trill/log"
	"github.com/trill-evm/trill/tui"
	"github.com/urfave/cli/v2"
)

const (
	RPCCategory     = "RPC"
	ReplayCategory  = "REPLAY"
	LoggingCategory = "LOGGING AND DEBUGGING"
	MetricsCategory = "METRICS"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// Trace acquisition
	RPCFlag = &cli.StringFlag{
		Name:     "rpc",
		Usage:    "HTTP or websocket endpoint of a node exposing the debug namespace",
		EnvVars:  []string{"RPC_HTTP"},
		Category: RPCCategory,
	}
	RPCTimeoutFlag = &cli.DurationFlag{
		Name:     "rpc.timeout",
		Usage:    "Tracer timeout requested from the node (0 = node default)",
		Value:    ethclient.DefaultConfig.Timeout,
		Category: RPCCategory,
	}
	RPCRetriesFlag = &cli.Uint64Flag{
		Name:     "rpc.retries",
		Usage:    "Number of retries on transient RPC failures",
		Value:    ethclient.DefaultConfig.Retries,
		Category: RPCCategory,
	}
	TraceFileFlag = &cli.PathFlag{
		Name:     "trace.file",
		Usage:    "Read traces from a file written by 'trill export' instead of a node",
		Category: RPCCategory,
	}
	ConfigFileFlag = &cli.PathFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}

	// Replay settings
	FPSFlag = &cli.IntFlag{
		Name:     "fps",
		Usage:    "Frames rendered per second",
		Value:    tui.DefaultFPS,
		Category: ReplayCategory,
	}
	IterationFlag = &cli.IntFlag{
		Name:     "iteration",
		Usage:    "Instructions replayed per frame",
		Value:    tui.DefaultIteration,
		Category: ReplayCategory,
	}

	// Logging
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    log.DefaultConfig.Verbosity,
		Category: LoggingCategory,
	}
	LogFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format to use (terminal|logfmt|json)",
		Value:    log.DefaultConfig.Format,
		Category: LoggingCategory,
	}
	LogFileFlag = &cli.PathFlag{
		Name:     "log.file",
		Usage:    "Write logs to a file, required when the terminal UI owns the screen",
		Category: LoggingCategory,
	}
	LogMaxSizeFlag = &cli.StringFlag{
		Name:     "log.maxsize",
		Usage:    "Size at which the log file is rotated",
		Value:    log.DefaultConfig.MaxSize.String(),
		Category: LoggingCategory,
	}

	// Metrics
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and print them on exit",
		Category: MetricsCategory,
	}
)

var (
	// RPCFlags configure trace acquisition.
	RPCFlags = []cli.Flag{
		RPCFlag,
		RPCTimeoutFlag,
		RPCRetriesFlag,
		TraceFileFlag,
	}
	// ReplayFlags configure stepping.
	ReplayFlags = []cli.Flag{
		FPSFlag,
		IterationFlag,
	}
	// LoggingFlags configure the root logger.
	LoggingFlags = []cli.Flag{
		VerbosityFlag,
		LogFormatFlag,
		LogFileFlag,
		LogMaxSizeFlag,
	}
	// GlobalFlags are accepted by every command.
	GlobalFlags = slices.Concat([]cli.Flag{ConfigFileFlag, MetricsEnabledFlag}, RPCFlags, ReplayFlags, LoggingFlags)
)

// Fatalf formats a message to standard error and exits the program.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// CheckExclusive verifies that only a single instance of the provided flags was
// set by the user. Each flag might optionally be followed by a string type to
// specialize it further.
func CheckExclusive(ctx *cli.Context, args ...interface{}) error {
	set := make([]string, 0, 1)
	for i := 0; i < len(args); i++ {
		// Make sure the next argument is a flag and skip if not set
		flag, ok := args[i].(cli.Flag)
		if !ok {
			panic(fmt.Sprintf("invalid argument, not cli.Flag type: %T", args[i]))
		}
		// Check if next arg extends current and expand its name if so
		name := flag.Names()[0]

		if i+1 < len(args) {
			switch option := args[i+1].(type) {
			case string:
				// Extended flag check, make sure value set doesn't conflict with passed in option
				if ctx.String(flag.Names()[0]) == option {
					name += "=" + option
					set = append(set, "--"+name)
				}
				// shift arguments and continue
				i++
				continue

			case cli.Flag:
			default:
				panic(fmt.Sprintf("invalid argument, not cli.Flag or string extension: %T", args[i+1]))
			}
		}
		// Mark the flag if it's set
		if ctx.IsSet(flag.Names()[0]) {
			set = append(set, "--"+name)
		}
	}
	if len(set) > 1 {
		return fmt.Errorf("flags %v can't be used at the same time", strings.Join(set, ", "))
	}
	return nil
}

// ParseHash decodes a 32 byte transaction hash.
func ParseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q: %v", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q: have %d bytes, want %d", s, len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}

// SetRPCConfig applies RPC flags to cfg.
func SetRPCConfig(ctx *cli.Context, url *string, cfg *ethclient.Config) {
	if ctx.IsSet(RPCFlag.Name) {
		*url = ctx.String(RPCFlag.Name)
	}
	if ctx.IsSet(RPCTimeoutFlag.Name) {
		cfg.Timeout = ctx.Duration(RPCTimeoutFlag.Name)
	}
	if ctx.IsSet(RPCRetriesFlag.Name) {
		cfg.Retries = ctx.Uint64(RPCRetriesFlag.Name)
	}
}

// SetReplayConfig applies stepping flags to cfg.
func SetReplayConfig(ctx *cli.Context, cfg *tui.Config) {
	if ctx.IsSet(FPSFlag.Name) {
		cfg.FPS = ctx.Int(FPSFlag.Name)
	}
	if ctx.IsSet(IterationFlag.Name) {
		cfg.Iteration = ctx.Int(IterationFlag.Name)
	}
}

// SetLogConfig applies logging flags to cfg.
func SetLogConfig(ctx *cli.Context, cfg *log.Config) error {
	if ctx.IsSet(VerbosityFlag.Name) {
		cfg.Verbosity = ctx.Int(VerbosityFlag.Name)
	}
	if ctx.IsSet(LogFormatFlag.Name) {
		cfg.Format = ctx.String(LogFormatFlag.Name)
	}
	if ctx.IsSet(LogFileFlag.Name) {
		cfg.File = ctx.Path(LogFileFlag.Name)
	}
	if ctx.IsSet(LogMaxSizeFlag.Name) {
		size, err := datasize.ParseString(ctx.String(LogMaxSizeFlag.Name))
		if err != nil {
			return fmt.Errorf("invalid --%s: %v", LogMaxSizeFlag.Name, err)
		}
		cfg.MaxSize = size
	}
	return nil
}

// SetupMetrics enables metrics collection when requested. Meters registered
// during package initialisation only collect if --metrics was already on the
// command line at start up.
func SetupMetrics(ctx *cli.Context) {
	if ctx.Bool(MetricsEnabledFlag.Name) {
		gethmetrics.Enabled = true
	}
	if gethmetrics.Enabled {
		log.Info("Enabling metrics collection")
	}
}
