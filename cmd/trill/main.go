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

// trill replays the memory activity of EVM transactions in the terminal.
package main

import (
	"fmt"
	"io"
	"os"

	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	"github.com/trill-evm/trill/cmd/utils"
	"github.com/trill-evm/trill/log"
	"github.com/trill-evm/trill/metrics"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "trill"

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
)

func newApp() *cli.App {
	return &cli.App{
		Name:    clientIdentifier,
		Usage:   "time-travel debugger for EVM memory",
		Version: version(),
		Flags:   utils.GlobalFlags,
		Commands: []*cli.Command{
			inspectCommand,
			dumpCommand,
			exportCommand,
			runCommand,
			dumpConfigCommand,
		},
		Before: func(ctx *cli.Context) error {
			utils.SetupMetrics(ctx)
			return nil
		},
		After: func(ctx *cli.Context) error {
			if gethmetrics.Enabled {
				metrics.Report(ctx.App.ErrWriter, gethmetrics.DefaultRegistry)
			}
			return nil
		},
	}
}

func version() string {
	v := "0.1.0"
	if gitCommit != "" {
		v += "-" + gitCommit
		if gitDate != "" {
			v += "-" + gitDate
		}
	}
	return v
}

// setupLogging installs the root logger for a command. When the terminal UI
// owns the screen and no log file is given, only critical messages are kept.
func setupLogging(cfg trillConfig, screen bool) (io.Closer, error) {
	lc := cfg.Log
	if screen && lc.File == "" {
		lc.Verbosity = 0
	}
	closer, err := log.Setup(lc)
	if err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %v", err)
	}
	return closer, nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
