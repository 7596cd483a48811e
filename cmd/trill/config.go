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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/trill-evm/trill/cmd/utils"
	"github.com/trill-evm/trill/ethclient"
	"github.com/trill-evm/trill/log"
	"github.com/trill-evm/trill/tui"
	"github.com/urfave/cli/v2"
)

var (
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Flags:       utils.GlobalFlags,
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// nodeConfig selects where traces come from.
type nodeConfig struct {
	URL       string `toml:",omitempty"`
	TraceFile string `toml:",omitempty"`
}

type trillConfig struct {
	Node   nodeConfig
	Client ethclient.Config
	Replay tui.Config
	Log    log.Config
}

func defaultConfig() trillConfig {
	return trillConfig{
		Client: ethclient.DefaultConfig,
		Replay: tui.Config{FPS: tui.DefaultFPS, Iteration: tui.DefaultIteration},
		Log:    log.DefaultConfig,
	}
}

func loadConfig(file string, cfg *trillConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig assembles the configuration from defaults, the config file and
// the command line, in increasing priority.
func makeConfig(ctx *cli.Context) (trillConfig, error) {
	cfg := defaultConfig()
	if file := ctx.Path(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := utils.CheckExclusive(ctx, utils.RPCFlag, utils.TraceFileFlag); err != nil {
		return cfg, err
	}
	utils.SetRPCConfig(ctx, &cfg.Node.URL, &cfg.Client)
	if ctx.IsSet(utils.TraceFileFlag.Name) {
		cfg.Node.TraceFile = ctx.Path(utils.TraceFileFlag.Name)
		cfg.Node.URL = ""
	} else if ctx.IsSet(utils.RPCFlag.Name) {
		cfg.Node.TraceFile = ""
	}
	utils.SetReplayConfig(ctx, &cfg.Replay)
	if err := utils.SetLogConfig(ctx, &cfg.Log); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	var dump io.Writer = ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
