// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.
//
// The mazze-core library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The mazze-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the mazze-core library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mazzelabs/mazze-core/internal/log"
)

// logTestCommand emits one line at every log level so an operator can
// confirm a deployment's log pipeline (format, level filtering,
// forwarding) is wired correctly before pointing it at a real node.
var logTestCommand = &cli.Command{
	Action:    runLogTest,
	Name:      "logtest",
	Usage:     "Emit one log line per level and exit",
	ArgsUsage: " ",
	Description: `Print a line at each of the trace, debug, info, warn, and error
levels, then exit. Used to confirm the log output's format and level filtering.`,
}

func runLogTest(ctx *cli.Context) error {
	log.Trace("log test message", "level", "trace")
	log.Debug("log test message", "level", "debug")
	log.Info("log test message", "level", "info")
	log.Warn("log test message", "level", "warn")
	log.Error("log test message", "level", "error")
	return nil
}
