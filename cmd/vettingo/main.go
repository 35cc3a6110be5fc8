//
//  Copyright (c) 2025 Vettingo contributors.
//  All rights reserved.
//
//  SPDX-License-Identifier: AGPL-3.0-or-later
//
//  This file is part of Vettingo.
//
//  Vettingo is free software: you can redistribute it and/or modify
//  it under the terms of the GNU Affero General Public License as
//  published by the Free Software Foundation, either version 3 of the
//  License, or (at your option) any later version.
//
//  Vettingo is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU Affero General Public License for more details.
//
//  You should have received a copy of the GNU Affero General Public License
//  along with Vettingo.  If not, see <http://www.gnu.org/licenses/>.
//

// Main command line entry point for vettingo
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/vettingo/vettingo/pkg/build"
	"github.com/vettingo/vettingo/pkg/config"
	"github.com/vettingo/vettingo/pkg/logging"
)

var (
	log = logging.GetLogger("MAIN")

	// effective configuration, loaded before any command runs
	conf = config.Default()

	configPath string

	stdout io.Writer = os.Stdout
)

func main() {
	app := cli.Command{}

	app.Name = "vettingo"
	app.Usage = "Coordinate and preview the loading states of the Vettingo front end."
	app.Version = build.Version()
	app.Suggest = true
	app.EnableShellCompletion = true
	app.ExitErrHandler = func(ctx context.Context, cli *cli.Command, err error) {
		if err == nil || errors.Is(err, logging.ErrHelpQuit) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       config.DefaultConfPath(),
			Usage:       "config `path`",
			DefaultText: "~/.config/vettingo/config.toml",
			Destination: &configPath,
			Category:    "_",
		},
		logging.DebugFlag,
		logging.SilentFlag,
	}

	app.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return ctx, err
		}
		conf = cfg
		return ctx, nil
	}

	// without a sub command, run the dashboard with the configured demo
	app.Action = runDashboard

	app.Commands = []*cli.Command{
		runCmd,
		serveCmd,
		renderCmd,
		inspectCmd,
		configCmds,
		versionCmd,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
