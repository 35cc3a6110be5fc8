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

package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"
	"github.com/skratchdot/open-golang/open"
	"github.com/urfave/cli/v3"

	"github.com/vettingo/vettingo/internal/server"
	"github.com/vettingo/vettingo/internal/simulate"
	"github.com/vettingo/vettingo/pkg/config"
	"github.com/vettingo/vettingo/pkg/loading"
	"github.com/vettingo/vettingo/pkg/manager"
	"github.com/vettingo/vettingo/pkg/watch"
)

var runCmd = &cli.Command{
	Name:    "run",
	Aliases: []string{"r"},
	Usage:   "show the loading dashboard with the demo pages",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-demo",
			Usage: "do not simulate the demo pages",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "inspector listen `address`",
		},
	},
	Action: runDashboard,
}

var serveCmd = &cli.Command{
	Name:    "serve",
	Aliases: []string{"s"},
	Usage:   "run the inspector and the demo pages without the dashboard",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-demo",
			Usage: "do not simulate the demo pages",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "inspector listen `address`",
		},
		&cli.BoolFlag{
			Name:  "open",
			Usage: "open the inspector in a browser",
		},
	},
	Action: serve,
}

// app wires a registry with its units for one process run.
type app struct {
	reg     *loading.Registry
	manager *manager.Manager
	addr    string
}

func newApp(cfg *config.Config, c *cli.Command, tuiMode bool) (*app, error) {
	defaults, err := cfg.Loading.Descriptor()
	if err != nil {
		return nil, err
	}

	a := &app{
		reg:     loading.New(loading.WithDefaults(defaults)),
		manager: manager.NewManager(),
		addr:    cfg.Server.BindAddr,
	}
	if addr := c.String("addr"); addr != "" {
		a.addr = addr
	}
	a.manager.ShutdownOn(os.Interrupt, syscall.SIGTERM)

	if !c.Bool("no-demo") {
		pages, err := simulate.Pages(a.reg, cfg.Demo)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			a.manager.AddUnit(p, p.Key())
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		w, err := watch.NewWatcher("config", a.reloadConfig, watch.Watch{
			Path:       configPath,
			EventTypes: []fsnotify.Op{fsnotify.Write, fsnotify.Create},
		})
		if err != nil {
			log.Warn("config file changes will not be picked up", "err", err)
		} else {
			a.manager.AddUnit(w, "config")
		}
	}

	if cfg.Server.Enabled || c.String("addr") != "" {
		a.manager.AddUnit(server.NewInspector(a.reg, a.addr, tuiMode), "inspector")
	} else {
		a.addr = ""
	}

	return a, nil
}

// reloadConfig applies the loading defaults of the config file to the
// registry. Demo pages keep running with the config they started with.
func (a *app) reloadConfig() {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("could not reload config", "err", err)
		return
	}

	defaults, err := cfg.Loading.Descriptor()
	if err != nil {
		log.Error("could not reload config", "err", err)
		return
	}
	a.reg.SetDefaults(defaults)
	log.Info("reloaded loading defaults", "path", configPath)
}

func (a *app) wait() error {
	<-a.manager.Quit
	return a.manager.Err()
}

func serve(_ context.Context, c *cli.Command) error {
	a, err := newApp(conf, c, false)
	if err != nil {
		return err
	}

	go a.manager.Run()

	if c.Bool("open") && a.addr != "" {
		url := fmt.Sprintf("http://%s/", a.addr)
		if err := open.Run(url); err != nil {
			log.Warn("could not open browser", "url", url, "err", err)
		}
	}

	fmt.Println("vettingo running ...")
	return a.wait()
}

func runDashboard(ctx context.Context, c *cli.Command) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		log.Warn("stdout is not a terminal, running without the dashboard")
		return serve(ctx, c)
	}

	return startTUI(c)
}
