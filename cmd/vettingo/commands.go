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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/kr/pretty"
	"github.com/lithammer/fuzzysearch/fuzzy"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
	"github.com/xlab/treeprint"

	"github.com/vettingo/vettingo/internal/server"
	"github.com/vettingo/vettingo/pkg/build"
	"github.com/vettingo/vettingo/pkg/config"
	"github.com/vettingo/vettingo/pkg/indicator"
	"github.com/vettingo/vettingo/pkg/loading"
)

var ErrUnknownCharacter = errors.New("unknown character")

var renderCmd = newRenderCmd()

func newRenderCmd() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "print one loading indicator",
		UsageText: "vettingo render [options] [message]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "spinner, skeleton, data or character",
			},
			&cli.StringFlag{
				Name:  "size",
				Usage: "sm, md or lg",
			},
			&cli.StringFlag{
				Name:  "sub",
				Usage: "secondary message",
			},
			&cli.IntFlag{
				Name:  "rows",
				Usage: "skeleton rows",
			},
			&cli.StringFlag{
				Name:  "character",
				Usage: "themed character `name`",
			},
			&cli.BoolFlag{
				Name:  "inline",
				Usage: "render in the document flow",
			},
			&cli.BoolFlag{
				Name:  "full-screen",
				Usage: "render as a full screen overlay",
			},
			&cli.IntFlag{
				Name:  "frame",
				Usage: "animation frame",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "place overlays in an area this wide",
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: "place overlays in an area this high",
			},
		},
		Action: render,
	}
}

func checkCharacter(name string) error {
	if name == "" || slices.Contains(indicator.Characters(), strings.ToLower(name)) {
		return nil
	}

	ranks := fuzzy.RankFindFold(name, indicator.Characters())
	if len(ranks) == 0 {
		return fmt.Errorf("%w: %s (one of %s)", ErrUnknownCharacter, name,
			strings.Join(indicator.Characters(), ", "))
	}
	sort.Sort(ranks)
	return fmt.Errorf("%w: %s, did you mean %s?", ErrUnknownCharacter, name, ranks[0].Target)
}

// renderDescriptor builds the descriptor described by the render flags over
// the configured defaults.
func renderDescriptor(cfg *config.Config, c *cli.Command) (loading.Descriptor, error) {
	defaults, err := cfg.Loading.Descriptor()
	if err != nil {
		return loading.Descriptor{}, err
	}
	reg := loading.New(loading.WithDefaults(defaults))

	character := cfg.Loading.Character
	if c.IsSet("character") {
		character = c.String("character")
	}
	if err := checkCharacter(character); err != nil {
		return loading.Descriptor{}, err
	}

	var opts []loading.Option
	switch {
	case c.IsSet("kind"):
		kind, err := config.ParseKind(c.String("kind"), c.Int("rows"), character)
		if err != nil {
			return loading.Descriptor{}, err
		}
		opts = append(opts, loading.WithKind(kind))

	case c.IsSet("character"):
		// only the character of a configured character kind changes
		if _, ok := defaults.Kind.(loading.ThemedCharacter); ok {
			opts = append(opts, loading.WithKind(loading.ThemedCharacter{Name: character}))
		}
	}
	if c.IsSet("size") {
		size, err := loading.ParseSize(c.String("size"))
		if err != nil {
			return loading.Descriptor{}, err
		}
		opts = append(opts, loading.WithSize(size))
	}
	if c.IsSet("inline") {
		opts = append(opts, loading.WithInline(c.Bool("inline")))
	}
	if c.IsSet("full-screen") {
		opts = append(opts, loading.WithFullScreen(c.Bool("full-screen")))
	}
	opts = append(opts,
		loading.WithMessage(strings.Join(c.Args().Slice(), " ")),
		loading.WithSubMessage(c.String("sub")),
	)

	h := reg.Start("render", opts...)
	d, _ := reg.Get(h.Key())
	return d, nil
}

func render(_ context.Context, c *cli.Command) error {
	d, err := renderDescriptor(conf, c)
	if err != nil {
		return err
	}

	frame := c.Int("frame")
	width, height := c.Int("width"), c.Int("height")
	if width > 0 && height > 0 {
		fmt.Fprintln(stdout, indicator.Place(d, width, height, frame))
		return nil
	}

	fmt.Fprintln(stdout, indicator.Render(d, frame))
	return nil
}

var inspectCmd = &cli.Command{
	Name:    "inspect",
	Aliases: []string{"i"},
	Usage:   "print the loading states of a running vettingo",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Value:   config.DefaultBindAddr,
			Usage:   "inspector `address`",
			Sources: cli.NewValueSourceChain(toml.TOML("server.bind_addr", altsrc.NewStringPtrSourcer(&configPath))),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 5 * time.Second,
			Usage: "request timeout",
		},
	},
	Action: inspect,
}

func fetchState(ctx context.Context, addr string, timeout time.Duration) (*server.LoadingState, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/api/loading", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach the inspector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inspector replied %s", resp.Status)
	}

	state := &server.LoadingState{}
	if err := json.NewDecoder(resp.Body).Decode(state); err != nil {
		return nil, fmt.Errorf("decoding loading state: %w", err)
	}
	return state, nil
}

func stateTree(addr string, state *server.LoadingState) treeprint.Tree {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	tree := treeprint.NewWithRoot(fmt.Sprintf("vettingo @ %s", addr))

	overlay := "none"
	if state.Overlay != nil {
		overlay = yellow(state.Overlay.Key)
	}
	tree.AddNode(fmt.Sprintf("overlay: %s", overlay))

	active := tree.AddBranch(fmt.Sprintf("active (%d)", len(state.Active)))
	for _, d := range state.Active {
		b := active.AddBranch(green(d.Key))
		b.AddNode(fmt.Sprintf("kind: %s", loading.KindName(d.Kind)))
		b.AddNode(fmt.Sprintf("size: %s", d.Size))
		b.AddNode(fmt.Sprintf("placement: %s", server.Placement(d)))
		if d.Priority != 0 {
			b.AddNode(fmt.Sprintf("priority: %d", d.Priority))
		}
		if d.Message != "" {
			b.AddNode(fmt.Sprintf("message: %s", d.Message))
		}
		if d.SubMessage != "" {
			b.AddNode(fmt.Sprintf("sub: %s", d.SubMessage))
		}
	}
	return tree
}

func inspect(ctx context.Context, c *cli.Command) error {
	addr := c.String("addr")
	state, err := fetchState(ctx, addr, c.Duration("timeout"))
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, stateTree(addr, state).String())
	return nil
}

var cfgInitCmd = &cli.Command{
	Name:  "init",
	Usage: "write the default config file",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "overwrite an existing file",
		},
	},
	Action: func(_ context.Context, c *cli.Command) error {
		if err := config.InitConfigFile(configPath, c.Bool("force")); err != nil {
			return err
		}
		fmt.Fprintln(stdout, configPath)
		return nil
	},
}

var cfgPrintCmd = &cli.Command{
	Name:    "print",
	Aliases: []string{"p"},
	Usage:   "print current config",
	Action: func(_ context.Context, _ *cli.Command) error {
		return config.Encode(stdout, conf)
	},
}

var cfgGetCmd = &cli.Command{
	Name:      "get",
	Usage:     "print one option",
	ArgsUsage: "<path>",
	ShellComplete: func(_ context.Context, _ *cli.Command) {
		for _, p := range conf.Paths() {
			fmt.Println(p)
		}
	},
	Action: func(_ context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return cli.Exit("usage: vettingo config get <path>", 1)
		}

		v, err := conf.Get(c.Args().First())
		if err != nil {
			return err
		}

		switch v.(type) {
		case map[string]any, []any:
			pretty.Fprintf(stdout, "%# v\n", v)
		default:
			fmt.Fprintln(stdout, v)
		}
		return nil
	},
}

var cfgPathCmd = &cli.Command{
	Name:  "path",
	Usage: "print the config file path",
	Action: func(_ context.Context, _ *cli.Command) error {
		fmt.Fprintln(stdout, configPath)
		return nil
	},
}

var configCmds = &cli.Command{
	Name:  "config",
	Usage: "manage the config file",
	Commands: []*cli.Command{
		cfgInitCmd,
		cfgPrintCmd,
		cfgGetCmd,
		cfgPathCmd,
	},
}

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "print build information",
	Action: func(_ context.Context, _ *cli.Command) error {
		for _, row := range build.Info() {
			fmt.Fprintf(stdout, "%-10s %s\n", row[0]+":", row[1])
		}
		return nil
	},
}
