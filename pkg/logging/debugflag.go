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

package logging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"
)

var DebugFlag = &cli.StringFlag{
	Name:        "debug",
	Aliases:     []string{"D"},
	Usage:       debugHelp,
	DefaultText: "warn",
	Category:    "_",
	Sources:     cli.EnvVars(EnvVettingoDebug),
	Action: func(_ context.Context, _ *cli.Command, val string) error {
		return ParseDebugLevels(val)
	},
}

var SilentFlag = &cli.BoolFlag{
	Name:     "silent",
	Aliases:  []string{"S"},
	Usage:    "disable all log output",
	Category: "_",
	Action: func(_ context.Context, _ *cli.Command, val bool) error {
		SetSilent(val)
		return nil
	},
}

var (
	ErrUnknownLevel  = errors.New("unknown debug level")
	ErrHelpQuit      = errors.New("help quit")
	ErrParseSubLevel = errors.New("cannot parse unit level")
)

var debugHelp = `Logging level for all units {debug, info, warn, error, fatal, none}
	You may also specify <global-level>,<unit>=<level>,<unit2>=<level>,...
	Use 'debug=list' to list available units`

func parseLevel(lvl string) (string, error) {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if !slices.Contains(allLevels, lvl) {
		return "", ErrUnknownLevel
	}
	return lvl, nil
}

func parseUnitLvl(sl string) error {
	tokens := strings.Split(sl, "=")
	if len(tokens) != 2 {
		return ErrParseSubLevel
	}

	unit := strings.ToUpper(strings.TrimSpace(tokens[0]))
	lvl, err := parseLevel(tokens[1])
	if err != nil {
		return fmt.Errorf("%w %s", err, tokens[1])
	}

	SetUnitLevel(unit, levels[lvl])
	return nil
}

// ParseDebugLevels parses `<global>[,UNIT=level...]` and applies the levels.
func ParseDebugLevels(val string) error {
	args := strings.Split(val, ",")

	if args[0] == "list" {
		fmt.Printf("available levels: [%s]\n", strings.Join(allLevels, ","))
		fmt.Printf("available units: [%s]\n", strings.Join(listLoggers(), ","))
		return ErrHelpQuit
	}

	global, err := parseLevel(args[0])
	if err != nil {
		return fmt.Errorf("%w `%s'", err, args[0])
	}
	SetLevel(levels[global])

	for _, arg := range args[1:] {
		if err = parseUnitLvl(arg); err != nil {
			return fmt.Errorf("%w `%s'", err, arg)
		}
	}

	return nil
}
