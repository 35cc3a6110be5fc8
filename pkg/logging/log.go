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
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	log "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

const EnvVettingoDebug = "VETTINGO_DEBUG"

// Silent disables a logger entirely.
const Silent = log.Level(math.MaxInt32)

var (
	// SilentMode is set by the --silent flag and wins over any debug level.
	SilentMode bool
	TUIMode    bool

	mu           sync.Mutex
	loggers      = make(map[string]*log.Logger)
	loggerLevels = make(map[string]log.Level)
	globalLevel  = log.WarnLevel
	output       io.Writer = os.Stderr

	levels = map[string]log.Level{
		"debug": log.DebugLevel,
		"info":  log.InfoLevel,
		"warn":  log.WarnLevel,
		"error": log.ErrorLevel,
		"fatal": log.FatalLevel,
		"none":  Silent,
	}
	allLevels = []string{"debug", "info", "warn", "error", "fatal", "none"}

	logTextStyle = lipgloss.NewStyle().Foreground(
		lipgloss.AdaptiveColor{Light: "245", Dark: "252"},
	)
	logTextFaintStyle = lipgloss.NewStyle().Foreground(
		lipgloss.AdaptiveColor{Light: "240", Dark: "246"},
	)
	logLevelStyles = map[log.Level]lipgloss.Style{
		log.DebugLevel: levelStyle(log.DebugLevel, "63"),
		log.InfoLevel:  levelStyle(log.InfoLevel, "36"),
		log.WarnLevel:  levelStyle(log.WarnLevel, "178"),
		log.ErrorLevel: levelStyle(log.ErrorLevel, "204"),
		log.FatalLevel: levelStyle(log.FatalLevel, "134"),
	}
)

func levelStyle(lvl log.Level, color string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(strings.ToUpper(lvl.String())).
		MaxWidth(4).
		Foreground(lipgloss.Color(color))
}

// GetLogger returns the logger of a unit, creating it on first use. Units
// are short upper case names shown as the log prefix, e.g. "LOAD".
func GetLogger(unit string) *log.Logger {
	unit = strings.ToUpper(unit)

	mu.Lock()
	defer mu.Unlock()

	if lg, ok := loggers[unit]; ok {
		return lg
	}

	lg := log.NewWithOptions(output, log.Options{
		Prefix:          fmt.Sprintf("[%.4s]", unit),
		TimeFormat:      time.TimeOnly,
		ReportTimestamp: false,
	})
	loggers[unit] = lg
	applyLevel(unit, lg)

	if TUIMode {
		setTUIStyle(lg)
	}

	return lg
}

func levelFor(unit string) log.Level {
	if SilentMode {
		return Silent
	}
	if lvl, ok := loggerLevels[unit]; ok {
		return lvl
	}
	return globalLevel
}

func applyLevel(unit string, lg *log.Logger) {
	lvl := levelFor(unit)
	lg.SetLevel(lvl)
	if lvl == Silent {
		lg.SetOutput(io.Discard)
	} else {
		lg.SetOutput(output)
	}

	// caller and time only help when debugging
	debug := lvl <= log.DebugLevel && !TUIMode
	lg.SetReportCaller(debug)
	lg.SetReportTimestamp(debug)
}

// SetLevel sets the level of every unit without an explicit unit level.
func SetLevel(lvl log.Level) {
	mu.Lock()
	defer mu.Unlock()

	globalLevel = lvl
	for unit, lg := range loggers {
		applyLevel(unit, lg)
	}
}

func SetUnitLevel(unit string, lvl log.Level) {
	unit = strings.ToUpper(unit)

	mu.Lock()
	defer mu.Unlock()

	loggerLevels[unit] = lvl
	if lg, ok := loggers[unit]; ok {
		applyLevel(unit, lg)
	}
}

// SetSilent discards all log output until turned off again.
func SetSilent(silent bool) {
	mu.Lock()
	defer mu.Unlock()

	SilentMode = silent
	for unit, lg := range loggers {
		applyLevel(unit, lg)
	}
}

// GlobalLevel returns the level applied to units without their own level.
func GlobalLevel() log.Level {
	mu.Lock()
	defer mu.Unlock()
	return globalLevel
}

func listLoggers() []string {
	mu.Lock()
	defer mu.Unlock()

	units := make([]string, 0, len(loggers))
	for unit := range loggers {
		units = append(units, unit)
	}
	slices.Sort(units)
	return units
}

func setTUIStyle(lg *log.Logger) {
	styles := log.DefaultStyles()
	styles.Levels = logLevelStyles
	styles.Message = logTextStyle
	styles.Value = logTextStyle
	styles.Prefix = logTextFaintStyle
	styles.Key = logTextFaintStyle
	styles.Separator = logTextFaintStyle

	// see https://github.com/charmbracelet/log?tab=readme-ov-file#styles
	lg.SetStyles(styles)
	lg.SetColorProfile(termenv.ANSI256)
}

// SetTUI redirects all loggers to out, typically a [TailBuffer] drawn by the
// dashboard. Levels below info are raised to info so debug output does not
// flood the log pane.
func SetTUI(out io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	TUIMode = true
	output = out
	if globalLevel < log.InfoLevel {
		globalLevel = log.InfoLevel
	}

	for unit, lg := range loggers {
		applyLevel(unit, lg)
		setTUIStyle(lg)
	}
}

func init() {
	// Early debugging before the cli flags are parsed
	if env := os.Getenv(EnvVettingoDebug); env != "" {
		if err := ParseDebugLevels(env); err != nil {
			fmt.Fprintf(os.Stderr, "%s=%v: %v\n", EnvVettingoDebug, env, err)
		}
	}
}
