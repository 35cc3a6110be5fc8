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

// Package build exposes version information stamped at link time or read
// from the module build info.
package build

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Describe is set with -ldflags "-X .../pkg/build.Describe=$(git describe)".
	Describe string

	CommitHash string
	Modified   bool
	GoVersion  string

	// PackageVersion is the module version when installed with go install.
	PackageVersion = "devel"
)

// Version returns a short human readable version string.
func Version() string {
	if Describe != "" {
		return Describe
	}

	v := PackageVersion
	if len(CommitHash) >= 8 {
		v = fmt.Sprintf("%s (%s", v, CommitHash[:8])
		if Modified {
			v += "-dirty"
		}
		v += ")"
	}
	return v
}

// Info returns the version details as key/value pairs in display order.
func Info() [][2]string {
	return [][2]string{
		{"version", Version()},
		{"commit", CommitHash},
		{"go", GoVersion},
	}
}

func readVCS(info *debug.BuildInfo) {
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			CommitHash = setting.Value
		case "vcs.modified":
			Modified = strings.EqualFold(setting.Value, "true")
		}
	}
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	GoVersion = info.GoVersion
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		PackageVersion = info.Main.Version
	}
	readVCS(info)
}
