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

// Package config holds the Vettingo configuration: registry defaults, the
// inspector server and the demo pages. It is read from a TOML file and
// decoded with mapstructure so partial files keep the defaults of missing
// options.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/vettingo/vettingo/pkg/loading"
	"github.com/vettingo/vettingo/pkg/logging"
)

var log = logging.GetLogger("CONF")

type Config struct {
	Loading LoadingConfig `toml:"loading" mapstructure:"loading" structs:"loading"`
	Server  ServerConfig  `toml:"server" mapstructure:"server" structs:"server"`
	Demo    DemoConfig    `toml:"demo" mapstructure:"demo" structs:"demo"`
}

// LoadingConfig sets the descriptor every operation starts from.
type LoadingConfig struct {
	Kind      string `toml:"kind" mapstructure:"kind" structs:"kind"`
	Size      string `toml:"size" mapstructure:"size" structs:"size"`
	Inline    bool   `toml:"inline" mapstructure:"inline" structs:"inline"`
	Character string `toml:"character" mapstructure:"character" structs:"character"`
}

type ServerConfig struct {
	Enabled  bool   `toml:"enabled" mapstructure:"enabled" structs:"enabled"`
	BindAddr string `toml:"bind_addr" mapstructure:"bind_addr" structs:"bind_addr"`
}

type DemoConfig struct {
	// Pause between two loads of the same page
	Pause time.Duration `toml:"pause" mapstructure:"pause" structs:"pause"`
	Pages []PageConfig  `toml:"pages" mapstructure:"pages" structs:"pages"`
}

// PageConfig describes one simulated page load. Kind, size and inline left
// unset are taken from the registry defaults at each load.
type PageConfig struct {
	Key        string        `toml:"key" mapstructure:"key" structs:"key"`
	Kind       string        `toml:"kind" mapstructure:"kind" structs:"kind"`
	Size       string        `toml:"size" mapstructure:"size" structs:"size"`
	Rows       int           `toml:"rows,omitempty" mapstructure:"rows" structs:"rows"`
	Character  string        `toml:"character,omitempty" mapstructure:"character" structs:"character"`
	Message    string        `toml:"message" mapstructure:"message" structs:"message"`
	Inline     *bool         `toml:"inline,omitempty" mapstructure:"inline" structs:"inline"`
	FullScreen bool          `toml:"full_screen" mapstructure:"full_screen" structs:"full_screen"`
	Priority   int           `toml:"priority" mapstructure:"priority" structs:"priority"`
	Steps      []string      `toml:"steps,omitempty" mapstructure:"steps" structs:"steps"`
	Duration   time.Duration `toml:"duration" mapstructure:"duration" structs:"duration"`
}

const DefaultBindAddr = "127.0.0.1:2027"

// Bool returns a pointer to v, for optional flags such as PageConfig.Inline.
func Bool(v bool) *bool {
	return &v
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Loading: LoadingConfig{
			Kind: "spinner",
			Size: "md",
		},
		Server: ServerConfig{
			Enabled:  true,
			BindAddr: DefaultBindAddr,
		},
		Demo: DemoConfig{
			Pause: 2 * time.Second,
			Pages: []PageConfig{
				{
					Key:      "pets-page",
					Kind:     "data",
					Size:     "lg",
					Message:  "Loading your pets",
					Inline:   Bool(true),
					Steps:    []string{"Fetching pets", "Fetching vaccination records", "Fetching appointments"},
					Duration: 4 * time.Second,
				},
				{
					Key:      "vet-search",
					Kind:     "skeleton",
					Size:     "md",
					Rows:     3,
					Message:  "Searching veterinarians",
					Inline:   Bool(true),
					Steps:    []string{"Locating clinics", "Checking availability"},
					Duration: 3 * time.Second,
				},
				{
					Key:      "appointments",
					Kind:     "spinner",
					Size:     "sm",
					Message:  "Loading appointments",
					Inline:   Bool(true),
					Duration: 2 * time.Second,
				},
				{
					Key:        "checkout",
					Kind:       "character",
					Size:       "lg",
					Character:  "dog",
					Message:    "Processing your subscription",
					Inline:     Bool(false),
					FullScreen: true,
					Priority:   10,
					Steps:      []string{"Validating plan", "Contacting payment provider", "Activating subscription"},
					Duration:   5 * time.Second,
				},
				{
					Key:      "dashboard",
					Kind:     "spinner",
					Size:     "md",
					Message:  "Preparing your dashboard",
					Inline:   Bool(false),
					Duration: 3 * time.Second,
				},
			},
		},
	}
}

// Descriptor returns the registry defaults described by c.
func (c LoadingConfig) Descriptor() (loading.Descriptor, error) {
	d := loading.DefaultDescriptor

	kind, err := ParseKind(c.Kind, 0, c.Character)
	if err != nil {
		return d, fmt.Errorf("[loading] %w", err)
	}
	size, err := loading.ParseSize(c.Size)
	if err != nil {
		return d, fmt.Errorf("[loading] %w", err)
	}

	d.Kind = kind
	d.Size = size
	d.Inline = c.Inline
	return d, nil
}

// Options converts the page into start options for the registry. Rows and
// character only apply together with a kind.
func (p PageConfig) Options() ([]loading.Option, error) {
	var opts []loading.Option

	if p.Kind != "" {
		kind, err := ParseKind(p.Kind, p.Rows, p.Character)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", p.Key, err)
		}
		opts = append(opts, loading.WithKind(kind))
	}
	if p.Size != "" {
		size, err := loading.ParseSize(p.Size)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", p.Key, err)
		}
		opts = append(opts, loading.WithSize(size))
	}
	if p.Inline != nil {
		opts = append(opts, loading.WithInline(*p.Inline))
	}

	return append(opts,
		loading.WithMessage(p.Message),
		loading.WithFullScreen(p.FullScreen),
		loading.WithPriority(p.Priority),
	), nil
}

// ParseKind parses a kind name and attaches the skeleton rows or character
// name where the kind takes one.
func ParseKind(name string, rows int, character string) (loading.Kind, error) {
	kind, err := loading.ParseKind(name)
	if err != nil {
		return nil, err
	}

	switch kind.(type) {
	case loading.Skeleton:
		kind = loading.Skeleton{Rows: rows}
	case loading.ThemedCharacter:
		kind = loading.ThemedCharacter{Name: character}
	}
	return kind, nil
}

// Validate checks every kind and size and rejects duplicate page keys.
func (c *Config) Validate() error {
	if _, err := c.Loading.Descriptor(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Demo.Pages))
	for _, p := range c.Demo.Pages {
		if p.Key == "" {
			return ErrMissingPageKey
		}
		if seen[p.Key] {
			return fmt.Errorf("%w: %s", ErrDuplicatePage, p.Key)
		}
		seen[p.Key] = true

		if _, err := p.Options(); err != nil {
			return err
		}
	}
	return nil
}

// Get returns an option by its dotted toml path, e.g. "server.bind_addr".
func (c *Config) Get(path string) (any, error) {
	var cur any = structs.Map(c)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, c.unknownOption(path)
		}
		if cur, ok = m[part]; !ok {
			return nil, c.unknownOption(path)
		}
	}
	return cur, nil
}

// Paths lists the dotted path of every option and section, sorted.
func (c *Config) Paths() []string {
	var paths []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			path := prefix + k
			paths = append(paths, path)
			if sub, ok := v.(map[string]any); ok {
				walk(path+".", sub)
			}
		}
	}
	walk("", structs.Map(c))
	sort.Strings(paths)
	return paths
}

func (c *Config) unknownOption(path string) error {
	ranks := fuzzy.RankFindFold(path, c.Paths())
	if len(ranks) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownOption, path)
	}
	sort.Sort(ranks)
	return fmt.Errorf("%w: %s, did you mean %s?", ErrUnknownOption, path, ranks[0].Target)
}
