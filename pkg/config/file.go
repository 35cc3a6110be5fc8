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

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
)

const (
	ConfigFileName = "config.toml"
	ConfigDirName  = "vettingo"
)

var (
	ErrConfigExists   = errors.New("config file already exists")
	ErrMissingPageKey = errors.New("demo page without key")
	ErrDuplicatePage  = errors.New("duplicate demo page")
	ErrUnknownOption  = errors.New("unknown option")
)

func getConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get config dir: %w", err)
	}
	if configDir == "" {
		return "", errors.New("could not get config dir")
	}
	return filepath.Join(configDir, ConfigDirName), nil
}

// DefaultConfPath returns ~/.config/vettingo/config.toml or its platform
// equivalent.
func DefaultConfPath() string {
	dir, err := getConfigDir()
	if err != nil {
		return ConfigFileName
	}
	return filepath.Join(dir, ConfigFileName)
}

// Load reads the config file at path over the defaults. A missing file is
// reported with an error wrapping [os.ErrNotExist].
func Load(path string) (*Config, error) {
	raw := make(map[string]any)
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	log.Debug("loaded config", "path", path, "pages", len(cfg.Demo.Pages))
	return cfg, nil
}

// LoadOrDefault is like Load but falls back to the defaults when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("no config file, using defaults", "path", path)
		return Default(), nil
	}
	return cfg, err
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(StringToDurationFunc()),
		ErrorUnused: true,
		ZeroFields:  true,
		Result:      cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// InitConfigFile writes the default configuration to path, creating the
// parent directories.
func InitConfigFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}

	configFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer configFile.Close()

	if err = Encode(configFile, Default()); err != nil {
		return err
	}

	log.Info("created config file", "path", path)
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	return enc.Encode(cfg)
}
