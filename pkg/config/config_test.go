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
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vettingo/vettingo/pkg/loading"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	d, err := cfg.Loading.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, loading.DefaultDescriptor, d)
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, `
[loading]
size = "lg"

[demo]
pause = "500ms"

[[demo.pages]]
key = "billing"
kind = "skeleton"
rows = 2
size = "sm"
inline = true
duration = "1s"
steps = ["Loading invoices"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lg", cfg.Loading.Size)
	assert.Equal(t, "spinner", cfg.Loading.Kind, "missing options keep defaults")
	assert.Equal(t, DefaultBindAddr, cfg.Server.BindAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.Demo.Pause)

	require.Len(t, cfg.Demo.Pages, 1, "pages replace the default list")
	page := cfg.Demo.Pages[0]
	assert.Equal(t, "billing", page.Key)
	assert.Equal(t, time.Second, page.Duration)
	assert.Equal(t, []string{"Loading invoices"}, page.Steps)

	opts, err := page.Options()
	require.NoError(t, err)
	reg := loading.New()
	reg.Start(page.Key, opts...)
	d, _ := reg.Get("billing")
	assert.Equal(t, loading.Skeleton{Rows: 2}, d.Kind)
	assert.Equal(t, loading.Small, d.Size)
	assert.True(t, d.Inline)
}

func TestPageInheritsLoadingDefaults(t *testing.T) {
	path := writeConfig(t, `
[loading]
kind = "skeleton"
size = "lg"
inline = true

[[demo.pages]]
key = "billing"
duration = "1s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	page := cfg.Demo.Pages[0]
	assert.Nil(t, page.Inline)

	defaults, err := cfg.Loading.Descriptor()
	require.NoError(t, err)
	opts, err := page.Options()
	require.NoError(t, err)

	reg := loading.New(loading.WithDefaults(defaults))
	reg.Start(page.Key, opts...)
	d, _ := reg.Get("billing")
	assert.Equal(t, loading.Skeleton{}, d.Kind)
	assert.Equal(t, loading.Large, d.Size)
	assert.True(t, d.Inline)
}

func TestPageOverridesLoadingDefaults(t *testing.T) {
	reg := loading.New(loading.WithDefaults(loading.Descriptor{
		Kind:   loading.Skeleton{},
		Size:   loading.Large,
		Inline: true,
	}))

	opts, err := PageConfig{Key: "checkout", Kind: "spinner", Size: "sm", Inline: Bool(false)}.Options()
	require.NoError(t, err)
	reg.Start("checkout", opts...)

	d, _ := reg.Get("checkout")
	assert.Equal(t, loading.Spinner{}, d.Kind)
	assert.Equal(t, loading.Small, d.Size)
	assert.False(t, d.Inline)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)

		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("unknown option", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[server]\nport = 80\n"))
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[demo]\npause = \"soon\"\n"))
		assert.Error(t, err)
	})

	t.Run("bad kind", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[loading]\nkind = \"hourglass\"\n"))
		assert.ErrorIs(t, err, loading.ErrUnknownKind)
	})

	t.Run("duplicate pages", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
[[demo.pages]]
key = "a"
[[demo.pages]]
key = "a"
`))
		assert.ErrorIs(t, err, ErrDuplicatePage)
	})
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	require.NoError(t, InitConfigFile(path, false))
	assert.ErrorIs(t, InitConfigFile(path, false), ErrConfigExists)
	require.NoError(t, InitConfigFile(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("written defaults do not load back (-want +got):\n%s", diff)
	}
}

func TestGet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("server.bind_addr")
	require.NoError(t, err)
	assert.Equal(t, DefaultBindAddr, v)

	v, err = cfg.Get("loading.kind")
	require.NoError(t, err)
	assert.Equal(t, "spinner", v)

	_, err = cfg.Get("server.port")
	assert.ErrorIs(t, err, ErrUnknownOption)

	_, err = cfg.Get("server.bind_addr.host")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestGetSuggestsOption(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("server.bindaddr")
	require.ErrorIs(t, err, ErrUnknownOption)
	assert.Contains(t, err.Error(), "did you mean server.bind_addr?")
}

func TestPaths(t *testing.T) {
	paths := Default().Paths()

	assert.True(t, sort.StringsAreSorted(paths))
	assert.Contains(t, paths, "loading")
	assert.Contains(t, paths, "loading.kind")
	assert.Contains(t, paths, "server.bind_addr")
	assert.Contains(t, paths, "demo.pause")
}
