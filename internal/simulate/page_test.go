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

package simulate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vettingo/vettingo/pkg/config"
	"github.com/vettingo/vettingo/pkg/loading"
	"github.com/vettingo/vettingo/pkg/manager"
)

var petsPage = config.PageConfig{
	Key:      "pets-page",
	Kind:     "data",
	Size:     "lg",
	Message:  "Loading your pets",
	Inline:   config.Bool(true),
	Steps:    []string{"Fetching pets", "Fetching vaccination records"},
	Duration: 20 * time.Millisecond,
}

func TestLoad(t *testing.T) {
	reg := loading.New()
	page, err := NewPage(reg, petsPage, 0)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []loading.Descriptor
	reg.Subscribe("pets-page", func(d loading.Descriptor) {
		mu.Lock()
		seen = append(seen, d)
		mu.Unlock()
	})

	require.NoError(t, page.Load(context.Background()))
	assert.Equal(t, 1, page.Loads)
	assert.False(t, reg.IsLoading("pets-page"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 4)
	assert.True(t, seen[0].IsLoading)
	assert.Equal(t, loading.ThemedData{}, seen[0].Kind)
	assert.Equal(t, loading.Large, seen[0].Size)
	assert.Equal(t, "Fetching pets", seen[1].SubMessage)
	assert.Equal(t, "Fetching vaccination records", seen[2].SubMessage)
	assert.False(t, seen[3].IsLoading)
}

func TestLoadUsesRegistryDefaults(t *testing.T) {
	reg := loading.New(loading.WithDefaults(loading.Descriptor{
		Kind:   loading.Skeleton{},
		Size:   loading.Large,
		Inline: true,
	}))
	page, err := NewPage(reg, config.PageConfig{Key: "billing", Duration: time.Millisecond}, 0)
	require.NoError(t, err)

	var mu sync.Mutex
	var started []loading.Descriptor
	reg.Subscribe("billing", func(d loading.Descriptor) {
		if d.IsLoading {
			mu.Lock()
			started = append(started, d)
			mu.Unlock()
		}
	})

	require.NoError(t, page.Load(context.Background()))

	// a reload changes the defaults of the following loads
	reg.SetDefaults(loading.Descriptor{Kind: loading.ThemedData{}, Size: loading.Small})
	require.NoError(t, page.Load(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, started, 2)
	assert.Equal(t, loading.Skeleton{}, started[0].Kind)
	assert.Equal(t, loading.Large, started[0].Size)
	assert.True(t, started[0].Inline)
	assert.Equal(t, loading.ThemedData{}, started[1].Kind)
	assert.Equal(t, loading.Small, started[1].Size)
	assert.False(t, started[1].Inline)
}

func TestLoadCancelled(t *testing.T) {
	reg := loading.New()
	cfg := petsPage
	cfg.Duration = time.Hour
	page, err := NewPage(reg, cfg, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for !reg.IsLoading("pets-page") {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	assert.ErrorIs(t, page.Load(ctx), context.Canceled)
	assert.False(t, reg.IsLoading("pets-page"), "cancelled loads are stopped")
	assert.Zero(t, page.Loads)
}

func TestPagesRejectBadConfig(t *testing.T) {
	_, err := Pages(loading.New(), config.DemoConfig{
		Pages: []config.PageConfig{{Key: "x", Kind: "hourglass"}},
	})
	assert.ErrorIs(t, err, loading.ErrUnknownKind)
}

func TestRunUnit(t *testing.T) {
	reg := loading.New()
	pages, err := Pages(reg, config.DemoConfig{
		Pause: time.Millisecond,
		Pages: []config.PageConfig{petsPage, {Key: "appointments", Duration: 5 * time.Millisecond}},
	})
	require.NoError(t, err)

	m := manager.NewManager()
	for _, p := range pages {
		m.AddUnit(p, p.Key())
	}
	go m.Run()

	require.Eventually(t, func() bool {
		return reg.IsLoading("pets-page")
	}, 2*time.Second, time.Millisecond)

	m.Shutdown()
	select {
	case <-m.Quit:
	case <-time.After(5 * time.Second):
		t.Fatal("units did not stop")
	}
	assert.Zero(t, reg.Len(), "stopped units leave no loading state")
}
