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

package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vettingo/vettingo/pkg/manager"
)

func runWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	m := manager.NewManager()
	m.AddUnit(w, w.ID)
	go m.Run()
	t.Cleanup(func() {
		m.Shutdown()
		<-m.Quit
	})
}

func TestWatchMatches(t *testing.T) {
	w := Watch{
		Path:       "/tmp/vettingo/config.toml",
		EventTypes: []fsnotify.Op{fsnotify.Write, fsnotify.Create},
	}

	assert.True(t, w.matches(fsnotify.Event{Name: "/tmp/vettingo/config.toml", Op: fsnotify.Write}))
	assert.True(t, w.matches(fsnotify.Event{Name: "/tmp/vettingo/./config.toml", Op: fsnotify.Create}))
	assert.False(t, w.matches(fsnotify.Event{Name: "/tmp/vettingo/config.toml", Op: fsnotify.Chmod}))
	assert.False(t, w.matches(fsnotify.Event{Name: "/tmp/vettingo/other.toml", Op: fsnotify.Write}))
}

func TestWatcherReducesEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	var calls atomic.Int32
	w, err := NewWatcher("config", func() { calls.Add(1) }, Watch{
		Path:       path,
		EventTypes: []fsnotify.Op{fsnotify.Write, fsnotify.Create},
	})
	require.NoError(t, err)
	w.Interval = 100 * time.Millisecond
	runWatcher(t, w)

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("b"), 0644))
	time.Sleep(3 * w.Interval)
	assert.Zero(t, calls.Load())

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0644))
	}

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher("missing", nil, Watch{
		Path:       filepath.Join(t.TempDir(), "nope", "config.toml"),
		EventTypes: []fsnotify.Op{fsnotify.Write},
	})
	assert.Error(t, err)
}
