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

// Package watch runs fsnotify watchers as manager units. Bursts of events
// are reduced to a single callback once the file has been quiet for the
// configured interval.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vettingo/vettingo/pkg/logging"
	"github.com/vettingo/vettingo/pkg/manager"
)

var log = logging.GetLogger("WATCH")

const DefaultInterval = 300 * time.Millisecond

// Watch is one watched file. The parent directory is watched and events are
// filtered by name, so files replaced on save keep being tracked.
type Watch struct {
	Path       string
	EventTypes []fsnotify.Op
}

func (w Watch) matches(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(w.Path) {
		return false
	}
	for _, op := range w.EventTypes {
		if ev.Op&op == op {
			return true
		}
	}
	return false
}

// Watcher calls OnChange after matching events on any of its watches.
type Watcher struct {
	ID       string
	Watches  []Watch
	Interval time.Duration
	OnChange func()

	fs *fsnotify.Watcher
}

func NewWatcher(id string, onChange func(), watches ...Watch) (*Watcher, error) {
	fswatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		ID:       id,
		Watches:  watches,
		Interval: DefaultInterval,
		OnChange: onChange,
		fs:       fswatcher,
	}

	for _, watch := range watches {
		if err := fswatcher.Add(filepath.Dir(watch.Path)); err != nil {
			fswatcher.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	for _, watch := range w.Watches {
		if watch.matches(ev) {
			return true
		}
	}
	return false
}

// Run implements manager.WorkUnit.
func (w *Watcher) Run(m manager.UnitManager) {
	defer m.Done()
	defer w.fs.Close()

	for _, watch := range w.Watches {
		log.Debugf("<%s> watching %s", w.ID, watch.Path)
	}

	timer := time.NewTimer(w.Interval)
	timer.Stop()
	pending := false

	for {
		select {
		case <-m.ShouldStop():
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				log.Warnf("<%s> events channel closed", w.ID)
				return
			}
			if !w.matches(ev) {
				continue
			}
			pending = true
			timer.Reset(w.Interval)

		case <-timer.C:
			if pending && w.OnChange != nil {
				log.Debugf("<%s> change detected", w.ID)
				w.OnChange()
			}
			pending = false

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Error("watch error", "watcher", w.ID, "err", err)
		}
	}
}
