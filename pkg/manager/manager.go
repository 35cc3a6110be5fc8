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

// Package manager supervises the long running units of vettingo: page
// simulators, the inspector server and the dashboard feed.
package manager

import (
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/vettingo/vettingo/pkg/logging"
)

var log = logging.GetLogger("MNGR")

// The WorkUnit interface is used to define a unit of work.
// The Run method will be called in a goroutine.
type WorkUnit interface {
	Run(UnitManager)
}

// The UnitManager interface is used to manage a unit of work.
// The ShouldStop method returns a channel that is closed when the unit
// should stop. The Done method must be called when the unit is done. Panic
// reports a fatal error, shuts down the other units and counts as Done.
type UnitManager interface {
	ShouldStop() <-chan struct{}
	Done()
	Panic(err error)
}

type workUnitManager struct {
	name     string
	unit     WorkUnit
	stop     chan struct{}
	stopOnce sync.Once
	quit     chan struct{}
	quitOnce sync.Once
	panic    chan<- error
}

func (w *workUnitManager) ShouldStop() <-chan struct{} {
	return w.stop
}

func (w *workUnitManager) Done() {
	w.quitOnce.Do(func() { close(w.quit) })
}

func (w *workUnitManager) Panic(err error) {
	select {
	case w.panic <- fmt.Errorf("%s: %w", w.name, err):
	default:
	}
	w.Done()
}

func (w *workUnitManager) requestStop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

type Manager struct {
	mu           sync.Mutex
	signalIn     chan os.Signal
	shutdownSigs []os.Signal
	workers      map[string]*workUnitManager
	order        []string
	ids          map[string]int
	err          error

	shutdown     chan struct{}
	shutdownOnce sync.Once
	panic        chan error

	stopped chan struct{}

	// Quit receives once every unit has stopped.
	Quit chan bool
}

func NewManager() *Manager {
	return &Manager{
		signalIn: make(chan os.Signal, 1),
		workers:  make(map[string]*workUnitManager),
		ids:      make(map[string]int),
		shutdown: make(chan struct{}),
		panic:    make(chan error, 1),
		stopped:  make(chan struct{}),
		Quit:     make(chan bool, 1),
	}
}

// AddUnit registers unit under name[Type#n] and returns the full unit name.
// Units must be added before Run.
func (m *Manager) AddUnit(unit WorkUnit, name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	unitType := reflect.TypeOf(unit).String()
	if i := strings.LastIndex(unitType, "."); i >= 0 {
		unitType = unitType[i+1:]
	}
	base := fmt.Sprintf("%s[%s", name, unitType)
	id := m.ids[base]
	m.ids[base]++
	unitName := fmt.Sprintf("%s#%d]", base, id)

	m.workers[unitName] = &workUnitManager{
		name:  unitName,
		unit:  unit,
		stop:  make(chan struct{}),
		quit:  make(chan struct{}),
		panic: m.panic,
	}
	m.order = append(m.order, unitName)

	log.Debug("adding unit", "unit", unitName)
	return unitName
}

// Units returns the registered unit names in registration order.
func (m *Manager) Units() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// ShutdownOn stops all units when one of sig is received.
func (m *Manager) ShutdownOn(sig ...os.Signal) {
	for _, s := range sig {
		log.Debugf("registering shutdown signal: %s", s)
	}
	signal.Notify(m.signalIn, sig...)
	m.shutdownSigs = append(m.shutdownSigs, sig...)
}

// Shutdown asks Run to stop every unit. It does not wait; receive from Quit
// for that.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() { close(m.shutdown) })
}

// Stopped is closed once Run has stopped every unit. Unlike Quit it can be
// waited on by any number of receivers.
func (m *Manager) Stopped() <-chan struct{} {
	return m.stopped
}

// Err returns the error of the first panicking unit, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Run starts every unit and blocks until they have all stopped.
func (m *Manager) Run() {
	log.Debug("starting manager")

	workers := m.snapshot()
	for _, w := range workers {
		log.Debugf("starting <%s>", w.name)
		go w.unit.Run(w)
	}

loop:
	for {
		select {
		case sig := <-m.signalIn:
			if !slices.Contains(m.shutdownSigs, sig) {
				continue
			}
			log.Debug("shutdown signal received", "signal", sig)
			break loop

		case <-m.shutdown:
			log.Debug("shutdown requested")
			break loop

		case err := <-m.panic:
			m.mu.Lock()
			m.err = err
			m.mu.Unlock()
			log.Error("unit failed", "err", err)
			break loop
		}
	}

	for _, w := range workers {
		log.Debugf("shutting down <%s>", w.name)
		w.requestStop()
	}

	for _, w := range workers {
		<-w.quit
		log.Debugf("<%s> down", w.name)
	}

	signal.Stop(m.signalIn)
	log.Info("all units stopped")
	close(m.stopped)
	m.Quit <- true
}

func (m *Manager) snapshot() []*workUnitManager {
	m.mu.Lock()
	defer m.mu.Unlock()

	workers := make([]*workUnitManager, 0, len(m.order))
	for _, name := range m.order {
		workers = append(workers, m.workers[name])
	}
	return workers
}
