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

// Package events bridges registry notifications to consumers that run their
// own loop, such as the dashboard. Listeners of a [loading.Registry] run
// inside the mutating call and must not block, so the bus only records that
// something changed and wakes the consumer, which then reads the registry.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/vettingo/vettingo/pkg/loading"
)

// Bus coalesces registry changes into wake-ups. Any number of changes that
// happen while the consumer is busy result in a single pending wake-up.
type Bus struct {
	wake        chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
	done        chan struct{}

	changes atomic.Uint64
	last    atomic.Pointer[loading.Descriptor]
}

// Listen subscribes a new bus to every key of reg.
func Listen(reg *loading.Registry) *Bus {
	b := &Bus{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	b.unsubscribe = reg.SubscribeAll(b.notify)
	return b
}

func (b *Bus) notify(d loading.Descriptor) {
	b.changes.Add(1)
	b.last.Store(&d)

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until a change happened since the last Wait. It returns false
// once the bus is closed.
func (b *Bus) Wait() bool {
	select {
	case <-b.wake:
		return true
	case <-b.done:
		return false
	}
}

// C exposes the wake-up channel for use in select statements.
func (b *Bus) C() <-chan struct{} {
	return b.wake
}

// Changes counts the notifications received so far.
func (b *Bus) Changes() uint64 {
	return b.changes.Load()
}

// Last returns the most recent descriptor seen by the bus.
func (b *Bus) Last() (loading.Descriptor, bool) {
	d := b.last.Load()
	if d == nil {
		return loading.Descriptor{}, false
	}
	return *d, true
}

// Close unsubscribes the bus and releases any pending Wait.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.unsubscribe()
		close(b.done)
	})
}
