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

package loading

import "sync"

// Subscribe registers fn for changes of key. Listeners of a key are called
// in subscription order. The returned func removes the subscription and may
// be called more than once.
func (r *Registry) Subscribe(key string, fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	r.mu.Lock()
	r.subID++
	id := r.subID
	r.keyed[key] = append(r.keyed[key], subscription{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()

			subs := without(r.keyed[key], id)
			if len(subs) == 0 {
				delete(r.keyed, key)
			} else {
				r.keyed[key] = subs
			}
		})
	}
}

// SubscribeAll registers fn for changes of any key. Registry-wide listeners
// run after the listeners of the changed key.
func (r *Registry) SubscribeAll(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	r.mu.Lock()
	r.subID++
	id := r.subID
	r.all = append(r.all, subscription{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.all = without(r.all, id)
		})
	}
}

// Subscribers returns the number of listeners registered for key.
func (r *Registry) Subscribers(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keyed[key])
}

// listenersLocked copies the listeners to call for a change of key, so they
// can run without holding the lock.
func (r *Registry) listenersLocked(key string) []Listener {
	keyed := r.keyed[key]
	fns := make([]Listener, 0, len(keyed)+len(r.all))
	for _, s := range keyed {
		fns = append(fns, s.fn)
	}
	for _, s := range r.all {
		fns = append(fns, s.fn)
	}
	return fns
}

// without returns a new slice so snapshots taken earlier stay untouched.
func without(subs []subscription, id uint64) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
