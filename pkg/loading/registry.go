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

// Package loading keeps track of named "operation in progress" states so that
// independent parts of the UI can start, update and stop a shared loading
// indicator without knowing about each other.
//
// A [Registry] maps a caller-chosen key (e.g. "pets-page") to a [Descriptor].
// Starting a key returns a [Handle]; only the current handle of a key may
// update or stop it, so a late stop from a superseded caller cannot clear a
// newer operation that reused the same key.
//
// Entries are transient: stopping a key removes it from the registry.
// Subscribers receive a last descriptor with IsLoading set to false.
package loading

import (
	"slices"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/vettingo/vettingo/pkg/logging"
)

var log = logging.GetLogger("LOAD")

// Listener receives a snapshot of a descriptor each time it changes.
type Listener func(Descriptor)

type entry struct {
	desc  Descriptor
	token uuid.UUID

	// start order, used for enumeration and overlay tie-breaks
	seq uint64
}

type subscription struct {
	id uint64
	fn Listener
}

// Registry is safe for concurrent use. Listeners run synchronously in the
// goroutine of the mutating call, after the registry lock is released, so
// they may call back into the registry.
type Registry struct {
	mu       sync.Mutex
	defaults Descriptor
	entries  map[string]*entry
	seq      uint64

	keyed map[string][]subscription
	all   []subscription
	subID uint64
}

type RegistryOption func(*Registry)

// WithDefaults sets the descriptor every Start begins from. Key and
// IsLoading are ignored.
func WithDefaults(d Descriptor) RegistryOption {
	return func(r *Registry) {
		d.Key = ""
		d.IsLoading = false
		if d.Kind == nil {
			d.Kind = Spinner{}
		}
		r.defaults = d
	}
}

func New(opts ...RegistryOption) *Registry {
	r := &Registry{
		defaults: DefaultDescriptor,
		entries:  make(map[string]*entry),
		keyed:    make(map[string][]subscription),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Defaults returns the descriptor new operations start from.
func (r *Registry) Defaults() Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaults
}

// SetDefaults replaces the descriptor future Starts begin from. Running
// operations keep their descriptor.
func (r *Registry) SetDefaults(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	WithDefaults(d)(r)
}

// Start marks key as loading. Any previous operation on key is replaced and
// its handle stops being valid.
func (r *Registry) Start(key string, opts ...Option) Handle {
	r.mu.Lock()

	d := apply(r.defaults, opts)
	d.Key = key
	d.IsLoading = true

	prev, existed := r.entries[key]
	r.seq++
	e := &entry{
		desc:  d,
		token: uuid.Must(uuid.NewV4()),
		seq:   r.seq,
	}
	r.entries[key] = e

	var fns []Listener
	if !existed || prev.desc != d {
		fns = r.listenersLocked(key)
	}
	r.mu.Unlock()

	if existed {
		log.Debug("replacing loading state", "key", key)
	} else {
		log.Debug("loading started", "key", key, "kind", KindName(d.Kind))
	}

	notify(fns, d)
	return Handle{reg: r, key: key, token: e.token}
}

// Stop ends the operation held by h. It is a no-op returning false when h is
// not the current holder of its key.
func (r *Registry) Stop(h Handle) bool {
	if h.reg != r {
		return false
	}

	r.mu.Lock()
	e, ok := r.entries[h.key]
	if !ok || e.token != h.token {
		r.mu.Unlock()
		log.Debug("ignoring stop from stale handle", "key", h.key)
		return false
	}

	delete(r.entries, h.key)
	d := e.desc
	d.IsLoading = false
	fns := r.listenersLocked(h.key)
	r.mu.Unlock()

	log.Debug("loading stopped", "key", h.key)
	notify(fns, d)
	return true
}

// Update merges opts into the descriptor held by h. Subscribers are only
// notified when the merged descriptor differs from the current one. It
// returns false when h is not the current holder of its key.
func (r *Registry) Update(h Handle, opts ...Option) bool {
	if h.reg != r {
		return false
	}

	r.mu.Lock()
	e, ok := r.entries[h.key]
	if !ok || e.token != h.token {
		r.mu.Unlock()
		return false
	}

	d := apply(e.desc, opts)
	d.Key = h.key
	d.IsLoading = true

	var fns []Listener
	if d != e.desc {
		e.desc = d
		fns = r.listenersLocked(h.key)
	}
	r.mu.Unlock()

	notify(fns, d)
	return true
}

// Get returns the descriptor of key if it is loading.
func (r *Registry) Get(key string) (Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

func (r *Registry) IsLoading(key string) bool {
	_, ok := r.Get(key)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ClearAll stops every operation. Subscribers of each cleared key receive
// one not-loading notification and all outstanding handles become stale.
func (r *Registry) ClearAll() {
	type pending struct {
		desc Descriptor
		fns  []Listener
	}

	r.mu.Lock()
	cleared := make([]pending, 0, len(r.entries))
	for _, e := range r.sortedLocked() {
		d := e.desc
		d.IsLoading = false
		cleared = append(cleared, pending{desc: d, fns: r.listenersLocked(d.Key)})
	}
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	if len(cleared) > 0 {
		log.Debug("cleared all loading states", "count", len(cleared))
	}

	for _, p := range cleared {
		notify(p.fns, p.desc)
	}
}

// Keys returns the loading keys in start order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.entries))
	for _, e := range r.sortedLocked() {
		keys = append(keys, e.desc.Key)
	}
	return keys
}

// Active returns all loading descriptors in start order.
func (r *Registry) Active() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.sortedLocked() {
		active = append(active, e.desc)
	}
	return active
}

// Overlay returns the single overlay descriptor to display: the active
// overlay with the highest priority, the earliest started one on ties.
func (r *Registry) Overlay() (Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *entry
	for _, e := range r.entries {
		if !e.desc.Overlay() {
			continue
		}
		if best == nil ||
			e.desc.Priority > best.desc.Priority ||
			(e.desc.Priority == best.desc.Priority && e.seq < best.seq) {
			best = e
		}
	}

	if best == nil {
		return Descriptor{}, false
	}
	return best.desc, true
}

func (r *Registry) sortedLocked() []*entry {
	sorted := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		sorted = append(sorted, e)
	}
	slices.SortFunc(sorted, func(a, b *entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return sorted
}

func notify(fns []Listener, d Descriptor) {
	for _, fn := range fns {
		fn(d)
	}
}

// Handle is returned by [Registry.Start] and identifies one operation. The
// zero Handle is never valid.
type Handle struct {
	reg   *Registry
	key   string
	token uuid.UUID
}

func (h Handle) Key() string {
	return h.key
}

// Valid reports whether h still holds its key.
func (h Handle) Valid() bool {
	if h.reg == nil {
		return false
	}

	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	e, ok := h.reg.entries[h.key]
	return ok && e.token == h.token
}

func (h Handle) Stop() bool {
	if h.reg == nil {
		return false
	}
	return h.reg.Stop(h)
}

func (h Handle) Update(opts ...Option) bool {
	if h.reg == nil {
		return false
	}
	return h.reg.Update(h, opts...)
}
