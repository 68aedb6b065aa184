// seehuhn.de/go/pdfpaint - render PDF display lists onto raster surfaces
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package registry implements the store for objects which are shared
// between display lists, for example fonts and images.
//
// Objects are produced asynchronously.  Consumers which need an object
// which is not yet available register a callback and are notified once
// the object has been resolved.
package registry

import (
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

// Registry maps object ids to objects.
//
// A Registry is safe for concurrent use.  Each object is resolved at most
// once; after that it is read-only.
type Registry struct {
	mu   sync.Mutex
	objs map[string]*entry
}

type entry struct {
	resolved bool
	data     any
	waiting  []func()
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{objs: make(map[string]*entry)}
}

func (r *Registry) ensure(id string) *entry {
	e := r.objs[id]
	if e == nil {
		e = &entry{}
		r.objs[id] = e
	}
	return e
}

// Has reports whether the object with the given id has been resolved.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.objs[id]
	return e != nil && e.resolved
}

// Get returns the object with the given id.
//
// If the object has not been resolved yet, ok is false, and onReady (if
// non-nil) is called once the object is resolved.
func (r *Registry) Get(id string, onReady func()) (data any, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.ensure(id)
	if e.resolved {
		return e.data, true
	}
	if onReady != nil {
		e.waiting = append(e.waiting, onReady)
	}
	return nil, false
}

// Resolve stores the object with the given id and runs all callbacks
// waiting for it.  The callbacks are run in the goroutine of the caller,
// in the order they were registered.
//
// Resolving an object a second time replaces the stored data but runs no
// callbacks.
func (r *Registry) Resolve(id string, data any) {
	r.mu.Lock()
	e := r.ensure(id)
	e.resolved = true
	e.data = data
	waiting := e.waiting
	e.waiting = nil
	r.mu.Unlock()

	for _, fn := range waiting {
		fn()
	}
}

// Clear removes all objects.  Pending callbacks are discarded.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.objs)
}

// IDs returns the ids of all resolved objects, in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := maps.Keys(r.objs)
	slices.Sort(keys)
	var ids []string
	for _, id := range keys {
		if r.objs[id].resolved {
			ids = append(ids, id)
		}
	}
	return ids
}
