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

package render

import "sync"

// Scheduler runs the continuation of a suspended task.
//
// Schedule may be called from any goroutine, in particular from the
// goroutine which resolves an object in a registry.
type Scheduler interface {
	Schedule(f func())
}

// Queue is a Scheduler which collects continuations until the host calls
// RunPending.  This allows a host to run all drawing on a single goroutine.
type Queue struct {
	mu      sync.Mutex
	pending []func()
}

// Schedule implements the [Scheduler] interface.
func (q *Queue) Schedule(f func()) {
	q.mu.Lock()
	q.pending = append(q.pending, f)
	q.mu.Unlock()
}

// RunPending runs the queued functions in order, including functions
// queued while RunPending is running, until the queue is empty.  It
// returns the number of functions run.
func (q *Queue) RunPending() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return n
		}
		f := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		f()
		n++
	}
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Immediate is a Scheduler which runs continuations right away, on the
// goroutine which calls Schedule.  Calls made while a continuation is
// running are queued and run afterwards, so that the stack does not grow.
type Immediate struct {
	mu      sync.Mutex
	running bool
	pending []func()
}

// Schedule implements the [Scheduler] interface.
func (s *Immediate) Schedule(f func()) {
	s.mu.Lock()
	s.pending = append(s.pending, f)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()
		next()
		s.mu.Lock()
	}
	s.running = false
	s.mu.Unlock()
}
