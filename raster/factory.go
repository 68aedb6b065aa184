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

package raster

import (
	"sync"

	"seehuhn.de/go/pdfpaint/surface"
)

// Factory allocates raster surfaces and keeps track of the number of
// surfaces which have not been released.
type Factory struct {
	mu   sync.Mutex
	live map[*Surface]struct{}
}

var _ surface.Factory = (*Factory)(nil)

// NewFactory returns a new factory.
func NewFactory() *Factory {
	return &Factory{live: make(map[*Surface]struct{})}
}

// NewSurface implements the [surface.Factory] interface.
func (f *Factory) NewSurface(width, height int) surface.Surface {
	s := New(width, height)
	f.mu.Lock()
	f.live[s] = struct{}{}
	f.mu.Unlock()
	return s
}

// Release implements the [surface.Factory] interface.
// Releasing a surface twice, or a surface from a different factory, has
// no effect.
func (f *Factory) Release(s surface.Surface) {
	rs, ok := s.(*Surface)
	if !ok {
		return
	}
	f.mu.Lock()
	delete(f.live, rs)
	f.mu.Unlock()
}

// Live returns the number of surfaces which were allocated and not yet
// released.
func (f *Factory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}
