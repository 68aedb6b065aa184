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

import (
	"slices"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/pdfpaint/surface"
)

// scratchPool holds the off-screen surfaces of an executor, keyed by
// name.  A surface requested again under the same name is reset and
// reused.
type scratchPool struct {
	factory  surface.Factory
	surfaces map[string]surface.Surface
}

func newScratchPool(factory surface.Factory) *scratchPool {
	return &scratchPool{
		factory:  factory,
		surfaces: make(map[string]surface.Surface),
	}
}

// get returns a transparent surface of the given size with the default
// state.
func (p *scratchPool) get(name string, width, height int) surface.Surface {
	width = max(width, 1)
	height = max(height, 1)
	if s, ok := p.surfaces[name]; ok {
		s.Reset(width, height)
		return s
	}
	s := p.factory.NewSurface(width, height)
	p.surfaces[name] = s
	return s
}

// clear releases all surfaces to the factory.
func (p *scratchPool) clear() {
	names := maps.Keys(p.surfaces)
	slices.Sort(names)
	for _, name := range names {
		p.factory.Release(p.surfaces[name])
	}
	clear(p.surfaces)
}
