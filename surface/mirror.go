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

package surface

import "seehuhn.de/go/geom/matrix"

// Mirror is a Surface which sends all operations to the embedded Surface,
// and in addition replays every operation affecting the transformation,
// the current path or the clipping region on Target.
//
// This keeps the geometry of Target in step while paint operations only
// reach the embedded surface.  It is used while a soft mask is active,
// where content is first collected on a scratch surface.
type Mirror struct {
	Surface
	Target Surface
}

// Save implements the [Surface] interface.
func (m *Mirror) Save() {
	m.Surface.Save()
	m.Target.Save()
}

// Restore implements the [Surface] interface.
func (m *Mirror) Restore() {
	m.Surface.Restore()
	m.Target.Restore()
}

// Transform implements the [Surface] interface.
func (m *Mirror) Transform(M matrix.Matrix) {
	m.Surface.Transform(M)
	m.Target.Transform(M)
}

// SetTransform implements the [Surface] interface.
func (m *Mirror) SetTransform(M matrix.Matrix) {
	m.Surface.SetTransform(M)
	m.Target.SetTransform(M)
}

// BeginPath implements the [Surface] interface.
func (m *Mirror) BeginPath() {
	m.Surface.BeginPath()
	m.Target.BeginPath()
}

// MoveTo implements the [Surface] interface.
func (m *Mirror) MoveTo(x, y float64) {
	m.Surface.MoveTo(x, y)
	m.Target.MoveTo(x, y)
}

// LineTo implements the [Surface] interface.
func (m *Mirror) LineTo(x, y float64) {
	m.Surface.LineTo(x, y)
	m.Target.LineTo(x, y)
}

// CurveTo implements the [Surface] interface.
func (m *Mirror) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	m.Surface.CurveTo(x1, y1, x2, y2, x3, y3)
	m.Target.CurveTo(x1, y1, x2, y2, x3, y3)
}

// Rect implements the [Surface] interface.
func (m *Mirror) Rect(x, y, w, h float64) {
	m.Surface.Rect(x, y, w, h)
	m.Target.Rect(x, y, w, h)
}

// ClosePath implements the [Surface] interface.
func (m *Mirror) ClosePath() {
	m.Surface.ClosePath()
	m.Target.ClosePath()
}

// Clip implements the [Surface] interface.
func (m *Mirror) Clip(rule FillRule) {
	m.Surface.Clip(rule)
	m.Target.Clip(rule)
}
