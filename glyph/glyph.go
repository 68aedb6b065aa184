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

// Package glyph converts bitmap glyphs into outlines.
//
// Type 3 fonts often draw their glyphs as image masks.  Painting a mask
// requires an off-screen surface for every glyph.  Small masks are
// therefore traced once into polygons, which can then be filled directly
// at any size.
package glyph

import (
	"image"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdfpaint/surface"
)

// MaxPoints is the maximal number of outline corners.  Masks with more
// corners are not compiled.
const MaxPoints = 1000

// MaxSize is the default limit for the width and height of masks which
// are compiled.
const MaxSize = 1000

// pointTypes maps the configuration of the four pixels around a grid
// point to the direction in which an outline leaves the point.  The
// neighbours are encoded as
//
//	2 | 8
//	--P--
//	1 | 4
//
// Directions are 1 (down), 2 (left), 4 (up) and 8 (right).  The values 5
// and 10 mark points where two outlines touch diagonally.
var pointTypes = [16]uint8{0, 2, 4, 0, 1, 0, 5, 4, 8, 10, 0, 8, 0, 2, 1, 0}

// Outline is a traced bitmap.  The contours use the pixel grid of the
// bitmap, with (0, 0) the top-left corner of the top-left pixel.
type Outline struct {
	Width, Height int
	Contours      [][]image.Point
}

// Compile traces the boundary of the painted pixels of a width×height
// bitmap.  The result is nil if the outline would have more than
// MaxPoints corners.
func Compile(width, height int, painted func(x, y int) bool) *Outline {
	if width <= 0 || height <= 0 {
		return nil
	}
	at := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < width && y < height && painted(x, y)
	}

	w1 := width + 1
	points := make([]uint8, w1*(height+1))
	count := 0
	for i := 0; i <= height; i++ {
		for j := 0; j <= width; j++ {
			sum := 0
			if at(j-1, i) {
				sum |= 1
			}
			if at(j-1, i-1) {
				sum |= 2
			}
			if at(j, i) {
				sum |= 4
			}
			if at(j, i-1) {
				sum |= 8
			}
			if tp := pointTypes[sum]; tp != 0 {
				points[i*w1+j] = tp
				count++
			}
		}
		if count > MaxPoints {
			return nil
		}
	}

	steps := [9]int{0, w1, -1, 0, -w1, 0, 0, 0, 1}
	res := &Outline{Width: width, Height: height}
	for i := 0; count > 0 && i <= height; i++ {
		p := i * w1
		end := p + width
		for p < end && points[p] == 0 {
			p++
		}
		if p == end {
			continue
		}

		contour := []image.Point{{X: p % w1, Y: i}}
		tp := int(points[p])
		p0 := p
		for {
			step := 0
			if tp < len(steps) {
				step = steps[tp]
			}
			if step == 0 {
				return nil
			}
			for {
				p += step
				if p < 0 || p >= len(points) {
					return nil
				}
				if points[p] != 0 {
					break
				}
			}

			pp := int(points[p])
			if pp != 5 && pp != 10 {
				tp = pp
				points[p] = 0
			} else {
				// At a crossing, turn according to the incoming direction
				// and leave the other direction for the second visit.
				tp = pp & ((0x33 * tp) >> 4)
				points[p] &= uint8(tp>>2 | tp<<2)
			}

			contour = append(contour, image.Point{X: p % w1, Y: p / w1})
			count--
			if p == p0 {
				break
			}
		}
		res.Contours = append(res.Contours, contour)
		i--
	}
	return res
}

// UnitMatrix maps the unit square onto the outline, such that the
// bitmap covers [0, 1]×[0, 1] with the first row at the top.
func (o *Outline) UnitMatrix() matrix.Matrix {
	return matrix.Matrix{1 / float64(o.Width), 0, 0, -1 / float64(o.Height), 0, 1}
}

// Draw fills the outline with the current fill paint of s.  The bitmap is
// mapped onto the unit square of the current user space.
func (o *Outline) Draw(s surface.Surface) {
	s.Save()
	s.Transform(o.UnitMatrix())
	s.BeginPath()
	for _, c := range o.Contours {
		s.MoveTo(float64(c[0].X), float64(c[0].Y))
		for _, p := range c[1:] {
			s.LineTo(float64(p.X), float64(p.Y))
		}
	}
	s.Fill(surface.NonZero)
	s.BeginPath()
	s.Restore()
}
