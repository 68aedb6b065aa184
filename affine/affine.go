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

// Package affine implements the 2-D geometry used while interpreting
// display lists: composing and inverting affine maps, transforming points
// and rectangles, bounding boxes of cubic Bézier segments and the per-axis
// scale factors of a transformation.
//
// Matrices use the PDF "cm" layout [a b c d e f], which maps (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
package affine

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Identity is the identity transformation.
var Identity = matrix.Matrix{1, 0, 0, 1, 0, 0}

// Transform returns the composition of m1 and m2.
// The result is equivalent to first applying m2 and then m1.
func Transform(m1, m2 matrix.Matrix) matrix.Matrix {
	return matrix.Matrix{
		m1[0]*m2[0] + m1[2]*m2[1],
		m1[1]*m2[0] + m1[3]*m2[1],
		m1[0]*m2[2] + m1[2]*m2[3],
		m1[1]*m2[2] + m1[3]*m2[3],
		m1[0]*m2[4] + m1[2]*m2[5] + m1[4],
		m1[1]*m2[4] + m1[3]*m2[5] + m1[5],
	}
}

// Translate returns a translation by (dx, dy).
func Translate(dx, dy float64) matrix.Matrix {
	return matrix.Matrix{1, 0, 0, 1, dx, dy}
}

// Scale returns a scaling by sx and sy.
func Scale(sx, sy float64) matrix.Matrix {
	return matrix.Matrix{sx, 0, 0, sy, 0, 0}
}

// Apply maps the point p through m.
func Apply(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: p.X*m[0] + p.Y*m[2] + m[4],
		Y: p.X*m[1] + p.Y*m[3] + m[5],
	}
}

// ApplyInverse maps the point p through the inverse of m, without
// computing the inverse matrix first.
func ApplyInverse(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	d := m[0]*m[3] - m[1]*m[2]
	return vec.Vec2{
		X: (p.X*m[3] - p.Y*m[2] + m[2]*m[5] - m[4]*m[3]) / d,
		Y: (-p.X*m[1] + p.Y*m[0] + m[4]*m[1] - m[5]*m[0]) / d,
	}
}

// Invert returns the inverse of m.
//
// If m is singular, the entries of the result are NaN or ±Inf.
// This is not treated as an error: the values propagate through all
// subsequent geometry.
func Invert(m matrix.Matrix) matrix.Matrix {
	d := m[0]*m[3] - m[1]*m[2]
	return matrix.Matrix{
		m[3] / d,
		-m[1] / d,
		-m[2] / d,
		m[0] / d,
		(m[2]*m[5] - m[4]*m[3]) / d,
		(m[4]*m[1] - m[5]*m[0]) / d,
	}
}

// TransformRect returns the axis-aligned bounding box of the image of r
// under m.
func TransformRect(m matrix.Matrix, r rect.Rect) rect.Rect {
	p1 := Apply(m, vec.Vec2{X: r.LLx, Y: r.LLy})
	p2 := Apply(m, vec.Vec2{X: r.URx, Y: r.URy})
	p3 := Apply(m, vec.Vec2{X: r.LLx, Y: r.URy})
	p4 := Apply(m, vec.Vec2{X: r.URx, Y: r.LLy})
	return rect.Rect{
		LLx: min(p1.X, p2.X, p3.X, p4.X),
		LLy: min(p1.Y, p2.Y, p3.Y, p4.Y),
		URx: max(p1.X, p2.X, p3.X, p4.X),
		URy: max(p1.Y, p2.Y, p3.Y, p4.Y),
	}
}

// SingularValueScale returns the scale factors of m along the two
// principal axes, i.e. the singular values of the linear part of m.
//
// A degenerate axis is reported with scale 1, so that the result can be
// used directly to size device-space rasterizations.
func SingularValueScale(m matrix.Matrix) (sx, sy float64) {
	// entries of m·mᵀ
	a := m[0]*m[0] + m[1]*m[1]
	b := m[0]*m[2] + m[1]*m[3]
	c := m[2]*m[0] + m[3]*m[1]
	d := m[2]*m[2] + m[3]*m[3]

	first := (a + d) / 2
	second := math.Sqrt(max((a+d)*(a+d)-4*(a*d-c*b), 0)) / 2
	s1 := first + second
	s2 := first - second
	if s1 <= 0 || math.IsNaN(s1) {
		s1 = 1
	}
	if s2 <= 0 || math.IsNaN(s2) {
		s2 = 1
	}
	return math.Sqrt(s1), math.Sqrt(s2)
}

// IsScaling reports whether m maps axis-aligned rectangles to axis-aligned
// rectangles, i.e. whether m is a scaling plus translation, possibly
// combined with a rotation by a multiple of 90 degrees.
func IsScaling(m matrix.Matrix) bool {
	return (m[0] == 0 && m[3] == 0) || (m[1] == 0 && m[2] == 0)
}

// Intersect returns the intersection of two rectangles.
// The rectangles need not be normalized.  If the intersection is empty,
// ok is false.  Rectangles which only touch along an edge have a
// degenerate, non-empty intersection.
func Intersect(r1, r2 rect.Rect) (res rect.Rect, ok bool) {
	xLow := max(min(r1.LLx, r1.URx), min(r2.LLx, r2.URx))
	xHigh := min(max(r1.LLx, r1.URx), max(r2.LLx, r2.URx))
	if xLow > xHigh {
		return rect.Rect{}, false
	}
	yLow := max(min(r1.LLy, r1.URy), min(r2.LLy, r2.URy))
	yHigh := min(max(r1.LLy, r1.URy), max(r2.LLy, r2.URy))
	if yLow > yHigh {
		return rect.Rect{}, false
	}
	return rect.Rect{LLx: xLow, LLy: yLow, URx: xHigh, URy: yHigh}, true
}
