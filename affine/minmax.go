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

package affine

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// MinMax accumulates the bounding box of a set of points.
// The zero value is not empty; use [EmptyMinMax] or [MinMax.Reset] to start
// a new accumulation.
type MinMax struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyMinMax returns an accumulator which contains no points.
func EmptyMinMax() MinMax {
	return MinMax{
		MinX: math.Inf(+1),
		MinY: math.Inf(+1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// Reset empties the accumulator.
func (mm *MinMax) Reset() {
	*mm = EmptyMinMax()
}

// IsEmpty reports whether no point has been added since the last reset.
func (mm *MinMax) IsEmpty() bool {
	return math.IsInf(mm.MinX, +1)
}

// Add extends the box to include p.
func (mm *MinMax) Add(p vec.Vec2) {
	mm.MinX = min(mm.MinX, p.X)
	mm.MinY = min(mm.MinY, p.Y)
	mm.MaxX = max(mm.MaxX, p.X)
	mm.MaxY = max(mm.MaxY, p.Y)
}

// AddRect extends the box to include the image of r under m.
func (mm *MinMax) AddRect(m matrix.Matrix, r rect.Rect) {
	b := TransformRect(m, r)
	mm.MinX = min(mm.MinX, b.LLx)
	mm.MinY = min(mm.MinY, b.LLy)
	mm.MaxX = max(mm.MaxX, b.URx)
	mm.MaxY = max(mm.MaxY, b.URy)
}

// Union extends the box to include all of other.
func (mm *MinMax) Union(other MinMax) {
	mm.MinX = min(mm.MinX, other.MinX)
	mm.MinY = min(mm.MinY, other.MinY)
	mm.MaxX = max(mm.MaxX, other.MaxX)
	mm.MaxY = max(mm.MaxY, other.MaxY)
}

// Rect returns the accumulated box as a rectangle.
func (mm MinMax) Rect() rect.Rect {
	return rect.Rect{LLx: mm.MinX, LLy: mm.MinY, URx: mm.MaxX, URy: mm.MaxY}
}

// ScaleMinMax maps a box through m, where m must satisfy [IsScaling].
// Negative scale factors and 90 degree rotations swap the bounds as needed,
// so that the result is again a valid box.
func ScaleMinMax(m matrix.Matrix, mm *MinMax) {
	if m[0] != 0 {
		if m[0] < 0 {
			mm.MinX, mm.MaxX = mm.MaxX, mm.MinX
		}
		mm.MinX *= m[0]
		mm.MaxX *= m[0]
		if m[3] < 0 {
			mm.MinY, mm.MaxY = mm.MaxY, mm.MinY
		}
		mm.MinY *= m[3]
		mm.MaxY *= m[3]
	} else {
		// x' = c*y + e, y' = b*x + f
		mm.MinX, mm.MinY = mm.MinY, mm.MinX
		mm.MaxX, mm.MaxY = mm.MaxY, mm.MaxX
		if m[1] < 0 {
			mm.MinY, mm.MaxY = mm.MaxY, mm.MinY
		}
		mm.MinY *= m[1]
		mm.MaxY *= m[1]
		if m[2] < 0 {
			mm.MinX, mm.MaxX = mm.MaxX, mm.MinX
		}
		mm.MinX *= m[2]
		mm.MaxX *= m[2]
	}
	mm.MinX += m[4]
	mm.MaxX += m[4]
	mm.MinY += m[5]
	mm.MaxY += m[5]
}

// BezierBBox returns the tight bounding box of the cubic Bézier curve with
// control points p0, p1, p2, p3.
func BezierBBox(p0, p1, p2, p3 vec.Vec2) rect.Rect {
	mm := EmptyMinMax()
	BezierMinMax(p0, p1, p2, p3, &mm)
	return mm.Rect()
}

// BezierMinMax extends mm to include the cubic Bézier curve with control
// points p0, p1, p2, p3.
//
// The extrema are found by solving the derivative of each coordinate for
// t in (0, 1) and evaluating the curve at every root and at both endpoints.
func BezierMinMax(p0, p1, p2, p3 vec.Vec2, mm *MinMax) {
	mm.Add(p0)
	mm.Add(p3)

	var roots [4]float64
	n := derivativeRoots(p0.X, p1.X, p2.X, p3.X, roots[:0])
	n = derivativeRoots(p0.Y, p1.Y, p2.Y, p3.Y, n)
	for _, t := range n {
		mm.Add(bezierPoint(p0, p1, p2, p3, t))
	}
}

// derivativeRoots appends to buf the parameters t ∈ (0, 1) where the
// derivative of the one-dimensional cubic Bézier x0, x1, x2, x3 vanishes.
func derivativeRoots(x0, x1, x2, x3 float64, buf []float64) []float64 {
	const eps = 1e-12

	a := 3 * (-x0 + 3*(x1-x2) + x3)
	b := 6 * (x0 - 2*x1 + x2)
	c := 3 * (x1 - x0)

	if math.Abs(a) < eps {
		if math.Abs(b) >= eps {
			if t := -c / b; t > 0 && t < 1 {
				buf = append(buf, t)
			}
		}
		return buf
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return buf
	}
	sq := math.Sqrt(disc)
	for _, t := range [2]float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)} {
		if t > 0 && t < 1 {
			buf = append(buf, t)
		}
	}
	return buf
}

func bezierPoint(p0, p1, p2, p3 vec.Vec2, t float64) vec.Vec2 {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return vec.Vec2{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
