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

import (
	"fmt"
	"image"

	"seehuhn.de/go/geom/matrix"
)

// Paint is a source of color for fill and stroke operations.
// Implementations are [Color], [ImagePattern], [LinearGradient] and
// [RadialGradient].
type Paint interface {
	isPaint()
}

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// Black is the initial fill and stroke color.
var Black = Color{}

func (Color) isPaint() {}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ImagePattern paints with the pixels of an image.
type ImagePattern struct {
	Image image.Image

	// Matrix maps image pixel coordinates to the user space in effect at
	// the time the pattern is used.
	Matrix matrix.Matrix

	// Repeat selects whether the image is tiled over the whole plane.
	// If false, the area outside the image is transparent.
	Repeat bool
}

func (*ImagePattern) isPaint() {}

// Stop is a color stop of a gradient.
type Stop struct {
	Offset float64 // in the range [0, 1]
	Color  Color
}

// LinearGradient varies the color along the line from (X0, Y0) to (X1, Y1).
// The coordinates are interpreted in the user space in effect at the time
// the gradient is used.  Colors are extended beyond both end points.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

func (*LinearGradient) isPaint() {}

// RadialGradient varies the color between two circles.
// The coordinates are interpreted in the user space in effect at the time
// the gradient is used.  Colors are extended beyond both circles.
type RadialGradient struct {
	X0, Y0, R0 float64
	X1, Y1, R1 float64
	Stops      []Stop
}

func (*RadialGradient) isPaint() {}

// StopColor returns the color of a gradient at position t, given as
// non-premultiplied components.
func StopColor(stops []Stop, t float64) (r, g, b float64) {
	if len(stops) == 0 {
		return 0, 0, 0
	}
	if t <= stops[0].Offset {
		c := stops[0].Color
		return float64(c.R), float64(c.G), float64(c.B)
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Offset {
			a, b2 := stops[i-1], stops[i]
			span := b2.Offset - a.Offset
			if span <= 0 {
				c := b2.Color
				return float64(c.R), float64(c.G), float64(c.B)
			}
			s := (t - a.Offset) / span
			return lerp(float64(a.Color.R), float64(b2.Color.R), s),
				lerp(float64(a.Color.G), float64(b2.Color.G), s),
				lerp(float64(a.Color.B), float64(b2.Color.B), s)
		}
	}
	c := stops[len(stops)-1].Color
	return float64(c.R), float64(c.G), float64(c.B)
}

func lerp(a, b, s float64) float64 {
	return a + (b-a)*s
}
