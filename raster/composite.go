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
	"math"

	"seehuhn.de/go/pdfpaint/surface"
)

// composite combines the premultiplied source color s with the
// destination d.
func composite(op surface.CompositeOp, s, d rgba) rgba {
	sa, da := s[3], d[3]
	var res rgba
	switch op {
	case surface.SourceOver:
		for i := range res {
			res[i] = s[i] + d[i]*(1-sa)
		}
	case surface.SourceIn:
		for i := range res {
			res[i] = s[i] * da
		}
	case surface.SourceAtop:
		for i := range res {
			res[i] = s[i]*da + d[i]*(1-sa)
		}
	case surface.DestinationIn:
		for i := range res {
			res[i] = d[i] * sa
		}
	case surface.DestinationOut:
		for i := range res {
			res[i] = d[i] * (1 - sa)
		}
	case surface.DestinationAtop:
		for i := range res {
			res[i] = d[i]*sa + s[i]*(1-da)
		}
	case surface.Copy:
		res = s
	default:
		res = blend(op, s, d)
	}
	return res
}

// blend implements the separable and non-separable blend modes, composed
// with source-over.
func blend(op surface.CompositeOp, s, d rgba) rgba {
	sa, da := s[3], d[3]
	if sa == 0 {
		return d
	}
	if da == 0 {
		return s
	}
	var cs, cb [3]float64
	for i := range 3 {
		cs[i] = s[i] / sa
		cb[i] = d[i] / da
	}

	var mixed [3]float64
	switch op {
	case surface.Hue:
		mixed = setLum(setSat(cs, sat(cb)), lum(cb))
	case surface.Saturation:
		mixed = setLum(setSat(cb, sat(cs)), lum(cb))
	case surface.ColorBlend:
		mixed = setLum(cs, lum(cb))
	case surface.Luminosity:
		mixed = setLum(cb, lum(cs))
	default:
		for i := range 3 {
			mixed[i] = blendChannel(op, cb[i], cs[i])
		}
	}

	var res rgba
	for i := range 3 {
		res[i] = s[i]*(1-da) + d[i]*(1-sa) + sa*da*mixed[i]
	}
	res[3] = sa + da - sa*da
	return res
}

func blendChannel(op surface.CompositeOp, cb, cs float64) float64 {
	switch op {
	case surface.Multiply:
		return cb * cs
	case surface.Screen:
		return cb + cs - cb*cs
	case surface.Overlay:
		return blendChannel(surface.HardLight, cs, cb)
	case surface.Darken:
		return min(cb, cs)
	case surface.Lighten:
		return max(cb, cs)
	case surface.ColorDodge:
		if cb == 0 {
			return 0
		} else if cs >= 1 {
			return 1
		}
		return min(1, cb/(1-cs))
	case surface.ColorBurn:
		if cb >= 1 {
			return 1
		} else if cs <= 0 {
			return 0
		}
		return 1 - min(1, (1-cb)/cs)
	case surface.HardLight:
		if cs <= 0.5 {
			return cb * 2 * cs
		}
		return blendChannel(surface.Screen, cb, 2*cs-1)
	case surface.SoftLight:
		if cs <= 0.5 {
			return cb - (1-2*cs)*cb*(1-cb)
		}
		var d float64
		if cb <= 0.25 {
			d = ((16*cb-12)*cb + 4) * cb
		} else {
			d = math.Sqrt(cb)
		}
		return cb + (2*cs-1)*(d-cb)
	case surface.Difference:
		return math.Abs(cb - cs)
	case surface.Exclusion:
		return cb + cs - 2*cb*cs
	}
	return cs
}

func lum(c [3]float64) float64 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

func clipColor(c [3]float64) [3]float64 {
	l := lum(c)
	n := min(c[0], c[1], c[2])
	x := max(c[0], c[1], c[2])
	for i := range c {
		if n < 0 {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
		if x > 1 {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

func setLum(c [3]float64, l float64) [3]float64 {
	d := l - lum(c)
	for i := range c {
		c[i] += d
	}
	return clipColor(c)
}

func sat(c [3]float64) float64 {
	return max(c[0], c[1], c[2]) - min(c[0], c[1], c[2])
}

func setSat(c [3]float64, s float64) [3]float64 {
	// find the indices of the largest, middle and smallest component
	iMax, iMid, iMin := 0, 1, 2
	if c[iMax] < c[iMid] {
		iMax, iMid = iMid, iMax
	}
	if c[iMid] < c[iMin] {
		iMid, iMin = iMin, iMid
	}
	if c[iMax] < c[iMid] {
		iMax, iMid = iMid, iMax
	}
	var res [3]float64
	if c[iMax] > c[iMin] {
		res[iMid] = (c[iMid] - c[iMin]) * s / (c[iMax] - c[iMin])
		res[iMax] = s
	}
	return res
}
