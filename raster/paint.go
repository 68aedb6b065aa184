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
	"image"
	"image/color"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/surface"
)

// rgba is a premultiplied color with components in [0, 1].
type rgba [4]float64

// sampler returns the paint color at a device space pixel center.
type sampler interface {
	at(x, y float64) rgba
}

type solid rgba

func (s solid) at(x, y float64) rgba {
	return rgba(s)
}

// newSampler prepares p for use with the transformation ctm.
func newSampler(p surface.Paint, ctm matrix.Matrix, smooth bool) sampler {
	inv := affine.Invert(ctm)
	switch p := p.(type) {
	case surface.Color:
		return solid{float64(p.R) / 255, float64(p.G) / 255, float64(p.B) / 255, 1}
	case *surface.LinearGradient:
		return &linearSampler{g: p, inv: inv}
	case *surface.RadialGradient:
		return &radialSampler{g: p, inv: inv}
	case *surface.ImagePattern:
		if p.Image == nil {
			return solid{}
		}
		return &imageSampler{
			img:    p.Image,
			b:      p.Image.Bounds(),
			inv:    affine.Invert(affine.Transform(ctm, p.Matrix)),
			repeat: p.Repeat,
			smooth: smooth,
		}
	}
	return solid{0, 0, 0, 1}
}

type linearSampler struct {
	g   *surface.LinearGradient
	inv matrix.Matrix
}

func (s *linearSampler) at(x, y float64) rgba {
	p := affine.Apply(s.inv, vec.Vec2{X: x, Y: y})
	dx := s.g.X1 - s.g.X0
	dy := s.g.Y1 - s.g.Y0
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return rgba{}
	}
	t := ((p.X-s.g.X0)*dx + (p.Y-s.g.Y0)*dy) / l2
	return stopColor(s.g.Stops, t)
}

type radialSampler struct {
	g   *surface.RadialGradient
	inv matrix.Matrix
}

// at finds the largest t for which the point lies on the circle
// interpolated between the start and the end circle, with a
// non-negative radius.
func (s *radialSampler) at(x, y float64) rgba {
	p := affine.Apply(s.inv, vec.Vec2{X: x, Y: y})
	g := s.g
	cdx, cdy := g.X1-g.X0, g.Y1-g.Y0
	dr := g.R1 - g.R0
	pdx, pdy := p.X-g.X0, p.Y-g.Y0

	a := cdx*cdx + cdy*cdy - dr*dr
	b := pdx*cdx + pdy*cdy + g.R0*dr
	c := pdx*pdx + pdy*pdy - g.R0*g.R0

	valid := func(t float64) bool {
		return g.R0+t*dr >= 0
	}
	var t float64
	if math.Abs(a) < 1e-12 {
		if b == 0 {
			return rgba{}
		}
		t = c / (2 * b)
		if !valid(t) {
			return rgba{}
		}
	} else {
		disc := b*b - a*c
		if disc < 0 {
			return rgba{}
		}
		sq := math.Sqrt(disc)
		t1 := (b + sq) / a
		t2 := (b - sq) / a
		if t1 < t2 {
			t1, t2 = t2, t1
		}
		switch {
		case valid(t1):
			t = t1
		case valid(t2):
			t = t2
		default:
			return rgba{}
		}
	}
	return stopColor(g.Stops, t)
}

func stopColor(stops []surface.Stop, t float64) rgba {
	if math.IsNaN(t) {
		return rgba{}
	}
	r, g, b := surface.StopColor(stops, min(max(t, 0), 1))
	return rgba{r / 255, g / 255, b / 255, 1}
}

type imageSampler struct {
	img    image.Image
	b      image.Rectangle
	inv    matrix.Matrix
	repeat bool
	smooth bool
}

func (s *imageSampler) at(x, y float64) rgba {
	p := affine.Apply(s.inv, vec.Vec2{X: x, Y: y})
	if !(math.Abs(p.X) < 1e9 && math.Abs(p.Y) < 1e9) {
		return rgba{}
	}
	if !s.smooth {
		return s.pixel(int(math.Floor(p.X)), int(math.Floor(p.Y)))
	}

	// bilinear interpolation between the four closest pixel centers
	fx := p.X - 0.5
	fy := p.Y - 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	wx := fx - x0
	wy := fy - y0
	ix, iy := int(x0), int(y0)
	c00 := s.pixel(ix, iy)
	c10 := s.pixel(ix+1, iy)
	c01 := s.pixel(ix, iy+1)
	c11 := s.pixel(ix+1, iy+1)
	var res rgba
	for i := range res {
		top := c00[i]*(1-wx) + c10[i]*wx
		bot := c01[i]*(1-wx) + c11[i]*wx
		res[i] = top*(1-wy) + bot*wy
	}
	return res
}

func (s *imageSampler) pixel(x, y int) rgba {
	w, h := s.b.Dx(), s.b.Dy()
	if w == 0 || h == 0 {
		return rgba{}
	}
	if s.repeat {
		x = mod(x, w)
		y = mod(y, h)
	} else if x < 0 || y < 0 || x >= w || y >= h {
		return rgba{}
	}
	return fromColor(s.img.At(s.b.Min.X+x, s.b.Min.Y+y))
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

func fromColor(c color.Color) rgba {
	if c, ok := c.(color.RGBA); ok {
		return rgba{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255}
	}
	r, g, b, a := c.RGBA()
	return rgba{float64(r) / 0xffff, float64(g) / 0xffff, float64(b) / 0xffff, float64(a) / 0xffff}
}
