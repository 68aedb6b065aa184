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
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/surface"
)

// DrawImage implements the [surface.Surface] interface.
//
// The image is first resampled into device space and then composited
// with the current alpha, clipping region and compositing operator.
// Only pixels inside the bounding box of the transformed image are
// affected.
func (s *Surface) DrawImage(img image.Image, src image.Rectangle, dst rect.Rect) {
	src = src.Intersect(img.Bounds())
	if src.Empty() {
		return
	}
	sx := (dst.URx - dst.LLx) / float64(src.Dx())
	sy := (dst.URy - dst.LLy) / float64(src.Dy())
	place := matrix.Matrix{sx, 0, 0, sy,
		dst.LLx - float64(src.Min.X)*sx,
		dst.LLy - float64(src.Min.Y)*sy}
	m := affine.Transform(s.state.ctm, place)

	box := affine.TransformRect(m, rect.Rect{
		LLx: float64(src.Min.X), LLy: float64(src.Min.Y),
		URx: float64(src.Max.X), URy: float64(src.Max.Y),
	})
	w, h := s.Size()
	dev, ok := deviceRect(box, w, h)
	if !ok {
		return
	}

	tmp := image.NewRGBA(image.Rect(0, 0, dev.Dx(), dev.Dy()))
	s2d := f64.Aff3{
		m[0], m[2], m[4] - float64(dev.Min.X),
		m[1], m[3], m[5] - float64(dev.Min.Y),
	}
	var interp draw.Interpolator = draw.NearestNeighbor
	if s.state.style.Smoothing {
		interp = draw.BiLinear
	}
	if isIntTranslation(s2d) {
		// Transform has its own shortcut for this case, which uses
		// src.Min.X as the vertical source origin.
		dp := image.Pt(src.Min.X+int(s2d[2]), src.Min.Y+int(s2d[5]))
		draw.Copy(tmp, dp, img, src, draw.Src, nil)
	} else {
		interp.Transform(tmp, s2d, img, src, draw.Src, nil)
	}

	smp := &pixelSampler{img: tmp, off: dev.Min}
	for y := dev.Min.Y; y < dev.Max.Y; y++ {
		for x := dev.Min.X; x < dev.Max.X; x++ {
			s.blendPixel(x, y, 1, smp)
		}
	}
}

// isIntTranslation reports whether m moves every pixel by a whole number
// of pixels, without scaling.
func isIntTranslation(m f64.Aff3) bool {
	return m[0] == 1 && m[1] == 0 && m[3] == 0 && m[4] == 1 &&
		m[2] == math.Trunc(m[2]) && m[5] == math.Trunc(m[5])
}

// deviceRect rounds r outwards to integer pixels and clips the result to
// a w×h surface.
func deviceRect(r rect.Rect, w, h int) (image.Rectangle, bool) {
	if !(r.LLx < float64(w) && r.URx > 0 && r.LLy < float64(h) && r.URy > 0) {
		return image.Rectangle{}, false
	}
	res := image.Rect(
		int(math.Floor(max(r.LLx, 0))),
		int(math.Floor(max(r.LLy, 0))),
		int(math.Ceil(min(r.URx, float64(w)))),
		int(math.Ceil(min(r.URy, float64(h)))),
	)
	return res, !res.Empty()
}

// pixelSampler reads a device-aligned premultiplied image.
type pixelSampler struct {
	img *image.RGBA
	off image.Point
}

func (p *pixelSampler) at(x, y float64) rgba {
	c := p.img.RGBAAt(int(x)-p.off.X, int(y)-p.off.Y)
	return rgba{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255}
}

// ReadPixels implements the [surface.Surface] interface.
func (s *Surface) ReadPixels(r image.Rectangle) *image.RGBA {
	res := image.NewRGBA(r)
	draw.Draw(res, r, s.img, r.Min, draw.Src)
	return res
}

// WritePixels implements the [surface.Surface] interface.
func (s *Surface) WritePixels(img *image.RGBA, p image.Point) {
	b := img.Bounds()
	dst := b.Sub(b.Min).Add(p)
	draw.Draw(s.img, dst, img, b.Min, draw.Src)
}

// ApplyFilter implements the [surface.Surface] interface.
func (s *Surface) ApplyFilter(f surface.Filter, r image.Rectangle) {
	surface.FilterRGBA(s.img, r, f)
}
