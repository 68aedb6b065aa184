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
	"image"
	"image/color"
)

// Filter is a per-pixel color transformation, used for soft masks and
// transfer functions.
type Filter interface {
	// Name identifies the filter, for hosts which implement filters
	// natively.
	Name() string

	// Map transforms a single, non-premultiplied pixel value.
	Map(c color.NRGBA) color.NRGBA
}

// TransferFilter applies a lookup table to each channel.
// A nil table leaves the channel unchanged.  Non-nil tables must have 256
// entries.
type TransferFilter struct {
	R, G, B, A []uint8
}

// Name implements the [Filter] interface.
func (f *TransferFilter) Name() string {
	return "transfer"
}

// Map implements the [Filter] interface.
func (f *TransferFilter) Map(c color.NRGBA) color.NRGBA {
	if f.R != nil {
		c.R = f.R[c.R]
	}
	if f.G != nil {
		c.G = f.G[c.G]
	}
	if f.B != nil {
		c.B = f.B[c.B]
	}
	if f.A != nil {
		c.A = f.A[c.A]
	}
	return c
}

// LuminosityFilter replaces each pixel by a black pixel whose alpha value
// is the luminosity of the original color, optionally passed through a
// transfer table with 256 entries.
type LuminosityFilter struct {
	Transfer []uint8
}

// Name implements the [Filter] interface.
func (f *LuminosityFilter) Name() string {
	return "luminosity"
}

// Map implements the [Filter] interface.
func (f *LuminosityFilter) Map(c color.NRGBA) color.NRGBA {
	// Pixels which are not fully opaque are composed over black first.
	a := uint32(c.A)
	lum := (30*uint32(c.R)*a + 59*uint32(c.G)*a + 11*uint32(c.B)*a + 50*255) / (100 * 255)
	if lum > 255 {
		lum = 255
	}
	l := uint8(lum)
	if f.Transfer != nil {
		l = f.Transfer[l]
	}
	return color.NRGBA{A: l}
}

// AlphaFilter passes the alpha channel through a transfer table with 256
// entries.  Color channels are left unchanged.
type AlphaFilter struct {
	Transfer []uint8
}

// Name implements the [Filter] interface.
func (f *AlphaFilter) Name() string {
	return "alpha"
}

// Map implements the [Filter] interface.
func (f *AlphaFilter) Map(c color.NRGBA) color.NRGBA {
	if f.Transfer != nil {
		c.A = f.Transfer[c.A]
	}
	return c
}

// FilterRGBA applies f to the pixels of img inside r.  The pixels of img
// are premultiplied, and are converted to non-premultiplied form for the
// call to f.Map.
func FilterRGBA(img *image.RGBA, r image.Rectangle, f Filter) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			k := img.PixOffset(x, y)
			pix := img.Pix[k : k+4 : k+4]
			premultiply(pix, f.Map(unpremultiply(pix)))
		}
	}
}

func unpremultiply(pix []uint8) color.NRGBA {
	a := pix[3]
	switch a {
	case 0:
		return color.NRGBA{}
	case 255:
		return color.NRGBA{R: pix[0], G: pix[1], B: pix[2], A: 255}
	}
	un := func(v uint8) uint8 {
		return uint8(min((uint32(v)*255+uint32(a)/2)/uint32(a), 255))
	}
	return color.NRGBA{R: un(pix[0]), G: un(pix[1]), B: un(pix[2]), A: a}
}

func premultiply(pix []uint8, c color.NRGBA) {
	a := uint32(c.A)
	pix[0] = uint8((uint32(c.R)*a + 127) / 255)
	pix[1] = uint8((uint32(c.G)*a + 127) / 255)
	pix[2] = uint8((uint32(c.B)*a + 127) / 255)
	pix[3] = c.A
}
