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

// Package surface defines the drawing target used by the display list
// interpreter.
//
// A [Surface] follows the model of an HTML canvas 2D context: path
// coordinates are mapped through the current transformation when they are
// added to the path, painting operations use the paint and line parameters
// in effect at the time of the call, and the whole state can be saved and
// restored.  The interpreter never depends on a particular implementation;
// package seehuhn.de/go/pdfpaint/raster provides one which draws into an
// *image.RGBA.
package surface

import (
	"image"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// Surface is a 2-D drawing target.
type Surface interface {
	// Size returns the dimensions of the surface in device pixels.
	Size() (width, height int)

	// Reset resizes the surface, clears all pixels to transparent and
	// restores the initial drawing state.
	Reset(width, height int)

	Save()
	Restore()

	// Transform modifies the current transformation matrix, such that
	// subsequent drawing first applies m and then the previous CTM.
	Transform(m matrix.Matrix)
	SetTransform(m matrix.Matrix)
	CurrentTransform() matrix.Matrix

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	CurveTo(x1, y1, x2, y2, x3, y3 float64)
	Rect(x, y, w, h float64)
	ClosePath()

	// Fill fills the current path with the fill paint.
	Fill(rule FillRule)

	// Stroke strokes the current path with the stroke paint.  The line
	// width and dash pattern are interpreted in the user space in effect
	// at the time of the call.
	Stroke()

	// Clip intersects the clipping region with the current path.
	Clip(rule FillRule)

	// FillRect fills a rectangle without touching the current path.
	FillRect(x, y, w, h float64)

	// ClearRect sets all pixels in a rectangle to transparent black.
	ClearRect(x, y, w, h float64)

	// DrawImage draws the part src of img into the rectangle dst, given in
	// user space.  The top-left corner of src is mapped to (dst.LLx,
	// dst.LLy).
	DrawImage(img image.Image, src image.Rectangle, dst rect.Rect)

	// Style returns the current paint and line parameters.
	Style() Style

	// SetStyle replaces the current paint and line parameters.
	SetStyle(s Style)

	SetFillPaint(p Paint)
	SetStrokePaint(p Paint)
	SetLineWidth(w float64)
	SetLineCap(c LineCap)
	SetLineJoin(j LineJoin)
	SetMiterLimit(l float64)
	SetDash(dash []float64, phase float64)
	SetAlpha(a float64)
	SetCompositeOp(op CompositeOp)
	SetSmoothing(enabled bool)

	// ApplyFilter applies f to all pixels in the device space rectangle r.
	ApplyFilter(f Filter, r image.Rectangle)

	// ReadPixels returns a copy of the pixels in the device space
	// rectangle r.  The result has bounds r; pixels outside the surface
	// are transparent.
	ReadPixels(r image.Rectangle) *image.RGBA

	// WritePixels copies img into the surface with the top-left corner of
	// img.Bounds() at the device space position p.  The transformation, clipping region,
	// alpha and compositing operator are ignored.
	WritePixels(img *image.RGBA, p image.Point)

	// Image returns the current contents of the surface.  The returned
	// image may share memory with the surface and is only valid until the
	// next drawing operation.
	Image() image.Image
}

// Factory allocates surfaces for off-screen rendering.
type Factory interface {
	// NewSurface returns a new, transparent surface.
	NewSurface(width, height int) Surface

	// Release informs the factory that s is no longer used.
	Release(s Surface)
}

// FillRule determines which points are inside a path.
type FillRule uint8

// These are the supported fill rules.
const (
	NonZero FillRule = iota
	EvenOdd
)

func (r FillRule) String() string {
	if r == EvenOdd {
		return "evenodd"
	}
	return "nonzero"
}

// LineCap is the style of the end of an open subpath.
type LineCap uint8

// These are the supported line cap styles.
const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin is the style of the corners of a stroked path.
type LineJoin uint8

// These are the supported line join styles.
const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// Style collects the paint and line parameters of a surface.
type Style struct {
	FillPaint   Paint
	StrokePaint Paint

	LineWidth  float64
	LineCap    LineCap
	LineJoin   LineJoin
	MiterLimit float64
	Dash       []float64
	DashPhase  float64

	Alpha       float64
	CompositeOp CompositeOp
	Smoothing   bool
}

// DefaultStyle returns the initial style of a new surface.
func DefaultStyle() Style {
	return Style{
		FillPaint:   Black,
		StrokePaint: Black,
		LineWidth:   1,
		MiterLimit:  10,
		Alpha:       1,
		Smoothing:   true,
	}
}

// Clone returns a copy of s which does not share the dash array.
func (s Style) Clone() Style {
	if s.Dash != nil {
		s.Dash = append([]float64(nil), s.Dash...)
	}
	return s
}
