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

// Package gstate implements the graphics state of the display list
// interpreter.
//
// Besides the PDF graphics state parameters, a [State] tracks the device
// space bounding box of the current path and of the clipping region.  The
// bounding boxes are used to limit the size of off-screen surfaces and to
// skip painting operations which cannot change any pixels.
package gstate

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/surface"
)

// State collects the graphics state parameters used by the interpreter.
type State struct {
	// Path holds the device space bounding box of the current path.
	Path affine.MinMax

	// ClipBox is a device space rectangle which contains the clipping
	// region.
	ClipBox rect.Rect

	// EmptyClip is set once the clipping region is known to be empty.
	// Painting operations are skipped until the state is restored.
	EmptyClip bool

	FillAlpha   float64
	StrokeAlpha float64
	BlendMode   surface.CompositeOp

	LineWidth  float64
	LineCap    surface.LineCap
	LineJoin   surface.LineJoin
	MiterLimit float64
	Dash       []float64
	DashPhase  float64

	FillColor   surface.Color
	StrokeColor surface.Color

	// FillPattern and StrokePattern describe the pattern paints while
	// PatternFill or PatternStroke is set.  The values are opaque to this
	// package.
	FillPattern   any
	StrokePattern any
	PatternFill   bool
	PatternStroke bool

	// PatternFillColor and PatternStrokeColor are the colors used by
	// uncolored tiling patterns.
	PatternFillColor   surface.Color
	PatternStrokeColor surface.Color

	Font          *oplist.Font
	FontID        string
	FontSize      float64
	FontMatrix    matrix.Matrix
	FontDirection float64

	CharSpacing       float64
	WordSpacing       float64
	TextHScale        float64
	TextRenderingMode int
	TextRise          float64
	Leading           float64

	TextMatrix      matrix.Matrix
	TextMatrixScale float64

	// X, Y is the current point in text space, and LineX, LineY is the
	// start of the current line.
	X, Y         float64
	LineX, LineY float64

	// TransferMaps, if non-nil, is applied to images.
	TransferMaps *surface.TransferFilter

	// ActiveSMask is the soft mask in effect, as recorded by the
	// interpreter.  The value is opaque to this package.
	ActiveSMask any
}

// NewState returns the initial graphics state for a device surface of the
// given size.
func NewState(width, height int) *State {
	return &State{
		Path:          affine.EmptyMinMax(),
		ClipBox:       rect.Rect{URx: float64(width), URy: float64(height)},
		FillAlpha:     1,
		StrokeAlpha:   1,
		BlendMode:     surface.SourceOver,
		LineWidth:     1,
		LineCap:       surface.CapButt,
		LineJoin:      surface.JoinMiter,
		MiterLimit:    10,
		FontMatrix:    oplist.DefaultFontMatrix,
		FontDirection: 1,
		TextHScale:    1,
		TextMatrix:    matrix.Identity,

		TextMatrixScale: 1,
	}
}

// Clone returns a copy of s.  The copy does not share the dash array or
// the transfer maps with s.
func (s *State) Clone() *State {
	res := *s
	if s.Dash != nil {
		res.Dash = append([]float64(nil), s.Dash...)
	}
	if s.TransferMaps != nil {
		tr := *s.TransferMaps
		res.TransferMaps = &tr
	}
	return &res
}

// SetCurrentPoint sets the current text position.
func (s *State) SetCurrentPoint(x, y float64) {
	s.X = x
	s.Y = y
}

// UpdatePathMinMax adds the point (x, y), given in user space, to the
// bounding box of the current path.
func (s *State) UpdatePathMinMax(ctm matrix.Matrix, x, y float64) {
	s.Path.Add(affine.Apply(ctm, vec.Vec2{X: x, Y: y}))
}

// UpdateRectMinMax adds the corners of a user space rectangle to the
// bounding box of the current path.
func (s *State) UpdateRectMinMax(ctm matrix.Matrix, r rect.Rect) {
	s.Path.AddRect(ctm, r)
}

// UpdateScalingPathMinMax adds a bounding box accumulated in user space to
// the bounding box of the current path.  The matrix ctm must satisfy
// [affine.IsScaling].
func (s *State) UpdateScalingPathMinMax(ctm matrix.Matrix, local affine.MinMax) {
	affine.ScaleMinMax(ctm, &local)
	s.Path.Union(local)
}

// UpdateCurvePathMinMax adds a cubic Bézier curve, given in user space, to
// the bounding box of the current path.  If local is non-nil, the curve
// is added to local instead, without transformation.
func (s *State) UpdateCurvePathMinMax(ctm matrix.Matrix, p0, p1, p2, p3 vec.Vec2, local *affine.MinMax) {
	if local != nil {
		affine.BezierMinMax(p0, p1, p2, p3, local)
		return
	}
	affine.BezierMinMax(
		affine.Apply(ctm, p0), affine.Apply(ctm, p1),
		affine.Apply(ctm, p2), affine.Apply(ctm, p3),
		&s.Path)
}

// PathType selects how the bounding box of a path is computed.
type PathType uint8

// These are the supported path types.
const (
	PathFill PathType = iota
	PathStroke
)

// PathBoundingBox returns the device space bounding box of the current
// path.  For stroked paths, the box is enlarged by half the line width,
// scaled by ctm.
func (s *State) PathBoundingBox(tp PathType, ctm matrix.Matrix) rect.Rect {
	box := s.Path.Rect()
	if tp == PathStroke {
		sx, sy := affine.SingularValueScale(ctm)
		padX := sx * s.LineWidth / 2
		padY := sy * s.LineWidth / 2
		box.LLx -= padX
		box.LLy -= padY
		box.URx += padX
		box.URy += padY
	}
	return box
}

// ClippedPathBoundingBox returns the intersection of the path bounding box
// with the clip box.  If the intersection is empty, ok is false.
func (s *State) ClippedPathBoundingBox(tp PathType, ctm matrix.Matrix) (box rect.Rect, ok bool) {
	if s.EmptyClip || s.Path.IsEmpty() {
		return rect.Rect{}, false
	}
	return affine.Intersect(s.ClipBox, s.PathBoundingBox(tp, ctm))
}

// UpdateClipFromPath intersects the clip box with the bounding box of the
// current path and starts a new path.
func (s *State) UpdateClipFromPath() {
	box, ok := affine.Intersect(s.ClipBox, s.Path.Rect())
	if !ok || s.Path.IsEmpty() {
		s.EmptyClip = true
		box = rect.Rect{}
	}
	s.StartNewPathAndClipBox(box)
}

// StartNewPathAndClipBox sets the clip box and starts a new path.
func (s *State) StartNewPathAndClipBox(box rect.Rect) {
	s.ClipBox = box
	s.Path.Reset()
}

// IsPathEmpty reports whether the current path has no points.
func (s *State) IsPathEmpty() bool {
	return s.Path.IsEmpty()
}

// ScaleForStroking returns the factors by which the user space must be
// scaled before stroking, such that a line of width lineWidth is at least
// one device pixel wide.  A line width of 0 denotes the thinnest line
// which can be rendered.
func ScaleForStroking(ctm matrix.Matrix, lineWidth float64) [2]float64 {
	a, b, c, d := ctm[0], ctm[1], ctm[2], ctm[3]
	var sx, sy float64
	if b == 0 && c == 0 {
		normX := math.Abs(a)
		normY := math.Abs(d)
		switch {
		case normX == normY && lineWidth == 0:
			sx = 1 / normX
			sy = sx
		case normX == normY:
			sx = thinScale(normX * lineWidth)
			sy = sx
		case lineWidth == 0:
			sx = 1 / normX
			sy = 1 / normY
		default:
			sx = thinScale(normX * lineWidth)
			sy = thinScale(normY * lineWidth)
		}
		return [2]float64{sx, sy}
	}

	// A device pixel, mapped back to user space, is a parallelogram.  The
	// scale factors make both of its heights at least one line width.
	absDet := math.Abs(a*d - b*c)
	normX := math.Hypot(a, b)
	normY := math.Hypot(c, d)
	if lineWidth == 0 {
		return [2]float64{normY / absDet, normX / absDet}
	}
	baseArea := lineWidth * absDet
	sx, sy = 1, 1
	if normY > baseArea {
		sx = normY / baseArea
	}
	if normX > baseArea {
		sy = normX / baseArea
	}
	return [2]float64{sx, sy}
}

func thinScale(w float64) float64 {
	if w < 1 {
		return 1 / w
	}
	return 1
}
