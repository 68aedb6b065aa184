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

// Package raster implements [surface.Surface] on top of an *image.RGBA.
//
// Paths are filled with exact area coverage, strokes are expanded into
// outlines with honnef.co/go/curve and images are resampled with
// golang.org/x/image/draw.  All drawing uses premultiplied alpha.
package raster

import (
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/surface"
)

// Surface draws onto an in-memory RGBA image.
type Surface struct {
	img *image.RGBA

	state state
	saved []state

	// path holds the current path in device coordinates.
	path       path.Data
	start      vec.Vec2
	hasCurrent bool

	cov *coverage
}

type state struct {
	ctm   matrix.Matrix
	style surface.Style

	// clip is nil if no clipping region is set.  Clip masks are never
	// modified in place, so that saved states can share them.
	clip *image.Alpha
}

var _ surface.Surface = (*Surface)(nil)

// New allocates a transparent surface of the given size.
func New(width, height int) *Surface {
	s := &Surface{cov: newCoverage()}
	s.Reset(width, height)
	return s
}

// NewFromImage returns a surface which draws onto img.  The top-left pixel
// of img is the device space origin.
func NewFromImage(img *image.RGBA) *Surface {
	s := &Surface{
		img: img,
		cov: newCoverage(),
	}
	s.resetState()
	return s
}

// Size implements the [surface.Surface] interface.
func (s *Surface) Size() (width, height int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Reset implements the [surface.Surface] interface.
func (s *Surface) Reset(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	r := image.Rect(0, 0, width, height)
	if s.img != nil && cap(s.img.Pix) >= 4*width*height {
		pix := s.img.Pix[:4*width*height]
		clear(pix)
		s.img = &image.RGBA{Pix: pix, Stride: 4 * width, Rect: r}
	} else {
		s.img = image.NewRGBA(r)
	}
	s.resetState()
}

func (s *Surface) resetState() {
	s.state = state{
		ctm:   affine.Identity,
		style: surface.DefaultStyle(),
	}
	clear(s.saved)
	s.saved = s.saved[:0]
	s.BeginPath()
}

// Image implements the [surface.Surface] interface.
func (s *Surface) Image() image.Image {
	return s.img
}

// RGBA returns the underlying image.
func (s *Surface) RGBA() *image.RGBA {
	return s.img
}

// Save implements the [surface.Surface] interface.
func (s *Surface) Save() {
	saved := s.state
	saved.style = saved.style.Clone()
	s.saved = append(s.saved, saved)
}

// Restore implements the [surface.Surface] interface.
// Unbalanced calls are ignored.
func (s *Surface) Restore() {
	n := len(s.saved)
	if n == 0 {
		return
	}
	s.state = s.saved[n-1]
	s.saved[n-1] = state{}
	s.saved = s.saved[:n-1]
}

// Transform implements the [surface.Surface] interface.
func (s *Surface) Transform(m matrix.Matrix) {
	s.state.ctm = affine.Transform(s.state.ctm, m)
}

// SetTransform implements the [surface.Surface] interface.
func (s *Surface) SetTransform(m matrix.Matrix) {
	s.state.ctm = m
}

// CurrentTransform implements the [surface.Surface] interface.
func (s *Surface) CurrentTransform() matrix.Matrix {
	return s.state.ctm
}

func (s *Surface) device(x, y float64) vec.Vec2 {
	return affine.Apply(s.state.ctm, vec.Vec2{X: x, Y: y})
}

// BeginPath implements the [surface.Surface] interface.
func (s *Surface) BeginPath() {
	s.path.Cmds = s.path.Cmds[:0]
	s.path.Coords = s.path.Coords[:0]
	s.hasCurrent = false
}

// MoveTo implements the [surface.Surface] interface.
func (s *Surface) MoveTo(x, y float64) {
	p := s.device(x, y)
	s.path.Cmds = append(s.path.Cmds, path.CmdMoveTo)
	s.path.Coords = append(s.path.Coords, p)
	s.start = p
	s.hasCurrent = true
}

// ensureCurrent starts a subpath at (x, y) if there is no current point.
func (s *Surface) ensureCurrent(x, y float64) {
	if !s.hasCurrent {
		s.MoveTo(x, y)
	}
}

// LineTo implements the [surface.Surface] interface.
func (s *Surface) LineTo(x, y float64) {
	s.ensureCurrent(x, y)
	s.path.Cmds = append(s.path.Cmds, path.CmdLineTo)
	s.path.Coords = append(s.path.Coords, s.device(x, y))
}

// CurveTo implements the [surface.Surface] interface.
func (s *Surface) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	s.ensureCurrent(x1, y1)
	s.path.Cmds = append(s.path.Cmds, path.CmdCubeTo)
	s.path.Coords = append(s.path.Coords, s.device(x1, y1), s.device(x2, y2), s.device(x3, y3))
}

// Rect implements the [surface.Surface] interface.
func (s *Surface) Rect(x, y, w, h float64) {
	s.MoveTo(x, y)
	s.LineTo(x+w, y)
	s.LineTo(x+w, y+h)
	s.LineTo(x, y+h)
	s.ClosePath()
}

// ClosePath implements the [surface.Surface] interface.
func (s *Surface) ClosePath() {
	if !s.hasCurrent {
		return
	}
	s.path.Cmds = append(s.path.Cmds, path.CmdClose)
	// a closed subpath continues at its start point
	s.path.Cmds = append(s.path.Cmds, path.CmdMoveTo)
	s.path.Coords = append(s.path.Coords, s.start)
}

// Fill implements the [surface.Surface] interface.
func (s *Surface) Fill(rule surface.FillRule) {
	st := &s.state.style
	smp := newSampler(st.FillPaint, s.state.ctm, st.Smoothing)
	s.paintPath(&s.path, rule, smp)
}

// Clip implements the [surface.Surface] interface.
func (s *Surface) Clip(rule surface.FillRule) {
	w, h := s.Size()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	old := s.state.clip
	s.cov.fill(&s.path, rule, 0, 0, w, h, func(y, x0 int, cov []float32) {
		row := mask.Pix[y*mask.Stride:]
		for i, c := range cov {
			x := x0 + i
			v := c
			if old != nil {
				v *= float32(old.Pix[y*old.Stride+x]) / 255
			}
			row[x] = uint8(v*255 + 0.5)
		}
	})
	s.state.clip = mask
}

// FillRect implements the [surface.Surface] interface.
func (s *Surface) FillRect(x, y, w, h float64) {
	p := s.rectPath(x, y, w, h)
	st := &s.state.style
	smp := newSampler(st.FillPaint, s.state.ctm, st.Smoothing)
	s.paintPath(p, surface.NonZero, smp)
}

// ClearRect implements the [surface.Surface] interface.
func (s *Surface) ClearRect(x, y, w, h float64) {
	p := s.rectPath(x, y, w, h)
	width, height := s.Size()
	clip := s.state.clip
	s.cov.fill(p, surface.NonZero, 0, 0, width, height, func(y, x0 int, cov []float32) {
		for i, c := range cov {
			x := x0 + i
			f := float64(c)
			if clip != nil {
				f *= float64(clip.Pix[y*clip.Stride+x]) / 255
			}
			k := s.img.PixOffset(x, y)
			for j := range 4 {
				s.img.Pix[k+j] = uint8(float64(s.img.Pix[k+j])*(1-f) + 0.5)
			}
		}
	})
}

func (s *Surface) rectPath(x, y, w, h float64) *path.Data {
	p := &path.Data{}
	p.Cmds = append(p.Cmds, path.CmdMoveTo, path.CmdLineTo, path.CmdLineTo, path.CmdLineTo, path.CmdClose)
	p.Coords = append(p.Coords,
		s.device(x, y), s.device(x+w, y), s.device(x+w, y+h), s.device(x, y+h))
	return p
}

// paintPath composites the paint smp through the coverage of p.
func (s *Surface) paintPath(p *path.Data, rule surface.FillRule, smp sampler) {
	width, height := s.Size()
	s.cov.fill(p, rule, 0, 0, width, height, func(y, x0 int, cov []float32) {
		for i, c := range cov {
			s.blendPixel(x0+i, y, float64(c), smp)
		}
	})
}

// blendPixel composites the paint at pixel (x, y), with the given
// coverage, taking the clipping region, global alpha and compositing
// operator into account.
func (s *Surface) blendPixel(x, y int, f float64, smp sampler) {
	st := &s.state
	if st.clip != nil {
		f *= float64(st.clip.Pix[y*st.clip.Stride+x]) / 255
	}
	if f <= 0 {
		return
	}
	src := smp.at(float64(x)+0.5, float64(y)+0.5)
	a := st.style.Alpha
	for i := range src {
		src[i] *= a
	}

	k := s.img.PixOffset(x, y)
	pix := s.img.Pix[k : k+4 : k+4]
	dst := rgba{
		float64(pix[0]) / 255,
		float64(pix[1]) / 255,
		float64(pix[2]) / 255,
		float64(pix[3]) / 255,
	}
	res := composite(st.style.CompositeOp, src, dst)
	for i := range 4 {
		v := dst[i]*(1-f) + res[i]*f
		pix[i] = toByte(v)
	}
	// keep the premultiplied invariant
	pix[0] = min(pix[0], pix[3])
	pix[1] = min(pix[1], pix[3])
	pix[2] = min(pix[2], pix[3])
}

func toByte(v float64) uint8 {
	v = math.Round(v * 255)
	if !(v > 0) {
		return 0
	} else if v > 255 {
		return 255
	}
	return uint8(v)
}

// Style implements the [surface.Surface] interface.
func (s *Surface) Style() surface.Style {
	return s.state.style.Clone()
}

// SetStyle implements the [surface.Surface] interface.
func (s *Surface) SetStyle(st surface.Style) {
	s.state.style = st.Clone()
}

// SetFillPaint implements the [surface.Surface] interface.
func (s *Surface) SetFillPaint(p surface.Paint) {
	s.state.style.FillPaint = p
}

// SetStrokePaint implements the [surface.Surface] interface.
func (s *Surface) SetStrokePaint(p surface.Paint) {
	s.state.style.StrokePaint = p
}

// SetLineWidth implements the [surface.Surface] interface.
// Values which are not positive and finite are ignored.
func (s *Surface) SetLineWidth(w float64) {
	if w > 0 && !math.IsInf(w, 0) {
		s.state.style.LineWidth = w
	}
}

// SetLineCap implements the [surface.Surface] interface.
func (s *Surface) SetLineCap(c surface.LineCap) {
	s.state.style.LineCap = c
}

// SetLineJoin implements the [surface.Surface] interface.
func (s *Surface) SetLineJoin(j surface.LineJoin) {
	s.state.style.LineJoin = j
}

// SetMiterLimit implements the [surface.Surface] interface.
func (s *Surface) SetMiterLimit(l float64) {
	if l > 0 && !math.IsInf(l, 0) {
		s.state.style.MiterLimit = l
	}
}

// SetDash implements the [surface.Surface] interface.
// Dash arrays with negative or non-finite entries are ignored.
// An array of odd length is repeated once.
func (s *Surface) SetDash(dash []float64, phase float64) {
	for _, d := range dash {
		if !(d >= 0) || math.IsInf(d, 0) {
			return
		}
	}
	if len(dash)%2 == 1 {
		dash = append(append([]float64(nil), dash...), dash...)
	} else {
		dash = append([]float64(nil), dash...)
	}
	s.state.style.Dash = dash
	if !math.IsNaN(phase) && !math.IsInf(phase, 0) {
		s.state.style.DashPhase = phase
	}
}

// SetAlpha implements the [surface.Surface] interface.
// Values outside [0, 1] are ignored.
func (s *Surface) SetAlpha(a float64) {
	if a >= 0 && a <= 1 {
		s.state.style.Alpha = a
	}
}

// SetCompositeOp implements the [surface.Surface] interface.
func (s *Surface) SetCompositeOp(op surface.CompositeOp) {
	s.state.style.CompositeOp = op
}

// SetSmoothing implements the [surface.Surface] interface.
func (s *Surface) SetSmoothing(enabled bool) {
	s.state.style.Smoothing = enabled
}
