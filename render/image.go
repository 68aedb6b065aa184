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

package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/affine"
	"seehuhn.de/go/pdfpaint/glyph"
	"seehuhn.de/go/pdfpaint/gstate"
	"seehuhn.de/go/pdfpaint/oplist"
	"seehuhn.de/go/pdfpaint/surface"
)

// jsRound rounds half-way cases towards positive infinity.
func jsRound(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}

// smoothing decides whether an image drawn with the transformation m is
// interpolated.  Enlarged images are drawn with sharp pixel edges.
func (e *Executor) smoothing(m matrix.Matrix, interpolate bool) bool {
	if interpolate {
		return true
	}
	sx, sy := affine.SingularValueScale(m)
	t := float32(e.opt.SmoothingThreshold)
	return float32(sx) <= t && float32(sy) <= t
}

// drawImageAtIntegerCoords draws the part src of img into the user space
// rectangle at (dx, dy) of size dw×dh.  For axis-aligned placements, the
// destination is snapped to whole device pixels.  The return values are
// the size of the destination in device pixels.
func drawImageAtIntegerCoords(s surface.Surface, img image.Image, src image.Rectangle, dx, dy, dw, dh float64) (float64, float64) {
	m := s.CurrentTransform()
	a, b, c, d, tx, ty := m[0], m[1], m[2], m[3], m[4], m[5]
	switch {
	case b == 0 && c == 0:
		x0 := jsRound(dx*a + tx)
		y0 := jsRound(dy*d + ty)
		w := abs(jsRound((dx+dw)*a+tx) - x0)
		h := abs(jsRound((dy+dh)*d+ty) - y0)
		w, h = max(w, 1), max(h, 1)
		s.SetTransform(matrix.Matrix{sign(a), 0, 0, sign(d), float64(x0), float64(y0)})
		s.DrawImage(img, src, rect.Rect{URx: float64(w), URy: float64(h)})
		s.SetTransform(m)
		return float64(w), float64(h)
	case a == 0 && d == 0:
		x0 := jsRound(dy*c + tx)
		y0 := jsRound(dx*b + ty)
		w := abs(jsRound((dy+dh)*c+tx) - x0)
		h := abs(jsRound((dx+dw)*b+ty) - y0)
		w, h = max(w, 1), max(h, 1)
		s.SetTransform(matrix.Matrix{0, sign(b), sign(c), 0, float64(x0), float64(y0)})
		s.DrawImage(img, src, rect.Rect{URx: float64(h), URy: float64(w)})
		s.SetTransform(m)
		return float64(h), float64(w)
	}
	s.DrawImage(img, src, rect.Rect{LLx: dx, LLy: dy, URx: dx + dw, URy: dy + dh})
	return math.Hypot(a, b) * dw, math.Hypot(c, d) * dh
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// scaleImage halves the image repeatedly, until the remaining
// downscaling, given by the device-to-image matrix inv, is at most a
// factor of two in each direction.
func (e *Executor) scaleImage(img image.Image, inv matrix.Matrix) (image.Image, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	xScale := max(math.Hypot(inv[0], inv[1]), 1)
	yScale := max(math.Hypot(inv[2], inv[3]), 1)

	name := "prescale1"
	for (xScale > 2 && w > 1) || (yScale > 2 && h > 1) {
		nw, nh := w, h
		if xScale > 2 && w > 1 {
			nw = halve(w)
			xScale /= float64(w) / float64(nw)
		}
		if yScale > 2 && h > 1 {
			nh = halve(h)
			yScale /= float64(h) / float64(nh)
		}
		tmp := e.pool.get(name, nw, nh)
		tmp.SetSmoothing(true)
		tmp.DrawImage(img, image.Rectangle{Min: b.Min, Max: b.Min.Add(image.Pt(w, h))},
			rect.Rect{URx: float64(nw), URy: float64(nh)})
		img = tmp.Image()
		b = img.Bounds()
		w, h = nw, nh
		if name == "prescale1" {
			name = "prescale2"
		} else {
			name = "prescale1"
		}
	}
	return img, w, h
}

func halve(n int) int {
	if n >= 16384 {
		return max(n/2-1, 1)
	}
	return (n + 1) / 2
}

// applyTransfer returns a copy of img with the transfer functions of the
// current graphics state applied.  Without transfer functions, img is
// returned unchanged.
func (e *Executor) applyTransfer(img image.Image) image.Image {
	tr := e.cur().TransferMaps
	if tr == nil {
		return img
	}
	b := img.Bounds()
	res := image.NewRGBA(b)
	draw.Draw(res, b, img, b.Min, draw.Src)
	surface.FilterRGBA(res, b, tr)
	return res
}

func (e *Executor) opPaintImageXObject(a *oplist.Args) error {
	id := a.String(0)
	if a.Err != nil {
		return a.Err
	}
	if !e.contentVisible {
		return nil
	}
	img, ok := e.getObject(id).(*oplist.ImageData)
	if !ok {
		e.log.Warn("image is not available", "id", id)
		return nil
	}
	return e.paintImage(a.Op, img)
}

func (e *Executor) opPaintInlineImageXObject(a *oplist.Args) error {
	img, ok := a.Value(0).(*oplist.ImageData)
	if !ok {
		return oplist.Errorf(a.Op, "expected image, got %T", a.Value(0))
	}
	if !e.contentVisible {
		return nil
	}
	return e.paintImage(a.Op, img)
}

// paintImage draws an image into the unit square of the current user
// space.
func (e *Executor) paintImage(op oplist.OpCode, data *oplist.ImageData) error {
	src, err := data.Image()
	if err != nil {
		return oplist.Errorf(op, "%v", err)
	}
	w, h := float64(data.Width), float64(data.Height)
	if w <= 0 || h <= 0 {
		return nil
	}

	e.save()
	s := e.s
	s.Transform(affine.Scale(1/w, -1/h))
	src = e.applyTransfer(src)
	img, pw, ph := e.scaleImage(src, affine.Invert(s.CurrentTransform()))
	s.SetSmoothing(e.smoothing(s.CurrentTransform(), data.Interpolate))
	drawImageAtIntegerCoords(s, img, image.Rect(0, 0, pw, ph).Add(img.Bounds().Min), 0, -h, w, h)
	e.compose(rect.Rect{}, false)
	return e.restore()
}

func (e *Executor) opPaintInlineImageXObjectGroup(a *oplist.Args) error {
	data, ok := a.Value(0).(*oplist.ImageData)
	if !ok {
		return oplist.Errorf(a.Op, "expected image, got %T", a.Value(0))
	}
	places, ok := a.Value(1).([]oplist.ImagePlacement)
	if !ok {
		return oplist.Errorf(a.Op, "expected image placements, got %T", a.Value(1))
	}
	if !e.contentVisible {
		return nil
	}
	return e.paintImageGroup(a.Op, data, places)
}

func (e *Executor) paintImageGroup(op oplist.OpCode, data *oplist.ImageData, places []oplist.ImagePlacement) error {
	img, err := data.Image()
	if err != nil {
		return oplist.Errorf(op, "%v", err)
	}
	s := e.s
	for _, p := range places {
		s.Save()
		s.Transform(p.Transform)
		s.Transform(affine.Scale(1, -1))
		drawImageAtIntegerCoords(s, img, image.Rect(p.X, p.Y, p.X+p.W, p.Y+p.H), 0, -1, 1, 1)
		s.Restore()
	}
	e.compose(rect.Rect{}, false)
	return nil
}

func (e *Executor) opPaintImageXObjectRepeat(a *oplist.Args) error {
	id := a.String(0)
	sx, sy := a.Float(1), a.Float(2)
	pos := a.Floats(3)
	if a.Err != nil {
		return a.Err
	}
	if !e.contentVisible {
		return nil
	}
	data, ok := e.getObject(id).(*oplist.ImageData)
	if !ok {
		e.log.Warn("image is not available", "id", id)
		return nil
	}
	places := make([]oplist.ImagePlacement, 0, len(pos)/2)
	for i := 0; i+1 < len(pos); i += 2 {
		places = append(places, oplist.ImagePlacement{
			Transform: matrix.Matrix{sx, 0, 0, sy, pos[i], pos[i+1]},
			W:         data.Width,
			H:         data.Height,
		})
	}
	return e.paintImageGroup(a.Op, data, places)
}

type maskKey struct {
	mask  *oplist.ImageMask
	m     [4]float64
	color surface.Color
}

// cachedMask is a colored mask together with its device offset relative
// to the translation part of the transformation.
type cachedMask struct {
	img        *image.RGBA
	relX, relY float64
}

// maskImage colors an image mask with the current fill paint and
// resamples it to device space.  The result is placed at the returned
// device position.
func (e *Executor) maskImage(op oplist.OpCode, m *oplist.ImageMask) (image.Image, image.Point, error) {
	cur := e.cur()
	ctm := e.ctm()
	isPattern := cur.PatternFill
	var key maskKey
	useCache := m.Count > 1 && !isPattern
	if useCache {
		key = maskKey{mask: m, m: [4]float64{ctm[0], ctm[1], ctm[2], ctm[3]}, color: cur.FillColor}
		if c, ok := e.maskCache[key]; ok {
			return c.img, image.Pt(jsRound(ctm[4]+c.relX), jsRound(ctm[5]+c.relY)), nil
		}
	}

	alpha, err := m.Alpha()
	if err != nil {
		return nil, image.Point{}, oplist.Errorf(op, "%v", err)
	}
	w, h := float64(m.Width), float64(m.Height)
	maskToCanvas := affine.Transform(ctm, matrix.Matrix{1 / w, 0, 0, -1 / h, 0, 1})
	box := affine.TransformRect(maskToCanvas, rect.Rect{URx: w, URy: h})
	if !isFiniteRect(box) {
		return nil, image.Point{}, nil
	}
	dw := max(jsRound(box.URx-box.LLx), 1)
	dh := max(jsRound(box.URy-box.LLy), 1)

	fc := e.pool.get("fillCanvas", dw, dh)
	fc.SetTransform(affine.Transform(affine.Translate(-box.LLx, -box.LLy), maskToCanvas))
	img, pw, ph := e.scaleImage(alpha, affine.Invert(fc.CurrentTransform()))
	fc.SetSmoothing(e.smoothing(fc.CurrentTransform(), m.Interpolate))
	drawImageAtIntegerCoords(fc, img, image.Rect(0, 0, pw, ph).Add(img.Bounds().Min), 0, 0, w, h)

	fc.SetCompositeOp(surface.SourceIn)
	if isPattern {
		p, err := e.devicePattern(cur.FillPattern, cur.PatternFillColor, gstate.PathFill)
		if err != nil {
			return nil, image.Point{}, err
		}
		if p == nil {
			return nil, image.Point{}, nil
		}
		fc.SetFillPaint(p.paintFor(affine.Transform(affine.Translate(box.LLx, box.LLy), fc.CurrentTransform())))
	} else {
		fc.SetFillPaint(cur.FillColor)
	}
	fc.FillRect(0, 0, w, h)

	pos := image.Pt(jsRound(box.LLx), jsRound(box.LLy))
	if useCache {
		snap := fc.ReadPixels(image.Rect(0, 0, dw, dh))
		e.maskCache[key] = &cachedMask{img: snap, relX: box.LLx - ctm[4], relY: box.LLy - ctm[5]}
		return snap, pos, nil
	}
	return fc.Image(), pos, nil
}

// blitAt draws img onto the current surface with its top-left corner at
// the device position p.
func blitAt(s surface.Surface, img image.Image, p image.Point) {
	b := img.Bounds()
	s.Save()
	s.SetTransform(matrix.Identity)
	s.SetSmoothing(false)
	s.DrawImage(img, b, rect.Rect{
		LLx: float64(p.X), LLy: float64(p.Y),
		URx: float64(p.X + b.Dx()), URy: float64(p.Y + b.Dy()),
	})
	s.Restore()
}

func (e *Executor) opPaintImageMaskXObject(a *oplist.Args) error {
	m, ok := a.Value(0).(*oplist.ImageMask)
	if !ok {
		return oplist.Errorf(a.Op, "expected image mask, got %T", a.Value(0))
	}
	if !e.contentVisible {
		return nil
	}

	if g := e.type3Glyph; g != nil {
		outline, seen := e.compiled[g]
		if !seen {
			if !e.opt.DisableType3Compile && m.Width <= e.opt.MaxSizeToCompile && m.Height <= e.opt.MaxSizeToCompile {
				outline = glyph.Compile(m.Width, m.Height, m.Painted)
			}
			e.compiled[g] = outline
		}
		if outline != nil {
			outline.Draw(e.s)
			e.compose(rect.Rect{}, false)
			return nil
		}
	}

	img, pos, err := e.maskImage(a.Op, m)
	if err != nil || img == nil {
		return err
	}
	blitAt(e.s, img, pos)
	e.compose(rect.Rect{}, false)
	return nil
}

func (e *Executor) opPaintImageMaskXObjectRepeat(a *oplist.Args) error {
	m, ok := a.Value(0).(*oplist.ImageMask)
	if !ok {
		return oplist.Errorf(a.Op, "expected image mask, got %T", a.Value(0))
	}
	scaleX, skewX, skewY, scaleY := a.Float(1), a.Float(2), a.Float(3), a.Float(4)
	pos := a.Floats(5)
	if a.Err != nil {
		return a.Err
	}
	if !e.contentVisible {
		return nil
	}

	s := e.s
	ctm := s.CurrentTransform()
	s.Save()
	s.Transform(matrix.Matrix{scaleX, skewX, skewY, scaleY, 0, 0})
	img, p0, err := e.maskImage(a.Op, m)
	s.Restore()
	if err != nil || img == nil {
		return err
	}
	for i := 0; i+1 < len(pos); i += 2 {
		t := affine.Transform(ctm, matrix.Matrix{scaleX, skewX, skewY, scaleY, pos[i], pos[i+1]})
		x := float64(p0.X) - ctm[4] + t[4]
		y := float64(p0.Y) - ctm[5] + t[5]
		s.Save()
		s.SetTransform(matrix.Identity)
		s.SetSmoothing(false)
		b := img.Bounds()
		s.DrawImage(img, b, rect.Rect{
			LLx: x, LLy: y,
			URx: x + float64(b.Dx()), URy: y + float64(b.Dy()),
		})
		s.Restore()
	}
	e.compose(rect.Rect{}, false)
	return nil
}

func (e *Executor) opPaintImageMaskXObjectGroup(a *oplist.Args) error {
	places, ok := a.Value(0).([]oplist.MaskPlacement)
	if !ok {
		return oplist.Errorf(a.Op, "expected mask placements, got %T", a.Value(0))
	}
	if !e.contentVisible {
		return nil
	}

	cur := e.cur()
	s := e.s
	ctm := s.CurrentTransform()
	for _, p := range places {
		m := p.Mask
		alpha, err := m.Alpha()
		if err != nil {
			return oplist.Errorf(a.Op, "%v", err)
		}
		w, h := float64(m.Width), float64(m.Height)

		mc := e.pool.get("maskCanvas", m.Width, m.Height)
		mc.DrawImage(alpha, alpha.Bounds(), rect.Rect{URx: w, URy: h})
		mc.SetCompositeOp(surface.SourceIn)
		if cur.PatternFill {
			dp, err := e.devicePattern(cur.FillPattern, cur.PatternFillColor, gstate.PathFill)
			if err != nil {
				return err
			}
			if dp == nil {
				continue
			}
			toDevice := affine.Transform(ctm, p.Transform)
			toDevice = affine.Transform(toDevice, affine.Scale(1, -1))
			toDevice = affine.Transform(toDevice, matrix.Matrix{1 / w, 0, 0, 1 / h, 0, -1})
			mc.SetFillPaint(dp.paintFor(toDevice))
		} else {
			mc.SetFillPaint(cur.FillColor)
		}
		mc.FillRect(0, 0, w, h)

		s.Save()
		s.Transform(p.Transform)
		s.Transform(affine.Scale(1, -1))
		drawImageAtIntegerCoords(s, mc.Image(), image.Rect(0, 0, m.Width, m.Height), 0, -1, 1, 1)
		s.Restore()
	}
	e.compose(rect.Rect{}, false)
	return nil
}

func (e *Executor) opPaintSolidColorImageMask(*oplist.Args) error {
	if !e.contentVisible {
		return nil
	}
	e.s.FillRect(0, 0, 1, 1)
	e.compose(rect.Rect{}, false)
	return nil
}
