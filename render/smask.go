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
	"strconv"

	"golang.org/x/image/draw"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfpaint/surface"
)

// softMask is the rendered content of a soft mask group.
type softMask struct {
	img        *image.RGBA
	offX, offY int // device position of img.Bounds().Min

	luminosity bool
	backdrop   *surface.Color
	transfer   []uint8
}

// filter returns the filter which converts the mask pixels to alpha
// values, or nil if the alpha channel is used unchanged.
func (m *softMask) filter() surface.Filter {
	if m.luminosity {
		return &surface.LuminosityFilter{Transfer: m.transfer}
	}
	if m.transfer != nil {
		return &surface.AlphaFilter{Transfer: m.transfer}
	}
	return nil
}

func (e *Executor) activeSMask() *softMask {
	m, _ := e.cur().ActiveSMask.(*softMask)
	return m
}

// checkSMaskState enters or leaves soft mask mode, as required by the
// current graphics state.
func (e *Executor) checkSMaskState() {
	active := e.cur().ActiveSMask != nil
	switch {
	case active && e.suspended == nil:
		e.beginSMaskMode()
	case !active && e.suspended != nil:
		e.endSMaskMode()
	}
}

// beginSMaskMode redirects painting to a scratch layer of the size of the
// current surface.  Transformations, paths and clipping are applied to
// both surfaces, so that the layer can be composited onto the real
// surface after every painting operation.
func (e *Executor) beginSMaskMode() {
	w, h := e.s.Size()
	layer := e.pool.get("smaskGroupAt"+strconv.Itoa(e.groupLevel), w, h)
	e.suspended = e.s
	e.layer = layer
	e.syncLayer()
	e.s = &surface.Mirror{Surface: layer, Target: e.suspended}
}

// endSMaskMode makes the real surface current again.  Outside of soft
// mask mode, nothing happens.
func (e *Executor) endSMaskMode() {
	if e.suspended == nil {
		return
	}
	e.syncSuspended()
	e.s = e.suspended
	e.suspended = nil
	e.layer = nil
}

// syncLayer copies the paint parameters and the transformation of the
// real surface to the layer.  The layer is always painted with source-over
// compositing; the blend mode is applied when the layer is composited.
func (e *Executor) syncLayer() {
	st := e.suspended.Style().Clone()
	st.CompositeOp = surface.SourceOver
	e.layer.SetStyle(st)
	e.layer.SetTransform(e.suspended.CurrentTransform())
}

// syncSuspended copies the paint parameters of the layer to the real
// surface.
func (e *Executor) syncSuspended() {
	st := e.layer.Style().Clone()
	st.CompositeOp = e.cur().BlendMode
	e.suspended.SetStyle(st)
}

// compose applies the active soft mask to the part of the layer inside
// the device space box, composites the result onto the real surface and
// clears the layer.  If ok is false, the whole surface is used.
func (e *Executor) compose(box rect.Rect, ok bool) {
	m := e.activeSMask()
	if m == nil || e.suspended == nil {
		return
	}
	layer := e.layer
	w, h := layer.Size()
	r := image.Rect(0, 0, w, h)
	if ok {
		r = r.Intersect(deviceBounds(box))
	}
	if !r.Empty() {
		mask := image.NewRGBA(r)
		draw.Draw(mask, r, m.img, image.Pt(r.Min.X-m.offX, r.Min.Y-m.offY), draw.Src)
		if bd := m.backdrop; bd != nil {
			applyBackdrop(mask, *bd)
		}
		if f := m.filter(); f != nil {
			surface.FilterRGBA(mask, r, f)
		}
		dst := rect.Rect{
			LLx: float64(r.Min.X), LLy: float64(r.Min.Y),
			URx: float64(r.Max.X), URy: float64(r.Max.Y),
		}

		layer.Save()
		layer.SetTransform(matrix.Identity)
		layer.SetAlpha(1)
		layer.SetSmoothing(false)
		layer.SetCompositeOp(surface.DestinationIn)
		layer.DrawImage(mask, r, dst)
		layer.Restore()

		s := e.suspended
		s.Save()
		s.SetTransform(matrix.Identity)
		s.SetAlpha(1)
		s.SetSmoothing(false)
		s.SetCompositeOp(e.cur().BlendMode)
		s.DrawImage(layer.Image(), r, dst)
		s.Restore()
	}

	layer.Save()
	layer.SetTransform(matrix.Identity)
	layer.ClearRect(0, 0, float64(w), float64(h))
	layer.Restore()
}

// applyBackdrop composes the premultiplied pixels of img over an opaque
// backdrop color.
func applyBackdrop(img *image.RGBA, bd surface.Color) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		a := 255 - uint32(pix[i+3])
		pix[i] = over(pix[i], bd.R, a)
		pix[i+1] = over(pix[i+1], bd.G, a)
		pix[i+2] = over(pix[i+2], bd.B, a)
		pix[i+3] = 255
	}
}

func over(v, bd uint8, a uint32) uint8 {
	return uint8(min(uint32(v)+(uint32(bd)*a+127)/255, 255))
}

// deviceBounds rounds a device space rectangle outwards to whole pixels.
func deviceBounds(r rect.Rect) image.Rectangle {
	if !isFiniteRect(r) {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.LLx)), int(math.Floor(r.LLy)),
		int(math.Ceil(r.URx)), int(math.Ceil(r.URy)))
}

func isFiniteRect(r rect.Rect) bool {
	return isFinite(r.LLx) && isFinite(r.LLy) && isFinite(r.URx) && isFinite(r.URy)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
