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

package oplist

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"golang.org/x/text/encoding/charmap"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/pdfpaint/surface"
)

// This file defines the Go types used for instruction arguments and for
// objects stored in the object registry.
//
// Argument types by opcode:
//
//	dependency                    string...  (object ids)
//	setLineWidth ... setFlatness  numbers; setDash: []float64, number
//	setGState                     []GStateEntry
//	transform, setTextMatrix      six numbers
//	setFont                       string (font id), number (size)
//	showText, showSpacedText      []TextItem
//	setFillColorN                 *TilingIR [, surface.Color] | *ShadingIR | r, g, b
//	shadingFill                   *ShadingIR
//	beginMarkedContentProps       string, *MarkedContentProps
//	paintFormXObjectBegin         matrix, bbox
//	beginGroup, endGroup          *GroupIR
//	beginAnnotation               id, rect, transform, matrix, hasOwnCanvas
//	paintImageXObject             string (image id)
//	paintInlineImageXObject       *ImageData
//	paintInlineImageXObjectGroup  *ImageData, []ImagePlacement
//	paintImageMaskXObject         *ImageMask
//	paintImageMaskXObjectGroup    []MaskPlacement
//	paintImageXObjectRepeat       id, scaleX, scaleY, []float64 (positions)
//	paintImageMaskXObjectRepeat   *ImageMask, scaleX, skewX, skewY, scaleY, []float64
//	constructPath                 []OpCode, []float64
//
// Color components are given in the range 0, ..., 255.

// GStateEntry is one entry of an ExtGState dictionary.
//
// Value has type float64 for LW, ML, FL, CA and ca, int for LC and LJ,
// Dash for D, string for RI and BM, FontRef for Font, bool for SMask and
// *surface.TransferFilter (possibly nil) for TR.
type GStateEntry struct {
	Key   string
	Value any
}

// Dash is a dash pattern.
type Dash struct {
	Array []float64
	Phase float64
}

// FontRef refers to a font in the object registry.
type FontRef struct {
	ID   string
	Size float64
}

// MarkedContentProps are the properties attached to a marked-content
// sequence.  Only optional content (Type "OCG" or "OCMD") is interpreted.
type MarkedContentProps struct {
	Type string
	ID   string
}

// ImageKind describes the pixel layout of [ImageData].
type ImageKind uint8

// These are the supported image kinds.
const (
	Grayscale1BPP ImageKind = 1
	RGB24         ImageKind = 2
	RGBA32        ImageKind = 3
)

// ImageData is a decoded raster image.
type ImageData struct {
	Width, Height int
	Kind          ImageKind

	// Data holds the pixel rows, top row first.  For Grayscale1BPP, each
	// row is padded to a whole number of bytes and a set bit is white.
	Data []byte

	// Bitmap, if non-nil, is used instead of Data.
	Bitmap image.Image

	Interpolate bool

	once sync.Once
	img  image.Image
	err  error
}

// Image returns the image as an [image.Image].  The conversion is done
// only once.
func (d *ImageData) Image() (image.Image, error) {
	d.once.Do(func() {
		d.img, d.err = d.decode()
	})
	return d.img, d.err
}

var errShortImage = errors.New("image data too short")

func (d *ImageData) decode() (image.Image, error) {
	if d.Bitmap != nil {
		return d.Bitmap, nil
	}
	w, h := d.Width, d.Height
	if w <= 0 || h <= 0 {
		return nil, errors.New("invalid image size")
	}
	r := image.Rect(0, 0, w, h)
	switch d.Kind {
	case Grayscale1BPP:
		stride := (w + 7) / 8
		if len(d.Data) < stride*h {
			return nil, errShortImage
		}
		img := image.NewGray(r)
		for y := range h {
			row := d.Data[y*stride:]
			for x := range w {
				if row[x/8]&(0x80>>(x%8)) != 0 {
					img.Pix[y*img.Stride+x] = 255
				}
			}
		}
		return img, nil
	case RGB24:
		if len(d.Data) < 3*w*h {
			return nil, errShortImage
		}
		img := image.NewRGBA(r)
		for i := range w * h {
			copy(img.Pix[4*i:4*i+3], d.Data[3*i:3*i+3])
			img.Pix[4*i+3] = 255
		}
		return img, nil
	case RGBA32:
		if len(d.Data) < 4*w*h {
			return nil, errShortImage
		}
		img := image.NewNRGBA(r)
		copy(img.Pix, d.Data[:4*w*h])
		return img, nil
	}
	return nil, errors.New("unknown image kind")
}

// ImageMask is a stencil mask.
type ImageMask struct {
	Width, Height int

	// Data holds the mask rows, top row first, one bit per pixel.  Each row
	// is padded to a whole number of bytes.  A clear bit marks a pixel
	// which is painted.
	Data []byte

	// Count is the number of times the mask is used on the page.  Masks
	// with Count > 1 are cached after the first use.
	Count int

	Interpolate bool

	once  sync.Once
	alpha *image.Alpha
	err   error
}

// Painted reports whether the pixel at (x, y) is painted by the mask.
// Coordinates outside the mask are not painted.
func (m *ImageMask) Painted(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	stride := (m.Width + 7) / 8
	idx := y*stride + x/8
	if idx >= len(m.Data) {
		return false
	}
	return m.Data[idx]&(0x80>>(x%8)) == 0
}

// Alpha returns the mask as an alpha image, with painted pixels opaque.
func (m *ImageMask) Alpha() (*image.Alpha, error) {
	m.once.Do(func() {
		if m.Width <= 0 || m.Height <= 0 {
			m.err = errors.New("invalid mask size")
			return
		}
		if len(m.Data) < (m.Width+7)/8*m.Height {
			m.err = errShortImage
			return
		}
		a := image.NewAlpha(image.Rect(0, 0, m.Width, m.Height))
		for y := range m.Height {
			for x := range m.Width {
				if m.Painted(x, y) {
					a.Pix[y*a.Stride+x] = 255
				}
			}
		}
		m.alpha = a
	})
	return m.alpha, m.err
}

// ImagePlacement places a part of an image atlas on the page.
type ImagePlacement struct {
	Transform  matrix.Matrix
	X, Y, W, H int
}

// MaskPlacement places an image mask on the page.
type MaskPlacement struct {
	Mask      *ImageMask
	Transform matrix.Matrix
}

// TilingIR describes a tiling pattern.
type TilingIR struct {
	Ops *List

	// Matrix maps pattern space to the default coordinate system of the
	// pattern's parent.
	Matrix matrix.Matrix

	BBox         rect.Rect
	XStep, YStep float64

	// PaintType is 1 for colored and 2 for uncolored patterns.
	PaintType  int
	TilingType int

	// Color is the paint color of an uncolored pattern.
	Color surface.Color
}

// ShadingKind distinguishes the different shading types.
type ShadingKind uint8

// These are the supported kinds of shadings.
const (
	ShadingAxial ShadingKind = iota + 1
	ShadingRadial
	ShadingMesh

	// ShadingDummy paints nothing.  It is used for shadings which could
	// not be decoded.
	ShadingDummy
)

// ShadingIR describes a shading.  When used as a pattern, Matrix maps
// the shading space to the default coordinate system of the pattern's
// parent.
type ShadingIR struct {
	Kind   ShadingKind
	BBox   *rect.Rect
	Matrix *matrix.Matrix

	// Axial and radial shadings.
	Stops  []surface.Stop
	P0, P1 vec.Vec2
	R0, R1 float64

	// Mesh shadings.
	Coords     []vec.Vec2
	Colors     []surface.Color
	Figures    []MeshFigure
	Bounds     rect.Rect
	Background *surface.Color
}

// FigureType is the layout of a [MeshFigure].
type FigureType uint8

// These are the supported figure types.
const (
	FigureTriangles FigureType = iota + 1
	FigureLattice
)

// MeshFigure is a part of a mesh shading.  Coords and Colors index the
// corresponding slices of the shading.
type MeshFigure struct {
	Type           FigureType
	Coords         []int
	Colors         []int
	VerticesPerRow int
}

// GroupIR describes a transparency group.
type GroupIR struct {
	BBox     *rect.Rect
	Matrix   *matrix.Matrix
	Isolated bool
	Knockout bool

	// SMask, if non-nil, makes the group a soft mask.
	SMask *SMaskIR
}

// SMaskIR describes how a group is used as a soft mask.
type SMaskIR struct {
	// Subtype is "Alpha" or "Luminosity".
	Subtype string

	Backdrop    *surface.Color
	TransferMap []uint8
}

// Font is a font stored in the object registry.
type Font struct {
	Name string

	// FontMatrix maps glyph space to text space.  The zero matrix means
	// the default matrix [0.001 0 0 0.001 0 0].
	FontMatrix matrix.Matrix

	// Type3 fonts draw their glyphs with the display lists in CharProcs,
	// keyed by Glyph.OperatorListID.
	Type3     bool
	CharProcs map[string]*List

	// Outlines holds the glyph outlines of non-Type 3 fonts.
	Outlines *sfnt.Font

	Vertical        bool
	DefaultVMetrics [3]float64

	// MissingFile is set if the font program is not embedded.
	MissingFile bool

	cmapOnce sync.Once
	cmap     cmap.Subtable
}

// DefaultFontMatrix is the font matrix used when none is given.
var DefaultFontMatrix = matrix.Matrix{0.001, 0, 0, 0.001, 0, 0}

// Matrix returns the font matrix, with the default substituted for the
// zero matrix.
func (f *Font) Matrix() matrix.Matrix {
	if f.FontMatrix == (matrix.Matrix{}) {
		return DefaultFontMatrix
	}
	return f.FontMatrix
}

// GlyphID returns the glyph of f which represents g.
//
// If the glyph carries no explicit glyph ID, the character is looked up in
// the cmap of the font, using the Unicode text of the glyph or, failing
// that, the Windows-1252 interpretation of the character code.
func (f *Font) GlyphID(g *Glyph) glyph.ID {
	if g.GID != 0 || f.Outlines == nil {
		return g.GID
	}
	f.cmapOnce.Do(func() {
		sub, err := f.Outlines.CMapTable.GetBest()
		if err == nil {
			f.cmap = sub
		}
	})
	if f.cmap == nil {
		return 0
	}
	for _, r := range g.Text() {
		return f.cmap.Lookup(r)
	}
	return 0
}

// UnitsPerEm returns the size of the em square of the font outlines, or
// 1000 if the font has no outlines.
func (f *Font) UnitsPerEm() float64 {
	if f.Outlines == nil || f.Outlines.UnitsPerEm == 0 {
		return 1000
	}
	return float64(f.Outlines.UnitsPerEm)
}

// Glyph is a single glyph of a text showing operation.
type Glyph struct {
	// Code is the character code in the content stream.
	Code uint32

	// Unicode is the text represented by the glyph, if known.
	Unicode string

	// GID, if non-zero, selects the glyph in the font outlines.
	GID glyph.ID

	// Width is the advance width in glyph space units.
	Width float64

	// VMetric holds the vertical metrics (w1y, vx, vy) for vertical
	// fonts.
	VMetric []float64

	IsSpace  bool
	IsInFont bool

	// OperatorListID selects the glyph procedure of a Type 3 font.
	OperatorListID string
}

// Text returns the text represented by the glyph.
func (g *Glyph) Text() string {
	if g.Unicode != "" {
		return g.Unicode
	}
	if g.Code < 256 {
		return string(charmap.Windows1252.DecodeByte(byte(g.Code)))
	}
	return string(rune(g.Code))
}

// TextItem is an element of the argument of showText.  Exactly one of
// Glyph and Adjust is meaningful: if Glyph is nil, the item is a position
// adjustment in thousandths of a text space unit.
type TextItem struct {
	Glyph  *Glyph
	Adjust float64
}

// ColorFromBytes is a convenience function to construct a color.
func ColorFromBytes(r, g, b uint8) surface.Color {
	return surface.Color{R: r, G: g, B: b}
}

// ToNRGBA converts c to an opaque color.NRGBA.
func ToNRGBA(c surface.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
