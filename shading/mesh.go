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

// Package shading rasterizes mesh shadings (PDF shading types 4 to 7).
//
// The triangles of a mesh are filled with Gouraud shading into an RGBA
// image, which the interpreter then uses as an image pattern.  Axial and
// radial shadings do not need this package, since surfaces implement them
// natively as gradients.
package shading

import (
	"errors"
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdfpaint/oplist"
)

const (
	// ExpectedScale enlarges the raster slightly, so that antialiasing
	// of the surface hides the rough edges of the triangles.
	ExpectedScale = 1.1

	// MaxPatternSize limits the width and height of the raster.
	MaxPatternSize = 3000

	// BorderSize is the width of the transparent border around the
	// raster.  Without it, a non-repeating image pattern would smear its
	// edge pixels across the whole fill area.
	BorderSize = 2
)

// Raster is a rasterized mesh.
type Raster struct {
	// Image holds the shading, surrounded by a transparent border of
	// BorderSize pixels.
	Image *image.RGBA

	// Offset and scale map image pixels to shading space: pixel (i, j)
	// has shading space coordinates (OffsetX + i*ScaleX, OffsetY + j*ScaleY).
	OffsetX, OffsetY float64
	ScaleX, ScaleY   float64
}

// Matrix returns the map from image pixels to shading space.
func (r *Raster) Matrix() matrix.Matrix {
	return matrix.Matrix{r.ScaleX, 0, 0, r.ScaleY, r.OffsetX, r.OffsetY}
}

// Context maps shading space to raster pixels while figures are drawn.
type Context struct {
	OffsetX, OffsetY float64
	ScaleX, ScaleY   float64
}

var errFigure = errors.New("illegal mesh figure")

// Rasterize draws the figures of a mesh shading.
//
// The scale factors give the size of one shading space unit in device
// pixels.  If maxSize is positive, it replaces MaxPatternSize.
func Rasterize(sh *oplist.ShadingIR, scaleX, scaleY float64, maxSize int) (*Raster, error) {
	if sh == nil || sh.Kind != oplist.ShadingMesh {
		return nil, errors.New("not a mesh shading")
	}
	if maxSize <= 0 {
		maxSize = MaxPatternSize
	}
	b := oplist.NormalizeRect(sh.Bounds)

	offsetX := math.Floor(b.LLx)
	offsetY := math.Floor(b.LLy)
	boundsWidth := math.Ceil(b.URx) - offsetX
	boundsHeight := math.Ceil(b.URy) - offsetY

	width := rasterSize(boundsWidth*scaleX, maxSize)
	height := rasterSize(boundsHeight*scaleY, maxSize)
	sx := boundsWidth / float64(width)
	sy := boundsHeight / float64(height)
	if boundsWidth == 0 {
		sx = 1
	}
	if boundsHeight == 0 {
		sy = 1
	}

	ctx := &Context{
		OffsetX: -offsetX,
		OffsetY: -offsetY,
		ScaleX:  1 / sx,
		ScaleY:  1 / sy,
	}

	data := image.NewRGBA(image.Rect(0, 0, width, height))
	if bg := sh.Background; bg != nil {
		for i := 0; i < len(data.Pix); i += 4 {
			data.Pix[i] = bg.R
			data.Pix[i+1] = bg.G
			data.Pix[i+2] = bg.B
			data.Pix[i+3] = 255
		}
	}
	if err := DrawFigures(data, sh, ctx); err != nil {
		return nil, err
	}

	padded := image.NewRGBA(image.Rect(0, 0, width+2*BorderSize, height+2*BorderSize))
	for y := range height {
		src := data.Pix[y*data.Stride : y*data.Stride+4*width]
		dst := padded.Pix[(y+BorderSize)*padded.Stride+4*BorderSize:]
		copy(dst, src)
	}

	return &Raster{
		Image:   padded,
		OffsetX: offsetX - BorderSize*sx,
		OffsetY: offsetY - BorderSize*sy,
		ScaleX:  sx,
		ScaleY:  sy,
	}, nil
}

func rasterSize(x float64, maxSize int) int {
	x = math.Ceil(math.Abs(x * ExpectedScale))
	if math.IsNaN(x) || x < 1 {
		return 1
	}
	if x > float64(maxSize) {
		return maxSize
	}
	return int(x)
}

// DrawFigures draws all figures of sh into img.  Pixels outside img are
// skipped.
func DrawFigures(img *image.RGBA, sh *oplist.ShadingIR, ctx *Context) error {
	for i := range sh.Figures {
		if err := drawFigure(img, sh, &sh.Figures[i], ctx); err != nil {
			return err
		}
	}
	return nil
}

func drawFigure(img *image.RGBA, sh *oplist.ShadingIR, fig *oplist.MeshFigure, ctx *Context) error {
	ps := fig.Coords
	cs := fig.Colors
	if len(cs) < len(ps) {
		return errFigure
	}
	for _, p := range ps {
		if p < 0 || p >= len(sh.Coords) {
			return errFigure
		}
	}
	for _, c := range cs[:len(ps)] {
		if c < 0 || c >= len(sh.Colors) {
			return errFigure
		}
	}

	switch fig.Type {
	case oplist.FigureLattice:
		vpr := fig.VerticesPerRow
		if vpr < 2 {
			return errFigure
		}
		rows := len(ps)/vpr - 1
		cols := vpr - 1
		for i := 0; i < rows; i++ {
			q := i * vpr
			for j := 0; j < cols; j, q = j+1, q+1 {
				drawTriangle(img, sh, ctx,
					ps[q], ps[q+1], ps[q+vpr],
					cs[q], cs[q+1], cs[q+vpr])
				drawTriangle(img, sh, ctx,
					ps[q+vpr+1], ps[q+1], ps[q+vpr],
					cs[q+vpr+1], cs[q+1], cs[q+vpr])
			}
		}
	case oplist.FigureTriangles:
		for i := 0; i+2 < len(ps); i += 3 {
			drawTriangle(img, sh, ctx,
				ps[i], ps[i+1], ps[i+2],
				cs[i], cs[i+1], cs[i+2])
		}
	default:
		return errFigure
	}
	return nil
}

// drawTriangle fills one Gouraud-shaded triangle, scanline by scanline.
func drawTriangle(img *image.RGBA, sh *oplist.ShadingIR, ctx *Context, p1, p2, p3, c1, c2, c3 int) {
	coords := sh.Coords
	if coords[p1].Y > coords[p2].Y {
		p1, p2 = p2, p1
		c1, c2 = c2, c1
	}
	if coords[p2].Y > coords[p3].Y {
		p2, p3 = p3, p2
		c2, c3 = c3, c2
	}
	if coords[p1].Y > coords[p2].Y {
		p1, p2 = p2, p1
		c1, c2 = c2, c1
	}

	x1 := (coords[p1].X + ctx.OffsetX) * ctx.ScaleX
	y1 := (coords[p1].Y + ctx.OffsetY) * ctx.ScaleY
	x2 := (coords[p2].X + ctx.OffsetX) * ctx.ScaleX
	y2 := (coords[p2].Y + ctx.OffsetY) * ctx.ScaleY
	x3 := (coords[p3].X + ctx.OffsetX) * ctx.ScaleX
	y3 := (coords[p3].Y + ctx.OffsetY) * ctx.ScaleY
	if !(y1 < y3) {
		return
	}

	col1 := rgb(sh, c1)
	col2 := rgb(sh, c2)
	col3 := rgb(sh, c3)

	bounds := img.Bounds()
	minY := max(jsRound(y1), bounds.Min.Y)
	maxY := min(jsRound(y3), bounds.Max.Y-1)
	for y := minY; y <= maxY; y++ {
		fy := float64(y)

		var xa float64
		var ca [3]float64
		if fy < y2 {
			var k float64
			switch {
			case fy < y1:
				k = 0
			case y1 == y2:
				k = 1
			default:
				k = (y1 - fy) / (y1 - y2)
			}
			xa = x1 - (x1-x2)*k
			ca = mix(col1, col2, k)
		} else {
			var k float64
			switch {
			case fy > y3:
				k = 1
			case y2 == y3:
				k = 0
			default:
				k = (y2 - fy) / (y2 - y3)
			}
			xa = x2 - (x2-x3)*k
			ca = mix(col2, col3, k)
		}

		var k float64
		switch {
		case fy < y1:
			k = 0
		case fy > y3:
			k = 1
		default:
			k = (y1 - fy) / (y1 - y3)
		}
		xb := x1 - (x1-x3)*k
		cb := mix(col1, col3, k)

		xLow := max(jsRound(min(xa, xb)), bounds.Min.X)
		xHigh := min(jsRound(max(xa, xb)), bounds.Max.X-1)
		j := img.PixOffset(xLow, y)
		for x := xLow; x <= xHigh; x++ {
			k := (xa - float64(x)) / (xa - xb)
			if k < 0 || math.IsNaN(k) {
				k = 0
			} else if k > 1 {
				k = 1
			}
			c := mix(ca, cb, k)
			img.Pix[j] = uint8(c[0])
			img.Pix[j+1] = uint8(c[1])
			img.Pix[j+2] = uint8(c[2])
			img.Pix[j+3] = 255
			j += 4
		}
	}
}

func rgb(sh *oplist.ShadingIR, i int) [3]float64 {
	c := sh.Colors[i]
	return [3]float64{float64(c.R), float64(c.G), float64(c.B)}
}

// mix returns a - (a-b)*k for each channel.
func mix(a, b [3]float64, k float64) [3]float64 {
	return [3]float64{
		a[0] - (a[0]-b[0])*k,
		a[1] - (a[1]-b[1])*k,
		a[2] - (a[2]-b[2])*k,
	}
}

// jsRound rounds half-way cases towards +∞.
func jsRound(x float64) int {
	return int(math.Floor(x + 0.5))
}
