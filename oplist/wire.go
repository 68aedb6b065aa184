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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/pdfpaint/surface"
)

// wireList is the JSON representation of a display list.  The field names
// fnArray and argsArray are accepted as aliases.
type wireList struct {
	Opcodes   []int             `json:"opcodes"`
	FnArray   []int             `json:"fnArray"`
	Args      []json.RawMessage `json:"args"`
	ArgsArray []json.RawMessage `json:"argsArray"`
	LastChunk *bool             `json:"lastChunk"`

	SeparateAnnots *struct {
		Form   bool `json:"form"`
		Canvas bool `json:"canvas"`
	} `json:"separateAnnots"`
}

// DecodeJSON reads a display list from its JSON representation.
//
// If the "lastChunk" field is missing, the list is treated as complete.
func DecodeJSON(data []byte) (*List, error) {
	w := &wireList{}
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("display list: %w", err)
	}
	return w.decode()
}

func (w *wireList) decode() (*List, error) {
	ops := w.Opcodes
	if ops == nil {
		ops = w.FnArray
	}
	args := w.Args
	if args == nil {
		args = w.ArgsArray
	}
	if len(args) > len(ops) {
		return nil, &FormatError{Index: len(ops), Msg: "more argument lists than opcodes"}
	}

	l := &List{
		Opcodes:   make([]OpCode, len(ops)),
		Args:      make([][]any, len(ops)),
		LastChunk: w.LastChunk == nil || *w.LastChunk,
	}
	if w.SeparateAnnots != nil {
		l.SeparateAnnots = &SeparateAnnots{
			Form:   w.SeparateAnnots.Form,
			Canvas: w.SeparateAnnots.Canvas,
		}
	}
	for i, code := range ops {
		op := OpCode(code)
		if code <= 0 || code >= NumOpCodes {
			return nil, &FormatError{Op: op, Index: i, Msg: "unknown opcode"}
		}
		var raw json.RawMessage
		if i < len(args) {
			raw = args[i]
		}
		vals, err := decodeArgs(op, raw)
		if err != nil {
			// Errors from nested display lists already carry their own
			// index and are reported as part of this instruction.
			var fe *FormatError
			if errors.As(err, &fe) && fe.Index < 0 {
				fe.Index = i
				return nil, err
			}
			return nil, &FormatError{Op: op, Index: i, Msg: err.Error()}
		}
		l.Opcodes[i] = op
		l.Args[i] = vals
	}
	return l, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func decodeArgs(op OpCode, raw json.RawMessage) ([]any, error) {
	var items []json.RawMessage
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, Errorf(op, "arguments must be an array: %v", err)
		}
	}
	need := func(n int) error {
		if len(items) < n {
			return Errorf(op, "expected %d arguments, got %d", n, len(items))
		}
		return nil
	}

	switch op {
	case SetDash:
		if err := need(2); err != nil {
			return nil, err
		}
		var arr []float64
		var phase float64
		if err := unmarshal(op, items[0], &arr); err != nil {
			return nil, err
		}
		if err := unmarshal(op, items[1], &phase); err != nil {
			return nil, err
		}
		return []any{arr, phase}, nil

	case SetGState:
		if err := need(1); err != nil {
			return nil, err
		}
		entries, err := decodeGState(items[0])
		if err != nil {
			return nil, err
		}
		return []any{entries}, nil

	case ShowText, ShowSpacedText, NextLineShowText:
		if err := need(1); err != nil {
			return nil, err
		}
		text, err := decodeText(op, items[0])
		if err != nil {
			return nil, err
		}
		return []any{text}, nil

	case NextLineSetSpacingShowText:
		if err := need(3); err != nil {
			return nil, err
		}
		var ws, cs float64
		if err := unmarshal(op, items[0], &ws); err != nil {
			return nil, err
		}
		if err := unmarshal(op, items[1], &cs); err != nil {
			return nil, err
		}
		text, err := decodeText(op, items[2])
		if err != nil {
			return nil, err
		}
		return []any{ws, cs, text}, nil

	case SetStrokeColorN, SetFillColorN:
		if len(items) > 0 && isObject(items[0]) {
			pat, err := decodePattern(op, items[0])
			if err != nil {
				return nil, err
			}
			res := []any{pat}
			if len(items) > 1 && !isNull(items[1]) {
				c, err := decodeColor(op, items[1])
				if err != nil {
					return nil, err
				}
				res = append(res, c)
			}
			return res, nil
		}

	case ShadingFill:
		if err := need(1); err != nil {
			return nil, err
		}
		pat, err := decodePattern(op, items[0])
		if err != nil {
			return nil, err
		}
		sh, ok := pat.(*ShadingIR)
		if !ok {
			return nil, Errorf(op, "expected a shading")
		}
		return []any{sh}, nil

	case BeginMarkedContentProps, MarkPointProps:
		if err := need(1); err != nil {
			return nil, err
		}
		var tag string
		if err := unmarshal(op, items[0], &tag); err != nil {
			return nil, err
		}
		res := []any{tag, (*MarkedContentProps)(nil)}
		if len(items) > 1 && isObject(items[1]) {
			props := &MarkedContentProps{}
			if err := unmarshal(op, items[1], props); err != nil {
				return nil, err
			}
			res[1] = props
		}
		return res, nil

	case BeginGroup, EndGroup:
		if err := need(1); err != nil {
			return nil, err
		}
		g, err := decodeGroup(op, items[0])
		if err != nil {
			return nil, err
		}
		return []any{g}, nil

	case PaintInlineImageXObject:
		if err := need(1); err != nil {
			return nil, err
		}
		img, err := decodeImage(op, items[0])
		if err != nil {
			return nil, err
		}
		return []any{img}, nil

	case PaintInlineImageXObjectGroup:
		if err := need(2); err != nil {
			return nil, err
		}
		img, err := decodeImage(op, items[0])
		if err != nil {
			return nil, err
		}
		var wp []struct {
			Transform []float64 `json:"transform"`
			X         int       `json:"x"`
			Y         int       `json:"y"`
			W         int       `json:"w"`
			H         int       `json:"h"`
		}
		if err := unmarshal(op, items[1], &wp); err != nil {
			return nil, err
		}
		places := make([]ImagePlacement, len(wp))
		for i, p := range wp {
			m, err := toMatrix(op, p.Transform)
			if err != nil {
				return nil, err
			}
			places[i] = ImagePlacement{Transform: m, X: p.X, Y: p.Y, W: p.W, H: p.H}
		}
		return []any{img, places}, nil

	case PaintImageMaskXObject:
		if err := need(1); err != nil {
			return nil, err
		}
		m, err := decodeMask(op, items[0])
		if err != nil {
			return nil, err
		}
		return []any{m}, nil

	case PaintImageMaskXObjectGroup:
		if err := need(1); err != nil {
			return nil, err
		}
		var parts []json.RawMessage
		if err := unmarshal(op, items[0], &parts); err != nil {
			return nil, err
		}
		places := make([]MaskPlacement, len(parts))
		for i, part := range parts {
			m, err := decodeMask(op, part)
			if err != nil {
				return nil, err
			}
			var tr struct {
				Transform []float64 `json:"transform"`
			}
			if err := unmarshal(op, part, &tr); err != nil {
				return nil, err
			}
			M, err := toMatrix(op, tr.Transform)
			if err != nil {
				return nil, err
			}
			places[i] = MaskPlacement{Mask: m, Transform: M}
		}
		return []any{places}, nil

	case PaintImageMaskXObjectRepeat:
		if err := need(6); err != nil {
			return nil, err
		}
		m, err := decodeMask(op, items[0])
		if err != nil {
			return nil, err
		}
		rest, err := decodePlain(op, items[1:])
		if err != nil {
			return nil, err
		}
		return append([]any{m}, rest...), nil

	case ConstructPath:
		if err := need(2); err != nil {
			return nil, err
		}
		var codes []int
		var coords []float64
		if err := unmarshal(op, items[0], &codes); err != nil {
			return nil, err
		}
		if err := unmarshal(op, items[1], &coords); err != nil {
			return nil, err
		}
		ops := make([]OpCode, len(codes))
		for i, c := range codes {
			ops[i] = OpCode(c)
		}
		return []any{ops, coords}, nil
	}

	return decodePlain(op, items)
}

func unmarshal(op OpCode, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return Errorf(op, "%v", err)
	}
	return nil
}

// decodePlain decodes arguments consisting of numbers, strings, booleans
// and arrays of these.  Arrays of numbers become []float64.
func decodePlain(op OpCode, items []json.RawMessage) ([]any, error) {
	res := make([]any, len(items))
	for i, item := range items {
		var v any
		if err := unmarshal(op, item, &v); err != nil {
			return nil, err
		}
		res[i] = simplify(v)
	}
	return res, nil
}

func simplify(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	fs := make([]float64, len(arr))
	for i, e := range arr {
		f, ok := e.(float64)
		if !ok {
			for j := range arr {
				arr[j] = simplify(arr[j])
			}
			return arr
		}
		fs[i] = f
	}
	return fs
}

func toMatrix(op OpCode, v []float64) (matrix.Matrix, error) {
	if v == nil {
		return matrix.Identity, nil
	}
	if len(v) != 6 {
		return matrix.Identity, Errorf(op, "matrix must have 6 elements, not %d", len(v))
	}
	var m matrix.Matrix
	copy(m[:], v)
	return m, nil
}

func toOptMatrix(op OpCode, v []float64) (*matrix.Matrix, error) {
	if v == nil {
		return nil, nil
	}
	m, err := toMatrix(op, v)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func toOptRect(op OpCode, v []float64) (*rect.Rect, error) {
	if v == nil {
		return nil, nil
	}
	if len(v) != 4 {
		return nil, Errorf(op, "rectangle must have 4 elements, not %d", len(v))
	}
	r := NormalizeRect(rect.Rect{LLx: v[0], LLy: v[1], URx: v[2], URy: v[3]})
	return &r, nil
}

func toVec(op OpCode, v []float64) (vec.Vec2, error) {
	if len(v) != 2 {
		return vec.Vec2{}, Errorf(op, "point must have 2 elements, not %d", len(v))
	}
	return vec.Vec2{X: v[0], Y: v[1]}, nil
}

// decodeColor reads a color given either as [r, g, b] or as "#rrggbb".
func decodeColor(op OpCode, raw json.RawMessage) (surface.Color, error) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return ParseHexColor(op, s)
	}
	var v []float64
	if err := unmarshal(op, raw, &v); err != nil {
		return surface.Color{}, err
	}
	if len(v) != 3 {
		return surface.Color{}, Errorf(op, "color must have 3 components, not %d", len(v))
	}
	a := &Args{Op: op, Vals: []any{v[0], v[1], v[2]}}
	return surface.Color{R: a.Byte(0), G: a.Byte(1), B: a.Byte(2)}, nil
}

// ParseHexColor parses a color of the form "#rrggbb".
func ParseHexColor(op OpCode, s string) (surface.Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return surface.Color{}, Errorf(op, "invalid color %q", s)
	}
	x, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return surface.Color{}, Errorf(op, "invalid color %q", s)
	}
	return surface.Color{R: uint8(x >> 16), G: uint8(x >> 8), B: uint8(x)}, nil
}

func decodeGState(raw json.RawMessage) ([]GStateEntry, error) {
	const op = SetGState
	var pairs [][]json.RawMessage
	if err := unmarshal(op, raw, &pairs); err != nil {
		return nil, err
	}
	res := make([]GStateEntry, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, Errorf(op, "entries must be [key, value] pairs")
		}
		var key string
		if err := unmarshal(op, pair[0], &key); err != nil {
			return nil, err
		}
		val := pair[1]
		var v any
		switch key {
		case "LW", "ML", "FL", "CA", "ca":
			var x float64
			if err := unmarshal(op, val, &x); err != nil {
				return nil, err
			}
			v = x
		case "LC", "LJ":
			var x float64
			if err := unmarshal(op, val, &x); err != nil {
				return nil, err
			}
			v = int(x)
		case "D":
			var d []json.RawMessage
			if err := unmarshal(op, val, &d); err != nil {
				return nil, err
			}
			if len(d) != 2 {
				return nil, Errorf(op, "D must be [array, phase]")
			}
			dash := Dash{}
			if err := unmarshal(op, d[0], &dash.Array); err != nil {
				return nil, err
			}
			if err := unmarshal(op, d[1], &dash.Phase); err != nil {
				return nil, err
			}
			v = dash
		case "RI", "BM":
			var s string
			if err := unmarshal(op, val, &s); err != nil {
				return nil, err
			}
			v = s
		case "Font":
			var f []json.RawMessage
			if err := unmarshal(op, val, &f); err != nil {
				return nil, err
			}
			if len(f) != 2 {
				return nil, Errorf(op, "Font must be [id, size]")
			}
			ref := FontRef{}
			if err := unmarshal(op, f[0], &ref.ID); err != nil {
				return nil, err
			}
			if err := unmarshal(op, f[1], &ref.Size); err != nil {
				return nil, err
			}
			v = ref
		case "SMask":
			var b bool
			if json.Unmarshal(val, &b) == nil {
				v = b
			} else {
				v = !isNull(val)
			}
		case "TR":
			var maps [][]uint8
			var b bool
			if isNull(val) || json.Unmarshal(val, &b) == nil {
				v = (*surface.TransferFilter)(nil)
				break
			}
			if err := unmarshal(op, val, &maps); err != nil {
				return nil, err
			}
			tr := &surface.TransferFilter{}
			dst := []*[]uint8{&tr.R, &tr.G, &tr.B, &tr.A}
			for i, m := range maps {
				if i >= len(dst) {
					break
				}
				if m != nil && len(m) != 256 {
					return nil, Errorf(op, "transfer map must have 256 entries")
				}
				*dst[i] = m
			}
			v = tr
		default:
			var x any
			if err := unmarshal(op, val, &x); err != nil {
				return nil, err
			}
			v = simplify(x)
		}
		res = append(res, GStateEntry{Key: key, Value: v})
	}
	return res, nil
}

type wireGlyph struct {
	Code           uint32    `json:"code"`
	Unicode        string    `json:"unicode"`
	GID            uint16    `json:"gid"`
	Width          float64   `json:"width"`
	VMetric        []float64 `json:"vmetric"`
	IsSpace        bool      `json:"isSpace"`
	IsInFont       *bool     `json:"isInFont"`
	OperatorListID string    `json:"operatorListId"`
}

func decodeText(op OpCode, raw json.RawMessage) ([]TextItem, error) {
	var items []json.RawMessage
	if err := unmarshal(op, raw, &items); err != nil {
		return nil, err
	}
	res := make([]TextItem, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		if !isObject(item) {
			var adj float64
			if err := unmarshal(op, item, &adj); err != nil {
				return nil, err
			}
			res = append(res, TextItem{Adjust: adj})
			continue
		}
		var wg wireGlyph
		if err := unmarshal(op, item, &wg); err != nil {
			return nil, err
		}
		g := &Glyph{
			Code:           wg.Code,
			Unicode:        wg.Unicode,
			GID:            glyph.ID(wg.GID),
			Width:          wg.Width,
			VMetric:        wg.VMetric,
			IsSpace:        wg.IsSpace,
			IsInFont:       wg.IsInFont == nil || *wg.IsInFont,
			OperatorListID: wg.OperatorListID,
		}
		res = append(res, TextItem{Glyph: g})
	}
	return res, nil
}

type wirePattern struct {
	Type   string    `json:"type"`
	BBox   []float64 `json:"bbox"`
	Matrix []float64 `json:"matrix"`

	// tiling patterns
	Ops        *wireList `json:"ops"`
	XStep      float64   `json:"xstep"`
	YStep      float64   `json:"ystep"`
	PaintType  int       `json:"paintType"`
	TilingType int       `json:"tilingType"`

	// axial and radial shadings
	Stops [][2]json.RawMessage `json:"stops"`
	P0    []float64            `json:"p0"`
	P1    []float64            `json:"p1"`
	R0    float64              `json:"r0"`
	R1    float64              `json:"r1"`

	// mesh shadings
	Coords     []float64       `json:"coords"`
	Colors     []uint8         `json:"colors"`
	Figures    []wireFigure    `json:"figures"`
	Bounds     []float64       `json:"bounds"`
	Background json.RawMessage `json:"background"`
}

type wireFigure struct {
	Type           string `json:"type"`
	Coords         []int  `json:"coords"`
	Colors         []int  `json:"colors"`
	VerticesPerRow int    `json:"verticesPerRow"`
}

// decodePattern reads a tiling pattern (*TilingIR) or a shading
// (*ShadingIR).
func decodePattern(op OpCode, raw json.RawMessage) (any, error) {
	var w wirePattern
	if err := unmarshal(op, raw, &w); err != nil {
		return nil, err
	}
	bbox, err := toOptRect(op, w.BBox)
	if err != nil {
		return nil, err
	}
	M, err := toOptMatrix(op, w.Matrix)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(w.Type) {
	case "tiling":
		if w.Ops == nil {
			return nil, Errorf(op, "tiling pattern without display list")
		}
		ops, err := w.Ops.decode()
		if err != nil {
			return nil, fmt.Errorf("tiling pattern: %w", err)
		}
		if bbox == nil {
			return nil, Errorf(op, "tiling pattern without bbox")
		}
		t := &TilingIR{
			Ops:        ops,
			Matrix:     matrix.Identity,
			BBox:       *bbox,
			XStep:      w.XStep,
			YStep:      w.YStep,
			PaintType:  w.PaintType,
			TilingType: w.TilingType,
		}
		if M != nil {
			t.Matrix = *M
		}
		return t, nil

	case "axial", "radial":
		sh := &ShadingIR{
			Kind:   ShadingAxial,
			BBox:   bbox,
			Matrix: M,
			R0:     w.R0,
			R1:     w.R1,
		}
		if strings.EqualFold(w.Type, "radial") {
			sh.Kind = ShadingRadial
		}
		for _, s := range w.Stops {
			var off float64
			if err := unmarshal(op, s[0], &off); err != nil {
				return nil, err
			}
			c, err := decodeColor(op, s[1])
			if err != nil {
				return nil, err
			}
			sh.Stops = append(sh.Stops, surface.Stop{Offset: off, Color: c})
		}
		if sh.P0, err = toVec(op, w.P0); err != nil {
			return nil, err
		}
		if sh.P1, err = toVec(op, w.P1); err != nil {
			return nil, err
		}
		return sh, nil

	case "mesh":
		sh := &ShadingIR{
			Kind:   ShadingMesh,
			BBox:   bbox,
			Matrix: M,
		}
		if len(w.Coords)%2 != 0 || len(w.Colors)%3 != 0 {
			return nil, Errorf(op, "mesh coordinates or colors have odd length")
		}
		for i := 0; i < len(w.Coords); i += 2 {
			sh.Coords = append(sh.Coords, vec.Vec2{X: w.Coords[i], Y: w.Coords[i+1]})
		}
		for i := 0; i < len(w.Colors); i += 3 {
			sh.Colors = append(sh.Colors, surface.Color{R: w.Colors[i], G: w.Colors[i+1], B: w.Colors[i+2]})
		}
		for _, f := range w.Figures {
			fig := MeshFigure{
				Coords:         f.Coords,
				Colors:         f.Colors,
				VerticesPerRow: f.VerticesPerRow,
			}
			switch f.Type {
			case "triangles":
				fig.Type = FigureTriangles
			case "lattice":
				fig.Type = FigureLattice
				if fig.VerticesPerRow < 2 {
					return nil, Errorf(op, "lattice with %d vertices per row", fig.VerticesPerRow)
				}
			default:
				return nil, Errorf(op, "unknown mesh figure type %q", f.Type)
			}
			if len(fig.Coords) != len(fig.Colors) {
				return nil, Errorf(op, "mesh figure has %d coordinates but %d colors",
					len(fig.Coords), len(fig.Colors))
			}
			for i := range fig.Coords {
				if fig.Coords[i] < 0 || fig.Coords[i] >= len(sh.Coords) ||
					fig.Colors[i] < 0 || fig.Colors[i] >= len(sh.Colors) {
					return nil, Errorf(op, "mesh figure index out of range")
				}
			}
			sh.Figures = append(sh.Figures, fig)
		}
		bounds, err := toOptRect(op, w.Bounds)
		if err != nil {
			return nil, err
		}
		if bounds == nil {
			return nil, Errorf(op, "mesh shading without bounds")
		}
		sh.Bounds = *bounds
		if !isNull(w.Background) {
			c, err := decodeColor(op, w.Background)
			if err != nil {
				return nil, err
			}
			sh.Background = &c
		}
		return sh, nil

	case "dummy":
		return &ShadingIR{Kind: ShadingDummy}, nil
	}
	return nil, Errorf(op, "unknown pattern type %q", w.Type)
}

func decodeGroup(op OpCode, raw json.RawMessage) (*GroupIR, error) {
	var w struct {
		BBox     []float64 `json:"bbox"`
		Matrix   []float64 `json:"matrix"`
		Isolated bool      `json:"isolated"`
		Knockout bool      `json:"knockout"`
		SMask    *struct {
			Subtype     string          `json:"subtype"`
			Backdrop    json.RawMessage `json:"backdrop"`
			TransferMap []uint8         `json:"transferMap"`
		} `json:"smask"`
	}
	if err := unmarshal(op, raw, &w); err != nil {
		return nil, err
	}
	g := &GroupIR{
		Isolated: w.Isolated,
		Knockout: w.Knockout,
	}
	var err error
	if g.BBox, err = toOptRect(op, w.BBox); err != nil {
		return nil, err
	}
	if g.Matrix, err = toOptMatrix(op, w.Matrix); err != nil {
		return nil, err
	}
	if w.SMask != nil {
		sm := &SMaskIR{Subtype: w.SMask.Subtype}
		if !isNull(w.SMask.Backdrop) {
			c, err := decodeColor(op, w.SMask.Backdrop)
			if err != nil {
				return nil, err
			}
			sm.Backdrop = &c
		}
		if w.SMask.TransferMap != nil {
			if len(w.SMask.TransferMap) != 256 {
				return nil, Errorf(op, "transfer map must have 256 entries")
			}
			sm.TransferMap = w.SMask.TransferMap
		}
		g.SMask = sm
	}
	return g, nil
}

type wireImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Kind        int    `json:"kind"`
	Data        []byte `json:"data"`
	Count       int    `json:"count"`
	Interpolate bool   `json:"interpolate"`
}

func decodeImage(op OpCode, raw json.RawMessage) (*ImageData, error) {
	var w wireImage
	if err := unmarshal(op, raw, &w); err != nil {
		return nil, err
	}
	if w.Width <= 0 || w.Height <= 0 {
		return nil, Errorf(op, "invalid image size %dx%d", w.Width, w.Height)
	}
	switch ImageKind(w.Kind) {
	case Grayscale1BPP, RGB24, RGBA32:
	default:
		return nil, Errorf(op, "unknown image kind %d", w.Kind)
	}
	return &ImageData{
		Width:       w.Width,
		Height:      w.Height,
		Kind:        ImageKind(w.Kind),
		Data:        w.Data,
		Interpolate: w.Interpolate,
	}, nil
}

func decodeMask(op OpCode, raw json.RawMessage) (*ImageMask, error) {
	var w wireImage
	if err := unmarshal(op, raw, &w); err != nil {
		return nil, err
	}
	if w.Width <= 0 || w.Height <= 0 {
		return nil, Errorf(op, "invalid mask size %dx%d", w.Width, w.Height)
	}
	if len(w.Data) < (w.Width+7)/8*w.Height {
		return nil, Errorf(op, "mask data too short")
	}
	return &ImageMask{
		Width:       w.Width,
		Height:      w.Height,
		Data:        w.Data,
		Count:       w.Count,
		Interpolate: w.Interpolate,
	}, nil
}

// DecodeObject reads an object for the object registry.  The result is
// either an *ImageData (type "image") or a *Font (type "font").
//
// Fonts carry their outlines as an embedded sfnt file in the "file" field,
// or are Type 3 fonts with glyph procedures in "charProcs".  Fonts with
// neither are marked with MissingFile.
func DecodeObject(data []byte) (any, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("object: %w", err)
	}
	switch head.Type {
	case "image":
		return decodeImage(PaintImageXObject, data)
	case "font":
		return decodeFont(data)
	}
	return nil, fmt.Errorf("object: unknown type %q", head.Type)
}

func decodeFont(data []byte) (*Font, error) {
	const op = SetFont
	var w struct {
		Name            string               `json:"name"`
		FontMatrix      []float64            `json:"fontMatrix"`
		Type3           bool                 `json:"type3"`
		CharProcs       map[string]*wireList `json:"charProcs"`
		File            []byte               `json:"file"`
		Vertical        bool                 `json:"vertical"`
		DefaultVMetrics []float64            `json:"defaultVMetrics"`
	}
	if err := unmarshal(op, data, &w); err != nil {
		return nil, err
	}
	f := &Font{
		Name:     w.Name,
		Type3:    w.Type3,
		Vertical: w.Vertical,
	}
	if w.FontMatrix != nil {
		m, err := toMatrix(op, w.FontMatrix)
		if err != nil {
			return nil, err
		}
		f.FontMatrix = m
	}
	copy(f.DefaultVMetrics[:], w.DefaultVMetrics)
	if len(w.CharProcs) > 0 {
		f.CharProcs = make(map[string]*List, len(w.CharProcs))
		for id, wl := range w.CharProcs {
			l, err := wl.decode()
			if err != nil {
				return nil, fmt.Errorf("glyph %q: %w", id, err)
			}
			f.CharProcs[id] = l
		}
	}
	if len(w.File) > 0 {
		sf, err := sfnt.Read(bytes.NewReader(w.File))
		if err != nil {
			return nil, fmt.Errorf("font %q: %w", w.Name, err)
		}
		f.Outlines = sf
	}
	f.MissingFile = !f.Type3 && f.Outlines == nil
	return f, nil
}
