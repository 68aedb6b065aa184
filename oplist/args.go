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
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// Args gives typed access to the arguments of an instruction.
//
// The accessors never fail.  Instead, the first mismatch is recorded in
// Err and later accessors return zero values.  Handlers read all
// arguments first and then check Err once.
type Args struct {
	Op   OpCode
	Vals []any
	Err  error
}

// NewArgs returns an accessor for the arguments of one instruction.
func NewArgs(op OpCode, vals []any) *Args {
	return &Args{Op: op, Vals: vals}
}

// Len returns the number of arguments.
func (a *Args) Len() int {
	return len(a.Vals)
}

// Has reports whether argument i is present and not nil.
func (a *Args) Has(i int) bool {
	return i < len(a.Vals) && a.Vals[i] != nil
}

// Value returns argument i, or nil if the argument is missing.
func (a *Args) Value(i int) any {
	if i < len(a.Vals) {
		return a.Vals[i]
	}
	return nil
}

func (a *Args) fail(i int, want string) {
	if a.Err != nil {
		return
	}
	if i >= len(a.Vals) {
		a.Err = Errorf(a.Op, "missing argument %d (%s)", i, want)
		return
	}
	a.Err = Errorf(a.Op, "argument %d: expected %s, got %T", i, want, a.Vals[i])
}

// Float returns argument i as a number.
func (a *Args) Float(i int) float64 {
	if a.Err != nil {
		return 0
	}
	switch x := a.Value(i).(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	}
	a.fail(i, "number")
	return 0
}

// Int returns argument i as an integer.  Non-integral numbers are
// truncated.
func (a *Args) Int(i int) int {
	if a.Err != nil {
		return 0
	}
	switch x := a.Value(i).(type) {
	case int:
		return x
	case float64:
		return int(x)
	}
	a.fail(i, "integer")
	return 0
}

// Byte returns argument i as a color component in the range 0, ..., 255.
// Values outside this range are clamped.
func (a *Args) Byte(i int) uint8 {
	x := a.Float(i)
	switch {
	case x <= 0:
		return 0
	case x >= 255:
		return 255
	default:
		return uint8(x + 0.5)
	}
}

// String returns argument i as a string.
func (a *Args) String(i int) string {
	if a.Err != nil {
		return ""
	}
	if s, ok := a.Value(i).(string); ok {
		return s
	}
	a.fail(i, "string")
	return ""
}

// Bool returns argument i as a boolean.  A missing argument is false.
func (a *Args) Bool(i int) bool {
	if a.Err != nil || !a.Has(i) {
		return false
	}
	if b, ok := a.Vals[i].(bool); ok {
		return b
	}
	a.fail(i, "boolean")
	return false
}

// Floats returns argument i as a slice of numbers.  A missing or nil
// argument gives a nil slice.
func (a *Args) Floats(i int) []float64 {
	if a.Err != nil || !a.Has(i) {
		return nil
	}
	switch x := a.Vals[i].(type) {
	case []float64:
		return x
	case []any:
		res := make([]float64, len(x))
		for j, v := range x {
			f, ok := v.(float64)
			if !ok {
				a.fail(i, "array of numbers")
				return nil
			}
			res[j] = f
		}
		return res
	}
	a.fail(i, "array of numbers")
	return nil
}

// Matrix returns argument i as a transformation matrix.
func (a *Args) Matrix(i int) matrix.Matrix {
	m, ok := a.OptMatrix(i)
	if !ok {
		a.fail(i, "matrix")
		return matrix.Identity
	}
	return m
}

// OptMatrix returns argument i as a transformation matrix.  If the
// argument is missing or nil, ok is false.
func (a *Args) OptMatrix(i int) (m matrix.Matrix, ok bool) {
	if a.Err != nil || !a.Has(i) {
		return matrix.Identity, false
	}
	switch x := a.Vals[i].(type) {
	case matrix.Matrix:
		return x, true
	case *matrix.Matrix:
		if x == nil {
			return matrix.Identity, false
		}
		return *x, true
	}
	v := a.Floats(i)
	if a.Err != nil {
		return matrix.Identity, false
	}
	if len(v) != 6 {
		a.fail(i, "matrix")
		return matrix.Identity, false
	}
	copy(m[:], v)
	return m, true
}

// Rect returns argument i as a rectangle.  Rectangles given as four numbers
// are interpreted as two opposite corners and are normalized.
func (a *Args) Rect(i int) rect.Rect {
	r, ok := a.OptRect(i)
	if !ok {
		a.fail(i, "rectangle")
	}
	return r
}

// OptRect returns argument i as a rectangle.  If the argument is missing
// or nil, ok is false.
func (a *Args) OptRect(i int) (r rect.Rect, ok bool) {
	if a.Err != nil || !a.Has(i) {
		return rect.Rect{}, false
	}
	switch x := a.Vals[i].(type) {
	case rect.Rect:
		return NormalizeRect(x), true
	case *rect.Rect:
		if x == nil {
			return rect.Rect{}, false
		}
		return NormalizeRect(*x), true
	}
	v := a.Floats(i)
	if a.Err != nil {
		return rect.Rect{}, false
	}
	if len(v) != 4 {
		a.fail(i, "rectangle")
		return rect.Rect{}, false
	}
	return NormalizeRect(rect.Rect{LLx: v[0], LLy: v[1], URx: v[2], URy: v[3]}), true
}

// NormalizeRect orders the corners of r such that LLx <= URx and
// LLy <= URy.
func NormalizeRect(r rect.Rect) rect.Rect {
	if r.LLx > r.URx {
		r.LLx, r.URx = r.URx, r.LLx
	}
	if r.LLy > r.URy {
		r.LLy, r.URy = r.URy, r.LLy
	}
	return r
}
