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

package affine

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func rotate(phi float64) matrix.Matrix {
	c := math.Cos(phi)
	s := math.Sin(phi)
	return matrix.Matrix{c, s, -s, c, 0, 0}
}

var testMatrices = []matrix.Matrix{
	Identity,
	{2, 3, 4, 5, 6, 7},
	Translate(-0.5, 0.5),
	Translate(1, 2),
	Scale(0.5, 0.5),
	Scale(3, 4),
	Scale(-1, -1),
	Scale(2, -3),
	rotate(0.1),
	rotate(math.Pi / 2),
	rotate(math.Pi),
	{0, -2, 3, 0, 10, 20},
}

func TestIdentity(t *testing.T) {
	for i, A := range testMatrices {
		t.Run(fmt.Sprintf("mat%d", i), func(t *testing.T) {
			if d := cmp.Diff(A, Transform(A, Identity)); d != "" {
				t.Error(d)
			}
			if d := cmp.Diff(A, Transform(Identity, A)); d != "" {
				t.Error(d)
			}
		})
	}
}

// TestTransformOrder checks that Transform(m1, m2) applies m2 first.
func TestTransformOrder(t *testing.T) {
	p := vec.Vec2{X: 1.5, Y: -2}
	for i, m1 := range testMatrices {
		for j, m2 := range testMatrices {
			got := Apply(Transform(m1, m2), p)
			want := Apply(m1, Apply(m2, p))
			if d := cmp.Diff(want, got, cmpopts.EquateApprox(1e-9, 1e-9)); d != "" {
				t.Errorf("%d/%d: %s", i, j, d)
			}
		}
	}
}

func TestInvert(t *testing.T) {
	for i, A := range testMatrices {
		t.Run(fmt.Sprintf("mat%d", i), func(t *testing.T) {
			Ainv := Invert(A)
			B := Transform(Ainv, A)
			if d := cmp.Diff(Identity, B, cmpopts.EquateApprox(1e-6, 1e-6)); d != "" {
				t.Error(d)
			}
			C := Invert(Ainv)
			if d := cmp.Diff(A, C, cmpopts.EquateApprox(1e-6, 1e-6)); d != "" {
				t.Error(d)
			}

			p := vec.Vec2{X: 3, Y: -7}
			q := ApplyInverse(A, Apply(A, p))
			if d := cmp.Diff(p, q, cmpopts.EquateApprox(1e-9, 1e-9)); d != "" {
				t.Error(d)
			}
		})
	}
}

// TestInvertSingular checks that singular matrices produce non-finite
// values instead of panicking.
func TestInvertSingular(t *testing.T) {
	singular := []matrix.Matrix{
		{0, 0, 0, 0, 0, 0},
		{1, 2, 2, 4, 5, 6},
		{1, 0, 0, 0, 0, 0},
	}
	for _, m := range singular {
		inv := Invert(m)
		finite := true
		for _, x := range inv {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				finite = false
			}
		}
		if finite {
			t.Errorf("Invert(%v) = %v, expected non-finite entries", m, inv)
		}

		p := ApplyInverse(m, vec.Vec2{X: 1, Y: 1})
		if !math.IsNaN(p.X) && !math.IsInf(p.X, 0) {
			t.Errorf("ApplyInverse(%v) = %v, expected non-finite result", m, p)
		}
	}
}

func TestTransformRect(t *testing.T) {
	r := rect.Rect{LLx: 0, LLy: 0, URx: 2, URy: 1}
	cases := []struct {
		m    matrix.Matrix
		want rect.Rect
	}{
		{Identity, r},
		{Translate(1, 2), rect.Rect{LLx: 1, LLy: 2, URx: 3, URy: 3}},
		{Scale(-1, 2), rect.Rect{LLx: -2, LLy: 0, URx: 0, URy: 2}},
		{rotate(math.Pi / 2), rect.Rect{LLx: -1, LLy: 0, URx: 0, URy: 2}},
	}
	for i, c := range cases {
		got := TransformRect(c.m, r)
		if d := cmp.Diff(c.want, got, cmpopts.EquateApprox(0, 1e-12)); d != "" {
			t.Errorf("%d: %s", i, d)
		}
	}
}

func TestSingularValueScale(t *testing.T) {
	cases := []struct {
		m      matrix.Matrix
		sx, sy float64
	}{
		{Identity, 1, 1},
		{Scale(3, 4), 4, 3},
		{Scale(-2, 2), 2, 2},
		{rotate(0.7), 1, 1},
		{Transform(rotate(0.3), Scale(5, 2)), 5, 2},
		{matrix.Matrix{0, 0, 0, 0, 1, 1}, 1, 1},
	}
	for i, c := range cases {
		sx, sy := SingularValueScale(c.m)
		got := [2]float64{sx, sy}
		want := [2]float64{c.sx, c.sy}
		if d := cmp.Diff(want, got, cmpopts.EquateApprox(1e-9, 1e-9)); d != "" {
			t.Errorf("%d: %s", i, d)
		}
	}
}

func TestIntersect(t *testing.T) {
	a := rect.Rect{LLx: 0, LLy: 0, URx: 10, URy: 10}
	cases := []struct {
		b    rect.Rect
		want rect.Rect
		ok   bool
	}{
		{rect.Rect{LLx: 5, LLy: 5, URx: 15, URy: 15}, rect.Rect{LLx: 5, LLy: 5, URx: 10, URy: 10}, true},
		{rect.Rect{LLx: 15, LLy: 15, URx: 5, URy: 5}, rect.Rect{LLx: 5, LLy: 5, URx: 10, URy: 10}, true},
		{rect.Rect{LLx: 10, LLy: 0, URx: 20, URy: 10}, rect.Rect{LLx: 10, LLy: 0, URx: 10, URy: 10}, true},
		{rect.Rect{LLx: 11, LLy: 0, URx: 20, URy: 10}, rect.Rect{}, false},
		{rect.Rect{LLx: 0, LLy: -5, URx: 10, URy: -1}, rect.Rect{}, false},
	}
	for i, c := range cases {
		got, ok := Intersect(a, c.b)
		if ok != c.ok {
			t.Errorf("%d: ok = %t, want %t", i, ok, c.ok)
			continue
		}
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("%d: %s", i, d)
		}
	}
}

// TestScaleMinMax compares ScaleMinMax against transforming the corners of
// the box one by one.
func TestScaleMinMax(t *testing.T) {
	local := MinMax{MinX: -1, MinY: 2, MaxX: 3, MaxY: 5}
	for i, m := range testMatrices {
		if !IsScaling(m) {
			continue
		}
		got := local
		ScaleMinMax(m, &got)

		want := EmptyMinMax()
		want.AddRect(m, local.Rect())

		if d := cmp.Diff(want, got, cmpopts.EquateApprox(1e-9, 1e-9)); d != "" {
			t.Errorf("mat%d: %s", i, d)
		}
	}
}

func TestMinMaxEmpty(t *testing.T) {
	mm := EmptyMinMax()
	if !mm.IsEmpty() {
		t.Error("new accumulator is not empty")
	}
	mm.Add(vec.Vec2{X: 1, Y: 2})
	if mm.IsEmpty() {
		t.Error("accumulator is empty after Add")
	}
	want := MinMax{MinX: 1, MinY: 2, MaxX: 1, MaxY: 2}
	if d := cmp.Diff(want, mm); d != "" {
		t.Error(d)
	}
	mm.Reset()
	if !mm.IsEmpty() {
		t.Error("accumulator is not empty after Reset")
	}
}

// TestBezierBBox checks that the computed box contains densely sampled
// points on random curves, and that it is tight.
func TestBezierBBox(t *testing.T) {
	const (
		numCurves  = 1000
		numSamples = 10000
	)
	rng := rand.New(rand.NewSource(1))
	randPoint := func() vec.Vec2 {
		return vec.Vec2{X: rng.Float64(), Y: rng.Float64()}
	}

	for i := range numCurves {
		p0, p1, p2, p3 := randPoint(), randPoint(), randPoint(), randPoint()
		box := BezierBBox(p0, p1, p2, p3)

		sampled := EmptyMinMax()
		for k := 0; k <= numSamples; k++ {
			p := bezierPoint(p0, p1, p2, p3, float64(k)/numSamples)
			if p.X < box.LLx-1e-12 || p.X > box.URx+1e-12 ||
				p.Y < box.LLy-1e-12 || p.Y > box.URy+1e-12 {
				t.Fatalf("curve %d: point %v outside of %v", i, p, box)
			}
			sampled.Add(p)
		}

		if d := cmp.Diff(sampled.Rect(), box, cmpopts.EquateApprox(0, 1e-6)); d != "" {
			t.Fatalf("curve %d: box not tight: %s", i, d)
		}
	}
}

func TestBezierDegenerate(t *testing.T) {
	// a straight line given as a cubic
	p0 := vec.Vec2{X: 0, Y: 0}
	p3 := vec.Vec2{X: 3, Y: 3}
	box := BezierBBox(p0, vec.Vec2{X: 1, Y: 1}, vec.Vec2{X: 2, Y: 2}, p3)
	want := rect.Rect{LLx: 0, LLy: 0, URx: 3, URy: 3}
	if d := cmp.Diff(want, box, cmpopts.EquateApprox(0, 1e-12)); d != "" {
		t.Error(d)
	}

	// a curve overshooting its end points
	box = BezierBBox(p0, vec.Vec2{X: 0, Y: 4}, vec.Vec2{X: 1, Y: 4}, vec.Vec2{X: 1, Y: 0})
	if math.Abs(box.URy-3) > 1e-12 {
		t.Errorf("URy = %g, want 3", box.URy)
	}
}
