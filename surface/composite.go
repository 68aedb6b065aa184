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

package surface

// CompositeOp selects how painted pixels are combined with the pixels
// already present on the surface.
type CompositeOp uint8

// The Porter-Duff operators, followed by the separable and non-separable
// blend modes of the PDF imaging model.
const (
	SourceOver CompositeOp = iota
	SourceIn
	SourceAtop
	DestinationIn
	DestinationOut
	DestinationAtop
	Copy

	Multiply
	Screen
	Overlay
	Darken
	Lighten
	ColorDodge
	ColorBurn
	HardLight
	SoftLight
	Difference
	Exclusion
	Hue
	Saturation
	ColorBlend
	Luminosity
)

var compositeNames = map[CompositeOp]string{
	SourceOver:      "source-over",
	SourceIn:        "source-in",
	SourceAtop:      "source-atop",
	DestinationIn:   "destination-in",
	DestinationOut:  "destination-out",
	DestinationAtop: "destination-atop",
	Copy:            "copy",
	Multiply:        "multiply",
	Screen:          "screen",
	Overlay:         "overlay",
	Darken:          "darken",
	Lighten:         "lighten",
	ColorDodge:      "color-dodge",
	ColorBurn:       "color-burn",
	HardLight:       "hard-light",
	SoftLight:       "soft-light",
	Difference:      "difference",
	Exclusion:       "exclusion",
	Hue:             "hue",
	Saturation:      "saturation",
	ColorBlend:      "color",
	Luminosity:      "luminosity",
}

func (op CompositeOp) String() string {
	if s, ok := compositeNames[op]; ok {
		return s
	}
	return "source-over"
}

// IsBlendMode reports whether op is one of the PDF blend modes, rather than
// a Porter-Duff operator.
func (op CompositeOp) IsBlendMode() bool {
	return op >= Multiply
}

// BlendModeFromName maps a PDF blend mode name to the corresponding
// operator.  Unknown names map to SourceOver and ok == false.
func BlendModeFromName(name string) (op CompositeOp, ok bool) {
	switch name {
	case "Normal", "Compatible":
		return SourceOver, true
	case "Multiply":
		return Multiply, true
	case "Screen":
		return Screen, true
	case "Overlay":
		return Overlay, true
	case "Darken":
		return Darken, true
	case "Lighten":
		return Lighten, true
	case "ColorDodge":
		return ColorDodge, true
	case "ColorBurn":
		return ColorBurn, true
	case "HardLight":
		return HardLight, true
	case "SoftLight":
		return SoftLight, true
	case "Difference":
		return Difference, true
	case "Exclusion":
		return Exclusion, true
	case "Hue":
		return Hue, true
	case "Saturation":
		return Saturation, true
	case "Color":
		return ColorBlend, true
	case "Luminosity":
		return Luminosity, true
	}
	return SourceOver, false
}
