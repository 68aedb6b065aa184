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
	"fmt"
	"strconv"
)

// FormatError indicates that the arguments of an instruction do not have
// the expected shape.
type FormatError struct {
	// Op is the opcode of the offending instruction.
	Op OpCode

	// Index is the position of the instruction in the list, or -1 if
	// unknown.
	Index int

	Msg string
}

func (err *FormatError) Error() string {
	pos := ""
	if err.Index >= 0 {
		pos = " at index " + strconv.Itoa(err.Index)
	}
	return "malformed instruction " + err.Op.String() + pos + ": " + err.Msg
}

// Errorf returns a FormatError for the given opcode.  The index is
// filled in later by the interpreter.
func Errorf(op OpCode, format string, a ...any) *FormatError {
	return &FormatError{
		Op:    op,
		Index: -1,
		Msg:   fmt.Sprintf(format, a...),
	}
}
