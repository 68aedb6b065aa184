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

// Package oplist represents the display lists which are interpreted by
// package seehuhn.de/go/pdfpaint/render.
//
// A display list is a flat sequence of instructions.  Each instruction
// consists of an [OpCode] and a slice of arguments.  The Go types of the
// arguments depend on the opcode; the types are documented in ir.go and are
// produced by [DecodeJSON] from the wire representation.
package oplist

// List is a display list.
//
// Opcodes and Args always have the same length.  The list is only ever
// extended at the end, and new chunks may be appended while an earlier part
// of the list is being interpreted.
type List struct {
	Opcodes []OpCode
	Args    [][]any

	// LastChunk is set once no more instructions will be appended.
	LastChunk bool

	// SeparateAnnots, if non-nil, describes which annotations are rendered
	// separately from the page.
	SeparateAnnots *SeparateAnnots
}

// SeparateAnnots describes how annotations are separated from the main
// page content.
type SeparateAnnots struct {
	Form   bool
	Canvas bool
}

// Append adds a single instruction to the end of the list.
func (l *List) Append(op OpCode, args ...any) {
	l.Opcodes = append(l.Opcodes, op)
	l.Args = append(l.Args, args)
}

// AppendChunk appends the instructions of chunk to l.  If chunk is the last
// chunk, l is marked as complete.
func (l *List) AppendChunk(chunk *List) {
	l.Opcodes = append(l.Opcodes, chunk.Opcodes...)
	l.Args = append(l.Args, chunk.Args...)
	for len(l.Args) < len(l.Opcodes) {
		l.Args = append(l.Args, nil)
	}
	if chunk.LastChunk {
		l.LastChunk = true
	}
	if chunk.SeparateAnnots != nil {
		l.SeparateAnnots = chunk.SeparateAnnots
	}
}

// Len returns the number of instructions in the list.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Opcodes)
}

// Complete returns a single-chunk list containing the given instructions.
// This is mostly useful for constructing lists in code.
func Complete(ops ...Instr) *List {
	l := &List{LastChunk: true}
	for _, op := range ops {
		l.Append(op.Op, op.Args...)
	}
	return l
}

// Instr is a single instruction.
type Instr struct {
	Op   OpCode
	Args []any
}

// I returns an instruction with the given opcode and arguments.
func I(op OpCode, args ...any) Instr {
	return Instr{Op: op, Args: args}
}
