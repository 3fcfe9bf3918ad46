// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package column materializes the node forest of a JSON document as a tree
// of columns.
//
// Each JSON object position becomes a StructColumn, each array position a
// ListColumn, and each string or literal position a StringColumn whose rows
// refer to byte ranges of the input. Values are not converted: a number such
// as 8.95 is stored as the text "8.95", and typing is left to the caller.
//
// Use Materialize to construct columns from a forest, Shape to describe the
// type of a column, and Format to print a column for debugging.
package column

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/cespare/xxhash/v2"
	"github.com/creachadair/jcolumn/internal/escape"
	"go4.org/mem"
)

// Kind is the type of a column.
type Kind byte

// Constants defining the valid Kind values.
const (
	String Kind = iota
	List
	Struct
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case List:
		return "list"
	case Struct:
		return "struct"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// A Column is a materialized column. The concrete type of a Column is one of
// *StringColumn, *ListColumn, or *StructColumn.
type Column interface {
	// Kind reports the kind of the column.
	Kind() Kind

	// Len reports the number of rows in the column.
	Len() int

	// Valid reports whether row is present and not null.
	Valid(row int) bool

	// NullCount reports the number of rows that are not valid.
	NullCount() int
}

// validity is a row count and a validity bitmap, shared by all column types.
type validity struct {
	n    int
	bits []byte
}

func newValidity(n int) validity {
	return validity{n: n, bits: make([]byte, bitutil.BytesForBits(int64(n)))}
}

// Len reports the number of rows in the column.
func (v *validity) Len() int { return v.n }

// Valid reports whether row is present and not null.
func (v *validity) Valid(row int) bool { return bitutil.BitIsSet(v.bits, row) }

// NullCount reports the number of rows that are not valid.
func (v *validity) NullCount() int { return v.n - bitutil.CountSetBits(v.bits, 0, v.n) }

// Bitmap returns the validity bitmap of the column, with one bit per row in
// least-significant bit order. The caller must not modify its contents.
func (v *validity) Bitmap() []byte { return v.bits }

// StringColumn is a column of strings and literals. Each row refers to a
// range of the input.
type StringColumn struct {
	validity

	Begin, End []uint32 // the byte range of each row
	quoted     []byte   // bitmap of rows that were quoted strings
}

func newStringColumn(n int) *StringColumn {
	return &StringColumn{
		validity: newValidity(n),
		Begin:    make([]uint32, n),
		End:      make([]uint32, n),
		quoted:   make([]byte, bitutil.BytesForBits(int64(n))),
	}
}

// Kind implements part of the Column interface. It returns String.
func (*StringColumn) Kind() Kind { return String }

// Text returns the raw text of row in input. For a quoted string this is the
// contents between the quotes, with escapes intact.
func (c *StringColumn) Text(input []byte, row int) []byte { return input[c.Begin[row]:c.End[row]] }

// Quoted reports whether row was a quoted string, as opposed to a bare
// literal or the raw text of a coerced value.
func (c *StringColumn) Quoted(row int) bool { return bitutil.BitIsSet(c.quoted, row) }

// Unescaped returns the text of row in input with escapes decoded. Rows that
// are not quoted are returned unmodified.
func (c *StringColumn) Unescaped(input []byte, row int) ([]byte, error) {
	text := c.Text(input, row)
	if !c.Quoted(row) {
		return text, nil
	}
	return escape.AppendUnquote(nil, mem.B(text))
}

// ListColumn is a column of lists. The elements of row i are rows
// Offsets[i] through Offsets[i+1]-1 of the Child column.
type ListColumn struct {
	validity

	Offsets []int32 // len(Offsets) == Len()+1
	Child   Column
}

// Kind implements part of the Column interface. It returns List.
func (*ListColumn) Kind() Kind { return List }

// Elements returns the range of child rows for row.
func (c *ListColumn) Elements(row int) (lo, hi int) {
	return int(c.Offsets[row]), int(c.Offsets[row+1])
}

// StructColumn is a column of objects. Each field of the objects at this
// position is a child column with the same number of rows. A row is invalid
// in a field column if that object lacks the field.
type StructColumn struct {
	validity

	Fields *Fields
}

// Kind implements part of the Column interface. It returns Struct.
func (*StructColumn) Kind() Kind { return Struct }

// Field returns the column for the named field, or nil if there is none.
func (c *StructColumn) Field(name string) Column {
	if i := c.Fields.Index(name); i >= 0 {
		return c.Fields.Column(i)
	}
	return nil
}

// Fields is an ordered collection of named columns. Fields are kept in the
// order they were first seen in the input.
type Fields struct {
	names []string
	cols  []Column
	index map[uint64][]int // hash of name → positions
}

// Len reports the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Name returns the name of the ith field. Names are the raw text of the
// field names in the input, with escapes intact.
func (f *Fields) Name(i int) string { return f.names[i] }

// Column returns the column of the ith field.
func (f *Fields) Column(i int) Column { return f.cols[i] }

// Index returns the position of the named field, or -1.
func (f *Fields) Index(name string) int {
	if f == nil {
		return -1
	}
	for _, i := range f.index[xxhash.Sum64String(name)] {
		if f.names[i] == name {
			return i
		}
	}
	return -1
}

// add adds a field and returns its position. The name must not already be
// present.
func (f *Fields) add(name string, col Column) int {
	if f.index == nil {
		f.index = make(map[uint64][]int)
	}
	i := len(f.names)
	f.names = append(f.names, name)
	f.cols = append(f.cols, col)
	h := xxhash.Sum64String(name)
	f.index[h] = append(f.index[h], i)
	return i
}
