// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package cursor implements traversal over a tree of columns.
package cursor

import (
	"fmt"

	"github.com/creachadair/jcolumn/column"
)

// Elements is a path element that selects the element column of a list.
var Elements = elements{}

type elements struct{}

func (elements) String() string { return "[*]" }

// Path traverses a sequential path into the structure of col where path
// elements are as documented for the Cursor.Down method.  This is a
// convenience wrapper for creating a cursor, applying path, and retrieving
// its column.
func Path[T column.Column](col column.Column, path ...any) (T, error) {
	c := New(col).Down(path...)
	var result T
	if err := c.Err(); err != nil {
		return result, err
	}
	v, ok := c.Value().(T)
	if !ok {
		return result, fmt.Errorf("wrong column type %T", c.Value())
	}
	return v, nil
}

// A Cursor is a pointer that navigates into the structure of a column.
type Cursor struct {
	org column.Column
	stk []column.Column
	err error
}

// New constructs a new Cursor to traverse the structure of origin.
func New(origin column.Column) *Cursor { return &Cursor{org: origin} }

// Origin returns the origin column of c.
func (c *Cursor) Origin() column.Column { return c.org }

// AtOrigin reports whether c is at its origin.
func (c *Cursor) AtOrigin() bool { return len(c.stk) == 0 }

// Value reports the current column under the cursor.
func (c *Cursor) Value() column.Column {
	if c.AtOrigin() {
		return c.org
	}
	return c.stk[len(c.stk)-1]
}

// Path reports the complete sequence of columns from the origin to the
// current location in c.
func (c *Cursor) Path() []column.Column {
	return append([]column.Column{c.org}, c.stk...)
}

// Err reports the error from the most recent traversal operation, if any.
func (c *Cursor) Err() error { return c.err }

// Up moves the cursor one position upward in the structure, if possible.
// It returns c to permit chaining.
func (c *Cursor) Up() *Cursor {
	if n := len(c.stk); n > 0 {
		c.stk = c.stk[:n-1]
	}
	return c
}

// Reset resets the cursor to its origin and clears its error.
func (c *Cursor) Reset() { c.stk = c.stk[:0]; c.err = nil }

// Down traverses a sequential path into the structure of c starting from the
// current column, where path elements are strings (denoting field names),
// integers (denoting field positions), Elements, or functions (see below).
// If the path cannot be completely consumed, traversal stops and an error is
// recorded. Use Err to recover the error.
//
// If a path element is a string, the current column must be a struct, and
// the string selects the field with that name.
//
// If a path element is an integer, the current column must be a struct, and
// the integer selects a field by its position. Negative positions count
// backward from the end (-1 is last, -2 second last).
//
// If a path element is Elements, the current column must be a list, and the
// element column of the list is selected.
//
// If a path element is a function, the function is executed and its result
// becomes the next column in the sequence. The function must have a signature
//
//	func(column.Column) (column.Column, error)
//
// If the function reports an error, traversal stops and the error is recorded.
func (c *Cursor) Down(path ...any) *Cursor {
	c.err = nil // reset error
	cur := c.Value()
	for _, elt := range path {
		switch t := elt.(type) {
		case string:
			s, ok := cur.(*column.StructColumn)
			if !ok {
				return c.setErrorf("cannot traverse %s column with %q", cur.Kind(), t)
			}
			next := s.Field(t)
			if next == nil {
				return c.setErrorf("field %q not found", t)
			}
			cur = c.push(next)

		case int:
			s, ok := cur.(*column.StructColumn)
			if !ok {
				return c.setErrorf("cannot traverse %s column with %v", cur.Kind(), t)
			}
			i, ok := fixBound(s.Fields.Len(), t)
			if !ok {
				return c.setErrorf("field index %d out of bounds (n=%d)", i, s.Fields.Len())
			}
			cur = c.push(s.Fields.Column(i))

		case elements:
			l, ok := cur.(*column.ListColumn)
			if !ok {
				return c.setErrorf("cannot traverse %s column with %v", cur.Kind(), t)
			}
			cur = c.push(l.Child)

		case func(column.Column) (column.Column, error):
			next, err := t(cur)
			if err != nil {
				c.err = err
				return c
			}
			cur = c.push(next)

		default:
			return c.setErrorf("invalid path element %T", elt)
		}
	}
	return c
}

func (c *Cursor) push(v column.Column) column.Column { c.stk = append(c.stk, v); return v }

func (c *Cursor) setErrorf(msg string, args ...any) *Cursor {
	c.err = fmt.Errorf(msg, args...)
	return c
}

func fixBound(n, i int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}
