// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcolumn

import (
	"bytes"
	"fmt"
)

// A Span describes a contiguous span of a source input.
type Span struct {
	Pos int // the start offset, 0-based
	End int // the end offset, 0-based (noninclusive)
}

// Len reports the length of the span in bytes.
func (s Span) Len() int { return s.End - s.Pos }

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool { return s.Pos <= o.Pos && o.End <= s.End }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Pos, s.End) }

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// A Location describes the complete location of a range of source text,
// including line and column offsets.
type Location struct {
	Span
	First, Last LineCol
}

// LineColAt reports the line and column of the given byte offset in input.
// Offsets past the end of input are clamped to len(input), so the position
// just after the last byte is reported for end-of-input errors.
func LineColAt(input []byte, offset int) LineCol {
	offset = max(0, min(offset, len(input)))
	head := input[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	col := offset
	if i := bytes.LastIndexByte(head, '\n'); i >= 0 {
		col = offset - i - 1
	}
	return LineCol{Line: line, Column: col}
}

// Locate reports the complete location of span in input.
func Locate(input []byte, span Span) Location {
	return Location{
		Span:  span,
		First: LineColAt(input, span.Pos),
		Last:  LineColAt(input, span.End),
	}
}
