// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package tree

import (
	"fmt"

	"github.com/creachadair/jcolumn"
	"github.com/creachadair/jcolumn/token"
)

// Build constructs the forest described by a token stream.
//
// The stream must describe at most one root value. If it ends with an
// ErrorBegin token, Build returns the forest through an Error node for that
// token, together with a *jcolumn.SyntaxError. Any other malformation of the
// stream is also reported as a *jcolumn.SyntaxError, and nesting deeper than
// MaxDepth is reported as a *jcolumn.ResourceError. In these cases the
// forest returned is incomplete.
//
// Errors from Build carry a byte offset but no line and column, since the
// input text is not available here.
func Build(tokens []token.Token, layout Layout) (*Forest, error) {
	b := newBuilder(tokens, layout)
	for b.pos < len(b.toks) {
		if err := b.next(); err != nil {
			return b.f, err
		}
	}
	return b.f, b.finish()
}

type builder struct {
	f    *Forest
	toks []token.Token
	pos  int // index of the next token

	open    []NodeID // open containers, innermost last
	pending NodeID   // a field name awaiting its value, or NoParent
}

func newBuilder(toks []token.Token, layout Layout) *builder {
	var n int
	for _, tok := range toks {
		switch tok.Kind {
		case token.StructBegin, token.ListBegin, token.FieldNameBegin, token.StringBegin, token.ValueBegin:
			n++
		}
	}
	return &builder{
		f: &Forest{
			Categories: make([]Category, 0, n),
			Parents:    make([]NodeID, 0, n),
			Levels:     make([]uint16, 0, n),
			Begin:      make([]uint32, 0, n),
			End:        make([]uint32, 0, n),
			Layout:     layout,
		},
		toks:    toks,
		pending: NoParent,
	}
}

func (b *builder) next() error {
	tok := b.toks[b.pos]
	b.pos++

	switch tok.Kind {
	case token.StructBegin, token.ListBegin:
		cat := Struct
		if tok.Kind == token.ListBegin {
			cat = List
		}
		id, err := b.addValue(cat, tok.Offset, tok.Offset+1)
		if err != nil {
			return err
		}
		b.open = append(b.open, id)

	case token.StructEnd, token.ListEnd:
		want := Struct
		if tok.Kind == token.ListEnd {
			want = List
		}
		if len(b.open) == 0 {
			return b.errorf(tok.Offset, "unmatched %v", tok.Kind)
		}
		id := b.open[len(b.open)-1]
		if got := b.f.Categories[id]; got != want {
			return b.errorf(tok.Offset, "%v closes %v at offset %d", tok.Kind, got, b.f.Begin[id])
		} else if b.pending != NoParent {
			return b.errorf(tok.Offset, "field name at offset %d has no value", b.f.Begin[b.pending]-1)
		}
		b.open = b.open[:len(b.open)-1]
		if !b.f.Layout.BracketRanges {
			b.f.End[id] = tok.Offset + 1
		}

	case token.FieldNameBegin:
		end, ok, err := b.pairEnd(tok)
		if !ok {
			return err
		}
		if len(b.open) == 0 || b.f.Categories[b.open[len(b.open)-1]] != Struct {
			return b.errorf(tok.Offset, "field name outside an object")
		} else if b.pending != NoParent {
			return b.errorf(tok.Offset, "field name follows a field name")
		}
		id, err := b.add(FieldName, tok.Offset+1, end, b.open[len(b.open)-1])
		if err != nil {
			return err
		}
		b.pending = id

	case token.StringBegin:
		end, ok, err := b.pairEnd(tok)
		if !ok {
			return err
		}
		_, err = b.addValue(String, tok.Offset+1, end)
		return err

	case token.ValueBegin:
		end, ok, err := b.pairEnd(tok)
		if !ok {
			return err
		}
		_, err = b.addValue(Value, tok.Offset, end)
		return err

	case token.ErrorBegin:
		if _, err := b.add(Error, tok.Offset, tok.Offset+1, b.parent()); err != nil {
			return err
		}
		b.pos = len(b.toks)
		return b.errorf(tok.Offset, "malformed input")

	case token.StructMemberBegin, token.StructMemberEnd:
		// Members are implied by their field names.

	default:
		return b.errorf(tok.Offset, "unexpected %v", tok.Kind)
	}
	return nil
}

// finish checks that the stream closed everything it opened.
func (b *builder) finish() error {
	if b.pending != NoParent {
		return b.errorf(b.f.Begin[b.pending]-1, "field name has no value")
	} else if n := len(b.open); n != 0 {
		id := b.open[n-1]
		return b.errorf(b.f.Begin[id], "unclosed %v", b.f.Categories[id])
	}
	return nil
}

// pairEnd consumes the End token matching tok and returns its offset.
// If the stream breaks off with an ErrorBegin instead, pairEnd consumes
// nothing and reports ok == false with a nil error, leaving the ErrorBegin
// for the next step.
func (b *builder) pairEnd(tok token.Token) (_ uint32, ok bool, _ error) {
	if b.pos < len(b.toks) && b.toks[b.pos].Kind == token.ErrorBegin {
		return 0, false, nil
	} else if b.pos >= len(b.toks) || b.toks[b.pos].Kind != tok.Kind.End() {
		return 0, false, b.errorf(tok.Offset, "unpaired %v", tok.Kind)
	}
	end := b.toks[b.pos].Offset
	b.pos++
	return end, true, nil
}

// parent returns the parent for a new value node.
func (b *builder) parent() NodeID {
	if b.pending != NoParent && b.f.Layout.FieldParents {
		return b.pending
	} else if n := len(b.open); n != 0 {
		return b.open[n-1]
	}
	return NoParent
}

// addValue adds a value node of the given category, which consumes the
// pending field name if there is one.
func (b *builder) addValue(cat Category, pos, end uint32) (NodeID, error) {
	if len(b.open) == 0 && b.f.Len() != 0 {
		return 0, b.errorf(pos, "multiple root values")
	} else if len(b.open) != 0 && b.pending == NoParent && b.f.Categories[b.open[len(b.open)-1]] == Struct {
		return 0, b.errorf(pos, "object member has no field name")
	}
	id, err := b.add(cat, pos, end, b.parent())
	b.pending = NoParent
	return id, err
}

func (b *builder) add(cat Category, pos, end uint32, parent NodeID) (NodeID, error) {
	var level int
	if parent != NoParent {
		level = int(b.f.Levels[parent]) + 1
	}
	if level > MaxDepth {
		return 0, &jcolumn.ResourceError{What: "nesting depth", Size: level, Limit: MaxDepth}
	}
	f := b.f
	f.Categories = append(f.Categories, cat)
	f.Parents = append(f.Parents, parent)
	f.Levels = append(f.Levels, uint16(level))
	f.Begin = append(f.Begin, pos)
	f.End = append(f.End, end)
	return NodeID(f.Len() - 1), nil
}

func (b *builder) errorf(offset uint32, msg string, args ...any) error {
	return &jcolumn.SyntaxError{Offset: int(offset), Message: fmt.Sprintf(msg, args...)}
}
