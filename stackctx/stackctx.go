// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package stackctx computes the stack context of a JSON document: for each
// input byte, the kind of the innermost container that is open just before
// that byte is consumed.
//
// Brackets inside string literals do not affect the stack. The computation
// is expressed as two associative scans over chunks of the input, one for
// the string-literal state and one for the bracket stack, so it can be run
// in parallel with a result that does not depend on how the input was split.
package stackctx

import (
	"slices"

	"github.com/creachadair/jcolumn/internal/scan"
)

// A Symbol identifies the innermost open container at an input position.
type Symbol byte

// Symbol values. They are the characters used to render a stack context as
// text, for example "_[{{{[".
const (
	Root   Symbol = '_' // no container is open
	Struct Symbol = '{' // inside an object
	List   Symbol = '[' // inside an array
)

func (s Symbol) String() string { return string(rune(s)) }

// Result is the stack context of an input.
type Result struct {
	// Symbols[i] is the innermost open container just before byte i.
	// The opening bracket of a container is therefore labelled with its
	// parent's symbol, and the closing bracket with the container itself.
	Symbols []Symbol

	// Depth is the number of containers still open at the end of input.
	Depth int

	// Underflow is the offset of the first closing bracket that was seen
	// with no container open, or -1 if there was none. Such a bracket does
	// not change the stack.
	Underflow int

	// InString reports whether the input ends inside a string literal.
	InString bool

	final Symbol
}

// String renders the symbols of r as text.
func (r *Result) String() string {
	buf := make([]byte, len(r.Symbols))
	for i, s := range r.Symbols {
		buf[i] = byte(s)
	}
	return string(buf)
}

// Final reports the innermost container open at the end of input.
// It is Root when Depth == 0, and otherwise the symbol that would be
// reported for a byte appended to the input.
func (r *Result) Final() Symbol { return r.final }

// Compute computes the stack context of input, splitting the work into at
// most parts chunks processed concurrently. The result is the same for any
// value of parts; parts ≤ 1 runs on the calling goroutine.
func Compute(input []byte, parts int) *Result {
	chunks := scan.Split(len(input), parts)
	limit := len(chunks)

	// Phase 1: string-literal state at the start of each chunk.
	trans := make([]strTrans, len(chunks))
	scan.Run(len(chunks), limit, func(i int) error {
		c := chunks[i]
		trans[i] = summarizeStrings(input[c.Pos:c.End])
		return nil
	})
	strStart, strTotal := scan.Exclusive[strTrans](strMonoid{}, trans)

	// Phase 2: bracket stack at the start of each chunk.
	deltas := make([]Delta, len(chunks))
	scan.Run(len(chunks), limit, func(i int) error {
		c := chunks[i]
		deltas[i] = summarizeStack(input[c.Pos:c.End], strStart[i][outside])
		return nil
	})
	stkStart, stkTotal := scan.Exclusive[Delta](deltaMonoid{}, deltas)

	// Phase 3: label each position.
	out := make([]Symbol, len(input))
	under := make([]int, len(chunks))
	scan.Run(len(chunks), limit, func(i int) error {
		c := chunks[i]
		under[i] = fill(out[c.Pos:c.End], input[c.Pos:c.End], strStart[i][outside], stkStart[i].Push)
		if under[i] >= 0 {
			under[i] += c.Pos
		}
		return nil
	})

	res := &Result{
		Symbols:   out,
		Depth:     len(stkTotal.Push),
		Underflow: -1,
		InString:  strTotal[outside] != outside,
		final:     top(stkTotal.Push),
	}
	for _, u := range under {
		if u >= 0 {
			res.Underflow = u
			break
		}
	}
	return res
}

// Sequential computes the stack context of input with a single left-to-right
// pass over an explicit stack. It is the reference for Compute.
func Sequential(input []byte) *Result {
	res := &Result{Symbols: make([]Symbol, len(input)), Underflow: -1}
	var stk []Symbol
	state := outside
	for i, c := range input {
		res.Symbols[i] = top(stk)
		if state == outside {
			switch c {
			case '{', '[':
				stk = append(stk, Symbol(c))
			case '}', ']':
				if len(stk) == 0 {
					if res.Underflow < 0 {
						res.Underflow = i
					}
				} else {
					stk = stk[:len(stk)-1]
				}
			}
		}
		state = stepString(state, c)
	}
	res.Depth = len(stk)
	res.InString = state != outside
	res.final = top(stk)
	return res
}

func top(stk []Symbol) Symbol {
	if len(stk) == 0 {
		return Root
	}
	return stk[len(stk)-1]
}

// fill labels each position of in, starting from the given string state and
// open stack. It reports the offset within in of the first underflow, or -1.
func fill(out []Symbol, in []byte, state strState, open []Symbol) int {
	stk := slices.Clone(open)
	under := -1
	for i, c := range in {
		out[i] = top(stk)
		if state == outside {
			switch c {
			case '{', '[':
				stk = append(stk, Symbol(c))
			case '}', ']':
				if len(stk) == 0 {
					if under < 0 {
						under = i
					}
				} else {
					stk = stk[:len(stk)-1]
				}
			}
		}
		state = stepString(state, c)
	}
	return under
}
