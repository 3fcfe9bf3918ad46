// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package stackctx

import "slices"

// A Delta is the net effect of a span of input on the bracket stack: first
// Pops symbols are removed from the stack (as many as are present), and then
// the symbols of Push are pushed in order. Composition of deltas is
// associative.
type Delta struct {
	Pops int
	Push []Symbol
}

// Apply returns the stack that results from applying d to stk.
// The input slice is not modified.
func (d Delta) Apply(stk []Symbol) []Symbol {
	keep := max(0, len(stk)-d.Pops)
	return append(slices.Clip(stk[:keep]), d.Push...)
}

type deltaMonoid struct{}

func (deltaMonoid) Identity() Delta { return Delta{} }

func (deltaMonoid) Combine(a, b Delta) Delta {
	if b.Pops <= len(a.Push) {
		return Delta{
			Pops: a.Pops,
			Push: append(slices.Clip(a.Push[:len(a.Push)-b.Pops]), b.Push...),
		}
	}
	return Delta{Pops: a.Pops + b.Pops - len(a.Push), Push: b.Push}
}

// summarizeStack computes the delta of a chunk whose first byte is seen in
// the given string state.
func summarizeStack(in []byte, state strState) Delta {
	var d Delta
	for _, c := range in {
		if state == outside {
			switch c {
			case '{', '[':
				d.Push = append(d.Push, Symbol(c))
			case '}', ']':
				if n := len(d.Push); n > 0 {
					d.Push = d.Push[:n-1]
				} else {
					d.Pops++
				}
			}
		}
		state = stepString(state, c)
	}
	return d
}

// The string-literal automaton. Brackets have stack effects only in the
// outside state.
type strState uint8

const (
	outside  strState = iota // not in a string literal
	inString                 // after an unescaped opening quote
	escaped                  // after a backslash in a string literal

	numStrStates
)

func stepString(s strState, c byte) strState {
	switch s {
	case outside:
		if c == '"' {
			return inString
		}
	case inString:
		if c == '"' {
			return outside
		} else if c == '\\' {
			return escaped
		}
	case escaped:
		return inString
	}
	return s
}

// A strTrans maps each string state at the start of a chunk to the state at
// its end.
type strTrans [numStrStates]strState

type strMonoid struct{}

func (strMonoid) Identity() strTrans { return strTrans{outside, inString, escaped} }

func (strMonoid) Combine(a, b strTrans) strTrans {
	var out strTrans
	for s := range out {
		out[s] = b[a[s]]
	}
	return out
}

func summarizeStrings(in []byte) strTrans {
	cur := strMonoid{}.Identity()
	for _, c := range in {
		for s := range cur {
			cur[s] = stepString(cur[s], c)
		}
	}
	return cur
}
