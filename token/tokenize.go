// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package token

import (
	"math"

	"github.com/creachadair/jcolumn"
	"github.com/creachadair/jcolumn/internal/scan"
	"github.com/creachadair/jcolumn/stackctx"
)

// MaxInput is the largest input the tokenizer accepts, since token offsets
// are 32-bit.
const MaxInput = min(math.MaxUint32, math.MaxInt)

// A Tokenizer converts JSON text into a token stream.  The zero value is
// ready for use and tokenizes sequentially with permissive literals.
type Tokenizer struct {
	parts  int
	strict bool
}

// NewTokenizer constructs a new Tokenizer with default settings.
func NewTokenizer() *Tokenizer { return new(Tokenizer) }

// SetParallelism sets the number of chunks the input is divided into for
// concurrent processing. A value ≤ 1 tokenizes on the calling goroutine.
// The token stream does not depend on this setting.
func (t *Tokenizer) SetParallelism(n int) { t.parts = n }

// StrictLiterals sets whether bare literals must be JSON numbers, true,
// false, null, NaN, Infinity, or -Infinity. By default, any run of bytes
// between delimiters is accepted as a literal.
func (t *Tokenizer) StrictLiterals(ok bool) { t.strict = ok }

// Tokenize tokenizes input with default settings.
func Tokenize(input []byte) ([]Token, error) { return NewTokenizer().Tokenize(input, nil) }

// Tokenize tokenizes input, whose stack context is ctx. If ctx == nil, the
// stack context is computed with the same parallelism as t.
//
// If the input is malformed, the stream returned ends with an ErrorBegin
// token at the offset of the problem, and the error has concrete type
// *jcolumn.SyntaxError. If the input is too large for 32-bit offsets, the
// error has type *jcolumn.ResourceError and no tokens are returned.
func (t *Tokenizer) Tokenize(input []byte, ctx *stackctx.Result) ([]Token, error) {
	if len(input) > MaxInput {
		return nil, &jcolumn.ResourceError{What: "input size", Size: len(input), Limit: MaxInput}
	}
	if ctx == nil {
		ctx = stackctx.Compute(input, t.parts)
	}

	chunks := scan.Split(len(input), t.parts)
	limit := len(chunks)

	// Find the state of the transducer at the start of each chunk.
	start := make([]state, len(chunks))
	if len(chunks) > 1 {
		trans := make([]transition, len(chunks))
		scan.Run(len(chunks), limit, func(i int) error {
			c := chunks[i]
			trans[i] = summarize(input[c.Pos:c.End], ctx.Symbols[c.Pos:c.End])
			return nil
		})
		prefix, _ := scan.Exclusive[transition](transMonoid{}, trans)
		for i, tr := range prefix {
			start[i] = tr[sValue]
		}
	}

	// Emit the tokens of each chunk, then compact them in order.
	outs := make([]chunkOut, len(chunks))
	scan.Run(len(chunks), limit, func(i int) error {
		c := chunks[i]
		outs[i] = emitChunk(input, ctx.Symbols, c, start[i])
		return nil
	})
	counts := make([]int, len(outs))
	for i, o := range outs {
		counts[i] = len(o.toks)
	}
	offsets, total := scan.Offsets(counts)
	toks := make([]Token, total, total+1)
	scan.Run(len(outs), limit, func(i int) error {
		copy(toks[offsets[i]:], outs[i].toks)
		return nil
	})

	// Report the first error, or check the end of input.
	var err error
	for _, o := range outs {
		if o.errMsg != "" {
			err = jcolumn.NewSyntaxError(input, o.errPos, nil, "%s", o.errMsg)
			break
		}
	}
	if err == nil {
		n := uint32(len(input))
		switch final := outs[len(outs)-1].end; {
		case final == sLiteral && ctx.Depth == 0:
			toks = append(toks, Token{Kind: ValueEnd, Offset: n})
		case final == sAfterValue && ctx.Depth == 0:
			// OK, the root value is complete
		default:
			toks = append(toks, Token{Kind: ErrorBegin, Offset: n})
			err = jcolumn.NewSyntaxError(input, len(input), nil, "%s", describeEOF(final, ctx.Depth))
		}
	}
	if t.strict {
		toks, err = checkLiterals(input, toks, err)
	}
	return toks, err
}

// chunkOut is the output of emitChunk for one chunk of input.
type chunkOut struct {
	toks   []Token
	end    state  // the state at the end of the chunk
	errMsg string // if not empty, an error was found
	errPos int    // the offset of the error
}

func emitChunk(input []byte, ctx []stackctx.Symbol, c scan.Chunk, s state) chunkOut {
	var out chunkOut
	if s == sError {
		out.end = s
		return out
	}
	for i := c.Pos; i < c.End; i++ {
		next, e := step(s, ctx[i], input[i])
		for _, k := range emits[e] {
			out.toks = append(out.toks, Token{Kind: k, Offset: uint32(i)})
		}
		if next == sError {
			out.errMsg = describe(s, ctx[i], input[i])
			out.errPos = i
			s = next
			break
		}
		s = next
	}
	out.end = s
	return out
}

// checkLiterals verifies the text of each bare literal in toks. If one is
// invalid, the stream is truncated with an ErrorBegin at its first byte and
// that error replaces err; otherwise toks and err are returned unchanged.
func checkLiterals(input []byte, toks []Token, err error) ([]Token, error) {
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Kind != ValueBegin || toks[i+1].Kind != ValueEnd {
			continue
		}
		pos, end := toks[i].Offset, toks[i+1].Offset
		if lerr := checkLiteral(input[pos:end]); lerr != nil {
			return append(toks[:i], Token{Kind: ErrorBegin, Offset: pos}),
				jcolumn.NewSyntaxError(input, int(pos), lerr, "invalid literal %q: %v", input[pos:end], lerr)
		}
	}
	return toks, err
}

// A transition maps each state at the start of a chunk to the state at its
// end.
type transition [numStates]state

type transMonoid struct{}

func (transMonoid) Identity() transition {
	var tr transition
	for s := range tr {
		tr[s] = state(s)
	}
	return tr
}

func (transMonoid) Combine(a, b transition) transition {
	var out transition
	for s := range out {
		out[s] = b[a[s]]
	}
	return out
}

// summarize simulates the transducer over a chunk from every start state at
// once. Simulations that reach the same state are merged periodically, so in
// practice only a few distinct states are advanced per byte.
func summarize(in []byte, ctx []stackctx.Symbol) transition {
	live := make([]state, numStates)
	var idx [numStates]uint8 // start state → index in live
	for s := range live {
		live[s] = state(s)
		idx[s] = uint8(s)
	}
	for i, c := range in {
		for j, s := range live {
			live[j], _ = step(s, ctx[i], c)
		}
		if i%64 == 63 {
			live = merge(live, &idx)
		}
	}
	var tr transition
	for s := range tr {
		tr[s] = live[idx[s]]
	}
	return tr
}

// merge removes duplicate states from live in place, updating idx to match.
func merge(live []state, idx *[numStates]uint8) []state {
	var pos [numStates]int8
	for i := range pos {
		pos[i] = -1
	}
	var remap [numStates]uint8
	out := live[:0]
	for j, s := range live {
		if pos[s] < 0 {
			pos[s] = int8(len(out))
			out = append(out, s)
		}
		remap[j] = uint8(pos[s])
	}
	for s := range idx {
		idx[s] = remap[idx[s]]
	}
	return out
}
