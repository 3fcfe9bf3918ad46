// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package nested parses a JSON document into a tree of columns.
//
// A Parser runs the four stages of the pipeline in order: the stack context
// of each input byte (package stackctx), the token stream (package token),
// the node forest (package tree), and the columns (package column). Each
// stage can also be run separately through its own package.
//
// Basic usage:
//
//	res, err := nested.Parse(data)
//	if err != nil {
//	   log.Fatalf("Parse: %v", err)
//	}
//	for _, nc := range res.Records() {
//	   fmt.Println(nc.Name, column.Shape(nc.Column))
//	}
//
// The string rows of the result refer to byte ranges of Input, which is the
// input data itself unless comments were enabled.
package nested

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/creachadair/jcolumn"
	"github.com/creachadair/jcolumn/column"
	"github.com/creachadair/jcolumn/stackctx"
	"github.com/creachadair/jcolumn/token"
	"github.com/creachadair/jcolumn/tree"
	"github.com/tailscale/hujson"
)

// A Parser parses JSON documents into columns. A zero Parser is ready for
// use with default settings. The settings of a Parser must not be changed
// while a call to Parse is in progress.
type Parser struct {
	comments bool
	parts    int
	strict   bool
	policy   column.ConflictPolicy
	layout   tree.Layout
	maxInput int
	log      *slog.Logger
}

// NewParser constructs a new Parser with default settings.
func NewParser() *Parser { return new(Parser) }

// AllowComments configures p to accept JSON With Commas and Comments (JWCC):
// comments and trailing commas are replaced by spaces before parsing, so
// offsets in the result still match the original data. Bare literals other
// than true, false, and null are not accepted in this mode.
func (p *Parser) AllowComments(ok bool) { p.comments = ok }

// SetParallelism sets the number of concurrent workers used by each stage.
// If n ≤ 0, the number of CPUs is used. Use 1 to parse on the calling
// goroutine. The result does not depend on this setting.
func (p *Parser) SetParallelism(n int) { p.parts = n }

// StrictLiterals configures p to check bare literals against the JSON number
// grammar. See token.Tokenizer.StrictLiterals.
func (p *Parser) StrictLiterals(ok bool) { p.strict = ok }

// SetConflictPolicy sets what to do about values of different kinds at the
// same position of the document. The default is column.RejectConflicts.
func (p *Parser) SetConflictPolicy(policy column.ConflictPolicy) { p.policy = policy }

// SetLayout sets the layout of the forest built by p. The default is the zero
// layout. Coercion of conflicts requires the zero layout.
func (p *Parser) SetLayout(layout tree.Layout) { p.layout = layout }

// SetMaxInput sets the largest input p will accept, in bytes. If n ≤ 0 or
// n > token.MaxInput, the limit is token.MaxInput.
func (p *Parser) SetMaxInput(n int) { p.maxInput = n }

// SetLogger sets a logger to which p writes debug records for each stage.
// If lg == nil, nothing is logged.
func (p *Parser) SetLogger(lg *slog.Logger) { p.log = lg }

func (p *Parser) limit() int {
	if p.maxInput <= 0 || p.maxInput > token.MaxInput {
		return token.MaxInput
	}
	return p.maxInput
}

func (p *Parser) parallelism() int {
	if p.parts <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p.parts
}

// Parse parses a JSON document with default settings.
func Parse(data []byte) (*Result, error) { return NewParser().Parse(data) }

// Prepare checks the size of data and, if comments are enabled, returns a
// copy of data with comments and trailing commas replaced by spaces.
// Otherwise it returns data unmodified. Parse calls Prepare, so it is only
// needed by callers that run the stages separately.
func (p *Parser) Prepare(data []byte) ([]byte, error) {
	if n := p.limit(); len(data) > n {
		return nil, &jcolumn.ResourceError{What: "input size", Size: len(data), Limit: n}
	}
	if !p.comments {
		return data, nil
	}
	std, err := hujson.Standardize(bytes.Clone(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JWCC input: %w", err)
	}
	return std, nil
}

// Parse parses data and returns its columns.
//
// If data is not well-formed, the error has concrete type
// *jcolumn.SyntaxError. If it exceeds a size or depth limit, the error has
// type *jcolumn.ResourceError. If the conflict policy rejects a conflict, the
// error has type *column.SchemaConflictError.
func (p *Parser) Parse(data []byte) (*Result, error) {
	input, err := p.Prepare(data)
	if err != nil {
		return nil, err
	}
	parts := p.parallelism()

	start := time.Now()
	ctx := stackctx.Compute(input, parts)
	p.logStage("context", start, slog.Int("bytes", len(input)), slog.Int("depth", ctx.Depth))

	start = time.Now()
	tok := token.NewTokenizer()
	tok.SetParallelism(parts)
	tok.StrictLiterals(p.strict)
	toks, err := tok.Tokenize(input, ctx)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	p.logStage("tokens", start, slog.Int("tokens", len(toks)))

	start = time.Now()
	forest, err := tree.Build(toks, p.layout)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", locate(input, err))
	}
	p.logStage("tree", start, slog.Int("nodes", forest.Len()))

	start = time.Now()
	root, err := column.Materialize(input, forest, column.Options{
		Conflicts:   p.policy,
		Parallelism: parts,
	})
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", locate(input, err))
	}
	p.logStage("columns", start, slog.String("shape", column.Shape(root)))

	return &Result{input: input, forest: forest, root: root}, nil
}

func (p *Parser) logStage(stage string, start time.Time, attrs ...any) {
	if p.log == nil {
		return
	}
	args := append([]any{slog.String("stage", stage), slog.Duration("elapsed", time.Since(start))}, attrs...)
	p.log.Debug("parse stage complete", args...)
}

// locate fills in the line and column of a syntax error reported without
// them by a stage that does not see the input text.
func locate(input []byte, err error) error {
	var serr *jcolumn.SyntaxError
	if errors.As(err, &serr) && serr.Location.Line == 0 {
		serr.Location = jcolumn.LineColAt(input, serr.Offset)
	}
	return err
}

// Result is the outcome of a successful parse.
type Result struct {
	input  []byte
	forest *tree.Forest
	root   column.Column
}

// Input returns the bytes indexed by the string rows of r.
func (r *Result) Input() []byte { return r.input }

// Forest returns the node forest from which r was materialized.
func (r *Result) Forest() *tree.Forest { return r.forest }

// Root returns the column for the root value of the document. It has one row.
func (r *Result) Root() column.Column { return r.root }

// Shape returns the nested type of the root column.
func (r *Result) Shape() string { return column.Shape(r.root) }

// A NamedColumn is a column together with its field name. The name is empty
// for a column that is not a field.
type NamedColumn struct {
	Name   string
	Column column.Column
}

// Columns returns the top-level columns of r. If the root is an object, each
// of its fields is a column with one row. Otherwise, the root itself is the
// only column, with an empty name.
func (r *Result) Columns() []NamedColumn {
	if s, ok := r.root.(*column.StructColumn); ok {
		return fields(s)
	}
	return []NamedColumn{{Column: r.root}}
}

// Records returns the columns of r as a table. If the root is an array of
// objects, each field of the objects is a column with one row per object.
// Otherwise, Records returns the same as Columns.
func (r *Result) Records() []NamedColumn {
	if l, ok := r.root.(*column.ListColumn); ok {
		if s, ok := l.Child.(*column.StructColumn); ok {
			return fields(s)
		}
	}
	return r.Columns()
}

func fields(s *column.StructColumn) []NamedColumn {
	out := make([]NamedColumn, s.Fields.Len())
	for i := range out {
		out[i] = NamedColumn{Name: s.Fields.Name(i), Column: s.Fields.Column(i)}
	}
	return out
}
