// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Program jcolumn parses a JSON document and prints the output of one stage
// of the column pipeline, for debugging.
//
// Usage:
//
//	jcolumn [flags] [file]
//
// The document is read from file, or from stdin if no file is named.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/creachadair/jcolumn/column"
	"github.com/creachadair/jcolumn/column/cursor"
	"github.com/creachadair/jcolumn/nested"
	"github.com/creachadair/jcolumn/stackctx"
	"github.com/creachadair/jcolumn/token"
	"github.com/creachadair/jcolumn/tree"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type config struct {
	stage     string
	path      string
	parallel  int
	comments  bool
	strict    bool
	coerce    bool
	reference bool
	verbose   bool
}

func parseFlags(args []string, stderr io.Writer) (*config, []string, error) {
	var cfg config
	fs := flag.NewFlagSet("jcolumn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.stage, "stage", "columns", "Output stage: context, tokens, tree, or columns")
	fs.StringVar(&cfg.path, "path", "", "Print only the column at this path (e.g., $[*].name)")
	fs.IntVar(&cfg.parallel, "parallel", 0, "Number of concurrent workers (0 means one per CPU)")
	fs.BoolVar(&cfg.comments, "comments", false, "Allow comments and trailing commas")
	fs.BoolVar(&cfg.strict, "strict", false, "Check literals against the JSON number grammar")
	fs.BoolVar(&cfg.coerce, "coerce", false, "Store values of conflicting kinds as raw text")
	fs.BoolVar(&cfg.reference, "reference", false, "Build the tree with the reference layout")
	fs.BoolVar(&cfg.verbose, "v", false, "Log the progress of each stage to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: jcolumn [flags] [file]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	switch cfg.stage {
	case "context", "tokens", "tree", "columns":
	default:
		return nil, nil, fmt.Errorf("unknown stage %q", cfg.stage)
	}
	if cfg.path != "" && cfg.stage != "columns" {
		return nil, nil, errors.New("-path requires -stage=columns")
	}
	if fs.NArg() > 1 {
		return nil, nil, errors.New("at most one input file may be given")
	}
	return &cfg, fs.Args(), nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, rest, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	var data []byte
	if len(rest) == 0 {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(rest[0])
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: reading input: %v\n", err)
		return 1
	}

	w := bufio.NewWriter(stdout)
	if err := cfg.print(w, data, stderr); err != nil {
		w.Flush()
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: writing output: %v\n", err)
		return 1
	}
	return 0
}

func (c *config) parser(stderr io.Writer) *nested.Parser {
	p := nested.NewParser()
	p.AllowComments(c.comments)
	p.SetParallelism(c.parallel)
	p.StrictLiterals(c.strict)
	if c.coerce {
		p.SetConflictPolicy(column.CoerceToString)
	}
	if c.reference {
		p.SetLayout(tree.Reference)
	}
	if c.verbose {
		p.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	return p
}

func (c *config) print(w *bufio.Writer, data []byte, stderr io.Writer) error {
	p := c.parser(stderr)
	if c.stage == "columns" {
		res, err := p.Parse(data)
		if err != nil {
			return err
		}
		col := res.Root()
		if c.path != "" {
			path, err := cursor.ParsePath(c.path)
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
			cur := cursor.New(col).Down(path...)
			if err := cur.Err(); err != nil {
				return fmt.Errorf("path %s: %w", c.path, err)
			}
			col = cur.Value()
		}
		return column.Format(w, res.Input(), col)
	}

	input, err := p.Prepare(data)
	if err != nil {
		return err
	}
	parts := c.parallel
	if parts <= 0 {
		parts = runtime.GOMAXPROCS(0)
	}
	ctx := stackctx.Compute(input, parts)
	if c.stage == "context" {
		fmt.Fprintln(w, ctx.String())
		return nil
	}

	tok := token.NewTokenizer()
	tok.SetParallelism(parts)
	tok.StrictLiterals(c.strict)
	toks, terr := tok.Tokenize(input, ctx)
	if c.stage == "tokens" {
		for _, t := range toks {
			fmt.Fprintln(w, t)
		}
		return terr
	}
	if terr != nil {
		return terr
	}

	layout := tree.Layout{}
	if c.reference {
		layout = tree.Reference
	}
	f, err := tree.Build(toks, layout)
	if err != nil {
		return err
	}
	for i := range f.Len() {
		id := tree.NodeID(i)
		fmt.Fprintf(w, "%d\t%v\tparent=%d\tlevel=%d\t%v\n", i, f.Categories[id], f.Parents[id], f.Levels[id], f.Span(id))
	}
	return nil
}
