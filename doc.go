// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jcolumn converts JSON documents into nested columns.
//
// The conversion is a pipeline of four stages, each in its own package. Every
// stage works on the whole document in memory, and splits its work into
// chunks that are processed concurrently. The output of each stage does not
// depend on how the work was split.
//
//	Stage            | Package  | Output
//	---------------- | -------- | -----------------------------------------
//	stack context    | stackctx | the innermost open container at each byte
//	tokenizer        | token    | begin and end tokens with byte offsets
//	tree builder     | tree     | a forest of nodes in flat arrays
//	materializer     | column   | struct, list, and string columns
//
// The nested package runs the whole pipeline:
//
//	res, err := nested.Parse(input)
//	if err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//	fmt.Println(res.Shape()) // e.g., list<struct<a:string,b:list<string>>>
//
// # Values
//
// Leaf values are not converted. A string or literal is stored as the range
// of input bytes that holds its text, so a number like 8.95 is the text
// "8.95". Use StringColumn.Unescaped to decode the escapes in a string, or
// the Quote and Unquote functions of this package to convert between JSON
// string text and Go strings.
//
// # Errors
//
// Malformed input is reported as a *SyntaxError giving the byte offset, line,
// and column of the problem. Inputs that exceed the limits of the offset or
// depth representation are reported as a *ResourceError, which wraps
// ErrTooLarge. Other errors, such as schema conflicts, are reported by the
// package that detects them.
package jcolumn
