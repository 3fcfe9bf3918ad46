// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcolumn

import (
	"errors"
	"fmt"
)

// ErrTooLarge is the underlying error of a [ResourceError].
var ErrTooLarge = errors.New("input too large")

// SyntaxError is the concrete type of errors reported for structurally
// malformed input by the tokenizer and the tree builder.
type SyntaxError struct {
	Location LineCol // the line and column of the offending byte
	Offset   int     // the byte offset of the offending byte
	Message  string

	err error
}

// NewSyntaxError constructs a *SyntaxError for the given offset of input.
// If err != nil, it is reported as the underlying cause.
func NewSyntaxError(input []byte, offset int, err error, msg string, args ...any) *SyntaxError {
	return &SyntaxError{
		Location: LineColAt(input, offset),
		Offset:   offset,
		Message:  fmt.Sprintf(msg, args...),
		err:      err,
	}
}

// Error satisfies the error interface. An error whose Location is not known
// reports only the offset.
func (s *SyntaxError) Error() string {
	if s.Location.Line == 0 {
		return fmt.Sprintf("at offset %d: %s", s.Offset, s.Message)
	}
	return fmt.Sprintf("at %s: %s (offset %d)", s.Location, s.Message, s.Offset)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }

// ResourceError reports that a document exceeds an addressable limit, such
// as the range of byte offsets or the maximum nesting depth.
type ResourceError struct {
	What  string // what was measured, e.g., "input size"
	Size  int    // the observed size
	Limit int    // the maximum permitted size
}

// Error satisfies the error interface.
func (r *ResourceError) Error() string {
	return fmt.Sprintf("%s %d exceeds limit %d", r.What, r.Size, r.Limit)
}

// Unwrap reports [ErrTooLarge], so that errors.Is(err, ErrTooLarge) holds.
func (r *ResourceError) Unwrap() error { return ErrTooLarge }
