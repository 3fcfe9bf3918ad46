// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcolumn_test

import (
	"errors"
	"testing"

	"github.com/creachadair/jcolumn"
	"github.com/google/go-cmp/cmp"
)

func TestLineColAt(t *testing.T) {
	const input = "{\n  \"a\": 1,\n  \"b\": [\n]}"
	tests := []struct {
		offset int
		want   string
	}{
		{0, "1:0"},
		{1, "1:1"},
		{2, "2:0"},
		{4, "2:2"},
		{12, "3:0"},
		{len(input), "4:2"},
		{len(input) + 10, "4:2"}, // clamped
		{-1, "1:0"},              // clamped
	}
	for _, tc := range tests {
		if got := jcolumn.LineColAt([]byte(input), tc.offset).String(); got != tc.want {
			t.Errorf("LineColAt(%d): got %q, want %q", tc.offset, got, tc.want)
		}
	}
}

func TestLocate(t *testing.T) {
	input := []byte("[1,\n 22]")
	got := jcolumn.Locate(input, jcolumn.Span{Pos: 5, End: 7})
	want := jcolumn.Location{
		Span:  jcolumn.Span{Pos: 5, End: 7},
		First: jcolumn.LineCol{Line: 2, Column: 1},
		Last:  jcolumn.LineCol{Line: 2, Column: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Locate: (-want, +got)\n%s", diff)
	}
	if n := got.Len(); n != 2 {
		t.Errorf("Span length: got %d, want 2", n)
	}
	if !(jcolumn.Span{Pos: 0, End: 8}).Contains(got.Span) {
		t.Errorf("Span %v should contain %v", jcolumn.Span{Pos: 0, End: 8}, got.Span)
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("bad escape")
	serr := jcolumn.NewSyntaxError([]byte("[\n\"\\x\"]"), 3, cause, "invalid escape %q", 'x')
	if got, want := serr.Error(), `at 2:1: invalid escape 'x' (offset 3)`; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}
	if !errors.Is(serr, cause) {
		t.Errorf("Error %v does not wrap %v", serr, cause)
	}
	noloc := &jcolumn.SyntaxError{Offset: 5, Message: "unmatched ListEnd"}
	if got, want := noloc.Error(), "at offset 5: unmatched ListEnd"; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}

	var err error = &jcolumn.ResourceError{What: "input size", Size: 10, Limit: 5}
	if !errors.Is(err, jcolumn.ErrTooLarge) {
		t.Errorf("Error %v: want ErrTooLarge", err)
	}
	if got, want := err.Error(), "input size 10 exceeds limit 5"; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}
}
