// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcolumn_test

import (
	"testing"

	"github.com/creachadair/jcolumn"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", `""`},
		{" ", `" "`},
		{"a\t\nb", `"a\t\nb"`},
		{"\x00\x01\x02", `"\u0000\u0001\u0002"`},
		{`a "b c\" d"`, `"a \"b c\\\" d\""`},
		{`\ufffd`, `"\\ufffd"`},
		{"\u2028 \u2029 \ufffd", `"\u2028 \u2029 \ufffd"`},
		{"filip ʒakotɛ", `"filip ʒakotɛ"`},
		{"<\x1e>", `"<\u001e>"`},
	}
	for _, test := range tests {
		got := jcolumn.Quote(test.input)
		if got != test.want {
			t.Errorf("Input: %#q\nGot:  %#q\nWant: %#q", test.input, got, test.want)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input string
		want  string
		fail  bool
	}{
		{``, ``, true},                        // missing quotes
		{`"missing quote`, ``, true},          // missing quotes
		{`missing quote"`, ``, true},          // missing quotes
		{`""`, ``, false},                     // ok
		{`"ok go"`, "ok go", false},           // ok
		{`"abc\ndef"`, "abc\ndef", false},     // C escapes
		{`"\b\f\n\r\t"`, "\b\f\n\r\t", false}, // C escapes
		{`"a \u0026 b"`, "a & b", false},      // short Unicode escape
		{`"\u"`, ``, true},                    // incomplete Unicode escape
		{`"\u00"`, ``, true},                  // incomplete Unicode escape
		{`"\u00x9"`, "\ufffd", false},         // invalid Unicode escape
		{`"a\"b"`, `a"b`, false},              // ok
		{`"a\\b\\cd"`, `a\b\cd`, false},       // ok
		{`"{}\\\"[]"`, `{}\"[]`, false},       // brackets are plain text
	}

	for _, test := range tests {
		got, err := jcolumn.Unquote(test.input)
		if err != nil {
			if !test.fail {
				t.Errorf("Unquote(%#q): got %v, want no error", test.input, err)
			} else {
				t.Logf("Unquote(%#q): got expected error: %v", test.input, err)
			}
		} else if test.fail {
			t.Errorf("Unquote(%#q): got nil, want error", test.input)
		}
		if err == nil && string(got) != test.want {
			t.Errorf("Unquote(%#q): got %#q, want %#q", test.input, got, test.want)
		}
	}
}
