// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package cursor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

/*
ParsePath grammar, a subset of JSONPath:

  expr = "$" steps
 steps = step [steps]
  step = "." WORD
  step = "[" "'" QTEXT "'" "]"
  step = "[" "*" "]"
  step = "[" INDEX "]"

  WORD = RE `\w+`
 QTEXT = RE `([^'\\]|\\.)*`
 INDEX = RE `-?\d+`
*/

// ParsePath parses s as a path of field names and list elements, and returns
// the corresponding path elements for Cursor.Down. A name step selects a
// struct field, [*] selects the elements of a list, and [n] selects a struct
// field by position. In a quoted name, a backslash escapes the next character.
//
// For example, "$.a[*]['x y'][0]" gives []any{"a", Elements, "x y", 0}.
func ParsePath(s string) ([]any, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var path []any
	for t != "" {
		elt, rest, err := parseStep(t)
		if err != nil {
			return nil, fmt.Errorf("at offset %d: %w", len(s)-len(t), err)
		}
		path = append(path, elt)
		t = rest
	}
	return path, nil
}

func parseStep(s string) (_ any, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "."); ok {
		if m := wordRE.FindStringSubmatch(t); m != nil {
			return m[1], t[len(m[0]):], nil
		}
		return nil, s, errors.New("invalid .name")
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		var elt any
		if u, ok := strings.CutPrefix(t, "*"); ok {
			elt, t = Elements, u
		} else if m := indexRE.FindStringSubmatch(t); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, s, fmt.Errorf("invalid index: %w", err)
			}
			elt, t = n, t[len(m[0]):]
		} else if m := quoteRE.FindStringSubmatch(t); m != nil {
			elt, t = unescapeName(m[1]), t[len(m[0]):]
		} else {
			return nil, s, fmt.Errorf("invalid value: %q", t)
		}
		u, ok := strings.CutPrefix(t, "]")
		if !ok {
			return nil, t, errors.New("missing close bracket")
		}
		return elt, u, nil
	}
	return nil, s, errors.New("invalid path step")
}

func unescapeName(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

var (
	wordRE  = regexp.MustCompile(`^(\w+)`)
	indexRE = regexp.MustCompile(`^(-?\d+)`)
	quoteRE = regexp.MustCompile(`^'((?:[^'\\]|\\.)*)'`)
)
