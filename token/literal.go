// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package token

import "errors"

// checkLiteral reports whether text is a valid bare literal: a JSON number,
// true, false, null, or one of the extensions NaN, Infinity, and -Infinity.
func checkLiteral(text []byte) error {
	switch string(text) {
	case "true", "false", "null", "NaN", "Infinity", "-Infinity":
		return nil
	}
	return checkNumber(text)
}

// checkNumber reports whether text has the syntax of a JSON number.
func checkNumber(text []byte) error {
	i := 0
	if i < len(text) && text[i] == '-' {
		i++
	}
	start := i
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i == start {
		return errors.New("not a number or literal")
	}
	if hasExtraLeadingZeroes(text[start:i]) {
		return errors.New("extra leading zeroes")
	}

	// If a decimal point follows, consume a fractional part.
	if i < len(text) && text[i] == '.' {
		i++
		n := i
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		if i == n {
			return errors.New("no digits after decimal point")
		}
	}

	// If an exponent follows, consume it.
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		i++
		if i < len(text) && (text[i] == '+' || text[i] == '-') {
			i++
		}
		n := i
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		if i == n {
			return errors.New("no digits after exponent")
		}
	}
	if i != len(text) {
		return errors.New("invalid character in number")
	}
	return nil
}

// hasExtraLeadingZeroes reports whether the representation of an integer in
// buf has redundant leading zeroes, disallowed by the JSON grammar.
//
// OK: 0, 10, 7 are all OK.
// Bad: 01, 00, 007.
func hasExtraLeadingZeroes(buf []byte) bool { return len(buf) > 1 && buf[0] == '0' }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
