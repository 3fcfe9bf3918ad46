// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package token

import (
	"fmt"

	"github.com/creachadair/jcolumn/stackctx"
)

// A state of the tokenizing transducer.
type state uint8

const (
	sValue       state = iota // expecting a value
	sListFirst                // after '[': a value or ']'
	sLiteral                  // inside a bare literal
	sString                   // inside a string value
	sStringEsc                // after '\' in a string value
	sStringHex4               // Unicode escape in a string value, 4 digits left
	sStringHex3               // ... 3 digits left
	sStringHex2               // ... 2 digits left
	sStringHex1               // ... 1 digit left
	sAfterValue               // after a complete value
	sMemberFirst              // after '{': a field name or '}'
	sMember                   // after ',' in an object: a field name
	sName                     // inside a field name
	sNameEsc                  // after '\' in a field name
	sNameHex4                 // Unicode escape in a field name, 4 digits left
	sNameHex3                 // ... 3 digits left
	sNameHex2                 // ... 2 digits left
	sNameHex1                 // ... 1 digit left
	sAfterName                // after a field name: ':'
	sError                    // absorbing error state

	numStates
)

// An emit selects the tokens emitted by a transition. All the tokens of a
// transition have the offset of the byte that caused it.
type emit uint8

const (
	eNone emit = iota
	eStructBegin
	eStructEnd
	eListBegin
	eListEnd
	eStringBegin
	eStringEnd
	eValueBegin
	eValueEnd
	eValueListEnd
	eValueMemberEnd
	eValueMemberStructEnd
	eMemberBegin
	eMemberEnd
	eMemberStructEnd
	eFieldNameEnd
	eError
)

var emits = [...][]Kind{
	eNone:                 nil,
	eStructBegin:          {StructBegin},
	eStructEnd:            {StructEnd},
	eListBegin:            {ListBegin},
	eListEnd:              {ListEnd},
	eStringBegin:          {StringBegin},
	eStringEnd:            {StringEnd},
	eValueBegin:           {ValueBegin},
	eValueEnd:             {ValueEnd},
	eValueListEnd:         {ValueEnd, ListEnd},
	eValueMemberEnd:       {ValueEnd, StructMemberEnd},
	eValueMemberStructEnd: {ValueEnd, StructMemberEnd, StructEnd},
	eMemberBegin:          {StructMemberBegin, FieldNameBegin},
	eMemberEnd:            {StructMemberEnd},
	eMemberStructEnd:      {StructMemberEnd, StructEnd},
	eFieldNameEnd:         {FieldNameEnd},
	eError:                {ErrorBegin},
}

// step computes the transition of the transducer from s on byte c, where ctx
// is the stack context of c. The context matters only for the delimiters
// ',', ']', and '}', whose meaning depends on the enclosing container.
func step(s state, ctx stackctx.Symbol, c byte) (state, emit) {
	switch s {
	case sValue, sListFirst:
		switch {
		case isSpace(c):
			return s, eNone
		case c == ']' && s == sListFirst && ctx == stackctx.List:
			return sAfterValue, eListEnd
		case c == '{':
			return sMemberFirst, eStructBegin
		case c == '[':
			return sListFirst, eListBegin
		case c == '"':
			return sString, eStringBegin
		case isDelim(c):
			return sError, eError
		}
		return sLiteral, eValueBegin

	case sLiteral:
		switch {
		case isSpace(c):
			return sAfterValue, eValueEnd
		case c == ',' && ctx == stackctx.Struct:
			return sMember, eValueMemberEnd
		case c == ',' && ctx == stackctx.List:
			return sValue, eValueEnd
		case c == '}' && ctx == stackctx.Struct:
			return sAfterValue, eValueMemberStructEnd
		case c == ']' && ctx == stackctx.List:
			return sAfterValue, eValueListEnd
		case isDelim(c), c == '{', c == '[', c == '"':
			return sError, eError
		}
		return sLiteral, eNone

	case sAfterValue:
		switch {
		case isSpace(c):
			return s, eNone
		case c == ',' && ctx == stackctx.Struct:
			return sMember, eMemberEnd
		case c == ',' && ctx == stackctx.List:
			return sValue, eNone
		case c == '}' && ctx == stackctx.Struct:
			return sAfterValue, eMemberStructEnd
		case c == ']' && ctx == stackctx.List:
			return sAfterValue, eListEnd
		}
		return sError, eError

	case sMemberFirst, sMember:
		switch {
		case isSpace(c):
			return s, eNone
		case c == '}' && s == sMemberFirst:
			return sAfterValue, eStructEnd
		case c == '"':
			return sName, eMemberBegin
		}
		return sError, eError

	case sAfterName:
		switch {
		case isSpace(c):
			return s, eNone
		case c == ':':
			return sValue, eNone
		}
		return sError, eError

	case sString, sName:
		switch {
		case c == '"' && s == sString:
			return sAfterValue, eStringEnd
		case c == '"':
			return sAfterName, eFieldNameEnd
		case c == '\\':
			return s + 1, eNone // sStringEsc, sNameEsc
		case c < ' ':
			return sError, eError
		}
		return s, eNone

	case sStringEsc, sNameEsc:
		switch c {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			return s - 1, eNone // back to sString, sName
		case 'u':
			return s + 1, eNone // sStringHex4, sNameHex4
		}
		return sError, eError

	case sStringHex4, sStringHex3, sStringHex2, sNameHex4, sNameHex3, sNameHex2:
		if isHexDigit(c) {
			return s + 1, eNone
		}
		return sError, eError

	case sStringHex1, sNameHex1:
		if !isHexDigit(c) {
			return sError, eError
		} else if s == sStringHex1 {
			return sString, eNone
		}
		return sName, eNone
	}
	return sError, eNone
}

// describe explains why the transducer rejected byte c in state s.
func describe(s state, ctx stackctx.Symbol, c byte) string {
	switch s {
	case sValue:
		return fmt.Sprintf("unexpected %q, expected a value", c)
	case sListFirst:
		return fmt.Sprintf("unexpected %q, expected a value or ']'", c)
	case sLiteral, sAfterValue:
		if c == '}' || c == ']' {
			if ctx == stackctx.Root {
				return fmt.Sprintf("unmatched %q", c)
			} else if (c == '}') != (ctx == stackctx.Struct) {
				return fmt.Sprintf("mismatched %q in %s", c, containerName(ctx))
			}
		}
		if ctx == stackctx.Root {
			return fmt.Sprintf("unexpected %q after the root value", c)
		} else if s == sLiteral {
			return fmt.Sprintf("unexpected %q in literal", c)
		} else if ctx == stackctx.Struct {
			return fmt.Sprintf("unexpected %q, expected ',' or '}'", c)
		}
		return fmt.Sprintf("unexpected %q, expected ',' or ']'", c)
	case sMemberFirst:
		return fmt.Sprintf("unexpected %q, expected a field name or '}'", c)
	case sMember:
		return fmt.Sprintf("unexpected %q, expected a field name", c)
	case sAfterName:
		return fmt.Sprintf("unexpected %q, expected ':'", c)
	case sString, sName:
		return fmt.Sprintf("invalid control character %q in string", c)
	case sStringEsc, sNameEsc:
		return fmt.Sprintf("invalid escape %q", "\\"+string(rune(c)))
	}
	return fmt.Sprintf("invalid hex digit %q in Unicode escape", c)
}

// describeEOF explains why the transducer rejected the end of input in state
// s with depth containers still open.
func describeEOF(s state, depth int) string {
	switch {
	case s >= sString && s <= sStringHex1, s >= sName && s <= sNameHex1:
		return "unterminated string"
	case depth > 0:
		return fmt.Sprintf("unexpected end of input, %d unclosed containers", depth)
	case s == sValue:
		return "unexpected end of input, expected a value"
	}
	return "unexpected end of input"
}

func containerName(ctx stackctx.Symbol) string {
	if ctx == stackctx.Struct {
		return "object"
	}
	return "array"
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }
func isDelim(c byte) bool { return c == ',' || c == ':' || c == '}' || c == ']' }

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
