// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package token implements the structural tokenizer for JSON documents.
//
// The tokenizer is a pushdown transducer: it reads the input together with
// its stack context (see package stackctx) and emits an ordered stream of
// boundary tokens, each a kind and a byte offset:
//
//	Kinds                         | Offset
//	----------------------------- | -------------------------------------------
//	StructBegin, StructEnd        | the brace
//	ListBegin, ListEnd            | the bracket
//	FieldNameBegin, FieldNameEnd  | the opening and closing quote
//	StringBegin, StringEnd        | the opening and closing quote
//	ValueBegin, ValueEnd          | the first byte, and one past the last byte
//	StructMemberBegin             | the opening quote of the field name
//	StructMemberEnd               | the ',' or '}' that ends the member
//	ErrorBegin                    | the offending byte (ends the stream)
//
// Offsets are non-decreasing, and every Begin is matched by its End except
// for a final ErrorBegin.
package token

import "fmt"

// Kind is the type of a token.
type Kind byte

// Constants defining the valid Kind values.
const (
	StructBegin Kind = iota
	StructEnd
	ListBegin
	ListEnd
	StructMemberBegin
	StructMemberEnd
	FieldNameBegin
	FieldNameEnd
	StringBegin
	StringEnd
	ValueBegin
	ValueEnd
	ErrorBegin

	numKinds
)

var kindStr = [...]string{
	StructBegin:       "StructBegin",
	StructEnd:         "StructEnd",
	ListBegin:         "ListBegin",
	ListEnd:           "ListEnd",
	StructMemberBegin: "StructMemberBegin",
	StructMemberEnd:   "StructMemberEnd",
	FieldNameBegin:    "FieldNameBegin",
	FieldNameEnd:      "FieldNameEnd",
	StringBegin:       "StringBegin",
	StringEnd:         "StringEnd",
	ValueBegin:        "ValueBegin",
	ValueEnd:          "ValueEnd",
	ErrorBegin:        "ErrorBegin",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindStr[k]
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// IsBegin reports whether k opens a region that a later token closes.
func (k Kind) IsBegin() bool {
	switch k {
	case StructBegin, ListBegin, StructMemberBegin, FieldNameBegin, StringBegin, ValueBegin:
		return true
	}
	return false
}

// End returns the kind that closes a region opened by k. For kinds that do
// not open a region, End returns k unchanged.
func (k Kind) End() Kind {
	if k.IsBegin() {
		return k + 1
	}
	return k
}

// A Token is a structural boundary in the input.
type Token struct {
	Kind   Kind
	Offset uint32
}

func (t Token) String() string { return fmt.Sprintf("%v@%d", t.Kind, t.Offset) }
