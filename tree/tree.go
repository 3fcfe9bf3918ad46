// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package tree builds the node forest of a JSON document from its token
// stream.
//
// A Forest is a set of flat parallel arrays indexed by NodeID. Nodes are
// numbered in the order of their Begin tokens, so every node has a larger ID
// than its parent, and the nodes of a subtree are contiguous.
package tree

import (
	"fmt"
	"math"

	"github.com/creachadair/jcolumn"
)

// Category is the type of a node.
type Category byte

// Constants defining the valid Category values.
const (
	Struct    Category = iota // a JSON object
	List                      // a JSON array
	FieldName                 // the name of an object member, without quotes
	String                    // a string value, without quotes
	Value                     // a bare literal: number, true, false, null
	Error                     // a syntax error; always the last node

	numCategories
)

var catStr = [...]string{
	Struct:    "Struct",
	List:      "List",
	FieldName: "FieldName",
	String:    "String",
	Value:     "Value",
	Error:     "Error",
}

func (c Category) String() string {
	if c < numCategories {
		return catStr[c]
	}
	return fmt.Sprintf("Category(%d)", byte(c))
}

// IsContainer reports whether c is Struct or List.
func (c Category) IsContainer() bool { return c == Struct || c == List }

// IsLeaf reports whether c is String or Value.
func (c Category) IsLeaf() bool { return c == String || c == Value }

// A NodeID is the index of a node in a Forest.
type NodeID int32

// NoParent is the parent of a root node.
const NoParent NodeID = -1

// MaxDepth is the deepest nesting level a Forest can represent.
const MaxDepth = math.MaxUint16

// A Layout selects how field values and container ranges are represented in
// a Forest. The zero Layout makes each field value a sibling of its field
// name, and gives containers the range of their full text.
type Layout struct {
	// FieldParents, if true, makes each field value a child of its field
	// name node rather than of the enclosing object.
	FieldParents bool

	// BracketRanges, if true, gives each container the range of its opening
	// bracket only, rather than its full text through the closing bracket.
	BracketRanges bool
}

// Reference is the Layout used by the tree representation of the reference
// parser, where values hang from their field names and containers cover only
// their opening bracket.
var Reference = Layout{FieldParents: true, BracketRanges: true}

// A Forest is the flat tree representation of a document.
// All the slices have the same length, the number of nodes.
type Forest struct {
	Categories []Category
	Parents    []NodeID // NoParent for the root
	Levels     []uint16 // 0 for the root
	Begin      []uint32 // offset of the first byte of the node
	End        []uint32 // offset one past the last byte of the node

	Layout Layout // the layout used to build the forest
}

// Len reports the number of nodes in f.
func (f *Forest) Len() int { return len(f.Categories) }

// Span returns the byte range of node id.
func (f *Forest) Span(id NodeID) jcolumn.Span {
	return jcolumn.Span{Pos: int(f.Begin[id]), End: int(f.End[id])}
}

// Text returns the bytes of input spanned by node id. The span is clamped to
// the length of input.
func (f *Forest) Text(input []byte, id NodeID) []byte {
	end := min(int(f.End[id]), len(input))
	pos := min(int(f.Begin[id]), end)
	return input[pos:end]
}

// Children returns the IDs of the direct children of node id, in order.
func (f *Forest) Children(id NodeID) []NodeID {
	var out []NodeID
	lvl := f.Levels[id]
	for j := int(id) + 1; j < f.Len() && f.Levels[j] > lvl; j++ {
		if f.Parents[j] == id {
			out = append(out, NodeID(j))
		}
	}
	return out
}

// Value returns the ID of the value named by field-name node id, or NoParent
// if id is not a field name with a value.
func (f *Forest) Value(id NodeID) NodeID {
	if f.Categories[id] != FieldName || int(id)+1 >= f.Len() || f.Categories[id+1] == Error {
		return NoParent
	}
	return id + 1
}

// Check verifies the structural invariants of f: parents precede their
// children, each child is one level below its parent, and each node lies
// within the range of its enclosing container. Ranges are not checked for
// forests built with bracket ranges.
func (f *Forest) Check() error {
	for i := range f.Len() {
		id := NodeID(i)
		p := f.Parents[i]
		if p == NoParent {
			if f.Levels[i] != 0 {
				return fmt.Errorf("node %d: root has level %d", id, f.Levels[i])
			}
			continue
		}
		if p < 0 || p >= id {
			return fmt.Errorf("node %d: parent %d out of order", id, p)
		}
		if f.Levels[p]+1 != f.Levels[i] {
			return fmt.Errorf("node %d: level %d under parent level %d", id, f.Levels[i], f.Levels[p])
		}
		if f.Begin[i] > f.End[i] {
			return fmt.Errorf("node %d: invalid range %v", id, f.Span(id))
		}
		if f.Layout.BracketRanges || f.Categories[p] == FieldName || f.Categories[i] == Error {
			continue
		}
		if !f.Span(p).Contains(f.Span(id)) {
			return fmt.Errorf("node %d: range %v outside parent range %v", id, f.Span(id), f.Span(p))
		}
	}
	return nil
}
