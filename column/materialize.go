// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package column

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/creachadair/jcolumn"
	"github.com/creachadair/jcolumn/internal/scan"
	"github.com/creachadair/jcolumn/tree"
)

// ConflictPolicy selects what Materialize does when one position of the
// document holds values of different kinds, for example a field that is an
// object in one record and a string in another.
type ConflictPolicy byte

const (
	// RejectConflicts reports a *SchemaConflictError.
	RejectConflicts ConflictPolicy = iota

	// CoerceToString stores every value at the position as its raw JSON
	// text in a StringColumn. Quoted strings keep their quotes. Nothing
	// nested under the position is materialized.
	CoerceToString
)

func (p ConflictPolicy) String() string {
	switch p {
	case RejectConflicts:
		return "reject"
	case CoerceToString:
		return "coerce"
	}
	return fmt.Sprintf("ConflictPolicy(%d)", byte(p))
}

// Options control the behavior of Materialize. A zero value is ready for use
// and provides default values as described.
type Options struct {
	// What to do about values of different kinds at the same position.
	// The default is RejectConflicts.
	Conflicts ConflictPolicy

	// The maximum number of columns filled concurrently. If ≤ 0, the
	// number of CPUs is used. Use 1 to fill on the calling goroutine.
	Parallelism int
}

// SchemaConflictError is the concrete type of errors reported when a position
// of the document holds values of different kinds.
type SchemaConflictError struct {
	Path   string // the position, e.g., $.records[*].name
	Have   Kind   // the kind seen first
	Got    Kind   // the conflicting kind
	Offset int    // the input offset of the conflicting value
}

// Error satisfies the error interface.
func (s *SchemaConflictError) Error() string {
	return fmt.Sprintf("schema conflict at %s: %s value at offset %d, have %s",
		s.Path, s.Got, s.Offset, s.Have)
}

// ErrEmpty is reported by Materialize for a forest with no nodes.
var ErrEmpty = errors.New("empty forest")

// Materialize builds the column tree for the forest f of input. Either tree
// layout may be used, except that coercing a conflict under CoerceToString
// requires a forest whose containers span their full text. Under the
// reference layout such a conflict is reported as an error wrapping its
// *SchemaConflictError.
//
// The rows of each column are assigned one level of the document at a time,
// and within a level the columns are filled concurrently.
func Materialize(input []byte, f *tree.Forest, opts Options) (Column, error) {
	if f.Len() == 0 {
		return nil, ErrEmpty
	}
	if last := tree.NodeID(f.Len() - 1); f.Categories[last] == tree.Error {
		return nil, &jcolumn.SyntaxError{
			Location: jcolumn.LineColAt(input, int(f.Begin[last])),
			Offset:   int(f.Begin[last]),
			Message:  "malformed input",
		}
	}
	m := &materializer{input: input, f: f, opts: opts}
	levels, err := m.levels()
	if err != nil {
		return nil, err
	}
	root := newBuilder("$")
	root.nrows = 1
	m.colOf = make([]*builder, f.Len())
	m.rowOf = make([]int32, f.Len())
	if err := m.assign(levels[0][0], root, 0); err != nil {
		return nil, err
	}

	for i, level := range levels {
		if i > 0 {
			if err := m.assignLevel(level); err != nil {
				return nil, err
			}
		}
		if err := m.fillLevel(); err != nil {
			return nil, err
		}
	}
	return root.finish(), nil
}

type materializer struct {
	input []byte
	f     *tree.Forest
	opts  Options

	colOf  []*builder // node → column, nil if not materialized
	rowOf  []int32    // node → row in its column
	active []*builder // columns with nodes assigned in the current level
}

// levels groups the value nodes of the forest by their depth in the value
// tree, in which field names do not count as levels.
func (m *materializer) levels() ([][]tree.NodeID, error) {
	f := m.f
	depth := make([]int32, f.Len())
	var counts []int
	for i := range f.Len() {
		if f.Categories[i] == tree.FieldName {
			continue
		}
		d := int32(0)
		if c := m.container(tree.NodeID(i)); c != tree.NoParent {
			d = depth[c] + 1
		} else if i != 0 {
			return nil, &jcolumn.SyntaxError{Offset: int(f.Begin[i]), Message: "multiple root values"}
		}
		depth[i] = d
		if int(d) == len(counts) {
			counts = append(counts, 0)
		}
		counts[d]++
	}

	offsets, total := scan.Offsets(counts)
	order := make([]tree.NodeID, total)
	for i := range f.Len() {
		if f.Categories[i] == tree.FieldName {
			continue
		}
		d := depth[i]
		order[offsets[d]] = tree.NodeID(i)
		offsets[d]++
	}
	out := make([][]tree.NodeID, len(counts))
	pos := 0
	for d, n := range counts {
		out[d] = order[pos : pos+n]
		pos += n
	}
	return out, nil
}

// container returns the struct or list enclosing value node id, or NoParent.
func (m *materializer) container(id tree.NodeID) tree.NodeID {
	p := m.f.Parents[id]
	if p != tree.NoParent && m.f.Categories[p] == tree.FieldName {
		return m.f.Parents[p]
	}
	return p
}

// fieldName returns the field-name node for value node id, whose container
// is a struct.
func (m *materializer) fieldName(id tree.NodeID) tree.NodeID {
	if p := m.f.Parents[id]; m.f.Categories[p] == tree.FieldName {
		return p
	}
	return id - 1
}

// assignLevel assigns the nodes of one level to columns and rows, in order.
func (m *materializer) assignLevel(nodes []tree.NodeID) error {
	for _, id := range nodes {
		c := m.container(id)
		parent := m.colOf[c]
		if parent == nil || parent.coerce {
			continue // not materialized
		}
		prow := int(m.rowOf[c])
		if !parent.Valid(prow) {
			continue
		}

		if m.f.Categories[c] == tree.List {
			col := parent.elem()
			row := col.nrows
			col.nrows++
			parent.counts[prow]++
			if err := m.assign(id, col, row); err != nil {
				return err
			}
			continue
		}

		name := string(m.f.Text(m.input, m.fieldName(id)))
		col := parent.field(name)
		if err := m.assign(id, col, prow); err != nil {
			return err
		}
	}
	return nil
}

// assign records that node id is the given row of col, and checks that its
// kind agrees with the kind of the column.
func (m *materializer) assign(id tree.NodeID, col *builder, row int) error {
	m.colOf[id] = col
	m.rowOf[id] = int32(row)
	if len(col.nodes) == 0 {
		m.active = append(m.active, col)
	}
	col.nodes = append(col.nodes, id)

	if m.isNull(id) {
		return nil
	}
	kind := kindOf(m.f.Categories[id])
	switch {
	case !col.typed:
		col.kind, col.typed = kind, true
	case col.kind != kind && !col.coerce:
		cerr := &SchemaConflictError{Path: col.path, Have: col.kind, Got: kind, Offset: int(m.f.Begin[id])}
		if m.opts.Conflicts == RejectConflicts {
			return cerr
		} else if m.f.Layout.BracketRanges {
			return fmt.Errorf("coercion requires full container ranges: %w", cerr)
		}
		col.coerce = true
	}
	return nil
}

func (m *materializer) isNull(id tree.NodeID) bool {
	return m.f.Categories[id] == tree.Value && bytes.Equal(m.f.Text(m.input, id), []byte("null"))
}

func kindOf(cat tree.Category) Kind {
	switch cat {
	case tree.Struct:
		return Struct
	case tree.List:
		return List
	}
	return String
}

// fillLevel fills the columns assigned in the current level, concurrently.
// Each column is written only by its own goroutine.
func (m *materializer) fillLevel() error {
	active := m.active
	m.active = nil
	return scan.Run(len(active), m.opts.Parallelism, func(i int) error {
		m.fill(active[i])
		return nil
	})
}

func (m *materializer) fill(b *builder) {
	b.valid = newValidity(b.nrows)
	if b.kind == String || b.coerce || !b.typed {
		b.str = newStringColumn(b.nrows)
	}
	if b.kind == List && !b.coerce {
		b.counts = make([]int, b.nrows)
	}
	for _, id := range b.nodes {
		row := int(m.rowOf[id])
		if m.isNull(id) {
			bitutil.ClearBit(b.valid.bits, row)
			continue
		}
		bitutil.SetBit(b.valid.bits, row)
		if b.str == nil {
			continue
		}
		pos, end := m.f.Begin[id], m.f.End[id]
		quoted := m.f.Categories[id] == tree.String
		if b.coerce && quoted {
			pos, end, quoted = pos-1, end+1, false
		}
		b.str.Begin[row], b.str.End[row] = pos, end
		bitutil.SetBitTo(b.str.quoted, row, quoted)
	}
	b.nodes = nil
}

// A builder accumulates the contents of one column.
type builder struct {
	path   string
	kind   Kind
	typed  bool // kind has been set by a non-null value
	coerce bool // values of different kinds were seen
	nrows  int

	nodes []tree.NodeID // assigned in the current level
	valid validity
	str   *StringColumn // for strings and coerced columns

	child  *builder   // list elements
	counts []int      // list elements per row
	fields []*builder // struct fields in order of appearance
	names  Fields     // struct field names, mapped to positions in fields
}

func newBuilder(path string) *builder { return &builder{path: path} }

// Valid reports whether row of b is a valid container.
func (b *builder) Valid(row int) bool { return bitutil.BitIsSet(b.valid.bits, row) }

func (b *builder) elem() *builder {
	if b.child == nil {
		b.child = newBuilder(b.path + "[*]")
	}
	return b.child
}

func (b *builder) field(name string) *builder {
	if i := b.names.Index(name); i >= 0 {
		return b.fields[i]
	}
	fb := newBuilder(b.path + pathElem(name))
	fb.nrows = b.nrows
	b.names.add(name, nil)
	b.fields = append(b.fields, fb)
	return fb
}

// pathElem formats a field name as a path element.
func pathElem(name string) string {
	if isIdent(name) {
		return "." + name
	}
	var sb strings.Builder
	sb.WriteString("['")
	for _, c := range name {
		if c == '\'' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(c)
	}
	sb.WriteString("']")
	return sb.String()
}

func isIdent(s string) bool {
	for i, c := range s {
		if c != '_' && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') && (i == 0 || !('0' <= c && c <= '9')) {
			return false
		}
	}
	return s != ""
}

// finish returns the completed column for b.
func (b *builder) finish() Column {
	if b.str != nil {
		b.str.validity = b.valid
		return b.str
	}
	switch b.kind {
	case List:
		offsets, total := scan.Offsets(b.counts)
		col := &ListColumn{validity: b.valid, Offsets: make([]int32, len(offsets)+1)}
		for i, off := range offsets {
			col.Offsets[i] = int32(off)
		}
		col.Offsets[len(offsets)] = int32(total)
		if b.child != nil {
			col.Child = b.child.finish()
		} else {
			col.Child = newStringColumn(0)
		}
		return col

	case Struct:
		col := &StructColumn{validity: b.valid, Fields: new(Fields)}
		for i, fb := range b.fields {
			col.Fields.add(b.names.Name(i), fb.finish())
		}
		return col
	}
	panic(fmt.Sprintf("column %s: unexpected kind %v", b.path, b.kind))
}
